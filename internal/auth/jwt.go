package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Realm identifies the JWT authentication realm.
type Realm string

const (
	RealmRider  Realm = "rider"
	RealmDriver Realm = "driver"
	RealmOps    Realm = "ops"
)

// Claims holds the custom JWT claims for all realms.
type Claims struct {
	jwt.RegisteredClaims
	Realm Realm  `json:"realm"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"` // ops realm: viewer, operator, admin
}

// JWTManager validates and issues tokens. Token issuance lives with the
// identity service; this service issues only in tests and tooling.
type JWTManager struct {
	secret  []byte
	userTTL time.Duration
	opsTTL  time.Duration
}

// NewJWTManager creates a JWT manager with per-audience expiry durations.
func NewJWTManager(secret string, userTTL, opsTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:  []byte(secret),
		userTTL: userTTL,
		opsTTL:  opsTTL,
	}
}

// GenerateToken creates a signed JWT for the given realm and subject.
func (m *JWTManager) GenerateToken(realm Realm, subjectID uuid.UUID, email, role string) (string, error) {
	var ttl time.Duration
	switch realm {
	case RealmRider, RealmDriver:
		ttl = m.userTTL
	case RealmOps:
		ttl = m.opsTTL
	default:
		return "", fmt.Errorf("unknown realm: %s", realm)
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
		Realm: realm,
		Email: email,
		Role:  role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses and validates a JWT, returning claims if valid.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// ValidateTokenForRealms validates a token and ensures it belongs to one of
// the expected realms.
func (m *JWTManager) ValidateTokenForRealms(tokenString string, realms ...Realm) (*Claims, error) {
	claims, err := m.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	for _, realm := range realms {
		if claims.Realm == realm {
			return claims, nil
		}
	}
	return nil, fmt.Errorf("realm %s not permitted", claims.Realm)
}
