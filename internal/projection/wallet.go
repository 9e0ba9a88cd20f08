package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/negoride/platform/internal/domain"
)

// WalletProjection is a cached wallet read model.
type WalletProjection struct {
	UserID        string `json:"user_id"`
	Balance       int64  `json:"balance"`
	TotalEarnings int64  `json:"total_earnings"`
	UpdatedAt     string `json:"updated_at"`
}

const walletTTL = 5 * time.Minute

func walletKey(userID string) string {
	return fmt.Sprintf("projection:wallet:%s", userID)
}

// UpdateWallet caches a user's wallet projection.
func UpdateWallet(ctx context.Context, store Store, w *domain.WalletAccount) error {
	p := WalletProjection{
		UserID:        w.UserID.String(),
		Balance:       w.Balance,
		TotalEarnings: w.TotalEarnings,
		UpdatedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	return SetJSON(ctx, store, walletKey(p.UserID), p, walletTTL)
}

// GetWallet retrieves a cached wallet projection.
func GetWallet(ctx context.Context, store Store, userID string) (*WalletProjection, error) {
	var p WalletProjection
	if err := GetJSON(ctx, store, walletKey(userID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// InvalidateWallet removes a user's cached wallet. Called after every
// transition that mutates the wallet so reads re-derive from storage.
func InvalidateWallet(ctx context.Context, store Store, userID string) error {
	return store.Delete(ctx, walletKey(userID))
}
