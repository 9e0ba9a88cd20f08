// Package guard holds request-level protections in front of the service
// layer. The ledger's own replay protection is database-enforced; these
// guards only cheapen the common duplicate paths.
package guard

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// IdempotencyGuard deduplicates payment initiations by idempotency key and
// remembers which payment a key produced, so a retried request receives the
// original payment instead of a duplicate charge.
type IdempotencyGuard struct {
	mu   sync.Mutex
	seen map[string]uuid.UUID
}

// NewIdempotencyGuard creates a new in-memory idempotency guard.
func NewIdempotencyGuard() *IdempotencyGuard {
	return &IdempotencyGuard{
		seen: make(map[string]uuid.UUID),
	}
}

// Claim reserves the key. Returns the previously recorded payment id and
// false when the key was already claimed; the zero id and true when the
// claim is fresh. An empty key is never deduplicated.
func (ig *IdempotencyGuard) Claim(_ context.Context, key string) (uuid.UUID, bool) {
	if key == "" {
		return uuid.Nil, true
	}

	ig.mu.Lock()
	defer ig.mu.Unlock()

	if id, ok := ig.seen[key]; ok {
		return id, false
	}
	ig.seen[key] = uuid.Nil
	return uuid.Nil, true
}

// Record associates the claimed key with the payment it created.
func (ig *IdempotencyGuard) Record(key string, paymentID uuid.UUID) {
	if key == "" {
		return
	}
	ig.mu.Lock()
	defer ig.mu.Unlock()
	ig.seen[key] = paymentID
}

// Release frees the key after a failed initiation so the client may retry.
func (ig *IdempotencyGuard) Release(key string) {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	delete(ig.seen, key)
}
