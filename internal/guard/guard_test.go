package guard

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestIdempotencyGuard_FreshClaim(t *testing.T) {
	ig := NewIdempotencyGuard()

	id, fresh := ig.Claim(context.Background(), "key-1")
	assert.True(t, fresh)
	assert.Equal(t, uuid.Nil, id)
}

func TestIdempotencyGuard_DuplicateReturnsRecordedPayment(t *testing.T) {
	ig := NewIdempotencyGuard()
	ctx := context.Background()
	paymentID := uuid.New()

	_, fresh := ig.Claim(ctx, "key-1")
	assert.True(t, fresh)
	ig.Record("key-1", paymentID)

	id, fresh := ig.Claim(ctx, "key-1")
	assert.False(t, fresh)
	assert.Equal(t, paymentID, id)
}

func TestIdempotencyGuard_EmptyKeyNeverDeduplicated(t *testing.T) {
	ig := NewIdempotencyGuard()
	ctx := context.Background()

	_, fresh := ig.Claim(ctx, "")
	assert.True(t, fresh)
	_, fresh = ig.Claim(ctx, "")
	assert.True(t, fresh)
}

func TestIdempotencyGuard_ReleaseAllowsRetry(t *testing.T) {
	ig := NewIdempotencyGuard()
	ctx := context.Background()

	_, _ = ig.Claim(ctx, "key-1")
	ig.Release("key-1")

	_, fresh := ig.Claim(ctx, "key-1")
	assert.True(t, fresh)
}
