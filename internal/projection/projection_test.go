package projection

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/negoride/platform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_SetAndGet(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	err := store.Set(ctx, "k1", []byte("hello"), 0)
	require.NoError(t, err)

	val, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), val)
}

func TestInMemoryStore_KeyNotFound(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotCached)
}

func TestInMemoryStore_Delete(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_ = store.Set(ctx, "k1", []byte("data"), 0)
	_ = store.Delete(ctx, "k1")

	_, err := store.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrNotCached)
}

func TestInMemoryStore_TTLExpiry(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_ = store.Set(ctx, "k1", []byte("data"), 1*time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, err := store.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrNotCached)
}

func TestWalletProjection_RoundTrip(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	err := UpdateWallet(ctx, store, &domain.WalletAccount{
		UserID:        userID,
		Balance:       2250,
		TotalEarnings: 4500,
	})
	require.NoError(t, err)

	got, err := GetWallet(ctx, store, userID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(2250), got.Balance)
	assert.Equal(t, int64(4500), got.TotalEarnings)
	assert.NotEmpty(t, got.UpdatedAt)
}

func TestWalletProjection_Invalidate(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	userID := uuid.New()

	_ = UpdateWallet(ctx, store, &domain.WalletAccount{UserID: userID, Balance: 100})
	_ = InvalidateWallet(ctx, store, userID.String())

	_, err := GetWallet(ctx, store, userID.String())
	assert.ErrorIs(t, err, ErrNotCached)
}
