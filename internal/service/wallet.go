package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/negoride/platform/internal/domain"
	"github.com/negoride/platform/internal/ledger"
	"github.com/negoride/platform/internal/projection"
	"github.com/negoride/platform/internal/repository"
)

// WalletService serves wallet reads and the rebuild-from-ledger repair path.
type WalletService struct {
	pool    *pgxpool.Pool
	wallets repository.WalletRepository
	engine  *ledger.Engine
	cache   projection.Store
	logger  *slog.Logger
}

// NewWalletService creates a WalletService.
func NewWalletService(pool *pgxpool.Pool, wallets repository.WalletRepository, engine *ledger.Engine, cache projection.Store, logger *slog.Logger) *WalletService {
	return &WalletService{pool: pool, wallets: wallets, engine: engine, cache: cache, logger: logger}
}

// GetWallet returns the user's wallet, served from the projection cache when
// fresh. A user with no ledger history gets a zero wallet, not an error.
func (s *WalletService) GetWallet(ctx context.Context, userID uuid.UUID) (*domain.WalletAccount, error) {
	if cached, err := projection.GetWallet(ctx, s.cache, userID.String()); err == nil {
		return &domain.WalletAccount{
			UserID:        userID,
			Balance:       cached.Balance,
			TotalEarnings: cached.TotalEarnings,
		}, nil
	} else if !errors.Is(err, projection.ErrNotCached) {
		s.logger.Warn("wallet projection read", "user_id", userID, "error", err)
	}

	wallet, err := s.wallets.FindByUser(ctx, s.pool, userID)
	if err != nil {
		return nil, domain.ErrInternal("find wallet", err)
	}
	if wallet == nil {
		wallet = &domain.WalletAccount{UserID: userID}
	}

	if err := projection.UpdateWallet(ctx, s.cache, wallet); err != nil {
		s.logger.Warn("wallet projection write", "user_id", userID, "error", err)
	}
	return wallet, nil
}

// GetLedger returns the user's ledger entries ordered by creation time.
func (s *WalletService) GetLedger(ctx context.Context, userID uuid.UUID) ([]domain.Transaction, error) {
	entries, err := s.engine.EntriesForUser(ctx, s.pool, userID)
	if err != nil {
		return nil, domain.ErrInternal("list ledger entries", err)
	}
	return entries, nil
}

// RebuildWallet recomputes the wallet from the ledger and repairs drift.
func (s *WalletService) RebuildWallet(ctx context.Context, userID uuid.UUID) (*ledger.RebuildResult, error) {
	result, err := s.engine.RebuildWallet(ctx, s.pool, userID)
	if err != nil {
		return nil, domain.ErrInternal("rebuild wallet", err)
	}
	if err := projection.InvalidateWallet(ctx, s.cache, userID.String()); err != nil {
		s.logger.Warn("invalidate wallet projection", "user_id", userID, "error", err)
	}
	return result, nil
}
