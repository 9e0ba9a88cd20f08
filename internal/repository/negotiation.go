package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/negoride/platform/internal/domain"
)

type negotiationRepo struct{}

// NewNegotiationRepository returns a pgx-backed NegotiationRepository.
// The negotiations table is owned by the ride-matching service; this
// repository touches only the two payment columns.
func NewNegotiationRepository() NegotiationRepository {
	return &negotiationRepo{}
}

func (r *negotiationRepo) SetPaymentStatus(ctx context.Context, db DBTX, negotiationID uuid.UUID, status domain.NegotiationPaymentStatus, completedAt *time.Time) error {
	_, err := db.Exec(ctx, `
		UPDATE negotiations
		SET payment_status = $2, payment_completed_at = $3
		WHERE id = $1`,
		negotiationID, string(status), completedAt,
	)
	if err != nil {
		return fmt.Errorf("set negotiation payment status: %w", err)
	}
	return nil
}
