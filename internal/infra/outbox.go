package infra

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/negoride/platform/internal/domain"
	"github.com/negoride/platform/internal/repository"
)

// OutboxPoller polls the event_outbox table and publishes events to Kafka.
// Outbox rows are written in the same transaction as the ledger writes they
// describe, so at-least-once publication never invents or drops money events.
type OutboxPoller struct {
	pool      *pgxpool.Pool
	outbox    repository.OutboxRepository
	producer  *KafkaProducer
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewOutboxPoller creates a new outbox poller.
func NewOutboxPoller(pool *pgxpool.Pool, outbox repository.OutboxRepository, producer *KafkaProducer, logger *slog.Logger) *OutboxPoller {
	return &OutboxPoller{
		pool:      pool,
		outbox:    outbox,
		producer:  producer,
		logger:    logger,
		interval:  500 * time.Millisecond,
		batchSize: 100,
	}
}

// Start begins polling in a goroutine. Stops when ctx is cancelled.
func (p *OutboxPoller) Start(ctx context.Context) {
	p.logger.Info("outbox poller started", "interval", p.interval, "batch_size", p.batchSize)

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.logger.Info("outbox poller stopped")
				return
			case <-ticker.C:
				if err := p.poll(ctx); err != nil {
					p.logger.Error("outbox poll error", "error", err)
				}
			}
		}
	}()
}

func (p *OutboxPoller) poll(ctx context.Context) error {
	drafts, err := p.outbox.FetchUnpublished(ctx, p.pool, p.batchSize)
	if err != nil {
		return err
	}
	if len(drafts) == 0 {
		return nil
	}

	published := make([]uuid.UUID, 0, len(drafts))
	for _, d := range drafts {
		if err := p.producer.Publish(ctx, EventTopic(string(d.EventType)), []byte(d.PartitionKey), envelope(d)); err != nil {
			p.logger.Error("kafka publish failed", "event_id", d.EventID, "error", err)
			continue
		}
		published = append(published, d.EventID)
	}

	if err := p.outbox.MarkPublished(ctx, p.pool, published); err != nil {
		return err
	}

	p.logger.Debug("outbox poll complete", "published", len(published), "fetched", len(drafts))
	return nil
}

func envelope(d domain.OutboxDraft) []byte {
	msg, _ := json.Marshal(map[string]interface{}{
		"event_id":       d.EventID,
		"aggregate_type": d.AggregateType,
		"aggregate_id":   d.AggregateID,
		"event_type":     d.EventType,
		"payload":        d.Payload,
		"occurred_at":    d.OccurredAt,
	})
	return msg
}
