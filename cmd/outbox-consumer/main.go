// outbox-consumer tails the payment event topics. It exists for downstream
// integration during development: it prints every published event so the
// negotiation and notification services can be built against real traffic.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/negoride/platform/internal/domain"
	"github.com/negoride/platform/internal/infra"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("outbox consumer failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.KafkaEnabled {
		return fmt.Errorf("KAFKA_ENABLED must be true for the outbox consumer")
	}

	topics := []domain.EventType{
		domain.EventPaymentSettled,
		domain.EventPaymentFailed,
		domain.EventPaymentCancelled,
		domain.EventPaymentRefunded,
		domain.EventEntryPosted,
	}

	var wg sync.WaitGroup
	for _, eventType := range topics {
		topic := infra.EventTopic(string(eventType))
		consumer := infra.NewKafkaConsumer(cfg, topic, "negoride-outbox-consumer")

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer consumer.Close()

			logger.Info("consuming", "topic", topic)
			for {
				msg, err := consumer.ReadMessage(ctx)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return
					}
					logger.Error("read message", "topic", topic, "error", err)
					continue
				}
				logger.Info("event",
					"topic", msg.Topic,
					"key", string(msg.Key),
					"offset", msg.Offset,
					"value", string(msg.Value))
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")
	wg.Wait()
	return nil
}
