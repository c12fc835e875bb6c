// worker consumes account lifecycle events from Kafka and applies follow-up
// cleanup, currently sweeping any sessions left behind by a deleted account.
// Set KAFKA_BROKERS, EVENTS_KAFKA_TOPIC, KAFKA_GROUP_ID, and DATABASE_URL.
package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"gatekeeper/backend/internal/config"
	"gatekeeper/backend/internal/db"
	"gatekeeper/backend/internal/events"
	sessionrepo "gatekeeper/backend/internal/session/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	brokers := cfg.EventsKafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "worker")

	pool, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()
	sessions := sessionrepo.NewPostgresRepository(pool)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.EventsKafkaTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Info("worker shutting down")
		cancel()
	}()

	logger.Info("worker consuming", "topic", cfg.EventsKafkaTopic, "group", cfg.KafkaGroupID)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("worker stopped")
				return
			}
			logger.Error("kafka read failed", "error", err)
			continue
		}

		var event events.AccountEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Warn("skipping malformed event", "error", err)
			continue
		}
		if event.Type != events.TypeAccountDeleted {
			continue
		}

		sweepCtx, sweepCancel := context.WithTimeout(ctx, 10*time.Second)
		n, err := sessions.DeleteByAccountID(sweepCtx, event.AccountID)
		sweepCancel()
		if err != nil {
			logger.Error("session sweep failed", "account_id", event.AccountID, "error", err)
			continue
		}
		if n > 0 {
			logger.Info("swept sessions for deleted account", "account_id", event.AccountID, "count", n)
		}
	}
}
