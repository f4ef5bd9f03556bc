package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"propsync/internal/config"
	"propsync/internal/events"
	"propsync/internal/logger"

	"github.com/segmentio/kafka-go"
)

// Worker consumes property change events published by the sync engine and
// applies downstream processing (currently bookkeeping and logging; feed
// regeneration hangs off this loop).
type Worker struct {
	config *config.Config
	logger *logger.Logger
	reader *kafka.Reader

	processed map[string]int
}

func New(cfg *config.Config, logger *logger.Logger) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        strings.Split(cfg.KafkaBrokers, ","),
		GroupID:        "propsync-worker",
		Topic:          events.Topic,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})

	return &Worker{
		config:    cfg,
		logger:    logger,
		reader:    reader,
		processed: map[string]int{},
	}
}

func (w *Worker) Start() {
	w.logger.Info("Worker started, listening for property events...")

	for {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		message, err := w.reader.ReadMessage(ctx)
		cancel()

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.Error("Failed to read message: %v", err)
			continue
		}

		var event events.PropertyEvent
		if err := json.Unmarshal(message.Value, &event); err != nil {
			w.logger.Error("Failed to parse property event: %v", err)
			continue
		}

		w.process(event)
	}
}

func (w *Worker) process(event events.PropertyEvent) {
	w.processed[event.Type]++
	w.logger.Info("Processed %s for property %s (external ref %s, total %d)",
		event.Type, event.PropertyID, event.ExternalRefID, w.processed[event.Type])
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.reader.Close()
}
