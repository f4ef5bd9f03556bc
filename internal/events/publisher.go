package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"propsync/internal/logger"

	"github.com/segmentio/kafka-go"
)

const Topic = "property-events"

// PropertyEvent is published after the catalog changes, for downstream
// consumers (feeds, search indexing).
type PropertyEvent struct {
	Type          string    `json:"type"`
	PropertyID    string    `json:"property_id"`
	ExternalRefID string    `json:"external_ref_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher is the outbound event boundary. The sync layer treats it as
// optional and best-effort.
type Publisher interface {
	Publish(ctx context.Context, event PropertyEvent) error
}

type KafkaPublisher struct {
	writer *kafka.Writer
	logger *logger.Logger
}

func NewKafkaPublisher(brokers string, logger *logger.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}

	return &KafkaPublisher{
		writer: writer,
		logger: logger,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event PropertyEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ExternalRefID),
		Value: value,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
