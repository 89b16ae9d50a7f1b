package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// MaintenanceEvent records one bulk-delete attempt.
type MaintenanceEvent struct {
	Mode      string    `json:"mode"`
	Day       string    `json:"day,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Removed   int       `json:"removed"`
	Error     string    `json:"error,omitempty"`
	Completed bool      `json:"completed"`
	At        time.Time `json:"at"`
}

// Publisher emits maintenance audit events.
type Publisher interface {
	PublishMaintenance(ctx context.Context, event MaintenanceEvent) error
	Close() error
}

// KafkaPublisher writes audit events to a kafka topic, keyed by mode.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a synchronous kafka writer for topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// PublishMaintenance writes event as JSON and waits for the leader to acknowledge it.
func (p *KafkaPublisher) PublishMaintenance(ctx context.Context, event MaintenanceEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal maintenance event: %w", err)
	}
	msg := kafka.Message{Key: []byte(event.Mode), Value: value, Time: event.At}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write maintenance event: %w", err)
	}
	return nil
}

// Close flushes pending writes and releases the broker connections.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. It is used when no brokers are configured.
type NopPublisher struct{}

// PublishMaintenance discards the event.
func (NopPublisher) PublishMaintenance(context.Context, MaintenanceEvent) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }
