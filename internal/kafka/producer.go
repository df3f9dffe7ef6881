package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// AuditEvent is the immutable record emitted for every booking state change.
// Actor is empty for transitions performed by the system itself.
type AuditEvent struct {
	BookingCode string    `json:"booking_code"`
	Action      string    `json:"action"`
	Actor       string    `json:"actor,omitempty"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	At          time.Time `json:"at"`
}

// NotificationEvent is consumed by the worker and fanned out to recipients.
type NotificationEvent struct {
	Recipients  []int64   `json:"recipients"`
	EventKind   string    `json:"event_kind"`
	BookingCode string    `json:"booking_code"`
	Message     string    `json:"message"`
	At          time.Time `json:"at"`
}

type Producer struct {
	brokers []string
	writer  *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
