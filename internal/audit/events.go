// Package audit provides audit event emission for authentication activity.
//
// Purpose:
//
//	This package defines the audit event structure and an Emitter interface
//	with a Kafka producer for production and a zerolog-based emitter for
//	development. Login completions and failures are recorded so operators can
//	trace who authenticated when, independently of request logs.
//
// Dependencies:
//   - github.com/google/uuid: UUID generation for event IDs
//   - github.com/rs/zerolog: Structured logging emitter
//   - github.com/segmentio/kafka-go: Kafka producer emitter
//
// Thread Safety:
//   - Emitter implementations must be safe for concurrent use
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Event represents a single auditable action.
type Event struct {
	EventID   uuid.UUID      `json:"event_id"`
	UserID    uint32         `json:"user_id,omitempty"`
	Action    string         `json:"action"` // "auth.login", "auth.login_failed", "auth.url_issued"
	IPAddress string         `json:"ip_address,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewEvent creates an event with a fresh id and timestamp.
func NewEvent(action string) Event {
	return Event{
		EventID:   uuid.New(),
		Action:    action,
		CreatedAt: time.Now().UTC(),
	}
}

// Emitter defines the interface for audit event emission.
type Emitter interface {
	// Emit sends an audit event. Returns an error if emission fails so
	// callers can alert on lost audit data; callers do not fail the request.
	Emit(ctx context.Context, event Event) error
}

// LoggerEmitter logs audit events as structured JSON. Used in development
// and as the fallback when Kafka is not configured.
type LoggerEmitter struct {
	logger zerolog.Logger
}

// NewLoggerEmitter creates a logger-based audit emitter.
func NewLoggerEmitter(logger zerolog.Logger) *LoggerEmitter {
	return &LoggerEmitter{logger: logger.With().Str("component", "audit").Logger()}
}

// Emit logs the audit event. Never fails.
func (e *LoggerEmitter) Emit(ctx context.Context, event Event) error {
	e.logger.Info().
		Str("event_id", event.EventID.String()).
		Uint32("user_id", event.UserID).
		Str("action", event.Action).
		Str("ip_address", event.IPAddress).
		Interface("metadata", event.Metadata).
		Msg("audit event")
	return nil
}

// KafkaEmitter produces audit events to a Kafka topic.
type KafkaEmitter struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafkaEmitterFromConfig creates a Kafka emitter from a comma-separated
// broker list. Returns (nil, nil) when brokers is empty so the caller can
// fall back to the logger emitter.
func NewKafkaEmitterFromConfig(brokers, topic, clientID string, logger zerolog.Logger) (*KafkaEmitter, error) {
	brokers = strings.TrimSpace(brokers)
	if brokers == "" {
		return nil, nil
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(brokers, ",")...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Transport: &kafka.Transport{
			ClientID: clientID,
		},
	}

	return &KafkaEmitter{
		writer: writer,
		logger: logger.With().Str("component", "audit").Logger(),
	}, nil
}

// Emit serializes the event and produces it keyed by action, so per-action
// ordering is preserved within a partition.
func (e *KafkaEmitter) Emit(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("audit: marshal event: %w", err)
	}

	err = e.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Action),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("audit: write event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying Kafka writer.
func (e *KafkaEmitter) Close() error {
	return e.writer.Close()
}

// NoopEmitter discards all events. Useful for tests.
type NoopEmitter struct{}

// Emit discards the event.
func (NoopEmitter) Emit(ctx context.Context, event Event) error { return nil }
