// Package kafka publishes analysis lifecycle events so downstream case
// management services can react to confirmed imports.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/casetrace/smart-import/internal/config"
)

// Event types published to the analysis topic.
const (
	EventAnalysisCompleted = "analysis.completed"
	EventAnalysisConfirmed = "analysis.confirmed"
)

// AnalysisEvent is the message body for analysis lifecycle events.
type AnalysisEvent struct {
	EventType    string    `json:"event_type"`
	RunID        string    `json:"run_id"`
	CaseID       string    `json:"case_id,omitempty"`
	FileCount    int       `json:"file_count"`
	EntityCount  int       `json:"entity_count"`
	EdgeCount    int       `json:"edge_count"`
	HighRisk     int       `json:"high_risk_entities"`
	SuspectCount int       `json:"suspect_count"`
	Timestamp    time.Time `json:"timestamp"`
}

// Producer publishes analysis events to Kafka.
type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewProducer creates a Kafka producer for the analysis topic.
func NewProducer(cfg config.KafkaConfig, logger *slog.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.AnalysisTopic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           cfg.WriteTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		AllowAutoTopicCreation: cfg.AllowAutoTopic,
	}

	return &Producer{writer: writer, logger: logger}
}

// PublishAnalysisEvent publishes a single analysis lifecycle event keyed
// by run ID so events for the same run stay ordered.
func (p *Producer) PublishAnalysisEvent(ctx context.Context, event AnalysisEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.RunID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish analysis event: %w", err)
	}

	p.logger.Info("analysis event published",
		"event_type", event.EventType,
		"run_id", event.RunID)
	return nil
}

// Close shuts down the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
