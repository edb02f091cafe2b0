package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/clover/internal/tracing"
	"github.com/Ramsey-B/clover/pkg/models"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// OutcomeEvent is emitted for every resolved record
type OutcomeEvent struct {
	EventType     string        `json:"event_type"` // outcome.updated, outcome.review, outcome.skipped
	RunID         string        `json:"run_id"`
	InputID       string        `json:"input_id"`
	BestMatchID   string        `json:"best_match_id,omitempty"`
	BestMatchName string        `json:"best_match_name,omitempty"`
	Score         float64       `json:"score"`
	Action        models.Action `json:"action"`
	Timestamp     time.Time     `json:"timestamp"`
}

// RunEvent is emitted when a reconciliation run completes or aborts
type RunEvent struct {
	EventType  string         `json:"event_type"` // run.completed, run.aborted
	RunID      string         `json:"run_id"`
	Counts     map[string]int `json:"counts,omitempty"`
	Duplicates int            `json:"duplicates"`
	Error      string         `json:"error,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// PublishOutcomeEvent publishes a per-record outcome event
func (p *Producer) PublishOutcomeEvent(ctx context.Context, event *OutcomeEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishOutcomeEvent")
	defer span.End()

	event.Timestamp = time.Now().UTC()
	return p.publish(ctx, event.InputID, event)
}

// PublishRunEvent publishes a run lifecycle event
func (p *Producer) PublishRunEvent(ctx context.Context, event *RunEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishRunEvent")
	defer span.End()

	event.Timestamp = time.Now().UTC()
	return p.publish(ctx, event.RunID, event)
}

func (p *Producer) publish(ctx context.Context, key string, event any) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(key),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"key": key}).Error("Failed to publish event")
		return err
	}

	return nil
}
