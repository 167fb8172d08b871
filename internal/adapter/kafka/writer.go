package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/covid-data-qc/internal/config"
	"github.com/couchcryptid/covid-data-qc/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes consolidated findings to a Kafka topic, one message per
// finding keyed by state.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured findings topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaFindingsTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// FindingMessage is the JSON value of a published finding.
type FindingMessage struct {
	domain.Finding
	View       domain.View  `json:"view"`
	Phase      domain.Phase `json:"phase"`
	TargetDate string       `json:"target_date"` // YYYY-MM-DD
}

// PublishFindings writes every finding of one pass in a single
// WriteMessages call, preserving report order.
func (w *Writer) PublishFindings(ctx context.Context, view domain.View, phase domain.Phase, target time.Time, findings []domain.Finding) error {
	if len(findings) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(findings))
	for i, f := range findings {
		msg, err := serializeToMessage(FindingMessage{
			Finding:    f,
			View:       view,
			Phase:      phase,
			TargetDate: target.Format(time.DateOnly),
		})
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish findings: %w", err)
	}
	w.logger.Info("published findings", "view", view, "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a finding into a Kafka message.
func serializeToMessage(m FindingMessage) (kafkago.Message, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize finding: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(m.State),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "severity", Value: []byte(m.Severity)},
			{Key: "view", Value: []byte(m.View)},
			{Key: "check", Value: []byte(m.Check)},
		},
	}, nil
}
