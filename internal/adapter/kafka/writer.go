package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/aqi-forecast-etl/internal/config"
	"github.com/couchcryptid/aqi-forecast-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// ForecastMessage is the JSON body published for each prediction.
type ForecastMessage struct {
	domain.Prediction
	RunID       string    `json:"run_id"`
	ProcessedAt time.Time `json:"processed_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// ForecastWriter publishes predictions to the forecast topic, keyed by district.
// It implements pipeline.Publisher.
type ForecastWriter struct {
	writer messageWriter
	logger *slog.Logger
}

// NewForecastWriter creates a Kafka producer for the configured forecast topic.
func NewForecastWriter(cfg *config.Config, logger *slog.Logger) *ForecastWriter {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaForecastTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &ForecastWriter{writer: w, logger: logger}
}

// PublishForecasts serializes and publishes predictions in a single
// WriteMessages call. Every message carries the run id.
func (w *ForecastWriter) PublishForecasts(ctx context.Context, runID string, predictions []domain.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}
	processedAt := domain.Now().UTC()
	msgs := make([]kafkago.Message, len(predictions))
	for i := range predictions {
		msg, err := serializeToMessage(ForecastMessage{
			Prediction:  predictions[i],
			RunID:       runID,
			ProcessedAt: processedAt,
		})
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d forecasts: %w", len(msgs), err)
	}
	w.logger.Debug("forecasts published", "count", len(msgs), "scope", predictions[0].Scope)
	return nil
}

func (w *ForecastWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ForecastMessage into a Kafka message.
func serializeToMessage(fm ForecastMessage) (kafkago.Message, error) {
	data, err := json.Marshal(fm)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize forecast: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(fm.District),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "scope", Value: []byte(fm.Scope)},
			{Key: "run_id", Value: []byte(fm.RunID)},
			{Key: "processed_at", Value: []byte(fm.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
