package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arunvm123/ticketbooking/config"
	"github.com/arunvm123/ticketbooking/metrics"
	"github.com/arunvm123/ticketbooking/model"
	"github.com/segmentio/kafka-go"
)

// Publisher hands a notification to the delivery pipeline.
type Publisher interface {
	Publish(ctx context.Context, req *model.NotificationRequest) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes notifications as JSON to the notification topic,
// keyed by booking id so messages about one booking stay ordered.
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(cfg *config.Kafka) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.NotificationTopic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, req *model.NotificationRequest) error {
	value, err := json.Marshal(req)
	if err != nil {
		metrics.NotificationsPublished.WithLabelValues(string(req.Type), "error").Inc()
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(req.BookingData.BookingID),
		Value: value,
	})
	if err != nil {
		metrics.NotificationsPublished.WithLabelValues(string(req.Type), "error").Inc()
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	metrics.NotificationsPublished.WithLabelValues(string(req.Type), "success").Inc()
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops every notification. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *model.NotificationRequest) error { return nil }

func (NoopPublisher) Close() error { return nil }
