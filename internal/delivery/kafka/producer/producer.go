package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	kafka "github.com/vogiaan1904/courtside-queue/internal/delivery/kafka"
	"github.com/vogiaan1904/courtside-queue/internal/models"
	"github.com/vogiaan1904/courtside-queue/internal/queue"
	"github.com/vogiaan1904/courtside-queue/pkg/logger"
)

type Producer interface {
	queue.Notifier
	Close() error
}

type implProducer struct {
	l    logger.Logger
	prod sarama.SyncProducer
}

func NewProducer(prod sarama.SyncProducer, l logger.Logger) Producer {
	return &implProducer{
		l:    l,
		prod: prod,
	}
}

// Notify publishes each notification to its topic in order. Messages are keyed by
// session id so one session's events stay on one partition.
func (p *implProducer) Notify(ctx context.Context, events []models.Notification) error {
	for _, n := range events {
		topic, ok := kafka.TopicFor(n.Type)
		if !ok {
			p.l.Warnf(ctx, "delivery.kafka.producer.Notify: no topic for %s", n.Type)
			continue
		}

		event := kafka.NewQueueNotificationEvent(n)
		event.Timestamp = time.Now()
		val, err := json.Marshal(event)
		if err != nil {
			p.l.Errorf(ctx, "delivery.kafka.producer.Notify: %v", err)
			return err
		}

		msg := &sarama.ProducerMessage{
			Topic: topic,
			Key:   sarama.StringEncoder(n.SessionID),
			Value: sarama.ByteEncoder(val),
			Headers: []sarama.RecordHeader{
				{
					Key:   []byte("timestamp"),
					Value: []byte(event.Timestamp.Format(time.RFC3339)),
				},
				{
					Key:   []byte("event_type"),
					Value: []byte(n.Type),
				},
			},
		}

		if _, _, err := p.prod.SendMessage(msg); err != nil {
			p.l.Errorf(ctx, "delivery.kafka.producer.Notify: %v", err)
			return fmt.Errorf("publish %s for session %s: %w", n.Type, n.SessionID, err)
		}
	}
	return nil
}

func (p *implProducer) Close() error {
	if err := p.prod.Close(); err != nil {
		return err
	}

	return nil
}
