package consumer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/vogiaan1904/courtside-queue/internal/delivery/kafka"
	"github.com/vogiaan1904/courtside-queue/internal/service"
	"github.com/vogiaan1904/courtside-queue/pkg/logger"
)

// errMalformed marks payloads that will never decode. They are committed and skipped.
var errMalformed = errors.New("malformed message")

// rejoinDelay spaces group sessions so a message that keeps failing is retried, not spun on.
const rejoinDelay = time.Second

type handlerFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

type Consumer struct {
	consGr   sarama.ConsumerGroup
	svc      service.CourtQueueService
	l        logger.Logger
	handlers map[string]handlerFunc
	wg       sync.WaitGroup
}

func NewConsumer(
	consGr sarama.ConsumerGroup,
	svc service.CourtQueueService,
	l logger.Logger,
) *Consumer {
	c := &Consumer{
		consGr: consGr,
		svc:    svc,
		l:      l,
	}
	c.handlers = map[string]handlerFunc{
		kafka.TopicPaymentStatusChanged:       c.HandlePaymentStatusChanged,
		kafka.TopicParticipantApprovalChanged: c.HandleApprovalChanged,
		kafka.TopicCourtMatchResult:           c.HandleMatchResult,
	}
	return c
}

func (c *Consumer) topics() []string {
	return []string{
		kafka.TopicPaymentStatusChanged,
		kafka.TopicParticipantApprovalChanged,
		kafka.TopicCourtMatchResult,
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	h, ok := c.handlers[msg.Topic]
	if !ok {
		c.l.Warnf(ctx, "Unknown topic: %s", msg.Topic)
		return nil
	}
	return h(ctx, msg)
}

func (c *Consumer) Start(ctx context.Context) error {
	topics := c.topics()
	c.wg.Go(func() {
		for {
			if err := c.consGr.Consume(ctx, topics, c); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				c.l.Errorf(ctx, "delivery.kafka.consumer.consumer.Start: %v", err)
			}

			select {
			case <-ctx.Done():
				c.l.Infof(ctx, "delivery.kafka.consumer.consumer.Start: %v", ctx.Err())
				return
			case <-time.After(rejoinDelay):
			}
		}
	})

	c.wg.Go(func() {
		for err := range c.consGr.Errors() {
			c.l.Errorf(ctx, "delivery.kafka.consumer.consumer.Start: %v", err)
		}
	})

	c.l.Infof(ctx, "Consumer is consuming topics: %v", topics)
	return nil
}

func (c *Consumer) Close() error {
	if err := c.consGr.Close(); err != nil {
		return err
	}

	c.wg.Wait()
	return nil
}

func (c *Consumer) Setup(ss sarama.ConsumerGroupSession) error {
	c.l.Debugf(context.Background(), "Consumer group session started: member %s generation %d", ss.MemberID(), ss.GenerationID())
	return nil
}

func (c *Consumer) Cleanup(ss sarama.ConsumerGroupSession) error {
	c.l.Debugf(context.Background(), "Consumer group session ended: member %s", ss.MemberID())
	return nil
}

// ConsumeClaim applies messages in partition order. A transient handler failure ends the
// claim with the failed message unmarked, so no later offset of the partition is committed
// past it and the next session of the group starts from it again.
func (c *Consumer) ConsumeClaim(ss sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok || msg == nil {
				return nil
			}

			ctx := c.l.With(ss.Context(), "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
			err := c.processMessage(ctx, msg)
			switch {
			case err == nil:
			case errors.Is(err, errMalformed):
				c.l.Warnf(ctx, "delivery.kafka.consumer.consumer.ConsumeClaim: skipping: %v", err)
			default:
				c.l.Errorf(ctx, "delivery.kafka.consumer.consumer.ConsumeClaim: %v", err)
				return err
			}

			ss.MarkMessage(msg, "")

		case <-ss.Context().Done():
			return nil
		}
	}
}
