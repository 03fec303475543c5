package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/vogiaan1904/courtside-queue/internal/delivery/kafka"
	"github.com/vogiaan1904/courtside-queue/internal/queue"
	"github.com/vogiaan1904/courtside-queue/internal/service"
)

const (
	paymentStatusPaid      = "paid"
	approvalStatusApproved = "approved"
)

func (c *Consumer) HandlePaymentStatusChanged(ctx context.Context, message *sarama.ConsumerMessage) error {
	var e kafka.PaymentStatusChangedEvent
	if err := json.Unmarshal(message.Value, &e); err != nil {
		return fmt.Errorf("%w: %s: %v", errMalformed, message.Topic, err)
	}

	if e.Status != paymentStatusPaid {
		c.l.Debugf(ctx, "HandlePaymentStatusChanged: ignoring status %s for participant %s", e.Status, e.ParticipantID)
		return nil
	}

	return c.settle(ctx, "HandlePaymentStatusChanged", c.svc.MarkPaid(ctx, e.SessionID, e.ParticipantID))
}

func (c *Consumer) HandleApprovalChanged(ctx context.Context, message *sarama.ConsumerMessage) error {
	var e kafka.ParticipantApprovalChangedEvent
	if err := json.Unmarshal(message.Value, &e); err != nil {
		return fmt.Errorf("%w: %s: %v", errMalformed, message.Topic, err)
	}

	if e.Status != approvalStatusApproved {
		c.l.Debugf(ctx, "HandleApprovalChanged: ignoring status %s for participant %s", e.Status, e.ParticipantID)
		return nil
	}

	return c.settle(ctx, "HandleApprovalChanged", c.svc.Approve(ctx, e.SessionID, e.ParticipantID))
}

func (c *Consumer) HandleMatchResult(ctx context.Context, message *sarama.ConsumerMessage) error {
	var e kafka.CourtMatchResultEvent
	if err := json.Unmarshal(message.Value, &e); err != nil {
		return fmt.Errorf("%w: %s: %v", errMalformed, message.Topic, err)
	}

	_, err := c.svc.ReportResult(ctx, service.ReportResultInput{
		MatchID:     e.MatchID,
		WinningTeam: e.WinningTeam,
		Score:       e.Score,
		Note:        e.Note,
	})
	return c.settle(ctx, "HandleMatchResult", err)
}

// settle reports errors that a redelivery cannot fix as handled: redelivered results and
// updates for participants who already left.
func (c *Consumer) settle(ctx context.Context, handler string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, queue.ErrNotFound),
		errors.Is(err, queue.ErrSessionClosed),
		errors.Is(err, queue.ErrInvalidTransition),
		errors.Is(err, queue.ErrInvalidOutcome):
		c.l.Warnf(ctx, "delivery.kafka.consumer.handlers.%s: dropping message: %v", handler, err)
		return nil
	default:
		c.l.Errorf(ctx, "delivery.kafka.consumer.handlers.%s: %v", handler, err)
		return err
	}
}
