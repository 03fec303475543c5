package service

import (
	"context"

	"github.com/vogiaan1904/courtside-queue/internal/models"
	"github.com/vogiaan1904/courtside-queue/internal/queue"
	"github.com/vogiaan1904/courtside-queue/pkg/logger"
)

type passNotifier struct {
	pass PassService
	next queue.Notifier
	l    logger.Logger
}

// NewPassNotifier attaches a signed court pass to every turn-now notification before
// handing the batch to next. A nil next only logs the batch.
func NewPassNotifier(pass PassService, next queue.Notifier, l logger.Logger) queue.Notifier {
	return &passNotifier{
		pass: pass,
		next: next,
		l:    l,
	}
}

func (n *passNotifier) Notify(ctx context.Context, events []models.Notification) error {
	out := make([]models.Notification, len(events))
	copy(out, events)

	for i := range out {
		if out[i].Type != models.NotificationTurnNow {
			continue
		}
		pass, err := n.pass.Issue(ctx, out[i])
		if err != nil {
			// the participant is still told it is their turn
			n.l.Errorf(ctx, "service.passNotifier.Notify: %v", err)
			continue
		}
		out[i].CourtPass = pass
	}

	if n.next == nil {
		for _, e := range out {
			n.l.Debugf(ctx, "service.passNotifier.Notify: %s session=%s participant=%s", e.Type, e.SessionID, e.ParticipantID)
		}
		return nil
	}
	return n.next.Notify(ctx, out)
}
