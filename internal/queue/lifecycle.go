package queue

import (
	"time"

	"github.com/vogiaan1904/courtside-queue/internal/models"
)

const closedMatchNote = "session_closed"

// Close ends the session. Any match in progress is completed without a winner,
// playing participants complete and waiting participants leave.
func (s *Store) Close(reason models.CloseReason, now time.Time) error {
	return s.apply("close", func(w *state) error {
		return closeSession(w, reason, now)
	})
}

// Tick applies the time-driven transitions: end-time expiry and the idle window.
// It reports the close reason when the session was closed by this call.
func (s *Store) Tick(now time.Time) (models.CloseReason, error) {
	var closed models.CloseReason
	err := s.apply("tick", func(w *state) error {
		sess := &w.session
		switch {
		case sess.IsClosed():
			return nil
		case sess.HasEnded(now):
			closed = models.CloseReasonExpired
		case sess.Status != models.SessionStatusActive:
			return nil
		case len(w.waiting()) > 0 || w.current() != nil:
			sess.IdleSince = nil
			return nil
		case sess.IdleSince == nil:
			sess.IdleSince = &now
			return nil
		case now.Sub(*sess.IdleSince) >= s.policy.IdleWindow:
			closed = models.CloseReasonIdle
		default:
			return nil
		}
		return closeSession(w, closed, now)
	})
	if err != nil {
		return "", err
	}
	return closed, nil
}

// DefaultCloseReason is used for an explicit close: cancelling before any rotation,
// otherwise an organizer close.
func DefaultCloseReason(s models.QueueSession) models.CloseReason {
	if s.Status == models.SessionStatusOpen {
		return models.CloseReasonCancelled
	}
	return models.CloseReasonOrganizer
}

func closeSession(w *state, reason models.CloseReason, now time.Time) error {
	if w.session.IsClosed() {
		return ErrInvalidTransition
	}
	if m := w.current(); m != nil {
		completeMatch(w, m, models.MatchOutcome{WinningTeam: models.NoWinner, Note: closedMatchNote}, now)
	}
	for i := range w.participants {
		p := &w.participants[i]
		if p.IsWaiting() {
			p.Status = models.ParticipantStatusLeft
			p.Position = 0
			p.FinishedAt = &now
		}
	}

	w.session.Status = models.SessionStatusClosed
	w.session.CloseReason = reason
	w.session.ClosedAt = &now
	w.session.IdleSince = nil
	w.session.UpdatedAt = now
	return nil
}
