package queue

import (
	"time"

	"github.com/vogiaan1904/courtside-queue/internal/matchmaking"
	"github.com/vogiaan1904/courtside-queue/internal/models"
)

type RotationResult struct {
	// Match is nil when the rotation promoted nobody.
	Match    *models.Match
	Strategy matchmaking.Strategy
	// Skipped lists the denied participants that someone behind them overtook.
	Skipped []Decision
}

func (r RotationResult) Promoted() bool {
	return r.Match != nil
}

// Rotate fills the court from the waiting list. It is a no-op on closed sessions,
// before the start time, and while a match is still in progress.
func (s *Store) Rotate(now time.Time) (RotationResult, error) {
	var res RotationResult
	err := s.apply("rotate", func(w *state) error {
		res = s.rotate(w, now)
		return nil
	})
	return res, err
}

// ReportResult completes the match, releases its players and rotates the next batch in.
func (s *Store) ReportResult(matchID string, outcome models.MatchOutcome, now time.Time) (RotationResult, error) {
	var res RotationResult
	err := s.apply("report_result", func(w *state) error {
		m := w.match(matchID)
		if m == nil {
			return ErrMatchNotFound
		}
		if !m.InProgress() {
			return ErrInvalidTransition
		}
		if outcome.WinningTeam != models.NoWinner &&
			(outcome.WinningTeam < 0 || outcome.WinningTeam >= len(m.Teams)) {
			return ErrInvalidOutcome
		}

		completeMatch(w, m, outcome, now)
		w.session.UpdatedAt = now
		res = s.rotate(w, now)
		w.markIdle(now)
		return nil
	})
	return res, err
}

func (s *Store) rotate(w *state, now time.Time) RotationResult {
	if w.session.IsClosed() || !w.session.HasStarted(now) || w.current() != nil {
		return RotationResult{}
	}

	src := s.admissionFor(w)
	var (
		collected []*models.Participant
		denied    []*models.Participant
		reasons   = make(map[string]Decision)
	)
	for _, p := range w.waiting() {
		if len(collected) == w.session.MaxPlayers {
			break
		}
		d := CanAdmit(*p, w.session, src.ApprovalState(w.session.ID, p.ID), src.PaymentState(p.ID))
		if !d.Allowed {
			denied = append(denied, p)
			reasons[p.ID] = d
			continue
		}
		collected = append(collected, p)
	}

	need := min(s.policy.MinPlayersPerMatch, w.session.MaxPlayers)
	if len(collected) == 0 || len(collected) < need {
		return RotationResult{}
	}

	// Only candidates overtaken by a promotion count as skipped. Anyone behind the
	// last promoted candidate was not passed over, which ends their run of skips.
	var skipped []Decision
	last := collected[len(collected)-1].Position
	for _, p := range w.waiting() {
		switch d, ok := reasons[p.ID]; {
		case ok && p.Position < last:
			p.SkipCount++
			skipped = append(skipped, d)
		case p.Position > last:
			p.SkipCount = 0
		}
	}

	match := models.Match{
		ID:        s.newID(),
		SessionID: w.session.ID,
		Number:    len(w.matches) + 1,
		Status:    models.MatchStatusInProgress,
		StartedAt: now,
	}
	promoted := make([]models.Participant, 0, len(collected))
	for _, p := range collected {
		p.Status = models.ParticipantStatusPlaying
		p.Position = 0
		p.SkipCount = 0
		p.MatchID = match.ID
		p.PromotedAt = &now
		match.ParticipantIDs = append(match.ParticipantIDs, p.ID)
		promoted = append(promoted, *p)
	}
	w.renumber()

	plan := s.planner.Plan(w.session.Mode, promoted)
	match.Teams = plan.Teams
	w.matches = append(w.matches, match)

	if w.session.Status == models.SessionStatusOpen {
		w.session.Status = models.SessionStatusActive
		w.session.ActivatedAt = &now
	}
	w.session.IdleSince = nil
	w.session.UpdatedAt = now

	return RotationResult{Match: &match, Strategy: plan.Strategy, Skipped: skipped}
}

func completeMatch(w *state, m *models.Match, outcome models.MatchOutcome, now time.Time) {
	m.Status = models.MatchStatusCompleted
	m.Outcome = &outcome
	m.CompletedAt = &now
	for _, id := range m.ParticipantIDs {
		p := w.participant(id)
		if p != nil && p.Status == models.ParticipantStatusPlaying {
			p.Status = models.ParticipantStatusCompleted
			p.FinishedAt = &now
		}
	}
}
