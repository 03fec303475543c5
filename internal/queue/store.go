package queue

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vogiaan1904/courtside-queue/internal/matchmaking"
	"github.com/vogiaan1904/courtside-queue/internal/models"
)

const (
	DefaultStaleSkipThreshold = 3
	DefaultMinPlayersPerMatch = 1
	DefaultIdleWindow         = 15 * time.Minute
)

type Policy struct {
	// StaleSkipThreshold is the number of consecutive skips after which a participant is flagged.
	StaleSkipThreshold int
	// MinPlayersPerMatch holds a rotation back until that many candidates are eligible.
	MinPlayersPerMatch int
	IdleWindow         time.Duration
}

func (p Policy) withDefaults() Policy {
	if p.StaleSkipThreshold <= 0 {
		p.StaleSkipThreshold = DefaultStaleSkipThreshold
	}
	if p.MinPlayersPerMatch <= 0 {
		p.MinPlayersPerMatch = DefaultMinPlayersPerMatch
	}
	if p.IdleWindow <= 0 {
		p.IdleWindow = DefaultIdleWindow
	}
	return p
}

// View is a point-in-time copy of one session. Participants are ordered waiting by
// position, then playing, then finished, each group in join order.
type View struct {
	Session      models.QueueSession  `json:"session"`
	Participants []models.Participant `json:"participants"`
	CurrentMatch *models.Match        `json:"current_match,omitempty"`
	Matches      []models.Match       `json:"matches,omitempty"`
}

func (v View) Participant(id string) (models.Participant, bool) {
	for _, p := range v.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return models.Participant{}, false
}

func (v View) Waiting() []models.Participant {
	var out []models.Participant
	for _, p := range v.Participants {
		if p.IsWaiting() {
			out = append(out, p)
		}
	}
	return out
}

type StoreOptions struct {
	Policy  Policy
	Planner matchmaking.Planner
	// Admission defaults to the participant records kept current by MarkPaid and Approve.
	Admission AdmissionSource
	NewID     func() string
}

// Store holds the authoritative state of a single queue session. It is not safe for
// concurrent use; the Manager serializes access per session.
type Store struct {
	committed *state
	policy    Policy
	planner   matchmaking.Planner
	admission AdmissionSource
	newID     func() string
}

func NewStore(session models.QueueSession, opts StoreOptions) *Store {
	if opts.Planner == nil {
		opts.Planner = matchmaking.NewPlanner(matchmaking.Config{})
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Store{
		committed: &state{session: session},
		policy:    opts.Policy.withDefaults(),
		planner:   opts.Planner,
		admission: opts.Admission,
		newID:     opts.NewID,
	}
}

func (s *Store) SessionID() string {
	return s.committed.session.ID
}

func (s *Store) Join(userID string, skillRating int, style models.PlayStyle, now time.Time) (models.Participant, error) {
	var joined models.Participant
	err := s.apply("join", func(w *state) error {
		if !w.session.AcceptsJoins() {
			return ErrSessionClosed
		}
		if skillRating < 0 {
			return ErrInvalidSkillRating
		}
		if style == "" {
			style = models.PlayStyleAny
		}
		if !style.Valid() {
			return ErrInvalidPlayStyle
		}
		for _, p := range w.participants {
			if p.UserID == userID && p.IsActive() {
				return ErrAlreadyQueued
			}
		}

		joined = models.Participant{
			ID:             s.newID(),
			SessionID:      w.session.ID,
			UserID:         userID,
			JoinedAt:       now,
			JoinSeq:        w.nextJoinSeq(),
			SkillRating:    skillRating,
			SkillBucket:    models.BucketFor(skillRating),
			PlayStyle:      style,
			Status:         models.ParticipantStatusWaiting,
			PaymentStatus:  models.PaymentStatusUnpaid,
			ApprovalStatus: models.ApprovalStatusPending,
			Position:       len(w.waiting()) + 1,
		}
		w.participants = append(w.participants, joined)
		w.session.IdleSince = nil
		w.session.UpdatedAt = now
		return nil
	})
	return joined, err
}

// Leave removes a waiting participant and closes the gap behind them. A playing
// participant is marked left but keeps the court slot until the match resolves.
func (s *Store) Leave(participantID string, now time.Time) error {
	return s.apply("leave", func(w *state) error {
		p := w.participant(participantID)
		if p == nil || p.IsTerminal() {
			return ErrParticipantNotFound
		}
		wasWaiting := p.IsWaiting()
		p.Status = models.ParticipantStatusLeft
		p.Position = 0
		p.FinishedAt = &now
		if wasWaiting {
			w.renumber()
		}
		w.markIdle(now)
		w.session.UpdatedAt = now
		return nil
	})
}

func (s *Store) MarkPaid(participantID string, now time.Time) error {
	return s.apply("mark_paid", func(w *state) error {
		p := w.participant(participantID)
		if p == nil || p.IsTerminal() {
			return ErrParticipantNotFound
		}
		p.PaymentStatus = models.PaymentStatusPaid
		w.session.UpdatedAt = now
		return nil
	})
}

func (s *Store) Approve(participantID string, now time.Time) error {
	return s.apply("approve", func(w *state) error {
		p := w.participant(participantID)
		if p == nil || p.IsTerminal() {
			return ErrParticipantNotFound
		}
		p.ApprovalStatus = models.ApprovalStatusApproved
		w.session.UpdatedAt = now
		return nil
	})
}

// CheckAdmission evaluates the gate for a participant against the committed state.
func (s *Store) CheckAdmission(participantID string) (Decision, error) {
	w := s.committed
	p := w.participant(participantID)
	if p == nil || p.IsTerminal() {
		return Decision{}, ErrParticipantNotFound
	}
	src := s.admissionFor(w)
	return CanAdmit(*p, w.session, src.ApprovalState(w.session.ID, p.ID), src.PaymentState(p.ID)), nil
}

func (s *Store) Snapshot() View {
	return s.committed.view()
}

// Restore replaces the committed state with a persisted view after validating it.
func (s *Store) Restore(v View) error {
	w := &state{
		session:      v.Session,
		participants: slices.Clone(v.Participants),
		matches:      slices.Clone(v.Matches),
	}
	sort.SliceStable(w.participants, func(i, j int) bool {
		return w.participants[i].JoinSeq < w.participants[j].JoinSeq
	})
	sort.SliceStable(w.matches, func(i, j int) bool {
		return w.matches[i].Number < w.matches[j].Number
	})
	if err := w.checkInvariants(nil); err != nil {
		return &ConsistencyError{SessionID: v.Session.ID, Op: "restore", Violation: err.Error()}
	}
	s.committed = w
	return nil
}

func (s *Store) admissionFor(w *state) AdmissionSource {
	if s.admission != nil {
		return s.admission
	}
	return recordSource{w: w}
}

// apply runs fn on a working copy and commits it only if every invariant still holds.
func (s *Store) apply(op string, fn func(w *state) error) error {
	w := s.committed.clone()
	if err := fn(w); err != nil {
		return err
	}
	if err := w.checkInvariants(s.committed); err != nil {
		return &ConsistencyError{SessionID: w.session.ID, Op: op, Violation: err.Error()}
	}
	s.committed = w
	return nil
}

type state struct {
	session models.QueueSession
	// participants are kept in join order.
	participants []models.Participant
	matches      []models.Match
}

func (w *state) clone() *state {
	return &state{
		session:      w.session,
		participants: slices.Clone(w.participants),
		matches:      slices.Clone(w.matches),
	}
}

func (w *state) participant(id string) *models.Participant {
	for i := range w.participants {
		if w.participants[i].ID == id {
			return &w.participants[i]
		}
	}
	return nil
}

func (w *state) match(id string) *models.Match {
	for i := range w.matches {
		if w.matches[i].ID == id {
			return &w.matches[i]
		}
	}
	return nil
}

func (w *state) current() *models.Match {
	for i := range w.matches {
		if w.matches[i].InProgress() {
			return &w.matches[i]
		}
	}
	return nil
}

// waiting returns waiting participants in position order, which is join order.
func (w *state) waiting() []*models.Participant {
	var out []*models.Participant
	for i := range w.participants {
		if w.participants[i].IsWaiting() {
			out = append(out, &w.participants[i])
		}
	}
	return out
}

func (w *state) nextJoinSeq() int64 {
	var last int64
	for _, p := range w.participants {
		last = max(last, p.JoinSeq)
	}
	return last + 1
}

// markIdle starts the idle window once an active session has nobody waiting and no
// match on court. A running window keeps its start.
func (w *state) markIdle(now time.Time) {
	if w.session.Status != models.SessionStatusActive || w.session.IdleSince != nil {
		return
	}
	if len(w.waiting()) > 0 || w.current() != nil {
		return
	}
	w.session.IdleSince = &now
}

func (w *state) renumber() {
	next := 1
	for i := range w.participants {
		p := &w.participants[i]
		if p.IsWaiting() {
			p.Position = next
			next++
			continue
		}
		p.Position = 0
	}
}

func (w *state) view() View {
	v := View{
		Session:      w.session,
		Participants: make([]models.Participant, 0, len(w.participants)),
		Matches:      slices.Clone(w.matches),
	}
	for _, group := range []func(p *models.Participant) bool{
		(*models.Participant).IsWaiting,
		func(p *models.Participant) bool { return p.Status == models.ParticipantStatusPlaying },
		(*models.Participant).IsTerminal,
	} {
		for i := range w.participants {
			if group(&w.participants[i]) {
				v.Participants = append(v.Participants, w.participants[i])
			}
		}
	}
	if m := w.current(); m != nil {
		cur := *m
		v.CurrentMatch = &cur
	}
	return v
}

func (w *state) checkInvariants(prev *state) error {
	if prev != nil && prev.session.Status != w.session.Status &&
		!prev.session.Status.CanTransitionTo(w.session.Status) {
		return fmt.Errorf("status moved from %s to %s", prev.session.Status, w.session.Status)
	}

	inProgress := 0
	for _, m := range w.matches {
		if m.InProgress() {
			inProgress++
		}
	}
	if inProgress > 1 {
		return fmt.Errorf("%d matches in progress", inProgress)
	}
	cur := w.current()

	next := 1
	active := make(map[string]string)
	for _, p := range w.participants {
		if p.IsWaiting() {
			if p.Position != next {
				return fmt.Errorf("participant %s at position %d, want %d", p.ID, p.Position, next)
			}
			next++
		} else if p.Position != 0 {
			return fmt.Errorf("%s participant %s holds position %d", p.Status, p.ID, p.Position)
		}

		if p.Status == models.ParticipantStatusPlaying && (cur == nil || cur.ID != p.MatchID) {
			return fmt.Errorf("playing participant %s is outside the current match", p.ID)
		}

		if p.IsActive() {
			if other, ok := active[p.UserID]; ok {
				return fmt.Errorf("user %s has active records %s and %s", p.UserID, other, p.ID)
			}
			active[p.UserID] = p.ID
		}
	}

	if w.session.IsClosed() && (next > 1 || cur != nil) {
		return errors.New("closed session still has waiting participants or a match in progress")
	}
	return nil
}
