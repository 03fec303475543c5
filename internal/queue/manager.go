package queue

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vogiaan1904/courtside-queue/internal/matchmaking"
	"github.com/vogiaan1904/courtside-queue/internal/metrics"
	"github.com/vogiaan1904/courtside-queue/internal/models"
	"github.com/vogiaan1904/courtside-queue/pkg/logger"
)

const DefaultTurnSoonPositions = 4

// Notifier receives the events derived from a committed mutation.
type Notifier interface {
	Notify(ctx context.Context, events []models.Notification) error
}

// Persister stores the committed view of a session.
type Persister interface {
	Save(ctx context.Context, v View) error
}

type Config struct {
	Policy                  Policy
	TurnSoonPositions       int
	ExhaustiveTeamThreshold int
	DispatchBuffer          int
}

type Option func(m *Manager)

func WithNotifier(n Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

func WithPersister(p Persister) Option {
	return func(m *Manager) { m.persister = p }
}

func WithAdmissionSource(a AdmissionSource) Option {
	return func(m *Manager) { m.admission = a }
}

func WithMetrics(qm metrics.QueueMetrics) Option {
	return func(m *Manager) { m.metrics = qm }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(m *Manager) { m.newID = newID }
}

type CreateSessionInput struct {
	CourtID            string
	OrganizerID        string
	StartTime          time.Time
	EndTime            time.Time
	Mode               models.SessionMode
	MaxPlayers         int
	RequiresPrepayment bool
}

type JoinInput struct {
	UserID      string
	SkillRating int
	PlayStyle   models.PlayStyle
}

type unit struct {
	mu    sync.RWMutex
	store *Store
}

// Manager is the registry of live sessions. Commands on one session are serialized by
// that session's lock; different sessions proceed in parallel.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*unit
	matches  map[string]string

	cfg       Config
	rules     eventRules
	planner   matchmaking.Planner
	admission AdmissionSource
	notifier  Notifier
	persister Persister
	metrics   metrics.QueueMetrics
	dispatch  *dispatcher
	l         logger.Logger
	now       func() time.Time
	newID     func() string
}

func NewManager(l logger.Logger, cfg Config, opts ...Option) *Manager {
	cfg.Policy = cfg.Policy.withDefaults()
	if cfg.TurnSoonPositions <= 0 {
		cfg.TurnSoonPositions = DefaultTurnSoonPositions
	}

	m := &Manager{
		sessions: make(map[string]*unit),
		matches:  make(map[string]string),
		cfg:      cfg,
		rules: eventRules{
			turnSoonPositions:  cfg.TurnSoonPositions,
			staleSkipThreshold: cfg.Policy.StaleSkipThreshold,
		},
		planner: matchmaking.NewPlanner(matchmaking.Config{ExhaustiveThreshold: cfg.ExhaustiveTeamThreshold}),
		metrics: metrics.Noop(),
		l:       l,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.dispatch = newDispatcher(cfg.DispatchBuffer, l, m.metrics)
	return m
}

// Shutdown waits for pending notifications and persistence jobs.
func (m *Manager) Shutdown() {
	m.dispatch.close()
}

func (m *Manager) CreateSession(ctx context.Context, in CreateSessionInput) (models.QueueSession, error) {
	if in.Mode == "" {
		in.Mode = models.SessionModeCasual
	}
	switch {
	case in.CourtID == "" || in.OrganizerID == "":
		return models.QueueSession{}, fmt.Errorf("%w: court and organizer are required", ErrInvalidSession)
	case !in.StartTime.Before(in.EndTime):
		return models.QueueSession{}, fmt.Errorf("%w: start time must be before end time", ErrInvalidSession)
	case in.MaxPlayers < 2:
		return models.QueueSession{}, fmt.Errorf("%w: max players must be at least 2", ErrInvalidSession)
	case !in.Mode.Valid():
		return models.QueueSession{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidSession, in.Mode)
	}

	now := m.now()
	sess := models.QueueSession{
		ID:                 m.newID(),
		CourtID:            in.CourtID,
		OrganizerID:        in.OrganizerID,
		StartTime:          in.StartTime,
		EndTime:            in.EndTime,
		Mode:               in.Mode,
		MaxPlayers:         in.MaxPlayers,
		RequiresPrepayment: in.RequiresPrepayment,
		Status:             models.SessionStatusOpen,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	u := &unit{store: m.newStore(sess)}
	m.mu.Lock()
	m.sessions[sess.ID] = u
	m.mu.Unlock()

	u.mu.RLock()
	m.persist(ctx, u.store.Snapshot())
	u.mu.RUnlock()
	m.metrics.SetWaiting(sess.ID, 0)

	m.l.Infof(ctx, "queue.Manager.CreateSession: session %s created for court %s", sess.ID, sess.CourtID)
	return sess, nil
}

func (m *Manager) Join(ctx context.Context, sessionID string, in JoinInput) (models.Participant, error) {
	var p models.Participant
	_, err := m.mutate(ctx, sessionID, "Join", func(s *Store, now time.Time) error {
		var err error
		p, err = s.Join(in.UserID, in.SkillRating, in.PlayStyle, now)
		return err
	})
	return p, err
}

func (m *Manager) Leave(ctx context.Context, sessionID, participantID string) error {
	_, err := m.mutate(ctx, sessionID, "Leave", func(s *Store, now time.Time) error {
		return s.Leave(participantID, now)
	})
	return err
}

func (m *Manager) MarkPaid(ctx context.Context, sessionID, participantID string) error {
	_, err := m.mutate(ctx, sessionID, "MarkPaid", func(s *Store, now time.Time) error {
		return s.MarkPaid(participantID, now)
	})
	return err
}

func (m *Manager) Approve(ctx context.Context, sessionID, participantID string) error {
	_, err := m.mutate(ctx, sessionID, "Approve", func(s *Store, now time.Time) error {
		return s.Approve(participantID, now)
	})
	return err
}

func (m *Manager) CheckAdmission(ctx context.Context, sessionID, participantID string) (Decision, error) {
	u, err := m.unit(sessionID)
	if err != nil {
		return Decision{}, err
	}
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.store.CheckAdmission(participantID)
}

func (m *Manager) Rotate(ctx context.Context, sessionID string) (RotationResult, error) {
	var res RotationResult
	_, err := m.mutate(ctx, sessionID, "Rotate", func(s *Store, now time.Time) error {
		var err error
		res, err = s.Rotate(now)
		return err
	})
	if err != nil {
		return RotationResult{}, err
	}
	m.observeRotation(ctx, sessionID, res)
	return res, nil
}

func (m *Manager) ReportResult(ctx context.Context, matchID string, outcome models.MatchOutcome) (RotationResult, error) {
	m.mu.RLock()
	sessionID, ok := m.matches[matchID]
	m.mu.RUnlock()
	if !ok {
		return RotationResult{}, ErrMatchNotFound
	}

	var res RotationResult
	_, err := m.mutate(ctx, sessionID, "ReportResult", func(s *Store, now time.Time) error {
		var err error
		res, err = s.ReportResult(matchID, outcome, now)
		return err
	})
	if err != nil {
		return RotationResult{}, err
	}
	m.observeRotation(ctx, sessionID, res)
	return res, nil
}

// Close ends a session on an organizer or court-admin request.
func (m *Manager) Close(ctx context.Context, sessionID string) error {
	_, err := m.mutate(ctx, sessionID, "Close", func(s *Store, now time.Time) error {
		return s.Close(DefaultCloseReason(s.committed.session), now)
	})
	return err
}

func (m *Manager) Tick(ctx context.Context, sessionID string) (models.CloseReason, error) {
	var reason models.CloseReason
	_, err := m.mutate(ctx, sessionID, "Tick", func(s *Store, now time.Time) error {
		var err error
		reason, err = s.Tick(now)
		return err
	})
	if err != nil {
		return "", err
	}
	if reason != "" {
		m.l.Infof(ctx, "queue.Manager.Tick: session %s closed (%s)", sessionID, reason)
	}
	return reason, nil
}

func (m *Manager) Snapshot(ctx context.Context, sessionID string) (View, error) {
	u, err := m.unit(sessionID)
	if err != nil {
		return View{}, err
	}
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.store.Snapshot(), nil
}

// SessionIDs lists the sessions that are not closed, sorted for stable iteration.
func (m *Manager) SessionIDs() []string {
	m.mu.RLock()
	units := make(map[string]*unit, len(m.sessions))
	for id, u := range m.sessions {
		units[id] = u
	}
	m.mu.RUnlock()

	ids := make([]string, 0, len(units))
	for id, u := range units {
		u.mu.RLock()
		closed := u.store.committed.session.IsClosed()
		u.mu.RUnlock()
		if !closed {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Restore loads persisted sessions, typically on boot. Invalid views are skipped and
// reported in the returned error.
func (m *Manager) Restore(ctx context.Context, views []View) error {
	var errs []error
	for _, v := range views {
		s := m.newStore(v.Session)
		if err := s.Restore(v); err != nil {
			m.l.Errorf(ctx, "queue.Manager.Restore: %v", err)
			errs = append(errs, err)
			continue
		}

		m.mu.Lock()
		m.sessions[v.Session.ID] = &unit{store: s}
		for _, match := range v.Matches {
			m.matches[match.ID] = v.Session.ID
		}
		m.mu.Unlock()
		m.metrics.SetWaiting(v.Session.ID, len(v.Waiting()))
	}

	m.l.Infof(ctx, "queue.Manager.Restore: restored %d of %d sessions", len(views)-len(errs), len(views))
	return errors.Join(errs...)
}

func (m *Manager) newStore(sess models.QueueSession) *Store {
	return NewStore(sess, StoreOptions{
		Policy:    m.cfg.Policy,
		Planner:   m.planner,
		Admission: m.admission,
		NewID:     m.newID,
	})
}

func (m *Manager) unit(sessionID string) (*unit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return u, nil
}

// mutate runs fn under the session's write lock and, once it commits, queues the derived
// notifications and the new view for persistence. Queuing never blocks, so it happens
// under the lock to keep per-session ordering.
func (m *Manager) mutate(ctx context.Context, sessionID, op string, fn func(s *Store, now time.Time) error) (View, error) {
	u, err := m.unit(sessionID)
	if err != nil {
		return View{}, err
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	before := u.store.Snapshot()
	now := m.now()
	if err := fn(u.store, now); err != nil {
		if errors.Is(err, ErrInconsistentState) {
			m.l.Errorf(ctx, "queue.Manager.%s: %v", op, err)
		}
		return View{}, err
	}
	after := u.store.Snapshot()
	if reflect.DeepEqual(before, after) {
		return after, nil
	}

	m.indexMatches(after)
	m.observeCommit(before, after)

	if events := diffEvents(before, after, m.rules, now); len(events) > 0 {
		for _, ev := range events {
			if ev.Type == models.NotificationStaleParticipant {
				m.metrics.AddStale()
			}
		}
		m.notify(ctx, events)
	}
	m.persist(ctx, after)
	return after, nil
}

func (m *Manager) indexMatches(v View) {
	if v.CurrentMatch == nil {
		return
	}
	m.mu.Lock()
	m.matches[v.CurrentMatch.ID] = v.Session.ID
	m.mu.Unlock()
}

func (m *Manager) notify(ctx context.Context, events []models.Notification) {
	if m.notifier == nil {
		return
	}
	m.dispatch.submit(ctx, "notify", func(jctx context.Context) error {
		return m.notifier.Notify(jctx, events)
	})
}

func (m *Manager) persist(ctx context.Context, v View) {
	if m.persister == nil {
		return
	}
	m.dispatch.submit(ctx, "persist", func(jctx context.Context) error {
		return m.persister.Save(jctx, v)
	})
}

func (m *Manager) observeCommit(before, after View) {
	id := after.Session.ID
	if after.Session.IsClosed() {
		if !before.Session.IsClosed() {
			m.metrics.AddSessionClosed(string(after.Session.CloseReason))
		}
		m.metrics.DeleteSession(id)
		return
	}
	m.metrics.SetWaiting(id, len(after.Waiting()))
}

func (m *Manager) observeRotation(ctx context.Context, sessionID string, res RotationResult) {
	counts := make(map[DenyReason]int)
	for _, d := range res.Skipped {
		counts[d.Reason]++
	}
	for reason, n := range counts {
		m.metrics.AddSkipped(string(reason), n)
	}

	if !res.Promoted() {
		return
	}
	m.metrics.AddRotation(string(res.Strategy), len(res.Match.ParticipantIDs))
	m.l.Infof(ctx, "queue.Manager.Rotate: session %s started match %s with %d players (%s)",
		sessionID, res.Match.ID, len(res.Match.ParticipantIDs), res.Strategy)
}
