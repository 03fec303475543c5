package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vogiaan1904/courtside-queue/config"
	"github.com/vogiaan1904/courtside-queue/internal/models"
	"github.com/vogiaan1904/courtside-queue/internal/queue"
	"github.com/vogiaan1904/courtside-queue/pkg/logger"
)

var t0 = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []models.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, events []models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func (r *recordingNotifier) ofType(typ models.NotificationType) []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

type fixture struct {
	svc   CourtQueueService
	mgr   *queue.Manager
	pass  *passService
	clock *fakeClock
	rec   *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	l := logger.InitializeTestZapLogger()
	clock := &fakeClock{now: t0}
	rec := &recordingNotifier{}

	pass := NewPassService(config.CourtPassConfig{Secret: "test-secret", Expiry: time.Hour}, l).(*passService)
	pass.now = clock.Now

	ids := 0
	mgr := queue.NewManager(l, queue.Config{},
		queue.WithClock(clock.Now),
		queue.WithNotifier(NewPassNotifier(pass, rec, l)),
		queue.WithIDGenerator(func() string {
			ids++
			return fmt.Sprintf("id-%d", ids)
		}),
	)
	t.Cleanup(mgr.Shutdown)

	return &fixture{
		svc:   NewCourtQueueService(mgr, pass, l),
		mgr:   mgr,
		pass:  pass,
		clock: clock,
		rec:   rec,
	}
}

func (f *fixture) createSession(t *testing.T, mode models.SessionMode, maxPlayers int) string {
	t.Helper()
	sess, err := f.svc.CreateSession(context.Background(), CreateSessionInput{
		CourtID:     "court-1",
		OrganizerID: "org-1",
		StartTime:   t0,
		EndTime:     t0.Add(2 * time.Hour),
		Mode:        mode,
		MaxPlayers:  maxPlayers,
	})
	require.NoError(t, err)
	return sess.ID
}

func (f *fixture) join(t *testing.T, sessionID, userID string, rating int) ParticipantOutput {
	t.Helper()
	out, err := f.svc.Join(context.Background(), JoinInput{
		SessionID:   sessionID,
		UserID:      userID,
		SkillRating: rating,
	})
	require.NoError(t, err)
	return out
}

func TestCourtQueueService_JoinReportsPosition(t *testing.T) {
	f := newFixture(t)
	sid := f.createSession(t, models.SessionModeCasual, 2)

	first := f.join(t, sid, "alice", 5)
	second := f.join(t, sid, "bob", 5)

	assert.Equal(t, 1, first.Participant.Position)
	assert.Equal(t, 0, first.AheadOfTurn)
	assert.Equal(t, 2, second.Participant.Position)
	assert.Equal(t, 1, second.AheadOfTurn)
	assert.Equal(t, 2, second.WaitingCount)

	got, err := f.svc.GetParticipant(context.Background(), sid, first.Participant.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.WaitingCount)

	_, err = f.svc.GetParticipant(context.Background(), sid, "missing")
	assert.ErrorIs(t, err, queue.ErrNotFound)
}

func TestCourtQueueService_CourtPassFollowsTheMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.createSession(t, models.SessionModeCasual, 2)
	alice := f.join(t, sid, "alice", 5)
	f.join(t, sid, "bob", 6)

	res, err := f.svc.Rotate(ctx, sid)
	require.NoError(t, err)
	require.True(t, res.Promoted)

	require.Eventually(t, func() bool {
		return len(f.rec.ofType(models.NotificationTurnNow)) == 2
	}, time.Second, 5*time.Millisecond)

	var pass string
	for _, ev := range f.rec.ofType(models.NotificationTurnNow) {
		require.NotEmpty(t, ev.CourtPass)
		if ev.ParticipantID == alice.Participant.ID {
			pass = ev.CourtPass
		}
	}
	require.NotEmpty(t, pass)

	claims, err := f.svc.ValidateCourtPass(ctx, pass)
	require.NoError(t, err)
	assert.Equal(t, res.Match.ID, claims.MatchID)
	assert.Equal(t, "alice", claims.UserID)

	_, err = f.svc.ReportResult(ctx, ReportResultInput{MatchID: res.Match.ID, WinningTeam: 0, Score: "21-15"})
	require.NoError(t, err)

	_, err = f.svc.ValidateCourtPass(ctx, pass)
	assert.ErrorIs(t, err, ErrPassNotCurrent)
}

func TestCourtQueueService_ReportResultErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.createSession(t, models.SessionModeCasual, 2)
	f.join(t, sid, "alice", 5)
	f.join(t, sid, "bob", 6)

	_, err := f.svc.ReportResult(ctx, ReportResultInput{MatchID: "nope"})
	assert.ErrorIs(t, err, queue.ErrMatchNotFound)

	res, err := f.svc.Rotate(ctx, sid)
	require.NoError(t, err)

	_, err = f.svc.ReportResult(ctx, ReportResultInput{MatchID: res.Match.ID, WinningTeam: 7})
	assert.ErrorIs(t, err, queue.ErrInvalidOutcome)

	_, err = f.svc.ReportResult(ctx, ReportResultInput{MatchID: res.Match.ID, WinningTeam: models.NoWinner})
	require.NoError(t, err)

	_, err = f.svc.ReportResult(ctx, ReportResultInput{MatchID: res.Match.ID, WinningTeam: 0})
	assert.ErrorIs(t, err, queue.ErrInvalidTransition)
}

func TestCourtQueueService_AdmissionCommands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.createSession(t, models.SessionModeCompetitive, 2)
	p := f.join(t, sid, "alice", 5)

	d, err := f.svc.CheckAdmission(ctx, sid, p.Participant.ID)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.ErrorIs(t, d.Err(), queue.ErrPendingApproval)

	require.NoError(t, f.svc.Approve(ctx, sid, p.Participant.ID))
	require.NoError(t, f.svc.MarkPaid(ctx, sid, p.Participant.ID))

	d, err = f.svc.CheckAdmission(ctx, sid, p.Participant.ID)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestCourtQueueService_CloseSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sid := f.createSession(t, models.SessionModeCasual, 4)
	p := f.join(t, sid, "alice", 5)

	require.NoError(t, f.svc.CloseSession(ctx, sid))

	v, err := f.svc.GetSession(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusClosed, v.Session.Status)
	assert.Equal(t, models.CloseReasonCancelled, v.Session.CloseReason)

	got, ok := v.Participant(p.Participant.ID)
	require.True(t, ok)
	assert.Equal(t, models.ParticipantStatusLeft, got.Status)

	_, err = f.svc.Join(ctx, JoinInput{SessionID: sid, UserID: "bob", SkillRating: 5})
	assert.ErrorIs(t, err, queue.ErrSessionClosed)

	err = f.svc.Leave(ctx, sid, p.Participant.ID)
	assert.ErrorIs(t, err, queue.ErrParticipantNotFound)
}
