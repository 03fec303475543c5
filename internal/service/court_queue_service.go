package service

import (
	"context"

	"github.com/vogiaan1904/courtside-queue/internal/models"
	"github.com/vogiaan1904/courtside-queue/internal/queue"
	"github.com/vogiaan1904/courtside-queue/pkg/logger"
)

type courtQueueService struct {
	mgr  *queue.Manager
	pass PassService
	l    logger.Logger
}

func NewCourtQueueService(mgr *queue.Manager, pass PassService, l logger.Logger) CourtQueueService {
	return &courtQueueService{
		mgr:  mgr,
		pass: pass,
		l:    l,
	}
}

func (s *courtQueueService) CreateSession(ctx context.Context, in CreateSessionInput) (models.QueueSession, error) {
	sess, err := s.mgr.CreateSession(ctx, queue.CreateSessionInput{
		CourtID:            in.CourtID,
		OrganizerID:        in.OrganizerID,
		StartTime:          in.StartTime,
		EndTime:            in.EndTime,
		Mode:               in.Mode,
		MaxPlayers:         in.MaxPlayers,
		RequiresPrepayment: in.RequiresPrepayment,
	})
	if err != nil {
		s.l.Warnf(ctx, "courtQueueService.CreateSession: %v", err)
		return models.QueueSession{}, err
	}

	s.l.Infof(ctx, "Session created - session_id: %s, court_id: %s, mode: %s", sess.ID, sess.CourtID, sess.Mode)
	return sess, nil
}

func (s *courtQueueService) GetSession(ctx context.Context, sessionID string) (queue.View, error) {
	return s.mgr.Snapshot(ctx, sessionID)
}

func (s *courtQueueService) CloseSession(ctx context.Context, sessionID string) error {
	if err := s.mgr.Close(ctx, sessionID); err != nil {
		s.l.Warnf(ctx, "courtQueueService.CloseSession: %v", err)
		return err
	}
	return nil
}

func (s *courtQueueService) Join(ctx context.Context, in JoinInput) (ParticipantOutput, error) {
	p, err := s.mgr.Join(ctx, in.SessionID, queue.JoinInput{
		UserID:      in.UserID,
		SkillRating: in.SkillRating,
		PlayStyle:   in.PlayStyle,
	})
	if err != nil {
		s.l.Warnf(ctx, "courtQueueService.Join: %v", err)
		return ParticipantOutput{}, err
	}

	return s.GetParticipant(ctx, in.SessionID, p.ID)
}

func (s *courtQueueService) Leave(ctx context.Context, sessionID, participantID string) error {
	if err := s.mgr.Leave(ctx, sessionID, participantID); err != nil {
		s.l.Warnf(ctx, "courtQueueService.Leave: %v", err)
		return err
	}
	return nil
}

func (s *courtQueueService) GetParticipant(ctx context.Context, sessionID, participantID string) (ParticipantOutput, error) {
	v, err := s.mgr.Snapshot(ctx, sessionID)
	if err != nil {
		return ParticipantOutput{}, err
	}

	p, ok := v.Participant(participantID)
	if !ok {
		return ParticipantOutput{}, queue.ErrParticipantNotFound
	}

	out := ParticipantOutput{
		Participant:  p,
		WaitingCount: len(v.Waiting()),
	}
	if p.IsWaiting() {
		out.AheadOfTurn = p.Position - 1
	}
	return out, nil
}

func (s *courtQueueService) MarkPaid(ctx context.Context, sessionID, participantID string) error {
	if err := s.mgr.MarkPaid(ctx, sessionID, participantID); err != nil {
		s.l.Warnf(ctx, "courtQueueService.MarkPaid: %v", err)
		return err
	}
	return nil
}

func (s *courtQueueService) Approve(ctx context.Context, sessionID, participantID string) error {
	if err := s.mgr.Approve(ctx, sessionID, participantID); err != nil {
		s.l.Warnf(ctx, "courtQueueService.Approve: %v", err)
		return err
	}
	return nil
}

func (s *courtQueueService) CheckAdmission(ctx context.Context, sessionID, participantID string) (queue.Decision, error) {
	return s.mgr.CheckAdmission(ctx, sessionID, participantID)
}

func (s *courtQueueService) Rotate(ctx context.Context, sessionID string) (RotateOutput, error) {
	res, err := s.mgr.Rotate(ctx, sessionID)
	if err != nil {
		s.l.Errorf(ctx, "courtQueueService.Rotate: %v", err)
		return RotateOutput{}, err
	}
	return toRotateOutput(res), nil
}

func (s *courtQueueService) ReportResult(ctx context.Context, in ReportResultInput) (RotateOutput, error) {
	res, err := s.mgr.ReportResult(ctx, in.MatchID, models.MatchOutcome{
		WinningTeam: in.WinningTeam,
		Score:       in.Score,
		Note:        in.Note,
	})
	if err != nil {
		s.l.Warnf(ctx, "courtQueueService.ReportResult: %v", err)
		return RotateOutput{}, err
	}
	return toRotateOutput(res), nil
}

// ValidateCourtPass accepts a pass only while its holder is playing in the match it
// was issued for.
func (s *courtQueueService) ValidateCourtPass(ctx context.Context, token string) (CourtPassClaims, error) {
	claims, err := s.pass.Parse(ctx, token)
	if err != nil {
		return CourtPassClaims{}, err
	}

	v, err := s.mgr.Snapshot(ctx, claims.SessionID)
	if err != nil {
		return CourtPassClaims{}, err
	}

	p, ok := v.Participant(claims.ParticipantID)
	if !ok || v.CurrentMatch == nil || v.CurrentMatch.ID != claims.MatchID ||
		p.Status != models.ParticipantStatusPlaying || p.MatchID != claims.MatchID {
		s.l.Warnf(ctx, "courtQueueService.ValidateCourtPass: participant %s not on court for match %s",
			claims.ParticipantID, claims.MatchID)
		return CourtPassClaims{}, ErrPassNotCurrent
	}

	return claims, nil
}

func toRotateOutput(res queue.RotationResult) RotateOutput {
	return RotateOutput{
		Promoted: res.Promoted(),
		Match:    res.Match,
		Strategy: res.Strategy,
		Skipped:  res.Skipped,
	}
}
