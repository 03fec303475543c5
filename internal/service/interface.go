package service

import (
	"context"
	"time"

	"github.com/vogiaan1904/courtside-queue/internal/models"
	"github.com/vogiaan1904/courtside-queue/internal/queue"
)

type CourtQueueService interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (models.QueueSession, error)
	GetSession(ctx context.Context, sessionID string) (queue.View, error)
	CloseSession(ctx context.Context, sessionID string) error
	Join(ctx context.Context, in JoinInput) (ParticipantOutput, error)
	Leave(ctx context.Context, sessionID, participantID string) error
	GetParticipant(ctx context.Context, sessionID, participantID string) (ParticipantOutput, error)
	MarkPaid(ctx context.Context, sessionID, participantID string) error
	Approve(ctx context.Context, sessionID, participantID string) error
	CheckAdmission(ctx context.Context, sessionID, participantID string) (queue.Decision, error)
	Rotate(ctx context.Context, sessionID string) (RotateOutput, error)
	ReportResult(ctx context.Context, in ReportResultInput) (RotateOutput, error)
	ValidateCourtPass(ctx context.Context, token string) (CourtPassClaims, error)
}

type PassService interface {
	Issue(ctx context.Context, n models.Notification) (string, error)
	Parse(ctx context.Context, token string) (CourtPassClaims, error)
}

type QueueProcessor interface {
	Start(ctx context.Context) error
	Stop() error
	Restore(ctx context.Context) error
	ProcessSession(ctx context.Context, sessionID string) error
	GetStatus() ProcessorStatus
}

type ProcessorStatus struct {
	IsRunning      bool      `json:"is_running"`
	StartedAt      time.Time `json:"started_at,omitempty"`
	LastProcessed  time.Time `json:"last_processed,omitempty"`
	SessionsActive int       `json:"sessions_active"`
	TotalRotations int64     `json:"total_rotations"`
	TotalClosed    int64     `json:"total_closed"`
	ErrorCount     int64     `json:"error_count"`
}
