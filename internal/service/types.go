package service

import (
	"time"

	"github.com/vogiaan1904/courtside-queue/internal/matchmaking"
	"github.com/vogiaan1904/courtside-queue/internal/models"
	"github.com/vogiaan1904/courtside-queue/internal/queue"
)

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
	SessionID   string
	UserID      string
	SkillRating int
	PlayStyle   models.PlayStyle
}

type ReportResultInput struct {
	MatchID     string
	WinningTeam int
	Score       string
	Note        string
}

// ParticipantOutput is a participant as seen from the waiting list.
type ParticipantOutput struct {
	Participant  models.Participant
	WaitingCount int
	// AheadOfTurn is the number of waiting participants in front.
	AheadOfTurn int
}

type RotateOutput struct {
	Promoted bool
	Match    *models.Match
	Strategy matchmaking.Strategy
	Skipped  []queue.Decision
}

type CourtPassClaims struct {
	SessionID     string
	ParticipantID string
	UserID        string
	MatchID       string
	IssuedAt      time.Time
	ExpiresAt     time.Time
}
