package kafka

import (
	"time"

	"github.com/vogiaan1904/courtside-queue/internal/models"
)

// Events published BY the court queue

type QueueNotificationEvent struct {
	Type          string    `json:"type"`
	SessionID     string    `json:"session_id"`
	ParticipantID string    `json:"participant_id,omitempty"`
	UserID        string    `json:"user_id,omitempty"`
	Position      int       `json:"position,omitempty"`
	MatchID       string    `json:"match_id,omitempty"`
	SkipCount     int       `json:"skip_count,omitempty"`
	SessionStatus string    `json:"session_status,omitempty"`
	CourtPass     string    `json:"court_pass,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewQueueNotificationEvent(n models.Notification) QueueNotificationEvent {
	return QueueNotificationEvent{
		Type:          string(n.Type),
		SessionID:     n.SessionID,
		ParticipantID: n.ParticipantID,
		UserID:        n.UserID,
		Position:      n.Position,
		MatchID:       n.MatchID,
		SkipCount:     n.SkipCount,
		SessionStatus: string(n.SessionStatus),
		CourtPass:     n.CourtPass,
		OccurredAt:    n.Timestamp,
	}
}

// Events consumed BY the court queue

type PaymentStatusChangedEvent struct {
	SessionID     string    `json:"session_id"`
	ParticipantID string    `json:"participant_id"`
	Status        string    `json:"status"` // paid, unpaid, refunded
	Timestamp     time.Time `json:"timestamp"`
}

type ParticipantApprovalChangedEvent struct {
	SessionID     string    `json:"session_id"`
	ParticipantID string    `json:"participant_id"`
	Status        string    `json:"status"` // approved, pending, rejected
	Timestamp     time.Time `json:"timestamp"`
}

type CourtMatchResultEvent struct {
	MatchID     string    `json:"match_id"`
	WinningTeam int       `json:"winning_team"`
	Score       string    `json:"score"`
	Note        string    `json:"note"`
	Timestamp   time.Time `json:"timestamp"`
}
