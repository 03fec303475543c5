package models

import "time"

type QueueSession struct {
	ID                 string        `json:"id"`
	CourtID            string        `json:"court_id"`
	OrganizerID        string        `json:"organizer_id"`
	StartTime          time.Time     `json:"start_time"`
	EndTime            time.Time     `json:"end_time"`
	Mode               SessionMode   `json:"mode"`
	MaxPlayers         int           `json:"max_players"`
	RequiresPrepayment bool          `json:"requires_prepayment"`
	Status             SessionStatus `json:"status"`
	CloseReason        CloseReason   `json:"close_reason,omitempty"`
	IdleSince          *time.Time    `json:"idle_since,omitempty"`
	ActivatedAt        *time.Time    `json:"activated_at,omitempty"`
	ClosedAt           *time.Time    `json:"closed_at,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "open"
	SessionStatusActive SessionStatus = "active"
	SessionStatusClosed SessionStatus = "closed"
)

type SessionMode string

const (
	SessionModeCasual      SessionMode = "casual"
	SessionModeCompetitive SessionMode = "competitive"
)

func (m SessionMode) Valid() bool {
	return m == SessionModeCasual || m == SessionModeCompetitive
}

type CloseReason string

const (
	CloseReasonOrganizer CloseReason = "organizer"
	CloseReasonCancelled CloseReason = "cancelled"
	CloseReasonExpired   CloseReason = "expired"
	CloseReasonIdle      CloseReason = "idle"
)

// rank orders statuses so transitions can be checked for monotonicity.
func (s SessionStatus) rank() int {
	switch s {
	case SessionStatusOpen:
		return 0
	case SessionStatusActive:
		return 1
	case SessionStatusClosed:
		return 2
	default:
		return -1
	}
}

// CanTransitionTo reports whether moving from s to next keeps the status monotonic.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	if s == SessionStatusClosed {
		return false
	}
	return next.rank() > s.rank()
}

func (s *QueueSession) AcceptsJoins() bool {
	return s.Status == SessionStatusOpen || s.Status == SessionStatusActive
}

func (s *QueueSession) IsClosed() bool {
	return s.Status == SessionStatusClosed
}

func (s *QueueSession) HasStarted(now time.Time) bool {
	return !now.Before(s.StartTime)
}

func (s *QueueSession) HasEnded(now time.Time) bool {
	return !now.Before(s.EndTime)
}
