package models

import "time"

type NotificationType string

const (
	NotificationPositionChanged  NotificationType = "position-changed"
	NotificationTurnSoon         NotificationType = "turn-soon"
	NotificationTurnNow          NotificationType = "turn-now"
	NotificationStaleParticipant NotificationType = "stale-participant"
	NotificationSessionStatus    NotificationType = "session-status-changed"
)

// Notification is emitted after a committed queue mutation.
type Notification struct {
	Type          NotificationType `json:"type"`
	SessionID     string           `json:"session_id"`
	ParticipantID string           `json:"participant_id,omitempty"`
	UserID        string           `json:"user_id,omitempty"`
	Position      int              `json:"position,omitempty"`
	MatchID       string           `json:"match_id,omitempty"`
	SkipCount     int              `json:"skip_count,omitempty"`
	SessionStatus SessionStatus    `json:"session_status,omitempty"`
	CourtPass     string           `json:"court_pass,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}
