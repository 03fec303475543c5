package models

import "time"

type Match struct {
	ID             string        `json:"id"`
	SessionID      string        `json:"session_id"`
	// Number is 1 for the first match of a session and counts up.
	Number         int           `json:"number"`
	ParticipantIDs []string      `json:"participant_ids"`
	Teams          []Team        `json:"teams"`
	Status         MatchStatus   `json:"status"`
	Outcome        *MatchOutcome `json:"outcome,omitempty"`
	StartedAt      time.Time     `json:"started_at"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
}

type MatchStatus string

const (
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
)

// NoWinner marks an outcome without a winning team (draw, abandoned, session closed).
const NoWinner = -1

type MatchOutcome struct {
	WinningTeam int    `json:"winning_team"`
	Score       string `json:"score,omitempty"`
	Note        string `json:"note,omitempty"`
}

type Team struct {
	Index          int      `json:"index"`
	ParticipantIDs []string `json:"participant_ids"`
	TotalSkill     int      `json:"total_skill"`
}

func (m *Match) InProgress() bool {
	return m.Status == MatchStatusInProgress
}
