package models

import "time"

type Participant struct {
	ID             string            `json:"id"`
	SessionID      string            `json:"session_id"`
	UserID         string            `json:"user_id"`
	JoinedAt       time.Time         `json:"joined_at"`
	// JoinSeq orders participants of one session by join, including equal JoinedAt values.
	JoinSeq        int64             `json:"join_seq"`
	SkillRating    int               `json:"skill_rating"`
	SkillBucket    SkillBucket       `json:"skill_bucket"`
	PlayStyle      PlayStyle         `json:"play_style"`
	Status         ParticipantStatus `json:"status"`
	PaymentStatus  PaymentStatus     `json:"payment_status"`
	ApprovalStatus ApprovalStatus    `json:"approval_status"`
	Position       int               `json:"position,omitempty"`
	SkipCount      int               `json:"skip_count"`
	MatchID        string            `json:"match_id,omitempty"`
	PromotedAt     *time.Time        `json:"promoted_at,omitempty"`
	FinishedAt     *time.Time        `json:"finished_at,omitempty"`
}

type ParticipantStatus string

const (
	ParticipantStatusWaiting   ParticipantStatus = "waiting"
	ParticipantStatusPlaying   ParticipantStatus = "playing"
	ParticipantStatusCompleted ParticipantStatus = "completed"
	ParticipantStatusLeft      ParticipantStatus = "left"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
)

type PlayStyle string

const (
	PlayStyleAny       PlayStyle = "any"
	PlayStyleAttacking PlayStyle = "attacking"
	PlayStyleDefensive PlayStyle = "defensive"
)

func (p PlayStyle) Valid() bool {
	return p == PlayStyleAny || p == PlayStyleAttacking || p == PlayStyleDefensive
}

func (p *Participant) IsActive() bool {
	return p.Status == ParticipantStatusWaiting || p.Status == ParticipantStatusPlaying
}

func (p *Participant) IsTerminal() bool {
	return p.Status == ParticipantStatusCompleted || p.Status == ParticipantStatusLeft
}

func (p *Participant) IsWaiting() bool {
	return p.Status == ParticipantStatusWaiting
}
