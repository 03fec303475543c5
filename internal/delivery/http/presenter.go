package http

import (
	"time"

	"github.com/elliotchance/pie/v2"

	"github.com/vogiaan1904/courtside-queue/internal/models"
	"github.com/vogiaan1904/courtside-queue/internal/queue"
	"github.com/vogiaan1904/courtside-queue/internal/service"
	"github.com/vogiaan1904/courtside-queue/pkg/util"
)

type createSessionRequest struct {
	CourtID            string `json:"court_id" validate:"required"`
	OrganizerID        string `json:"organizer_id" validate:"required"`
	StartTime          string `json:"start_time" validate:"required"`
	EndTime            string `json:"end_time" validate:"required"`
	Mode               string `json:"mode" validate:"omitempty,oneof=casual competitive"`
	MaxPlayers         int    `json:"max_players" validate:"required,min=2"`
	RequiresPrepayment bool   `json:"requires_prepayment"`
}

func (r createSessionRequest) toInput() (service.CreateSessionInput, error) {
	start, err := util.ParseISO8601(r.StartTime)
	if err != nil {
		return service.CreateSessionInput{}, err
	}
	end, err := util.ParseISO8601(r.EndTime)
	if err != nil {
		return service.CreateSessionInput{}, err
	}
	return service.CreateSessionInput{
		CourtID:            r.CourtID,
		OrganizerID:        r.OrganizerID,
		StartTime:          start,
		EndTime:            end,
		Mode:               models.SessionMode(r.Mode),
		MaxPlayers:         r.MaxPlayers,
		RequiresPrepayment: r.RequiresPrepayment,
	}, nil
}

type joinRequest struct {
	UserID      string `json:"user_id" validate:"required"`
	SkillRating int    `json:"skill_rating" validate:"min=0"`
	PlayStyle   string `json:"play_style" validate:"omitempty,oneof=any attacking defensive"`
}

type reportResultRequest struct {
	WinningTeam int    `json:"winning_team" validate:"min=-1"`
	Score       string `json:"score" validate:"max=64"`
	Note        string `json:"note" validate:"max=256"`
}

type validatePassRequest struct {
	Token string `json:"token" validate:"required"`
}

type sessionResponse struct {
	ID                 string                `json:"id"`
	CourtID            string                `json:"court_id"`
	OrganizerID        string                `json:"organizer_id"`
	StartTime          string                `json:"start_time"`
	EndTime            string                `json:"end_time"`
	Mode               string                `json:"mode"`
	MaxPlayers         int                   `json:"max_players"`
	RequiresPrepayment bool                  `json:"requires_prepayment"`
	Status             string                `json:"status"`
	CloseReason        string                `json:"close_reason,omitempty"`
	WaitingCount       int                   `json:"waiting_count"`
	Waiting            []participantResponse `json:"waiting,omitempty"`
	CurrentMatch       *matchResponse        `json:"current_match,omitempty"`
}

type participantResponse struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	Status         string `json:"status"`
	Position       int    `json:"position,omitempty"`
	AheadOfTurn    int    `json:"ahead_of_turn"`
	WaitingCount   int    `json:"waiting_count,omitempty"`
	SkillBucket    string `json:"skill_bucket"`
	PlayStyle      string `json:"play_style"`
	PaymentStatus  string `json:"payment_status"`
	ApprovalStatus string `json:"approval_status"`
	SkipCount      int    `json:"skip_count"`
	MatchID        string `json:"match_id,omitempty"`
	JoinedAt       string `json:"joined_at"`
}

type matchResponse struct {
	ID             string        `json:"id"`
	Status         string        `json:"status"`
	ParticipantIDs []string      `json:"participant_ids"`
	Teams          []models.Team `json:"teams"`
	StartedAt      string        `json:"started_at"`
}

type rotateResponse struct {
	Promoted bool             `json:"promoted"`
	Strategy string           `json:"strategy,omitempty"`
	Match    *matchResponse   `json:"match,omitempty"`
	Skipped  []queue.Decision `json:"skipped,omitempty"`
}

type courtPassResponse struct {
	SessionID     string `json:"session_id"`
	ParticipantID string `json:"participant_id"`
	UserID        string `json:"user_id"`
	MatchID       string `json:"match_id"`
	ExpiresAt     string `json:"expires_at"`
}

func formatTime(t time.Time) string {
	return util.TimeToISO8601Str(t)
}

func toSessionResponse(v queue.View) sessionResponse {
	waiting := v.Waiting()
	resp := sessionResponse{
		ID:                 v.Session.ID,
		CourtID:            v.Session.CourtID,
		OrganizerID:        v.Session.OrganizerID,
		StartTime:          formatTime(v.Session.StartTime),
		EndTime:            formatTime(v.Session.EndTime),
		Mode:               string(v.Session.Mode),
		MaxPlayers:         v.Session.MaxPlayers,
		RequiresPrepayment: v.Session.RequiresPrepayment,
		Status:             string(v.Session.Status),
		CloseReason:        string(v.Session.CloseReason),
		WaitingCount:       len(waiting),
		Waiting: pie.Map(waiting, func(p models.Participant) participantResponse {
			return toParticipantResponse(service.ParticipantOutput{Participant: p, AheadOfTurn: p.Position - 1})
		}),
	}
	if v.CurrentMatch != nil {
		resp.CurrentMatch = toMatchResponse(v.CurrentMatch)
	}
	return resp
}

func toParticipantResponse(out service.ParticipantOutput) participantResponse {
	p := out.Participant
	return participantResponse{
		ID:             p.ID,
		UserID:         p.UserID,
		Status:         string(p.Status),
		Position:       p.Position,
		AheadOfTurn:    out.AheadOfTurn,
		WaitingCount:   out.WaitingCount,
		SkillBucket:    string(p.SkillBucket),
		PlayStyle:      string(p.PlayStyle),
		PaymentStatus:  string(p.PaymentStatus),
		ApprovalStatus: string(p.ApprovalStatus),
		SkipCount:      p.SkipCount,
		MatchID:        p.MatchID,
		JoinedAt:       formatTime(p.JoinedAt),
	}
}

func toMatchResponse(m *models.Match) *matchResponse {
	return &matchResponse{
		ID:             m.ID,
		Status:         string(m.Status),
		ParticipantIDs: m.ParticipantIDs,
		Teams:          m.Teams,
		StartedAt:      formatTime(m.StartedAt),
	}
}

func toRotateResponse(out service.RotateOutput) rotateResponse {
	resp := rotateResponse{
		Promoted: out.Promoted,
		Strategy: string(out.Strategy),
		Skipped:  out.Skipped,
	}
	if out.Match != nil {
		resp.Match = toMatchResponse(out.Match)
	}
	return resp
}
