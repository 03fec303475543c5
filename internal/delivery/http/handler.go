package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vogiaan1904/courtside-queue/internal/models"
	"github.com/vogiaan1904/courtside-queue/internal/service"
	"github.com/vogiaan1904/courtside-queue/pkg/logger"
	"github.com/vogiaan1904/courtside-queue/pkg/response"
)

type HTTPHandler struct {
	svc       service.CourtQueueService
	proc      service.QueueProcessor
	l         logger.Logger
	validator *validator.Validate
}

func NewHTTPHandler(svc service.CourtQueueService, proc service.QueueProcessor, l logger.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:       svc,
		proc:      proc,
		l:         l,
		validator: validator.New(),
	}
}

// HealthCheck handles health check requests
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":  "healthy",
		"service": "courtside-queue",
	}
	if h.proc != nil {
		body["processor"] = h.proc.GetStatus()
	}
	response.OK(w, http.StatusOK, body)
}

func (h *HTTPHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !h.decode(w, r, &req) {
		return
	}

	in, err := req.toInput()
	if err != nil {
		response.ValidationError(w, codeValidationFailed, map[string]string{"time": "use the 2006-01-02T15:04:05Z format"})
		return
	}

	sess, err := h.svc.CreateSession(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	v, err := h.svc.GetSession(r.Context(), sess.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	response.OK(w, http.StatusCreated, toSessionResponse(v))
}

func (h *HTTPHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.GetSession(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	response.OK(w, http.StatusOK, toSessionResponse(v))
}

func (h *HTTPHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if err := h.svc.CloseSession(r.Context(), sessionID); err != nil {
		h.respondError(w, r, err)
		return
	}

	v, err := h.svc.GetSession(r.Context(), sessionID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	response.OK(w, http.StatusOK, toSessionResponse(v))
}

func (h *HTTPHandler) Rotate(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Rotate(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	response.OK(w, http.StatusOK, toRotateResponse(out))
}

func (h *HTTPHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !h.decode(w, r, &req) {
		return
	}

	out, err := h.svc.Join(r.Context(), service.JoinInput{
		SessionID:   chi.URLParam(r, "sessionId"),
		UserID:      req.UserID,
		SkillRating: req.SkillRating,
		PlayStyle:   models.PlayStyle(req.PlayStyle),
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	response.OK(w, http.StatusCreated, toParticipantResponse(out))
}

func (h *HTTPHandler) GetParticipant(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.GetParticipant(r.Context(), chi.URLParam(r, "sessionId"), chi.URLParam(r, "participantId"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	response.OK(w, http.StatusOK, toParticipantResponse(out))
}

func (h *HTTPHandler) Leave(w http.ResponseWriter, r *http.Request) {
	sessionID, participantID := chi.URLParam(r, "sessionId"), chi.URLParam(r, "participantId")
	if err := h.svc.Leave(r.Context(), sessionID, participantID); err != nil {
		h.respondError(w, r, err)
		return
	}
	response.OK(w, http.StatusOK, map[string]string{
		"participant_id": participantID,
		"message":        "Successfully left the queue",
	})
}

func (h *HTTPHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.participantCommand(w, r, h.svc.MarkPaid)
}

func (h *HTTPHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.participantCommand(w, r, h.svc.Approve)
}

func (h *HTTPHandler) CheckAdmission(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.CheckAdmission(r.Context(), chi.URLParam(r, "sessionId"), chi.URLParam(r, "participantId"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	response.OK(w, http.StatusOK, d)
}

func (h *HTTPHandler) ReportResult(w http.ResponseWriter, r *http.Request) {
	var req reportResultRequest
	if !h.decode(w, r, &req) {
		return
	}

	out, err := h.svc.ReportResult(r.Context(), service.ReportResultInput{
		MatchID:     chi.URLParam(r, "matchId"),
		WinningTeam: req.WinningTeam,
		Score:       req.Score,
		Note:        req.Note,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	response.OK(w, http.StatusOK, toRotateResponse(out))
}

func (h *HTTPHandler) ValidateCourtPass(w http.ResponseWriter, r *http.Request) {
	var req validatePassRequest
	if !h.decode(w, r, &req) {
		return
	}

	claims, err := h.svc.ValidateCourtPass(r.Context(), req.Token)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	response.OK(w, http.StatusOK, courtPassResponse{
		SessionID:     claims.SessionID,
		ParticipantID: claims.ParticipantID,
		UserID:        claims.UserID,
		MatchID:       claims.MatchID,
		ExpiresAt:     formatTime(claims.ExpiresAt),
	})
}

// Helper functions

type participantCmd func(ctx context.Context, sessionID, participantID string) error

func (h *HTTPHandler) participantCommand(w http.ResponseWriter, r *http.Request, cmd participantCmd) {
	sessionID, participantID := chi.URLParam(r, "sessionId"), chi.URLParam(r, "participantId")
	if err := cmd(r.Context(), sessionID, participantID); err != nil {
		h.respondError(w, r, err)
		return
	}

	out, err := h.svc.GetParticipant(r.Context(), sessionID, participantID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	response.OK(w, http.StatusOK, toParticipantResponse(out))
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.l.Debugf(r.Context(), "delivery.http.decode: %v", err)
		response.Error(w, errInvalidBody)
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			response.Error(w, errInvalidBody)
			return false
		}
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		response.ValidationError(w, codeValidationFailed, details)
		return false
	}
	return true
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	mapped := mapHTTPError(err)
	if mapped == err {
		h.l.Errorf(r.Context(), "delivery.http: %s %s: %v", r.Method, r.URL.Path, err)
	} else {
		h.l.Debugf(r.Context(), "delivery.http: %s %s: %v", r.Method, r.URL.Path, err)
	}
	response.Error(w, mapped)
}
