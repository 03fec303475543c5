package http

import (
	"errors"
	"net/http"

	"github.com/vogiaan1904/courtside-queue/internal/queue"
	"github.com/vogiaan1904/courtside-queue/internal/service"
	pkgErrors "github.com/vogiaan1904/courtside-queue/pkg/errors"
)

var (
	errSessionNotFound     = pkgErrors.NewHTTPError("CQ001", "Session not found", http.StatusNotFound)
	errParticipantNotFound = pkgErrors.NewHTTPError("CQ002", "Participant not found", http.StatusNotFound)
	errMatchNotFound       = pkgErrors.NewHTTPError("CQ003", "Match not found", http.StatusNotFound)
	errSessionClosed       = pkgErrors.NewHTTPError("CQ004", "Session is closed", http.StatusConflict)
	errAlreadyQueued       = pkgErrors.NewHTTPError("CQ005", "User already has an active place in this session", http.StatusConflict)
	errPendingApproval     = pkgErrors.NewHTTPError("CQ006", "Organizer approval is pending", http.StatusForbidden)
	errPaymentRequired     = pkgErrors.NewHTTPError("CQ007", "Prepayment is required", http.StatusPaymentRequired)
	errInvalidTransition   = pkgErrors.NewHTTPError("CQ008", "Match is already completed", http.StatusConflict)
	errInvalidSession      = pkgErrors.NewHTTPError("CQ009", "Invalid session", http.StatusBadRequest)
	errInvalidSkillRating  = pkgErrors.NewHTTPError("CQ010", "Invalid skill rating", http.StatusBadRequest)
	errInvalidPlayStyle    = pkgErrors.NewHTTPError("CQ011", "Invalid play style", http.StatusBadRequest)
	errInvalidOutcome      = pkgErrors.NewHTTPError("CQ012", "Invalid match outcome", http.StatusBadRequest)
	errInconsistentState   = pkgErrors.NewHTTPError("CQ013", "Queue state rejected the operation", http.StatusInternalServerError)
	errInvalidCourtPass    = pkgErrors.NewHTTPError("CQ014", "Invalid court pass", http.StatusUnauthorized)
	errCourtPassNotCurrent = pkgErrors.NewHTTPError("CQ015", "Court pass is not for the match on court", http.StatusForbidden)
	errInvalidBody         = pkgErrors.NewHTTPError("CQ016", "Invalid request body", http.StatusBadRequest)
)

const codeValidationFailed = "CQ017"

func mapHTTPError(err error) error {
	switch {
	case errors.Is(err, queue.ErrSessionNotFound):
		return errSessionNotFound
	case errors.Is(err, queue.ErrParticipantNotFound):
		return errParticipantNotFound
	case errors.Is(err, queue.ErrMatchNotFound):
		return errMatchNotFound
	case errors.Is(err, queue.ErrSessionClosed):
		return errSessionClosed
	case errors.Is(err, queue.ErrAlreadyQueued):
		return errAlreadyQueued
	case errors.Is(err, queue.ErrPendingApproval):
		return errPendingApproval
	case errors.Is(err, queue.ErrPaymentRequired):
		return errPaymentRequired
	case errors.Is(err, queue.ErrInvalidTransition):
		return errInvalidTransition
	case errors.Is(err, queue.ErrInvalidSession):
		return pkgErrors.NewHTTPError(errInvalidSession.Code, err.Error(), errInvalidSession.StatusCode)
	case errors.Is(err, queue.ErrInvalidSkillRating):
		return errInvalidSkillRating
	case errors.Is(err, queue.ErrInvalidPlayStyle):
		return errInvalidPlayStyle
	case errors.Is(err, queue.ErrInvalidOutcome):
		return errInvalidOutcome
	case errors.Is(err, queue.ErrInconsistentState):
		return errInconsistentState
	case errors.Is(err, service.ErrPassNotCurrent):
		return errCourtPassNotCurrent
	case errors.Is(err, service.ErrPassEmpty),
		errors.Is(err, service.ErrPassInvalid),
		errors.Is(err, service.ErrPassInvalidClaims),
		errors.Is(err, service.ErrPassUnexpectedSignature):
		return errInvalidCourtPass
	default:
		return err
	}
}
