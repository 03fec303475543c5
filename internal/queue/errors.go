package queue

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrSessionNotFound     = fmt.Errorf("session %w", ErrNotFound)
	ErrParticipantNotFound = fmt.Errorf("participant %w", ErrNotFound)
	ErrMatchNotFound       = fmt.Errorf("match %w", ErrNotFound)

	ErrSessionClosed      = errors.New("session is closed")
	ErrAlreadyQueued      = errors.New("user already has an active record in this session")
	ErrPendingApproval    = errors.New("participant is pending approval")
	ErrPaymentRequired    = errors.New("payment required before promotion")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrInvalidSession     = errors.New("invalid session")
	ErrInvalidSkillRating = errors.New("invalid skill rating")
	ErrInvalidPlayStyle   = errors.New("invalid play style")
	ErrInvalidOutcome     = errors.New("invalid match outcome")

	// ErrInconsistentState signals a bug: a mutation broke a queue invariant and was discarded.
	ErrInconsistentState = errors.New("inconsistent queue state")
)

type ConsistencyError struct {
	SessionID string
	Op        string
	Violation string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%s: session %s: %s: %s", ErrInconsistentState, e.SessionID, e.Op, e.Violation)
}

func (e *ConsistencyError) Is(target error) bool {
	return target == ErrInconsistentState
}
