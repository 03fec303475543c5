package queue

import "github.com/vogiaan1904/courtside-queue/internal/models"

type DenyReason string

const (
	DenyPendingApproval DenyReason = "pending_approval"
	DenyPaymentRequired DenyReason = "payment_required"
)

type Decision struct {
	ParticipantID string     `json:"participant_id"`
	Allowed       bool       `json:"allowed"`
	Reason        DenyReason `json:"reason,omitempty"`
}

// Err returns the sentinel matching the deny reason, or nil when allowed.
func (d Decision) Err() error {
	switch d.Reason {
	case DenyPendingApproval:
		return ErrPendingApproval
	case DenyPaymentRequired:
		return ErrPaymentRequired
	default:
		return nil
	}
}

// CanAdmit decides whether a waiting participant may be promoted onto the court.
// It is evaluated at promotion time only; joining never consults it.
func CanAdmit(p models.Participant, s models.QueueSession, approval models.ApprovalStatus, payment models.PaymentStatus) Decision {
	if s.Mode == models.SessionModeCompetitive && approval != models.ApprovalStatusApproved {
		return Decision{ParticipantID: p.ID, Reason: DenyPendingApproval}
	}
	if s.RequiresPrepayment && payment != models.PaymentStatusPaid {
		return Decision{ParticipantID: p.ID, Reason: DenyPaymentRequired}
	}
	return Decision{ParticipantID: p.ID, Allowed: true}
}

// AdmissionSource supplies approval and payment state from outside the queue.
// Implementations are called while a session is locked and must not block on I/O.
type AdmissionSource interface {
	ApprovalState(sessionID, participantID string) models.ApprovalStatus
	PaymentState(participantID string) models.PaymentStatus
}

// recordSource reads admission inputs from the participant records themselves,
// which MarkPaid and Approve keep current.
type recordSource struct {
	w *state
}

func (r recordSource) ApprovalState(_ string, participantID string) models.ApprovalStatus {
	if p := r.w.participant(participantID); p != nil {
		return p.ApprovalStatus
	}
	return models.ApprovalStatusPending
}

func (r recordSource) PaymentState(participantID string) models.PaymentStatus {
	if p := r.w.participant(participantID); p != nil {
		return p.PaymentStatus
	}
	return models.PaymentStatusUnpaid
}
