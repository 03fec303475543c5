package kafka

import "github.com/vogiaan1904/courtside-queue/internal/models"

// Topics published by the court queue.
const (
	TopicPositionChanged  = "COURT_QUEUE_POSITION_CHANGED"
	TopicTurnSoon         = "COURT_QUEUE_TURN_SOON"
	TopicTurnNow          = "COURT_QUEUE_TURN_NOW"
	TopicStaleParticipant = "COURT_QUEUE_STALE_PARTICIPANT"
	TopicSessionStatus    = "COURT_QUEUE_SESSION_STATUS_CHANGED"
)

// Topics consumed from the booking and scoring services.
const (
	TopicPaymentStatusChanged       = "PAYMENT_STATUS_CHANGED"
	TopicParticipantApprovalChanged = "PARTICIPANT_APPROVAL_CHANGED"
	TopicCourtMatchResult           = "COURT_MATCH_RESULT"
)

var notificationTopics = map[models.NotificationType]string{
	models.NotificationPositionChanged:  TopicPositionChanged,
	models.NotificationTurnSoon:         TopicTurnSoon,
	models.NotificationTurnNow:          TopicTurnNow,
	models.NotificationStaleParticipant: TopicStaleParticipant,
	models.NotificationSessionStatus:    TopicSessionStatus,
}

// TopicFor returns the topic a notification type is published to.
func TopicFor(typ models.NotificationType) (string, bool) {
	topic, ok := notificationTopics[typ]
	return topic, ok
}
