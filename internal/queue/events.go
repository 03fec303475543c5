package queue

import (
	"time"

	"github.com/vogiaan1904/courtside-queue/internal/models"
)

type eventRules struct {
	turnSoonPositions  int
	staleSkipThreshold int
}

// diffEvents derives notifications from a committed mutation by comparing the views
// taken before and after it.
func diffEvents(before, after View, rules eventRules, now time.Time) []models.Notification {
	var events []models.Notification
	sessionID := after.Session.ID

	if before.Session.Status != after.Session.Status {
		events = append(events, models.Notification{
			Type:          models.NotificationSessionStatus,
			SessionID:     sessionID,
			SessionStatus: after.Session.Status,
			Timestamp:     now,
		})
	}

	prev := make(map[string]models.Participant, len(before.Participants))
	for _, p := range before.Participants {
		prev[p.ID] = p
	}

	for _, p := range after.Participants {
		old, existed := prev[p.ID]
		base := models.Notification{
			SessionID:     sessionID,
			ParticipantID: p.ID,
			UserID:        p.UserID,
			Timestamp:     now,
		}

		switch p.Status {
		case models.ParticipantStatusWaiting:
			if !existed || old.Position != p.Position {
				ev := base
				ev.Type = models.NotificationPositionChanged
				ev.Position = p.Position
				events = append(events, ev)

				if p.Position <= rules.turnSoonPositions {
					ev.Type = models.NotificationTurnSoon
					events = append(events, ev)
				}
			}
			if existed && isStale(old.SkipCount, p.SkipCount, rules.staleSkipThreshold) {
				ev := base
				ev.Type = models.NotificationStaleParticipant
				ev.Position = p.Position
				ev.SkipCount = p.SkipCount
				events = append(events, ev)
			}

		case models.ParticipantStatusPlaying:
			if existed && old.IsWaiting() {
				ev := base
				ev.Type = models.NotificationTurnNow
				ev.MatchID = p.MatchID
				events = append(events, ev)
			}
		}
	}

	return events
}

// isStale fires when the skip count reaches the threshold and again at every multiple of it.
func isStale(before, after, threshold int) bool {
	if threshold <= 0 || after <= before {
		return false
	}
	return after >= threshold && after%threshold == 0
}
