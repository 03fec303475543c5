package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/vogiaan1904/courtside-queue/internal/models"
)

// participantFields encodes participants as HSET field/value pairs keyed by participant id.
func participantFields(ps []models.Participant) ([]any, error) {
	fields := make([]any, 0, 2*len(ps))
	for _, p := range ps {
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal participant %s: %w", p.ID, err)
		}
		fields = append(fields, p.ID, data)
	}
	return fields, nil
}

func matchFields(ms []models.Match) ([]any, error) {
	fields := make([]any, 0, 2*len(ms))
	for _, m := range ms {
		data, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("marshal match %s: %w", m.ID, err)
		}
		fields = append(fields, m.ID, data)
	}
	return fields, nil
}

// waitingMembers mirrors the waiting list as a sorted set scored by position.
func waitingMembers(ps []models.Participant) []redis.Z {
	var members []redis.Z
	for _, p := range ps {
		if p.IsWaiting() {
			members = append(members, redis.Z{
				Score:  float64(p.Position),
				Member: p.ID,
			})
		}
	}
	return members
}

// loadParticipants returns participants in join order.
func (r *redisStateRepository) loadParticipants(ctx context.Context, sessionID string) ([]models.Participant, error) {
	raw, err := r.cli.HGetAll(ctx, r.participantsKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}

	ps := make([]models.Participant, 0, len(raw))
	for id, data := range raw {
		var p models.Participant
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("unmarshal participant %s: %w", id, err)
		}
		ps = append(ps, p)
	}

	sort.Slice(ps, func(i, j int) bool {
		return ps[i].JoinSeq < ps[j].JoinSeq
	})
	return ps, nil
}

func (r *redisStateRepository) loadMatches(ctx context.Context, sessionID string) ([]models.Match, error) {
	raw, err := r.cli.HGetAll(ctx, r.matchesKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}

	ms := make([]models.Match, 0, len(raw))
	for id, data := range raw {
		var m models.Match
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			return nil, fmt.Errorf("unmarshal match %s: %w", id, err)
		}
		ms = append(ms, m)
	}

	sort.Slice(ms, func(i, j int) bool {
		return ms[i].Number < ms[j].Number
	})
	return ms, nil
}

func (r *redisStateRepository) participantsKey(sessionID string) string {
	return fmt.Sprintf("%s:session:%s:participants", keyPrefix, sessionID)
}

func (r *redisStateRepository) waitingKey(sessionID string) string {
	return fmt.Sprintf("%s:session:%s:waiting", keyPrefix, sessionID)
}

func (r *redisStateRepository) matchesKey(sessionID string) string {
	return fmt.Sprintf("%s:session:%s:matches", keyPrefix, sessionID)
}
