package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vogiaan1904/courtside-queue/internal/queue"
	"github.com/vogiaan1904/courtside-queue/pkg/logger"
)

const (
	keyPrefix              = "courtqueue"
	DefaultClosedRetention = 24 * time.Hour
)

type redisStateRepository struct {
	cli       *redis.Client
	l         logger.Logger
	retention time.Duration
}

// NewRedisStateRepository keeps closed sessions for the retention period before Redis
// expires them.
func NewRedisStateRepository(cli *redis.Client, l logger.Logger, retention time.Duration) StateRepository {
	if retention <= 0 {
		retention = DefaultClosedRetention
	}
	return &redisStateRepository{
		cli:       cli,
		l:         l,
		retention: retention,
	}
}

func (r *redisStateRepository) Save(ctx context.Context, v queue.View) error {
	id := v.Session.ID
	sess, err := json.Marshal(v.Session)
	if err != nil {
		r.l.Errorf(ctx, "redisStateRepository.Save: %v", err)
		return err
	}
	participants, err := participantFields(v.Participants)
	if err != nil {
		r.l.Errorf(ctx, "redisStateRepository.Save: %v", err)
		return err
	}
	matches, err := matchFields(v.Matches)
	if err != nil {
		r.l.Errorf(ctx, "redisStateRepository.Save: %v", err)
		return err
	}

	_, err = r.cli.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.sessionKey(id), sess, 0)
		if len(participants) > 0 {
			pipe.HSet(ctx, r.participantsKey(id), participants...)
		}
		pipe.Del(ctx, r.waitingKey(id))
		if waiting := waitingMembers(v.Participants); len(waiting) > 0 {
			pipe.ZAdd(ctx, r.waitingKey(id), waiting...)
		}
		if len(matches) > 0 {
			pipe.HSet(ctx, r.matchesKey(id), matches...)
		}

		if v.Session.IsClosed() {
			pipe.SRem(ctx, r.liveKey(), id)
			for _, key := range r.sessionKeys(id) {
				pipe.Expire(ctx, key, r.retention)
			}
			return nil
		}
		pipe.SAdd(ctx, r.liveKey(), id)
		return nil
	})
	if err != nil {
		r.l.Errorf(ctx, "redisStateRepository.Save: %v", err)
		return err
	}

	r.l.Debugf(ctx, "redisStateRepository.Save: session %s saved (%s, %d participants)",
		id, v.Session.Status, len(v.Participants))
	return nil
}

func (r *redisStateRepository) Load(ctx context.Context, sessionID string) (queue.View, error) {
	data, err := r.cli.Get(ctx, r.sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return queue.View{}, queue.ErrSessionNotFound
		}
		r.l.Errorf(ctx, "redisStateRepository.Load: %v", err)
		return queue.View{}, err
	}

	var v queue.View
	if err := json.Unmarshal(data, &v.Session); err != nil {
		r.l.Errorf(ctx, "redisStateRepository.Load: %v", err)
		return queue.View{}, err
	}

	if v.Participants, err = r.loadParticipants(ctx, sessionID); err != nil {
		r.l.Errorf(ctx, "redisStateRepository.Load: %v", err)
		return queue.View{}, err
	}
	if v.Matches, err = r.loadMatches(ctx, sessionID); err != nil {
		r.l.Errorf(ctx, "redisStateRepository.Load: %v", err)
		return queue.View{}, err
	}
	for i := range v.Matches {
		if v.Matches[i].InProgress() {
			cur := v.Matches[i]
			v.CurrentMatch = &cur
		}
	}

	return v, nil
}

// LoadLive returns every session that was not closed when last saved.
func (r *redisStateRepository) LoadLive(ctx context.Context) ([]queue.View, error) {
	ids, err := r.cli.SMembers(ctx, r.liveKey()).Result()
	if err != nil {
		r.l.Errorf(ctx, "redisStateRepository.LoadLive: %v", err)
		return nil, err
	}
	sort.Strings(ids)

	views := make([]queue.View, 0, len(ids))
	for _, id := range ids {
		v, err := r.Load(ctx, id)
		if errors.Is(err, queue.ErrSessionNotFound) {
			r.l.Warnf(ctx, "redisStateRepository.LoadLive: dropping dangling live session %s", id)
			r.cli.SRem(ctx, r.liveKey(), id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load session %s: %w", id, err)
		}
		views = append(views, v)
	}

	return views, nil
}

func (r *redisStateRepository) sessionKeys(id string) []string {
	return []string{r.sessionKey(id), r.participantsKey(id), r.waitingKey(id), r.matchesKey(id)}
}

func (r *redisStateRepository) sessionKey(id string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

func (r *redisStateRepository) liveKey() string {
	return fmt.Sprintf("%s:sessions:live", keyPrefix)
}
