package repository

import (
	"context"

	"github.com/vogiaan1904/courtside-queue/internal/queue"
)

// StateRepository persists committed session views. Each Save replaces the stored
// view of one session atomically.
type StateRepository interface {
	Save(ctx context.Context, v queue.View) error
	Load(ctx context.Context, sessionID string) (queue.View, error)
	LoadLive(ctx context.Context) ([]queue.View, error)
}
