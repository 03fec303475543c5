package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vogiaan1904/courtside-queue/config"
	"github.com/vogiaan1904/courtside-queue/internal/queue"
	repo "github.com/vogiaan1904/courtside-queue/internal/repository/redis"
	"github.com/vogiaan1904/courtside-queue/pkg/logger"
)

type queueProcessor struct {
	// Dependencies
	mgr    *queue.Manager
	repo   repo.StateRepository
	logger logger.Logger

	// Configuration
	config ProcessorConfig

	// State management
	mu        sync.RWMutex
	isRunning bool
	startedAt time.Time
	stopCh    chan struct{}
	ticker    *time.Ticker
	wg        sync.WaitGroup

	// Metrics
	lastProcessed  time.Time
	sessionsActive int
	totalRotations atomic.Int64
	totalClosed    atomic.Int64
	errorCount     atomic.Int64
}

type ProcessorConfig struct {
	ProcessInterval       time.Duration // How often to sweep sessions
	Concurrency           int           // Sessions processed in parallel per sweep
	RetryAttempts         int           // Retry attempts for repository reads
	RetryDelay            time.Duration // Base delay between retries
	ShutdownTimeout       time.Duration // Max time to wait for graceful shutdown
	MaxProcessingDuration time.Duration // Max time for one sweep before warning
}

func NewQueueProcessor(
	mgr *queue.Manager,
	repo repo.StateRepository,
	logger logger.Logger,
	cfg config.QueueConfig,
) QueueProcessor {
	concurrency := cfg.ProcessConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &queueProcessor{
		mgr:    mgr,
		repo:   repo,
		logger: logger,
		config: ProcessorConfig{
			ProcessInterval:       cfg.ProcessInterval,
			Concurrency:           concurrency,
			RetryAttempts:         3,
			RetryDelay:            time.Second,
			ShutdownTimeout:       30 * time.Second,
			MaxProcessingDuration: 30 * time.Second,
		},
	}
}

func (qp *queueProcessor) Start(ctx context.Context) error {
	qp.mu.Lock()
	defer qp.mu.Unlock()

	if qp.isRunning {
		return errors.New("queue processor is already running")
	}

	qp.logger.Infof(ctx, "Starting queue processor - interval: %v, concurrency: %d",
		qp.config.ProcessInterval, qp.config.Concurrency)

	qp.isRunning = true
	qp.startedAt = time.Now()
	qp.stopCh = make(chan struct{})
	qp.ticker = time.NewTicker(qp.config.ProcessInterval)

	qp.wg.Add(1)
	go qp.processLoop(ctx, qp.ticker, qp.stopCh)

	return nil
}

// Stop signals the loop and waits for an in-flight sweep. The lock is released before
// waiting since a finishing sweep records its status under it.
func (qp *queueProcessor) Stop() error {
	qp.mu.Lock()
	if !qp.isRunning {
		qp.mu.Unlock()
		return errors.New("queue processor is not running")
	}
	qp.isRunning = false
	close(qp.stopCh)
	qp.ticker.Stop()
	qp.mu.Unlock()

	qp.logger.Info(context.Background(), "Stopping queue processor...")

	done := make(chan struct{})
	go func() {
		qp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		qp.logger.Info(context.Background(), "Queue processor stopped gracefully")
	case <-time.After(qp.config.ShutdownTimeout):
		qp.logger.Warn(context.Background(), "Queue processor shutdown timeout exceeded")
	}

	return nil
}

// Restore loads every live session from the repository into the manager. Sessions that
// fail validation are skipped; only a repository failure is returned.
func (qp *queueProcessor) Restore(ctx context.Context) error {
	var views []queue.View
	err := qp.withRetry(ctx, func() error {
		var err error
		views, err = qp.repo.LoadLive(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to load live sessions: %w", err)
	}

	if err := qp.mgr.Restore(ctx, views); err != nil {
		qp.incrementErrorCount()
		qp.logger.Warnf(ctx, "queueProcessor.Restore: %v", err)
	}
	return nil
}

func (qp *queueProcessor) processLoop(ctx context.Context, ticker *time.Ticker, stopCh <-chan struct{}) {
	defer qp.wg.Done()

	for {
		select {
		case <-ctx.Done():
			qp.logger.Info(ctx, "Queue processor stopped due to context cancellation")
			return
		case <-stopCh:
			qp.logger.Info(ctx, "Queue processor stopped due to stop signal")
			return
		case <-ticker.C:
			qp.processAllSessions(ctx)
		}
	}
}

func (qp *queueProcessor) processAllSessions(ctx context.Context) {
	startTime := time.Now()
	ids := qp.mgr.SessionIDs()

	defer func() {
		qp.mu.Lock()
		qp.lastProcessed = time.Now()
		qp.sessionsActive = len(ids)
		qp.mu.Unlock()

		if duration := time.Since(startTime); duration > qp.config.MaxProcessingDuration {
			qp.logger.Warnf(ctx, "Queue processing took longer than expected - duration: %v, max: %v",
				duration, qp.config.MaxProcessingDuration)
		}
	}()

	if len(ids) == 0 {
		qp.logger.Debug(ctx, "No live sessions to process")
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(qp.config.Concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if err := qp.ProcessSession(gctx, id); err != nil {
				qp.incrementErrorCount()
				qp.logger.Errorf(gctx, "queueProcessor.processAllSessions: session %s: %v", id, err)
			}
			// one failing session never stops the sweep
			return nil
		})
	}
	_ = g.Wait()
}

// ProcessSession applies the time-driven lifecycle transitions and then fills the
// court if it is free.
func (qp *queueProcessor) ProcessSession(ctx context.Context, sessionID string) error {
	reason, err := qp.mgr.Tick(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to tick session: %w", err)
	}
	if reason != "" {
		qp.totalClosed.Add(1)
		return nil
	}

	res, err := qp.mgr.Rotate(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to rotate session: %w", err)
	}
	if res.Promoted() {
		qp.totalRotations.Add(1)
	}
	return nil
}

func (qp *queueProcessor) withRetry(ctx context.Context, operation func() error) error {
	var lastErr error

	for attempt := 0; attempt < qp.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(qp.config.RetryDelay * time.Duration(attempt)):
			}
		}

		if err := operation(); err != nil {
			lastErr = err
			qp.logger.Warnf(ctx, "Operation failed, retrying - attempt: %d/%d, error: %v",
				attempt+1, qp.config.RetryAttempts, err)
			continue
		}

		return nil
	}

	return fmt.Errorf("operation failed after %d attempts: %w", qp.config.RetryAttempts, lastErr)
}

func (qp *queueProcessor) incrementErrorCount() {
	qp.errorCount.Add(1)
}

func (qp *queueProcessor) GetStatus() ProcessorStatus {
	qp.mu.RLock()
	defer qp.mu.RUnlock()

	return ProcessorStatus{
		IsRunning:      qp.isRunning,
		StartedAt:      qp.startedAt,
		LastProcessed:  qp.lastProcessed,
		SessionsActive: qp.sessionsActive,
		TotalRotations: qp.totalRotations.Load(),
		TotalClosed:    qp.totalClosed.Load(),
		ErrorCount:     qp.errorCount.Load(),
	}
}
