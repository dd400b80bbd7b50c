package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xaenox/assistant-relay/internal/storage"
	"go.uber.org/zap"
)

const (
	// DefaultMaxRetries bounds the status polls for a single run.
	DefaultMaxRetries = 10
	// DefaultRetryInterval is the pause between status polls.
	DefaultRetryInterval = 3 * time.Second
)

var (
	// ErrRunFailed means the remote service reported a terminal failure.
	ErrRunFailed = errors.New("assistant run failed")
	// ErrRunTimeout means the run was still pending after all polls.
	ErrRunTimeout = errors.New("assistant run timed out")
)

// SleepFunc pauses between polls; injected so tests can skip wall-clock time.
type SleepFunc func(ctx context.Context, d time.Duration)

// Engine answers questions by reusing one assistant thread per chat:
// resolve the thread, post the question, start a run, poll until the run
// completes, then extract and clean the newest assistant message.
type Engine struct {
	client        Client
	threads       *storage.ThreadCache
	assistantID   string
	maxRetries    int
	retryInterval time.Duration
	sleep         SleepFunc
	logger        *zap.Logger

	// createMu keeps two first-time questions in one chat from creating
	// two threads.
	createMu sync.Mutex
}

type Option func(*Engine)

// WithPolling overrides the poll bound and interval.
func WithPolling(maxRetries int, interval time.Duration) Option {
	return func(e *Engine) {
		e.maxRetries = maxRetries
		e.retryInterval = interval
	}
}

// WithSleep replaces the inter-poll sleep, used by tests.
func WithSleep(sleep SleepFunc) Option {
	return func(e *Engine) {
		e.sleep = sleep
	}
}

func NewEngine(client Client, threads *storage.ThreadCache, assistantID string, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		client:        client,
		threads:       threads,
		assistantID:   assistantID,
		maxRetries:    DefaultMaxRetries,
		retryInterval: DefaultRetryInterval,
		sleep:         defaultSleep,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func defaultSleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// GetAnswer submits the question on the chat's thread and polls the run to
// completion. It returns ErrRunFailed for a terminal remote failure,
// ErrRunTimeout when the poll budget is exhausted, and a wrapped error for
// anything unexpected; the caller maps these to user-facing replies.
func (e *Engine) GetAnswer(ctx context.Context, chatID int64, question string) (string, error) {
	threadID, err := e.getOrCreateThread(ctx, chatID)
	if err != nil {
		return "", fmt.Errorf("resolving thread: %w", err)
	}

	if err := e.client.AddUserMessage(ctx, threadID, question); err != nil {
		return "", fmt.Errorf("submitting question: %w", err)
	}

	runID, err := e.client.StartRun(ctx, threadID, e.assistantID)
	if err != nil {
		return "", fmt.Errorf("starting run: %w", err)
	}

	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		if attempt > 1 {
			e.sleep(ctx, e.retryInterval)
		}

		status, err := e.client.RunStatus(ctx, threadID, runID)
		if err != nil {
			return "", fmt.Errorf("polling run: %w", err)
		}

		e.logger.Info("Run status",
			zap.String("status", status),
			zap.String("run_id", runID),
			zap.Int64("chat_id", chatID),
			zap.Int("attempt", attempt))

		switch status {
		case StatusCompleted:
			raw, err := e.client.LatestAssistantMessage(ctx, threadID)
			if err != nil {
				return "", fmt.Errorf("extracting answer: %w", err)
			}
			return StripMarkers(raw), nil
		case StatusFailed, StatusCancelled, StatusExpired:
			e.logger.Error("Run ended in terminal failure",
				zap.String("status", status),
				zap.String("run_id", runID),
				zap.Int64("chat_id", chatID))
			return "", ErrRunFailed
		}
	}

	e.logger.Error("Run still pending after all polls",
		zap.String("run_id", runID),
		zap.Int64("chat_id", chatID),
		zap.Int("polls", e.maxRetries))
	return "", ErrRunTimeout
}

func (e *Engine) getOrCreateThread(ctx context.Context, chatID int64) (string, error) {
	if threadID, ok := e.threads.Get(chatID); ok {
		return threadID, nil
	}

	e.createMu.Lock()
	defer e.createMu.Unlock()

	// Re-check: another message may have created the thread while we waited.
	if threadID, ok := e.threads.Get(chatID); ok {
		return threadID, nil
	}

	threadID, err := e.client.CreateThread(ctx)
	if err != nil {
		return "", err
	}
	e.threads.Put(chatID, threadID)

	e.logger.Info("Created assistant thread",
		zap.Int64("chat_id", chatID),
		zap.String("thread_id", threadID))
	return threadID, nil
}
