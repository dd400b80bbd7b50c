package assistant

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/xaenox/assistant-relay/internal/storage"
	"go.uber.org/zap"
)

type stubClient struct {
	mu          sync.Mutex
	createCalls int
	threadSeq   int
	createErr   error

	messages []string

	runStarts int

	statuses []string
	polls    int

	latest    string
	latestErr error
}

func (s *stubClient) CreateThread(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", s.createErr
	}
	s.createCalls++
	s.threadSeq++
	return fmt.Sprintf("thread-%d", s.threadSeq), nil
}

func (s *stubClient) AddUserMessage(ctx context.Context, threadID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, text)
	return nil
}

func (s *stubClient) StartRun(ctx context.Context, threadID, assistantID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runStarts++
	return fmt.Sprintf("run-%d", s.runStarts), nil
}

func (s *stubClient) RunStatus(ctx context.Context, threadID, runID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.polls
	s.polls++
	if idx >= len(s.statuses) {
		return s.statuses[len(s.statuses)-1], nil
	}
	return s.statuses[idx], nil
}

func (s *stubClient) LatestAssistantMessage(ctx context.Context, threadID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latestErr != nil {
		return "", s.latestErr
	}
	return s.latest, nil
}

func newTestEngine(client Client, sleeps *int) *Engine {
	return NewEngine(client, storage.NewThreadCache(), "asst_test", zap.NewNop(),
		WithSleep(func(ctx context.Context, d time.Duration) {
			if sleeps != nil {
				*sleeps++
			}
		}))
}

func TestGetAnswerCompletedOnThirdPoll(t *testing.T) {
	client := &stubClient{
		statuses: []string{"queued", "in_progress", StatusCompleted},
		latest:   "  answer 【4:0†source】 more  ",
	}
	var sleeps int
	engine := newTestEngine(client, &sleeps)

	answer, err := engine.GetAnswer(context.Background(), 42, "what?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "answer  more" {
		t.Fatalf("unexpected answer: %q", answer)
	}
	if client.polls != 3 {
		t.Fatalf("expected 3 polls, got %d", client.polls)
	}
	if sleeps != 2 {
		t.Fatalf("expected 2 sleeps, got %d", sleeps)
	}
	if len(client.messages) != 1 || client.messages[0] != "what?" {
		t.Fatalf("unexpected submitted messages: %v", client.messages)
	}
}

func TestGetAnswerRunFailedAbortsImmediately(t *testing.T) {
	client := &stubClient{statuses: []string{StatusFailed}}
	engine := newTestEngine(client, nil)

	_, err := engine.GetAnswer(context.Background(), 42, "what?")
	if !errors.Is(err, ErrRunFailed) {
		t.Fatalf("expected ErrRunFailed, got %v", err)
	}
	if client.polls != 1 {
		t.Fatalf("expected 1 poll, got %d", client.polls)
	}
}

func TestGetAnswerCancelledRunFails(t *testing.T) {
	client := &stubClient{statuses: []string{"in_progress", StatusCancelled}}
	engine := newTestEngine(client, nil)

	_, err := engine.GetAnswer(context.Background(), 42, "what?")
	if !errors.Is(err, ErrRunFailed) {
		t.Fatalf("expected ErrRunFailed, got %v", err)
	}
	if client.polls != 2 {
		t.Fatalf("expected 2 polls, got %d", client.polls)
	}
}

func TestGetAnswerTimesOutAfterAllPolls(t *testing.T) {
	client := &stubClient{statuses: []string{"in_progress"}}
	var sleeps int
	engine := newTestEngine(client, &sleeps)

	_, err := engine.GetAnswer(context.Background(), 42, "what?")
	if !errors.Is(err, ErrRunTimeout) {
		t.Fatalf("expected ErrRunTimeout, got %v", err)
	}
	if client.polls != DefaultMaxRetries {
		t.Fatalf("expected %d polls, got %d", DefaultMaxRetries, client.polls)
	}
	if sleeps != DefaultMaxRetries-1 {
		t.Fatalf("expected %d sleeps, got %d", DefaultMaxRetries-1, sleeps)
	}
}

func TestThreadCreatedOncePerChat(t *testing.T) {
	client := &stubClient{
		statuses: []string{StatusCompleted},
		latest:   "hi",
	}
	engine := newTestEngine(client, nil)

	for i := 0; i < 2; i++ {
		if _, err := engine.GetAnswer(context.Background(), 42, "q"); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i+1, err)
		}
	}
	if client.createCalls != 1 {
		t.Fatalf("expected 1 thread creation, got %d", client.createCalls)
	}

	// A different chat gets its own thread.
	if _, err := engine.GetAnswer(context.Background(), 99, "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.createCalls != 2 {
		t.Fatalf("expected 2 thread creations, got %d", client.createCalls)
	}
}

func TestCreateThreadErrorIsWrapped(t *testing.T) {
	cause := errors.New("boom")
	client := &stubClient{createErr: cause}
	engine := newTestEngine(client, nil)

	_, err := engine.GetAnswer(context.Background(), 42, "q")
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if client.polls != 0 || client.runStarts != 0 {
		t.Fatalf("expected no remote calls past thread creation, polls=%d runs=%d", client.polls, client.runStarts)
	}
}
