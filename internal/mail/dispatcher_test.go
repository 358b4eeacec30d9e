package mail

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freshcart/freshcart/internal/logging"
)

type captureSender struct {
	mu        sync.Mutex
	sent      []Job
	fail      bool
	delivered chan struct{}
}

func newCaptureSender(fail bool) *captureSender {
	return &captureSender{fail: fail, delivered: make(chan struct{}, 64)}
}

func (s *captureSender) SendActivationEmail(_ context.Context, toEmail, username, token string) error {
	s.mu.Lock()
	s.sent = append(s.sent, Job{To: toEmail, Username: username, Token: token})
	s.mu.Unlock()
	s.delivered <- struct{}{}
	if s.fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

func (s *captureSender) jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Job(nil), s.sent...)
}

func waitDelivered(t *testing.T, s *captureSender, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-s.delivered:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d of %d", i+1, n)
		}
	}
}

func TestDispatcher_DeliversEnqueuedJobs(t *testing.T) {
	sender := newCaptureSender(false)
	d := NewDispatcher(2, sender, logging.NewLogger(true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(Job{To: "a@example.com", Username: "a", Token: "t1"})
	d.Enqueue(Job{To: "b@example.com", Username: "b", Token: "t2"})

	waitDelivered(t, sender, 2)

	jobs := sender.jobs()
	require.Len(t, jobs, 2)
	seen := map[string]bool{}
	for _, j := range jobs {
		seen[j.To] = true
	}
	assert.True(t, seen["a@example.com"])
	assert.True(t, seen["b@example.com"])
}

func TestDispatcher_FailedDeliveryIsDropped(t *testing.T) {
	sender := newCaptureSender(true)
	d := NewDispatcher(1, sender, logging.NewLogger(true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(Job{To: "a@example.com", Username: "a", Token: "t1"})
	waitDelivered(t, sender, 1)

	// No retry: the job is attempted exactly once
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, sender.jobs(), 1)
}

func TestDispatcher_DefaultWorkerCount(t *testing.T) {
	d := NewDispatcher(0, newCaptureSender(false), logging.NewLogger(true))
	assert.Equal(t, defaultWorkers, d.workers)
}
