package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/infra/queue"
)

type countingExpirer struct {
	mu     sync.Mutex
	calls  int
	maxAge time.Duration
}

func (c *countingExpirer) Expire(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.maxAge = maxAge
	return 1
}

func (c *countingExpirer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestSweepOnceRemovesStaleEntries(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	q := queue.NewLocationQueue(queue.DefaultThresholds()).WithClock(func() time.Time { return now })
	q.Insert(domain.Profile{ID: "old"}, 1)
	now = now.Add(2 * time.Hour)
	q.Insert(domain.Profile{ID: "fresh"}, 1)

	s := NewSweeper(q, time.Hour, time.Minute, zerolog.Nop())
	if removed := s.SweepOnce(); removed != 1 {
		t.Fatalf("ожидали удаление одной записи, получили %d", removed)
	}
	if got := q.NextBatch(10); len(got) != 1 || got[0].ID != "fresh" {
		t.Fatalf("ожидали только свежую запись: %v", got)
	}
}

func TestRunTicksUntilCancelled(t *testing.T) {
	exp := &countingExpirer{}
	s := NewSweeper(exp, 30*time.Minute, 5*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for exp.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("очистка не запускалась по таймеру")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	<-done
	if exp.maxAge != 30*time.Minute {
		t.Fatalf("ожидали max_age 30m, получили %v", exp.maxAge)
	}
}
