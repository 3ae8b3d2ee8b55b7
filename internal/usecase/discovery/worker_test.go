package discovery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/infra/queue"
)

type scriptedJobs struct {
	mu       sync.Mutex
	jobs     []domain.DiscoveryJob
	errs     []error
	enqueued []domain.DiscoveryJob
	cancel   context.CancelFunc
}

func (s *scriptedJobs) Enqueue(_ context.Context, job domain.DiscoveryJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enqueued = append(s.enqueued, job)
	return nil
}

func (s *scriptedJobs) Pop(ctx context.Context) (domain.DiscoveryJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return domain.DiscoveryJob{}, err
	}
	if len(s.jobs) > 0 {
		job := s.jobs[0]
		s.jobs = s.jobs[1:]
		return job, nil
	}
	s.cancel()
	return domain.DiscoveryJob{}, ctx.Err()
}

type recordingDiscoverer struct {
	calls []string
	prefs []domain.DiscoveryPreferences
}

func (r *recordingDiscoverer) DiscoverForProfile(_ context.Context, profileID string, prefs domain.DiscoveryPreferences) domain.DiscoveryResult {
	r.calls = append(r.calls, profileID)
	r.prefs = append(r.prefs, prefs)
	if profileID == "broken" {
		return domain.Failed("req", domain.ErrUpstream)
	}
	return domain.DiscoveryResult{RequestID: "req"}
}

func TestWorkerProcessesJobsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	jobs := &scriptedJobs{
		jobs: []domain.DiscoveryJob{
			{ID: "1", ProfileID: "p1", MaxDistanceKm: 10, ExcludedProfileIDs: []string{"x"}},
			{ID: "2"},
			{ID: "3", ProfileID: "broken"},
		},
		errs:   []error{errors.New("redis: connection refused")},
		cancel: cancel,
	}
	disc := &recordingDiscoverer{}
	w := NewWorker(jobs, disc, zerolog.Nop())
	w.backoff = time.Millisecond

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("обработчик не остановился")
	}

	if len(disc.calls) != 2 || disc.calls[0] != "p1" || disc.calls[1] != "broken" {
		t.Fatalf("неожиданные вызовы: %v", disc.calls)
	}
	if disc.prefs[0].MaxDistanceKm != 10 || !disc.prefs[0].IsProfileExcluded("x") {
		t.Fatalf("настройки задачи не переданы: %+v", disc.prefs[0])
	}
	if disc.prefs[1].MaxDistanceKm != domain.DefaultMaxDistanceKm {
		t.Fatalf("ожидали радиус по умолчанию, получили %v", disc.prefs[1].MaxDistanceKm)
	}
}

type memoryOnce struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func (m *memoryOnce) Once(_ context.Context, key string, _ time.Duration, fn func() error) error {
	m.mu.Lock()
	if m.keys == nil {
		m.keys = map[string]struct{}{}
	}
	if _, ok := m.keys[key]; ok {
		m.mu.Unlock()
		return nil
	}
	m.keys[key] = struct{}{}
	m.mu.Unlock()
	if err := fn(); err != nil {
		m.mu.Lock()
		delete(m.keys, key)
		m.mu.Unlock()
		return err
	}
	return nil
}

func TestDispatcherDeduplicatesPerProfile(t *testing.T) {
	jobs := &scriptedJobs{}
	d := NewDispatcher(jobs, &memoryOnce{}, time.Minute)

	first, queued, err := d.Dispatch(context.Background(), domain.DiscoveryJob{ProfileID: "p1"})
	if err != nil || !queued {
		t.Fatalf("ожидали постановку задачи: %v %v", queued, err)
	}
	if first.ID == "" || first.RequestedAt.IsZero() {
		t.Fatalf("ожидали заполненные ID и время: %+v", first)
	}
	if _, queued, _ := d.Dispatch(context.Background(), domain.DiscoveryJob{ProfileID: "p1"}); queued {
		t.Fatalf("повтор в окне должен схлопываться")
	}
	if _, queued, _ := d.Dispatch(context.Background(), domain.DiscoveryJob{ProfileID: "p2"}); !queued {
		t.Fatalf("другой профиль должен ставиться")
	}
	if len(jobs.enqueued) != 2 {
		t.Fatalf("ожидали 2 задачи в очереди, получили %d", len(jobs.enqueued))
	}
	if _, _, err := d.Dispatch(context.Background(), domain.DiscoveryJob{}); !errors.Is(err, ErrEmptyProfile) {
		t.Fatalf("ожидали ErrEmptyProfile, получили %v", err)
	}
}

func TestDispatcherWithoutCache(t *testing.T) {
	jobs := &scriptedJobs{}
	d := NewDispatcher(jobs, nil, 0)
	for i := 0; i < 2; i++ {
		if _, queued, err := d.Dispatch(context.Background(), domain.DiscoveryJob{ProfileID: "p1"}); err != nil || !queued {
			t.Fatalf("без кэша каждая задача ставится: %v %v", queued, err)
		}
	}
	if len(jobs.enqueued) != 2 {
		t.Fatalf("ожидали 2 задачи, получили %d", len(jobs.enqueued))
	}
}

type scriptedEvents struct {
	events []domain.ProfileEvent
	acks   []bool
	cancel context.CancelFunc
}

func (s *scriptedEvents) Receive(ctx context.Context) (domain.ProfileEvent, domain.EventAckFunc, error) {
	if len(s.events) == 0 {
		s.cancel()
		return domain.ProfileEvent{}, nil, ctx.Err()
	}
	event := s.events[0]
	s.events = s.events[1:]
	return event, func(ok bool) error {
		s.acks = append(s.acks, ok)
		return nil
	}, nil
}

func TestEventConsumerRemovesProfiles(t *testing.T) {
	q := queue.NewLocationQueue(queue.DefaultThresholds())
	q.Insert(domain.Profile{ID: "gone"}, 1)
	q.Insert(domain.Profile{ID: "changed"}, 7)
	q.Insert(domain.Profile{ID: "stays"}, 15)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &scriptedEvents{
		events: []domain.ProfileEvent{
			{Type: domain.ProfileEventDeleted, ProfileID: "gone"},
			{Type: domain.ProfileEventUpdated, ProfileID: "changed"},
			{Type: "renamed", ProfileID: "stays"},
			{Type: domain.ProfileEventDeleted},
		},
		cancel: cancel,
	}
	NewEventConsumer(src, q, zerolog.Nop()).Run(ctx)

	if q.Len() != 1 {
		t.Fatalf("ожидали 1 профиль в очереди, получили %d", q.Len())
	}
	if got := q.NextBatch(10); len(got) != 1 || got[0].ID != "stays" {
		t.Fatalf("неожиданное содержимое очереди: %v", got)
	}
	if len(src.acks) != 4 {
		t.Fatalf("каждое событие должно подтверждаться, подтверждено %d", len(src.acks))
	}
}
