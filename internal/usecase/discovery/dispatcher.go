package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
)

// ErrEmptyProfile возвращается при постановке задачи без профиля.
var ErrEmptyProfile = errors.New("profile id is required")

// DefaultDedupWindow задаёт окно, в течение которого повторные задачи для профиля отбрасываются.
const DefaultDedupWindow = 10 * time.Second

// Dispatcher ставит задачи подбора в очередь, схлопывая повторы для одного профиля.
type Dispatcher struct {
	jobs   domain.DiscoveryQueue
	once   domain.Cache
	window time.Duration
	now    func() time.Time
}

// NewDispatcher создаёт диспетчер. once может быть nil, тогда повторы не схлопываются.
func NewDispatcher(jobs domain.DiscoveryQueue, once domain.Cache, window time.Duration) *Dispatcher {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	return &Dispatcher{jobs: jobs, once: once, window: window, now: time.Now}
}

// Dispatch ставит задачу. queued=false означает, что такая задача уже стоит в окне дедупликации.
func (d *Dispatcher) Dispatch(ctx context.Context, job domain.DiscoveryJob) (domain.DiscoveryJob, bool, error) {
	if job.ProfileID == "" {
		return job, false, ErrEmptyProfile
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.RequestedAt.IsZero() {
		job.RequestedAt = d.now().UTC()
	}
	enqueue := func() error {
		if err := d.jobs.Enqueue(ctx, job); err != nil {
			return fmt.Errorf("enqueue discovery job: %w", err)
		}
		return nil
	}
	if d.once == nil {
		return job, true, enqueue()
	}
	queued := false
	err := d.once.Once(ctx, "discovery:job:"+job.ProfileID, d.window, func() error {
		queued = true
		return enqueue()
	})
	if err != nil {
		return job, false, err
	}
	return job, queued, nil
}
