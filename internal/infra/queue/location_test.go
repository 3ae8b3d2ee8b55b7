package queue

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestQueue() (*LocationQueue, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	return NewLocationQueue(DefaultThresholds()).WithClock(clock.Now), clock
}

func ids(profiles []domain.Profile) []string {
	out := make([]string, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.ID)
	}
	return out
}

func fill(q *LocationQueue, prefix string, n int, distance float64) {
	for i := 0; i < n; i++ {
		q.Insert(domain.Profile{ID: fmt.Sprintf("%s-%d", prefix, i)}, distance)
	}
}

func TestNextBatchZeroDoesNotMutate(t *testing.T) {
	q, _ := newTestQueue()
	q.Insert(domain.Profile{ID: "a"}, 1)

	batch := q.NextBatch(0)
	assert.Empty(t, batch)
	assert.NotNil(t, batch)
	assert.Equal(t, 1, q.Stats().Total)
}

func TestInsertThenRemove(t *testing.T) {
	q, _ := newTestQueue()
	q.Insert(domain.Profile{ID: "p"}, 3.0)
	require.Equal(t, 1, q.Stats().VeryClose)

	q.Remove("p")
	assert.Equal(t, 0, q.Stats().Total)
	q.Remove("p")
	assert.Equal(t, 0, q.Len())
}

func TestNextBatchBucketPriority(t *testing.T) {
	q, _ := newTestQueue()
	q.Insert(domain.Profile{ID: "far30"}, 30)
	q.Insert(domain.Profile{ID: "close8"}, 8)
	q.Insert(domain.Profile{ID: "near2"}, 2)

	batch := q.NextBatch(3)
	assert.Equal(t, []string{"near2", "close8", "far30"}, ids(batch))
	assert.Equal(t, 0, q.Len())
}

func TestInsertBuckets(t *testing.T) {
	q, _ := newTestQueue()
	q.Insert(domain.Profile{ID: "a"}, 5)
	q.Insert(domain.Profile{ID: "b"}, 10)
	q.Insert(domain.Profile{ID: "c"}, 20)
	q.Insert(domain.Profile{ID: "d"}, 50)
	q.Insert(domain.Profile{ID: "e"}, 50.1)

	assert.Equal(t, domain.QueueStats{VeryClose: 1, Close: 1, Medium: 1, Far: 1, Total: 4}, q.Stats())
}

func TestNextBatchDoesNotBackfill(t *testing.T) {
	q, _ := newTestQueue()
	fill(q, "close", 10, 8)
	fill(q, "medium", 10, 15)
	fill(q, "far", 10, 40)

	batch := q.NextBatch(10)
	assert.Len(t, batch, 6, "пустая очень близкая корзина не должна добираться из других")
	assert.Equal(t, domain.QueueStats{Close: 7, Medium: 8, Far: 9, Total: 24}, q.Stats())
}

func TestNextBatchProportions(t *testing.T) {
	q, _ := newTestQueue()
	fill(q, "vc", 10, 1)
	fill(q, "close", 10, 8)
	fill(q, "medium", 10, 15)
	fill(q, "far", 10, 40)

	batch := q.NextBatch(10)
	require.Len(t, batch, 10)
	assert.Equal(t, domain.QueueStats{VeryClose: 6, Close: 7, Medium: 8, Far: 9, Total: 30}, q.Stats())
	assert.Equal(t, "vc-0", batch[0].ID)
	assert.Equal(t, "far-0", batch[9].ID)
}

func TestBatchQuotas(t *testing.T) {
	assert.Equal(t, [bucketCount]int{4, 3, 2, 1}, batchQuotas(10))
	assert.Equal(t, [bucketCount]int{2, 1, 1, 2}, batchQuotas(3))
	assert.Equal(t, [bucketCount]int{8, 6, 4, 2}, batchQuotas(20))
}

func TestInsertBatchDistances(t *testing.T) {
	q, _ := newTestQueue()
	requester := domain.Location{Lat: 52.0, Lon: 4.0}
	near := domain.Profile{ID: "near"}.WithLocation(domain.Location{Lat: 52.01, Lon: 4.0})
	medium := domain.Profile{ID: "medium"}.WithLocation(domain.Location{Lat: 52.15, Lon: 4.0})
	tooFar := domain.Profile{ID: "too-far"}.WithLocation(domain.Location{Lat: 53.0, Lon: 4.0})
	unknown := domain.Profile{ID: "unknown"}

	q.InsertBatch([]domain.Profile{near, medium, tooFar, unknown}, &requester)
	assert.Equal(t, domain.QueueStats{VeryClose: 1, Medium: 1, Far: 1, Total: 3}, q.Stats())

	q.Clear()
	q.InsertBatch([]domain.Profile{near, medium}, nil)
	assert.Equal(t, domain.QueueStats{Far: 2, Total: 2}, q.Stats(), "без координат запрашивающего всё уходит в дальнюю корзину")
}

func TestReplaceBatchKeepsOneEntryPerProfile(t *testing.T) {
	q, _ := newTestQueue()
	requester := domain.Location{Lat: 52.0, Lon: 4.0}
	near := domain.Profile{ID: "near"}.WithLocation(domain.Location{Lat: 52.01, Lon: 4.0})
	other := domain.Profile{ID: "other"}

	q.Insert(near, 40)
	q.ReplaceBatch([]domain.Profile{near, other}, &requester)
	q.ReplaceBatch([]domain.Profile{near, other}, &requester)

	assert.Equal(t, domain.QueueStats{VeryClose: 1, Far: 1, Total: 2}, q.Stats(), "старая запись near из дальней корзины должна уйти")
	got := q.NextBatch(10)
	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].ID)
	assert.Equal(t, "other", got[1].ID)
}

func TestExpire(t *testing.T) {
	q, clock := newTestQueue()
	q.Insert(domain.Profile{ID: "old"}, 1)
	clock.Advance(30 * time.Minute)
	q.Insert(domain.Profile{ID: "new"}, 1)
	clock.Advance(31 * time.Minute)

	removed := q.Expire(time.Hour)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"new"}, ids(q.NextBatch(5)))
}

func TestExpireZeroRemovesEverythingOlderThanNow(t *testing.T) {
	q, clock := newTestQueue()
	fill(q, "vc", 3, 1)
	fill(q, "far", 2, 45)
	clock.Advance(time.Microsecond)

	assert.Equal(t, 5, q.Expire(0))
	assert.Equal(t, 0, q.Len())
}

func TestClear(t *testing.T) {
	q, _ := newTestQueue()
	fill(q, "x", 4, 12)
	q.Clear()
	assert.Equal(t, domain.QueueStats{}, q.Stats())
}

func TestOnChangeReceivesSnapshots(t *testing.T) {
	q, _ := newTestQueue()
	var last domain.QueueStats
	calls := 0
	q.OnChange(func(s domain.QueueStats) {
		last = s
		calls++
	})

	q.Insert(domain.Profile{ID: "a"}, 1)
	q.Insert(domain.Profile{ID: "b"}, 7)
	assert.Equal(t, 2, last.Total)

	q.NextBatch(0)
	assert.Equal(t, 2, calls)

	q.Remove("a")
	assert.Equal(t, domain.QueueStats{Close: 1, Total: 1}, last)
}

func TestConcurrentProducersAndConsumers(t *testing.T) {
	q := NewLocationQueue(DefaultThresholds())
	const producers, perProducer = 8, 200

	var wg sync.WaitGroup
	var mu sync.Mutex
	drained := 0
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			batch := make([]domain.Profile, 0, perProducer)
			for i := 0; i < perProducer; i++ {
				batch = append(batch, domain.Profile{ID: fmt.Sprintf("%d-%d", p, i)})
			}
			q.InsertBatch(batch, nil)
		}(p)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				got := len(q.NextBatch(10))
				mu.Lock()
				drained += got
				mu.Unlock()
				_ = q.Stats()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, drained+q.Len())
}
