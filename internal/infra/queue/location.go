package queue

import (
	"sync"
	"time"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/adapters/ranker"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
)

// Thresholds задаёт границы корзин очереди в километрах.
type Thresholds struct {
	VeryCloseKm float64
	CloseKm     float64
	MediumKm    float64
	FarKm       float64
}

// DefaultThresholds возвращает границы 5/10/20/50 км.
func DefaultThresholds() Thresholds {
	return Thresholds{VeryCloseKm: 5, CloseKm: 10, MediumKm: 20, FarKm: 50}
}

const (
	bucketVeryClose = iota
	bucketClose
	bucketMedium
	bucketFar
	bucketCount
)

// доли размера пачки в десятых для первых трёх корзин, остаток уходит в дальнюю
var batchShares = [bucketFar]int{4, 3, 2}

// LocationQueue хранит ранжированных кандидатов в четырёх корзинах по расстоянию.
// Все операции выполняются под одним мьютексом: выдача пачки читает все корзины
// согласованно.
type LocationQueue struct {
	mu         sync.Mutex
	buckets    [bucketCount][]domain.QueueEntry
	thresholds Thresholds
	now        func() time.Time
	onChange   func(domain.QueueStats)
}

var _ domain.CandidateQueue = (*LocationQueue)(nil)

// NewLocationQueue создаёт очередь. Нулевые границы заменяются значениями по умолчанию.
func NewLocationQueue(thresholds Thresholds) *LocationQueue {
	if thresholds.FarKm <= 0 {
		thresholds = DefaultThresholds()
	}
	return &LocationQueue{thresholds: thresholds, now: time.Now}
}

// WithClock подменяет часы (используется в тестах).
func (q *LocationQueue) WithClock(now func() time.Time) *LocationQueue {
	q.now = now
	return q
}

// OnChange регистрирует обработчик, который получает снимок после каждого изменения.
// Обработчик вызывается вне блокировки.
func (q *LocationQueue) OnChange(fn func(domain.QueueStats)) {
	q.mu.Lock()
	q.onChange = fn
	q.mu.Unlock()
}

// Insert кладёт профиль в корзину по расстоянию. Профиль дальше дальней границы молча отбрасывается.
func (q *LocationQueue) Insert(p domain.Profile, distanceKm float64) {
	q.mu.Lock()
	q.placeLocked(p, distanceKm, q.now())
	stats, hook := q.statsLocked(), q.onChange
	q.mu.Unlock()
	notify(hook, stats)
}

// InsertBatch считает расстояния до запрашивающего и кладёт всю пачку за одну блокировку.
// Профили без координат (или при неизвестном запрашивающем) попадают в дальнюю корзину.
func (q *LocationQueue) InsertBatch(profiles []domain.Profile, requester *domain.Location) {
	q.placeBatch(profiles, requester, false)
}

// ReplaceBatch работает как InsertBatch, но сначала убирает из очереди прежние записи
// этих профилей. Удаление и вставка идут под одной блокировкой, поэтому каждый профиль
// остаётся в очереди не больше одного раза.
func (q *LocationQueue) ReplaceBatch(profiles []domain.Profile, requester *domain.Location) {
	q.placeBatch(profiles, requester, true)
}

func (q *LocationQueue) placeBatch(profiles []domain.Profile, requester *domain.Location, replace bool) {
	if len(profiles) == 0 {
		return
	}
	distances := make([]float64, len(profiles))
	for i, p := range profiles {
		distances[i] = q.thresholds.FarKm
		if requester == nil {
			continue
		}
		if loc, ok := p.Location(); ok {
			distances[i] = ranker.Haversine(*requester, loc)
		}
	}
	var ids map[string]struct{}
	if replace {
		ids = make(map[string]struct{}, len(profiles))
		for _, p := range profiles {
			ids[p.ID] = struct{}{}
		}
	}

	q.mu.Lock()
	if replace {
		for b := range q.buckets {
			q.buckets[b] = filterEntries(q.buckets[b], func(e domain.QueueEntry) bool {
				_, dup := ids[e.Profile.ID]
				return !dup
			})
		}
	}
	now := q.now()
	for i, p := range profiles {
		q.placeLocked(p, distances[i], now)
	}
	stats, hook := q.statsLocked(), q.onChange
	q.mu.Unlock()
	notify(hook, stats)
}

// NextBatch забирает до size профилей: 40% из очень близкой корзины, 30% из близкой,
// 20% из средней и остаток из дальней. Доли округляются вверх, общий размер
// ограничен size в порядке приоритета корзин. Недобор в одной корзине не
// добирается из других.
func (q *LocationQueue) NextBatch(size int) []domain.Profile {
	if size <= 0 {
		return []domain.Profile{}
	}
	quotas := batchQuotas(size)

	q.mu.Lock()
	out := make([]domain.Profile, 0, size)
	for b := 0; b < bucketCount; b++ {
		take := quotas[b]
		if take > len(q.buckets[b]) {
			take = len(q.buckets[b])
		}
		if left := size - len(out); take > left {
			take = left
		}
		for _, e := range q.buckets[b][:take] {
			out = append(out, e.Profile)
		}
		q.buckets[b] = q.buckets[b][take:]
	}
	stats, hook := q.statsLocked(), q.onChange
	q.mu.Unlock()
	if len(out) > 0 {
		notify(hook, stats)
	}
	return out
}

// Remove удаляет профиль из всех корзин. Отсутствие профиля ошибкой не считается.
func (q *LocationQueue) Remove(profileID string) {
	q.mu.Lock()
	removed := 0
	for b := range q.buckets {
		before := len(q.buckets[b])
		q.buckets[b] = filterEntries(q.buckets[b], func(e domain.QueueEntry) bool {
			return e.Profile.ID != profileID
		})
		removed += before - len(q.buckets[b])
	}
	stats, hook := q.statsLocked(), q.onChange
	q.mu.Unlock()
	if removed > 0 {
		notify(hook, stats)
	}
}

// Clear очищает все корзины.
func (q *LocationQueue) Clear() {
	q.mu.Lock()
	for b := range q.buckets {
		q.buckets[b] = nil
	}
	stats, hook := q.statsLocked(), q.onChange
	q.mu.Unlock()
	notify(hook, stats)
}

// Expire удаляет записи, вставленные раньше now-maxAge, и возвращает их количество.
// Планированием вызовов занимается внешний планировщик.
func (q *LocationQueue) Expire(maxAge time.Duration) int {
	q.mu.Lock()
	cutoff := q.now().Add(-maxAge)
	removed := 0
	for b := range q.buckets {
		before := len(q.buckets[b])
		q.buckets[b] = filterEntries(q.buckets[b], func(e domain.QueueEntry) bool {
			return !e.InsertedAt.Before(cutoff)
		})
		removed += before - len(q.buckets[b])
	}
	stats, hook := q.statsLocked(), q.onChange
	q.mu.Unlock()
	if removed > 0 {
		notify(hook, stats)
	}
	return removed
}

// Stats возвращает снимок размеров корзин.
func (q *LocationQueue) Stats() domain.QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.statsLocked()
}

// Len возвращает общее число записей.
func (q *LocationQueue) Len() int {
	return q.Stats().Total
}

func (q *LocationQueue) placeLocked(p domain.Profile, distanceKm float64, now time.Time) {
	b, ok := q.bucketFor(distanceKm)
	if !ok {
		return
	}
	q.buckets[b] = append(q.buckets[b], domain.QueueEntry{Profile: p, DistanceKm: distanceKm, InsertedAt: now})
}

func (q *LocationQueue) bucketFor(distanceKm float64) (int, bool) {
	switch {
	case distanceKm <= q.thresholds.VeryCloseKm:
		return bucketVeryClose, true
	case distanceKm <= q.thresholds.CloseKm:
		return bucketClose, true
	case distanceKm <= q.thresholds.MediumKm:
		return bucketMedium, true
	case distanceKm <= q.thresholds.FarKm:
		return bucketFar, true
	}
	return 0, false
}

func (q *LocationQueue) statsLocked() domain.QueueStats {
	s := domain.QueueStats{
		VeryClose: len(q.buckets[bucketVeryClose]),
		Close:     len(q.buckets[bucketClose]),
		Medium:    len(q.buckets[bucketMedium]),
		Far:       len(q.buckets[bucketFar]),
	}
	s.Total = s.VeryClose + s.Close + s.Medium + s.Far
	return s
}

// batchQuotas считает квоты корзин: доли округляются вверх, дальней корзине
// достаётся остаток от деления с округлением вниз.
func batchQuotas(size int) [bucketCount]int {
	var quotas [bucketCount]int
	rest := size
	for b, share := range batchShares {
		quotas[b] = (size*share + 9) / 10
		rest -= size * share / 10
	}
	quotas[bucketFar] = rest
	return quotas
}

func filterEntries(entries []domain.QueueEntry, keep func(domain.QueueEntry) bool) []domain.QueueEntry {
	out := entries[:0]
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	for i := len(out); i < len(entries); i++ {
		entries[i] = domain.QueueEntry{}
	}
	return out
}

func notify(hook func(domain.QueueStats), stats domain.QueueStats) {
	if hook != nil {
		hook(stats)
	}
}
