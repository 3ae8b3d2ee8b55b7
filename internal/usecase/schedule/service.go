package schedule

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/infra/metrics"
)

// Expirer описывает часть очереди, которую чистит планировщик.
type Expirer interface {
	Expire(maxAge time.Duration) int
}

// Sweeper периодически удаляет из очереди устаревшие записи.
// Очередь живёт в памяти процесса, поэтому каждая реплика чистит свою.
type Sweeper struct {
	queue    Expirer
	maxAge   time.Duration
	interval time.Duration
	log      zerolog.Logger
}

// NewSweeper создаёт планировщик очистки.
func NewSweeper(queue Expirer, maxAge, interval time.Duration, logger zerolog.Logger) *Sweeper {
	if maxAge < 0 {
		maxAge = 0
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{
		queue:    queue,
		maxAge:   maxAge,
		interval: interval,
		log:      logger.With().Str("component", "queue_sweeper").Logger(),
	}
}

// Run запускает очистку по таймеру до отмены контекста.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// SweepOnce выполняет одну очистку и возвращает число удалённых записей.
func (s *Sweeper) SweepOnce() int {
	removed := s.queue.Expire(s.maxAge)
	metrics.ObserveExpired(removed)
	if removed > 0 {
		s.log.Info().Int("removed", removed).Dur("max_age", s.maxAge).Msg("sweeper: устаревшие записи удалены")
	}
	return removed
}
