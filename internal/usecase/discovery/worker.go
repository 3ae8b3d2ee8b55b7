package discovery

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
)

// Discoverer запускает подбор для профиля по идентификатору.
type Discoverer interface {
	DiscoverForProfile(ctx context.Context, profileID string, prefs domain.DiscoveryPreferences) domain.DiscoveryResult
}

// Worker разбирает очередь отложенных задач подбора.
type Worker struct {
	log     zerolog.Logger
	jobs    domain.DiscoveryQueue
	service Discoverer
	backoff time.Duration
}

// NewWorker создаёт обработчик задач.
func NewWorker(jobs domain.DiscoveryQueue, service Discoverer, logger zerolog.Logger) *Worker {
	return &Worker{
		log:     logger.With().Str("component", "discovery_worker").Logger(),
		jobs:    jobs,
		service: service,
		backoff: time.Second,
	}
}

// Run обрабатывает задачи до отмены контекста. Неуспешный подбор не повторяется.
func (w *Worker) Run(ctx context.Context) {
	for {
		job, err := w.jobs.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("worker: ошибка чтения очереди")
			if !sleepCtx(ctx, w.backoff) {
				return
			}
			continue
		}
		w.handle(ctx, job)
	}
}

func (w *Worker) handle(ctx context.Context, job domain.DiscoveryJob) {
	jobLog := w.log.With().Str("job_id", job.ID).Str("profile", job.ProfileID).Logger()
	if job.ProfileID == "" {
		jobLog.Warn().Msg("worker: задача без профиля, пропускаем")
		return
	}
	res := w.service.DiscoverForProfile(ctx, job.ProfileID, job.Preferences())
	if !res.OK() {
		jobLog.Error().Err(res.Err).Str("request_id", res.RequestID).Msg("worker: подбор завершился ошибкой")
		return
	}
	jobLog.Info().Str("request_id", res.RequestID).Int("ranked", len(res.Profiles)).
		Dur("queued_for", time.Since(job.RequestedAt)).Msg("worker: подбор выполнен")
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
