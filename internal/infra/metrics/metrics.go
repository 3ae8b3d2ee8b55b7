package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
)

var (
	DiscoverySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "discovery_duration_seconds",
		Help:    "Время одного вызова подбора",
		Buckets: prometheus.DefBuckets,
	})
	DiscoveryRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "discovery_requests_total",
		Help: "Общее количество вызовов подбора",
	})
	DiscoveryFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "discovery_failures_total",
		Help: "Неуспешные вызовы подбора по причине",
	}, []string{"reason"})
	CandidatesScoredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "discovery_candidates_scored_total",
		Help: "Количество оценённых кандидатов",
	})
	CandidatesFilteredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "discovery_candidates_filtered_total",
		Help: "Количество кандидатов, отброшенных фильтром",
	})

	QueueEntries = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "candidate_queue_entries",
		Help: "Текущее число записей в корзинах очереди",
	}, []string{"bucket"})
	QueueBatchesServed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "candidate_queue_batches_served_total",
		Help: "Количество выданных пачек",
	})
	QueueProfilesServed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "candidate_queue_profiles_served_total",
		Help: "Количество профилей, выданных в пачках",
	})
	QueueExpiredTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "candidate_queue_expired_total",
		Help: "Количество записей, удалённых по возрасту",
	})

	NetworkRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "network_request_duration_seconds",
		Help:    "Длительность сетевых запросов",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"component", "operation", "target", "status"})

	NetworkRequestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "network_request_total",
		Help: "Количество сетевых запросов",
	}, []string{"component", "operation", "target", "status"})
)

// MustRegister регистрирует метрики.
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		DiscoverySeconds,
		DiscoveryRequestsTotal,
		DiscoveryFailuresTotal,
		CandidatesScoredTotal,
		CandidatesFilteredTotal,
		QueueEntries,
		QueueBatchesServed,
		QueueProfilesServed,
		QueueExpiredTotal,
		NetworkRequestDuration,
		NetworkRequestTotal,
	)
}

// StartServer запускает HTTP сервер с эндпоинтом /metrics.
func StartServer(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	shutdownCtx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-ctx.Done():
		case <-shutdownCtx.Done():
		}
		shutdownTimeout, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer timeoutCancel()
		if err := srv.Shutdown(shutdownTimeout); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: graceful shutdown failed")
		}
	}()

	go func() {
		logger.Info().Str("addr", addr).Msg("metrics: server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics: server stopped")
		}
		cancel()
	}()
}

// ObserveNetworkRequest записывает длительность и статус сетевого запроса.
func ObserveNetworkRequest(component, operation, target string, start time.Time, err error) {
	if component == "" {
		component = "unknown"
	}
	if operation == "" {
		operation = "unknown"
	}
	if target == "" {
		target = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	duration := time.Since(start).Seconds()
	NetworkRequestDuration.WithLabelValues(component, operation, target, status).Observe(duration)
	NetworkRequestTotal.WithLabelValues(component, operation, target, status).Inc()
}

// ObserveDiscovery записывает итог вызова подбора.
func ObserveDiscovery(start time.Time, scored, filtered int, reason string) {
	DiscoveryRequestsTotal.Inc()
	DiscoverySeconds.Observe(time.Since(start).Seconds())
	CandidatesScoredTotal.Add(float64(scored))
	CandidatesFilteredTotal.Add(float64(filtered))
	if reason != "" {
		DiscoveryFailuresTotal.WithLabelValues(reason).Inc()
	}
}

// SetQueueStats публикует размеры корзин очереди.
func SetQueueStats(s domain.QueueStats) {
	QueueEntries.WithLabelValues("very_close").Set(float64(s.VeryClose))
	QueueEntries.WithLabelValues("close").Set(float64(s.Close))
	QueueEntries.WithLabelValues("medium").Set(float64(s.Medium))
	QueueEntries.WithLabelValues("far").Set(float64(s.Far))
}

// ObserveBatch учитывает выданную пачку. Пустые пачки не считаются.
func ObserveBatch(size int) {
	if size <= 0 {
		return
	}
	QueueBatchesServed.Inc()
	QueueProfilesServed.Add(float64(size))
}

// ObserveExpired учитывает удалённые по возрасту записи.
func ObserveExpired(n int) {
	QueueExpiredTotal.Add(float64(n))
}
