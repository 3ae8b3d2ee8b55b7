package main

import (
	"context"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/adapters/httpapi"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/adapters/location"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/adapters/ranker"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/adapters/repo"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/infra/cache"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/infra/config"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/infra/db"
	httpinfra "github.com/GoSteelers88/PawsomePals-sub003/internal/infra/http"
	applog "github.com/GoSteelers88/PawsomePals-sub003/internal/infra/log"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/infra/metrics"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/infra/queue"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/usecase/discovery"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/usecase/schedule"
)

const exclusionsTTL = 30 * 24 * time.Hour

func main() {
	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv, cfg.LogLevel)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, applog.Component(logger, "metrics"), cfg.MetricsAddr)

	if cfg.PGDSN == "" {
		logger.Fatal().Msg("api: не указан адрес БД (PG_DSN)")
	}
	pool, err := db.Connect(ctx, cfg.PGDSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: нет подключения к БД")
	}
	defer pool.Close()

	breakerCfg := repo.DefaultBreakerConfig("profile_repo")
	breakerCfg.MaxRequests = cfg.Breaker.MaxRequests
	breakerCfg.Interval = cfg.Breaker.Interval
	breakerCfg.Timeout = cfg.Breaker.Timeout
	breakerCfg.FailureThreshold = cfg.Breaker.FailureThreshold
	breakerCfg.MinRequests = cfg.Breaker.MinRequests
	profiles := repo.NewBreakerRepo(repo.NewPostgres(pool), breakerCfg, logger)

	candidates := queue.NewLocationQueue(queue.Thresholds{
		VeryCloseKm: cfg.Queue.VeryCloseKm,
		CloseKm:     cfg.Queue.CloseKm,
		MediumKm:    cfg.Queue.MediumKm,
		FarKm:       cfg.Queue.FarKm,
	})
	candidates.OnChange(metrics.SetQueueStats)

	var (
		locations  domain.LocationProvider
		exclusions domain.ExclusionStore
		jobs       domain.DiscoveryQueue
		dispatcher httpapi.Dispatcher
	)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("api: нет подключения к Redis")
		}
		locations = location.NewRedis(client)
		exclusions = cache.NewRedisExclusions(client, exclusionsTTL)
		jobs = queue.NewRedisDiscoveryQueue(client, cfg.Queues.DiscoveryJobs)
		dispatcher = discovery.NewDispatcher(jobs, cache.NewRedis(client), discovery.DefaultDedupWindow)
	} else {
		logger.Warn().Msg("api: REDIS_ADDR не задан, геолокация, скрытые профили и фоновые задачи отключены")
	}

	scorer := ranker.NewScorer(ranker.ActivityByMode(cfg.Discovery.ActivityMode))
	service := discovery.NewService(profiles, locations, exclusions, candidates, scorer, discovery.Config{
		PoolLimit:     cfg.Discovery.PoolLimit,
		UseNearbyPool: cfg.Discovery.UseNearbyPool,
	}, logger)

	var wg sync.WaitGroup
	run := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
		}()
	}

	run(schedule.NewSweeper(candidates, cfg.Queue.MaxAge, cfg.Queue.SweepInterval, logger).Run)

	if jobs != nil {
		for i := 0; i < max(cfg.Discovery.Workers, 1); i++ {
			run(discovery.NewWorker(jobs, service, logger).Run)
		}
	}

	if cfg.RabbitURL != "" {
		events, err := queue.NewRabbitProfileEvents(cfg.RabbitURL, cfg.Queues.ProfileEvents)
		if err != nil {
			logger.Fatal().Err(err).Msg("api: не удалось инициализировать очередь RabbitMQ")
		}
		defer events.Close()
		run(discovery.NewEventConsumer(events, candidates, logger).Run)
	}

	server := httpinfra.NewServer(applog.Component(logger, "http"))
	httpapi.NewHandler(service, dispatcher, candidates, exclusions, cfg.Discovery.MaxDistanceKm, cfg.Queue.MaxAge, logger).Routes(server.Router)

	go func() {
		if err := server.Start(":" + strconv.Itoa(cfg.Port)); err != nil {
			logger.Error().Err(err).Msg("api: сервер остановлен")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("api: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: ошибка остановки сервера")
	}
	wg.Wait()
}
