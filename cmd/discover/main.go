package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/adapters/ranker"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/adapters/repo"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/infra/config"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/infra/db"
	applog "github.com/GoSteelers88/PawsomePals-sub003/internal/infra/log"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/usecase/discovery"
)

type output struct {
	RequestID string            `json:"request_id"`
	Ranked    []rankedCandidate `json:"ranked"`
}

type rankedCandidate struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Final    float64 `json:"final"`
	Base     float64 `json:"base"`
	Location float64 `json:"location"`
	Activity float64 `json:"activity"`
	Boost    float64 `json:"new_user_boost"`
}

type options struct {
	profileID   string
	maxDistance float64
	limit       int
	timeout     time.Duration
	noLocation  bool
	noActivity  bool
	noNew       bool
}

// parseFlags разбирает аргументы командной строки. Радиус по умолчанию
// берётся из конфигурации.
func parseFlags(args []string, defaultMaxDistance float64) (options, error) {
	var opts options
	fs := flag.NewFlagSet("discover", flag.ContinueOnError)
	fs.StringVar(&opts.profileID, "profile", "", "ID профиля, для которого выполняется подбор")
	fs.Float64Var(&opts.maxDistance, "max-distance", defaultMaxDistance, "Радиус поиска в километрах")
	fs.IntVar(&opts.limit, "limit", 20, "Сколько кандидатов вывести")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Ограничение времени на подбор")
	fs.BoolVar(&opts.noLocation, "no-location-priority", false, "Не повышать вес расстояния")
	fs.BoolVar(&opts.noActivity, "no-activity-priority", false, "Не повышать вес активности")
	fs.BoolVar(&opts.noNew, "no-new-profiles", false, "Не учитывать бонус новых профилей")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	switch {
	case opts.profileID == "":
		return opts, errors.New("требуется -profile")
	case opts.limit < 1:
		return opts, fmt.Errorf("-limit должен быть не меньше 1, получено %d", opts.limit)
	case opts.maxDistance <= 0:
		return opts, fmt.Errorf("-max-distance должен быть положительным, получено %v", opts.maxDistance)
	case opts.timeout <= 0:
		return opts, fmt.Errorf("-timeout должен быть положительным, получено %s", opts.timeout)
	}
	return opts, nil
}

func main() {
	cfg := config.Load()
	defaultDistance := cfg.Discovery.MaxDistanceKm
	if defaultDistance <= 0 {
		defaultDistance = domain.DefaultMaxDistanceKm
	}
	opts, err := parseFlags(os.Args[1:], defaultDistance)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("discover: неверные аргументы")
	}

	if cfg.PGDSN == "" {
		log.Fatal().Msg("discover: требуется переменная окружения PG_DSN")
	}
	logger := applog.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.PGDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("discover: нет подключения к БД")
	}
	defer pool.Close()

	service := discovery.NewService(
		repo.NewPostgres(pool), nil, nil, nil,
		ranker.NewScorer(ranker.ActivityByMode(cfg.Discovery.ActivityMode)),
		discovery.Config{PoolLimit: cfg.Discovery.PoolLimit, UseNearbyPool: cfg.Discovery.UseNearbyPool},
		logger,
	)

	prefs := domain.DiscoveryPreferences{
		MaxDistanceKm:      opts.maxDistance,
		PrioritizeLocation: !opts.noLocation,
		PrioritizeActivity: !opts.noActivity,
		IncludeNewProfiles: !opts.noNew,
	}
	res := service.DiscoverForProfile(ctx, opts.profileID, prefs)
	if !res.OK() {
		fmt.Fprintf(os.Stderr, "discover: %s (%s)\n", res.Err, discovery.FailureReason(res.Err))
		os.Exit(1)
	}

	out := output{RequestID: res.RequestID, Ranked: make([]rankedCandidate, 0, min(opts.limit, len(res.Scores)))}
	for _, s := range res.Scores {
		if len(out.Ranked) >= opts.limit {
			break
		}
		out.Ranked = append(out.Ranked, rankedCandidate{
			ID:       s.Profile.ID,
			Name:     s.Profile.Name,
			Final:    s.Final,
			Base:     s.Base,
			Location: s.Location,
			Activity: s.Activity,
			Boost:    s.NewUserBoost,
		})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatal().Err(err).Msg("discover: не удалось вывести результат")
	}
}
