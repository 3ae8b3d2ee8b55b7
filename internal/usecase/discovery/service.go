package discovery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/adapters/ranker"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
	"github.com/GoSteelers88/PawsomePals-sub003/internal/infra/metrics"
)

// DefaultPoolLimit задаёт размер пула кандидатов, запрашиваемого у репозитория.
const DefaultPoolLimit = 200

// Config настраивает загрузку пула.
type Config struct {
	PoolLimit     int
	UseNearbyPool bool
}

// Service ранжирует кандидатов и наполняет очередь.
type Service struct {
	profiles   domain.ProfileRepo
	locations  domain.LocationProvider
	exclusions domain.ExclusionStore
	queue      domain.CandidateQueue
	scorer     *ranker.Scorer
	cfg        Config
	log        zerolog.Logger
	newID      func() string
}

// NewService создаёт сервис подбора. locations, exclusions и queue могут быть nil.
func NewService(
	profiles domain.ProfileRepo,
	locations domain.LocationProvider,
	exclusions domain.ExclusionStore,
	queue domain.CandidateQueue,
	scorer *ranker.Scorer,
	cfg Config,
	logger zerolog.Logger,
) *Service {
	if scorer == nil {
		scorer = ranker.NewScorer(nil)
	}
	if cfg.PoolLimit <= 0 {
		cfg.PoolLimit = DefaultPoolLimit
	}
	return &Service{
		profiles:   profiles,
		locations:  locations,
		exclusions: exclusions,
		queue:      queue,
		scorer:     scorer,
		cfg:        cfg,
		log:        logger.With().Str("component", "discovery").Logger(),
		newID:      uuid.NewString,
	}
}

// Discover фильтрует и ранжирует переданный пул. Успешный результат попадает в
// очередь одной пачкой. Ошибка фильтрации или оценки даёт результат без профилей.
func (s *Service) Discover(ctx context.Context, current domain.Profile, pool []domain.Profile, prefs domain.DiscoveryPreferences) domain.DiscoveryResult {
	start := time.Now()
	requestID := s.newID()
	res, scored := s.rank(ctx, requestID, current, pool, prefs)
	s.observe(start, res, scored, len(pool))
	return res
}

// DiscoverForProfile загружает профиль, пул кандидатов, местоположение и
// скрытые профили владельца, затем ранжирует пул.
func (s *Service) DiscoverForProfile(ctx context.Context, profileID string, prefs domain.DiscoveryPreferences) domain.DiscoveryResult {
	start := time.Now()
	requestID := s.newID()
	log := s.log.With().Str("request_id", requestID).Str("profile", profileID).Logger()

	current, err := s.profiles.GetProfile(ctx, profileID)
	if err != nil {
		if !errors.Is(err, domain.ErrProfileNotFound) {
			err = fmt.Errorf("%w: load profile: %w", domain.ErrUpstream, err)
		}
		log.Error().Err(err).Msg("discovery: не удалось загрузить профиль")
		res := domain.Failed(requestID, err)
		s.observe(start, res, 0, 0)
		return res
	}

	prefs = prefs.WithDefaults().Clone()
	pool, requester, excluded, err := s.fetch(ctx, current, prefs)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		} else {
			err = fmt.Errorf("%w: %w", domain.ErrUpstream, err)
		}
		log.Error().Err(err).Msg("discovery: ошибка загрузки кандидатов")
		res := domain.Failed(requestID, err)
		s.observe(start, res, 0, 0)
		return res
	}
	if _, ok := current.Location(); !ok && requester != nil {
		current = current.WithLocation(*requester)
	}
	prefs.ExcludeProfiles(excluded...)

	res, scored := s.rank(ctx, requestID, current, pool, prefs)
	s.observe(start, res, scored, len(pool))
	if res.OK() {
		log.Debug().Int("pool", len(pool)).Int("ranked", len(res.Profiles)).Msg("discovery: подбор завершён")
	}
	return res
}

func (s *Service) fetch(ctx context.Context, current domain.Profile, prefs domain.DiscoveryPreferences) ([]domain.Profile, *domain.Location, []string, error) {
	var (
		pool      []domain.Profile
		requester *domain.Location
		excluded  []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if loc, ok := current.Location(); ok && s.cfg.UseNearbyPool {
			pool, err = s.profiles.GetCandidatePoolNear(gctx, loc.Lat, loc.Lon, prefs.MaxDistanceKm, s.cfg.PoolLimit)
		} else {
			pool, err = s.profiles.GetCandidatePool(gctx, current.OwnerID, s.cfg.PoolLimit)
		}
		if err != nil {
			return fmt.Errorf("candidate pool: %w", err)
		}
		return nil
	})
	if s.locations != nil {
		g.Go(func() error {
			loc, ok, err := s.locations.LastKnownLocation(gctx, current.OwnerID)
			if err != nil {
				return fmt.Errorf("last known location: %w", err)
			}
			if ok {
				requester = &loc
			}
			return nil
		})
	}
	if s.exclusions != nil {
		g.Go(func() error {
			ids, err := s.exclusions.Excluded(gctx, current.OwnerID)
			if err != nil {
				s.log.Warn().Err(err).Str("owner", current.OwnerID).Msg("discovery: скрытые профили недоступны, продолжаем без них")
				return nil
			}
			excluded = ids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return pool, requester, excluded, nil
}

// rank выполняет фильтрацию, оценку, сортировку и вставку в очередь.
// Паника внутри оценки превращается в неуспешный результат.
func (s *Service) rank(ctx context.Context, requestID string, current domain.Profile, pool []domain.Profile, prefs domain.DiscoveryPreferences) (res domain.DiscoveryResult, scored int) {
	log := s.log.With().Str("request_id", requestID).Str("profile", current.ID).Logger()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: panic: %v", domain.ErrScoring, r)
			log.Error().Err(err).Msg("discovery: сбой оценки кандидатов")
			res = domain.Failed(requestID, err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return domain.Failed(requestID, err), 0
	}
	prefs = prefs.WithDefaults()
	candidates := FilterCandidates(current, pool, prefs)

	scores := make([]domain.ProfileScore, 0, len(candidates))
	for _, candidate := range candidates {
		score := s.scorer.Score(current, candidate, prefs)
		if math.IsNaN(score.Final) || math.IsInf(score.Final, 0) {
			err := fmt.Errorf("%w: non-finite score for %s", domain.ErrScoring, candidate.ID)
			log.Error().Err(err).Msg("discovery: некорректная оценка")
			return domain.Failed(requestID, err), len(scores)
		}
		scores = append(scores, score)
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Final > scores[j].Final
	})
	profiles := make([]domain.Profile, len(scores))
	for i, score := range scores {
		profiles[i] = score.Profile
	}

	if err := ctx.Err(); err != nil {
		return domain.Failed(requestID, err), len(scores)
	}
	if s.queue != nil && len(profiles) > 0 {
		var requester *domain.Location
		if loc, ok := current.Location(); ok {
			requester = &loc
		}
		s.queue.ReplaceBatch(profiles, requester)
	}
	return domain.DiscoveryResult{RequestID: requestID, Profiles: profiles, Scores: scores}, len(scores)
}

func (s *Service) observe(start time.Time, res domain.DiscoveryResult, scored, poolSize int) {
	filtered := poolSize - scored
	if filtered < 0 || !res.OK() {
		filtered = 0
	}
	metrics.ObserveDiscovery(start, scored, filtered, FailureReason(res.Err))
}

// FailureReason возвращает метку причины для метрик и ответов API.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrProfileNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, domain.ErrUpstream):
		return "upstream"
	case errors.Is(err, domain.ErrScoring):
		return "scoring"
	default:
		return "unknown"
	}
}
