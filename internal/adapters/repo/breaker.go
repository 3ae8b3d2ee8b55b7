package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
)

// BreakerConfig настраивает размыкатель вокруг репозитория.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig возвращает настройки по умолчанию.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// BreakerRepo оборачивает domain.ProfileRepo размыкателем цепи.
// ErrProfileNotFound и отмена контекста не считаются сбоем источника.
type BreakerRepo struct {
	next domain.ProfileRepo
	cb   *gobreaker.CircuitBreaker
}

var _ domain.ProfileRepo = (*BreakerRepo)(nil)

// NewBreakerRepo создаёт декоратор.
func NewBreakerRepo(next domain.ProfileRepo, cfg BreakerConfig, logger zerolog.Logger) *BreakerRepo {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("repo: состояние размыкателя изменилось")
		},
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, domain.ErrProfileNotFound) ||
				errors.Is(err, context.Canceled)
		},
	})
	return &BreakerRepo{next: next, cb: cb}
}

// State возвращает текущее состояние размыкателя.
func (r *BreakerRepo) State() gobreaker.State {
	return r.cb.State()
}

// GetProfile реализует domain.ProfileRepo.
func (r *BreakerRepo) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	res, err := r.cb.Execute(func() (interface{}, error) {
		return r.next.GetProfile(ctx, id)
	})
	if err != nil {
		return domain.Profile{}, wrapBreakerErr(err)
	}
	return res.(domain.Profile), nil
}

// GetCandidatePool реализует domain.ProfileRepo.
func (r *BreakerRepo) GetCandidatePool(ctx context.Context, excludingOwner string, limit int) ([]domain.Profile, error) {
	res, err := r.cb.Execute(func() (interface{}, error) {
		return r.next.GetCandidatePool(ctx, excludingOwner, limit)
	})
	if err != nil {
		return nil, wrapBreakerErr(err)
	}
	return res.([]domain.Profile), nil
}

// GetCandidatePoolNear реализует domain.ProfileRepo.
func (r *BreakerRepo) GetCandidatePoolNear(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Profile, error) {
	res, err := r.cb.Execute(func() (interface{}, error) {
		return r.next.GetCandidatePoolNear(ctx, lat, lon, radiusKm, limit)
	})
	if err != nil {
		return nil, wrapBreakerErr(err)
	}
	return res.([]domain.Profile), nil
}

func wrapBreakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("profile repo unavailable: %w", err)
	}
	return err
}
