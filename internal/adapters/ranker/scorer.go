package ranker

import (
	"time"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
)

// Scorer собирает все подоценки кандидата в одну итоговую.
type Scorer struct {
	activity ActivityFunc
	now      func() time.Time
}

// NewScorer создаёт оценщик. nil activity означает оценку по заполненности профиля.
func NewScorer(activity ActivityFunc) *Scorer {
	if activity == nil {
		activity = CompletenessActivity
	}
	return &Scorer{activity: activity, now: time.Now}
}

// WithClock подменяет часы (используется в тестах).
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	s.now = now
	return s
}

// Score оценивает кандидата относительно текущего профиля.
func (s *Scorer) Score(current, candidate domain.Profile, prefs domain.DiscoveryPreferences) domain.ProfileScore {
	now := s.now()
	score := domain.ProfileScore{
		Profile:  candidate,
		Base:     Compatibility(current, candidate),
		Location: ProfileLocationScore(current, candidate, prefs.MaxDistanceKm),
		Activity: s.activity(candidate, now),
	}
	if prefs.IncludeNewProfiles {
		score.NewUserBoost = NewProfileBoost(candidate.CreatedAt, now)
	}
	score.Final = WeightsFor(prefs).Combine(score)
	return score
}
