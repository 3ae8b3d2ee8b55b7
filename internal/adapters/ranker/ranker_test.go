package ranker

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func poodle(id string, age int, lat, lon float64) domain.Profile {
	return domain.Profile{
		ID:           id,
		OwnerID:      "owner-" + id,
		Name:         "Dog " + id,
		Breed:        "Poodle",
		Age:          age,
		Size:         domain.SizeMedium,
		Energy:       domain.EnergyHigh,
		Friendliness: domain.FriendlinessFriendly,
		Lat:          ptr(lat),
		Lon:          ptr(lon),
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	amsterdam := domain.Location{Lat: 52.3676, Lon: 4.9041}
	rotterdam := domain.Location{Lat: 51.9244, Lon: 4.4777}
	assert.InDelta(t, 57.0, Haversine(amsterdam, rotterdam), 1.0)
	assert.Zero(t, Haversine(amsterdam, amsterdam))
}

func TestHaversineAntipodalIsFinite(t *testing.T) {
	pairs := [][2]domain.Location{
		{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 180}},
		{{Lat: 90, Lon: 0}, {Lat: -90, Lon: 0}},
		{{Lat: 45.123456, Lon: 10.987654}, {Lat: -45.123456, Lon: -169.012346}},
	}
	for _, p := range pairs {
		d := Haversine(p[0], p[1])
		require.False(t, math.IsNaN(d), "расстояние %v -> %v", p[0], p[1])
		assert.InDelta(t, math.Pi*earthRadiusKm, d, 1.0)
	}
}

func TestLocationScore(t *testing.T) {
	a := domain.Location{Lat: 52.0, Lon: 4.0}
	near := domain.Location{Lat: 52.0 + 1.5/111.195, Lon: 4.0}
	far := domain.Location{Lat: 53.0, Lon: 4.0}

	assert.InDelta(t, 0.97, LocationScore(&a, &near, 50), 0.001)
	assert.Equal(t, 0.0, LocationScore(&a, &far, 50), "за пределами радиуса оценка должна быть нулевой")
	assert.Equal(t, 0.5, LocationScore(nil, &a, 50))
	assert.Equal(t, 0.5, LocationScore(&a, nil, 50))
	assert.Equal(t, 1.0, LocationScore(&a, &a, 50))
}

func TestCompatibilityConcreteScenario(t *testing.T) {
	a := poodle("a", 2, 52.0, 4.0)
	b := poodle("b", 3, 52.0+1.5/111.195, 4.0)

	d := Haversine(domain.Location{Lat: *a.Lat, Lon: *a.Lon}, domain.Location{Lat: *b.Lat, Lon: *b.Lon})
	want := (0.15 + 0.20 + 0.15 + 0.10 + 0.15 + 0.20*(1-d/50)) / 0.95

	got := Compatibility(a, b)
	assert.InDelta(t, want, got, 1e-9)
	assert.InDelta(t, 0.9937, got, 0.001)
	assert.LessOrEqual(t, got, 1.0)
}

func TestCompatibilityIdenticalIsOne(t *testing.T) {
	a := poodle("a", 4, 52.1, 4.3)
	a.Spayed = ptr(true)
	b := a
	b.ID = "copy"
	assert.InDelta(t, 1.0, Compatibility(a, b), 1e-9)
}

func TestCompatibilityMissingAttributesAreNeutral(t *testing.T) {
	a := domain.Profile{ID: "a"}
	b := domain.Profile{ID: "b"}
	// размер, энергия, порода, дружелюбность и локация дают 0.5, возраст 0 и 0 даёт 1.0
	want := (0.15*0.5 + 0.20*0.5 + 0.15*1 + 0.10*0.5 + 0.15*0.5 + 0.20*0.5) / 0.95
	assert.InDelta(t, want, Compatibility(a, b), 1e-9)
}

func TestCompatibilitySpayOnlyWhenBothReport(t *testing.T) {
	a := poodle("a", 2, 52.0, 4.0)
	b := poodle("b", 2, 52.0, 4.0)
	a.Spayed = ptr(true)
	assert.InDelta(t, 1.0, Compatibility(a, b), 1e-9, "вес стерилизации не применяется при одностороннем значении")

	b.Spayed = ptr(false)
	assert.InDelta(t, 0.95/1.0, Compatibility(a, b), 1e-9)
}

func TestSubScores(t *testing.T) {
	assert.Equal(t, 0.5, sizeScore(domain.SizeSmall, domain.SizeMedium))
	assert.Equal(t, 0.0, sizeScore(domain.SizeSmall, domain.SizeLarge))
	assert.Equal(t, 0.5, sizeScore("", domain.SizeLarge))
	assert.Equal(t, 0.25, energyScore(domain.EnergyLow, domain.EnergyVeryHigh))
	assert.Equal(t, 0.7, ageScore(1, 5))
	assert.Equal(t, 0.4, ageScore(10, 4))
	assert.Equal(t, 0.1, ageScore(0, 12))
	assert.Equal(t, 0.5, breedScore("Poodle", "Beagle"))
	assert.Equal(t, 0.7, friendlinessScore(domain.FriendlinessShy, domain.FriendlinessFriendly))
	assert.Equal(t, 0.4, friendlinessScore(domain.FriendlinessShy, domain.FriendlinessVeryFriendly))
}

func TestCompatibilityRangeAndSymmetry(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	sizes := []domain.Size{"", domain.SizeSmall, domain.SizeMedium, domain.SizeLarge}
	energies := []domain.EnergyLevel{"", domain.EnergyLow, domain.EnergyMedium, domain.EnergyHigh, domain.EnergyVeryHigh}
	friendly := []domain.Friendliness{"", domain.FriendlinessShy, domain.FriendlinessFriendly, domain.FriendlinessVeryFriendly}
	breeds := []string{"", "Poodle", "Beagle"}

	random := func() domain.Profile {
		p := domain.Profile{
			Age:          rnd.Intn(15),
			Size:         sizes[rnd.Intn(len(sizes))],
			Energy:       energies[rnd.Intn(len(energies))],
			Friendliness: friendly[rnd.Intn(len(friendly))],
			Breed:        breeds[rnd.Intn(len(breeds))],
		}
		if rnd.Intn(3) > 0 {
			p = p.WithLocation(domain.Location{Lat: 52 + rnd.Float64(), Lon: 4 + rnd.Float64()})
		}
		if rnd.Intn(2) == 0 {
			p.Spayed = ptr(rnd.Intn(2) == 0)
		}
		return p
	}

	for i := 0; i < 500; i++ {
		a, b := random(), random()
		ab := Compatibility(a, b)
		require.GreaterOrEqual(t, ab, 0.0)
		require.LessOrEqual(t, ab, 1.0)
		require.InDelta(t, ab, Compatibility(b, a), 1e-12)
	}
}

func TestCompletenessActivity(t *testing.T) {
	assert.Equal(t, minActivityScore, CompletenessActivity(domain.Profile{}, time.Now()))
	assert.InDelta(t, 2.0/3, CompletenessActivity(domain.Profile{Name: "Rex", Breed: "Beagle"}, time.Now()), 1e-9)
	assert.Equal(t, 1.0, CompletenessActivity(domain.Profile{Name: "Rex", Breed: "Beagle", Age: 3}, time.Now()))
}

func TestRecencyActivity(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 0.0, RecencyActivity(domain.Profile{}, now))
	assert.Equal(t, 1.0, RecencyActivity(domain.Profile{LastActiveAt: now.Add(-time.Hour)}, now))
	assert.InDelta(t, 0.5, RecencyActivity(domain.Profile{LastActiveAt: now.Add(-15 * 24 * time.Hour)}, now), 1e-9)
	assert.Equal(t, 0.0, RecencyActivity(domain.Profile{LastActiveAt: now.Add(-60 * 24 * time.Hour)}, now))
}

func TestActivityByMode(t *testing.T) {
	p := domain.Profile{Name: "Rex"}
	now := time.Now()
	assert.Equal(t, CompletenessActivity(p, now), ActivityByMode("")(p, now))
	assert.Equal(t, RecencyActivity(p, now), ActivityByMode("Recency")(p, now))
}

func TestNewProfileBoost(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 1.0, NewProfileBoost(now, now))
	assert.InDelta(t, 0.5, NewProfileBoost(now.Add(-84*time.Hour), now), 1e-9)
	assert.Equal(t, 0.0, NewProfileBoost(now.Add(-8*24*time.Hour), now))
	assert.Equal(t, 0.0, NewProfileBoost(time.Time{}, now))
}

func TestWeightsFor(t *testing.T) {
	w := WeightsFor(domain.DiscoveryPreferences{PrioritizeLocation: true, PrioritizeActivity: true})
	assert.InDelta(t, 0.4/1.1, w.Location, 1e-9)
	assert.InDelta(t, 0.2/1.1, w.Activity, 1e-9)
	assert.InDelta(t, 1.0, w.Base+w.Location+w.Activity+w.Boost, 1e-9)

	w = WeightsFor(domain.DiscoveryPreferences{})
	assert.InDelta(t, 0.3/0.9, w.Location, 1e-9)
	assert.InDelta(t, 0.1/0.9, w.Activity, 1e-9)
	assert.InDelta(t, 0.4/0.9, w.Base, 1e-9)
}

func TestScorerScore(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := poodle("me", 3, 52.0, 4.0)
	fresh := poodle("fresh", 3, 52.0, 4.0)
	fresh.CreatedAt = now

	s := NewScorer(nil).WithClock(func() time.Time { return now })
	prefs := domain.DefaultPreferences()
	score := s.Score(current, fresh, prefs)

	assert.InDelta(t, 1.0, score.Base, 1e-9)
	assert.InDelta(t, 1.0, score.Location, 1e-9)
	assert.InDelta(t, 1.0, score.Activity, 1e-9)
	assert.InDelta(t, 1.0, score.NewUserBoost, 1e-9)
	assert.InDelta(t, 1.0, score.Final, 1e-9)

	prefs.IncludeNewProfiles = false
	score = s.Score(current, fresh, prefs)
	assert.Zero(t, score.NewUserBoost)
	assert.InDelta(t, 1.0/1.1, score.Final, 1e-9)
}
