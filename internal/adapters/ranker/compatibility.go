package ranker

import (
	"strings"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
)

const (
	weightSize         = 0.15
	weightEnergy       = 0.20
	weightAge          = 0.15
	weightBreed        = 0.10
	weightFriendliness = 0.15
	weightLocation     = 0.20
	weightSpay         = 0.05
)

// Compatibility считает совместимость двух профилей в диапазоне [0,1].
// Итог нормируется на сумму реально применённых весов, поэтому отсутствующие
// необязательные атрибуты не тянут оценку к нулю.
func Compatibility(a, b domain.Profile) float64 {
	sum := 0.0
	weights := 0.0
	add := func(weight, score float64) {
		sum += weight * score
		weights += weight
	}

	add(weightSize, sizeScore(a.Size, b.Size))
	add(weightEnergy, energyScore(a.Energy, b.Energy))
	add(weightAge, ageScore(a.Age, b.Age))
	add(weightBreed, breedScore(a.Breed, b.Breed))
	add(weightFriendliness, friendlinessScore(a.Friendliness, b.Friendliness))
	add(weightLocation, ProfileLocationScore(a, b, domain.DefaultMaxDistanceKm))
	if a.Spayed != nil && b.Spayed != nil {
		spay := 0.0
		if *a.Spayed == *b.Spayed {
			spay = 1
		}
		add(weightSpay, spay)
	}

	if weights == 0 {
		return neutralScore
	}
	return clamp01(sum / weights)
}

func sizeScore(a, b domain.Size) float64 {
	oa, ob := a.Ordinal(), b.Ordinal()
	if oa == 0 || ob == 0 {
		return neutralScore
	}
	switch absInt(oa - ob) {
	case 0:
		return 1
	case 1:
		return 0.5
	}
	return 0
}

func energyScore(a, b domain.EnergyLevel) float64 {
	oa, ob := a.Ordinal(), b.Ordinal()
	if oa == 0 || ob == 0 {
		return neutralScore
	}
	return clamp01(1 - float64(absInt(oa-ob))/4)
}

func ageScore(a, b int) float64 {
	if a < 0 {
		a = 0
	}
	if b < 0 {
		b = 0
	}
	diff := absInt(a - b)
	switch {
	case diff <= 2:
		return 1
	case diff <= 4:
		return 0.7
	case diff <= 6:
		return 0.4
	}
	return 0.1
}

func breedScore(a, b string) float64 {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return neutralScore
	}
	if a == b {
		return 1
	}
	return 0.5
}

func friendlinessScore(a, b domain.Friendliness) float64 {
	oa, ob := a.Ordinal(), b.Ordinal()
	if oa == 0 || ob == 0 {
		return neutralScore
	}
	switch absInt(oa - ob) {
	case 0:
		return 1
	case 1:
		return 0.7
	}
	return 0.4
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
