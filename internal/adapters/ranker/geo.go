package ranker

import (
	"math"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
)

const earthRadiusKm = 6371.0

// neutralScore используется, когда данных для оценки недостаточно.
const neutralScore = 0.5

// Haversine возвращает расстояние по большому кругу в километрах.
func Haversine(a, b domain.Location) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	// Для почти противоположных точек округление выводит h за 1.
	h = clamp01(h)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// LocationScore оценивает близость двух точек в диапазоне [0,1].
// Если хотя бы одна точка неизвестна, возвращается нейтральные 0.5.
func LocationScore(a, b *domain.Location, maxDistanceKm float64) float64 {
	if a == nil || b == nil || maxDistanceKm <= 0 {
		return neutralScore
	}
	d := Haversine(*a, *b)
	if d > maxDistanceKm {
		return 0
	}
	return clamp01(1 - d/maxDistanceKm)
}

// ProfileLocationScore считает LocationScore по координатам двух профилей.
func ProfileLocationScore(a, b domain.Profile, maxDistanceKm float64) float64 {
	return LocationScore(locationPtr(a), locationPtr(b), maxDistanceKm)
}

func locationPtr(p domain.Profile) *domain.Location {
	loc, ok := p.Location()
	if !ok {
		return nil
	}
	return &loc
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
