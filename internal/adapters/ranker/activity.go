package ranker

import (
	"strings"
	"time"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
)

const (
	minActivityScore = 0.3
	newProfileWindow = 7 * 24 * time.Hour
	recencyWindow    = 30 * 24 * time.Hour
)

// ActivityFunc оценивает «активность» кандидата в диапазоне [0,1].
type ActivityFunc func(p domain.Profile, now time.Time) float64

// CompletenessActivity заменяет сигнал вовлечённости грубой оценкой: доля заполненных
// полей из {имя, порода, возраст}, не ниже 0.3.
func CompletenessActivity(p domain.Profile, _ time.Time) float64 {
	filled := 0
	if strings.TrimSpace(p.Name) != "" {
		filled++
	}
	if strings.TrimSpace(p.Breed) != "" {
		filled++
	}
	if p.Age > 0 {
		filled++
	}
	score := float64(filled) / 3
	if score < minActivityScore {
		return minActivityScore
	}
	return score
}

// RecencyActivity оценивает активность по времени последнего входа:
// 1.0 в первые сутки, затем линейно до 0 за 30 дней.
// По умолчанию не используется, включается через DISCOVERY_ACTIVITY_MODE=recency.
func RecencyActivity(p domain.Profile, now time.Time) float64 {
	if p.LastActiveAt.IsZero() {
		return 0
	}
	idle := now.Sub(p.LastActiveAt)
	if idle <= 24*time.Hour {
		return 1
	}
	return clamp01(1 - float64(idle)/float64(recencyWindow))
}

// ActivityByMode выбирает функцию активности по имени режима.
func ActivityByMode(mode string) ActivityFunc {
	if strings.EqualFold(strings.TrimSpace(mode), "recency") {
		return RecencyActivity
	}
	return CompletenessActivity
}

// NewProfileBoost линейно убывает от 1 до 0 за семь дней с момента создания профиля.
func NewProfileBoost(createdAt, now time.Time) float64 {
	if createdAt.IsZero() {
		return 0
	}
	age := now.Sub(createdAt)
	if age < 0 {
		return 1
	}
	if age >= newProfileWindow {
		return 0
	}
	return 1 - float64(age)/float64(newProfileWindow)
}
