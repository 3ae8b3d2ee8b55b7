package ranker

import "github.com/GoSteelers88/PawsomePals-sub003/internal/domain"

// Weights хранит веса итоговой оценки кандидата, сумма равна 1.
type Weights struct {
	Base     float64
	Location float64
	Activity float64
	Boost    float64
}

// WeightsFor строит нормированные веса по настройкам подбора.
//
// Флаг PrioritizeLocation=true даёт вес 0.4, а false даёт 0.3; для активности 0.2 и 0.1.
// Исходная система трактует эти флаги неоднозначно, поведение сохранено буквально
// (см. DESIGN.md, открытый вопрос про инверсию флагов).
func WeightsFor(prefs domain.DiscoveryPreferences) Weights {
	w := Weights{Base: 0.4, Location: 0.3, Activity: 0.1, Boost: 0.1}
	if prefs.PrioritizeLocation {
		w.Location = 0.4
	}
	if prefs.PrioritizeActivity {
		w.Activity = 0.2
	}
	total := w.Base + w.Location + w.Activity + w.Boost
	w.Base /= total
	w.Location /= total
	w.Activity /= total
	w.Boost /= total
	return w
}

// Combine считает итоговую оценку по подоценкам.
func (w Weights) Combine(s domain.ProfileScore) float64 {
	return w.Base*s.Base + w.Location*s.Location + w.Activity*s.Activity + w.Boost*s.NewUserBoost
}
