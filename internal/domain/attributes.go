package domain

import "strings"

// Size описывает размер собаки. Пустое значение означает «не указан».
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// EnergyLevel описывает уровень активности собаки.
type EnergyLevel string

const (
	EnergyLow      EnergyLevel = "low"
	EnergyMedium   EnergyLevel = "medium"
	EnergyHigh     EnergyLevel = "high"
	EnergyVeryHigh EnergyLevel = "very_high"
)

// Friendliness описывает дружелюбность собаки.
type Friendliness string

const (
	FriendlinessShy          Friendliness = "shy"
	FriendlinessFriendly     Friendliness = "friendly"
	FriendlinessVeryFriendly Friendliness = "very_friendly"
)

var sizeOrder = map[Size]int{SizeSmall: 1, SizeMedium: 2, SizeLarge: 3}

var energyOrder = map[EnergyLevel]int{EnergyLow: 1, EnergyMedium: 2, EnergyHigh: 3, EnergyVeryHigh: 4}

var friendlinessOrder = map[Friendliness]int{FriendlinessShy: 1, FriendlinessFriendly: 2, FriendlinessVeryFriendly: 3}

// Ordinal возвращает порядковый номер размера или 0, если размер не задан.
func (s Size) Ordinal() int { return sizeOrder[s] }

// Ordinal возвращает порядковый номер (low=1 … very_high=4) или 0.
func (e EnergyLevel) Ordinal() int { return energyOrder[e] }

// Ordinal возвращает порядковый номер дружелюбности или 0.
func (f Friendliness) Ordinal() int { return friendlinessOrder[f] }

// ParseSize приводит произвольную строку к Size. Неизвестные значения дают пустой размер.
func ParseSize(raw string) Size {
	s := Size(normalizeAttr(raw))
	if _, ok := sizeOrder[s]; ok {
		return s
	}
	return ""
}

// ParseEnergyLevel приводит строку к EnergyLevel.
func ParseEnergyLevel(raw string) EnergyLevel {
	e := EnergyLevel(normalizeAttr(raw))
	if _, ok := energyOrder[e]; ok {
		return e
	}
	return ""
}

// ParseFriendliness приводит строку к Friendliness.
func ParseFriendliness(raw string) Friendliness {
	f := Friendliness(normalizeAttr(raw))
	if _, ok := friendlinessOrder[f]; ok {
		return f
	}
	return ""
}

func normalizeAttr(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.ReplaceAll(v, "-", "_")
	return strings.ReplaceAll(v, " ", "_")
}
