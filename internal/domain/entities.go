package domain

import "time"

// Location описывает географическую точку в градусах.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Profile описывает пару «собака и владелец», участвующую в подборе.
// Для движка значение неизменяемо: владеет им внешний репозиторий.
type Profile struct {
	ID           string       `json:"id"`
	OwnerID      string       `json:"owner_id"`
	Name         string       `json:"name"`
	Breed        string       `json:"breed"`
	Age          int          `json:"age"`
	Size         Size         `json:"size,omitempty"`
	Energy       EnergyLevel  `json:"energy_level,omitempty"`
	Friendliness Friendliness `json:"friendliness,omitempty"`
	Spayed       *bool        `json:"is_spayed_neutered,omitempty"`
	Lat          *float64     `json:"latitude,omitempty"`
	Lon          *float64     `json:"longitude,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	LastActiveAt time.Time    `json:"last_active_at"`
}

// Location возвращает координаты профиля, если обе известны.
func (p Profile) Location() (Location, bool) {
	if p.Lat == nil || p.Lon == nil {
		return Location{}, false
	}
	return Location{Lat: *p.Lat, Lon: *p.Lon}, true
}

// WithLocation возвращает копию профиля с заданными координатами.
func (p Profile) WithLocation(loc Location) Profile {
	lat, lon := loc.Lat, loc.Lon
	p.Lat = &lat
	p.Lon = &lon
	return p
}

// ProfileScore хранит оценки кандидата в рамках одного запроса подбора.
type ProfileScore struct {
	Profile      Profile `json:"profile"`
	Base         float64 `json:"base"`
	Location     float64 `json:"location"`
	Activity     float64 `json:"activity"`
	NewUserBoost float64 `json:"new_user_boost"`
	Final        float64 `json:"final"`
}

// QueueEntry описывает элемент очереди с расстоянием на момент вставки.
type QueueEntry struct {
	Profile    Profile
	DistanceKm float64
	InsertedAt time.Time
}

// QueueStats хранит снимок размеров корзин очереди.
type QueueStats struct {
	VeryClose int `json:"very_close"`
	Close     int `json:"close"`
	Medium    int `json:"medium"`
	Far       int `json:"far"`
	Total     int `json:"total"`
}
