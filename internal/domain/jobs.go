package domain

import (
	"context"
	"time"
)

// DiscoveryJob описывает отложенный запрос на подбор для профиля.
type DiscoveryJob struct {
	ID                 string    `json:"job_id"`
	ProfileID          string    `json:"profile_id"`
	MaxDistanceKm      float64   `json:"max_distance_km,omitempty"`
	PrioritizeLocation bool      `json:"prioritize_location"`
	PrioritizeActivity bool      `json:"prioritize_activity"`
	IncludeNewProfiles bool      `json:"include_new_profiles"`
	ExcludedOwnerIDs   []string  `json:"excluded_owner_ids,omitempty"`
	ExcludedProfileIDs []string  `json:"excluded_profile_ids,omitempty"`
	RequestedAt        time.Time `json:"requested_at"`
}

// Preferences собирает настройки подбора из задачи.
func (j DiscoveryJob) Preferences() DiscoveryPreferences {
	prefs := DiscoveryPreferences{
		MaxDistanceKm:      j.MaxDistanceKm,
		PrioritizeLocation: j.PrioritizeLocation,
		PrioritizeActivity: j.PrioritizeActivity,
		IncludeNewProfiles: j.IncludeNewProfiles,
	}
	prefs.ExcludeOwners(j.ExcludedOwnerIDs...)
	prefs.ExcludeProfiles(j.ExcludedProfileIDs...)
	return prefs.WithDefaults()
}

// DiscoveryQueue описывает очередь задач подбора.
type DiscoveryQueue interface {
	Enqueue(ctx context.Context, job DiscoveryJob) error
	Pop(ctx context.Context) (DiscoveryJob, error)
}

// ProfileEventType описывает изменение профиля во внешней системе.
type ProfileEventType string

const (
	// ProfileEventDeleted означает, что профиль удалён.
	ProfileEventDeleted ProfileEventType = "deleted"
	// ProfileEventUpdated означает, что профиль изменён и должен быть переранжирован.
	ProfileEventUpdated ProfileEventType = "updated"
)

// ProfileEvent приходит от внешнего репозитория профилей.
type ProfileEvent struct {
	Type       ProfileEventType `json:"type"`
	ProfileID  string           `json:"profile_id"`
	OwnerID    string           `json:"owner_id,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// EventAckFunc подтверждает обработку события или просит повторную доставку.
type EventAckFunc func(success bool) error

// ProfileEventSource отдаёт события об изменении профилей.
type ProfileEventSource interface {
	Receive(ctx context.Context) (ProfileEvent, EventAckFunc, error)
}
