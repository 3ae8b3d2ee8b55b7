package httpapi

import (
	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
)

type discoverRequest struct {
	MaxDistanceKm      float64  `json:"max_distance_km" validate:"gte=0,lte=20000"`
	PrioritizeLocation *bool    `json:"prioritize_location"`
	PrioritizeActivity *bool    `json:"prioritize_activity"`
	IncludeNewProfiles *bool    `json:"include_new_profiles"`
	ExcludedOwnerIDs   []string `json:"excluded_owner_ids" validate:"max=1000,dive,required"`
	ExcludedProfileIDs []string `json:"excluded_profile_ids" validate:"max=1000,dive,required"`
}

// preferences применяет запрос поверх базовых настроек.
func (r discoverRequest) preferences(base domain.DiscoveryPreferences) domain.DiscoveryPreferences {
	prefs := base
	if r.MaxDistanceKm > 0 {
		prefs.MaxDistanceKm = r.MaxDistanceKm
	}
	if r.PrioritizeLocation != nil {
		prefs.PrioritizeLocation = *r.PrioritizeLocation
	}
	if r.PrioritizeActivity != nil {
		prefs.PrioritizeActivity = *r.PrioritizeActivity
	}
	if r.IncludeNewProfiles != nil {
		prefs.IncludeNewProfiles = *r.IncludeNewProfiles
	}
	prefs.ExcludeOwners(r.ExcludedOwnerIDs...)
	prefs.ExcludeProfiles(r.ExcludedProfileIDs...)
	return prefs
}

func (r discoverRequest) job(profileID string, base domain.DiscoveryPreferences) domain.DiscoveryJob {
	prefs := r.preferences(base)
	return domain.DiscoveryJob{
		ProfileID:          profileID,
		MaxDistanceKm:      prefs.MaxDistanceKm,
		PrioritizeLocation: prefs.PrioritizeLocation,
		PrioritizeActivity: prefs.PrioritizeActivity,
		IncludeNewProfiles: prefs.IncludeNewProfiles,
		ExcludedOwnerIDs:   r.ExcludedOwnerIDs,
		ExcludedProfileIDs: r.ExcludedProfileIDs,
	}
}

type batchQuery struct {
	Size int `validate:"gte=0,lte=500"`
}

type discoverResponse struct {
	RequestID string                `json:"request_id"`
	Profiles  []domain.Profile      `json:"profiles"`
	Scores    []domain.ProfileScore `json:"scores"`
}

type failureResponse struct {
	Error     string `json:"error"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type jobResponse struct {
	JobID  string `json:"job_id"`
	Queued bool   `json:"queued"`
}

type batchResponse struct {
	Profiles []domain.Profile `json:"profiles"`
}

type expireResponse struct {
	Removed int `json:"removed"`
}
