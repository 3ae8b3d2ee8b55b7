package domain

// DefaultMaxDistanceKm задаёт радиус поиска по умолчанию.
const DefaultMaxDistanceKm = 50.0

// DiscoveryPreferences настраивает один вызов подбора.
type DiscoveryPreferences struct {
	MaxDistanceKm      float64
	PrioritizeLocation bool
	PrioritizeActivity bool
	IncludeNewProfiles bool
	ExcludedOwnerIDs   map[string]struct{}
	ExcludedProfileIDs map[string]struct{}
}

// DefaultPreferences возвращает настройки подбора по умолчанию.
func DefaultPreferences() DiscoveryPreferences {
	return DiscoveryPreferences{
		MaxDistanceKm:      DefaultMaxDistanceKm,
		PrioritizeLocation: true,
		PrioritizeActivity: true,
		IncludeNewProfiles: true,
	}
}

// WithDefaults подставляет радиус по умолчанию, если он не задан.
func (p DiscoveryPreferences) WithDefaults() DiscoveryPreferences {
	if p.MaxDistanceKm <= 0 {
		p.MaxDistanceKm = DefaultMaxDistanceKm
	}
	return p
}

// ExcludeOwners добавляет владельцев в список исключений.
func (p *DiscoveryPreferences) ExcludeOwners(ids ...string) {
	if p.ExcludedOwnerIDs == nil {
		p.ExcludedOwnerIDs = make(map[string]struct{}, len(ids))
	}
	for _, id := range ids {
		if id != "" {
			p.ExcludedOwnerIDs[id] = struct{}{}
		}
	}
}

// ExcludeProfiles добавляет профили в список исключений.
func (p *DiscoveryPreferences) ExcludeProfiles(ids ...string) {
	if p.ExcludedProfileIDs == nil {
		p.ExcludedProfileIDs = make(map[string]struct{}, len(ids))
	}
	for _, id := range ids {
		if id != "" {
			p.ExcludedProfileIDs[id] = struct{}{}
		}
	}
}

// IsOwnerExcluded сообщает, исключён ли владелец.
func (p DiscoveryPreferences) IsOwnerExcluded(id string) bool {
	_, ok := p.ExcludedOwnerIDs[id]
	return ok
}

// IsProfileExcluded сообщает, исключён ли профиль.
func (p DiscoveryPreferences) IsProfileExcluded(id string) bool {
	_, ok := p.ExcludedProfileIDs[id]
	return ok
}

// Clone возвращает копию настроек с собственными множествами исключений.
func (p DiscoveryPreferences) Clone() DiscoveryPreferences {
	out := p
	out.ExcludedOwnerIDs = nil
	out.ExcludedProfileIDs = nil
	for id := range p.ExcludedOwnerIDs {
		out.ExcludeOwners(id)
	}
	for id := range p.ExcludedProfileIDs {
		out.ExcludeProfiles(id)
	}
	return out
}
