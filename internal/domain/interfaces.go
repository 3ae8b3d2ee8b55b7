package domain

import (
	"context"
	"time"
)

// ProfileRepo описывает внешний репозиторий профилей.
type ProfileRepo interface {
	GetProfile(ctx context.Context, id string) (Profile, error)
	GetCandidatePool(ctx context.Context, excludingOwner string, limit int) ([]Profile, error)
	GetCandidatePoolNear(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]Profile, error)
}

// LocationProvider отдаёт последнее известное местоположение владельца.
// ok=false означает, что местоположение неизвестно.
type LocationProvider interface {
	LastKnownLocation(ctx context.Context, ownerID string) (loc Location, ok bool, err error)
}

// ExclusionStore хранит профили, которые владелец скрыл из подбора.
type ExclusionStore interface {
	Excluded(ctx context.Context, ownerID string) ([]string, error)
	Exclude(ctx context.Context, ownerID, profileID string) error
}

// CandidateQueue описывает очередь кандидатов с приоритетом по расстоянию.
type CandidateQueue interface {
	Insert(p Profile, distanceKm float64)
	InsertBatch(profiles []Profile, requester *Location)
	ReplaceBatch(profiles []Profile, requester *Location)
	NextBatch(size int) []Profile
	Remove(profileID string)
	Clear()
	Expire(maxAge time.Duration) int
	Stats() QueueStats
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(ctx context.Context, key string, ttl time.Duration, fn func() error) error
}
