package location

import (
	"context"
	"sync"

	"github.com/GoSteelers88/PawsomePals-sub003/internal/domain"
)

// Static хранит местоположения в памяти. Используется в тестах и без Redis.
type Static struct {
	mu   sync.RWMutex
	locs map[string]domain.Location
}

var _ domain.LocationProvider = (*Static)(nil)

// NewStatic создаёт провайдер с начальными данными.
func NewStatic(initial map[string]domain.Location) *Static {
	locs := make(map[string]domain.Location, len(initial))
	for k, v := range initial {
		locs[k] = v
	}
	return &Static{locs: locs}
}

// Set обновляет местоположение владельца.
func (s *Static) Set(ownerID string, loc domain.Location) {
	s.mu.Lock()
	s.locs[ownerID] = loc
	s.mu.Unlock()
}

// LastKnownLocation возвращает сохранённую точку.
func (s *Static) LastKnownLocation(_ context.Context, ownerID string) (domain.Location, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.locs[ownerID]
	return loc, ok, nil
}
