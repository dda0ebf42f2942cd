package store

import (
	"fmt"
	"sync"

	"github.com/Mametango/home-signage-sub000/internal/weather"
)

// ErrNotFound is returned when no cycle has produced a snapshot for a location.
var ErrNotFound = fmt.Errorf("%w for location", weather.ErrNoSnapshot)

// SnapshotStore keeps the displayed snapshot of each location. A save
// replaces the previous snapshot outright; nothing older is retained.
type SnapshotStore struct {
	mu      sync.RWMutex
	current map[string]weather.WeatherSnapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{current: make(map[string]weather.WeatherSnapshot)}
}

// SaveSnapshot makes snapshot the current one for its location.
func (s *SnapshotStore) SaveSnapshot(snapshot weather.WeatherSnapshot) {
	s.mu.Lock()
	s.current[snapshot.Location.Key()] = snapshot
	s.mu.Unlock()
}

func (s *SnapshotStore) GetLatest(loc weather.Location) (weather.WeatherSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.current[loc.Key()]
	if !ok {
		return weather.WeatherSnapshot{}, ErrNotFound
	}
	return snapshot, nil
}
