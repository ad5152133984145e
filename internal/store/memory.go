package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rickykhulal/bolt-earth/internal/weather"
)

var (
	// ErrNotFound is returned when no snapshot was ever stored for a location.
	ErrNotFound = errors.New("no merged readings for location")
)

// MemoryStore is a concurrency-safe in-memory history of merged snapshots,
// kept per location key in timestamp order.
type MemoryStore struct {
	mu sync.RWMutex

	// key: location key, value: snapshots ordered by Timestamp
	data map[string][]weather.Snapshot

	// retention configuration
	maxHistory int           // max number of snapshots per location
	maxAge     time.Duration // optional max age for snapshots

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string][]weather.Snapshot),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveSnapshot inserts a snapshot for a location and enforces retention.
// The newest snapshot always survives age retention so a location never loses
// its last good reading.
func (s *MemoryStore) SaveSnapshot(loc weather.Location, snapshot weather.Snapshot) {
	key := loc.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.data[key]
	i := sort.Search(len(history), func(i int) bool {
		return history[i].Timestamp.After(snapshot.Timestamp)
	})
	history = append(history, weather.Snapshot{})
	copy(history[i+1:], history[i:])
	history[i] = snapshot

	// Enforce retention by count.
	drop := 0
	if s.maxHistory > 0 && len(history) > s.maxHistory {
		drop = len(history) - s.maxHistory
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		aged := sort.Search(len(history), func(i int) bool {
			return !history[i].Timestamp.Before(cutoff)
		})
		if aged >= len(history) {
			aged = len(history) - 1
		}
		drop = max(drop, aged)
	}

	s.data[key] = trimFront(history, drop)
}

// trimFront drops the first n snapshots into a fresh slice so the old backing
// array can be collected.
func trimFront(history []weather.Snapshot, n int) []weather.Snapshot {
	if n <= 0 {
		return history
	}
	return append(make([]weather.Snapshot, 0, len(history)-n), history[n:]...)
}

// GetLatest returns the most recent snapshot for a location.
func (s *MemoryStore) GetLatest(loc weather.Location) (weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[loc.Key()]
	if len(history) == 0 {
		return weather.Snapshot{}, ErrNotFound
	}
	return history[len(history)-1], nil
}

// GetRange returns all snapshots for a location between from and to (inclusive).
// A known location with nothing in the window yields an empty slice.
func (s *MemoryStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[loc.Key()]
	if !ok || len(history) == 0 {
		return nil, ErrNotFound
	}

	start := sort.Search(len(history), func(i int) bool {
		return !history[i].Timestamp.Before(from)
	})
	end := sort.Search(len(history), func(i int) bool {
		return history[i].Timestamp.After(to)
	})
	if start >= end {
		return []weather.Snapshot{}, nil
	}

	result := make([]weather.Snapshot, end-start)
	copy(result, history[start:end])
	return result, nil
}

var _ weather.Store = (*MemoryStore)(nil)
