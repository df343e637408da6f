package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/ambient-weather/internal/weather"
)

var (
	// ErrNotFound is returned when no observation is stored for a device.
	ErrNotFound = errors.New("no observations for device")
)

// MemoryStore is a concurrency-safe in-memory store of device snapshots.
// Each device's history is kept sorted by timestamp with at most one
// snapshot per timestamp.
type MemoryStore struct {
	mu sync.RWMutex

	// key: device key, value: snapshots oldest first
	data map[string][]weather.Snapshot

	maxHistory int           // max number of snapshots per device
	maxAge     time.Duration // optional max age for snapshots
	now        func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory or maxAge is <= 0, that limit is disabled.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string][]weather.Snapshot),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveSnapshot inserts a snapshot in timestamp order and enforces
// retention. It reports false when the device already has a snapshot with
// the same timestamp.
func (s *MemoryStore) SaveSnapshot(snapshot weather.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.data[snapshot.Device]

	i := sort.Search(len(history), func(i int) bool {
		return !history[i].Timestamp.Before(snapshot.Timestamp)
	})
	if i < len(history) && history[i].Timestamp.Equal(snapshot.Timestamp) {
		return false
	}

	history = append(history, weather.Snapshot{})
	copy(history[i+1:], history[i:])
	history[i] = snapshot

	history = s.retain(history)
	s.data[snapshot.Device] = history

	// Retention may have dropped the snapshot that was just inserted.
	j := sort.Search(len(history), func(j int) bool {
		return !history[j].Timestamp.Before(snapshot.Timestamp)
	})
	return j < len(history) && history[j].Timestamp.Equal(snapshot.Timestamp)
}

func (s *MemoryStore) retain(history []weather.Snapshot) []weather.Snapshot {
	// Enforce retention by count.
	if s.maxHistory > 0 && len(history) > s.maxHistory {
		over := len(history) - s.maxHistory
		history = append(history[:0:0], history[over:]...)
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := sort.Search(len(history), func(i int) bool {
			return !history[i].Timestamp.Before(cutoff)
		})
		if i > 0 {
			history = append(history[:0:0], history[i:]...)
		}
	}

	return history
}

// GetLatest returns the most recent snapshot for a device.
func (s *MemoryStore) GetLatest(device string) (weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[device]
	if len(history) == 0 {
		return weather.Snapshot{}, ErrNotFound
	}
	return history[len(history)-1], nil
}

// GetRange returns all snapshots for a device between from and to (inclusive), oldest first.
func (s *MemoryStore) GetRange(device string, from, to time.Time) ([]weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[device]
	if len(history) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.Snapshot
	for _, snap := range history {
		if !snap.Timestamp.Before(from) && !snap.Timestamp.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}

// Len returns the number of snapshots held for a device.
func (s *MemoryStore) Len(device string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data[device])
}
