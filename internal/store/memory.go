package store

import (
	"context"
	"sync"
	"time"

	"github.com/pulsehq/venue-pulse/internal/venue"
)

// readingHistory holds an append-ordered list of readings for a venue.
type readingHistory struct {
	readings []venue.Reading
}

// MemoryStore is a concurrency-safe in-memory reading store with retention
// limits by count and by age. It is the default backend; InfluxStore covers
// deployments that need durable history.
type MemoryStore struct {
	mu sync.RWMutex

	// key: venue id, value: history
	data map[string]*readingHistory

	maxHistory int           // max readings per venue (0 = unlimited)
	maxAge     time.Duration // max age of readings (0 = unlimited)
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*readingHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveReading appends a reading for its venue and enforces retention.
func (s *MemoryStore) SaveReading(_ context.Context, r venue.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[r.VenueID]
	if !ok {
		history = &readingHistory{}
		s.data[r.VenueID] = history
	}

	history.readings = append(history.readings, r)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.readings) > s.maxHistory {
		over := len(history.readings) - s.maxHistory
		history.readings = history.readings[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.readings); i++ {
			if !history.readings[i].Timestamp.Before(cutoff) {
				break
			}
		}
		if i > 0 && i < len(history.readings) {
			history.readings = history.readings[i:]
		}
	}

	return nil
}

// LatestReading returns the most recently saved reading for a venue.
func (s *MemoryStore) LatestReading(_ context.Context, venueID string) (venue.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[venueID]
	if !ok || len(history.readings) == 0 {
		return venue.Reading{}, ErrNotFound
	}
	return history.readings[len(history.readings)-1], nil
}

// ReadingsBetween returns all readings for a venue between from and to
// (inclusive). An unknown venue or an empty window yields an empty slice.
func (s *MemoryStore) ReadingsBetween(_ context.Context, venueID string, from, to time.Time) ([]venue.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[venueID]
	if !ok {
		return nil, nil
	}

	var result []venue.Reading
	for _, r := range history.readings {
		if !r.Timestamp.Before(from) && !r.Timestamp.After(to) {
			result = append(result, r)
		}
	}
	return result, nil
}
