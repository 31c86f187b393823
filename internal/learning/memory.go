package learning

import (
	"sync"
)

// MemoryStore is a concurrency-safe in-memory learning store. Profile writes
// are serialized per venue by a dedicated mutex so two concurrent sessions'
// results cannot race a "is this session better" check.
type MemoryStore struct {
	mu sync.RWMutex

	// key: venue id
	profiles map[string]map[string]Profile
	weeks    map[string]map[string]struct{}

	venueMu sync.Mutex
	writers map[string]*sync.Mutex
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]map[string]Profile),
		weeks:    make(map[string]map[string]struct{}),
		writers:  make(map[string]*sync.Mutex),
	}
}

// RecordSession updates the stored profile for the slot if stats represent a
// better session, and tracks the session's week for confidence accounting.
func (s *MemoryStore) RecordSession(venueID, timeSlot string, stats SessionStats) error {
	writer := s.venueWriter(venueID)
	writer.Lock()
	defer writer.Unlock()

	existing, err := s.BestNightProfile(venueID, timeSlot)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.weeks[venueID] == nil {
		s.weeks[venueID] = make(map[string]struct{})
	}
	s.weeks[venueID][weekKey(stats.Date)] = struct{}{}

	if !betterSession(existing, stats) {
		return nil
	}

	if s.profiles[venueID] == nil {
		s.profiles[venueID] = make(map[string]Profile)
	}
	s.profiles[venueID][timeSlot] = profileFromStats(venueID, timeSlot, stats)
	return nil
}

// BestNightProfile returns the stored profile for the slot, or (nil, nil)
// when the venue hasn't learned that slot yet.
func (s *MemoryStore) BestNightProfile(venueID, timeSlot string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slots, ok := s.profiles[venueID]
	if !ok {
		return nil, nil
	}
	p, ok := slots[timeSlot]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// Learning returns the venue's full learned state.
func (s *MemoryStore) Learning(venueID string) (Learning, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best := make(map[string]Profile, len(s.profiles[venueID]))
	for slot, p := range s.profiles[venueID] {
		best[slot] = p
	}

	weeks := len(s.weeks[venueID])
	return Learning{
		BestNights:  best,
		WeeksOfData: weeks,
		Confidence:  Confidence(weeks),
	}, nil
}

func (s *MemoryStore) venueWriter(venueID string) *sync.Mutex {
	s.venueMu.Lock()
	defer s.venueMu.Unlock()

	w, ok := s.writers[venueID]
	if !ok {
		w = &sync.Mutex{}
		s.writers[venueID] = w
	}
	return w
}
