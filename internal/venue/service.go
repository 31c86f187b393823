package venue

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pulsehq/venue-pulse/internal/learning"
)

// ReadingSource supplies readings for a venue over a time window. The
// concrete store paginates internally; the pipeline always receives a
// materialized list, possibly empty and possibly unordered.
type ReadingSource interface {
	ReadingsBetween(ctx context.Context, venueID string, from, to time.Time) ([]Reading, error)
}

// Service runs the full analytics pipeline for a venue: bar-day windowing,
// occupancy reconciliation, dwell estimation and composite scoring. Each run
// is pure over its input window and idempotent; the learning store is the
// only persistent mutable state.
type Service struct {
	readings     ReadingSource
	learning     learning.Store
	boundaryHour int
}

// NewService creates a Service. boundaryHour is the bar-day start hour and
// must already be validated by config (0-23).
func NewService(readings ReadingSource, learningStore learning.Store, boundaryHour int) *Service {
	return &Service{
		readings:     readings,
		learning:     learningStore,
		boundaryHour: boundaryHour,
	}
}

// ComputeVenueState aggregates occupancy, dwell and score for the venue's
// current bar day. Data absence is never an error: an empty window produces
// zero occupancy with NoData set, a nil dwell and a nil score. Errors are
// reserved for failing collaborators.
func (s *Service) ComputeVenueState(ctx context.Context, venueID string, now time.Time) (VenueState, error) {
	if venueID == "" {
		return VenueState{}, fmt.Errorf("venue id is required")
	}

	day := CurrentBarDay(now, s.boundaryHour)

	readings, err := s.readings.ReadingsBetween(ctx, venueID, day.Start, now)
	if err != nil {
		return VenueState{}, fmt.Errorf("fetch readings for %s: %w", venueID, err)
	}

	window := sortedWindow(readings, day)
	occ := ReconcileOccupancy(window, day)
	dwell := EstimateDwell(window, day, occ.DeviceClass)

	var latest *Reading
	if len(window) > 0 {
		latest = &window[len(window)-1]
	}

	slot := learning.TimeSlot(now)
	profile, err := s.learning.BestNightProfile(venueID, slot)
	if err != nil {
		// A broken learning store degrades to defaults; the score is still
		// computable and a dashboard mid-session must keep rendering.
		log.Printf("learning: profile lookup failed for %s %s: %v", venueID, slot, err)
		profile = nil
	}

	capacity := EstimateCapacity(reportedCapacity(latest), historicalPeak(profile, occ))
	score := ComputeScore(latest, occ, capacity, profile)

	return VenueState{
		VenueID:    venueID,
		ComputedAt: now,
		BarDay:     day,
		Occupancy:  occ,
		Dwell:      dwell,
		Score:      score,
	}, nil
}

// RecordSlotSession summarizes the time slot that ended at now's slot
// boundary and offers it to the learning store. Called by the scheduler once
// per slot; an empty slot records nothing.
func (s *Service) RecordSlotSession(ctx context.Context, venueID string, now time.Time) error {
	slotEnd := learning.SlotStart(now)
	slotStart := slotEnd.Add(-learning.SlotDuration())
	slot := learning.TimeSlot(slotStart)

	readings, err := s.readings.ReadingsBetween(ctx, venueID, slotStart, slotEnd)
	if err != nil {
		return fmt.Errorf("fetch readings for %s: %w", venueID, err)
	}
	if len(readings) == 0 {
		return nil
	}

	// Baselines are computed against the slot's first reading: session
	// stats describe the slot, not the whole bar day.
	slotWindow := BarDay{Start: slotStart, End: slotEnd}
	window := sortedWindow(readings, slotWindow)
	if len(window) == 0 {
		return nil
	}

	var sumSound, sumLight float64
	for i := range window {
		sumSound += window[i].SoundLevel
		sumLight += window[i].LightLevel
	}
	n := float64(len(window))

	occ := ReconcileOccupancy(window, slotWindow)

	stats := learning.SessionStats{
		AvgSound:      sumSound / n,
		AvgLight:      sumLight / n,
		PeakOccupancy: occ.Peak,
		Date:          slotStart,
	}

	latest := &window[len(window)-1]
	profile, err := s.learning.BestNightProfile(venueID, slot)
	if err != nil {
		log.Printf("learning: profile lookup failed for %s %s: %v", venueID, slot, err)
		profile = nil
	}
	capacity := EstimateCapacity(reportedCapacity(latest), historicalPeak(profile, occ))
	if score := ComputeScore(latest, occ, capacity, profile); score != nil {
		stats.Score = &score.Score
	}

	if err := s.learning.RecordSession(venueID, slot, stats); err != nil {
		return fmt.Errorf("record session for %s %s: %w", venueID, slot, err)
	}

	log.Printf("learning: recorded session for %s %s (peak %d)", venueID, slot, stats.PeakOccupancy)
	return nil
}

// Learning returns the venue's learned-profile summary.
func (s *Service) Learning(venueID string) (learning.Learning, error) {
	return s.learning.Learning(venueID)
}

// reportedCapacity pulls the device-reported capacity from the latest
// reading when present.
func reportedCapacity(latest *Reading) int {
	if latest == nil || latest.Occupancy == nil {
		return 0
	}
	return latest.Occupancy.Capacity
}

// historicalPeak prefers the learned profile's recorded peak over today's,
// so the capacity estimate doesn't collapse early in a session.
func historicalPeak(profile *learning.Profile, occ OccupancyResult) int {
	peak := occ.Peak
	if profile != nil && profile.PeakOccupancy > peak {
		peak = profile.PeakOccupancy
	}
	return peak
}
