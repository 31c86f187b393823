// Package learning maintains per-venue rolling "best observed" profiles,
// keyed by coarse time slots so that Friday nights accumulate a profile
// distinct from Tuesday nights.
package learning

import (
	"fmt"
	"time"
)

// Time slots are 3-hour buckets; "Friday-21" covers Friday 21:00-24:00.
const slotHours = 3

// confidenceSaturationWeeks is where confidence reaches 100%. The exact
// curve is a tunable, not a contract.
const confidenceSaturationWeeks = 8

// Profile is the best-performing session observed for one (venue, slot).
type Profile struct {
	VenueID       string       `json:"venueId"`
	TimeSlot      string       `json:"timeSlot"`
	AvgSound      float64      `json:"avgSound"`
	AvgLight      float64      `json:"avgLight"`
	PeakOccupancy int          `json:"peakOccupancy"`
	Score         float64      `json:"score"`
	DayOfWeek     time.Weekday `json:"dayOfWeek"`
	Date          time.Time    `json:"date"`
}

// SessionStats summarizes a completed session for profile comparison.
// Score is optional: a session without a composite score can only seed an
// empty slot, never displace an existing profile.
type SessionStats struct {
	AvgSound      float64
	AvgLight      float64
	PeakOccupancy int
	Score         *float64
	Date          time.Time
}

// Learning is the per-venue summary exposed to consumers.
type Learning struct {
	BestNights  map[string]Profile `json:"bestNights"`
	WeeksOfData int                `json:"weeksOfData"`
	Confidence  float64            `json:"confidence"`
}

// Store is the learned-profile persistence contract. An empty store is a
// normal state: BestNightProfile returns (nil, nil) for unknown slots and
// every consumer treats that as "use defaults".
type Store interface {
	// RecordSession updates the slot's profile when stats describe a better
	// session. Writes for the same venue are serialized by the store.
	RecordSession(venueID, timeSlot string, stats SessionStats) error
	BestNightProfile(venueID, timeSlot string) (*Profile, error)
	Learning(venueID string) (Learning, error)
}

// TimeSlot buckets t into its 3-hour slot key, e.g. "Friday-21".
func TimeSlot(t time.Time) string {
	startHour := (t.Hour() / slotHours) * slotHours
	return fmt.Sprintf("%s-%02d", t.Weekday(), startHour)
}

// SlotStart returns the beginning of the slot containing t.
func SlotStart(t time.Time) time.Time {
	startHour := (t.Hour() / slotHours) * slotHours
	return time.Date(t.Year(), t.Month(), t.Day(), startHour, 0, 0, 0, t.Location())
}

// SlotDuration is the width of one time slot.
func SlotDuration() time.Duration {
	return slotHours * time.Hour
}

// Confidence maps weeks of observed data to a 0-100 confidence percentage,
// linear up to the saturation point.
func Confidence(weeksOfData int) float64 {
	if weeksOfData <= 0 {
		return 0
	}
	if weeksOfData >= confidenceSaturationWeeks {
		return 100
	}
	return float64(weeksOfData) * 100 / confidenceSaturationWeeks
}

// betterSession decides whether stats should replace existing. Preference
// order: any profile beats an empty slot; among scored sessions the higher
// composite score wins; an unscored session never displaces a stored one.
func betterSession(existing *Profile, stats SessionStats) bool {
	if existing == nil {
		return true
	}
	if stats.Score == nil {
		return false
	}
	return *stats.Score > existing.Score
}

func profileFromStats(venueID, timeSlot string, stats SessionStats) Profile {
	p := Profile{
		VenueID:       venueID,
		TimeSlot:      timeSlot,
		AvgSound:      stats.AvgSound,
		AvgLight:      stats.AvgLight,
		PeakOccupancy: stats.PeakOccupancy,
		DayOfWeek:     stats.Date.Weekday(),
		Date:          stats.Date,
	}
	if stats.Score != nil {
		p.Score = *stats.Score
	}
	return p
}

// weekKey identifies the ISO week of a session date, for weeks-of-data
// accounting.
func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-%02d", year, week)
}
