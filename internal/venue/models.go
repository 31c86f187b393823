package venue

import (
	"time"
)

// DeviceClass describes how a venue's sensor reports occupancy.
type DeviceClass string

const (
	// DeviceCounterBased devices report monotonically increasing cumulative
	// entry/exit counters since device boot.
	DeviceCounterBased DeviceClass = "counter-based"
	// DevicePresenceOnly devices report current occupancy directly, with
	// entry/exit counters stuck at zero.
	DevicePresenceOnly DeviceClass = "presence-only"
)

// TrackInfo identifies the currently playing track, when the venue's
// player integration reports one.
type TrackInfo struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// OccupancySample is the raw occupancy block of a single reading.
// Entries and Exits are cumulative counters since device boot, not
// per-interval deltas.
type OccupancySample struct {
	Current  int `json:"current"`
	Entries  int `json:"entries"`
	Exits    int `json:"exits"`
	Capacity int `json:"capacity,omitempty"`
}

// Reading is one sensor sample for a venue at a point in time.
type Reading struct {
	ID        string    `json:"id,omitempty"`
	VenueID   string    `json:"venueId"`
	DeviceID  string    `json:"deviceId,omitempty"`
	Timestamp time.Time `json:"timestamp"` // always UTC

	SoundLevel float64 `json:"soundLevelDb"`
	LightLevel float64 `json:"lightLevelLux"`

	// Secondary environment channels carried for observability; they do
	// not participate in scoring.
	Temperature float64 `json:"temperatureF,omitempty"`
	Humidity    float64 `json:"humidityPercent,omitempty"`
	Pressure    float64 `json:"pressureHpa,omitempty"`

	CurrentTrack *TrackInfo       `json:"currentTrack,omitempty"`
	Occupancy    *OccupancySample `json:"occupancy,omitempty"`
}

// OccupancyResult is the normalized occupancy view for the active bar day.
// All counts are clamped at zero; raw counters can decrease after a sensor
// reboot and must never surface as negative derived values.
type OccupancyResult struct {
	Current      int `json:"current"`
	TodayEntries int `json:"todayEntries"`
	TodayExits   int `json:"todayExits"`
	Peak         int `json:"peakOccupancy"`

	DeviceClass DeviceClass `json:"deviceClass"`

	// Estimated is true when entries/exits were inferred from presence
	// deltas rather than read from counters.
	Estimated bool `json:"isEstimated"`

	// NoData is true when the bar-day window held no readings. A venue
	// before opening legitimately has zero data; this is not an error.
	NoData bool `json:"noData"`

	// Strategy names which fallback produced this result.
	Strategy string `json:"strategy,omitempty"`
}

// DwellEstimate is the average guest dwell time for the active bar day,
// with the bounds of the surviving samples as a rough confidence band.
// A nil *DwellEstimate means "unavailable".
type DwellEstimate struct {
	Average  time.Duration `json:"-"`
	Shortest time.Duration `json:"-"`
	Longest  time.Duration `json:"-"`
	Samples  int           `json:"samples"`

	AverageMinutes  float64 `json:"averageMinutes"`
	ShortestMinutes float64 `json:"shortestMinutes"`
	LongestMinutes  float64 `json:"longestMinutes"`
}

// ScoreStatus buckets a composite score for presentation.
type ScoreStatus string

const (
	StatusOptimal ScoreStatus = "optimal"
	StatusGood    ScoreStatus = "good"
	StatusPoor    ScoreStatus = "poor"
)

// FactorScores holds the 0-100 sub-scores behind a composite score.
// Music is nil when no track metadata was available; an absent factor is
// excluded from the weighted sum rather than scored as zero.
type FactorScores struct {
	Sound float64  `json:"sound"`
	Light float64  `json:"light"`
	Crowd float64  `json:"crowd"`
	Music *float64 `json:"music,omitempty"`
}

// ScoreResult is the composite environmental quality score.
// A nil *ScoreResult means "no score": the window held no readings, which
// presentation layers must render differently from a quiet venue.
type ScoreResult struct {
	Score   float64      `json:"score"`
	Status  ScoreStatus  `json:"status"`
	Factors FactorScores `json:"factorScores"`

	// UsingHistoricalData is true only when a learned profile existed for
	// the current time slot; false means static defaults were used and the
	// venue is still learning.
	UsingHistoricalData bool `json:"usingHistoricalData"`

	// ProximityToBest is a 0-100 similarity between current conditions and
	// the venue's best recorded session for this slot; nil without a profile.
	ProximityToBest *float64 `json:"proximityToBest"`

	EstimatedCapacity int `json:"estimatedCapacity"`
}

// VenueState aggregates the full pipeline output for one venue.
type VenueState struct {
	VenueID    string    `json:"venueId"`
	ComputedAt time.Time `json:"computedAt"`
	BarDay     BarDay    `json:"barDay"`

	Occupancy OccupancyResult `json:"occupancy"`
	Dwell     *DwellEstimate  `json:"dwell"`
	Score     *ScoreResult    `json:"score"`
}
