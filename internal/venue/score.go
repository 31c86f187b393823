package venue

import (
	"math"

	"github.com/pulsehq/venue-pulse/internal/learning"
)

// Band is an optimal tolerance band for one scored factor.
type Band struct {
	Min float64
	Max float64
}

// Score maps a value to 0-100 against the band: full score inside it,
// linearly decaying to 0 as the value moves away from the nearest bound by
// up to half the band width, clamped at 0 beyond that.
func (b Band) Score(v float64) float64 {
	if v >= b.Min && v <= b.Max {
		return 100
	}

	half := (b.Max - b.Min) / 2
	if half <= 0 {
		return 0
	}

	var distance float64
	if v < b.Min {
		distance = b.Min - v
	} else {
		distance = v - b.Max
	}

	score := 100 * (1 - distance/half)
	return math.Max(0, score)
}

// OptimalRanges are the per-factor bands the scorer targets. Crowd is a
// fraction of estimated capacity, not a raw count.
type OptimalRanges struct {
	Sound         Band
	Light         Band
	CrowdFraction Band
}

// DefaultRanges are the static targets used until a venue has learned its
// own best-performing conditions.
var DefaultRanges = OptimalRanges{
	Sound:         Band{Min: 65, Max: 85},   // dB
	Light:         Band{Min: 100, Max: 400}, // lux
	CrowdFraction: Band{Min: 0.60, Max: 0.90},
}

// Scoring weights: sound 30 / light 30 / crowd 20 / music 20, re-normalized
// over the factors actually available. The split is a product decision, kept
// as one explicit constant.
var scoreWeights = struct {
	Sound, Light, Crowd, Music float64
}{Sound: 30, Light: 30, Crowd: 20, Music: 20}

// Status thresholds on the composite score.
const (
	optimalThreshold = 85
	goodThreshold    = 70
)

// Capacity estimation for venues whose sensor reports none: historical peak
// with headroom, floored so a brand-new venue doesn't score against a
// capacity of a handful of guests.
const (
	capacityPeakFactor = 1.25
	capacityFloor      = 50
)

// Tolerances around a learned profile's recorded values, used both to turn
// the profile into optimal bands and to compute proximity-to-best.
const (
	learnedSoundToleranceDB  = 5
	learnedLightToleranceLux = 75
)

// EstimateCapacity picks the capacity the crowd factor scores against: the
// device-reported value when present, otherwise a headroom-padded historical
// peak, never below the floor.
func EstimateCapacity(reported, historicalPeak int) int {
	if reported > 0 {
		return reported
	}
	estimated := int(math.Round(float64(historicalPeak) * capacityPeakFactor))
	if estimated < capacityFloor {
		return capacityFloor
	}
	return estimated
}

// ComputeScore blends the latest reading's sound/light, the reconciled
// occupancy, and optional track metadata into a 0-100 composite against the
// venue's learned optimal ranges (or defaults when unlearned).
//
// A nil latest reading yields a nil result: "no data" is distinct from a
// low-scoring quiet venue and presentation layers must be able to tell them
// apart.
func ComputeScore(latest *Reading, occ OccupancyResult, capacity int, profile *learning.Profile) *ScoreResult {
	if latest == nil {
		return nil
	}

	ranges := DefaultRanges
	if profile != nil {
		ranges.Sound = Band{Min: profile.AvgSound - learnedSoundToleranceDB, Max: profile.AvgSound + learnedSoundToleranceDB}
		ranges.Light = Band{Min: profile.AvgLight - learnedLightToleranceLux, Max: profile.AvgLight + learnedLightToleranceLux}
	}

	factors := FactorScores{
		Sound: ranges.Sound.Score(latest.SoundLevel),
		Light: ranges.Light.Score(latest.LightLevel),
	}

	crowdFraction := 0.0
	if capacity > 0 {
		crowdFraction = float64(occ.Current) / float64(capacity)
	}
	factors.Crowd = ranges.CrowdFraction.Score(crowdFraction)

	// Music is neutral when no track is playing or reported: excluded from
	// the weighted sum rather than dragging the composite to zero.
	if latest.CurrentTrack != nil && latest.CurrentTrack.Title != "" {
		music := 100.0
		factors.Music = &music
	}

	weightedSum := factors.Sound*scoreWeights.Sound +
		factors.Light*scoreWeights.Light +
		factors.Crowd*scoreWeights.Crowd
	totalWeight := scoreWeights.Sound + scoreWeights.Light + scoreWeights.Crowd
	if factors.Music != nil {
		weightedSum += *factors.Music * scoreWeights.Music
		totalWeight += scoreWeights.Music
	}

	score := weightedSum / totalWeight

	result := &ScoreResult{
		Score:               math.Round(score*10) / 10,
		Status:              scoreStatus(score),
		Factors:             factors,
		UsingHistoricalData: profile != nil,
		EstimatedCapacity:   capacity,
	}

	if profile != nil {
		proximity := proximityToBest(latest, profile)
		result.ProximityToBest = &proximity
	}

	return result
}

// proximityToBest scores how close current sound/light sit to the profile's
// recorded values, using the same distance-to-band shape as the factor
// scores, symmetric around each recorded value.
func proximityToBest(latest *Reading, profile *learning.Profile) float64 {
	soundBand := Band{Min: profile.AvgSound - learnedSoundToleranceDB, Max: profile.AvgSound + learnedSoundToleranceDB}
	lightBand := Band{Min: profile.AvgLight - learnedLightToleranceLux, Max: profile.AvgLight + learnedLightToleranceLux}

	proximity := (soundBand.Score(latest.SoundLevel) + lightBand.Score(latest.LightLevel)) / 2
	return math.Round(proximity*10) / 10
}

func scoreStatus(score float64) ScoreStatus {
	switch {
	case score >= optimalThreshold:
		return StatusOptimal
	case score >= goodThreshold:
		return StatusGood
	default:
		return StatusPoor
	}
}
