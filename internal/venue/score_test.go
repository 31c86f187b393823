package venue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsehq/venue-pulse/internal/learning"
)

func TestBandScoreMidpoint(t *testing.T) {
	band := Band{Min: 65, Max: 85}

	assert.InDelta(t, 100, band.Score(75), 0.001)
}

func TestBandScoreDecay(t *testing.T) {
	band := Band{Min: 65, Max: 85} // width 20, half-width 10

	assert.InDelta(t, 100, band.Score(65), 0.001)
	assert.InDelta(t, 100, band.Score(85), 0.001)
	assert.InDelta(t, 50, band.Score(90), 0.001)  // halfway into the decay zone
	assert.InDelta(t, 0, band.Score(95), 0.001)   // half band-width beyond the bound
	assert.InDelta(t, 0, band.Score(120), 0.001)  // clamped, never negative
	assert.InDelta(t, 50, band.Score(60), 0.001)  // decay is symmetric below the band
}

func TestComputeScoreMusicExcludedFromDenominator(t *testing.T) {
	// Sound 87dB scores 80 against the default 65-85 band, light 430lux
	// scores 80 against 100-400, crowd 75/100 is inside the 60-90% band.
	latest := &Reading{
		VenueID:    "parlaylp",
		Timestamp:  at(22, 0),
		SoundLevel: 87,
		LightLevel: 430,
	}
	occ := OccupancyResult{Current: 75, DeviceClass: DeviceCounterBased}

	result := ComputeScore(latest, occ, 100, nil)

	require.NotNil(t, result)
	assert.InDelta(t, 80, result.Factors.Sound, 0.001)
	assert.InDelta(t, 80, result.Factors.Light, 0.001)
	assert.InDelta(t, 100, result.Factors.Crowd, 0.001)
	assert.Nil(t, result.Factors.Music)

	// (80*30 + 80*30 + 100*20) / 80 = 85: music is excluded from the
	// weighted sum, not scored as zero.
	assert.InDelta(t, 85, result.Score, 0.05)
	assert.Equal(t, StatusOptimal, result.Status)
	assert.False(t, result.UsingHistoricalData)
	assert.Nil(t, result.ProximityToBest)
}

func TestComputeScoreWithMusic(t *testing.T) {
	latest := &Reading{
		VenueID:      "parlaylp",
		Timestamp:    at(22, 0),
		SoundLevel:   75,
		LightLevel:   250,
		CurrentTrack: &TrackInfo{Title: "Around the World", Artist: "Daft Punk"},
	}
	occ := OccupancyResult{Current: 75}

	result := ComputeScore(latest, occ, 100, nil)

	require.NotNil(t, result)
	require.NotNil(t, result.Factors.Music)
	assert.InDelta(t, 100, *result.Factors.Music, 0.001)
	assert.InDelta(t, 100, result.Score, 0.001)
}

func TestComputeScoreNoReading(t *testing.T) {
	assert.Nil(t, ComputeScore(nil, OccupancyResult{NoData: true}, 100, nil))
}

func TestComputeScoreWithLearnedProfile(t *testing.T) {
	profile := &learning.Profile{
		VenueID:  "parlaylp",
		TimeSlot: "Friday-21",
		AvgSound: 78,
		AvgLight: 220,
	}
	latest := &Reading{
		VenueID:    "parlaylp",
		Timestamp:  at(22, 0),
		SoundLevel: 78,
		LightLevel: 220,
	}
	occ := OccupancyResult{Current: 75}

	result := ComputeScore(latest, occ, 100, profile)

	require.NotNil(t, result)
	assert.True(t, result.UsingHistoricalData)
	require.NotNil(t, result.ProximityToBest)
	assert.InDelta(t, 100, *result.ProximityToBest, 0.001)
}

func TestComputeScorePoorStatus(t *testing.T) {
	latest := &Reading{
		VenueID:    "parlaylp",
		Timestamp:  at(22, 0),
		SoundLevel: 120, // far above any sensible band
		LightLevel: 1000,
	}
	occ := OccupancyResult{Current: 2}

	result := ComputeScore(latest, occ, 400, nil)

	require.NotNil(t, result)
	assert.Equal(t, StatusPoor, result.Status)
}

func TestEstimateCapacity(t *testing.T) {
	assert.Equal(t, 400, EstimateCapacity(400, 250)) // reported wins
	assert.Equal(t, 125, EstimateCapacity(0, 100))   // peak with headroom
	assert.Equal(t, 50, EstimateCapacity(0, 10))     // floored
	assert.Equal(t, 50, EstimateCapacity(0, 0))
}

func TestScoreStatusThresholds(t *testing.T) {
	assert.Equal(t, StatusOptimal, scoreStatus(85))
	assert.Equal(t, StatusGood, scoreStatus(84.9))
	assert.Equal(t, StatusGood, scoreStatus(70))
	assert.Equal(t, StatusPoor, scoreStatus(69.9))
}
