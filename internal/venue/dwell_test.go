package venue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateDwellCohortAverage(t *testing.T) {
	// Five guests arrive together, all five leave 30 minutes later.
	readings := []Reading{
		counterReading(at(19, 59), 0, 0),
		counterReading(at(20, 0), 5, 0),
		counterReading(at(20, 30), 5, 5),
	}

	estimate := EstimateDwell(readings, testDay, DeviceCounterBased)

	require.NotNil(t, estimate)
	assert.Equal(t, 5, estimate.Samples)
	assert.InDelta(t, 30, estimate.AverageMinutes, 0.01)
	assert.InDelta(t, 30, estimate.ShortestMinutes, 0.01)
	assert.InDelta(t, 30, estimate.LongestMinutes, 0.01)
}

func TestEstimateDwellFIFOOrder(t *testing.T) {
	// First cohort arrives at 20:00, second at 20:30; two guests leave at
	// 21:00. FIFO matches them to the oldest arrivals.
	readings := []Reading{
		counterReading(at(19, 59), 0, 0),
		counterReading(at(20, 0), 2, 0),
		counterReading(at(20, 30), 4, 0),
		counterReading(at(21, 0), 4, 2),
	}

	estimate := EstimateDwell(readings, testDay, DeviceCounterBased)

	require.NotNil(t, estimate)
	assert.Equal(t, 2, estimate.Samples)
	assert.InDelta(t, 60, estimate.AverageMinutes, 0.01)
}

func TestEstimateDwellDiscardsGlitchSamples(t *testing.T) {
	// Two arrivals; one "guest" bounces out after 30 seconds (a counter
	// glitch, below the 1-minute floor) and must not pollute the average.
	readings := []Reading{
		counterReading(at(19, 59), 0, 0),
		counterReading(at(20, 0), 2, 0),
		{
			VenueID:   "parlaylp",
			Timestamp: time.Date(2026, 1, 16, 20, 0, 30, 0, time.UTC),
			Occupancy: &OccupancySample{Current: 1, Entries: 2, Exits: 1},
		},
		counterReading(at(20, 30), 2, 2),
	}

	estimate := EstimateDwell(readings, testDay, DeviceCounterBased)

	require.NotNil(t, estimate)
	assert.Equal(t, 1, estimate.Samples)
	assert.InDelta(t, 30, estimate.AverageMinutes, 0.01)
}

func TestEstimateDwellUnavailableForPresenceOnly(t *testing.T) {
	readings := []Reading{
		presenceReading(at(20, 0), 10),
		presenceReading(at(20, 15), 20),
	}

	assert.Nil(t, EstimateDwell(readings, testDay, DevicePresenceOnly))
}

func TestEstimateDwellUnavailableWithoutEvents(t *testing.T) {
	readings := []Reading{
		counterReading(at(20, 0), 10, 5),
		counterReading(at(20, 15), 10, 5),
	}

	assert.Nil(t, EstimateDwell(readings, testDay, DeviceCounterBased))
}

func TestEstimateDwellRejectsOutOfBandAverage(t *testing.T) {
	// A single 4-minute stay: each sample is within per-sample bounds but
	// the average falls below the 5-minute reporting floor.
	readings := []Reading{
		counterReading(at(19, 59), 0, 0),
		counterReading(at(20, 0), 1, 0),
		counterReading(at(20, 4), 1, 1),
	}

	assert.Nil(t, EstimateDwell(readings, testDay, DeviceCounterBased))
}
