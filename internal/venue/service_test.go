package venue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsehq/venue-pulse/internal/learning"
	"github.com/pulsehq/venue-pulse/internal/store"
	"github.com/pulsehq/venue-pulse/internal/venue"
)

const testVenue = "parlaylp"

func seedReadings(t *testing.T, st *store.MemoryStore) time.Time {
	t.Helper()
	ctx := context.Background()

	base := time.Date(2026, 1, 16, 21, 0, 0, 0, time.UTC)
	samples := []struct {
		offset  time.Duration
		entries int
		exits   int
	}{
		{0, 10, 2},
		{15 * time.Minute, 60, 10},
		{30 * time.Minute, 80, 25},
	}

	for _, s := range samples {
		err := st.SaveReading(ctx, venue.Reading{
			VenueID:    testVenue,
			DeviceID:   "parlaylp-mainfloor-001",
			Timestamp:  base.Add(s.offset),
			SoundLevel: 75,
			LightLevel: 250,
			Occupancy: &venue.OccupancySample{
				Current:  s.entries - s.exits,
				Entries:  s.entries,
				Exits:    s.exits,
				Capacity: 100,
			},
		})
		require.NoError(t, err)
	}

	return base.Add(45 * time.Minute)
}

func TestComputeVenueStateEndToEnd(t *testing.T) {
	readingStore := store.NewMemoryStore(0, 0)
	learningStore := learning.NewMemoryStore()
	svc := venue.NewService(readingStore, learningStore, 3)

	now := seedReadings(t, readingStore)

	state, err := svc.ComputeVenueState(context.Background(), testVenue, now)
	require.NoError(t, err)

	assert.Equal(t, testVenue, state.VenueID)
	assert.Equal(t, venue.DeviceCounterBased, state.Occupancy.DeviceClass)
	assert.Equal(t, 70, state.Occupancy.TodayEntries)
	assert.Equal(t, 23, state.Occupancy.TodayExits)
	assert.Equal(t, 47, state.Occupancy.Current)
	assert.False(t, state.Occupancy.NoData)

	require.NotNil(t, state.Score)
	assert.False(t, state.Score.UsingHistoricalData)
	assert.Nil(t, state.Score.ProximityToBest)
	assert.Equal(t, 100, state.Score.EstimatedCapacity)
}

func TestComputeVenueStateIdempotent(t *testing.T) {
	readingStore := store.NewMemoryStore(0, 0)
	learningStore := learning.NewMemoryStore()
	svc := venue.NewService(readingStore, learningStore, 3)

	now := seedReadings(t, readingStore)

	first, err := svc.ComputeVenueState(context.Background(), testVenue, now)
	require.NoError(t, err)
	second, err := svc.ComputeVenueState(context.Background(), testVenue, now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeVenueStateNoData(t *testing.T) {
	readingStore := store.NewMemoryStore(0, 0)
	svc := venue.NewService(readingStore, learning.NewMemoryStore(), 3)

	state, err := svc.ComputeVenueState(context.Background(), testVenue, time.Now().UTC())
	require.NoError(t, err)

	assert.True(t, state.Occupancy.NoData)
	assert.Nil(t, state.Dwell)
	assert.Nil(t, state.Score)
}

func TestComputeVenueStateMissingVenueID(t *testing.T) {
	svc := venue.NewService(store.NewMemoryStore(0, 0), learning.NewMemoryStore(), 3)

	_, err := svc.ComputeVenueState(context.Background(), "", time.Now().UTC())
	assert.Error(t, err)
}

func TestComputeVenueStatePicksUpLearnedProfile(t *testing.T) {
	readingStore := store.NewMemoryStore(0, 0)
	learningStore := learning.NewMemoryStore()
	svc := venue.NewService(readingStore, learningStore, 3)

	now := seedReadings(t, readingStore)

	before, err := svc.ComputeVenueState(context.Background(), testVenue, now)
	require.NoError(t, err)
	require.NotNil(t, before.Score)
	assert.False(t, before.Score.UsingHistoricalData)

	score := 90.0
	err = learningStore.RecordSession(testVenue, learning.TimeSlot(now), learning.SessionStats{
		AvgSound:      75,
		AvgLight:      250,
		PeakOccupancy: 80,
		Score:         &score,
		Date:          now.AddDate(0, 0, -7),
	})
	require.NoError(t, err)

	after, err := svc.ComputeVenueState(context.Background(), testVenue, now)
	require.NoError(t, err)
	require.NotNil(t, after.Score)

	assert.True(t, after.Score.UsingHistoricalData)
	require.NotNil(t, after.Score.ProximityToBest)
	assert.InDelta(t, 100, *after.Score.ProximityToBest, 0.001)
}

func TestRecordSlotSession(t *testing.T) {
	readingStore := store.NewMemoryStore(0, 0)
	learningStore := learning.NewMemoryStore()
	svc := venue.NewService(readingStore, learningStore, 3)

	seedReadings(t, readingStore)

	// 21:00-21:30 readings belong to the 21-24 slot; record it at 00:10.
	recordAt := time.Date(2026, 1, 17, 0, 10, 0, 0, time.UTC)
	require.NoError(t, svc.RecordSlotSession(context.Background(), testVenue, recordAt))

	profile, err := learningStore.BestNightProfile(testVenue, "Friday-21")
	require.NoError(t, err)
	require.NotNil(t, profile)

	assert.InDelta(t, 75, profile.AvgSound, 0.001)
	assert.InDelta(t, 250, profile.AvgLight, 0.001)
	assert.Equal(t, time.Friday, profile.DayOfWeek)
	assert.Greater(t, profile.PeakOccupancy, 0)
}

func TestRecordSlotSessionEmptySlotIsNoop(t *testing.T) {
	readingStore := store.NewMemoryStore(0, 0)
	learningStore := learning.NewMemoryStore()
	svc := venue.NewService(readingStore, learningStore, 3)

	recordAt := time.Date(2026, 1, 17, 0, 10, 0, 0, time.UTC)
	require.NoError(t, svc.RecordSlotSession(context.Background(), testVenue, recordAt))

	profile, err := learningStore.BestNightProfile(testVenue, "Friday-21")
	require.NoError(t, err)
	assert.Nil(t, profile)
}
