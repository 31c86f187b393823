package store

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/query"
	"github.com/pulsehq/venue-pulse/internal/venue"
)

const readingMeasurement = "venue_reading"

// InfluxConfig holds the InfluxDB v2 connection settings.
type InfluxConfig struct {
	URL    string
	Org    string
	Token  string
	Bucket string
}

// InfluxStore is a reading store backed by InfluxDB v2, for deployments that
// need durable sensor history beyond process lifetime.
type InfluxStore struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	queryAPI api.QueryAPI
	bucket   string
}

// NewInfluxStore initializes the client and verifies connectivity.
func NewInfluxStore(cfg InfluxConfig) (*InfluxStore, error) {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	if _, err := client.Health(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to influxdb: %w", err)
	}

	return &InfluxStore{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		queryAPI: client.QueryAPI(cfg.Org),
		bucket:   cfg.Bucket,
	}, nil
}

// Close closes the underlying client.
func (s *InfluxStore) Close() {
	s.client.Close()
}

// SaveReading writes one reading as a point tagged by venue and device.
func (s *InfluxStore) SaveReading(ctx context.Context, r venue.Reading) error {
	fields := map[string]interface{}{
		"sound_level": r.SoundLevel,
		"light_level": r.LightLevel,
		"temperature": r.Temperature,
		"humidity":    r.Humidity,
		"pressure":    r.Pressure,
	}
	if r.Occupancy != nil {
		fields["occ_current"] = int64(r.Occupancy.Current)
		fields["occ_entries"] = int64(r.Occupancy.Entries)
		fields["occ_exits"] = int64(r.Occupancy.Exits)
		fields["occ_capacity"] = int64(r.Occupancy.Capacity)
	}
	if r.CurrentTrack != nil {
		fields["track_title"] = r.CurrentTrack.Title
		fields["track_artist"] = r.CurrentTrack.Artist
	}

	point := influxdb2.NewPoint(
		readingMeasurement,
		map[string]string{
			"venue_id":  r.VenueID,
			"device_id": r.DeviceID,
		},
		fields,
		r.Timestamp,
	)

	if err := s.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("write reading: %w", err)
	}
	return nil
}

// LatestReading returns the venue's newest reading within the last 24 hours.
func (s *InfluxStore) LatestReading(ctx context.Context, venueID string) (venue.Reading, error) {
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: -24h)
  |> filter(fn: (r) => r._measurement == %q and r.venue_id == %q)
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> sort(columns: ["_time"], desc: true)
  |> limit(n: 1)`, s.bucket, readingMeasurement, venueID)

	result, err := s.queryAPI.Query(ctx, flux)
	if err != nil {
		return venue.Reading{}, fmt.Errorf("query latest reading: %w", err)
	}

	for result.Next() {
		return recordToReading(venueID, result.Record()), nil
	}
	if result.Err() != nil {
		return venue.Reading{}, fmt.Errorf("read latest reading: %w", result.Err())
	}
	return venue.Reading{}, ErrNotFound
}

// ReadingsBetween returns the venue's readings in [from, to]. An empty
// window yields an empty slice, not an error.
func (s *InfluxStore) ReadingsBetween(ctx context.Context, venueID string, from, to time.Time) ([]venue.Reading, error) {
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == %q and r.venue_id == %q)
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")`,
		s.bucket, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
		readingMeasurement, venueID)

	result, err := s.queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}

	var readings []venue.Reading
	for result.Next() {
		readings = append(readings, recordToReading(venueID, result.Record()))
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("read readings: %w", result.Err())
	}
	return readings, nil
}

func recordToReading(venueID string, rec *query.FluxRecord) venue.Reading {
	r := venue.Reading{
		VenueID:     venueID,
		Timestamp:   rec.Time(),
		SoundLevel:  floatField(rec, "sound_level"),
		LightLevel:  floatField(rec, "light_level"),
		Temperature: floatField(rec, "temperature"),
		Humidity:    floatField(rec, "humidity"),
		Pressure:    floatField(rec, "pressure"),
	}
	if device, ok := rec.ValueByKey("device_id").(string); ok {
		r.DeviceID = device
	}

	if _, ok := rec.ValueByKey("occ_entries").(int64); ok {
		r.Occupancy = &venue.OccupancySample{
			Current:  intField(rec, "occ_current"),
			Entries:  intField(rec, "occ_entries"),
			Exits:    intField(rec, "occ_exits"),
			Capacity: intField(rec, "occ_capacity"),
		}
	}

	if title, ok := rec.ValueByKey("track_title").(string); ok && title != "" {
		artist, _ := rec.ValueByKey("track_artist").(string)
		r.CurrentTrack = &venue.TrackInfo{Title: title, Artist: artist}
	}

	return r
}

func floatField(rec *query.FluxRecord, key string) float64 {
	if v, ok := rec.ValueByKey(key).(float64); ok {
		return v
	}
	return 0
}

func intField(rec *query.FluxRecord, key string) int {
	if v, ok := rec.ValueByKey(key).(int64); ok {
		return int(v)
	}
	return 0
}
