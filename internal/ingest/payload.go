// Package ingest feeds the reading store from venue sensor publishers, over
// MQTT or, for venues without a broker bridge, HTTP polling.
package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pulsehq/venue-pulse/internal/common"
	"github.com/pulsehq/venue-pulse/internal/venue"
)

// SensorPayload is the wire format the Raspberry Pi publishers send:
// a sensors block, an optional cumulative-counter occupancy block and an
// optional now-playing block.
type SensorPayload struct {
	DeviceID  string    `json:"deviceId" validate:"required"`
	VenueID   string    `json:"venueId" validate:"required"`
	Timestamp time.Time `json:"timestamp" validate:"required"`

	Sensors struct {
		SoundLevel        float64 `json:"sound_level"`
		LightLevel        float64 `json:"light_level"`
		IndoorTemperature float64 `json:"indoor_temperature"`
		Humidity          float64 `json:"humidity"`
		Pressure          float64 `json:"pressure"`
	} `json:"sensors"`

	Occupancy *struct {
		Current  int `json:"current"`
		Entries  int `json:"entries"`
		Exits    int `json:"exits"`
		Capacity int `json:"capacity"`
	} `json:"occupancy"`

	Spotify *struct {
		CurrentSong string `json:"current_song"`
		Artist      string `json:"artist"`
	} `json:"spotify"`
}

// DecodeReading parses a publisher payload into a Reading. Malformed JSON or
// a missing venue id is rejected; everything optional degrades to absent.
func DecodeReading(data []byte) (venue.Reading, error) {
	var payload SensorPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return venue.Reading{}, fmt.Errorf("decode sensor payload: %w", err)
	}
	return payload.ToReading()
}

// ToReading converts the wire payload into the internal Reading model.
func (p *SensorPayload) ToReading() (venue.Reading, error) {
	if p.VenueID == "" {
		return venue.Reading{}, fmt.Errorf("sensor payload missing venueId")
	}

	ts := p.Timestamp.UTC()
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	r := venue.Reading{
		ID:          uuid.NewString(),
		VenueID:     p.VenueID,
		DeviceID:    p.DeviceID,
		Timestamp:   ts,
		SoundLevel:  p.Sensors.SoundLevel,
		LightLevel:  p.Sensors.LightLevel,
		Temperature: p.Sensors.IndoorTemperature,
		Humidity:    p.Sensors.Humidity,
		Pressure:    p.Sensors.Pressure,
	}

	if p.Occupancy != nil {
		r.Occupancy = &venue.OccupancySample{
			Current:  p.Occupancy.Current,
			Entries:  p.Occupancy.Entries,
			Exits:    p.Occupancy.Exits,
			Capacity: p.Occupancy.Capacity,
		}
	}

	// Some player integrations report their own failures in the song field.
	if p.Spotify != nil && p.Spotify.CurrentSong != "" &&
		!common.HasAny(p.Spotify.CurrentSong, "Error", "error:") {
		r.CurrentTrack = &venue.TrackInfo{
			Title:  p.Spotify.CurrentSong,
			Artist: p.Spotify.Artist,
		}
	}

	return r, nil
}
