package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/pulsehq/venue-pulse/internal/learning"
	"github.com/pulsehq/venue-pulse/internal/store"
	"github.com/pulsehq/venue-pulse/internal/venue"
)

func testApp() *fiber.App {
	app := fiber.New()

	readingStore := store.NewMemoryStore(100, 0)
	svc := venue.NewService(readingStore, learning.NewMemoryStore(), 3)
	RegisterRoutes(app, svc, readingStore)

	return app
}

// TestStateNoDataIsNotAnError verifies that a venue with no readings gets a
// normal 200 response with the noData flag set, so dashboards can show a
// "no data" state instead of an error.
func TestStateNoDataIsNotAnError(t *testing.T) {
	app := testApp()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/venues/parlaylp/state", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var state venue.VenueState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !state.Occupancy.NoData {
		t.Fatalf("expected noData to be true for a venue without readings")
	}
	if state.Score != nil {
		t.Fatalf("expected nil score for a venue without readings")
	}
}

// TestLatestReadingNotFound verifies the 404 mapping for venues that never
// reported a reading.
func TestLatestReadingNotFound(t *testing.T) {
	app := testApp()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/venues/ghost/readings/latest", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

// TestIngestReadingValidation verifies the HTTP ingest fallback rejects
// payloads without required identifiers.
func TestIngestReadingValidation(t *testing.T) {
	app := testApp()

	body := `{"sensors": {"sound_level": 72.5, "light_level": 230}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/readings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

// TestIngestReadingRoundTrip verifies a valid publisher payload lands in the
// reading store and comes back through the latest-reading endpoint.
func TestIngestReadingRoundTrip(t *testing.T) {
	app := testApp()

	body := `{
		"deviceId": "parlaylp-mainfloor-001",
		"venueId": "parlaylp",
		"timestamp": "2026-01-16T22:00:00Z",
		"sensors": {"sound_level": 72.5, "light_level": 230.0, "humidity": 40.1},
		"occupancy": {"current": 55, "entries": 80, "exits": 25, "capacity": 400},
		"spotify": {"current_song": "Around the World", "artist": "Daft Punk"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/readings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/venues/parlaylp/readings/latest", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var reading venue.Reading
	if err := json.NewDecoder(resp.Body).Decode(&reading); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if reading.VenueID != "parlaylp" {
		t.Fatalf("expected venue parlaylp, got %q", reading.VenueID)
	}
	if reading.Occupancy == nil || reading.Occupancy.Entries != 80 {
		t.Fatalf("expected occupancy entries 80, got %+v", reading.Occupancy)
	}
	if reading.CurrentTrack == nil || reading.CurrentTrack.Title != "Around the World" {
		t.Fatalf("expected track metadata, got %+v", reading.CurrentTrack)
	}
}
