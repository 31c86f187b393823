// Package store holds the Reading Store: the time-series source of truth
// the analytics pipeline reads its windows from.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/pulsehq/venue-pulse/internal/venue"
)

// ErrNotFound is returned when no reading exists for a venue.
var ErrNotFound = errors.New("no readings for venue")

// Store is the contract every reading store backend must satisfy.
// ReadingsBetween returns an empty slice (not an error) when the window
// holds nothing; order is not guaranteed.
type Store interface {
	SaveReading(ctx context.Context, r venue.Reading) error
	LatestReading(ctx context.Context, venueID string) (venue.Reading, error)
	ReadingsBetween(ctx context.Context, venueID string, from, to time.Time) ([]venue.Reading, error)
}
