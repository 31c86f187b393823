package venue

import (
	"fmt"
	"time"
)

// BarDay is a venue's operational day: a 24-hour window starting at a fixed
// clock hour (typically 03:00) rather than midnight, so the full overnight
// session lands in one window.
type BarDay struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the bar day. The start boundary
// is inclusive: a reading at exactly the boundary hour opens the new day.
func (d BarDay) Contains(t time.Time) bool {
	return !t.Before(d.Start) && t.Before(d.End)
}

// CurrentBarDay returns the bar day containing now. The start is the most
// recent occurrence of boundaryHour at or before now; if now's clock time is
// before the boundary hour, the window started yesterday.
//
// boundaryHour outside 0-23 is a programming error; config validation
// rejects it at startup, and this function panics rather than guessing.
func CurrentBarDay(now time.Time, boundaryHour int) BarDay {
	if boundaryHour < 0 || boundaryHour > 23 {
		panic(fmt.Sprintf("venue: invalid bar-day boundary hour %d", boundaryHour))
	}

	start := time.Date(now.Year(), now.Month(), now.Day(), boundaryHour, 0, 0, 0, now.Location())
	if now.Before(start) {
		start = start.AddDate(0, 0, -1)
	}

	return BarDay{
		Start: start,
		End:   start.Add(24 * time.Hour),
	}
}
