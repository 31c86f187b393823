package venue

import (
	"log"
	"time"
)

// Dwell sanity bounds. Individual samples outside [minDwell, maxDwell] are
// counter glitches, not real stays; an average outside [minAvgDwell,
// maxAvgDwell] means the whole estimate is too noisy to report.
const (
	minDwell    = 1 * time.Minute
	maxDwell    = 6 * time.Hour
	minAvgDwell = 5 * time.Minute
	maxAvgDwell = 240 * time.Minute
)

// counterEvent is one interval's worth of arrivals and departures, derived
// from consecutive cumulative-counter readings.
type counterEvent struct {
	at      time.Time
	entries int
	exits   int
}

// EstimateDwell FIFO-matches entry and exit deltas into cohort-level dwell
// durations and averages them. It needs cumulative counters, so presence-only
// venues always get nil ("unavailable"). The FIFO policy approximates
// "first arrived, first to leave" without guest identity; sub-interval
// ordering inside a batch is unknown and accepted as noise.
func EstimateDwell(readings []Reading, day BarDay, class DeviceClass) *DwellEstimate {
	if class != DeviceCounterBased {
		return nil
	}

	events := counterEvents(sortedWindow(readings, day))
	if len(events) == 0 {
		return nil
	}

	// Each queued timestamp represents one guest's arrival instant.
	var queue []time.Time
	var samples []time.Duration

	for _, ev := range events {
		for i := 0; i < ev.entries; i++ {
			queue = append(queue, ev.at)
		}
		for i := 0; i < ev.exits && len(queue) > 0; i++ {
			dwell := ev.at.Sub(queue[0])
			queue = queue[1:]

			if dwell < minDwell || dwell > maxDwell {
				log.Printf("dwell: discarding out-of-bounds sample %s", dwell)
				continue
			}
			samples = append(samples, dwell)
		}
	}

	if len(samples) == 0 {
		return nil
	}

	var (
		total    time.Duration
		shortest = samples[0]
		longest  = samples[0]
	)
	for _, s := range samples {
		total += s
		if s < shortest {
			shortest = s
		}
		if s > longest {
			longest = s
		}
	}
	avg := total / time.Duration(len(samples))

	// A lone noisy estimate is worse than no estimate.
	if avg < minAvgDwell || avg > maxAvgDwell {
		log.Printf("dwell: average %s outside sanity band; reporting unavailable", avg)
		return nil
	}

	return &DwellEstimate{
		Average:         avg,
		Shortest:        shortest,
		Longest:         longest,
		Samples:         len(samples),
		AverageMinutes:  avg.Minutes(),
		ShortestMinutes: shortest.Minutes(),
		LongestMinutes:  longest.Minutes(),
	}
}

// counterEvents walks consecutive reading pairs and collects per-interval
// entry/exit deltas, clamped at zero against counter resets. Pairs where
// nothing moved are skipped.
func counterEvents(window []Reading) []counterEvent {
	var (
		events []counterEvent
		prev   *OccupancySample
	)

	for i := range window {
		occ := window[i].Occupancy
		if occ == nil {
			continue
		}
		if prev != nil {
			entries := clampNonNegative(occ.Entries - prev.Entries)
			exits := clampNonNegative(occ.Exits - prev.Exits)
			if entries > 0 || exits > 0 {
				events = append(events, counterEvent{
					at:      window[i].Timestamp,
					entries: entries,
					exits:   exits,
				})
			}
		}
		prev = occ
	}
	return events
}
