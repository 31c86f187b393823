package venue

import (
	"log"
	"sort"
)

// occupancyStrategy is one way of deriving normalized occupancy from a
// window of readings. Strategies are tried in order; the first one that
// applies wins. Keeping the fallback order as an explicit list makes it
// testable instead of burying it in control flow.
type occupancyStrategy struct {
	name  string
	apply func(readings []Reading) (OccupancyResult, bool)
}

// ClassifyDevice infers how the sensor feed reports occupancy, once per
// window. If entries and exits never move while current occupancy is
// positive and changing, the device is presence-only. Too few samples to
// tell means counter-based, the common case.
func ClassifyDevice(readings []Reading) DeviceClass {
	var (
		samples        int
		countersMoved  bool
		sawPositive    bool
		currentChanged bool
		prevCurrent    int
		havePrev       bool
	)

	for i := range readings {
		occ := readings[i].Occupancy
		if occ == nil {
			continue
		}
		samples++

		if occ.Entries > 0 || occ.Exits > 0 {
			countersMoved = true
		}
		if occ.Current > 0 {
			sawPositive = true
		}
		if havePrev && occ.Current != prevCurrent {
			currentChanged = true
		}
		prevCurrent = occ.Current
		havePrev = true
	}

	if samples < 2 {
		// Ambiguous window; default to the counter path.
		return DeviceCounterBased
	}
	if !countersMoved && sawPositive && currentChanged {
		return DevicePresenceOnly
	}
	return DeviceCounterBased
}

// ReconcileOccupancy normalizes a bar day's readings into current/entries/
// exits/peak values. The caller does not need to sort; out-of-order arrival
// is expected. Readings outside the bar day are ignored.
//
// Missing or sparse data never fails: the zero-data fallback reports
// NoData=true so consumers can distinguish "empty venue" from "no feed".
func ReconcileOccupancy(readings []Reading, day BarDay) OccupancyResult {
	window := sortedWindow(readings, day)
	class := ClassifyDevice(window)

	for _, strat := range occupancyStrategies(class) {
		if result, ok := strat.apply(window); ok {
			result.DeviceClass = class
			result.Strategy = strat.name
			return result
		}
	}

	// Unreachable: the zero strategy always applies.
	return OccupancyResult{DeviceClass: class, NoData: true}
}

func occupancyStrategies(class DeviceClass) []occupancyStrategy {
	strategies := make([]occupancyStrategy, 0, 3)
	switch class {
	case DevicePresenceOnly:
		strategies = append(strategies, occupancyStrategy{name: "presence-delta", apply: presenceDeltaOccupancy})
	default:
		strategies = append(strategies, occupancyStrategy{name: "counter-baseline", apply: counterBaselineOccupancy})
	}
	return append(strategies, occupancyStrategy{name: "zero", apply: zeroOccupancy})
}

// counterBaselineOccupancy converts cumulative counters into since-bar-day
// deltas against the earliest in-window reading (the occupancy baseline).
// Every subtraction is clamped at zero: a rebooted sensor restarts its
// counters and raw values can decrease mid-day.
func counterBaselineOccupancy(window []Reading) (OccupancyResult, bool) {
	baseline, rest := firstOccupancy(window)
	if baseline == nil {
		return OccupancyResult{}, false
	}

	result := OccupancyResult{}
	for i := range rest {
		occ := rest[i].Occupancy
		if occ == nil {
			continue
		}

		if occ.Entries < result.TodayEntries+baseline.Entries || occ.Exits < result.TodayExits+baseline.Exits {
			log.Printf("occupancy: counter decreased for venue %s at %s; clamping", rest[i].VenueID, rest[i].Timestamp)
		}

		entries := clampNonNegative(occ.Entries - baseline.Entries)
		exits := clampNonNegative(occ.Exits - baseline.Exits)
		current := clampNonNegative(entries - exits)

		result.TodayEntries = entries
		result.TodayExits = exits
		result.Current = current
		if current > result.Peak {
			result.Peak = current
		}
	}
	return result, true
}

// presenceDeltaOccupancy estimates entries/exits from deltas of the directly
// reported current occupancy: a positive step counts as arrivals, a negative
// step as departures. Current is reported as-is from the latest reading.
func presenceDeltaOccupancy(window []Reading) (OccupancyResult, bool) {
	var (
		result   OccupancyResult
		prev     int
		havePrev bool
		applied  bool
	)

	for i := range window {
		occ := window[i].Occupancy
		if occ == nil {
			continue
		}
		applied = true

		if havePrev {
			delta := occ.Current - prev
			if delta > 0 {
				result.TodayEntries += delta
			} else if delta < 0 {
				result.TodayExits += -delta
			}
		}
		prev = occ.Current
		havePrev = true

		result.Current = clampNonNegative(occ.Current)
		if result.Current > result.Peak {
			result.Peak = result.Current
		}
	}

	if !applied {
		return OccupancyResult{}, false
	}
	result.Estimated = true
	return result, true
}

func zeroOccupancy([]Reading) (OccupancyResult, bool) {
	return OccupancyResult{NoData: true}, true
}

// sortedWindow filters readings to the bar day and returns them in
// timestamp order without mutating the caller's slice.
func sortedWindow(readings []Reading, day BarDay) []Reading {
	window := make([]Reading, 0, len(readings))
	for i := range readings {
		if day.Contains(readings[i].Timestamp) {
			window = append(window, readings[i])
		}
	}
	sort.Slice(window, func(i, j int) bool {
		return window[i].Timestamp.Before(window[j].Timestamp)
	})
	return window
}

// firstOccupancy returns the earliest occupancy sample in the window and the
// readings from that point on.
func firstOccupancy(window []Reading) (*OccupancySample, []Reading) {
	for i := range window {
		if window[i].Occupancy != nil {
			return window[i].Occupancy, window[i:]
		}
	}
	return nil, nil
}

func clampNonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
