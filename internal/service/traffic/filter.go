// internal/service/traffic/filter.go

package traffic

import (
	"bikeflow/internal/domain/traffic"
)

// WindowMinutes is the tolerance on each side of the selected minute
const WindowMinutes = 60

// FilterTripsByTime keeps trips that start or end within WindowMinutes of sel.
// The distance is linear minutes of day and does not wrap past midnight, so
// 23:59 and 00:05 are far apart. With NoFilter the input slice is returned as is.
func FilterTripsByTime(trips []traffic.Trip, sel traffic.Selection) []traffic.Trip {
	if !sel.Active() {
		return trips
	}

	target := int(sel)
	filtered := make([]traffic.Trip, 0, len(trips)/8)
	for _, trip := range trips {
		if withinWindow(MinutesSinceMidnight(trip.StartedAt), target) ||
			withinWindow(MinutesSinceMidnight(trip.EndedAt), target) {
			filtered = append(filtered, trip)
		}
	}

	return filtered
}

func withinWindow(minutes, target int) bool {
	d := minutes - target
	if d < 0 {
		d = -d
	}
	return d <= WindowMinutes
}
