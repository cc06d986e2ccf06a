// internal/service/traffic/aggregator.go

package traffic

import (
	"bikeflow/internal/domain/traffic"
)

// ComputeStationTraffic counts departures and arrivals per station.
//
// Each call builds fresh counts from the trips it is given, so results from a
// previous pass with a different trip subset never leak into this one.
// Stations without trips get zero counts. Trips whose start or end id does not
// match any station are reported as orphans instead of being dropped silently.
func ComputeStationTraffic(stations []traffic.Station, trips []traffic.Trip) traffic.Aggregate {
	departures := countBy(trips, func(t traffic.Trip) string { return t.StartStationID })
	arrivals := countBy(trips, func(t traffic.Trip) string { return t.EndStationID })

	known := make(map[string]struct{}, len(stations))
	result := make([]traffic.StationTraffic, len(stations))
	for i, st := range stations {
		dep := departures[st.ShortName]
		arr := arrivals[st.ShortName]

		result[i] = traffic.StationTraffic{
			StationID:    st.ShortName,
			Departures:   dep,
			Arrivals:     arr,
			TotalTraffic: dep + arr,
		}
		known[st.ShortName] = struct{}{}
	}

	return traffic.NewAggregate(
		result,
		len(trips),
		orphaned(departures, known),
		orphaned(arrivals, known),
	)
}

// countBy groups trips by key and counts each group
func countBy(trips []traffic.Trip, key func(traffic.Trip) string) map[string]int {
	counts := make(map[string]int)
	for _, t := range trips {
		counts[key(t)]++
	}
	return counts
}

func orphaned(counts map[string]int, known map[string]struct{}) int {
	n := 0
	for id, c := range counts {
		if _, ok := known[id]; !ok {
			n += c
		}
	}
	return n
}
