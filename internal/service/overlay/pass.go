// internal/service/overlay/pass.go

package overlay

import (
	"fmt"

	"bikeflow/internal/domain/overlay"
	"bikeflow/internal/domain/traffic"
	trafficService "bikeflow/internal/service/traffic"
)

// Pass is the result of running the pipeline once for a selection
type Pass struct {
	Selection traffic.Selection          `json:"selection"`
	Aggregate traffic.Aggregate          `json:"aggregate"`
	Scale     trafficService.RadiusScale `json:"scale"`
	Marks     []overlay.Mark             `json:"marks"`
}

// Recompute filters the trips, aggregates traffic and derives one mark per
// station. It reads the dataset and never modifies it.
func Recompute(dataset traffic.Dataset, sel traffic.Selection, ranges trafficService.RadiusRanges) Pass {
	trips := trafficService.FilterTripsByTime(dataset.Trips, sel)
	agg := trafficService.ComputeStationTraffic(dataset.Stations, trips)
	scale := trafficService.NewRadiusScale(agg, sel, ranges)

	marks := make([]overlay.Mark, len(agg.Stations))
	for i, st := range agg.Stations {
		marks[i] = overlay.Mark{
			StationID:      st.StationID,
			Radius:         scale.Radius(st.TotalTraffic),
			DepartureRatio: trafficService.StationFlow(st),
			Title:          Tooltip(st),
			Traffic:        st,
		}
	}

	return Pass{
		Selection: sel,
		Aggregate: agg,
		Scale:     scale,
		Marks:     marks,
	}
}

// Summary describes the pass for clients
func (p Pass) Summary() overlay.Summary {
	return overlay.Summary{
		TripCount:        p.Aggregate.TripCount,
		MaxTotal:         p.Aggregate.MaxTotal,
		OrphanDepartures: p.Aggregate.OrphanDepartures,
		OrphanArrivals:   p.Aggregate.OrphanArrivals,
		RadiusMin:        p.Scale.Range.Min,
		RadiusMax:        p.Scale.Range.Max,
	}
}

// Tooltip is the hover text of a station circle
func Tooltip(st traffic.StationTraffic) string {
	return fmt.Sprintf("%d trips (%d departures, %d arrivals)", st.TotalTraffic, st.Departures, st.Arrivals)
}
