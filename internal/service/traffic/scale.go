// internal/service/traffic/scale.go

package traffic

import (
	"math"

	"bikeflow/internal/domain/traffic"
)

// Range is an output interval of a scale
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// RadiusRanges holds the radius output range with and without a time filter
type RadiusRanges struct {
	Unfiltered Range `json:"unfiltered" yaml:"unfiltered"`
	Filtered   Range `json:"filtered" yaml:"filtered"`
}

// DefaultRadiusRanges returns [0, 25] for all trips and [3, 50] for a time window.
// Filtered views have fewer trips, so circles get a visible minimum and more spread.
func DefaultRadiusRanges() RadiusRanges {
	return RadiusRanges{
		Unfiltered: Range{Min: 0, Max: 25},
		Filtered:   Range{Min: 3, Max: 50},
	}
}

// For returns the range used under sel
func (r RadiusRanges) For(sel traffic.Selection) Range {
	if sel.Active() {
		return r.Filtered
	}
	return r.Unfiltered
}

// RadiusScale maps total traffic to a circle radius so that circle area, not
// radius, grows linearly with traffic.
type RadiusScale struct {
	DomainMax float64 `json:"domain_max"`
	Range     Range   `json:"range"`
}

// NewRadiusScale builds the scale for an aggregation pass. The domain is
// [0, agg.MaxTotal] and must be rebuilt whenever the aggregate changes.
func NewRadiusScale(agg traffic.Aggregate, sel traffic.Selection, ranges RadiusRanges) RadiusScale {
	return RadiusScale{
		DomainMax: float64(agg.MaxTotal),
		Range:     ranges.For(sel),
	}
}

// Radius returns the radius for a total traffic count. An empty domain means
// no station has traffic, so every value maps to the range minimum.
func (s RadiusScale) Radius(total int) float64 {
	if s.DomainMax <= 0 {
		return s.Range.Min
	}
	t := math.Sqrt(float64(total)) / math.Sqrt(s.DomainMax)
	return s.Range.Min + t*(s.Range.Max-s.Range.Min)
}

// FlowBuckets are the quantized flow levels: arrival dominated, balanced,
// departure dominated.
var FlowBuckets = [3]float64{0, 0.5, 1}

// flowThresholds split [0, 1] into equal thirds
var flowThresholds = [2]float64{1.0 / 3, 2.0 / 3}

// FlowRatio is departures over total traffic, or 0.5 for a station without traffic
func FlowRatio(st traffic.StationTraffic) float64 {
	if st.TotalTraffic == 0 {
		return 0.5
	}
	return float64(st.Departures) / float64(st.TotalTraffic)
}

// QuantizeFlow maps a ratio in [0, 1] onto FlowBuckets. Values outside the
// domain clamp to the first or last bucket.
func QuantizeFlow(ratio float64) float64 {
	i := 0
	for _, t := range flowThresholds {
		if ratio >= t {
			i++
		}
	}
	return FlowBuckets[i]
}

// StationFlow is QuantizeFlow(FlowRatio(st))
func StationFlow(st traffic.StationTraffic) float64 {
	return QuantizeFlow(FlowRatio(st))
}
