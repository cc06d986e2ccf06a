// internal/domain/traffic/selection.go

package traffic

// MinutesPerDay bounds a minute-of-day selection
const MinutesPerDay = 24 * 60

// Selection is the time-of-day filter: a minute of day in [0, MinutesPerDay)
// or NoFilter.
type Selection int

// NoFilter selects every trip regardless of time
const NoFilter Selection = -1

// Active reports whether the selection restricts trips
func (s Selection) Active() bool {
	return s != NoFilter
}

// Valid reports whether s is NoFilter or a minute of day
func (s Selection) Valid() bool {
	return s == NoFilter || (s >= 0 && s < MinutesPerDay)
}
