// internal/service/traffic/clock.go

package traffic

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bikeflow/internal/domain/traffic"
)

// clockLayout is the en-US short time style, e.g. "3:15 PM"
const clockLayout = "3:04 PM"

// ErrInvalidSelection is returned for slider values outside NoFilter or [0, 1440)
var ErrInvalidSelection = errors.New("invalid time selection")

// MinutesSinceMidnight returns hour*60 + minute in the location t already carries
func MinutesSinceMidnight(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// FormatClock renders a minute of day as a short clock string.
// Out-of-range values roll over the same way a calendar date would.
func FormatClock(minutes int) string {
	return time.Date(2000, time.January, 1, 0, minutes, 0, 0, time.UTC).Format(clockLayout)
}

// ParseSelection parses a slider value. An empty value or "-1" means no filter.
func ParseSelection(raw string) (traffic.Selection, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return traffic.NoFilter, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return traffic.NoFilter, fmt.Errorf("%w: %q", ErrInvalidSelection, raw)
	}

	sel := traffic.Selection(n)
	if !sel.Valid() {
		return traffic.NoFilter, fmt.Errorf("%w: %d", ErrInvalidSelection, n)
	}

	return sel, nil
}

// SelectionLabel is the text shown next to the slider; empty means "any time"
func SelectionLabel(sel traffic.Selection) string {
	if !sel.Active() {
		return ""
	}
	return FormatClock(int(sel))
}
