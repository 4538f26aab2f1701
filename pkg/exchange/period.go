package exchange

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xhit/go-str2duration/v2"
)

// PeriodStart returns the first date covered by a lookback period ending at
// end. Periods use the provider notation ("5d", "6mo", "5y", "ytd", "max")
// and any duration accepted by str2duration ("26w", "1825d").
// A zero time means no lower bound.
func PeriodStart(period string, end time.Time) (time.Time, error) {
	period = strings.ToLower(strings.TrimSpace(period))

	switch {
	case period == "max":
		return time.Time{}, nil
	case period == "ytd":
		return time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, end.Location()), nil
	case strings.HasSuffix(period, "mo"):
		months, err := strconv.Atoi(strings.TrimSuffix(period, "mo"))
		if err != nil || months <= 0 {
			return time.Time{}, fmt.Errorf("invalid period: %s", period)
		}
		return end.AddDate(0, -months, 0), nil
	case strings.HasSuffix(period, "y"):
		years, err := strconv.Atoi(strings.TrimSuffix(period, "y"))
		if err != nil || years <= 0 {
			return time.Time{}, fmt.Errorf("invalid period: %s", period)
		}
		return end.AddDate(-years, 0, 0), nil
	}

	duration, err := str2duration.ParseDuration(period)
	if err != nil || duration <= 0 {
		return time.Time{}, fmt.Errorf("invalid period: %s", period)
	}
	return end.Add(-duration), nil
}
