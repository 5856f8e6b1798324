package refresh

import (
	"strings"
	"time"
)

// updatePeriodHours maps the syndication module update periods onto hours.
var updatePeriodHours = map[string]int{
	"hourly":  1,
	"daily":   24,
	"weekly":  168,
	"monthly": 720,
	"yearly":  8760,
}

// NextRefresh computes when a subscription should next be refreshed, based
// on the update hints the feed advertises. Unknown or missing hints default
// to hourly; a missing frequency defaults to 1.
func NextRefresh(from time.Time, updatePeriod string, updateFrequency int) time.Time {
	hours, ok := updatePeriodHours[strings.ToLower(updatePeriod)]
	if !ok {
		hours = 1
	}
	if updateFrequency <= 0 {
		updateFrequency = 1
	}
	return from.Add(time.Duration(hours*updateFrequency) * time.Hour)
}
