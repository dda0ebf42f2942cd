package providers

import (
	"sort"
	"time"

	"github.com/Mametango/home-signage-sub000/internal/weather"
)

// Hourly series shape shared by both hourly fetchers.
const (
	hourlyPoints = 8
	hourlyStep   = 2 * time.Hour
)

// thinSeries keeps points from the current hour onward, spaced at least
// hourlyStep apart, up to hourlyPoints entries.
func thinSeries(points []weather.HourlyPoint, now time.Time) []weather.HourlyPoint {
	sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })

	from := now.Truncate(time.Hour)
	out := make([]weather.HourlyPoint, 0, hourlyPoints)
	var next time.Time
	for _, pt := range points {
		if pt.Time.Before(from) || pt.Time.Before(next) {
			continue
		}
		out = append(out, pt)
		if len(out) == hourlyPoints {
			break
		}
		next = pt.Time.Add(hourlyStep)
	}
	return out
}
