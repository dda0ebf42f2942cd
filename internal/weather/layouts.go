package weather

import (
	"math"
	"time"

	"github.com/Mametango/home-signage-sub000/internal/common"
)

// JST is the zone every government forecast timestamp is issued in.
var JST = time.FixedZone("JST", 9*60*60)

var (
	rainWords  = []string{"雨", "rain", "shower", "drizzle", "thunder"}
	snowWords  = []string{"雪", "snow", "sleet", "みぞれ"}
	cloudWords = []string{"曇", "くもり", "cloud", "overcast"}
)

// ConditionFromText maps a free-text weather description onto a Condition.
// Rain wins over snow, snow over cloud; anything else is clear.
func ConditionFromText(text string) Condition {
	switch {
	case common.HasAny(text, rainWords...):
		return ConditionRain
	case common.HasAny(text, snowWords...):
		return ConditionSnow
	case common.HasAny(text, cloudWords...):
		return ConditionCloudy
	default:
		return ConditionClear
	}
}

// ConditionFromCode maps a government weather code onto a Condition.
func ConditionFromCode(code int) Condition {
	switch {
	case code >= 100 && code < 200:
		return ConditionClear
	case code >= 200 && code < 300:
		return ConditionCloudy
	case code >= 300 && code < 400:
		return ConditionRain
	case code >= 400 && code < 500:
		return ConditionSnow
	default:
		return ConditionUnknown
	}
}

// TodayIndex returns the index of the series timestamp falling on today's
// date in JST. Timestamps are truncated to midnight and matched exactly;
// without a match the first entry is assumed to be today.
func TodayIndex(timeDefines []string, now time.Time) int {
	now = now.In(JST)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, JST)
	for i, s := range timeDefines {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			continue
		}
		ts = ts.In(JST)
		midnight := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, JST)
		if midnight.Equal(today) {
			return i
		}
	}
	return 0
}

// TemperatureLayout interprets a raw temperature array for the day at index.
type TemperatureLayout struct {
	Name  string
	Parse func(temps []string, index int) (max, min int, ok bool)
}

// TemperatureLayouts lists the array interpretations in the order they are tried.
var TemperatureLayouts = []TemperatureLayout{
	{Name: "interleaved", Parse: parseInterleaved},
	{Name: "single", Parse: parseSingle},
	{Name: "scan", Parse: parseScan},
}

// ParseTemperatures applies TemperatureLayouts in order and returns the first
// success together with the name of the layout that produced it.
func ParseTemperatures(temps []string, index int) (max, min int, layout string, ok bool) {
	for _, l := range TemperatureLayouts {
		if max, min, ok := l.Parse(temps, index); ok {
			return max, min, l.Name, true
		}
	}
	return 0, 0, "", false
}

func at(temps []string, i int) (int, bool) {
	if i < 0 || i >= len(temps) {
		return 0, false
	}
	return common.ParseInt(temps[i])
}

// parseInterleaved reads max at 2i and min at 2i+1. Some documents list the
// pair the other way round, so the two are ordered before returning.
func parseInterleaved(temps []string, index int) (int, int, bool) {
	hi, ok1 := at(temps, 2*index)
	lo, ok2 := at(temps, 2*index+1)
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	if hi < lo {
		hi, lo = lo, hi
	}
	return hi, lo, true
}

func parseSingle(temps []string, index int) (int, int, bool) {
	v, ok := at(temps, index)
	if !ok {
		return 0, 0, false
	}
	return v, v, true
}

// scanRadius bounds how far from the today index parseScan looks.
const scanRadius = 2

func parseScan(temps []string, index int) (int, int, bool) {
	hi, lo := math.MinInt, math.MaxInt
	found := false
	for i := index - scanRadius; i <= 2*index+1+scanRadius; i++ {
		v, ok := at(temps, i)
		if !ok {
			continue
		}
		found = true
		hi = max(hi, v)
		lo = min(lo, v)
	}
	return hi, lo, found
}

// Station is an observation point with decimal-degree coordinates.
type Station struct {
	ID   string
	Name string
	Lat  float64
	Lon  float64
}

// NearestStation returns the index of the station closest to (lat, lon) by
// Euclidean distance over degrees, or -1 for an empty list.
func NearestStation(stations []Station, lat, lon float64) int {
	best, bestDist := -1, math.Inf(1)
	for i, s := range stations {
		dLat, dLon := s.Lat-lat, s.Lon-lon
		d := dLat*dLat + dLon*dLon
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
