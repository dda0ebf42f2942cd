package weather

import (
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
)

// Icon returns the glyph the dashboard draws for the condition.
func (c Condition) Icon() string {
	switch c {
	case ConditionClear:
		return "☀"
	case ConditionCloudy:
		return "☁"
	case ConditionRain:
		return "☂"
	case ConditionSnow:
		return "❄"
	default:
		return "?"
	}
}

// Location is the place the dashboard shows weather for.
// Both fields come from the settings store.
type Location struct {
	Prefecture string `json:"prefecture" validate:"required"`
	City       string `json:"city" validate:"required"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return l.Prefecture + ":" + l.City
}

// Area is a Location mapped onto every provider's identifier scheme.
// Identifiers a provider needs but the area lacks make that provider a no-op.
type Area struct {
	Location

	// CityID keys the aggregated forecast service.
	CityID string `json:"cityId,omitempty"`
	// OfficeCode keys the government forecast document.
	OfficeCode string `json:"officeCode,omitempty"`
	// RegionCode is the class-10 region inside the office document.
	RegionCode string `json:"regionCode,omitempty"`

	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are known.
func (a Area) HasCoordinates() bool {
	return a.Lat != nil && a.Lon != nil
}

// Field identifies one resolvable snapshot field.
type Field uint8

const (
	FieldCondition Field = 1 << iota
	FieldMax
	FieldMin

	FieldTemps = FieldMax | FieldMin
	FieldAll   = FieldCondition | FieldTemps
)

func (f Field) String() string {
	switch f {
	case FieldCondition:
		return "condition"
	case FieldMax:
		return "maxTemp"
	case FieldMin:
		return "minTemp"
	default:
		return "fields"
	}
}

// Observation is one provider's normalized contribution. The zero value means
// no data; any set pointer makes it a partial result.
type Observation struct {
	Condition *Condition
	Max       *int
	Min       *int
}

// Empty reports whether the observation carries no field at all.
func (o Observation) Empty() bool {
	return o.Condition == nil && o.Max == nil && o.Min == nil
}

// Has reports whether every field in mask is set.
func (o Observation) Has(mask Field) bool {
	if mask&FieldCondition != 0 && o.Condition == nil {
		return false
	}
	if mask&FieldMax != 0 && o.Max == nil {
		return false
	}
	if mask&FieldMin != 0 && o.Min == nil {
		return false
	}
	return true
}

// WeatherSnapshot is the resolved weather view for one resolution cycle.
type WeatherSnapshot struct {
	Location   Location  `json:"location"`
	Condition  Condition `json:"condition"`
	Icon       string    `json:"icon"`
	MaxTemp    *int      `json:"maxTemp,omitempty"`
	MinTemp    *int      `json:"minTemp,omitempty"`
	Commentary string    `json:"commentary,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"` // always UTC

	// Sources maps each resolved field to the provider that supplied it.
	Sources map[string]string `json:"sources,omitempty"`
}

// HourlyPoint is one entry of a short-range forecast series.
type HourlyPoint struct {
	Time          time.Time `json:"time"`
	TemperatureC  *float64  `json:"temperatureC,omitempty"`
	Condition     Condition `json:"condition"`
	PrecipPercent *int      `json:"precipPercent,omitempty"`
}

// HourlySeries is a forecast series as fetched from one provider.
// Entries are ordered by Time ascending.
type HourlySeries struct {
	Provider string        `json:"provider"`
	Points   []HourlyPoint `json:"points"`
}

// DailyForecast is one day of the weekly outlook shown by the takeover.
type DailyForecast struct {
	Date          time.Time `json:"date"`
	Condition     Condition `json:"condition"`
	Icon          string    `json:"icon"`
	PrecipPercent *int      `json:"precipPercent,omitempty"`
	MaxTemp       *int      `json:"maxTemp,omitempty"`
	MinTemp       *int      `json:"minTemp,omitempty"`
}

// WeeklyForecast is the weekly outlook of the last applied cycle. Days is
// empty, never nil, when the fetch failed.
type WeeklyForecast struct {
	Provider string          `json:"provider"`
	Days     []DailyForecast `json:"days"`
}

// Int returns a pointer to v. Providers use it to build observations.
func Int(v int) *int { return &v }

// Cond returns a pointer to c.
func Cond(c Condition) *Condition { return &c }
