package weather

import (
	"context"
)

// Provider abstracts one weather data source in the fallback chain.
type Provider interface {
	Name() string
	Observe(ctx context.Context, area Area) (Observation, error)
}

// HourlyProvider fetches a short multi-point forecast from a single source.
type HourlyProvider interface {
	Name() string
	FetchHourly(ctx context.Context, area Area) ([]HourlyPoint, error)
}

// WeeklyProvider fetches the day-by-day outlook for the coming week.
type WeeklyProvider interface {
	Name() string
	FetchWeekly(ctx context.Context, area Area) ([]DailyForecast, error)
}

// Commenter requests a one-line natural-language summary for a prompt.
type Commenter interface {
	Comment(ctx context.Context, prompt string) (string, error)
}

// Geocoder resolves coordinates for locations missing from the catalog.
type Geocoder interface {
	Geocode(ctx context.Context, loc Location) (lat, lon float64, err error)
}

// Store holds the current snapshot per location. Each save replaces the
// previous one.
type Store interface {
	SaveSnapshot(snapshot WeatherSnapshot)
	GetLatest(loc Location) (WeatherSnapshot, error)
}

// CommentaryLog is the bounded chat-like log of commentary lines.
type CommentaryLog interface {
	Append(text, origin string)
}

// Recorder receives resolution outcomes for metrics. A nil Recorder is valid.
type Recorder interface {
	ProviderResult(provider, outcome string)
	CycleCompleted(seconds float64, stale bool)
}
