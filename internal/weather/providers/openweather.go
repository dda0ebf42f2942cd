package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/Mametango/home-signage-sub000/internal/weather"
)

// CurrentOffset is the spread applied around the current temperature to
// estimate today's high and low.
const CurrentOffset = 3

// OpenWeatherProvider implements the last step of the chain with the
// OpenWeatherMap current-conditions endpoint. Without an API key it is a no-op.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, maxRetries int) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		httpCfg: DefaultHTTPConfig(client, maxRetries),
		circuit: newBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Observe(ctx context.Context, area weather.Area) (weather.Observation, error) {
	if p.apiKey == "" {
		return weather.Observation{}, fmt.Errorf("%w: openweather api key", weather.ErrConfigMissing)
	}

	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	if area.HasCoordinates() {
		values.Set("lat", fmt.Sprintf("%f", *area.Lat))
		values.Set("lon", fmt.Sprintf("%f", *area.Lon))
	} else {
		// city,country
		values.Set("q", fmt.Sprintf("%s,JP", area.City))
	}

	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())

	var payload struct {
		Main *struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
	}
	if err := getJSON(ctx, p.httpCfg, p.circuit, u, &payload); err != nil {
		return weather.Observation{}, err
	}
	if payload.Main == nil {
		return weather.Observation{}, fmt.Errorf("%w: missing main block", weather.ErrMalformed)
	}

	current := roundTemp(payload.Main.Temp)
	return weather.Observation{
		Max: weather.Int(current + CurrentOffset),
		Min: weather.Int(current - CurrentOffset),
	}, nil
}
