package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"

	"github.com/Mametango/home-signage-sub000/internal/common"
	"github.com/Mametango/home-signage-sub000/internal/weather"
)

// WeatherAPIProvider fetches the hourly series from WeatherAPI.com's forecast
// endpoint. Without an API key it returns nothing.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	clock   clockwork.Clock
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string, maxRetries int, clock clockwork.Clock) *WeatherAPIProvider {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: "https://api.weatherapi.com/v1/forecast.json",
		clock:   clock,
		httpCfg: DefaultHTTPConfig(client, maxRetries),
		circuit: newBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) FetchHourly(ctx context.Context, area weather.Area) ([]weather.HourlyPoint, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: weatherapi api key", weather.ErrConfigMissing)
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	values.Set("days", "2")
	// WeatherAPI uses "q" for location; it accepts "city,country" or "lat,lon".
	if area.HasCoordinates() {
		values.Set("q", fmt.Sprintf("%f,%f", *area.Lat, *area.Lon))
	} else {
		values.Set("q", fmt.Sprintf("%s,Japan", area.City))
	}

	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())

	var payload struct {
		Forecast struct {
			Forecastday []struct {
				Hour []struct {
					TimeEpoch    int64   `json:"time_epoch"`
					TempC        float64 `json:"temp_c"`
					ChanceOfRain int     `json:"chance_of_rain"`
					ChanceOfSnow int     `json:"chance_of_snow"`
					Condition    struct {
						Text string `json:"text"`
					} `json:"condition"`
				} `json:"hour"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}
	if err := getJSON(ctx, p.httpCfg, p.circuit, u, &payload); err != nil {
		return nil, err
	}

	var points []weather.HourlyPoint
	for _, day := range payload.Forecast.Forecastday {
		for _, h := range day.Hour {
			temp := h.TempC
			precip := max(h.ChanceOfRain, h.ChanceOfSnow)
			points = append(points, weather.HourlyPoint{
				Time:          time.Unix(h.TimeEpoch, 0).UTC(),
				TemperatureC:  &temp,
				Condition:     mapWeatherAPICondition(h.Condition.Text),
				PrecipPercent: &precip,
			})
		}
	}

	return thinSeries(points, p.clock.Now()), nil
}

func mapWeatherAPICondition(text string) weather.Condition {
	switch {
	case text == "":
		return weather.ConditionUnknown
	case common.HasAny(text, "rain", "shower", "drizzle", "thunder", "storm"):
		return weather.ConditionRain
	case common.HasAny(text, "snow", "sleet", "blizzard", "ice"):
		return weather.ConditionSnow
	case common.HasAny(text, "cloud", "overcast", "fog", "mist"):
		return weather.ConditionCloudy
	case common.HasAny(text, "sunny", "clear"):
		return weather.ConditionClear
	default:
		return weather.ConditionUnknown
	}
}
