package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"

	"github.com/Mametango/home-signage-sub000/internal/common"
	"github.com/Mametango/home-signage-sub000/internal/weather"
)

// ForecastProvider reads the aggregated daily forecast keyed by city id.
// It is the first step of the fallback chain.
type ForecastProvider struct {
	name    string
	baseURL string
	clock   clockwork.Clock
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewForecastProvider(client *http.Client, maxRetries int, clock clockwork.Clock) *ForecastProvider {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ForecastProvider{
		name:    "forecast",
		baseURL: "https://weather.tsukumijima.net/api/forecast/city",
		clock:   clock,
		httpCfg: DefaultHTTPConfig(client, maxRetries),
		circuit: newBreaker("forecast"),
	}
}

func (p *ForecastProvider) Name() string {
	return p.name
}

type forecastPayload struct {
	Forecasts []struct {
		Date      string `json:"date"`
		DateLabel string `json:"dateLabel"`
		Telop     string `json:"telop"`
		Detail    struct {
			Weather *string `json:"weather"`
		} `json:"detail"`
		Temperature struct {
			Min struct {
				Celsius *string `json:"celsius"`
			} `json:"min"`
			Max struct {
				Celsius *string `json:"celsius"`
			} `json:"max"`
		} `json:"temperature"`
	} `json:"forecasts"`
}

func (p *ForecastProvider) Observe(ctx context.Context, area weather.Area) (weather.Observation, error) {
	if area.CityID == "" {
		return weather.Observation{}, fmt.Errorf("%s: %w", p.name, weather.ErrUnknownArea)
	}

	u := fmt.Sprintf("%s/%s", p.baseURL, url.PathEscape(area.CityID))

	var payload forecastPayload
	if err := getJSON(ctx, p.httpCfg, p.circuit, u, &payload); err != nil {
		return weather.Observation{}, err
	}
	if len(payload.Forecasts) == 0 {
		return weather.Observation{}, fmt.Errorf("%w: no forecasts in response", weather.ErrMalformed)
	}

	// Prefer the entry dated today; the first entry otherwise.
	today := p.clock.Now().In(weather.JST).Format("2006-01-02")
	f := payload.Forecasts[0]
	for _, candidate := range payload.Forecasts {
		if candidate.Date == today {
			f = candidate
			break
		}
	}

	var obs weather.Observation

	text := f.Telop
	if text == "" && f.Detail.Weather != nil {
		text = *f.Detail.Weather
	}
	if text != "" {
		obs.Condition = weather.Cond(weather.ConditionFromText(text))
	}

	if f.Temperature.Max.Celsius != nil {
		if v, ok := common.ParseInt(*f.Temperature.Max.Celsius); ok {
			obs.Max = weather.Int(v)
		}
	}
	if f.Temperature.Min.Celsius != nil {
		if v, ok := common.ParseInt(*f.Temperature.Min.Celsius); ok {
			obs.Min = weather.Int(v)
		}
	}

	return obs, nil
}
