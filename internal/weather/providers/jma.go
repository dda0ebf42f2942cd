package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"

	"github.com/Mametango/home-signage-sub000/internal/common"
	"github.com/Mametango/home-signage-sub000/internal/weather"
)

// JMAProvider reads the government forecast document for a forecast office.
// One document serves both the temperature and the weather-code steps of the
// chain, so documents are cached briefly per office.
type JMAProvider struct {
	name     string
	baseURL  string
	clock    clockwork.Clock
	cacheTTL time.Duration
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker

	mu    sync.Mutex
	cache map[string]cachedDocument
}

type cachedDocument struct {
	doc     []jmaForecast
	fetched time.Time
}

func NewJMAProvider(client *http.Client, maxRetries int, clock clockwork.Clock) *JMAProvider {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &JMAProvider{
		name:     "jma",
		baseURL:  "https://www.jma.go.jp/bosai/forecast/data/forecast",
		clock:    clock,
		cacheTTL: time.Minute,
		httpCfg:  DefaultHTTPConfig(client, maxRetries),
		circuit:  newBreaker("jma"),
		cache:    make(map[string]cachedDocument),
	}
}

func (p *JMAProvider) Name() string {
	return p.name
}

type jmaForecast struct {
	PublishingOffice string          `json:"publishingOffice"`
	ReportDatetime   string          `json:"reportDatetime"`
	TimeSeries       []jmaTimeSeries `json:"timeSeries"`
}

type jmaTimeSeries struct {
	TimeDefines []string  `json:"timeDefines"`
	Areas       []jmaArea `json:"areas"`
}

type jmaArea struct {
	Area struct {
		Name string `json:"name"`
		Code string `json:"code"`
	} `json:"area"`
	WeatherCodes []string `json:"weatherCodes"`
	Weathers     []string `json:"weathers"`
	Pops         []string `json:"pops"`
	Temps        []string `json:"temps"`

	// Weekly part only.
	TempsMin []string `json:"tempsMin"`
	TempsMax []string `json:"tempsMax"`
}

// Observe returns the condition from the weather-code series and today's
// temperatures, each when present. The chain decides which of them it uses.
func (p *JMAProvider) Observe(ctx context.Context, area weather.Area) (weather.Observation, error) {
	if area.OfficeCode == "" {
		return weather.Observation{}, fmt.Errorf("%s: %w", p.name, weather.ErrUnknownArea)
	}

	doc, err := p.document(ctx, area.OfficeCode)
	if err != nil {
		return weather.Observation{}, err
	}
	if len(doc) == 0 || len(doc[0].TimeSeries) == 0 {
		return weather.Observation{}, fmt.Errorf("%w: empty forecast document", weather.ErrMalformed)
	}

	var (
		obs      weather.Observation
		todayIdx int
	)
	series := doc[0].TimeSeries
	now := p.clock.Now()

	if codes, ok := findSeries(series, func(a jmaArea) bool { return len(a.WeatherCodes) > 0 }); ok {
		todayIdx = weather.TodayIndex(codes.TimeDefines, now)
		sel := selectArea(codes.Areas, area)
		if code, ok := pick(sel.WeatherCodes, todayIdx); ok {
			obs.Condition = weather.Cond(weather.ConditionFromCode(code))
		}
	}

	if temps, ok := findSeries(series, func(a jmaArea) bool { return len(a.Temps) > 0 }); ok {
		sel := selectArea(temps.Areas, area)
		if hi, lo, _, ok := weather.ParseTemperatures(sel.Temps, todayIdx); ok {
			obs.Max = weather.Int(hi)
			obs.Min = weather.Int(lo)
		}
	}

	return obs, nil
}

// FetchWeekly reads the weekly part of the office document: one entry per day
// with the weather code and precipitation chance of the selected region and
// the daily minimum and maximum of the selected station. Days without a
// parseable code are skipped; blank values stay unset.
func (p *JMAProvider) FetchWeekly(ctx context.Context, area weather.Area) ([]weather.DailyForecast, error) {
	if area.OfficeCode == "" {
		return nil, fmt.Errorf("%s: %w", p.name, weather.ErrUnknownArea)
	}

	doc, err := p.document(ctx, area.OfficeCode)
	if err != nil {
		return nil, err
	}
	if len(doc) < 2 {
		return nil, fmt.Errorf("%w: no weekly forecast in document", weather.ErrMalformed)
	}
	series := doc[1].TimeSeries

	codes, ok := findSeries(series, func(a jmaArea) bool { return len(a.WeatherCodes) > 0 })
	if !ok {
		return nil, fmt.Errorf("%w: no weekly weather codes", weather.ErrMalformed)
	}
	region := selectArea(codes.Areas, area)

	var station jmaArea
	if temps, ok := findSeries(series, func(a jmaArea) bool { return len(a.TempsMax) > 0 || len(a.TempsMin) > 0 }); ok {
		station = selectArea(temps.Areas, area)
	}

	days := make([]weather.DailyForecast, 0, len(codes.TimeDefines))
	for i, def := range codes.TimeDefines {
		date, err := time.Parse(time.RFC3339, def)
		if err != nil {
			return nil, fmt.Errorf("%w: weekly time %q: %v", weather.ErrMalformed, def, err)
		}
		code, ok := valueAt(region.WeatherCodes, i)
		if !ok {
			continue
		}

		cond := weather.ConditionFromCode(code)
		day := weather.DailyForecast{Date: date.In(weather.JST), Condition: cond, Icon: cond.Icon()}
		if v, ok := valueAt(region.Pops, i); ok {
			day.PrecipPercent = weather.Int(v)
		}
		if v, ok := valueAt(station.TempsMax, i); ok {
			day.MaxTemp = weather.Int(v)
		}
		if v, ok := valueAt(station.TempsMin, i); ok {
			day.MinTemp = weather.Int(v)
		}
		days = append(days, day)
	}
	return days, nil
}

func (p *JMAProvider) document(ctx context.Context, office string) ([]jmaForecast, error) {
	now := p.clock.Now()

	p.mu.Lock()
	cached, ok := p.cache[office]
	p.mu.Unlock()
	if ok && now.Sub(cached.fetched) < p.cacheTTL {
		return cached.doc, nil
	}

	u := fmt.Sprintf("%s/%s.json", p.baseURL, url.PathEscape(office))

	var doc []jmaForecast
	if err := getJSON(ctx, p.httpCfg, p.circuit, u, &doc); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[office] = cachedDocument{doc: doc, fetched: now}
	p.mu.Unlock()
	return doc, nil
}

func findSeries(series []jmaTimeSeries, has func(jmaArea) bool) (jmaTimeSeries, bool) {
	for _, s := range series {
		if len(s.Areas) > 0 && has(s.Areas[0]) {
			return s, true
		}
	}
	return jmaTimeSeries{}, false
}

// selectArea prefers the entry naming the target city and falls back to the
// first listed area.
func selectArea(areas []jmaArea, target weather.Area) jmaArea {
	for _, a := range areas {
		if weather.MatchesCity(target, a.Area.Name, a.Area.Code) {
			return a
		}
	}
	return areas[0]
}

// valueAt parses values[i], with no fallback to another index.
func valueAt(values []string, i int) (int, bool) {
	if i < 0 || i >= len(values) {
		return 0, false
	}
	return common.ParseInt(values[i])
}

func pick(values []string, i int) (int, bool) {
	if i < 0 || i >= len(values) {
		i = 0
	}
	if len(values) == 0 {
		return 0, false
	}
	return common.ParseInt(values[i])
}
