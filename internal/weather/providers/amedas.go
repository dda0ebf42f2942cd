package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"

	"github.com/Mametango/home-signage-sub000/internal/weather"
)

// StationOffset is the spread applied around a live station reading to
// estimate today's high and low.
const StationOffset = 2

// AmedasProvider reads the latest live observation from the station network
// and estimates today's range from the nearest station's current temperature.
type AmedasProvider struct {
	name     string
	baseURL  string
	clock    clockwork.Clock
	tableTTL time.Duration
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker

	mu        sync.Mutex
	stations  []weather.Station
	tableTime time.Time
}

func NewAmedasProvider(client *http.Client, maxRetries int, clock clockwork.Clock) *AmedasProvider {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AmedasProvider{
		name:     "amedas",
		baseURL:  "https://www.jma.go.jp/bosai/amedas",
		clock:    clock,
		tableTTL: 24 * time.Hour,
		httpCfg:  DefaultHTTPConfig(client, maxRetries),
		circuit:  newBreaker("amedas"),
	}
}

func (p *AmedasProvider) Name() string {
	return p.name
}

// amedasStation is one row of the station table. Coordinates are given as
// [degrees, minutes].
type amedasStation struct {
	Lat    []float64 `json:"lat"`
	Lon    []float64 `json:"lon"`
	KjName string    `json:"kjName"`
	EnName string    `json:"enName"`
}

type amedasReading struct {
	Temp []*float64 `json:"temp"`
}

func (p *AmedasProvider) Observe(ctx context.Context, area weather.Area) (weather.Observation, error) {
	if !area.HasCoordinates() {
		return weather.Observation{}, fmt.Errorf("%s: %w", p.name, weather.ErrUnknownArea)
	}

	stations, err := p.stationTable(ctx)
	if err != nil {
		return weather.Observation{}, err
	}

	readings, err := p.latestReadings(ctx)
	if err != nil {
		return weather.Observation{}, err
	}

	// Only stations that currently report a temperature are candidates.
	candidates := make([]weather.Station, 0, len(readings))
	temps := make([]float64, 0, len(readings))
	for _, s := range stations {
		r, ok := readings[s.ID]
		if !ok || len(r.Temp) == 0 || r.Temp[0] == nil {
			continue
		}
		candidates = append(candidates, s)
		temps = append(temps, *r.Temp[0])
	}

	i := weather.NearestStation(candidates, *area.Lat, *area.Lon)
	if i < 0 {
		return weather.Observation{}, nil
	}

	current := roundTemp(temps[i])
	return weather.Observation{
		Max: weather.Int(current + StationOffset),
		Min: weather.Int(current - StationOffset),
	}, nil
}

func (p *AmedasProvider) stationTable(ctx context.Context) ([]weather.Station, error) {
	now := p.clock.Now()

	p.mu.Lock()
	if len(p.stations) > 0 && now.Sub(p.tableTime) < p.tableTTL {
		stations := p.stations
		p.mu.Unlock()
		return stations, nil
	}
	p.mu.Unlock()

	var table map[string]amedasStation
	if err := getJSON(ctx, p.httpCfg, p.circuit, p.baseURL+"/const/amedastable.json", &table); err != nil {
		return nil, err
	}

	stations := make([]weather.Station, 0, len(table))
	for id, row := range table {
		if len(row.Lat) < 2 || len(row.Lon) < 2 {
			continue
		}
		stations = append(stations, weather.Station{
			ID:   id,
			Name: row.KjName,
			Lat:  row.Lat[0] + row.Lat[1]/60,
			Lon:  row.Lon[0] + row.Lon[1]/60,
		})
	}
	if len(stations) == 0 {
		return nil, fmt.Errorf("%w: empty station table", weather.ErrMalformed)
	}

	p.mu.Lock()
	p.stations, p.tableTime = stations, now
	p.mu.Unlock()
	return stations, nil
}

func (p *AmedasProvider) latestReadings(ctx context.Context) (map[string]amedasReading, error) {
	raw, err := getBody(ctx, p.httpCfg, p.circuit, p.baseURL+"/data/latest_time.txt")
	if err != nil {
		return nil, err
	}
	latest, err := time.Parse(time.RFC3339, strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("%w: latest time %q: %v", weather.ErrMalformed, raw, err)
	}

	u := fmt.Sprintf("%s/data/map/%s.json", p.baseURL, latest.In(weather.JST).Format("20060102150405"))

	var readings map[string]amedasReading
	if err := getJSON(ctx, p.httpCfg, p.circuit, u, &readings); err != nil {
		return nil, err
	}
	return readings, nil
}
