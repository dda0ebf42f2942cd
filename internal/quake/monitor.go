// Package quake polls the public earthquake report feed and tracks which
// reports the display should still show.
package quake

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"
)

// reportCode selects seismic intensity reports in the history API.
const reportCode = 551

// ActiveWindow is how long after the quake a report takes over the display.
const ActiveWindow = 10 * time.Minute

var jst = time.FixedZone("JST", 9*60*60)

// Report is one earthquake report.
type Report struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	Place     string    `json:"place"`
	Magnitude float64   `json:"magnitude"`
	DepthKm   int       `json:"depthKm"`
	MaxScale  int       `json:"maxScale"`
	Intensity string    `json:"intensity"`
	Tsunami   string    `json:"tsunami"`
	Active    bool      `json:"active"`
}

// DismissStore persists dismissed report ids.
type DismissStore interface {
	Dismiss(ctx context.Context, id string) error
	Dismissed(ctx context.Context) (map[string]struct{}, error)
}

// Monitor keeps the latest reports from the last successful poll.
type Monitor struct {
	baseURL string
	limit   int
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	store   DismissStore
	clock   clockwork.Clock
	logger  *slog.Logger

	mu      sync.RWMutex
	reports []Report
}

func NewMonitor(client *http.Client, limit int, store DismissStore, clock clockwork.Clock, logger *slog.Logger) *Monitor {
	if client == nil {
		client = http.DefaultClient
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		baseURL: "https://api.p2pquake.net/v2/history",
		limit:   limit,
		client:  client,
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:     "quake",
			Interval: time.Minute,
			Timeout:  2 * time.Minute,
		}),
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

type historyEntry struct {
	ID         string `json:"id"`
	Code       int    `json:"code"`
	Earthquake struct {
		Time       string `json:"time"`
		Hypocenter struct {
			Name      string  `json:"name"`
			Depth     int     `json:"depth"`
			Magnitude float64 `json:"magnitude"`
		} `json:"hypocenter"`
		MaxScale        int    `json:"maxScale"`
		DomesticTsunami string `json:"domesticTsunami"`
	} `json:"earthquake"`
}

// Poll fetches the latest reports. On failure the previous reports are kept.
func (m *Monitor) Poll(ctx context.Context) error {
	values := url.Values{}
	values.Set("codes", strconv.Itoa(reportCode))
	values.Set("limit", strconv.Itoa(m.limit))
	u := fmt.Sprintf("%s?%s", m.baseURL, values.Encode())

	result, err := m.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		resp, err := m.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	})
	if err != nil {
		return fmt.Errorf("quake history: %w", err)
	}

	var entries []historyEntry
	if err := json.Unmarshal(result.([]byte), &entries); err != nil {
		return fmt.Errorf("quake history: decode: %w", err)
	}

	reports := make([]Report, 0, len(entries))
	for _, e := range entries {
		if e.Code != reportCode || e.ID == "" {
			continue
		}
		ts, err := time.ParseInLocation("2006/01/02 15:04:05", e.Earthquake.Time, jst)
		if err != nil {
			m.logger.Debug("skipping quake report with bad time", "id", e.ID, "time", e.Earthquake.Time)
			continue
		}
		reports = append(reports, Report{
			ID:        e.ID,
			Time:      ts.UTC(),
			Place:     e.Earthquake.Hypocenter.Name,
			Magnitude: e.Earthquake.Hypocenter.Magnitude,
			DepthKm:   e.Earthquake.Hypocenter.Depth,
			MaxScale:  e.Earthquake.MaxScale,
			Intensity: IntensityLabel(e.Earthquake.MaxScale),
			Tsunami:   e.Earthquake.DomesticTsunami,
		})
	}

	m.mu.Lock()
	m.reports = reports
	m.mu.Unlock()
	return nil
}

// Reports returns the latest reports minus the dismissed ones, newest first
// as delivered by the feed.
func (m *Monitor) Reports(ctx context.Context) ([]Report, error) {
	dismissed, err := m.store.Dismissed(ctx)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.clock.Now()
	out := make([]Report, 0, len(m.reports))
	for _, r := range m.reports {
		if _, ok := dismissed[r.ID]; ok {
			continue
		}
		r.Active = now.Sub(r.Time) <= ActiveWindow
		out = append(out, r)
	}
	return out, nil
}

func (m *Monitor) Dismiss(ctx context.Context, id string) error {
	return m.store.Dismiss(ctx, id)
}

// IntensityLabel renders the feed's scale code on the Japanese seismic
// intensity scale.
func IntensityLabel(scale int) string {
	switch scale {
	case 10:
		return "1"
	case 20:
		return "2"
	case 30:
		return "3"
	case 40:
		return "4"
	case 45:
		return "5-"
	case 46:
		return "5- (estimated)"
	case 50:
		return "5+"
	case 55:
		return "6-"
	case 60:
		return "6+"
	case 70:
		return "7"
	default:
		return "unknown"
	}
}
