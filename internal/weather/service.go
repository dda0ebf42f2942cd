package weather

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Mametango/home-signage-sub000/internal/events"
)

// Commentary origins recorded in the commentary log.
const (
	OriginRule = "rule"
	OriginAI   = "ai"
)

// ServiceDeps bundles the collaborators of a Service. Only Resolver and Store
// are required.
type ServiceDeps struct {
	Resolver *Resolver
	Store    Store
	Log      CommentaryLog

	// Commenter is the optional AI relay client; AILabel is the prefix the
	// relay adds to every description.
	Commenter Commenter
	AILabel   string
	AIEnabled func() bool
	AITimeout time.Duration

	Hourly   []HourlyProvider
	Weekly   WeeklyProvider
	Geocoder Geocoder

	Clock    clockwork.Clock
	Logger   *slog.Logger
	Recorder Recorder
}

// Service runs resolution cycles and keeps the displayed state current.
type Service struct {
	deps ServiceDeps

	changes *events.Topic[Condition]

	mu       sync.Mutex
	seq      uint64
	applied  uint64
	lastCond Condition
	hourly   map[string]HourlySeries
	weekly   WeeklyForecast
	geocoded map[string][2]float64
	lastLoc  Location
	hasLast  bool
}

// NewService creates a new Service.
func NewService(deps ServiceDeps) *Service {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.AITimeout <= 0 {
		deps.AITimeout = 20 * time.Second
	}
	return &Service{
		deps:     deps,
		changes:  events.NewTopic[Condition](),
		hourly:   make(map[string]HourlySeries),
		geocoded: make(map[string][2]float64),
	}
}

// ConditionChanges publishes the new condition whenever a cycle resolves a
// condition different from the previous one.
func (s *Service) ConditionChanges() *events.Topic[Condition] {
	return s.changes
}

// Refresh runs one resolution cycle for loc. A cycle that finishes after a
// newer one has been applied is dropped; the newest started cycle wins.
func (s *Service) Refresh(ctx context.Context, loc Location) error {
	if s.deps.Resolver == nil || s.deps.Store == nil {
		return fmt.Errorf("weather service is not configured")
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	start := s.deps.Clock.Now()
	area := s.area(ctx, loc)
	snapshot := s.deps.Resolver.Resolve(ctx, area)

	changed, applied := s.apply(seq, snapshot)
	elapsed := s.deps.Clock.Since(start).Seconds()
	if s.deps.Recorder != nil {
		s.deps.Recorder.CycleCompleted(elapsed, !applied)
	}
	if !applied {
		s.deps.Logger.Info("dropping result of stale weather cycle", "location", loc.Key(), "cycle", seq)
		return nil
	}

	if s.deps.Log != nil {
		s.deps.Log.Append(snapshot.Commentary, OriginRule)
	}
	if changed {
		s.changes.Publish(snapshot.Condition)
	}

	s.supplementAI(ctx, seq, snapshot)
	s.fetchHourly(ctx, area, seq)
	s.fetchWeekly(ctx, area, seq)

	s.deps.Logger.Info("weather cycle completed",
		"location", loc.Key(),
		"condition", snapshot.Condition,
		"sources", len(snapshot.Sources),
		"seconds", elapsed,
	)
	return nil
}

// apply stores snapshot unless a newer cycle has already been applied.
func (s *Service) apply(seq uint64, snapshot WeatherSnapshot) (changed, applied bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq < s.applied {
		return false, false
	}
	s.applied = seq
	s.deps.Store.SaveSnapshot(snapshot)

	changed = snapshot.Condition != s.lastCond
	s.lastCond = snapshot.Condition
	s.lastLoc = snapshot.Location
	s.hasLast = true
	return changed, true
}

// supplementAI asks the commenter for a line about snapshot and appends it
// when acceptable. A reply that arrives after a newer cycle applied is dropped.
func (s *Service) supplementAI(ctx context.Context, seq uint64, snapshot WeatherSnapshot) {
	if s.deps.Commenter == nil || s.deps.Log == nil {
		return
	}
	if s.deps.AIEnabled != nil && !s.deps.AIEnabled() {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.deps.AITimeout)
	defer cancel()

	raw, err := s.deps.Commenter.Comment(ctx, CommentaryPrompt(snapshot))
	if err != nil {
		s.deps.Logger.Warn("ai commentary request failed", "error", err)
		return
	}
	text, ok := AcceptAICommentary(raw, s.deps.AILabel)
	if !ok {
		s.deps.Logger.Debug("ai commentary discarded", "text", raw)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.applied {
		s.deps.Logger.Info("dropping ai commentary of stale weather cycle", "cycle", seq)
		return
	}
	s.deps.Log.Append(text, OriginAI)
}

func (s *Service) fetchHourly(ctx context.Context, area Area, seq uint64) {
	for _, p := range s.deps.Hourly {
		points, err := p.FetchHourly(ctx, area)
		if err != nil {
			s.deps.Logger.Warn("hourly forecast fetch failed", "provider", p.Name(), "error", err)
			points = []HourlyPoint{}
		}

		s.mu.Lock()
		if seq == s.applied {
			s.hourly[p.Name()] = HourlySeries{Provider: p.Name(), Points: points}
		}
		s.mu.Unlock()
	}
}

func (s *Service) fetchWeekly(ctx context.Context, area Area, seq uint64) {
	p := s.deps.Weekly
	if p == nil {
		return
	}
	days, err := p.FetchWeekly(ctx, area)
	if err != nil {
		s.deps.Logger.Warn("weekly forecast fetch failed", "provider", p.Name(), "error", err)
		days = []DailyForecast{}
	}

	s.mu.Lock()
	if seq == s.applied {
		s.weekly = WeeklyForecast{Provider: p.Name(), Days: days}
	}
	s.mu.Unlock()
}

// area maps loc through the catalog, asking the geocoder for coordinates of
// locations the catalog does not know. Geocoder answers are cached.
func (s *Service) area(ctx context.Context, loc Location) Area {
	area, ok := LookupArea(loc)
	if ok || s.deps.Geocoder == nil {
		if !ok {
			s.deps.Logger.Warn("location not in catalog", "location", loc.Key())
		}
		return area
	}

	s.mu.Lock()
	coords, cached := s.geocoded[loc.Key()]
	s.mu.Unlock()

	if !cached {
		lat, lon, err := s.deps.Geocoder.Geocode(ctx, loc)
		if err != nil {
			s.deps.Logger.Warn("geocoding failed", "location", loc.Key(), "error", err)
			return area
		}
		coords = [2]float64{lat, lon}
		s.mu.Lock()
		s.geocoded[loc.Key()] = coords
		s.mu.Unlock()
	}

	area.Lat, area.Lon = &coords[0], &coords[1]
	return area
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(loc Location) (WeatherSnapshot, error) {
	return s.deps.Store.GetLatest(loc)
}

// Current returns the most recently applied snapshot, whatever its location.
func (s *Service) Current() (WeatherSnapshot, error) {
	s.mu.Lock()
	loc, ok := s.lastLoc, s.hasLast
	s.mu.Unlock()
	if !ok {
		return WeatherSnapshot{}, ErrNoSnapshot
	}
	return s.deps.Store.GetLatest(loc)
}

// Weekly returns the weekly outlook of the last applied cycle.
func (s *Service) Weekly() WeeklyForecast {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.weekly
	if out.Days == nil {
		out.Days = []DailyForecast{}
	}
	return out
}

// Hourly returns the latest hourly series in provider order.
func (s *Service) Hourly() []HourlySeries {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]HourlySeries, 0, len(s.deps.Hourly))
	for _, p := range s.deps.Hourly {
		if series, ok := s.hourly[p.Name()]; ok {
			out = append(out, series)
		}
	}
	return out
}
