package weather

import (
	"context"
	"log/slog"

	"github.com/jonboulle/clockwork"
)

// Gate decides from the accumulated observation whether a step runs.
type Gate func(acc Observation) bool

// Gates used by the default chain.
var (
	Always           Gate = func(Observation) bool { return true }
	MissingMin       Gate = func(o Observation) bool { return o.Min == nil }
	MissingCondition Gate = func(o Observation) bool { return o.Condition == nil }
	MissingBothTemps Gate = func(o Observation) bool { return o.Max == nil && o.Min == nil }
	MissingAnyTemp   Gate = func(o Observation) bool { return o.Max == nil || o.Min == nil }
)

// Step is one entry of the fallback chain: the provider to ask, when to ask
// it, and which fields it is allowed to fill.
type Step struct {
	Provider Provider
	When     Gate
	Fields   Field
}

// Resolver folds an ordered list of steps into a single snapshot. The first
// step to supply a field wins; later steps only fill fields still missing.
type Resolver struct {
	steps    []Step
	clock    clockwork.Clock
	logger   *slog.Logger
	recorder Recorder
}

// NewResolver creates a Resolver over steps, consulted in slice order.
func NewResolver(steps []Step, clock clockwork.Clock, logger *slog.Logger, recorder Recorder) *Resolver {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		steps:    steps,
		clock:    clock,
		logger:   logger,
		recorder: recorder,
	}
}

// Resolve runs the chain for area. It never fails: provider errors count as
// no data, and with no data at all the condition defaults to clear.
func (r *Resolver) Resolve(ctx context.Context, area Area) WeatherSnapshot {
	var acc Observation
	sources := make(map[string]string)

	for _, st := range r.steps {
		if st.Provider == nil {
			continue
		}
		if st.When != nil && !st.When(acc) {
			continue
		}

		name := st.Provider.Name()
		obs, err := st.Provider.Observe(ctx, area)
		if err != nil {
			outcome := Classify(err)
			r.record(name, outcome)
			r.logger.Warn("provider step failed",
				"provider", name, "location", area.Key(), "outcome", outcome, "error", err)
			continue
		}
		if !merge(&acc, obs, st.Fields, name, sources) {
			r.record(name, "empty")
			r.logger.Debug("provider returned no usable data", "provider", name, "location", area.Key())
			continue
		}
		r.record(name, "ok")
	}

	if acc.Empty() {
		r.logger.Error("all sources failed", "location", area.Key())
	}

	cond := ConditionClear
	if acc.Condition != nil {
		cond = *acc.Condition
	}

	return WeatherSnapshot{
		Location:   area.Location,
		Condition:  cond,
		Icon:       cond.Icon(),
		MaxTemp:    acc.Max,
		MinTemp:    acc.Min,
		Commentary: RuleCommentary(cond, acc.Max, acc.Min),
		UpdatedAt:  r.clock.Now().UTC(),
		Sources:    sources,
	}
}

func (r *Resolver) record(provider, outcome string) {
	if r.recorder != nil {
		r.recorder.ProviderResult(provider, outcome)
	}
}

// merge copies the fields of obs allowed by mask into acc, never replacing a
// field acc already holds. It reports whether any field was filled.
func merge(acc *Observation, obs Observation, mask Field, provider string, sources map[string]string) (filled bool) {
	if mask&FieldCondition != 0 && acc.Condition == nil && obs.Condition != nil {
		c := *obs.Condition
		acc.Condition = &c
		sources[FieldCondition.String()] = provider
		filled = true
	}
	if mask&FieldMax != 0 && acc.Max == nil && obs.Max != nil {
		acc.Max = Int(*obs.Max)
		sources[FieldMax.String()] = provider
		filled = true
	}
	if mask&FieldMin != 0 && acc.Min == nil && obs.Min != nil {
		acc.Min = Int(*obs.Min)
		sources[FieldMin.String()] = provider
		filled = true
	}
	return filled
}
