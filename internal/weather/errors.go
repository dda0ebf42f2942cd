package weather

import "errors"

// Provider failures. Providers wrap one of these with %w so the resolver can
// classify a failed step without knowing the provider.
var (
	ErrNetwork       = errors.New("network failure")
	ErrUpstream      = errors.New("upstream error")
	ErrMalformed     = errors.New("malformed payload")
	ErrConfigMissing = errors.New("configuration missing")

	// ErrUnknownArea is returned when an area lacks the identifier a provider needs.
	ErrUnknownArea = errors.New("area has no identifier for provider")

	// ErrNoSnapshot is returned before the first cycle has been applied.
	ErrNoSnapshot = errors.New("no weather snapshot yet")
)

// Classify maps a provider error onto a short outcome label for logs and metrics.
func Classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConfigMissing):
		return "config_missing"
	case errors.Is(err, ErrUnknownArea):
		return "unknown_area"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	default:
		return "network"
	}
}
