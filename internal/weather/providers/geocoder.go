package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/Mametango/home-signage-sub000/internal/weather"
)

// GoogleGeocoder resolves coordinates for locations missing from the area
// catalog through the Google Maps geocoding API.
type GoogleGeocoder struct {
	apiKey string
	lookup func(geocoder.Address) (geocoder.Location, error)
}

// geocoderMu guards the package-level key the geocoder library reads.
var geocoderMu sync.Mutex

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{apiKey: apiKey, lookup: geocoder.Geocoding}
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, loc weather.Location) (float64, float64, error) {
	if g.apiKey == "" {
		return 0, 0, fmt.Errorf("%w: geocoder api key", weather.ErrConfigMissing)
	}
	if err := ctx.Err(); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", weather.ErrNetwork, err)
	}

	geocoderMu.Lock()
	geocoder.ApiKey = g.apiKey
	result, err := g.lookup(geocoder.Address{
		City:    loc.City,
		State:   loc.Prefecture,
		Country: "Japan",
	})
	geocoderMu.Unlock()

	if err != nil {
		return 0, 0, fmt.Errorf("%w: geocode %s: %v", weather.ErrUpstream, loc.Key(), err)
	}
	if result.Latitude == 0 && result.Longitude == 0 {
		return 0, 0, fmt.Errorf("%w: no coordinates for %s", weather.ErrUnknownArea, loc.Key())
	}
	return result.Latitude, result.Longitude, nil
}
