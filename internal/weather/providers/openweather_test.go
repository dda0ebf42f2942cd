package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mametango/home-signage-sub000/internal/weather"
)

func TestOpenWeatherProvider_EstimatesRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("appid"))
		assert.Equal(t, "metric", q.Get("units"))
		assert.NotEmpty(t, q.Get("lat"))
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`{"main":{"temp":10.6}}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(nil, "test-key", 0)
	p.baseURL = srv.URL
	p.httpCfg = testHTTPConfig(0)

	obs, err := p.Observe(context.Background(), niigata(t))
	require.NoError(t, err)
	assert.Nil(t, obs.Condition)
	require.NotNil(t, obs.Max)
	require.NotNil(t, obs.Min)
	assert.Equal(t, 14, *obs.Max)
	assert.Equal(t, 8, *obs.Min)
}

func TestOpenWeatherProvider_MissingMain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"cod":200}`))
	}))
	defer srv.Close()

	p := NewOpenWeatherProvider(nil, "test-key", 0)
	p.baseURL = srv.URL
	p.httpCfg = testHTTPConfig(0)

	_, err := p.Observe(context.Background(), niigata(t))
	assert.ErrorIs(t, err, weather.ErrMalformed)
}

func TestOpenWeatherProvider_NoKey(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, "", 0)
	_, err := p.Observe(context.Background(), niigata(t))
	assert.ErrorIs(t, err, weather.ErrConfigMissing)
}
