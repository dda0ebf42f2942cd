package quake

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const history = `[
	{"id":"q2","code":551,"earthquake":{"time":"2026/01/10 11:55:00","hypocenter":{"name":"新潟県中越地方","depth":10,"magnitude":4.8},"maxScale":45,"domesticTsunami":"None"}},
	{"id":"q1","code":551,"earthquake":{"time":"2026/01/10 08:00:00","hypocenter":{"name":"千葉県東方沖","depth":40,"magnitude":3.9},"maxScale":20,"domesticTsunami":"None"}},
	{"id":"x","code":552,"earthquake":{"time":"2026/01/10 07:00:00"}}
]`

type memDismissed struct {
	ids map[string]struct{}
}

func (m *memDismissed) Dismiss(_ context.Context, id string) error {
	m.ids[id] = struct{}{}
	return nil
}

func (m *memDismissed) Dismissed(context.Context) (map[string]struct{}, error) {
	return m.ids, nil
}

func testMonitor(t *testing.T, handler http.HandlerFunc) (*Monitor, *memDismissed) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := &memDismissed{ids: map[string]struct{}{}}
	// 12:00 JST.
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 10, 3, 0, 0, 0, time.UTC))
	m := NewMonitor(srv.Client(), 10, store, clock, slog.New(slog.NewTextHandler(io.Discard, nil)))
	m.baseURL = srv.URL
	return m, store
}

func TestMonitor_PollAndReports(t *testing.T) {
	m, _ := testMonitor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "551", r.URL.Query().Get("codes"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(history))
	})

	require.NoError(t, m.Poll(context.Background()))
	reports, err := m.Reports(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, "q2", reports[0].ID)
	assert.Equal(t, "5-", reports[0].Intensity)
	assert.Equal(t, time.Date(2026, 1, 10, 2, 55, 0, 0, time.UTC), reports[0].Time)
	assert.True(t, reports[0].Active)
	assert.False(t, reports[1].Active)
}

func TestMonitor_DismissedExcluded(t *testing.T) {
	m, store := testMonitor(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(history))
	})

	require.NoError(t, m.Poll(context.Background()))
	require.NoError(t, m.Dismiss(context.Background(), "q2"))
	assert.Contains(t, store.ids, "q2")

	reports, err := m.Reports(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "q1", reports[0].ID)
}

func TestMonitor_FailureKeepsReports(t *testing.T) {
	var fail atomic.Bool
	m, _ := testMonitor(t, func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(history))
	})

	require.NoError(t, m.Poll(context.Background()))
	fail.Store(true)
	assert.Error(t, m.Poll(context.Background()))

	reports, err := m.Reports(context.Background())
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}

func TestIntensityLabel(t *testing.T) {
	assert.Equal(t, "1", IntensityLabel(10))
	assert.Equal(t, "6+", IntensityLabel(60))
	assert.Equal(t, "unknown", IntensityLabel(-1))
}
