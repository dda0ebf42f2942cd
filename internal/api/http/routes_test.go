package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mametango/home-signage-sub000/internal/news"
	"github.com/Mametango/home-signage-sub000/internal/quake"
	"github.com/Mametango/home-signage-sub000/internal/settings"
	"github.com/Mametango/home-signage-sub000/internal/store"
	"github.com/Mametango/home-signage-sub000/internal/weather"
)

type fakeWeather struct {
	snapshots *store.SnapshotStore
	refreshed []weather.Location
	current   *weather.WeatherSnapshot
}

func (f *fakeWeather) Current() (weather.WeatherSnapshot, error) {
	if f.current == nil {
		return weather.WeatherSnapshot{}, weather.ErrNoSnapshot
	}
	return *f.current, nil
}

func (f *fakeWeather) GetLatest(loc weather.Location) (weather.WeatherSnapshot, error) {
	return f.snapshots.GetLatest(loc)
}

func (f *fakeWeather) Hourly() []weather.HourlySeries {
	return []weather.HourlySeries{{Provider: "openmeteo", Points: []weather.HourlyPoint{}}}
}

func (f *fakeWeather) Weekly() weather.WeeklyForecast {
	cond := weather.ConditionSnow
	return weather.WeeklyForecast{Provider: "jma", Days: []weather.DailyForecast{{
		Date:      time.Date(2026, 1, 11, 0, 0, 0, 0, weather.JST),
		Condition: cond,
		Icon:      cond.Icon(),
		MaxTemp:   weather.Int(3),
		MinTemp:   weather.Int(-1),
	}}}
}

func (f *fakeWeather) Refresh(_ context.Context, loc weather.Location) error {
	f.refreshed = append(f.refreshed, loc)
	s := weather.WeatherSnapshot{Location: loc, Condition: weather.ConditionClear, Icon: weather.ConditionClear.Icon(), UpdatedAt: time.Now().UTC()}
	f.snapshots.SaveSnapshot(s)
	f.current = &s
	return nil
}

type fakeNews struct{}

func (fakeNews) Headlines() []news.Headline {
	return []news.Headline{{Title: "見出し", Link: "https://example.com/1"}}
}

type fakeQuakes struct {
	dismissed []string
}

func (f *fakeQuakes) Reports(context.Context) ([]quake.Report, error) {
	return []quake.Report{{ID: "q1", Intensity: "3"}}, nil
}

func (f *fakeQuakes) Dismiss(_ context.Context, id string) error {
	f.dismissed = append(f.dismissed, id)
	return nil
}

type testEnv struct {
	app      *fiber.App
	weather  *fakeWeather
	quakes   *fakeQuakes
	settings *settings.Store
	log      *store.CommentaryLog
}

var niigata = weather.Location{Prefecture: "新潟県", City: "新潟市"}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := settings.Open(context.Background(), ":memory:", settings.Settings{Location: niigata})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	env := &testEnv{
		app:      fiber.New(fiber.Config{ErrorHandler: ErrorHandler}),
		weather:  &fakeWeather{snapshots: store.NewSnapshotStore()},
		quakes:   &fakeQuakes{},
		settings: st,
		log:      store.NewCommentaryLog(5),
	}
	RegisterRoutes(env.app, Deps{
		Weather:    env.weather,
		Commentary: env.log,
		News:       fakeNews{},
		Quakes:     env.quakes,
		Settings:   st,
	})
	return env
}

func do(t *testing.T, app *fiber.App, method, target, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestCurrentWeather_NoDataYet(t *testing.T) {
	env := newTestEnv(t)

	resp, body := do(t, env.app, http.MethodGet, "/api/weather/current", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, true, out["error"])
}

func TestRefreshThenCurrent(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := do(t, env.app, http.MethodPost, "/api/weather/refresh", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, env.weather.refreshed, 1)
	assert.Equal(t, niigata, env.weather.refreshed[0])

	resp, body := do(t, env.app, http.MethodGet, "/api/weather/current", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap weather.WeatherSnapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, weather.ConditionClear, snap.Condition)
	assert.Equal(t, "☀", snap.Icon)
}

func TestCurrentWeather_ByLocationValidation(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := do(t, env.app, http.MethodGet, "/api/weather/current?city=Niigata", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCurrentWeather_ByLocation(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := do(t, env.app, http.MethodPost, "/api/weather/refresh", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	query := url.Values{"prefecture": {niigata.Prefecture}, "city": {niigata.City}}
	resp, _ = do(t, env.app, http.MethodGet, "/api/weather/current?"+query.Encode(), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	query = url.Values{"prefecture": {"東京都"}, "city": {"東京"}}
	resp, _ = do(t, env.app, http.MethodGet, "/api/weather/current?"+query.Encode(), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWeeklyForecast(t *testing.T) {
	env := newTestEnv(t)

	resp, body := do(t, env.app, http.MethodGet, "/api/weather/weekly", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out weather.WeeklyForecast
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "jma", out.Provider)
	require.Len(t, out.Days, 1)
	assert.Equal(t, weather.ConditionSnow, out.Days[0].Condition)
	require.NotNil(t, out.Days[0].MinTemp)
	assert.Equal(t, -1, *out.Days[0].MinTemp)
}

func TestCommentaryEntries(t *testing.T) {
	env := newTestEnv(t)
	env.log.Append("寒い一日です。", weather.OriginRule)

	resp, body := do(t, env.app, http.MethodGet, "/api/weather/commentary", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Entries []store.CommentaryEntry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Entries, 1)
	assert.Equal(t, weather.OriginRule, out.Entries[0].Origin)
}

func TestNewsAndHourly(t *testing.T) {
	env := newTestEnv(t)

	resp, body := do(t, env.app, http.MethodGet, "/api/news", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "見出し")

	resp, body = do(t, env.app, http.MethodGet, "/api/weather/hourly", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "openmeteo")
}

func TestQuakes(t *testing.T) {
	env := newTestEnv(t)

	resp, body := do(t, env.app, http.MethodGet, "/api/quakes", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"q1"`)

	resp, _ = do(t, env.app, http.MethodPost, "/api/quakes/q1/dismiss", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{"q1"}, env.quakes.dismissed)
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t)

	var notified []settings.Settings
	env.settings.Subscribe(func(s settings.Settings) { notified = append(notified, s) })

	resp, _ := do(t, env.app, http.MethodPut, "/api/settings/location", `{"prefecture":"東京都"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, notified)

	resp, _ = do(t, env.app, http.MethodPut, "/api/settings/location", `{"prefecture":"東京都","city":"東京"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, env.app, http.MethodPut, "/api/settings/preferences", `{"aiCommentary":true,"takeover":false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, notified, 2)

	resp, body := do(t, env.app, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got settings.Settings
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "東京", got.Location.City)
	assert.True(t, got.Preferences.AICommentary)
}
