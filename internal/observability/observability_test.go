package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")
	logger.Debug("hidden")
	logger.Info("weather cycle completed", "location", "新潟/新潟")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "weather cycle completed", line["msg"])
	assert.Equal(t, "新潟/新潟", line["location"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "text")
	logger.Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}

func TestMetrics_Recorder(t *testing.T) {
	m := NewMetricsForTesting()

	m.ProviderResult("forecast", "ok")
	m.ProviderResult("forecast", "ok")
	m.ProviderResult("jma", "network")
	m.CycleCompleted(0.5, false)
	m.CycleCompleted(0.7, true)

	assert.InDelta(t, 2, testutil.ToFloat64(m.ProviderResults.WithLabelValues("forecast", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ProviderResults.WithLabelValues("jma", "network")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.StaleCycles), 0)
}

func TestMetrics_RelayAndPoll(t *testing.T) {
	m := NewMetricsForTesting()

	m.RelayResult("ai", 502)
	m.PollResult("news", nil)
	m.PollResult("quake", errors.New("timeout"))

	assert.InDelta(t, 1, testutil.ToFloat64(m.RelayRequests.WithLabelValues("ai", "502")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.PollResults.WithLabelValues("news", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.PollResults.WithLabelValues("quake", "error")), 0)
}
