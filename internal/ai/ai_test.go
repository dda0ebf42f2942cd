package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.InDelta(t, Temperature, req.Temperature, 1e-6)
		assert.Equal(t, MaxTokens, req.MaxTokens)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestClient_Comment(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"id":"c1","object":"chat.completion","choices":[
		{"index":0,"message":{"role":"assistant","content":"  今日は冷たい雨、傘を忘れずに。 \n"},"finish_reason":"stop"}]}`)
	defer srv.Close()

	c := NewClient("test-key", srv.URL+"/v1/", "test-model", "[AI] ", srv.Client())
	got, err := c.Comment(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "[AI] 今日は冷たい雨、傘を忘れずに。", got)
}

func TestClient_NoChoices(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"id":"c1","object":"chat.completion","choices":[]}`)
	defer srv.Close()

	c := NewClient("test-key", srv.URL+"/v1", "test-model", "", srv.Client())
	_, err := c.Complete(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestClient_NoAPIKey(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer srv.Close()

	c := NewClient(" ", srv.URL+"/v1", "test-model", "[AI] ", srv.Client())
	_, err := c.Comment(context.Background(), "prompt")
	assert.ErrorIs(t, err, ErrNoAPIKey)
	assert.False(t, called)
}

func TestClient_UpstreamAPIError(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests, `{"error":{"message":"quota exceeded","type":"rate_limit_error"}}`)
	defer srv.Close()

	c := NewClient("test-key", srv.URL+"/v1", "test-model", "", srv.Client())
	_, err := c.Complete(context.Background(), "prompt")
	require.Error(t, err)

	status, body := UpstreamStatus(err)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Contains(t, body, "quota exceeded")
}

func TestUpstreamStatus_Transport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient("test-key", url+"/v1", "test-model", "", nil)
	_, err := c.Complete(context.Background(), "prompt")
	require.Error(t, err)

	status, body := UpstreamStatus(err)
	assert.Zero(t, status)
	assert.NotEmpty(t, body)
}

func TestProxyCommenter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Prompt)
		_ = json.NewEncoder(w).Encode(Response{Description: "[AI] 晴れて暖かい一日です。"})
	}))
	defer srv.Close()

	got, err := NewProxyCommenter(srv.URL, srv.Client()).Comment(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "[AI] 晴れて暖かい一日です。", got)
}

func TestProxyCommenter_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream"}`))
	}))
	defer srv.Close()

	_, err := NewProxyCommenter(srv.URL, srv.Client()).Comment(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
