package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Mametango/home-signage-sub000/internal/ai"
	"github.com/Mametango/home-signage-sub000/internal/common"
)

// Relay names used as metric labels.
const (
	RelayAI          = "ai"
	RelayRegional    = "regional"
	RelayBroadcaster = "broadcaster"
)

// maxFeedBytes caps how much of a relayed feed is read.
const maxFeedBytes = 4 << 20

// Completer is the generative model client behind the commentary relay.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Label() string
}

// RelayRecorder counts relay responses. A nil RelayRecorder is valid.
type RelayRecorder interface {
	RelayResult(relay string, code int)
}

// RelayDeps configures the relay endpoints. A nil AI means no API key is
// configured and the commentary relay answers 500.
type RelayDeps struct {
	AI                Completer
	AITimeout         time.Duration
	FeedClient        *http.Client
	BroadcasterPrefix string
	Recorder          RelayRecorder
}

type relays struct {
	deps RelayDeps
}

// RegisterRelays wires the three relay endpoints. They are registered for
// every method so that disallowed methods get a 405 from the handler itself.
func RegisterRelays(app *fiber.App, deps RelayDeps) {
	if deps.FeedClient == nil {
		deps.FeedClient = &http.Client{Timeout: 10 * time.Second}
	}
	if deps.AITimeout <= 0 {
		deps.AITimeout = 20 * time.Second
	}
	r := &relays{deps: deps}

	app.All("/api/ai-weather-commentary", r.observe(RelayAI, r.commentary))
	app.Get("/api/regional-news-feed", r.observe(RelayRegional, r.regionalFeed))
	app.All("/api/broadcaster-news-feed", r.observe(RelayBroadcaster, r.broadcasterFeed))
}

func (r *relays) observe(name string, h fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := h(c)
		if r.deps.Recorder != nil {
			code := c.Response().StatusCode()
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			} else if err != nil {
				code = fiber.StatusInternalServerError
			}
			r.deps.Recorder.RelayResult(name, code)
		}
		return err
	}
}

// commentary checks run in a fixed order: method, key, body, upstream.
func (r *relays) commentary(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		c.Set(fiber.HeaderAllow, fiber.MethodPost)
		return fiber.NewError(fiber.StatusMethodNotAllowed, "method not allowed")
	}
	if r.deps.AI == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "AI API key is not configured")
	}

	body := c.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "request body is required")
	}
	var req ai.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "prompt is required")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), r.deps.AITimeout)
	defer cancel()

	text, err := r.deps.AI.Complete(ctx, req.Prompt)
	if err != nil {
		status, detail := ai.UpstreamStatus(err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":          true,
			"message":        "upstream model request failed",
			"upstreamStatus": status,
			"detail":         detail,
		})
	}

	return c.JSON(ai.Response{Description: r.deps.AI.Label() + text})
}

type feedQuery struct {
	URL string `validate:"required,http_url"`
}

func (r *relays) regionalFeed(c *fiber.Ctx) error {
	q := feedQuery{URL: c.Query("url")}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "url query parameter must be an http(s) URL")
	}

	body, _, err := r.fetchFeed(c.UserContext(), q.URL)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, fmt.Sprintf("failed to fetch feed: %v", err))
	}
	return sendXML(c, body)
}

func (r *relays) broadcasterFeed(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodGet {
		c.Set(fiber.HeaderAllow, fiber.MethodGet)
		return fiber.NewError(fiber.StatusMethodNotAllowed, "method not allowed")
	}

	target := c.Query("url")
	if target == "" || !withinPrefix(target, r.deps.BroadcasterPrefix) {
		return fiber.NewError(fiber.StatusBadRequest, "url must start with "+r.deps.BroadcasterPrefix)
	}

	body, status, err := r.fetchFeed(c.UserContext(), target)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":          true,
			"message":        fmt.Sprintf("failed to fetch feed: %v", err),
			"upstreamStatus": status,
		})
	}
	return sendXML(c, body)
}

// withinPrefix reports whether target lives under prefix: same scheme and
// host, and a path inside the prefix path taken as a directory.
func withinPrefix(target, prefix string) bool {
	t, err := url.Parse(target)
	if err != nil || t.User != nil || t.Opaque != "" {
		return false
	}
	p, err := url.Parse(prefix)
	if err != nil || p.Host == "" {
		return false
	}
	if !strings.EqualFold(t.Scheme, p.Scheme) || !strings.EqualFold(t.Host, p.Host) {
		return false
	}
	if strings.Contains(t.Path, "..") {
		return false
	}

	dir := p.Path
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return t.Path+"/" == dir || strings.HasPrefix(t.Path, dir)
}

// fetchFeed GETs url and returns the body. status is the upstream status,
// or 0 when no response arrived.
func (r *relays) fetchFeed(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set(fiber.HeaderAccept, "application/rss+xml, application/xml, text/xml")

	resp, err := r.deps.FeedClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, resp.StatusCode, fmt.Errorf("upstream status %d: %s", resp.StatusCode, common.Truncate(string(snippet), 200))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func sendXML(c *fiber.Ctx, body []byte) error {
	c.Set(fiber.HeaderAccessControlAllowOrigin, "*")
	c.Set(fiber.HeaderContentType, "application/xml; charset=utf-8")
	return c.Send(body)
}
