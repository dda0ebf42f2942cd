package news

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
)

// Headline is one ticker entry.
type Headline struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Source    string    `json:"source"`
	Published time.Time `json:"published"`
}

// Ticker polls RSS/Atom feeds and keeps the newest headlines across them.
// A feed that fails to load keeps the headlines of its last good poll.
type Ticker struct {
	feeds    []string
	client   *http.Client
	maxItems int
	logger   *slog.Logger

	mu     sync.RWMutex
	byFeed map[string][]Headline
}

func NewTicker(feeds []string, client *http.Client, maxItems int, logger *slog.Logger) *Ticker {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ticker{
		feeds:    feeds,
		client:   client,
		maxItems: maxItems,
		logger:   logger,
		byFeed:   make(map[string][]Headline),
	}
}

// Poll refreshes every feed. The returned error joins the per-feed failures.
func (t *Ticker) Poll(ctx context.Context) error {
	var errs []error
	for _, url := range t.feeds {
		items, err := t.fetch(ctx, url)
		if err != nil {
			t.logger.Warn("news feed poll failed", "feed", url, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
			continue
		}

		t.mu.Lock()
		t.byFeed[url] = items
		t.mu.Unlock()
	}
	return errors.Join(errs...)
}

func (t *Ticker) fetch(ctx context.Context, url string) ([]Headline, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]Headline, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		h := Headline{Title: title, Link: item.Link, Source: strings.TrimSpace(feed.Title)}
		switch {
		case item.PublishedParsed != nil:
			h.Published = item.PublishedParsed.UTC()
		case item.UpdatedParsed != nil:
			h.Published = item.UpdatedParsed.UTC()
		}
		items = append(items, h)
	}
	return items, nil
}

// Headlines returns up to maxItems headlines, newest first, with duplicate
// titles removed.
func (t *Ticker) Headlines() []Headline {
	t.mu.RLock()
	var all []Headline
	for _, url := range t.feeds {
		all = append(all, t.byFeed[url]...)
	}
	t.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool { return all[i].Published.After(all[j].Published) })

	seen := make(map[string]struct{}, len(all))
	out := make([]Headline, 0, min(len(all), t.maxItems))
	for _, h := range all {
		if _, dup := seen[h.Title]; dup {
			continue
		}
		seen[h.Title] = struct{}{}
		out = append(out, h)
		if len(out) == t.maxItems {
			break
		}
	}
	return out
}
