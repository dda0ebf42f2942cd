package news

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rss(title string, items ...[2]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>%s</title>`, title)
	for _, it := range items {
		fmt.Fprintf(&b, `<item><title>%s</title><link>https://example.com/%s</link><pubDate>%s</pubDate></item>`, it[0], it[0], it[1])
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func TestTicker_MergesNewestFirst(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a.xml", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(rss("A",
			[2]string{"a-old", "Sat, 10 Jan 2026 08:00:00 +0900"},
			[2]string{"a-new", "Sat, 10 Jan 2026 11:00:00 +0900"},
		)))
	})
	mux.HandleFunc("/b.xml", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"><title>B</title>
<entry><title>b-mid</title><link href="https://example.com/b-mid"/><updated>2026-01-10T01:00:00Z</updated></entry>
</feed>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ticker := NewTicker([]string{srv.URL + "/a.xml", srv.URL + "/b.xml"}, srv.Client(), 10, discardLogger())
	require.NoError(t, ticker.Poll(context.Background()))

	got := ticker.Headlines()
	require.Len(t, got, 3)
	assert.Equal(t, "a-new", got[0].Title)
	assert.Equal(t, "b-mid", got[1].Title)
	assert.Equal(t, "a-old", got[2].Title)
	assert.Equal(t, "A", got[0].Source)
	assert.Equal(t, "https://example.com/b-mid", got[1].Link)
}

func TestTicker_Bounded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(rss("A",
			[2]string{"one", "Sat, 10 Jan 2026 08:00:00 +0900"},
			[2]string{"two", "Sat, 10 Jan 2026 09:00:00 +0900"},
			[2]string{"three", "Sat, 10 Jan 2026 10:00:00 +0900"},
			[2]string{"three", "Sat, 10 Jan 2026 10:00:00 +0900"},
		)))
	}))
	defer srv.Close()

	ticker := NewTicker([]string{srv.URL}, srv.Client(), 2, discardLogger())
	require.NoError(t, ticker.Poll(context.Background()))

	got := ticker.Headlines()
	require.Len(t, got, 2)
	assert.Equal(t, "three", got[0].Title)
	assert.Equal(t, "two", got[1].Title)
}

func TestTicker_FailureKeepsPreviousHeadlines(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(rss("A", [2]string{"kept", "Sat, 10 Jan 2026 08:00:00 +0900"})))
	}))
	defer srv.Close()

	ticker := NewTicker([]string{srv.URL}, srv.Client(), 10, discardLogger())
	require.NoError(t, ticker.Poll(context.Background()))

	fail.Store(true)
	assert.Error(t, ticker.Poll(context.Background()))

	got := ticker.Headlines()
	require.Len(t, got, 1)
	assert.Equal(t, "kept", got[0].Title)
}

func TestTicker_MalformedFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("plain text"))
	}))
	defer srv.Close()

	ticker := NewTicker([]string{srv.URL}, srv.Client(), 10, discardLogger())
	assert.Error(t, ticker.Poll(context.Background()))
	assert.Empty(t, ticker.Headlines())
}
