package crawl

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"termcrawl/pkg/config"
	pkgerrors "termcrawl/pkg/errors"
)

func fetcherConfig() config.CrawlerConfig {
	return config.CrawlerConfig{
		FetchTimeout: 2 * time.Second,
		UserAgent:    "termcrawl-test/1.0",
	}
}

func TestFetchHTML(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body><p>hello</p></body></html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fetcherConfig())
	body, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "hello") {
		t.Errorf("body = %q", body)
	}
	if gotAgent != "termcrawl-test/1.0" {
		t.Errorf("User-Agent = %q", gotAgent)
	}
}

func TestFetchRejectsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fetcherConfig())
	if _, err := f.Fetch(context.Background(), srv.URL); !errors.Is(err, pkgerrors.ErrFetch) {
		t.Errorf("err = %v, want ErrFetch", err)
	}
}

func TestFetchRejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fetcherConfig())
	if _, err := f.Fetch(context.Background(), srv.URL); !errors.Is(err, pkgerrors.ErrFetch) {
		t.Errorf("err = %v, want ErrFetch", err)
	}
}

func TestFetchSkipsNonCrawlablePaths(t *testing.T) {
	f := NewHTTPFetcher(fetcherConfig())
	for _, path := range []string{"/logo.png", "/style.CSS", "/archive.tar.gz", "/doc.pdf"} {
		if _, err := f.Fetch(context.Background(), "https://example.com"+path); !errors.Is(err, pkgerrors.ErrFetch) {
			t.Errorf("path %q: err = %v, want ErrFetch without a request", path, err)
		}
	}
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := fetcherConfig()
	cfg.FetchTimeout = 20 * time.Millisecond
	f := NewHTTPFetcher(cfg)
	if _, err := f.Fetch(context.Background(), srv.URL); !errors.Is(err, pkgerrors.ErrFetch) {
		t.Errorf("err = %v, want ErrFetch", err)
	}
}

func TestFetchHostPoliteness(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	cfg := fetcherConfig()
	cfg.PerHostRate = 2
	cfg.PerHostWindow = 100 * time.Millisecond
	f := NewHTTPFetcher(cfg)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
			t.Fatal(err)
		}
	}
	// The third request must wait for the rate window to roll over.
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("3 requests at rate 2/100ms finished in %v, expected limiter delay", elapsed)
	}
	if hits != 3 {
		t.Errorf("server hits = %d, want 3", hits)
	}

	// Cancellation interrupts the politeness wait.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 2; i++ {
		f.Fetch(context.Background(), srv.URL)
	}
	if _, err := f.Fetch(ctx, srv.URL); !errors.Is(err, pkgerrors.ErrFetch) {
		t.Errorf("cancelled politeness wait: err = %v, want ErrFetch", err)
	}
}
