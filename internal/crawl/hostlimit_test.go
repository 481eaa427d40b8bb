package crawl

import (
	"testing"
	"time"
)

func TestHostLimiterSweepsStaleHosts(t *testing.T) {
	l := newHostLimiterSweep(1, 10*time.Millisecond, 5*time.Millisecond)
	defer l.close()

	if !l.allow("a.example") {
		t.Fatal("first token denied")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		l.mu.Lock()
		n := len(l.entries)
		l.mu.Unlock()
		if n == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("stale host never swept, %d entries remain", n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHostLimiterCloseStopsSweep(t *testing.T) {
	l := newHostLimiterSweep(2, time.Second, time.Millisecond)
	l.close()
	// Idempotent.
	l.close()

	// The bucket still works after the sweep has stopped.
	if !l.allow("b.example") {
		t.Error("token denied after close")
	}
}

func TestFetcherCloseWithoutLimiter(t *testing.T) {
	f := NewHTTPFetcher(fetcherConfig())
	f.Close()
	f.Close()
}
