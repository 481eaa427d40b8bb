package crawl

import (
	"sync"
	"time"
)

// hostEntry tracks the token-bucket state for a single host.
type hostEntry struct {
	tokens    float64
	lastCheck time.Time
}

// hostLimiter is an in-memory token-bucket limiter keyed by host, used to
// keep the pool polite toward individual sites. Tokens refill at a rate of
// (limit / window) per second. close stops the background sweep.
type hostLimiter struct {
	mu       sync.Mutex
	entries  map[string]*hostEntry
	limit    int
	window   time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func newHostLimiter(limit int, window time.Duration) *hostLimiter {
	return newHostLimiterSweep(limit, window, 5*time.Minute)
}

func newHostLimiterSweep(limit int, window, sweepEvery time.Duration) *hostLimiter {
	l := &hostLimiter{
		entries: make(map[string]*hostEntry),
		limit:   limit,
		window:  window,
		stop:    make(chan struct{}),
	}
	go l.cleanup(sweepEvery)
	return l
}

// allow consumes one token for host if available.
func (l *hostLimiter) allow(host string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	e, exists := l.entries[host]
	if !exists {
		l.entries[host] = &hostEntry{
			tokens:    float64(l.limit - 1),
			lastCheck: now,
		}
		return true
	}

	elapsed := now.Sub(e.lastCheck)
	e.lastCheck = now

	rate := float64(l.limit) / l.window.Seconds()
	e.tokens += elapsed.Seconds() * rate
	if e.tokens > float64(l.limit) {
		e.tokens = float64(l.limit)
	}

	if e.tokens < 1 {
		return false
	}

	e.tokens--
	return true
}

// retryDelay is how long a denied caller should wait before trying again:
// the time one token takes to refill.
func (l *hostLimiter) retryDelay() time.Duration {
	return l.window / time.Duration(l.limit)
}

// close stops the cleanup goroutine. Safe to call more than once.
func (l *hostLimiter) close() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// cleanup periodically removes hosts not seen for two windows, until close.
func (l *hostLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.mu.Lock()
			cutoff := time.Now().Add(-2 * l.window)
			for host, e := range l.entries {
				if e.lastCheck.Before(cutoff) {
					delete(l.entries, host)
				}
			}
			l.mu.Unlock()
		}
	}
}
