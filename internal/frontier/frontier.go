// Package frontier implements the crawl work frontier: a dedup set over
// every location ever admitted plus a bounded FIFO of locations waiting to
// be fetched. The bounded queue is the pipeline's sole backpressure
// mechanism; producers suspend (or drop, via TryEnqueue) when it is full.
package frontier

import (
	"context"
	"fmt"
	"sync"

	"termcrawl/pkg/errors"
)

// Frontier tracks pending and in-flight crawl work. All mutations of the
// dedup set and the outstanding counter are serialized by a single mutex;
// the pending queue itself is a buffered channel.
type Frontier struct {
	pending chan string

	mu sync.Mutex
	// seen grows monotonically; a location admitted once is never
	// admitted again, even if it was later dropped on overflow.
	seen map[string]struct{}
	// outstanding counts admitted locations that have not yet been
	// completed: len(pending) plus in-flight work.
	outstanding int
	inFlight    int
	closed      bool
	// keepOpen suppresses the automatic close on drain. Used in follow
	// mode, where an external seed feed keeps submitting work and only
	// cancellation ends the crawl.
	keepOpen bool

	done chan struct{}
}

// New creates a Frontier with the given queue capacity. Capacity must be
// positive; sizing it above the worker count is enforced at the config
// layer, where both numbers are known.
func New(capacity int) (*Frontier, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("frontier capacity must be positive, got %d", capacity)
	}
	return &Frontier{
		pending: make(chan string, capacity),
		seen:    make(map[string]struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Enqueue admits every not-yet-seen location and pushes each onto the
// pending queue. The whole batch is admitted into seen and the
// outstanding counter before any push, so completions of earlier items
// cannot drain the frontier while later items still wait for queue
// space; that is what makes enqueueing concurrently with running
// workers safe. Already-seen locations are silently dropped. When the
// queue is full the call blocks until space frees up or ctx is
// cancelled; on cancellation the unpushed remainder is retracted but
// stays in the dedup set.
func (f *Frontier) Enqueue(ctx context.Context, locations ...string) error {
	admitted := make([]string, 0, len(locations))
	for _, loc := range locations {
		if f.admit(loc) {
			admitted = append(admitted, loc)
		}
	}
	for i, loc := range admitted {
		select {
		case f.pending <- loc:
		case <-ctx.Done():
			for range admitted[i:] {
				f.retract()
			}
			return ctx.Err()
		}
	}
	return nil
}

// TryEnqueue admits every not-yet-seen location without blocking. Locations
// that do not fit in the queue are dropped; the returned count says how
// many, and the error wraps ErrQueueOverflow when at least one drop
// occurred. Workers re-seeding discovered links use this path so a full
// queue can never deadlock the pool.
func (f *Frontier) TryEnqueue(locations ...string) (int, error) {
	dropped := 0
	for _, loc := range locations {
		if !f.admit(loc) {
			continue
		}
		select {
		case f.pending <- loc:
		default:
			f.retract()
			dropped++
		}
	}
	if dropped > 0 {
		return dropped, fmt.Errorf("%w: dropped %d of %d locations", errors.ErrQueueOverflow, dropped, len(locations))
	}
	return 0, nil
}

// Dequeue blocks until a location is available and marks it in-flight.
// It returns ErrFrontierClosed once all admitted work has completed (or
// Close was called), and ctx.Err on cancellation.
func (f *Frontier) Dequeue(ctx context.Context) (string, error) {
	select {
	case loc := <-f.pending:
		f.mu.Lock()
		f.inFlight++
		f.mu.Unlock()
		return loc, nil
	case <-f.done:
		return "", errors.ErrFrontierClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Complete marks one dequeued location as finished. It must be called
// exactly once per successful Dequeue, on every exit path. When the last
// outstanding location completes, the done channel is closed.
func (f *Frontier) Complete() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
	f.outstanding--
	if f.outstanding == 0 && !f.closed && !f.keepOpen {
		f.closed = true
		close(f.done)
	}
}

// KeepOpen disables the automatic close on drain; only Close (or caller
// cancellation) will then release blocked Dequeues. Must be called before
// workers start.
func (f *Frontier) KeepOpen() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keepOpen = true
}

// IsDrained reports whether the queue is empty and no work is in flight.
// It is race-free only after the Done channel has fired or while no
// worker is running.
func (f *Frontier) IsDrained() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outstanding == 0
}

// Done returns a channel closed when every admitted location has been
// completed. Blocked Dequeue calls return ErrFrontierClosed at that point.
func (f *Frontier) Done() <-chan struct{} {
	return f.done
}

// Close releases all blocked Dequeue calls regardless of remaining work.
// It is idempotent. Callers use it when the seed set turns out empty or on
// external shutdown.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.done)
	}
}

// Stats returns the current queue depth, in-flight count and dedup-set
// size, for metrics gauges.
func (f *Frontier) Stats() (pending, inFlight, seen int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending), f.inFlight, len(f.seen)
}

// admit records loc in the dedup set and bumps the outstanding counter.
// It reports false if loc was already seen.
func (f *Frontier) admit(loc string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seen[loc]; ok {
		return false
	}
	f.seen[loc] = struct{}{}
	f.outstanding++
	return true
}

// retract undoes the outstanding bump of an admitted location that never
// made it into the queue. The location stays in the dedup set.
func (f *Frontier) retract() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outstanding--
	if f.outstanding == 0 && !f.closed && !f.keepOpen {
		f.closed = true
		close(f.done)
	}
}
