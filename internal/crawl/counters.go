package crawl

import "sync/atomic"

// Counters are the crawl's process-local progress counters, written by
// workers and readable concurrently. Both values grow monotonically.
type Counters struct {
	processed atomic.Int64
	errors    atomic.Int64
}

func NewCounters() *Counters {
	return &Counters{}
}

func (c *Counters) IncProcessed() int64 { return c.processed.Add(1) }
func (c *Counters) IncErrors() int64    { return c.errors.Add(1) }

func (c *Counters) Processed() int64 { return c.processed.Load() }
func (c *Counters) Errors() int64    { return c.errors.Load() }
