// Package crawl runs the concurrent crawl-to-index pipeline: a fixed pool
// of workers draining the frontier, fetching and parsing pages, scoring
// them against the vocabulary, and writing postings into the index store.
package crawl

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"termcrawl/internal/events"
	"termcrawl/internal/frontier"
	"termcrawl/internal/index"
	"termcrawl/internal/page"
	"termcrawl/internal/urlnorm"
	"termcrawl/pkg/config"
	"termcrawl/pkg/errors"
	"termcrawl/pkg/logger"
	"termcrawl/pkg/metrics"
)

// Fetcher retrieves the raw bytes for a location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Parser turns raw bytes into a structured document.
type Parser interface {
	Parse(location string, body []byte) (*page.Document, error)
}

// Scorer maps division text to per-term relevance scores.
type Scorer interface {
	Score(divisions map[string]string) map[string]float64
}

// Archiver records per-location crawl outcomes. Implementations must not
// fail the crawl; errors are theirs to log.
type Archiver interface {
	RecordIndexed(ctx context.Context, location, title string)
	RecordFailed(ctx context.Context, location, stage, errMsg string)
}

// EventPublisher emits a crawl event per processed location.
type EventPublisher interface {
	Publish(ctx context.Context, ev events.CrawlEvent)
}

// ParserFunc adapts a plain function to the Parser interface.
type ParserFunc func(location string, body []byte) (*page.Document, error)

func (f ParserFunc) Parse(location string, body []byte) (*page.Document, error) {
	return f(location, body)
}

// Pool is the fixed-size crawl worker pool.
type Pool struct {
	cfg      config.CrawlerConfig
	frontier *frontier.Frontier
	fetcher  Fetcher
	parser   Parser
	scorer   Scorer
	store    *index.Store
	counters *Counters
	// admitted reserves MaxDocuments slots before processing starts, so
	// the bound is exact under concurrent workers.
	admitted atomic.Int64

	prom      *metrics.Metrics
	archive   Archiver
	publisher EventPublisher

	logger *slog.Logger
}

// NewPool wires the pipeline together. Archive, event publishing and
// Prometheus metrics are optional, attached via the With methods.
func NewPool(
	cfg config.CrawlerConfig,
	f *frontier.Frontier,
	fetcher Fetcher,
	parser Parser,
	scorer Scorer,
	store *index.Store,
) *Pool {
	return &Pool{
		cfg:      cfg,
		frontier: f,
		fetcher:  fetcher,
		parser:   parser,
		scorer:   scorer,
		store:    store,
		counters: NewCounters(),
		logger:   logger.WithComponent("crawl-pool"),
	}
}

func (p *Pool) WithMetrics(m *metrics.Metrics) *Pool {
	p.prom = m
	return p
}

func (p *Pool) WithArchive(a Archiver) *Pool {
	p.archive = a
	return p
}

func (p *Pool) WithPublisher(pub EventPublisher) *Pool {
	p.publisher = pub
	return p
}

// Counters exposes the crawl's processed/error counters.
func (p *Pool) Counters() *Counters {
	return p.counters
}

// Seed normalizes raw URLs and admits them into the frontier as one
// batch. Malformed seeds are logged and skipped. Returns how many
// locations were submitted. The call blocks while the queue is full, so
// seed sets larger than the queue depth must be seeded concurrently
// with Run.
func (p *Pool) Seed(ctx context.Context, raws ...string) (int, error) {
	locations := make([]string, 0, len(raws))
	for _, raw := range raws {
		location, err := urlnorm.Normalize(raw)
		if err != nil {
			p.logger.Warn("skipping malformed seed", "raw", raw, "error", err)
			continue
		}
		locations = append(locations, location)
	}
	if len(locations) == 0 {
		return 0, nil
	}
	if err := p.frontier.Enqueue(ctx, locations...); err != nil {
		return 0, err
	}
	return len(locations), nil
}

// Run starts the workers and blocks until the frontier drains or ctx is
// cancelled. Per-item failures never abort the run; the only error Run
// returns is the cancellation cause.
func (p *Pool) Run(ctx context.Context) error {
	p.logger.Info("crawl starting", "workers", p.cfg.Workers, "reseed_links", p.cfg.ReseedLinks)

	if p.prom != nil {
		go p.updateGauges(ctx)
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.cfg.Workers; i++ {
		g.Go(func() error {
			return p.worker(ctx)
		})
	}
	err := g.Wait()

	p.logger.Info("crawl finished",
		"processed", p.counters.Processed(),
		"errors", p.counters.Errors(),
		"postings", p.store.PostingCount(),
		"drained", p.frontier.IsDrained(),
	)
	return err
}

// worker loops dequeue → process until the frontier drains or ctx is
// cancelled.
func (p *Pool) worker(ctx context.Context) error {
	for {
		location, err := p.frontier.Dequeue(ctx)
		if err != nil {
			if stderrors.Is(err, errors.ErrFrontierClosed) {
				return nil
			}
			return err
		}
		p.process(ctx, location)
	}
}

// process runs one worker iteration. Complete is deferred so the drain
// detector stays accurate on every exit path.
func (p *Pool) process(ctx context.Context, location string) {
	defer p.frontier.Complete()

	if p.cfg.MaxDocuments > 0 && p.admitted.Add(1) > int64(p.cfg.MaxDocuments) {
		return
	}

	start := time.Now()
	body, err := p.fetcher.Fetch(ctx, location)
	if p.prom != nil {
		p.prom.FetchDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		p.fail(ctx, "fetch", location, err)
		return
	}

	doc, err := p.parser.Parse(location, body)
	if err != nil {
		p.fail(ctx, "parse", location, err)
		return
	}

	termScores := p.scorer.Score(doc.Divisions)
	ref := &index.DocumentRef{Location: location, Title: doc.Title}
	inserted := 0
	for term, termScore := range termScores {
		// Terms outside the store's vocabulary are skipped, not failures.
		if err := p.store.Insert(term, index.Posting{Score: termScore, Doc: ref}); err != nil {
			if stderrors.Is(err, errors.ErrUnknownTerm) {
				continue
			}
			p.logger.Error("posting insert failed", "term", term, "location", location, "error", err)
			continue
		}
		inserted++
	}
	if p.prom != nil && inserted > 0 {
		p.prom.PostingsTotal.Add(float64(inserted))
	}

	if p.cfg.ReseedLinks && len(doc.Links) > 0 {
		// Links go through the same canonical form as seeds, or the
		// frontier's dedup set cannot catch revisits.
		links := make([]string, 0, len(doc.Links))
		for _, link := range doc.Links {
			norm, err := urlnorm.Normalize(link)
			if err != nil {
				continue
			}
			links = append(links, norm)
		}
		dropped, err := p.frontier.TryEnqueue(links...)
		if err != nil {
			p.logger.Warn("link re-seed overflow", "location", location, "dropped", dropped)
			if p.prom != nil {
				p.prom.LinksDroppedTotal.Add(float64(dropped))
			}
		}
	}

	processed := p.counters.IncProcessed()
	if p.prom != nil {
		p.prom.PagesProcessedTotal.Inc()
	}
	if p.archive != nil {
		p.archive.RecordIndexed(ctx, location, doc.Title)
	}
	if p.publisher != nil {
		p.publisher.Publish(ctx, events.CrawlEvent{
			Location:  location,
			Title:     doc.Title,
			Status:    events.StatusIndexed,
			Terms:     inserted,
			CrawledAt: time.Now().UTC(),
		})
	}

	p.logger.Debug("location indexed",
		"location", location,
		"title", doc.Title,
		"terms", inserted,
		"links", len(doc.Links),
	)
	if p.cfg.ProgressEvery > 0 && processed%int64(p.cfg.ProgressEvery) == 0 {
		pending, inFlight, seen := p.frontier.Stats()
		p.logger.Info("crawl progress",
			"processed", processed,
			"errors", p.counters.Errors(),
			"pending", pending,
			"in_flight", inFlight,
			"seen", seen,
		)
	}
}

// fail handles a per-item pipeline failure: counted, logged, recorded,
// and the crawl moves on.
func (p *Pool) fail(ctx context.Context, stage, location string, err error) {
	p.counters.IncErrors()
	if p.prom != nil {
		p.prom.CrawlErrorsTotal.WithLabelValues(stage).Inc()
	}
	crawlErr := errors.NewCrawlError(stage, location, err)
	p.logger.Warn("location dropped", "stage", stage, "location", location, "error", err)
	if p.archive != nil {
		p.archive.RecordFailed(ctx, location, stage, crawlErr.Error())
	}
	if p.publisher != nil {
		p.publisher.Publish(ctx, events.CrawlEvent{
			Location:  location,
			Status:    events.StatusFailed,
			Stage:     stage,
			Error:     err.Error(),
			CrawledAt: time.Now().UTC(),
		})
	}
}

// updateGauges refreshes the frontier gauges until the crawl ends.
func (p *Pool) updateGauges(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.frontier.Done():
			pending, inFlight, seen := p.frontier.Stats()
			p.prom.FrontierPending.Set(float64(pending))
			p.prom.WorkersInFlight.Set(float64(inFlight))
			p.prom.FrontierSeen.Set(float64(seen))
			return
		case <-ticker.C:
			pending, inFlight, seen := p.frontier.Stats()
			p.prom.FrontierPending.Set(float64(pending))
			p.prom.WorkersInFlight.Set(float64(inFlight))
			p.prom.FrontierSeen.Set(float64(seen))
		}
	}
}
