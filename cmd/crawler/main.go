package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"termcrawl/internal/archive"
	"termcrawl/internal/crawl"
	"termcrawl/internal/events"
	"termcrawl/internal/frontier"
	"termcrawl/internal/index"
	"termcrawl/internal/page"
	"termcrawl/internal/score"
	"termcrawl/internal/urlnorm"
	"termcrawl/pkg/config"
	"termcrawl/pkg/kafka"
	"termcrawl/pkg/logger"
	"termcrawl/pkg/metrics"
	"termcrawl/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	seedList := flag.String("seeds", "", "comma-separated seed URLs (appended to positional args)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	seeds := flag.Args()
	if *seedList != "" {
		for _, s := range strings.Split(*seedList, ",") {
			if s = strings.TrimSpace(s); s != "" {
				seeds = append(seeds, s)
			}
		}
	}
	if len(seeds) == 0 && !cfg.Kafka.Enabled {
		fmt.Fprintln(os.Stderr, "no seed URLs given and seed feed disabled")
		os.Exit(1)
	}

	terms, freq, err := score.LoadVocabulary(cfg.Vocabulary.TermsFile)
	if err != nil {
		slog.Error("failed to load vocabulary", "error", err)
		os.Exit(1)
	}
	if cfg.Vocabulary.FrequencyFile != "" {
		extra, err := score.LoadFrequencies(cfg.Vocabulary.FrequencyFile)
		if err != nil {
			slog.Error("failed to load frequency file", "error", err)
			os.Exit(1)
		}
		if freq == nil {
			freq = extra
		} else {
			for term, f := range extra {
				freq[term] = f
			}
		}
	}
	scorer := score.New(terms, cfg.Vocabulary.DivisionWeights)
	scorer.SetFrequencies(freq)

	store := index.NewStore(scorer.Terms()...)
	slog.Info("index store initialized", "terms", len(scorer.Terms()))

	front, err := frontier.New(cfg.Crawler.QueueDepth)
	if err != nil {
		slog.Error("failed to create frontier", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdownMetrics(shutdownCtx)
		}()
	}

	fetcher := crawl.NewHTTPFetcher(cfg.Crawler)
	defer fetcher.Close()
	pool := crawl.NewPool(
		cfg.Crawler,
		front,
		fetcher,
		crawl.ParserFunc(page.Parse),
		scorer,
		store,
	)
	if m != nil {
		pool.WithMetrics(m)
	}

	if cfg.Postgres.Enabled {
		pg, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		pool.WithArchive(archive.New(pg))
		slog.Info("crawl archive enabled", "database", cfg.Postgres.Database)
	}

	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CrawlEvents)
		defer producer.Close()
		pool.WithPublisher(events.NewPublisher(producer))

		// External seeds may arrive at any time, so the frontier must not
		// close itself on a momentary drain.
		front.KeepOpen()
		seedConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.SeedFeed, events.SeedHandler(front))
		go func() {
			if err := seedConsumer.Start(ctx); err != nil {
				slog.Error("seed consumer error", "error", err)
			}
		}()
		slog.Info("seed feed enabled", "topic", cfg.Kafka.Topics.SeedFeed)
	}

	valid := make([]string, 0, len(seeds))
	for _, raw := range seeds {
		location, err := urlnorm.Normalize(raw)
		if err != nil {
			slog.Warn("skipping malformed seed", "raw", raw, "error", err)
			continue
		}
		valid = append(valid, location)
	}
	if len(valid) == 0 && !cfg.Kafka.Enabled {
		slog.Error("no valid seed URLs")
		os.Exit(1)
	}

	// Seeding runs alongside the workers: with more seeds than queue
	// slots, the blocking enqueue needs consumers draining the other end.
	go func() {
		submitted, err := pool.Seed(ctx, valid...)
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("seeding failed", "error", err)
			}
			return
		}
		slog.Info("frontier seeded", "submitted", submitted, "given", len(seeds))
	}()

	if err := pool.Run(ctx); err != nil && ctx.Err() == nil {
		slog.Error("crawl aborted", "error", err)
	}

	store.SortAll()
	if cfg.Index.PruneBelow > 0 {
		removed := store.PruneSmaller(cfg.Index.PruneBelow)
		slog.Info("index pruned", "min_postings", cfg.Index.PruneBelow, "terms_removed", removed)
	}
	if err := index.SaveFile(store, cfg.Index.SnapshotPath); err != nil {
		slog.Error("snapshot save failed", "path", cfg.Index.SnapshotPath, "error", err)
		os.Exit(1)
	}
	slog.Info("snapshot written",
		"path", cfg.Index.SnapshotPath,
		"terms", len(store.Terms()),
		"postings", store.PostingCount(),
	)
}
