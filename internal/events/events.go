// Package events defines the Kafka event schemas the crawler emits and
// consumes: per-document crawl outcomes going out, externally submitted
// seed locations coming in.
package events

import (
	"context"
	"log/slog"
	"time"

	"termcrawl/internal/frontier"
	"termcrawl/internal/urlnorm"
	"termcrawl/pkg/kafka"
	"termcrawl/pkg/logger"
)

// Crawl outcome statuses.
const (
	StatusIndexed = "indexed"
	StatusFailed  = "failed"
)

// CrawlEvent is published after each worker iteration, successful or not.
type CrawlEvent struct {
	Location  string    `json:"location"`
	Title     string    `json:"title,omitempty"`
	Status    string    `json:"status"`
	Stage     string    `json:"stage,omitempty"`
	Error     string    `json:"error,omitempty"`
	Terms     int       `json:"terms"`
	CrawledAt time.Time `json:"crawled_at"`
}

// SeedEvent is the payload of the seed-feed topic: one location to admit
// into the frontier.
type SeedEvent struct {
	Location string `json:"location"`
}

// Publisher sends crawl events to Kafka. Publish failures are logged and
// swallowed so event delivery can never stall or abort the crawl.
type Publisher struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   logger.WithComponent("event-publisher"),
	}
}

// Publish sends a single crawl event, keyed by location.
func (p *Publisher) Publish(ctx context.Context, ev CrawlEvent) {
	if err := p.producer.Publish(ctx, kafka.Event{Key: ev.Location, Value: ev}); err != nil {
		p.logger.Error("failed to publish crawl event",
			"location", ev.Location,
			"error", err,
		)
	}
}

// SeedHandler returns a Kafka MessageHandler that normalizes each seed
// location and admits it into the frontier. Bad seeds are logged and
// skipped; a full queue applies backpressure to the consumer.
func SeedHandler(f *frontier.Frontier) kafka.MessageHandler {
	log := logger.WithComponent("seed-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		seed, err := kafka.DecodeJSON[SeedEvent](value)
		if err != nil {
			log.Error("failed to decode seed event",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		location, err := urlnorm.Normalize(seed.Location)
		if err != nil {
			log.Warn("skipping malformed seed", "raw", seed.Location, "error", err)
			return nil
		}
		if err := f.Enqueue(ctx, location); err != nil {
			return err
		}
		log.Debug("seed admitted", "location", location)
		return nil
	}
}
