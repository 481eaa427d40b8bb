// Package archive records the outcome of every crawled location in
// PostgreSQL. The archive is write-behind bookkeeping: failures are logged
// and never propagate into the crawl itself.
//
// Expected schema:
//
//	CREATE TABLE crawled_documents (
//	    location   TEXT PRIMARY KEY,
//	    title      TEXT,
//	    status     TEXT NOT NULL,
//	    stage      TEXT,
//	    error      TEXT,
//	    crawled_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
package archive

import (
	"context"
	"log/slog"

	"termcrawl/pkg/logger"
	"termcrawl/pkg/postgres"
)

type Archive struct {
	client *postgres.Client
	logger *slog.Logger
}

func New(client *postgres.Client) *Archive {
	return &Archive{
		client: client,
		logger: logger.WithComponent("archive"),
	}
}

// RecordIndexed upserts a successfully processed location.
func (a *Archive) RecordIndexed(ctx context.Context, location, title string) {
	a.record(ctx, location, title, "INDEXED", "", "")
}

// RecordFailed upserts a location that failed at the given pipeline stage.
func (a *Archive) RecordFailed(ctx context.Context, location, stage, errMsg string) {
	a.record(ctx, location, "", "FAILED", stage, errMsg)
}

func (a *Archive) record(ctx context.Context, location, title, status, stage, errMsg string) {
	_, err := a.client.DB.ExecContext(ctx,
		`INSERT INTO crawled_documents (location, title, status, stage, error, crawled_at)
		 VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NOW())
		 ON CONFLICT (location) DO UPDATE
		 SET title = EXCLUDED.title, status = EXCLUDED.status,
		     stage = EXCLUDED.stage, error = EXCLUDED.error,
		     crawled_at = EXCLUDED.crawled_at`,
		location, title, status, stage, errMsg,
	)
	if err != nil {
		a.logger.Error("failed to record crawl outcome",
			"location", location,
			"status", status,
			"error", err,
		)
	}
}
