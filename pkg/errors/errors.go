// Package errors defines the sentinel error taxonomy shared across the
// crawl pipeline and the index store. Callers wrap these with %w and
// match them with errors.Is.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrFetch          = errors.New("fetch failed")
	ErrParse          = errors.New("parse failed")
	ErrUnknownTerm    = errors.New("unknown term")
	ErrQueueOverflow  = errors.New("frontier queue full")
	ErrSnapshot       = errors.New("snapshot failed")
	ErrFrontierClosed = errors.New("frontier drained")
	ErrInvalidInput   = errors.New("invalid input")
)

// CrawlError annotates a per-item failure with the pipeline stage and the
// location being processed. Stage is one of "fetch", "parse" or "index".
type CrawlError struct {
	Stage    string
	Location string
	Err      error
}

func (e *CrawlError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Stage, e.Location, e.Err.Error())
}

func (e *CrawlError) Unwrap() error {
	return e.Err
}

func NewCrawlError(stage, location string, err error) *CrawlError {
	return &CrawlError{
		Stage:    stage,
		Location: location,
		Err:      err,
	}
}
