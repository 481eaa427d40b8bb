package query

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"termcrawl/internal/index"
	"termcrawl/internal/score"
	"termcrawl/pkg/config"
	"termcrawl/pkg/errors"
	"termcrawl/pkg/logger"
	"termcrawl/pkg/metrics"
)

// Handler serves term queries over a loaded, sorted index store.
type Handler struct {
	store        *index.Store
	cache        *Cache
	prom         *metrics.Metrics
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// NewHandler creates a Handler. cache may be nil to serve uncached.
func NewHandler(store *index.Store, cache *Cache, cfg config.ServerConfig) *Handler {
	return &Handler{
		store:        store,
		cache:        cache,
		defaultLimit: cfg.DefaultLimit,
		maxResults:   cfg.MaxResults,
		logger:       logger.WithComponent("query-handler"),
	}
}

func (h *Handler) WithMetrics(m *metrics.Metrics) *Handler {
	h.prom = m
	return h
}

// Search handles GET /search?term=<term>&limit=<n>. Unknown terms return
// an empty result, not an error, matching the crawl pipeline's
// ignore-unmatched-vocabulary policy.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	rawTerm := r.URL.Query().Get("term")
	if rawTerm == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'term' is required")
		return
	}
	term := score.NormalizeTerm(rawTerm)

	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > h.maxResults {
			parsed = h.maxResults
		}
		limit = parsed
	}

	var (
		result   *Result
		err      error
		cacheHit bool
	)
	if h.cache != nil {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, term, limit, func() (*Result, error) {
			return h.lookup(term, limit)
		})
	} else {
		result, err = h.lookup(term, limit)
	}
	if err != nil {
		h.logger.Error("term lookup failed", "term", term, "error", err)
		h.observe(start, "error", cacheHit)
		h.writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	outcome := "miss"
	if len(result.Hits) > 0 {
		outcome = "hit"
	}
	h.observe(start, outcome, cacheHit)
	h.logger.Info("query served",
		"term", term,
		"total_hits", result.TotalHits,
		"returned", len(result.Hits),
		"cache_hit", cacheHit,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	h.writeJSON(w, http.StatusOK, result)
}

// Terms handles GET /terms: the store's current vocabulary.
func (h *Handler) Terms(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"terms": h.store.Terms()})
}

// CacheStats handles GET /cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

// CacheInvalidate handles POST /cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// lookup reads the term's ranked postings from the store. The store is
// assumed sorted; the crawler sorts before snapshotting.
func (h *Handler) lookup(term string, limit int) (*Result, error) {
	postings, err := h.store.TopN(term, limit)
	if err != nil {
		if stderrors.Is(err, errors.ErrUnknownTerm) {
			return &Result{Term: term, Hits: []Hit{}}, nil
		}
		return nil, err
	}
	total, err := h.store.TermLen(term)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, 0, len(postings))
	for _, p := range postings {
		hit := Hit{Score: p.Score}
		if p.Doc != nil {
			hit.Location = p.Doc.Location
			hit.Title = p.Doc.Title
		}
		hits = append(hits, hit)
	}
	return &Result{Term: term, TotalHits: total, Hits: hits}, nil
}

func (h *Handler) observe(start time.Time, outcome string, cacheHit bool) {
	if h.prom == nil {
		return
	}
	h.prom.QueriesTotal.WithLabelValues(outcome).Inc()
	cacheStatus := "miss"
	if cacheHit {
		cacheStatus = "hit"
	}
	h.prom.QueryLatency.WithLabelValues(cacheStatus).Observe(time.Since(start).Seconds())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
