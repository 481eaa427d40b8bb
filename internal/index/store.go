// Package index implements the in-memory inverted index: a closed
// vocabulary of terms, each mapping to a bucket of score-ranked postings.
// Buckets carry their own lock so concurrent workers writing to different
// terms do not contend; structural changes to the term map take the
// store-wide lock.
package index

import (
	"fmt"
	"sort"
	"sync"

	"termcrawl/pkg/errors"
)

type bucket struct {
	mu       sync.Mutex
	postings []Posting
}

// Store maps vocabulary terms to posting buckets.
type Store struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
}

// NewStore creates a Store with a bucket per vocabulary term.
func NewStore(terms ...string) *Store {
	s := &Store{
		buckets: make(map[string]*bucket, len(terms)),
	}
	for _, term := range terms {
		s.buckets[term] = &bucket{}
	}
	return s
}

// AddTerm creates an empty bucket for term. Adding an existing term is a
// no-op and does not clear its bucket.
func (s *Store) AddTerm(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[term]; !ok {
		s.buckets[term] = &bucket{}
	}
}

// RemoveTerm deletes term and its bucket. Removing an unknown term is a
// no-op so pruning stays idempotent.
func (s *Store) RemoveTerm(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, term)
}

// HasTerm reports whether term has a bucket.
func (s *Store) HasTerm(term string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.buckets[term]
	return ok
}

// Insert appends a posting to term's bucket in O(1) amortized time.
// Postings for the same location may appear more than once across
// re-crawls; Insert does not deduplicate. It fails with ErrUnknownTerm
// when term has no bucket.
func (s *Store) Insert(term string, p Posting) error {
	s.mu.RLock()
	b, ok := s.buckets[term]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", errors.ErrUnknownTerm, term)
	}
	b.mu.Lock()
	b.postings = append(b.postings, p)
	b.mu.Unlock()
	return nil
}

// Sort stably sorts term's bucket descending by score. Ties keep their
// insertion order.
func (s *Store) Sort(term string) error {
	s.mu.RLock()
	b, ok := s.buckets[term]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", errors.ErrUnknownTerm, term)
	}
	b.mu.Lock()
	sort.Stable(byScoreDesc(b.postings))
	b.mu.Unlock()
	return nil
}

// SortAll sorts every bucket. Inserts do not maintain order incrementally,
// so callers must invoke this before any ordering-sensitive read.
func (s *Store) SortAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.buckets {
		b.mu.Lock()
		sort.Stable(byScoreDesc(b.postings))
		b.mu.Unlock()
	}
}

// TopN returns a copy of the first min(n, len) postings of term's bucket
// in its current order. It never sorts as a side effect: calling it on an
// unsorted bucket yields unordered results.
func (s *Store) TopN(term string, n int) ([]Posting, error) {
	s.mu.RLock()
	b, ok := s.buckets[term]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownTerm, term)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > len(b.postings) {
		n = len(b.postings)
	}
	if n < 0 {
		n = 0
	}
	out := make([]Posting, n)
	copy(out, b.postings[:n])
	return out, nil
}

// PruneSmaller removes every term whose bucket holds fewer than n
// postings. Irreversible. Returns the number of terms removed.
func (s *Store) PruneSmaller(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for term, b := range s.buckets {
		b.mu.Lock()
		short := len(b.postings) < n
		b.mu.Unlock()
		if short {
			delete(s.buckets, term)
			removed++
		}
	}
	return removed
}

// ClearTerm empties term's bucket while keeping the term itself.
func (s *Store) ClearTerm(term string) error {
	s.mu.RLock()
	b, ok := s.buckets[term]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", errors.ErrUnknownTerm, term)
	}
	b.mu.Lock()
	b.postings = nil
	b.mu.Unlock()
	return nil
}

// ClipTerm truncates term's bucket to at most n postings.
func (s *Store) ClipTerm(term string, n int) error {
	s.mu.RLock()
	b, ok := s.buckets[term]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", errors.ErrUnknownTerm, term)
	}
	b.mu.Lock()
	if n >= 0 && n < len(b.postings) {
		b.postings = b.postings[:n:n]
	}
	b.mu.Unlock()
	return nil
}

// RemoveLocation drops every posting for the given location from term's
// bucket.
func (s *Store) RemoveLocation(term string, location string) error {
	s.mu.RLock()
	b, ok := s.buckets[term]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", errors.ErrUnknownTerm, term)
	}
	b.mu.Lock()
	kept := b.postings[:0]
	for _, p := range b.postings {
		if p.Doc == nil || p.Doc.Location != location {
			kept = append(kept, p)
		}
	}
	b.postings = kept
	b.mu.Unlock()
	return nil
}

// TermLen returns the number of postings in term's bucket.
func (s *Store) TermLen(term string) (int, error) {
	s.mu.RLock()
	b, ok := s.buckets[term]
	s.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("%w: %q", errors.ErrUnknownTerm, term)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.postings), nil
}

// Terms returns all vocabulary terms in sorted order.
func (s *Store) Terms() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	terms := make([]string, 0, len(s.buckets))
	for term := range s.buckets {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// PostingCount returns the total number of postings across all buckets.
func (s *Store) PostingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, b := range s.buckets {
		b.mu.Lock()
		total += len(b.postings)
		b.mu.Unlock()
	}
	return total
}

// entries copies the whole store into sorted TermEntry slices. Buckets
// are copied under their locks, giving snapshot readers a consistent view
// without pausing writers.
func (s *Store) entries() []TermEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TermEntry, 0, len(s.buckets))
	for term, b := range s.buckets {
		b.mu.Lock()
		postings := make([]Posting, len(b.postings))
		copy(postings, b.postings)
		b.mu.Unlock()
		out = append(out, TermEntry{Term: term, Postings: postings})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Term < out[j].Term })
	return out
}
