// Package score computes vocabulary-bound relevance scores for parsed
// documents. The scorer is pure: identical division maps always produce
// identical term scores, and malformed input yields an empty map rather
// than an error.
package score

import (
	"sort"
	"strings"
)

// Scorer recognizes a closed vocabulary of terms in division text and
// assigns each matched term a weighted-frequency score.
type Scorer struct {
	vocab    map[string]struct{}
	maxWords int
	weights  map[string]float64
	freq     map[string]float64
}

// New builds a Scorer over the given vocabulary. weights maps division
// names (title, h1, p, ...) to multipliers; divisions without an entry
// weigh 1.0.
func New(terms []string, weights map[string]float64) *Scorer {
	s := &Scorer{
		vocab:   make(map[string]struct{}, len(terms)),
		weights: weights,
	}
	for _, term := range terms {
		norm := NormalizeTerm(term)
		if norm == "" {
			continue
		}
		s.vocab[norm] = struct{}{}
		if n := strings.Count(norm, " ") + 1; n > s.maxWords {
			s.maxWords = n
		}
	}
	return s
}

// SetFrequencies installs corpus-frequency divisors: a term with frequency
// f has its score divided by f, so common terms rank lower. Values at or
// below zero are ignored.
func (s *Scorer) SetFrequencies(freq map[string]float64) {
	s.freq = freq
}

// Terms returns the normalized vocabulary in sorted order. The index store
// is keyed by exactly these strings.
func (s *Scorer) Terms() []string {
	terms := make([]string, 0, len(s.vocab))
	for term := range s.vocab {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Score maps each vocabulary term found in the divisions to a weighted
// score: occurrences normalized by division length, multiplied by the
// division weight, divided by the term's corpus frequency. Divisions are
// visited in sorted name order so float accumulation is deterministic.
func (s *Scorer) Score(divisions map[string]string) map[string]float64 {
	scores := make(map[string]float64)
	names := make([]string, 0, len(divisions))
	for name := range divisions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		tokens := Tokenize(divisions[name])
		if len(tokens) == 0 {
			continue
		}
		weight := 1.0
		if w, ok := s.weights[name]; ok {
			weight = w
		}
		for term, count := range s.matchCounts(tokens) {
			freq := 1.0
			if f, ok := s.freq[term]; ok && f > 0 {
				freq = f
			}
			scores[term] += weight * float64(count) / float64(len(tokens)) / freq
		}
	}
	return scores
}

// matchCounts counts vocabulary occurrences in the token stream, sliding
// an n-gram window up to the longest vocabulary term. Overlapping matches
// of different lengths are counted independently.
func (s *Scorer) matchCounts(tokens []string) map[string]int {
	counts := make(map[string]int)
	for i := range tokens {
		for n := 1; n <= s.maxWords && i+n <= len(tokens); n++ {
			candidate := strings.Join(tokens[i:i+n], " ")
			if _, ok := s.vocab[candidate]; ok {
				counts[candidate]++
			}
		}
	}
	return counts
}
