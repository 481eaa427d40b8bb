package score

import (
	"math"
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "Machine Learning", []string{"machine", "learning"}},
		{"punctuation", "caching, sharding—and consensus!", []string{"caching", "sharding", "and", "consensus"}},
		{"digits", "http2 and go1.25", []string{"http2", "and", "go1", "25"}},
		{"empty", "", nil},
		{"only separators", " ... —— ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTerm(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Machine Learning", "machine learning"},
		{"machine-learning", "machine learning"},
		{"  DATABASE  ", "database"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTerm(tt.in); got != tt.want {
			t.Errorf("NormalizeTerm(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScoreSingleDivision(t *testing.T) {
	s := New([]string{"database"}, nil)

	scores := s.Score(map[string]string{
		"p": "the database holds rows; the database also holds indexes",
	})
	// 2 occurrences over 9 tokens at weight 1.0.
	want := 2.0 / 9.0
	if got := scores["database"]; math.Abs(got-want) > 1e-12 {
		t.Errorf("score = %v, want %v", got, want)
	}
}

func TestScoreDivisionWeights(t *testing.T) {
	weights := map[string]float64{"title": 3.0, "p": 1.0}
	s := New([]string{"caching"}, weights)

	scores := s.Score(map[string]string{
		"title": "caching strategies",
		"p":     "caching strategies",
	})
	// title: 3.0 * 1/2, p: 1.0 * 1/2.
	want := 1.5 + 0.5
	if got := scores["caching"]; math.Abs(got-want) > 1e-12 {
		t.Errorf("score = %v, want %v", got, want)
	}
}

func TestScoreUnweightedDivisionDefaultsToOne(t *testing.T) {
	s := New([]string{"caching"}, map[string]float64{"title": 3.0})

	scores := s.Score(map[string]string{"aside": "caching"})
	if got := scores["caching"]; math.Abs(got-1.0) > 1e-12 {
		t.Errorf("score = %v, want 1.0 for unweighted division", got)
	}
}

func TestScoreMultiWordTerms(t *testing.T) {
	s := New([]string{"machine learning", "learning"}, nil)

	scores := s.Score(map[string]string{
		"p": "machine learning beats rote learning",
	})
	if got := scores["machine learning"]; math.Abs(got-1.0/5.0) > 1e-12 {
		t.Errorf("bigram score = %v, want %v", got, 1.0/5.0)
	}
	// The unigram inside the bigram counts too: "learning" appears twice.
	if got := scores["learning"]; math.Abs(got-2.0/5.0) > 1e-12 {
		t.Errorf("unigram score = %v, want %v", got, 2.0/5.0)
	}
}

func TestScoreCorpusFrequency(t *testing.T) {
	s := New([]string{"database"}, nil)
	s.SetFrequencies(map[string]float64{"database": 2.0})

	scores := s.Score(map[string]string{"p": "database"})
	if got := scores["database"]; math.Abs(got-0.5) > 1e-12 {
		t.Errorf("score = %v, want 0.5 with frequency divisor 2", got)
	}

	// Non-positive frequencies are ignored.
	s.SetFrequencies(map[string]float64{"database": 0})
	scores = s.Score(map[string]string{"p": "database"})
	if got := scores["database"]; math.Abs(got-1.0) > 1e-12 {
		t.Errorf("score = %v, want 1.0 with zero frequency ignored", got)
	}
}

func TestScoreNoMatches(t *testing.T) {
	s := New([]string{"database"}, nil)

	for name, divisions := range map[string]map[string]string{
		"no vocabulary hits": {"p": "entirely unrelated prose"},
		"empty divisions":    {"p": "", "title": "   "},
		"nil divisions":      nil,
	} {
		if scores := s.Score(divisions); len(scores) != 0 {
			t.Errorf("%s: scores = %v, want empty", name, scores)
		}
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := New([]string{"database", "caching", "machine learning"}, map[string]float64{"title": 3.0, "h1": 2.5})
	divisions := map[string]string{
		"title": "database caching with machine learning",
		"h1":    "caching the database",
		"p":     "machine learning models cache database pages for caching wins",
	}

	first := s.Score(divisions)
	for i := 0; i < 50; i++ {
		if got := s.Score(divisions); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
}

func TestTermsNormalizedSorted(t *testing.T) {
	s := New([]string{"Machine Learning", "database", "machine-learning", "  "}, nil)
	want := []string{"database", "machine learning"}
	if got := s.Terms(); !reflect.DeepEqual(got, want) {
		t.Errorf("Terms() = %v, want %v", got, want)
	}
}
