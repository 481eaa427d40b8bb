package score

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadVocabulary(t *testing.T) {
	path := writeFile(t, "vocab.yaml", `
terms:
  - database
  - machine learning
frequencies:
  database: 1.8
`)
	terms, freq, err := LoadVocabulary(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(terms) != 2 {
		t.Fatalf("terms = %v, want 2 entries", terms)
	}
	if freq["database"] != 1.8 {
		t.Errorf("frequencies[database] = %v, want 1.8", freq["database"])
	}
}

func TestLoadVocabularyErrors(t *testing.T) {
	if _, _, err := LoadVocabulary(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file: want error")
	}
	if _, _, err := LoadVocabulary(writeFile(t, "empty.yaml", "terms: []\n")); err == nil {
		t.Error("empty term list: want error")
	}
	if _, _, err := LoadVocabulary(writeFile(t, "bad.yaml", "{not yaml")); err == nil {
		t.Error("malformed yaml: want error")
	}
}

func TestLoadFrequencies(t *testing.T) {
	path := writeFile(t, "freq.yaml", "database: 2.1\ncaching: 1.2\n")
	freq, err := LoadFrequencies(path)
	if err != nil {
		t.Fatal(err)
	}
	if freq["database"] != 2.1 || freq["caching"] != 1.2 {
		t.Errorf("freq = %v", freq)
	}
}
