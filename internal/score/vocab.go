package score

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// vocabularyFile is the on-disk vocabulary format: a term list plus an
// optional corpus-frequency map keyed by normalized term.
type vocabularyFile struct {
	Terms       []string           `yaml:"terms"`
	Frequencies map[string]float64 `yaml:"frequencies"`
}

// LoadVocabulary reads a YAML vocabulary file.
func LoadVocabulary(path string) ([]string, map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading vocabulary file %s: %w", path, err)
	}
	var vf vocabularyFile
	if err := yaml.Unmarshal(data, &vf); err != nil {
		return nil, nil, fmt.Errorf("parsing vocabulary file %s: %w", path, err)
	}
	if len(vf.Terms) == 0 {
		return nil, nil, fmt.Errorf("vocabulary file %s contains no terms", path)
	}
	return vf.Terms, vf.Frequencies, nil
}

// LoadFrequencies reads a standalone YAML corpus-frequency map.
func LoadFrequencies(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading frequency file %s: %w", path, err)
	}
	freq := make(map[string]float64)
	if err := yaml.Unmarshal(data, &freq); err != nil {
		return nil, fmt.Errorf("parsing frequency file %s: %w", path, err)
	}
	return freq, nil
}
