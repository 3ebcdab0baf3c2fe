package resolution

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DuplicateThreshold is the score a candidate must exceed to count as a duplicate.
const DuplicateThreshold = 0.8

type Rules struct {
	Threshold float64 `yaml:"threshold" json:"threshold"`
	Weights   Weights `yaml:"weights" json:"weights"`
}

func DefaultRules() Rules {
	return Rules{
		Threshold: DuplicateThreshold,
		Weights: Weights{
			Name:    0.30,
			Address: 0.30,
			City:    0.15,
			State:   0.15,
			Zip:     0.10,
		},
	}
}

// LoadRules reads a YAML rules file. An empty path yields the defaults.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Rules{}, fmt.Errorf("reading matching rules: %w", err)
	}

	rules := DefaultRules()
	if err := yaml.Unmarshal(content, &rules); err != nil {
		return Rules{}, fmt.Errorf("parsing matching rules: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

func (r Rules) Validate() error {
	if r.Threshold <= 0 || r.Threshold >= 1 {
		return fmt.Errorf("threshold must be in (0,1), got %v", r.Threshold)
	}
	w := r.Weights
	for name, v := range map[string]float64{
		"name": w.Name, "address": w.Address, "city": w.City, "state": w.State, "zip": w.Zip,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must not be negative", name)
		}
	}
	if math.Abs(w.sum()-1) > 1e-6 {
		return fmt.Errorf("weights must sum to 1, got %v", w.sum())
	}
	return nil
}
