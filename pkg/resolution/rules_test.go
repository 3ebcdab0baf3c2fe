package resolution

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	return path
}

func TestDefaultRulesAreValid(t *testing.T) {
	if err := DefaultRules().Validate(); err != nil {
		t.Fatalf("default rules invalid: %v", err)
	}
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules != DefaultRules() {
		t.Fatalf("expected defaults, got %+v", rules)
	}
}

func TestLoadRulesOverlaysDefaults(t *testing.T) {
	path := writeRules(t, "threshold: 0.85\nweights:\n  name: 0.4\n  address: 0.2\n")

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rules.Threshold != 0.85 {
		t.Fatalf("expected threshold 0.85, got %v", rules.Threshold)
	}
	if rules.Weights.Name != 0.4 || rules.Weights.Address != 0.2 || rules.Weights.City != 0.15 {
		t.Fatalf("unexpected weights %+v", rules.Weights)
	}
}

func TestLoadRulesRejectsBadWeights(t *testing.T) {
	path := writeRules(t, "weights:\n  name: 0.9\n")
	if _, err := LoadRules(path); err == nil {
		t.Fatal("expected error for weights not summing to 1")
	}

	path = writeRules(t, "threshold: 1.5\n")
	if _, err := LoadRules(path); err == nil {
		t.Fatal("expected error for threshold out of range")
	}
}

func TestLoadRulesMissingFile(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if rules != (Rules{}) {
		t.Fatalf("expected zero rules on error, got %+v", rules)
	}
}
