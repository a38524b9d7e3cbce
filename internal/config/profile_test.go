package config

import (
	"os"
	"path/filepath"
	"testing"

	"medinsight/domain/medication"
)

func TestDefaultProfileMatchesDomainConstants(t *testing.T) {
	p := DefaultProfile()

	if p.Alpha != 0.05 {
		t.Errorf("expected default alpha 0.05, got %v", p.Alpha)
	}
	if p.MinPairs != 7 || p.MinDoses != 5 || p.MinMoodEntries != 7 {
		t.Errorf("default floors drifted: %+v", p)
	}
	if len(p.ChronicLags) != 6 || p.ChronicLags[5] != 72 {
		t.Errorf("expected chronic lags ending at 72h, got %v", p.ChronicLags)
	}
	if len(p.AcuteLags) != 4 || p.AcuteLags[3] != 6 {
		t.Errorf("expected acute lags ending at 6h, got %v", p.AcuteLags)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("default profile must validate: %v", err)
	}
}

func TestLoadProfileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	body := "alpha: 0.1\nchronicLags: [0, 12, 24]\ntopImpacts: 2\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}

	if p.Alpha != 0.1 {
		t.Errorf("overlay alpha not applied: %v", p.Alpha)
	}
	if len(p.ChronicLags) != 3 || p.ChronicLags[2] != 24 {
		t.Errorf("overlay lags not applied: %v", p.ChronicLags)
	}
	if p.TopImpacts != 2 {
		t.Errorf("overlay topImpacts not applied: %d", p.TopImpacts)
	}
	// Untouched knobs keep their defaults
	if p.MinPairs != 7 || len(p.AcuteLags) != 4 {
		t.Errorf("defaults lost under overlay: %+v", p)
	}
}

func TestLoadProfileRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"alpha out of range", "alpha: 1.5\n"},
		{"minPairs too small", "minPairs: 2\n"},
		{"negative lag", "acuteLags: [0, -3]\n"},
		{"empty lag set", "chronicLags: []\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "profile.yaml")
			if err := os.WriteFile(path, []byte(tc.body), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadProfile(path); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	if _, err := LoadProfile("/nonexistent/profile.yaml"); err == nil {
		t.Error("expected an error for a missing file")
	}
	if _, err := LoadProfile(""); err != nil {
		t.Errorf("empty path means defaults, got error: %v", err)
	}
}

func TestLagsForClass(t *testing.T) {
	p := DefaultProfile()
	if got := p.LagsFor(medication.ClassChronic); len(got) != 6 {
		t.Errorf("expected 6 chronic lags, got %v", got)
	}
	if got := p.LagsFor(medication.ClassAcute); len(got) != 4 {
		t.Errorf("expected 4 acute lags, got %v", got)
	}
}
