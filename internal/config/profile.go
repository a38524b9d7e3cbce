package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"medinsight/domain/insight"
	"medinsight/domain/medication"
	"medinsight/internal/errors"
)

// AnalysisProfile tunes the insight analyzer. Defaults mirror the domain
// constants; a YAML file overlays them, so a profile only needs to name
// the knobs it changes.
type AnalysisProfile struct {
	Alpha          float64 `yaml:"alpha"`
	MinPairs       int     `yaml:"minPairs"`
	MinDoses       int     `yaml:"minDoses"`
	MinMoodEntries int     `yaml:"minMoodEntries"`

	ChronicLags []int `yaml:"chronicLags"`
	AcuteLags   []int `yaml:"acuteLags"`

	DirectionMinR      float64 `yaml:"directionMinR"`
	DirectionMinEffect float64 `yaml:"directionMinEffect"`

	TopImpacts             int   `yaml:"topImpacts"`
	MaxParallelMedications int64 `yaml:"maxParallelMedications"`
}

// DefaultProfile returns the analyzer defaults
func DefaultProfile() AnalysisProfile {
	chronic := medication.ClassChronic.CandidateLags()
	acute := medication.ClassAcute.CandidateLags()

	chronicHours := make([]int, len(chronic))
	for i, l := range chronic {
		chronicHours[i] = l.Hours()
	}
	acuteHours := make([]int, len(acute))
	for i, l := range acute {
		acuteHours[i] = l.Hours()
	}

	return AnalysisProfile{
		Alpha:                  0.05,
		MinPairs:               insight.MinViablePairs,
		MinDoses:               insight.MinDosesPerMedication,
		MinMoodEntries:         insight.MinMoodEntries,
		ChronicLags:            chronicHours,
		AcuteLags:              acuteHours,
		DirectionMinR:          insight.DirectionMinAbsR,
		DirectionMinEffect:     insight.DirectionMinAbsEffect,
		TopImpacts:             5,
		MaxParallelMedications: 4,
	}
}

// LoadProfile reads a profile file over the defaults. An empty path means
// pure defaults.
func LoadProfile(path string) (AnalysisProfile, error) {
	profile := DefaultProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return profile, errors.Wrapf(err, "read analysis profile %s", path)
	}
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return profile, errors.Wrapf(err, "parse analysis profile %s", path)
	}

	if err := profile.Validate(); err != nil {
		return profile, err
	}
	return profile, nil
}

// Validate rejects profiles the analyzer cannot run with
func (p AnalysisProfile) Validate() error {
	if p.Alpha <= 0 || p.Alpha >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("alpha must be in (0,1), got %v", p.Alpha))
	}
	if p.MinPairs < 3 {
		return errors.ConfigInvalid("minPairs must be at least 3")
	}
	if p.MinDoses < 1 || p.MinMoodEntries < 1 {
		return errors.ConfigInvalid("minDoses and minMoodEntries must be at least 1")
	}
	if p.TopImpacts < 1 {
		return errors.ConfigInvalid("topImpacts must be at least 1")
	}
	if p.MaxParallelMedications < 1 {
		return errors.ConfigInvalid("maxParallelMedications must be at least 1")
	}
	if len(p.ChronicLags) == 0 || len(p.AcuteLags) == 0 {
		return errors.ConfigInvalid("lag sets must not be empty")
	}
	for _, lag := range append(append([]int{}, p.ChronicLags...), p.AcuteLags...) {
		if lag < 0 {
			return errors.ConfigInvalid(fmt.Sprintf("lags must be non-negative, got %d", lag))
		}
	}
	return nil
}

// LagsFor returns the candidate lag hours for a dosing class
func (p AnalysisProfile) LagsFor(class medication.DosingClass) []int {
	if class == medication.ClassChronic {
		return p.ChronicLags
	}
	return p.AcuteLags
}
