package insight

import (
	"strings"
	"testing"

	"medinsight/domain/core"
	"medinsight/domain/mood"
)

func TestInterpretationWording(t *testing.T) {
	got := Interpretation("Sertraline", mood.MetricMood, DirectionPositive, core.NewLagHours(24), 0.72, 1.1)

	for _, want := range []string{"Sertraline", "strongly", "higher mood", "about a day after dosing", "r=0.72"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}

func TestInterpretationAnxietyReliefReadsAsLower(t *testing.T) {
	got := Interpretation("Buspirone", mood.MetricAnxiety, DirectionPositive, core.NewLagHours(6), -0.54, -0.9)

	if !strings.Contains(got, "lower anxiety level") {
		t.Errorf("falling anxiety should read as lower, got %q", got)
	}
	if !strings.Contains(got, "moderately") {
		t.Errorf("|r|=0.54 should read as moderately, got %q", got)
	}
	if !strings.Contains(got, "about 6 hours after dosing") {
		t.Errorf("expected the 6h lag phrase, got %q", got)
	}
}

func TestInterpretationNeutral(t *testing.T) {
	got := Interpretation("Melatonin", mood.MetricEnergy, DirectionNeutral, core.NewLagHours(0), 0.05, 0.1)
	if !strings.Contains(got, "no meaningful association") {
		t.Errorf("expected the neutral sentence, got %q", got)
	}
}

func TestLagPhrases(t *testing.T) {
	cases := []struct {
		lag  int
		want string
	}{
		{0, "around the time of dosing"},
		{1, "about an hour after dosing"},
		{3, "about 3 hours after dosing"},
		{24, "about a day after dosing"},
		{48, "about 2 days after dosing"},
		{72, "about 3 days after dosing"},
	}
	for _, tc := range cases {
		if got := lagPhrase(core.NewLagHours(tc.lag)); got != tc.want {
			t.Errorf("lagPhrase(%d): expected %q, got %q", tc.lag, tc.want, got)
		}
	}
}

func TestRecommendationBranches(t *testing.T) {
	hour := 8

	positive := Recommendation("Sertraline", mood.MetricMood, DirectionPositive, ConfidenceHigh, &hour)
	if !strings.Contains(positive, "keep the routine steady") || !strings.Contains(positive, "08:00") {
		t.Errorf("positive recommendation missing expected phrases: %q", positive)
	}

	negative := Recommendation("Stimulantin", mood.MetricAnxiety, DirectionNegative, ConfidenceModerate, nil)
	if !strings.Contains(negative, "prescriber") {
		t.Errorf("negative recommendation should point at the prescriber: %q", negative)
	}

	weak := Recommendation("Melatonin", mood.MetricMood, DirectionPositive, ConfidenceLow, nil)
	if !strings.Contains(weak, "keep logging") {
		t.Errorf("low confidence should ask for more data: %q", weak)
	}
}

func TestRedFlagSummary(t *testing.T) {
	got := RedFlagSummary("Stimulantin", mood.MetricAnxiety, 0.61, 0.004)
	for _, want := range []string{"Stimulantin", "anxiety level", "r=0.61", "0.004"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}

func TestAboveRangeSummary(t *testing.T) {
	got := AboveRangeSummary("Lithium", 0.34, 1200)
	for _, want := range []string{"Lithium", "1200 ng/mL", "34%"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}
