package triage_test

import (
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/one2ten/stetho-agent/internal/reference"
	"github.com/one2ten/stetho-agent/internal/triage"
)

func baseline() triage.State {
	v := triage.DefaultVitals
	sym := triage.DefaultSymptoms
	return triage.State{Vitals: &v, Symptoms: &sym, UserMode: triage.ModeGeneral}
}

func TestLevelForScore(t *testing.T) {
	tests := []struct {
		score float64
		want  triage.RiskLevel
	}{
		{0, triage.RiskLow},
		{24.9, triage.RiskLow},
		{25, triage.RiskModerate},
		{49.9, triage.RiskModerate},
		{50, triage.RiskHigh},
		{74.9, triage.RiskHigh},
		{75, triage.RiskCritical},
		{80, triage.RiskCritical},
		{100, triage.RiskCritical},
	}

	for _, tt := range tests {
		if got := triage.LevelForScore(tt.score); got != tt.want {
			t.Errorf("LevelForScore(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestScoreBaseline(t *testing.T) {
	r := triage.Score(baseline(), reference.Default())

	if r.Score != 0 || r.Level != triage.RiskLow || r.ImmediateAction {
		t.Errorf("baseline = %+v, want low/0", r)
	}
	if len(r.Factors) != 1 || r.Factors[0] != triage.NoNotableFindings {
		t.Errorf("factors = %v, want sentinel", r.Factors)
	}
}

func TestScoreEmptyState(t *testing.T) {
	r := triage.Score(triage.State{}, reference.Default())
	if r.Score != 0 || r.Level != triage.RiskLow {
		t.Errorf("empty state = %+v, want low/0", r)
	}
}

func TestScoreFactors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*triage.State)
		points float64
		factor string
	}{
		{"tachycardia", func(s *triage.State) { s.Vitals.HeartRate = 120 }, 15, "Tachycardia (heart rate 120 bpm)"},
		{"bradycardia", func(s *triage.State) { s.Vitals.HeartRate = 45 }, 15, "Bradycardia (heart rate 45 bpm)"},
		{"hypertension", func(s *triage.State) { s.Vitals.Systolic, s.Vitals.Diastolic = 160, 95 }, 15, "Hypertension (160/95 mmHg)"},
		{"hypotension", func(s *triage.State) { s.Vitals.Systolic, s.Vitals.Diastolic = 85, 55 }, 15, "Hypotension (85/55 mmHg)"},
		{"fever", func(s *triage.State) { s.Vitals.Temperature = 39.5 }, 15, "Fever (39.5°C)"},
		{"abnormal audio", func(s *triage.State) {
			s.Audio = &triage.AudioClassification{Label: "Crackle", Confidence: 0.8}
		}, 20, "Abnormal auscultation: Crackle"},
		{"severe", func(s *triage.State) { s.Symptoms.Severity = triage.SeveritySevere }, 15, "Symptom severity: severe"},
		{"very severe", func(s *triage.State) { s.Symptoms.Severity = triage.SeverityVerySevere }, 15, "Symptom severity: very severe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseline()
			tt.modify(&s)

			r := triage.Score(s, reference.Default())
			if r.Score != tt.points {
				t.Errorf("score = %v, want %v", r.Score, tt.points)
			}
			if !slices.Contains(r.Factors, tt.factor) {
				t.Errorf("factors = %v, want %q", r.Factors, tt.factor)
			}
		})
	}
}

func TestScoreBoundaryVitalsDoNotTrigger(t *testing.T) {
	s := baseline()
	s.Vitals.HeartRate = 100
	s.Vitals.Systolic = 140
	s.Vitals.Temperature = 38.0
	s.Audio = &triage.AudioClassification{Label: "normal"}

	if r := triage.Score(s, reference.Default()); r.Score != 0 {
		t.Errorf("score = %v, want 0 at inclusive bounds, factors %v", r.Score, r.Factors)
	}
}

func TestScoreKeywordsAddPointsOnly(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		points float64
	}{
		{"high keyword", "Findings suggest PNEUMONIA.", 10},
		{"moderate keyword", "Please monitor at home.", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseline()
			s.Synthesis = triage.Generated(tt.text)

			r := triage.Score(s, reference.Default())
			if r.Score != tt.points {
				t.Errorf("score = %v, want %v", r.Score, tt.points)
			}
			if len(r.Factors) != 1 || r.Factors[0] != triage.NoNotableFindings {
				t.Errorf("factors = %v, want sentinel only", r.Factors)
			}
		})
	}
}

func TestScoreKeywordsCountOnce(t *testing.T) {
	s := baseline()
	s.Synthesis = triage.Generated("Urgent: acute findings, possible pneumonia, immediate care. Monitor and follow-up; chronic and worsening.")

	r := triage.Score(s, reference.Default())
	if r.Score != 15 {
		t.Errorf("score = %v, want 15 (10 high + 5 moderate)", r.Score)
	}
}

func TestScoreIgnoresDegradedSynthesis(t *testing.T) {
	s := baseline()
	s.Synthesis = triage.Degraded("An error occurred during result synthesis: emergency backend down", nil)

	if r := triage.Score(s, reference.Default()); r.Score != 0 {
		t.Errorf("score = %v, want 0 for degraded synthesis", r.Score)
	}
}

func TestScoreAllFactors(t *testing.T) {
	s := baseline()
	s.Vitals = &triage.Vitals{HeartRate: 150, Systolic: 180, Diastolic: 100, Temperature: 39.5}
	s.Symptoms.Severity = triage.SeverityVerySevere
	s.Audio = &triage.AudioClassification{Label: "Both"}
	s.Synthesis = triage.Generated("Emergency: monitor closely.")

	r := triage.Score(s, reference.Default())
	if r.Score != 95 || r.Level != triage.RiskCritical || !r.ImmediateAction {
		t.Errorf("assessment = %+v, want critical/95", r)
	}
	if r.Score > 100 {
		t.Errorf("score %v exceeds cap", r.Score)
	}
}

func TestScoreMonotonic(t *testing.T) {
	triggers := []func(*triage.State){
		func(s *triage.State) { s.Vitals.HeartRate = 130 },
		func(s *triage.State) { s.Vitals.Systolic = 70 },
		func(s *triage.State) { s.Vitals.Temperature = 40 },
		func(s *triage.State) { s.Audio = &triage.AudioClassification{Label: "Wheeze"} },
		func(s *triage.State) { s.Symptoms.Severity = triage.SeveritySevere },
		func(s *triage.State) { s.Synthesis = triage.Generated(s.Synthesis.String() + " critical") },
		func(s *triage.State) { s.Synthesis = triage.Generated(s.Synthesis.String() + " chronic") },
	}

	ref := reference.Default()
	for i, trigger := range triggers {
		for j, other := range triggers {
			if i == j {
				continue
			}
			before := baseline()
			other(&before)
			after := baseline()
			other(&after)
			trigger(&after)

			if triage.Score(after, ref).Score < triage.Score(before, ref).Score {
				t.Errorf("adding trigger %d to trigger %d decreased the score", i, j)
			}
		}
	}
}

func TestScoreIdempotent(t *testing.T) {
	s := baseline()
	s.Vitals.HeartRate = 130
	s.Synthesis = triage.Generated("Follow-up advised.")

	ref := reference.Default()
	first := triage.Score(s, ref)
	second := triage.Score(s, ref)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("scores differ: %+v vs %+v", first, second)
	}
}

func TestScoreLevelMatchesTable(t *testing.T) {
	ref := reference.Default()
	severities := triage.Severities
	labels := []string{"Normal", "Murmur"}
	rates := []int{40, 75, 130}
	systolics := []int{80, 120, 170}
	temps := []float64{36.5, 39}

	for _, sev := range severities {
		for _, label := range labels {
			for _, hr := range rates {
				for _, sys := range systolics {
					for _, temp := range temps {
						s := baseline()
						s.Symptoms.Severity = sev
						s.Audio = &triage.AudioClassification{Label: label}
						s.Vitals = &triage.Vitals{HeartRate: hr, Systolic: sys, Diastolic: 80, Temperature: temp}

						r := triage.Score(s, ref)
						if r.Level != triage.LevelForScore(r.Score) {
							t.Fatalf("level %s inconsistent with score %v", r.Level, r.Score)
						}
						wantImmediate := r.Level == triage.RiskHigh || r.Level == triage.RiskCritical
						if r.ImmediateAction != wantImmediate {
							t.Fatalf("immediate_action %v for level %s", r.ImmediateAction, r.Level)
						}
						if r.Score < 0 || r.Score > 100 {
							t.Fatalf("score %v out of range", r.Score)
						}
						if len(r.Factors) == 0 || strings.TrimSpace(r.Factors[0]) == "" {
							t.Fatalf("empty factors for %+v", s)
						}
					}
				}
			}
		}
	}
}
