package triage

import (
	"fmt"
	"strings"
	"time"

	"github.com/one2ten/stetho-agent/internal/literature"
)

// Disclaimer accompanies every report.
const Disclaimer = "⚠️ This analysis is AI-generated reference information, not a medical diagnosis."

// Report is the caller-facing projection of a completed run.
type Report struct {
	Timestamp       time.Time                     `json:"timestamp"`
	UserMode        UserMode                      `json:"user_mode"`
	Vitals          Vitals                        `json:"vitals"`
	Symptoms        Symptoms                      `json:"symptoms"`
	Audio           *AudioClassification          `json:"audio,omitempty"`
	AudioAnalysis   Narrative                     `json:"audio_analysis"`
	VitalsAnalysis  Narrative                     `json:"vitals_analysis"`
	SymptomAnalysis Narrative                     `json:"symptom_analysis"`
	Synthesis       Narrative                     `json:"synthesis"`
	Literature      *literature.Result            `json:"literature"`
	References      []literature.DisplayReference `json:"references"`
	Risk            RiskAssessment                `json:"risk_assessment"`
	Recommendation  Narrative                     `json:"recommendation"`
	Disclaimer      string                        `json:"disclaimer"`
}

// NewReport projects a complete final state. Callers must only pass states
// returned by Execute.
func NewReport(s State, at time.Time) *Report {
	return &Report{
		Timestamp:       at,
		UserMode:        s.UserMode,
		Vitals:          *s.Vitals,
		Symptoms:        *s.Symptoms,
		Audio:           s.Audio,
		AudioAnalysis:   *s.AudioAnalysis,
		VitalsAnalysis:  *s.VitalsAnalysis,
		SymptomAnalysis: *s.SymptomAnalysis,
		Synthesis:       *s.Synthesis,
		Literature:      s.Literature,
		References:      literature.FormatForDisplay(s.Literature),
		Risk:            *s.Risk,
		Recommendation:  *s.Recommendation,
		Disclaimer:      Disclaimer,
	}
}

// Degraded lists the sections whose narrative generation failed.
func (r *Report) Degraded() []string {
	sections := []struct {
		name string
		n    Narrative
	}{
		{"audio_analysis", r.AudioAnalysis},
		{"vitals_analysis", r.VitalsAnalysis},
		{"symptom_analysis", r.SymptomAnalysis},
		{"synthesis", r.Synthesis},
		{"recommendation", r.Recommendation},
	}

	var out []string
	for _, s := range sections {
		if s.n.Status == NarrativeDegraded {
			out = append(out, s.name)
		}
	}
	return out
}

// Markdown renders the report as a standalone document.
func (r *Report) Markdown() string {
	var sb strings.Builder

	sb.WriteString("# Triage Report\n\n")
	fmt.Fprintf(&sb, "_Generated %s for a %s audience._\n\n", r.Timestamp.Format(time.RFC3339), r.UserMode)

	sb.WriteString("## Risk Assessment\n\n")
	fmt.Fprintf(&sb, "- **Level:** %s\n", r.Risk.Level)
	fmt.Fprintf(&sb, "- **Score:** %.0f / 100\n", r.Risk.Score)
	fmt.Fprintf(&sb, "- **Immediate action:** %t\n", r.Risk.ImmediateAction)
	sb.WriteString("- **Factors:**\n")
	for _, f := range r.Risk.Factors {
		fmt.Fprintf(&sb, "  - %s\n", f)
	}

	sb.WriteString("\n## Recommendation\n\n")
	sb.WriteString(r.Recommendation.Text)

	sb.WriteString("\n\n## Inputs\n\n")
	fmt.Fprintf(&sb, "- **Heart rate:** %d bpm\n", r.Vitals.HeartRate)
	fmt.Fprintf(&sb, "- **Blood pressure:** %d/%d mmHg\n", r.Vitals.Systolic, r.Vitals.Diastolic)
	fmt.Fprintf(&sb, "- **Temperature:** %.1f°C\n", r.Vitals.Temperature)
	fmt.Fprintf(&sb, "- **Symptoms:** %s\n", strings.Join(r.Symptoms.Checklist, ", "))
	fmt.Fprintf(&sb, "- **Duration:** %s\n", r.Symptoms.Duration)
	fmt.Fprintf(&sb, "- **Severity:** %s\n", r.Symptoms.Severity)
	if r.Audio != nil {
		fmt.Fprintf(&sb, "- **Auscultation:** %s (%.1f%%)\n", r.Audio.Label, r.Audio.Confidence*100)
	}

	sections := []struct {
		title string
		n     Narrative
	}{
		{"Auscultation Analysis", r.AudioAnalysis},
		{"Vital Sign Evaluation", r.VitalsAnalysis},
		{"Symptom Analysis", r.SymptomAnalysis},
		{"Synthesis", r.Synthesis},
	}
	for _, s := range sections {
		fmt.Fprintf(&sb, "\n## %s\n\n%s\n", s.title, s.n.Text)
	}

	if len(r.References) > 0 {
		sb.WriteString("\n## References\n\n")
		for i, ref := range r.References {
			fmt.Fprintf(&sb, "%d. %s. %s. _%s_, %s. %s\n", i+1, ref.Title, ref.Authors, ref.Journal, ref.Year, ref.URL)
		}
	}

	fmt.Fprintf(&sb, "\n---\n\n%s\n", r.Disclaimer)
	return sb.String()
}
