package triage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/one2ten/stetho-agent/internal/literature"
	"github.com/one2ten/stetho-agent/internal/prompts"
	"github.com/one2ten/stetho-agent/internal/reference"
)

// missingAnalysis stands in for an interpretation absent from the state.
const missingAnalysis = "No analysis available."

// ComposeSystemPrompt joins a stage's instructions and output constraints.
// A failed lookup falls back to the built-in text for that stage.
func ComposeSystemPrompt(ctx context.Context, rt *Runtime, stage prompts.Stage) string {
	src := rt.source()

	instructions, err := src.Instructions(ctx, stage)
	if err != nil {
		rt.log().WarnContext(ctx, "prompt instructions lookup failed, using default", "stage", stage, "error", err)
		instructions, _ = prompts.Instructions(stage)
	}

	spec, err := src.Spec(ctx, stage)
	if err != nil {
		rt.log().WarnContext(ctx, "prompt spec lookup failed, using default", "stage", stage, "error", err)
		spec, _ = prompts.Spec(stage)
	}

	var sb strings.Builder
	sb.WriteString(instructions)
	sb.WriteString("\n\n")
	sb.WriteString(spec)
	return sb.String()
}

func audioPrompt(a *AudioClassification) string {
	var sb strings.Builder
	sb.WriteString("Auscultation classifier result:\n")
	fmt.Fprintf(&sb, "- Predicted class: %s\n", a.Label)
	fmt.Fprintf(&sb, "- Confidence: %.1f%%\n", a.Confidence*100)
	sb.WriteString("- Class probabilities:\n")
	for _, class := range slices.Sorted(maps.Keys(a.Probabilities)) {
		fmt.Fprintf(&sb, "  - %s: %.1f%%\n", class, a.Probabilities[class]*100)
	}
	sb.WriteString("\nInterpret this auscultation classification from a clinical perspective.")
	return sb.String()
}

// vitalFindings compares each vital sign with its reference band, one line per sign.
func vitalFindings(v *Vitals, ref *reference.Vitals) []string {
	hr := ref.HeartRate.Normal
	sys, dia := ref.Systolic, ref.Diastolic
	temp := ref.Temperature

	var findings []string

	switch rate := float64(v.HeartRate); {
	case rate < hr.Min:
		findings = append(findings, fmt.Sprintf("Heart rate %d bpm: bradycardia (normal %g-%g)", v.HeartRate, hr.Min, hr.Max))
	case rate > hr.Max:
		findings = append(findings, fmt.Sprintf("Heart rate %d bpm: tachycardia (normal %g-%g)", v.HeartRate, hr.Min, hr.Max))
	default:
		findings = append(findings, fmt.Sprintf("Heart rate %d bpm: within normal range", v.HeartRate))
	}

	bp := fmt.Sprintf("%d/%d mmHg", v.Systolic, v.Diastolic)
	switch {
	case float64(v.Systolic) > sys.Hypertension || float64(v.Diastolic) > dia.Hypertension:
		findings = append(findings, fmt.Sprintf("Blood pressure %s: hypertension (normal up to %g/%g)", bp, sys.Normal.Max, dia.Normal.Max))
	case float64(v.Systolic) < sys.Hypotension:
		findings = append(findings, fmt.Sprintf("Blood pressure %s: hypotension", bp))
	default:
		findings = append(findings, fmt.Sprintf("Blood pressure %s: within normal range", bp))
	}

	switch {
	case v.Temperature > temp.Fever:
		findings = append(findings, fmt.Sprintf("Temperature %.1f°C: fever (normal %g-%g)", v.Temperature, temp.Normal.Min, temp.Normal.Max))
	case v.Temperature < temp.Hypothermia:
		findings = append(findings, fmt.Sprintf("Temperature %.1f°C: hypothermia (normal %g-%g)", v.Temperature, temp.Normal.Min, temp.Normal.Max))
	default:
		findings = append(findings, fmt.Sprintf("Temperature %.1f°C: within normal range", v.Temperature))
	}

	return findings
}

func vitalsPrompt(v *Vitals, ref *reference.Data) string {
	return fmt.Sprintf(
		"Patient vital signs:\n%s\n\nEvaluate these vital signs together. For any abnormal finding, explain possible causes and precautions.",
		strings.Join(vitalFindings(v, &ref.Vitals), "\n"),
	)
}

func symptomsPrompt(s *Symptoms, ref *reference.Data) string {
	checklist := "none selected"
	if len(s.Checklist) > 0 {
		labels := make([]string, len(s.Checklist))
		for i, tag := range s.Checklist {
			labels[i] = ref.Options.SymptomLabel(tag)
		}
		checklist = strings.Join(labels, ", ")
	}

	var sb strings.Builder
	sb.WriteString("Patient symptoms:\n")
	fmt.Fprintf(&sb, "- Description: %s\n", s.FreeText)
	fmt.Fprintf(&sb, "- Reported symptoms: %s\n", checklist)
	fmt.Fprintf(&sb, "- Duration: %s\n", s.Duration)
	fmt.Fprintf(&sb, "- Severity: %s\n", s.Severity)
	sb.WriteString("\nAnalyze these symptoms together and describe any suspected respiratory or cardiovascular findings.")
	return sb.String()
}

func orMissing(n *Narrative) string {
	if n == nil || n.Text == "" {
		return missingAnalysis
	}
	return n.Text
}

func synthesisPrompt(s State, references string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Auscultation analysis ===\n%s\n\n", orMissing(s.AudioAnalysis))
	fmt.Fprintf(&sb, "=== Vital sign evaluation ===\n%s\n\n", orMissing(s.VitalsAnalysis))
	fmt.Fprintf(&sb, "=== Symptom analysis ===\n%s\n\n", orMissing(s.SymptomAnalysis))
	if references != "" {
		sb.WriteString(references)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Combine the analyses above into:\n")
	sb.WriteString("1. A summary of the overall condition\n")
	sb.WriteString("2. Key findings and how they relate\n")
	sb.WriteString("3. Points that require attention")
	return sb.String()
}

func recommendationPrompt(s State) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Combined analysis ===\n%s\n\n", s.Synthesis.String())

	sb.WriteString("=== Risk assessment ===\n")
	if r := s.Risk; r != nil {
		action := "no"
		if r.ImmediateAction {
			action = "yes"
		}
		fmt.Fprintf(&sb, "Risk level: %s (%.0f points)\n", r.Level, r.Score)
		fmt.Fprintf(&sb, "Risk factors: %s\n", strings.Join(r.Factors, ", "))
		fmt.Fprintf(&sb, "Immediate action required: %s\n", action)
	}

	if refs := literature.FormatForPrompt(s.Literature); refs != "" {
		fmt.Fprintf(&sb, "\n%s\n", refs)
	}

	sb.WriteString("\nBased on the analysis above, write the final recommendation for the patient.\n")
	sb.WriteString("Include: 1) current status 2) recommended actions 3) lifestyle advice 4) whether further testing is needed")
	return sb.String()
}
