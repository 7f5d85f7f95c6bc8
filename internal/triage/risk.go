package triage

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/one2ten/stetho-agent/internal/reference"
)

// Points contributed by each risk factor.
const (
	pointsVital    = 15
	pointsAudio    = 20
	pointsSeverity = 15
	pointsHighKW   = 10
	pointsModKW    = 5
	maxScore       = 100
)

// NoNotableFindings is the single factor reported when nothing triggered.
const NoNotableFindings = "No notable findings"

// LevelForScore maps a score to its risk level. Lower bounds are inclusive.
func LevelForScore(score float64) RiskLevel {
	switch {
	case score >= 75:
		return RiskCritical
	case score >= 50:
		return RiskHigh
	case score >= 25:
		return RiskModerate
	default:
		return RiskLow
	}
}

// Score computes the additive risk assessment. It reads vitals, symptom
// severity, audio classification, and synthesis text; any of them may be
// absent. Keywords are only scanned in generated synthesis text, never in
// a degraded or missing one, and they add points without adding a factor.
func Score(s State, ref *reference.Data) RiskAssessment {
	var (
		score   float64
		factors []string
	)

	add := func(points float64, factor string) {
		score += points
		factors = append(factors, factor)
	}

	if v := s.Vitals; v != nil {
		hr := ref.Vitals.HeartRate.Normal
		switch rate := float64(v.HeartRate); {
		case rate > hr.Max:
			add(pointsVital, fmt.Sprintf("Tachycardia (heart rate %d bpm)", v.HeartRate))
		case rate < hr.Min:
			add(pointsVital, fmt.Sprintf("Bradycardia (heart rate %d bpm)", v.HeartRate))
		}

		switch sys := float64(v.Systolic); {
		case sys > ref.Vitals.Systolic.Hypertension:
			add(pointsVital, fmt.Sprintf("Hypertension (%d/%d mmHg)", v.Systolic, v.Diastolic))
		case sys < ref.Vitals.Systolic.Hypotension:
			add(pointsVital, fmt.Sprintf("Hypotension (%d/%d mmHg)", v.Systolic, v.Diastolic))
		}

		if v.Temperature > ref.Vitals.Temperature.Fever {
			add(pointsVital, fmt.Sprintf("Fever (%.1f°C)", v.Temperature))
		}
	}

	if a := s.Audio; a != nil && !ref.Options.IsNormalLabel(a.Label) {
		add(pointsAudio, fmt.Sprintf("Abnormal auscultation: %s", a.Label))
	}

	if sym := s.Symptoms; sym != nil && (sym.Severity == SeveritySevere || sym.Severity == SeverityVerySevere) {
		add(pointsSeverity, fmt.Sprintf("Symptom severity: %s", sym.Severity))
	}

	if s.Synthesis.OK() {
		text := strings.ToLower(s.Synthesis.Text)
		if containsAny(text, ref.Keywords.High) {
			score += pointsHighKW
		}
		if containsAny(text, ref.Keywords.Moderate) {
			score += pointsModKW
		}
	}

	score = min(max(score, 0), maxScore)
	level := LevelForScore(score)

	if len(factors) == 0 {
		factors = []string{NoNotableFindings}
	}

	return RiskAssessment{
		Level:           level,
		Score:           score,
		Factors:         factors,
		ImmediateAction: level == RiskHigh || level == RiskCritical,
	}
}

func containsAny(text string, keywords []string) bool {
	return slices.ContainsFunc(keywords, func(kw string) bool {
		return kw != "" && strings.Contains(text, strings.ToLower(kw))
	})
}

func riskNode(rt *Runtime) NodeFunc {
	return func(ctx context.Context, s State) (Update, error) {
		r := Score(s, rt.ref())

		rt.log().InfoContext(ctx, "risk node complete",
			"level", r.Level,
			"score", r.Score,
			"factors", len(r.Factors),
			"immediate_action", r.ImmediateAction,
		)

		return Update{Risk: &r}, nil
	}
}
