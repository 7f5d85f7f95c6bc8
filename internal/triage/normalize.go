package triage

import (
	"context"
	"slices"
)

// Values substituted for inputs the caller omitted.
var (
	DefaultVitals = Vitals{
		HeartRate:   75,
		Systolic:    120,
		Diastolic:   80,
		Temperature: 36.5,
	}

	DefaultSymptoms = Symptoms{
		FreeText:  "Dry cough for a few days, short of breath on stairs, and a tight feeling in the chest.",
		Checklist: []string{"cough", "dyspnea", "chest_tightness"},
		Duration:  "3-7 days",
		Severity:  SeverityMild,
	}
)

// normalizeNode fills absent vitals, symptoms, and user mode with defaults.
// Audio is never defaulted; its absence is carried through the run.
func normalizeNode(rt *Runtime) NodeFunc {
	return func(ctx context.Context, s State) (Update, error) {
		var u Update

		if s.Vitals == nil {
			v := DefaultVitals
			u.Vitals = &v
		}
		if s.Symptoms == nil {
			sym := DefaultSymptoms
			sym.Checklist = slices.Clone(DefaultSymptoms.Checklist)
			u.Symptoms = &sym
		}
		if s.UserMode == "" {
			u.UserMode = ModeGeneral
		}

		rt.log().InfoContext(ctx, "normalize node complete",
			"default_vitals", u.Vitals != nil,
			"default_symptoms", u.Symptoms != nil,
			"audio", s.Audio != nil,
		)

		return u, nil
	}
}
