package triage

import (
	"errors"
	"fmt"
)

// merge returns a copy of s with u applied. Writing a field that is already
// present fails with ErrFieldConflict and leaves s untouched, which keeps
// state append-only and catches sibling nodes writing the same field.
func merge(s State, node NodeID, u Update) (State, error) {
	next := s
	var errs []error

	assign(&errs, node, "vitals", &next.Vitals, u.Vitals)
	assign(&errs, node, "symptoms", &next.Symptoms, u.Symptoms)
	assign(&errs, node, "audio_analysis", &next.AudioAnalysis, u.AudioAnalysis)
	assign(&errs, node, "vitals_analysis", &next.VitalsAnalysis, u.VitalsAnalysis)
	assign(&errs, node, "symptom_analysis", &next.SymptomAnalysis, u.SymptomAnalysis)
	assign(&errs, node, "synthesis", &next.Synthesis, u.Synthesis)
	assign(&errs, node, "literature", &next.Literature, u.Literature)
	assign(&errs, node, "risk_assessment", &next.Risk, u.Risk)
	assign(&errs, node, "recommendation", &next.Recommendation, u.Recommendation)

	if u.UserMode != "" {
		if next.UserMode != "" {
			errs = append(errs, conflict(node, "user_mode"))
		} else {
			next.UserMode = u.UserMode
		}
	}

	if len(errs) > 0 {
		return s, errors.Join(errs...)
	}
	return next, nil
}

func assign[T any](errs *[]error, node NodeID, field string, dst **T, v *T) {
	if v == nil {
		return
	}
	if *dst != nil {
		*errs = append(*errs, conflict(node, field))
		return
	}
	*dst = v
}

func conflict(node NodeID, field string) error {
	return &NodeError{Node: node, Err: fmt.Errorf("%w: %s", ErrFieldConflict, field)}
}
