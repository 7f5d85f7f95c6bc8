package triage

import (
	"strings"

	"github.com/one2ten/stetho-agent/internal/reference"
)

const maxSymptomTerms = 3

// BuildSearchQuery derives a literature query from the structured inputs:
// the mapped audio class, up to three mapped checklist symptoms in order,
// and a term for each vital sign outside its band. Unmapped values are
// skipped. With no terms the default query is returned.
func BuildSearchQuery(s State, ref *reference.Data) string {
	q := &ref.Query
	var terms []string

	if s.Audio != nil {
		if t, ok := lookup(q.Audio, s.Audio.Label); ok {
			terms = append(terms, t)
		}
	}

	if s.Symptoms != nil {
		n := 0
		for _, tag := range s.Symptoms.Checklist {
			if n == maxSymptomTerms {
				break
			}
			if t, ok := q.Symptoms[tag]; ok && t != "" {
				terms = append(terms, t)
				n++
			}
		}
	}

	if s.Vitals != nil {
		for _, finding := range vitalTerms(s.Vitals, &ref.Vitals) {
			t, ok := q.Vitals[finding]
			if !ok || t == "" {
				t = finding
			}
			terms = append(terms, t)
		}
	}

	if len(terms) == 0 {
		return q.Default
	}
	return strings.Join(terms, " ")
}

// vitalTerms names the out-of-band findings used for search. Temperature
// uses the low-grade fever threshold here, which is lower than the threshold
// the risk scorer applies.
func vitalTerms(v *Vitals, ref *reference.Vitals) []string {
	var out []string

	switch rate := float64(v.HeartRate); {
	case rate > ref.HeartRate.Normal.Max:
		out = append(out, "tachycardia")
	case rate < ref.HeartRate.Normal.Min:
		out = append(out, "bradycardia")
	}

	switch sys := float64(v.Systolic); {
	case sys > ref.Systolic.Hypertension:
		out = append(out, "hypertension")
	case sys < ref.Systolic.Hypotension:
		out = append(out, "hypotension")
	}

	switch {
	case v.Temperature > ref.Temperature.LowGradeFever:
		out = append(out, "fever")
	case v.Temperature < ref.Temperature.Hypothermia:
		out = append(out, "hypothermia")
	}

	return out
}

func lookup(m map[string]string, key string) (string, bool) {
	if t, ok := m[key]; ok && t != "" {
		return t, true
	}
	for k, t := range m {
		if strings.EqualFold(k, key) && t != "" {
			return t, true
		}
	}
	return "", false
}
