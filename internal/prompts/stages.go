package prompts

import (
	"fmt"
	"slices"
	"strings"
)

// Stage names a triage node whose system prompt can be overridden. The two
// recommendation stages split by user mode.
type Stage string

const (
	StageAudio                      Stage = "audio"
	StageVitals                     Stage = "vitals"
	StageSymptoms                   Stage = "symptoms"
	StageSynthesis                  Stage = "synthesis"
	StageRecommendationGeneral      Stage = "recommendation_general"
	StageRecommendationProfessional Stage = "recommendation_professional"
)

// Stages lists every stage in graph order.
func Stages() []Stage {
	return []Stage{
		StageAudio,
		StageVitals,
		StageSymptoms,
		StageSynthesis,
		StageRecommendationGeneral,
		StageRecommendationProfessional,
	}
}

// ParseStage accepts a stage name in any case, ignoring surrounding space.
func ParseStage(s string) (Stage, error) {
	v := Stage(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Stages(), v) {
		return "", ErrInvalidStage
	}
	return v, nil
}

// UnmarshalText lets JSON bodies and query decoders reject unknown stages.
func (s *Stage) UnmarshalText(text []byte) error {
	v, err := ParseStage(string(text))
	if err != nil {
		return fmt.Errorf("%w: %q", err, text)
	}
	*s = v
	return nil
}
