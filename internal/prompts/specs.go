package prompts

const narrativeSpec = `Output constraints:
- Respond in plain prose or short bulleted lists; no JSON and no code fencing
- Base every statement on the data provided; do not invent measurements or history
- Do not present a diagnosis as certain; describe findings as consistent with or suggestive of a condition
- Keep the response under 300 words`

const synthesisSpec = `Output constraints:
- Structure the response as: 1. overall condition, 2. key findings and how they relate, 3. points requiring attention
- Use words such as urgent, emergency, monitor, or follow-up only when the findings warrant them
- Do not present a diagnosis as certain
- Keep the response under 400 words`

const recommendationSpec = `Output constraints:
- Structure the response as: 1. current status, 2. recommended actions, 3. lifestyle advice, 4. whether further testing is needed
- If the risk assessment calls for immediate action, say so in the first sentence
- Never advise against seeking medical care
- This output is reference information, not a medical diagnosis; do not claim otherwise`

var specs = map[Stage]string{
	StageAudio:                      narrativeSpec,
	StageVitals:                     narrativeSpec,
	StageSymptoms:                   narrativeSpec,
	StageSynthesis:                  synthesisSpec,
	StageRecommendationGeneral:      recommendationSpec,
	StageRecommendationProfessional: recommendationSpec,
}

// Spec returns the fixed output constraints for a triage stage.
// Specs cannot be overridden.
// Returns ErrInvalidStage if the stage is not recognized.
func Spec(stage Stage) (string, error) {
	text, ok := specs[stage]
	if !ok {
		return "", ErrInvalidStage
	}
	return text, nil
}
