package triage

import (
	"context"
	"fmt"

	"github.com/one2ten/stetho-agent/internal/prompts"
)

// Fixed narratives for interpretation inputs the caller did not supply.
const (
	AudioNotProvided    = "No auscultation data was provided; the analysis proceeds with vitals and symptoms only."
	VitalsNotProvided   = "No vital sign data was provided."
	SymptomsNotProvided = "No symptom data was provided."
)

// narrate sends prompt to the generator under the stage's system prompt.
// Generator failures become a degraded narrative; they never escape the node.
func narrate(ctx context.Context, rt *Runtime, node NodeID, stage prompts.Stage, task, prompt string) *Narrative {
	text, err := rt.Generator.Generate(ctx, prompt, ComposeSystemPrompt(ctx, rt, stage))
	if err != nil {
		rt.log().WarnContext(ctx, "narrative generation failed", "node", node, "error", err)
		return Degraded(fmt.Sprintf("An error occurred during %s: %v", task, err), err)
	}
	return Generated(text)
}

func audioNode(rt *Runtime) NodeFunc {
	return func(ctx context.Context, s State) (Update, error) {
		if s.Audio == nil {
			rt.log().InfoContext(ctx, "no auscultation data, skipping analysis")
			return Update{AudioAnalysis: NotProvided(AudioNotProvided)}, nil
		}

		n := narrate(ctx, rt, NodeAudio, prompts.StageAudio, "auscultation analysis", audioPrompt(s.Audio))

		rt.log().InfoContext(ctx, "audio node complete",
			"classification", s.Audio.Label,
			"confidence", s.Audio.Confidence,
			"status", n.Status,
		)
		return Update{AudioAnalysis: n}, nil
	}
}

func vitalsNode(rt *Runtime) NodeFunc {
	return func(ctx context.Context, s State) (Update, error) {
		if s.Vitals == nil {
			return Update{VitalsAnalysis: NotProvided(VitalsNotProvided)}, nil
		}

		n := narrate(ctx, rt, NodeVitals, prompts.StageVitals, "vital sign evaluation", vitalsPrompt(s.Vitals, rt.ref()))

		rt.log().InfoContext(ctx, "vitals node complete",
			"heart_rate", s.Vitals.HeartRate,
			"systolic", s.Vitals.Systolic,
			"diastolic", s.Vitals.Diastolic,
			"temperature", s.Vitals.Temperature,
			"status", n.Status,
		)
		return Update{VitalsAnalysis: n}, nil
	}
}

func symptomsNode(rt *Runtime) NodeFunc {
	return func(ctx context.Context, s State) (Update, error) {
		if s.Symptoms == nil {
			return Update{SymptomAnalysis: NotProvided(SymptomsNotProvided)}, nil
		}

		n := narrate(ctx, rt, NodeSymptoms, prompts.StageSymptoms, "symptom analysis", symptomsPrompt(s.Symptoms, rt.ref()))

		rt.log().InfoContext(ctx, "symptoms node complete",
			"checklist", len(s.Symptoms.Checklist),
			"severity", s.Symptoms.Severity,
			"status", n.Status,
		)
		return Update{SymptomAnalysis: n}, nil
	}
}
