package triage

import (
	"context"

	"github.com/one2ten/stetho-agent/internal/prompts"
)

// UrgentCareBanner is prepended to the recommendation when immediate action is required.
const UrgentCareBanner = "🚨 IMPORTANT: This patient has been assessed as high risk. Please seek care from a medical professional as soon as possible.\n\n"

func recommendationStage(mode UserMode) prompts.Stage {
	if mode == ModeProfessional {
		return prompts.StageRecommendationProfessional
	}
	return prompts.StageRecommendationGeneral
}

// recommendationNode writes the terminal narrative for the user's mode.
// The banner is added to degraded text as well.
func recommendationNode(rt *Runtime) NodeFunc {
	return func(ctx context.Context, s State) (Update, error) {
		stage := recommendationStage(s.UserMode)
		n := narrate(ctx, rt, NodeRecommendation, stage, "recommendation generation", recommendationPrompt(s))

		if s.Risk != nil && s.Risk.ImmediateAction {
			n.Text = UrgentCareBanner + n.Text
		}

		rt.log().InfoContext(ctx, "recommendation node complete",
			"mode", s.UserMode,
			"stage", stage,
			"urgent", s.Risk != nil && s.Risk.ImmediateAction,
			"status", n.Status,
		)

		return Update{Recommendation: n}, nil
	}
}
