package triage

import (
	"context"
	"errors"

	"github.com/one2ten/stetho-agent/internal/literature"
	"github.com/one2ten/stetho-agent/internal/prompts"
)

var errNoSearcher = errors.New("literature search not configured")

// synthesisNode merges the three interpretations with literature context.
// A failed search is recorded in the literature field and synthesis
// continues without references.
func synthesisNode(rt *Runtime) NodeFunc {
	return func(ctx context.Context, s State) (Update, error) {
		query := BuildSearchQuery(s, rt.ref())
		lit := search(ctx, rt, query)

		prompt := synthesisPrompt(s, literature.FormatForPrompt(lit))
		n := narrate(ctx, rt, NodeSynthesis, prompts.StageSynthesis, "result synthesis", prompt)

		rt.log().InfoContext(ctx, "synthesis node complete",
			"query", query,
			"references", len(lit.References),
			"search_successful", lit.Successful,
			"status", n.Status,
		)

		return Update{Synthesis: n, Literature: lit}, nil
	}
}

// search never returns nil.
func search(ctx context.Context, rt *Runtime, query string) *literature.Result {
	if rt.Searcher == nil {
		return literature.Failed(query, errNoSearcher)
	}

	result, err := rt.Searcher.Search(ctx, query)
	if err != nil {
		rt.log().WarnContext(ctx, "literature search failed, continuing without references", "query", query, "error", err)
		if result == nil || result.Successful {
			result = literature.Failed(query, err)
		}
	}
	if result == nil {
		result = literature.Failed(query, errors.New("search returned no result"))
	}
	return result
}
