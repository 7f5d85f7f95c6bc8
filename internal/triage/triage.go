// Package triage runs the clinical triage graph. Normalized input fans out
// to three interpretation nodes that run concurrently, their narratives are
// synthesized with literature context, a deterministic scorer assigns a
// risk level, and a table-driven router hands off to the recommendation
// node. Collaborator failures degrade individual narratives; only a node
// crash or cancellation aborts a run.
package triage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var errIncomplete = errors.New("run finished with missing fields")

// Execute runs the triage graph once from initial and returns the final
// state. Every field except the audio classification is present in the
// returned state.
func Execute(ctx context.Context, rt *Runtime, initial State) (State, error) {
	if rt == nil || rt.Generator == nil {
		return State{}, fmt.Errorf("%w: runtime has no generator", ErrInvalidGraph)
	}

	runID := uuid.New()
	scoped := *rt
	scoped.Logger = rt.log().With("run_id", runID)

	graph, err := buildGraph(&scoped, DefaultRoutes())
	if err != nil {
		return State{}, fmt.Errorf("build graph: %w", err)
	}

	start := time.Now()
	final, err := graph.Execute(ctx, initial)
	if err != nil {
		scoped.Logger.ErrorContext(ctx, "triage run failed", "error", err)
		return State{}, err
	}

	if !final.Complete() {
		return State{}, fmt.Errorf("%w: %w", ErrInvalidGraph, errIncomplete)
	}

	scoped.Logger.InfoContext(ctx, "triage run complete",
		"risk_level", final.Risk.Level,
		"score", final.Risk.Score,
		"duration", time.Since(start),
	)

	return final, nil
}

// Run validates in, executes the graph, and projects the final state into a report.
func Run(ctx context.Context, rt *Runtime, in Input) (*Report, error) {
	if rt == nil {
		return nil, fmt.Errorf("%w: nil runtime", ErrInvalidGraph)
	}

	if err := Validate(ctx, in, rt.ref()); err != nil {
		return nil, err
	}

	if rt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rt.Timeout)
		defer cancel()
	}

	final, err := Execute(ctx, rt, NewState(in))
	if err != nil {
		return nil, err
	}

	return NewReport(final, time.Now().UTC()), nil
}
