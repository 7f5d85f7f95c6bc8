package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

// NodeID names a node in the graph.
type NodeID string

// NodeFunc computes a partial update from a snapshot of the state.
// A returned error means the node crashed and is fatal to the run;
// recoverable failures belong in the update as degraded narratives.
type NodeFunc func(ctx context.Context, s State) (Update, error)

// Router picks the next node from the state after its source node completes.
type Router interface {
	Route(s State) (NodeID, error)
	// Targets lists every node the router can return.
	Targets() []NodeID
}

// Graph is a directed acyclic graph of nodes with static edges and at most
// one conditional edge per node. Nodes whose predecessors all completed run
// together as one level; nodes within a level run concurrently against the
// same snapshot and their updates are merged in declaration order once the
// whole level has finished.
type Graph struct {
	order   []NodeID
	nodes   map[NodeID]NodeFunc
	edges   map[NodeID][]NodeID
	preds   map[NodeID][]NodeID
	routers map[NodeID]Router
	entry   NodeID
	logger  *slog.Logger
}

// NewGraph creates an empty graph.
func NewGraph(logger *slog.Logger) *Graph {
	return &Graph{
		nodes:   make(map[NodeID]NodeFunc),
		edges:   make(map[NodeID][]NodeID),
		preds:   make(map[NodeID][]NodeID),
		routers: make(map[NodeID]Router),
		logger:  logger,
	}
}

// AddNode registers fn under id.
func (g *Graph) AddNode(id NodeID, fn NodeFunc) error {
	if fn == nil {
		return fmt.Errorf("%w: node %s has no function", ErrInvalidGraph, id)
	}
	if _, ok := g.nodes[id]; ok {
		return fmt.Errorf("%w: duplicate node %s", ErrInvalidGraph, id)
	}
	g.nodes[id] = fn
	g.order = append(g.order, id)
	return nil
}

// AddEdge adds an unconditional edge. to waits for every static predecessor.
func (g *Graph) AddEdge(from, to NodeID) error {
	if err := g.known(from, to); err != nil {
		return err
	}
	if slices.Contains(g.edges[from], to) {
		return fmt.Errorf("%w: duplicate edge %s -> %s", ErrInvalidGraph, from, to)
	}
	g.edges[from] = append(g.edges[from], to)
	g.preds[to] = append(g.preds[to], from)
	return nil
}

// AddConditionalEdge routes from's successor through r.
func (g *Graph) AddConditionalEdge(from NodeID, r Router) error {
	if err := g.known(from); err != nil {
		return err
	}
	if _, ok := g.routers[from]; ok {
		return fmt.Errorf("%w: node %s already has a conditional edge", ErrInvalidGraph, from)
	}
	if err := g.known(r.Targets()...); err != nil {
		return err
	}
	g.routers[from] = r
	return nil
}

// SetEntry marks the node a run starts from.
func (g *Graph) SetEntry(id NodeID) error {
	if err := g.known(id); err != nil {
		return err
	}
	g.entry = id
	return nil
}

// Validate checks that an entry is set, the entry has no predecessors, and
// the graph is acyclic when every router target is treated as an edge.
func (g *Graph) Validate() error {
	if g.entry == "" {
		return fmt.Errorf("%w: entry not set", ErrInvalidGraph)
	}
	if len(g.preds[g.entry]) > 0 {
		return fmt.Errorf("%w: entry %s has predecessors", ErrInvalidGraph, g.entry)
	}

	indegree := make(map[NodeID]int, len(g.nodes))
	for _, id := range g.order {
		for _, to := range g.successors(id) {
			indegree[to]++
		}
	}

	var queue []NodeID
	for _, id := range g.order {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, to := range g.successors(id) {
			indegree[to]--
			if indegree[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	if visited != len(g.nodes) {
		return fmt.Errorf("%w: cycle detected", ErrInvalidGraph)
	}
	return nil
}

// Execute runs the graph once from the entry node and returns the final
// state. Any node crash, merge conflict, routing failure, or cancellation
// between levels ends the run with an error and no state.
func (g *Graph) Execute(ctx context.Context, initial State) (State, error) {
	if g.entry == "" {
		return State{}, fmt.Errorf("%w: entry not set", ErrInvalidGraph)
	}

	state := initial
	remaining := make(map[NodeID]int, len(g.nodes))
	for id, preds := range g.preds {
		remaining[id] = len(preds)
	}
	done := make(map[NodeID]bool, len(g.nodes))
	frontier := []NodeID{g.entry}

	for level := 0; len(frontier) > 0; level++ {
		if err := ctx.Err(); err != nil {
			return State{}, fmt.Errorf("%w before level %d: %w", ErrRunAborted, level, err)
		}

		g.logger.DebugContext(ctx, "dispatching level", "level", level, "nodes", frontier)

		updates, err := g.runLevel(ctx, state, frontier)
		if err != nil {
			return State{}, err
		}

		for i, id := range frontier {
			if state, err = merge(state, id, updates[i]); err != nil {
				g.logger.ErrorContext(ctx, "state merge failed", "node", id, "error", err)
				return State{}, err
			}
			done[id] = true
		}

		next, err := g.advance(state, frontier, remaining, done)
		if err != nil {
			return State{}, err
		}
		frontier = next
	}

	return state, nil
}

// runLevel runs every node in ids concurrently against the same snapshot.
// Siblings are never cancelled when one of them fails.
func (g *Graph) runLevel(ctx context.Context, snapshot State, ids []NodeID) ([]Update, error) {
	updates := make([]Update, len(ids))
	errs := make([]error, len(ids))

	var eg errgroup.Group
	for i, id := range ids {
		eg.Go(func() error {
			updates[i], errs[i] = g.runNode(ctx, id, snapshot)
			return nil
		})
	}
	eg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return updates, nil
}

func (g *Graph) runNode(ctx context.Context, id NodeID, snapshot State) (u Update, err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = &NodeError{Node: id, Err: fmt.Errorf("%w: panic: %v", ErrNodeCrashed, r)}
			g.logger.ErrorContext(ctx, "node panicked",
				"node", id,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	u, err = g.nodes[id](ctx, snapshot)
	if err != nil {
		g.logger.ErrorContext(ctx, "node crashed", "node", id, "error", err)
		return Update{}, &NodeError{Node: id, Err: fmt.Errorf("%w: %w", ErrNodeCrashed, err)}
	}

	g.logger.DebugContext(ctx, "node finished", "node", id, "duration", time.Since(start))
	return u, nil
}

// advance releases successors of the completed level. A static successor is
// ready once all of its predecessors are done; a routed successor is ready
// as soon as it is chosen.
func (g *Graph) advance(state State, completed []NodeID, remaining map[NodeID]int, done map[NodeID]bool) ([]NodeID, error) {
	ready := make(map[NodeID]bool)

	for _, id := range completed {
		for _, to := range g.edges[id] {
			remaining[to]--
			if remaining[to] == 0 {
				ready[to] = true
			}
		}

		r, ok := g.routers[id]
		if !ok {
			continue
		}

		to, err := r.Route(state)
		if err != nil {
			return nil, &NodeError{Node: id, Err: err}
		}
		if _, ok := g.nodes[to]; !ok {
			return nil, &NodeError{Node: id, Err: fmt.Errorf("%w: unknown node %s", ErrNoRoute, to)}
		}
		if remaining[to] > 0 {
			return nil, &NodeError{Node: id, Err: fmt.Errorf("%w: %s still waits on static predecessors", ErrInvalidGraph, to)}
		}
		ready[to] = true
	}

	var next []NodeID
	for _, id := range g.order {
		if !ready[id] {
			continue
		}
		if done[id] {
			return nil, fmt.Errorf("%w: node %s scheduled twice", ErrInvalidGraph, id)
		}
		next = append(next, id)
	}
	return next, nil
}

func (g *Graph) successors(id NodeID) []NodeID {
	out := slices.Clone(g.edges[id])
	if r, ok := g.routers[id]; ok {
		out = append(out, r.Targets()...)
	}
	return out
}

func (g *Graph) known(ids ...NodeID) error {
	for _, id := range ids {
		if _, ok := g.nodes[id]; !ok {
			return fmt.Errorf("%w: unknown node %s", ErrInvalidGraph, id)
		}
	}
	return nil
}
