package triage

import (
	"fmt"
	"slices"
)

// RiskRouter selects the node that follows risk scoring from a table keyed
// by risk level.
type RiskRouter struct {
	table map[RiskLevel]NodeID
}

// NewRiskRouter creates a router over table. Every risk level must have an entry.
func NewRiskRouter(table map[RiskLevel]NodeID) (*RiskRouter, error) {
	for _, level := range RiskLevels {
		if _, ok := table[level]; !ok {
			return nil, fmt.Errorf("%w: no route for risk level %s", ErrInvalidGraph, level)
		}
	}
	return &RiskRouter{table: table}, nil
}

// DefaultRoutes sends every risk level to the recommendation node.
func DefaultRoutes() map[RiskLevel]NodeID {
	return map[RiskLevel]NodeID{
		RiskLow:      NodeRecommendation,
		RiskModerate: NodeRecommendation,
		RiskHigh:     NodeRecommendation,
		RiskCritical: NodeRecommendation,
	}
}

// Route reads only the risk level.
func (r *RiskRouter) Route(s State) (NodeID, error) {
	if s.Risk == nil {
		return "", fmt.Errorf("%w: risk assessment missing", ErrNoRoute)
	}
	next, ok := r.table[s.Risk.Level]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNoRoute, s.Risk.Level)
	}
	return next, nil
}

// Targets returns the distinct destinations in the table, sorted.
func (r *RiskRouter) Targets() []NodeID {
	var out []NodeID
	for _, id := range r.table {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}
