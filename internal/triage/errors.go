package triage

import (
	"errors"
	"fmt"
	"net/http"
)

// Run-level errors. Collaborator failures never surface here; they are
// absorbed by the nodes as degraded narratives.
var (
	ErrInvalidInput  = errors.New("invalid triage input")
	ErrNodeCrashed   = errors.New("node crashed")
	ErrFieldConflict = errors.New("state field written twice")
	ErrNoRoute       = errors.New("no route for risk level")
	ErrInvalidGraph  = errors.New("invalid graph")
	ErrRunAborted    = errors.New("run aborted")
)

// NodeError identifies the node a fatal run error originated in.
type NodeError struct {
	Node NodeID
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// MapHTTPStatus maps run errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidInput) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrRunAborted) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
