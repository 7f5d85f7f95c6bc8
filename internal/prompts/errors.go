package prompts

import (
	"errors"
	"net/http"

	"github.com/one2ten/stetho-agent/pkg/repository"
)

var (
	ErrNotFound     = errors.New("prompt not found")
	ErrDuplicate    = errors.New("prompt name already exists")
	ErrInvalidStage = errors.New("unknown triage stage")
	ErrEmpty        = errors.New("prompt instructions are empty")
	ErrNameRequired = errors.New("prompt name is required")
	ErrInvalidID    = errors.New("invalid prompt id")
	ErrInvalidBody  = errors.New("invalid request body")
)

// The stage check constraint is the only one a well-formed insert can trip.
var dbErrors = repository.ErrorMap{
	NotFound:  ErrNotFound,
	Duplicate: ErrDuplicate,
	Invalid:   ErrInvalidStage,
}

// MapHTTPStatus maps prompt errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidStage),
		errors.Is(err, ErrEmpty),
		errors.Is(err, ErrNameRequired),
		errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrInvalidBody):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
