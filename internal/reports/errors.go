package reports

import (
	"errors"
	"net/http"

	"github.com/one2ten/stetho-agent/internal/classifier"
	"github.com/one2ten/stetho-agent/internal/triage"
	"github.com/one2ten/stetho-agent/pkg/repository"
	"github.com/one2ten/stetho-agent/pkg/storage"
)

// Domain errors for report operations.
var (
	ErrNotFound         = errors.New("report not found")
	ErrDuplicate        = errors.New("report already exists")
	ErrInvalidRequest   = errors.New("invalid report request")
	ErrFileTooLarge     = errors.New("file exceeds maximum upload size")
	ErrInvalidRecording = errors.New("invalid recording")
	ErrNoRecording      = errors.New("report has no recording")
)

var dbErrors = repository.ErrorMap{
	NotFound:  ErrNotFound,
	Duplicate: ErrDuplicate,
	Invalid:   ErrInvalidRequest,
}

// MapHTTPStatus maps report, triage, and collaborator errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoRecording), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrInvalidRecording):
		return http.StatusBadRequest
	case errors.Is(err, classifier.ErrClassificationFailed):
		return http.StatusBadGateway
	case errors.Is(err, classifier.ErrNotConfigured):
		return http.StatusServiceUnavailable
	}
	return triage.MapHTTPStatus(err)
}
