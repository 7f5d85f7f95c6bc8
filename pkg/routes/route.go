// Package routes registers handler groups on a ServeMux and describes the
// documented ones in an OpenAPI document.
package routes

import (
	"net/http"

	"github.com/one2ten/stetho-agent/pkg/openapi"
)

// Route is one method and path pattern. Routes with a nil OpenAPI are
// served but left out of the document.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	OpenAPI *openapi.Operation
}

// muxPattern is the ServeMux pattern for r beneath prefix.
func (r Route) muxPattern(prefix string) string {
	return r.Method + " " + prefix + r.Pattern
}
