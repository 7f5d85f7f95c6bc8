// Package openapi builds OpenAPI 3.1 documents from route metadata.
package openapi

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"slices"
	"strconv"
)

const Version = "3.1.0"

// Spec is an OpenAPI document. Paths and Components are always non-nil
// once built by NewSpec.
type Spec struct {
	OpenAPI    string               `json:"openapi"`
	Info       *Info                `json:"info"`
	Servers    []*Server            `json:"servers,omitempty"`
	Tags       []*Tag               `json:"tags,omitempty"`
	Paths      map[string]*PathItem `json:"paths"`
	Components *Components          `json:"components,omitempty"`
}

func NewSpec(title, version string) *Spec {
	return &Spec{
		OpenAPI:    Version,
		Info:       &Info{Title: title, Version: version},
		Paths:      map[string]*PathItem{},
		Components: NewComponents(),
	}
}

func (s *Spec) AddServer(url string) {
	s.Servers = append(s.Servers, &Server{URL: url})
}

// AddTag declares a tag. The first declaration of a name wins.
func (s *Spec) AddTag(name, description string) {
	exists := slices.ContainsFunc(s.Tags, func(t *Tag) bool { return t.Name == name })
	if !exists {
		s.Tags = append(s.Tags, &Tag{Name: name, Description: description})
	}
}

func (s *Spec) SetDescription(desc string) {
	s.Info.Description = desc
}

// ServeSpec serves a document rendered once at startup. Clients that send
// back the ETag get 304 Not Modified.
func ServeSpec(doc []byte, contentType string) http.HandlerFunc {
	sum := sha256.Sum256(doc)
	etag := `"` + hex.EncodeToString(sum[:8]) + `"`
	length := strconv.Itoa(len(doc))

	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("ETag", etag)
		h.Set("Cache-Control", "no-cache")

		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		h.Set("Content-Type", contentType)
		h.Set("Content-Length", length)
		w.WriteHeader(http.StatusOK)
		w.Write(doc)
	}
}
