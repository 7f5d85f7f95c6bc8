package prompts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/one2ten/stetho-agent/pkg/handlers"
	"github.com/one2ten/stetho-agent/pkg/pagination"
	"github.com/one2ten/stetho-agent/pkg/routes"
)

// Handler serves prompt overrides and the per-stage prompt text.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest is the body of POST /prompts/search.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// StageContent is the body returned for a stage's instructions or spec.
type StageContent struct {
	Stage   Stage  `json:"stage"`
	Content string `json:"content"`
}

func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "prompts"),
		pagination: pagination,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix:  "/prompts",
		Tags:    []string{"Prompts"},
		Schemas: OpenAPI.Schemas,
		Routes: []routes.Route{
			{Method: http.MethodGet, Pattern: "", Handler: h.List, OpenAPI: OpenAPI.List},
			{Method: http.MethodPost, Pattern: "", Handler: h.Create, OpenAPI: OpenAPI.Create},
			{Method: http.MethodPost, Pattern: "/search", Handler: h.Search, OpenAPI: OpenAPI.Search},
			{Method: http.MethodGet, Pattern: "/stages", Handler: h.Stages, OpenAPI: OpenAPI.Stages},
			{Method: http.MethodGet, Pattern: "/{stage}/instructions", Handler: h.Instructions, OpenAPI: OpenAPI.Instructions},
			{Method: http.MethodGet, Pattern: "/{stage}/spec", Handler: h.Spec, OpenAPI: OpenAPI.Spec},
			{Method: http.MethodGet, Pattern: "/{id}", Handler: h.Find, OpenAPI: OpenAPI.Find},
			{Method: http.MethodPut, Pattern: "/{id}", Handler: h.Update, OpenAPI: OpenAPI.Update},
			{Method: http.MethodDelete, Pattern: "/{id}", Handler: h.Delete, OpenAPI: OpenAPI.Delete},
			{Method: http.MethodPost, Pattern: "/{id}/activate", Handler: h.Activate, OpenAPI: OpenAPI.Activate},
			{Method: http.MethodPost, Pattern: "/{id}/deactivate", Handler: h.Deactivate, OpenAPI: OpenAPI.Deactivate},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.sys.List(r.Context(), pagination.PageRequestFromQuery(q, h.pagination), FiltersFromQuery(q))
	h.respond(w, http.StatusOK, result, err)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !h.decode(w, r, &req) {
		return
	}
	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filters)
	h.respond(w, http.StatusOK, result, err)
}

func (h *Handler) Stages(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, Stages())
}

// Instructions returns the stage's active override, or its built-in text
// when none is active.
func (h *Handler) Instructions(w http.ResponseWriter, r *http.Request) {
	h.stageContent(w, r, h.sys.Instructions)
}

// Spec returns the output constraints appended after a stage's instructions.
func (h *Handler) Spec(w http.ResponseWriter, r *http.Request) {
	h.stageContent(w, r, h.sys.Spec)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	prompt, err := h.sys.Find(r.Context(), id)
	h.respond(w, http.StatusOK, prompt, err)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var cmd CreateCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	prompt, err := h.sys.Create(r.Context(), cmd)
	h.respond(w, http.StatusCreated, prompt, err)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var cmd UpdateCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	prompt, err := h.sys.Update(r.Context(), id, cmd)
	h.respond(w, http.StatusOK, prompt, err)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Activate makes the prompt its stage's override. Any other active prompt
// for the stage is deactivated in the same transaction.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.sys.Activate)
}

// Deactivate returns the prompt's stage to its built-in instructions.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.sys.Deactivate)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID) (*Prompt, error)) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	prompt, err := fn(r.Context(), id)
	h.respond(w, http.StatusOK, prompt, err)
}

func (h *Handler) stageContent(w http.ResponseWriter, r *http.Request, fn func(context.Context, Stage) (string, error)) {
	stage, err := ParseStage(r.PathValue("stage"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}
	text, err := fn(r.Context(), stage)
	h.respond(w, http.StatusOK, StageContent{Stage: stage, Content: text}, err)
}

func (h *Handler) respond(w http.ResponseWriter, status int, v any, err error) {
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, status, v)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %q", ErrInvalidID, r.PathValue("id")))
		return uuid.Nil, false
	}
	return id, true
}

// decode reads a JSON body into v. A stage the body names but the service
// does not know is reported as such rather than as malformed JSON.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	if !errors.Is(err, ErrInvalidStage) {
		err = fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}
	handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
	return false
}
