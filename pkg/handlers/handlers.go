// Package handlers writes the JSON bodies shared by every HTTP handler.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorBody is the JSON shape of every error response. RequestID echoes
// the X-Request-ID response header when the request carries one.
type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError logs err at error level for 5xx and warn otherwise, then
// writes it as an ErrorBody.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	body := ErrorBody{
		Error:     err.Error(),
		RequestID: w.Header().Get("X-Request-ID"),
	}

	level, msg := slog.LevelWarn, "request rejected"
	if status >= http.StatusInternalServerError {
		level, msg = slog.LevelError, "request failed"
	}
	logger.Log(context.Background(), level, msg, "status", status, "error", err, "request_id", body.RequestID)

	RespondJSON(w, status, body)
}
