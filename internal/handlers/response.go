package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"event-ticketing-manager/internal/models"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Remaining *int              `json:"remaining,omitempty"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind models.ErrorKind) int {
	switch kind {
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindInvalidState:
		return http.StatusConflict
	case models.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err with the status of its kind. Storage failures are
// logged and reported without their cause.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	kind := models.KindOf(err)
	status := statusFor(kind)

	resp := ErrorResponse{
		Code:    models.CodeOf(err),
		Message: err.Error(),
	}

	var valErr *models.ValidationError
	var capErr *models.CapacityError
	switch {
	case errors.As(err, &valErr):
		resp.Fields = valErr.Fields
	case errors.As(err, &capErr):
		remaining := capErr.Remaining
		resp.Remaining = &remaining
	}

	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		resp.Message = "internal server error"
	}

	writeJSON(w, status, resp)
}

// decodeJSON reads a single JSON object into dst. Unknown fields are
// rejected.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &models.ValidationError{Fields: map[string]string{"body": fmt.Sprintf("invalid JSON: %v", err)}}
	}
	return nil
}

// writeFound writes v, or notFound when the lookup came back empty.
func writeFound[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger, v *T, err error, notFound error) {
	switch {
	case err != nil:
		writeError(w, r, logger, err)
	case v == nil:
		writeError(w, r, logger, notFound)
	default:
		writeJSON(w, http.StatusOK, v)
	}
}
