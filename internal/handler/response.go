package handler

// Every error response has the same shape:
//
//	{"error": "not_found", "message": "video not found with id 12"}
//
// so clients can branch on "error" regardless of the status code.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/lesson-portal/internal/apperror"
)

// maxBodyBytes caps request bodies; the largest legitimate one is a post.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// writeJSON sets headers, then status, then encodes the body. Headers set
// after the first write are silently ignored by net/http.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error onto a status code. Anything that is not an
// *apperror.AppError is a 500 whose details stay in the log.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrInvalidInput):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Field:   appErr.Field,
		})
		return
	}

	if logger != nil {
		logger.Error("request failed", slog.String("error", err.Error()))
	}
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads one JSON object into dst. Unknown fields are rejected so
// typos in a patch do not silently do nothing.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperror.InvalidInput("body", "request body is empty")
		case errors.As(err, &maxErr):
			return apperror.InvalidInput("body", fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
		default:
			return apperror.InvalidInput("body", "invalid JSON: "+err.Error())
		}
	}
	if dec.More() {
		return apperror.InvalidInput("body", "request body must hold a single JSON object")
	}
	return nil
}

// parseID reads the {id} URL parameter.
func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.InvalidInput("id", fmt.Sprintf("invalid id %q", raw))
	}
	return id, nil
}

// LockRecorder counts gated items. *metrics.Recorder satisfies it.
type LockRecorder interface {
	RecordLocked(kind string, n int)
}

type nopLocks struct{}

func (nopLocks) RecordLocked(string, int) {}

func orNop(m LockRecorder) LockRecorder {
	if m == nil {
		return nopLocks{}
	}
	return m
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
