package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/parley-ai/parley/pkg/core"
)

type errorEnvelope struct {
	Error *core.Error `json:"error"`
}

func writeCoreErrorJSON(w http.ResponseWriter, reqID string, coreErr *core.Error, status int) {
	if coreErr != nil && coreErr.RequestID == "" {
		coreErr.RequestID = reqID
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: coreErr})
}

// statusFor maps an error to the canonical shape and HTTP status for
// pre-stream failures.
func statusFor(err error) (*core.Error, int) {
	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		coreErr = &core.Error{Type: core.ErrAPI, Message: err.Error()}
	}
	switch coreErr.Type {
	case core.ErrInvalidRequest, core.ErrConfiguration:
		return coreErr, http.StatusBadRequest
	case core.ErrNotFound:
		return coreErr, http.StatusNotFound
	case core.ErrAuthentication:
		return coreErr, http.StatusUnauthorized
	default:
		return coreErr, http.StatusInternalServerError
	}
}
