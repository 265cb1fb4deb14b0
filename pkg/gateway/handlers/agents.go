package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/parley-ai/parley/pkg/core"
	"github.com/parley-ai/parley/pkg/core/types"
	"github.com/parley-ai/parley/pkg/gateway/mw"
	"github.com/parley-ai/parley/pkg/gateway/store"
)

// AgentsHandler handles /api/agents and /api/agents/{id}.
type AgentsHandler struct {
	Store  *store.Store
	Logger *slog.Logger
}

func (h AgentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	if h.Store == nil {
		writeCoreErrorJSON(w, reqID, core.NewConfigurationError("persistence is not configured"), http.StatusServiceUnavailable)
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/agents"), "/")
	switch {
	case id == "" && r.Method == http.MethodGet:
		h.list(w, r, reqID)
	case id == "" && r.Method == http.MethodPost:
		h.create(w, r, reqID)
	case id != "" && r.Method == http.MethodGet:
		h.get(w, r, reqID, id)
	case id != "" && r.Method == http.MethodPut:
		h.update(w, r, reqID, id)
	case id != "" && r.Method == http.MethodDelete:
		h.delete(w, r, reqID, id)
	default:
		writeCoreErrorJSON(w, reqID, &core.Error{Type: core.ErrInvalidRequest, Message: "method not allowed", Code: "method_not_allowed"}, http.StatusMethodNotAllowed)
	}
}

func (h AgentsHandler) list(w http.ResponseWriter, r *http.Request, reqID string) {
	agents, err := h.Store.ListAgents(r.Context())
	if err != nil {
		h.writeErr(w, reqID, err)
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

func (h AgentsHandler) create(w http.ResponseWriter, r *http.Request, reqID string) {
	profile, ok := h.decodeProfile(w, r, reqID)
	if !ok {
		return
	}
	agent, err := h.Store.CreateAgent(r.Context(), profile)
	if err != nil {
		h.writeErr(w, reqID, err)
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

func (h AgentsHandler) get(w http.ResponseWriter, r *http.Request, reqID, id string) {
	agent, err := h.Store.GetAgent(r.Context(), id)
	if err != nil {
		h.writeErr(w, reqID, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (h AgentsHandler) update(w http.ResponseWriter, r *http.Request, reqID, id string) {
	profile, ok := h.decodeProfile(w, r, reqID)
	if !ok {
		return
	}
	agent, err := h.Store.UpdateAgent(r.Context(), id, profile)
	if err != nil {
		h.writeErr(w, reqID, err)
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

func (h AgentsHandler) delete(w http.ResponseWriter, r *http.Request, reqID, id string) {
	if err := h.Store.DeleteAgent(r.Context(), id); err != nil {
		h.writeErr(w, reqID, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h AgentsHandler) decodeProfile(w http.ResponseWriter, r *http.Request, reqID string) (types.AgentProfile, bool) {
	var profile types.AgentProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeCoreErrorJSON(w, reqID, core.NewInvalidRequestError("agent profile is not valid JSON"), http.StatusBadRequest)
		return types.AgentProfile{}, false
	}
	if err := profile.Validate(); err != nil {
		writeCoreErrorJSON(w, reqID, core.NewInvalidRequestErrorWithParam(err.Error(), "systemInstructions"), http.StatusBadRequest)
		return types.AgentProfile{}, false
	}
	return profile, true
}

func (h AgentsHandler) writeErr(w http.ResponseWriter, reqID string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeCoreErrorJSON(w, reqID, &core.Error{Type: core.ErrNotFound, Message: "agent not found"}, http.StatusNotFound)
		return
	}
	if h.Logger != nil {
		h.Logger.Error("agent store error", "request_id", reqID, "error", err)
	}
	coreErr, status := statusFor(err)
	writeCoreErrorJSON(w, reqID, coreErr, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
