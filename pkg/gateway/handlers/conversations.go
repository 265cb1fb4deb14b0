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

// ConversationsHandler handles /api/conversations, /api/conversations/{id}/messages.
type ConversationsHandler struct {
	Store  *store.Store
	Logger *slog.Logger
}

func (h ConversationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	if h.Store == nil {
		writeCoreErrorJSON(w, reqID, core.NewConfigurationError("persistence is not configured"), http.StatusServiceUnavailable)
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/conversations"), "/")
	parts := strings.Split(rest, "/")

	switch {
	case rest == "" && r.Method == http.MethodPost:
		h.create(w, r, reqID)
	case rest == "" && r.Method == http.MethodGet:
		h.list(w, r, reqID)
	case len(parts) == 2 && parts[1] == "messages" && r.Method == http.MethodGet:
		h.listMessages(w, r, reqID, parts[0])
	case len(parts) == 2 && parts[1] == "messages" && r.Method == http.MethodPost:
		h.appendMessage(w, r, reqID, parts[0])
	default:
		writeCoreErrorJSON(w, reqID, &core.Error{Type: core.ErrInvalidRequest, Message: "method not allowed", Code: "method_not_allowed"}, http.StatusMethodNotAllowed)
	}
}

func (h ConversationsHandler) create(w http.ResponseWriter, r *http.Request, reqID string) {
	var body struct {
		AgentID string `json:"agentId"`
		Title   string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeCoreErrorJSON(w, reqID, core.NewInvalidRequestError("request body is not valid JSON"), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.AgentID) == "" {
		writeCoreErrorJSON(w, reqID, core.NewInvalidRequestErrorWithParam("agentId is required", "agentId"), http.StatusBadRequest)
		return
	}

	conversation, err := h.Store.CreateConversation(r.Context(), body.AgentID, body.Title)
	if err != nil {
		h.writeErr(w, reqID, err)
		return
	}
	writeJSON(w, http.StatusCreated, conversation)
}

func (h ConversationsHandler) list(w http.ResponseWriter, r *http.Request, reqID string) {
	agentID := strings.TrimSpace(r.URL.Query().Get("agent"))
	if agentID == "" {
		writeCoreErrorJSON(w, reqID, core.NewInvalidRequestErrorWithParam("agent query parameter is required", "agent"), http.StatusBadRequest)
		return
	}
	conversations, err := h.Store.ListConversations(r.Context(), agentID)
	if err != nil {
		h.writeErr(w, reqID, err)
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}

func (h ConversationsHandler) listMessages(w http.ResponseWriter, r *http.Request, reqID, conversationID string) {
	messages, err := h.Store.ListMessages(r.Context(), conversationID)
	if err != nil {
		h.writeErr(w, reqID, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h ConversationsHandler) appendMessage(w http.ResponseWriter, r *http.Request, reqID, conversationID string) {
	var body struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeCoreErrorJSON(w, reqID, core.NewInvalidRequestError("request body is not valid JSON"), http.StatusBadRequest)
		return
	}
	role := types.Role(body.Role)
	if role != types.RoleUser && role != types.RoleAssistant {
		writeCoreErrorJSON(w, reqID, core.NewInvalidRequestErrorWithParam("role must be user or assistant", "role"), http.StatusBadRequest)
		return
	}

	message, err := h.Store.AppendMessage(r.Context(), conversationID, role, body.Content)
	if err != nil {
		h.writeErr(w, reqID, err)
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

func (h ConversationsHandler) writeErr(w http.ResponseWriter, reqID string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeCoreErrorJSON(w, reqID, &core.Error{Type: core.ErrNotFound, Message: "conversation not found"}, http.StatusNotFound)
		return
	}
	if h.Logger != nil {
		h.Logger.Error("conversation store error", "request_id", reqID, "error", err)
	}
	coreErr, status := statusFor(err)
	writeCoreErrorJSON(w, reqID, coreErr, status)
}
