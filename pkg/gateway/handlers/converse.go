package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/parley-ai/parley/pkg/core"
	"github.com/parley-ai/parley/pkg/core/types"
	"github.com/parley-ai/parley/pkg/gateway/config"
	"github.com/parley-ai/parley/pkg/gateway/mw"
	"github.com/parley-ai/parley/pkg/gateway/ndjson"
	"github.com/parley-ai/parley/pkg/gateway/store"
	"github.com/parley-ai/parley/pkg/gateway/turn"
)

const multipartMemoryLimit = 8 << 20

// ConverseHandler handles POST /api/converse: one multipart turn request in,
// one ndjson event stream out. Every request-shape problem is rejected with
// a JSON error before the stream starts; once streaming begins, failures
// travel as error events.
type ConverseHandler struct {
	Config       config.Config
	Orchestrator *turn.Orchestrator
	Store        *store.Store // nil disables persistence
	Logger       *slog.Logger
}

func (h ConverseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	if r.Method != http.MethodPost {
		writeCoreErrorJSON(w, reqID, &core.Error{Type: core.ErrInvalidRequest, Message: "method not allowed", Code: "method_not_allowed"}, http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxBodyBytes)
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		writeCoreErrorJSON(w, reqID, core.NewInvalidRequestError("malformed multipart form"), http.StatusBadRequest)
		return
	}

	profile, err := h.decodeAgent(r.FormValue("agent"))
	if err != nil {
		coreErr, status := statusFor(err)
		writeCoreErrorJSON(w, reqID, coreErr, status)
		return
	}

	history, err := decodeHistory(r.MultipartForm.Value["message"])
	if err != nil {
		coreErr, status := statusFor(err)
		writeCoreErrorJSON(w, reqID, coreErr, status)
		return
	}

	conversationID := strings.TrimSpace(r.FormValue("conversationId"))
	if conversationID != "" {
		if h.Store == nil {
			writeCoreErrorJSON(w, reqID, core.NewInvalidRequestErrorWithParam("persistence is not configured", "conversationId"), http.StatusBadRequest)
			return
		}
		if len(history) == 0 {
			stored, err := h.Store.ListMessages(r.Context(), conversationID)
			if err != nil {
				coreErr, status := statusFor(err)
				writeCoreErrorJSON(w, reqID, coreErr, status)
				return
			}
			history = store.History(stored)
		}
	}

	in := turn.Input{Agent: profile, History: history}
	if file, header, err := r.FormFile("input"); err == nil {
		defer file.Close()
		in.Audio = file
		in.AudioFormat = audioFormat(header.Filename)
	} else {
		in.Text = r.FormValue("input")
		if strings.TrimSpace(in.Text) == "" {
			writeCoreErrorJSON(w, reqID, core.NewInvalidRequestErrorWithParam("input must be a text field or an audio file", "input"), http.StatusBadRequest)
			return
		}
	}

	writer, err := ndjson.New(w)
	if err != nil {
		writeCoreErrorJSON(w, reqID, &core.Error{Type: core.ErrAPI, Message: "streaming is not supported by this connection"}, http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Config.TurnTimeout)
	defer cancel()

	rec := &recordingSink{inner: writer}
	if err := h.Orchestrator.Run(ctx, rec, in); err != nil {
		h.logger().Error("turn failed", "request_id", reqID, "error", err)
		return
	}

	if conversationID != "" && h.Store != nil {
		h.persistTurn(conversationID, rec)
	}
}

// persistTurn appends the resolved transcript and the assistant reply to the
// conversation. Persistence failures are logged, not surfaced; the stream
// has already completed.
func (h ConverseHandler) persistTurn(conversationID string, rec *recordingSink) {
	ctx, cancel := context.WithTimeout(context.Background(), h.Config.TurnTimeout)
	defer cancel()

	if rec.transcript != "" {
		if _, err := h.Store.AppendMessage(ctx, conversationID, types.RoleUser, rec.transcript); err != nil {
			h.logger().Error("persist user message failed", "conversation_id", conversationID, "error", err)
			return
		}
	}
	if rec.finalText != "" {
		if _, err := h.Store.AppendMessage(ctx, conversationID, types.RoleAssistant, rec.finalText); err != nil {
			h.logger().Error("persist assistant message failed", "conversation_id", conversationID, "error", err)
		}
	}
}

func (h ConverseHandler) decodeAgent(raw string) (types.AgentProfile, error) {
	if strings.TrimSpace(raw) == "" {
		return types.AgentProfile{}, core.NewInvalidRequestErrorWithParam("agent profile is required", "agent")
	}

	var aux struct {
		Name               string                   `json:"name"`
		Model              string                   `json:"model"`
		Temperature        *float64                 `json:"temperature"`
		VoiceID            string                   `json:"voiceId"`
		SystemInstructions string                   `json:"systemInstructions"`
		KnowledgeSource    string                   `json:"knowledgeSource"`
		RemoteTools        []types.RemoteToolServer `json:"remoteTools"`
	}
	if err := json.Unmarshal([]byte(raw), &aux); err != nil {
		return types.AgentProfile{}, core.NewInvalidRequestErrorWithParam("agent profile is not valid JSON", "agent")
	}

	profile := types.AgentProfile{
		Name:               aux.Name,
		Model:              aux.Model,
		VoiceID:            aux.VoiceID,
		SystemInstructions: aux.SystemInstructions,
		KnowledgeSource:    aux.KnowledgeSource,
		RemoteTools:        aux.RemoteTools,
		Temperature:        h.Config.DefaultTemperature,
	}
	if aux.Temperature != nil {
		profile.Temperature = *aux.Temperature
	}
	if profile.Model == "" {
		profile.Model = h.Config.DefaultModel
	}
	if profile.VoiceID == "" {
		profile.VoiceID = h.Config.DefaultVoiceID
	}

	if err := profile.Validate(); err != nil {
		return types.AgentProfile{}, core.NewConfigurationError(err.Error())
	}
	return profile, nil
}

func decodeHistory(raw []string) ([]types.Message, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	history := make([]types.Message, 0, len(raw))
	for i, entry := range raw {
		var msg struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		}
		if err := json.Unmarshal([]byte(entry), &msg); err != nil {
			return nil, core.NewInvalidRequestErrorWithParam("message is not valid JSON", fmt.Sprintf("message[%d]", i))
		}
		role := types.Role(msg.Role)
		if role != types.RoleUser && role != types.RoleAssistant {
			return nil, core.NewInvalidRequestErrorWithParam("message role must be user or assistant", fmt.Sprintf("message[%d].role", i))
		}
		history = append(history, types.Message{Role: role, Content: msg.Content})
	}
	return history, nil
}

func audioFormat(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return "webm"
	}
	return ext
}

func (h ConverseHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// recordingSink tees events to the ndjson writer while capturing the
// transcript and final text for persistence.
type recordingSink struct {
	inner      turn.EventSink
	transcript string
	finalText  string
}

func (s *recordingSink) Send(ev types.StreamEvent) error {
	switch e := ev.(type) {
	case types.TranscriptEvent:
		s.transcript = e.Text
	case types.TextFinalEvent:
		s.finalText = e.Text
	}
	return s.inner.Send(ev)
}
