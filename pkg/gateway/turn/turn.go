package turn

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/parley-ai/parley/pkg/core"
	"github.com/parley-ai/parley/pkg/core/completion"
	"github.com/parley-ai/parley/pkg/core/types"
	"github.com/parley-ai/parley/pkg/core/voice/stt"
	"github.com/parley-ai/parley/pkg/core/voice/tts"
	"github.com/parley-ai/parley/pkg/gateway/tools"
)

// Input is one user turn as received by the gateway.
type Input struct {
	// Text is the typed user message. When non-blank it is used verbatim
	// (trimmed) and Audio is ignored.
	Text string

	// Audio is the recorded user message. Consumed at most once.
	Audio io.Reader

	// AudioFormat is the file-extension hint for Audio (wav, webm, ...).
	AudioFormat string

	Agent   types.AgentProfile
	History []types.Message
}

// Orchestrator runs the four-phase turn pipeline and fans every observable
// moment out to the event sink. All collaborators are interfaces so tests
// substitute fakes.
type Orchestrator struct {
	Completion    completion.Service
	Transcriber   stt.Provider
	Speech        tts.Dialer
	Tools         *tools.Builder
	Logger        *slog.Logger
	MaxToolRounds int

	// ASRModel overrides the transcriber's default model when set.
	ASRModel string
}

// Run executes one turn. Every call writes exactly one terminal event to the
// sink: done on success, error on failure. The returned error mirrors the
// error event for the caller's log line; it is nil on success.
func (o *Orchestrator) Run(ctx context.Context, sink EventSink, in Input) error {
	logger := o.logger()
	tracker := NewTracker(sink)

	fail := func(stage types.Stage, err error) error {
		tracker.Fail(stage)
		tracker.Abort()
		_ = sink.Send(types.NewErrorEvent(errorMessage(err)))
		return err
	}

	// Phase 1: resolve the user transcript.
	tracker.Start(types.StageTranscription)
	transcript, err := o.resolveTranscript(ctx, in)
	if err != nil {
		return fail(types.StageTranscription, err)
	}
	tracker.Success(types.StageTranscription)
	_ = sink.Send(types.NewTranscriptEvent(transcript))

	// Phase 2: build the tool catalog and resolve tool calls.
	messages := seedMessages(in.Agent, in.History, transcript)

	tracker.Start(types.StageTools)
	registry := tools.NewRegistry()
	if o.Tools != nil {
		registry = o.Tools.Build(ctx, in.Agent)
	}
	if registry.Len() > 0 {
		loop := &toolLoop{
			completion: o.Completion,
			registry:   registry,
			sink:       sink,
			logger:     logger,
			maxRounds:  o.MaxToolRounds,
		}
		messages, err = loop.resolve(ctx, in.Agent.Model, in.Agent.Temperature, messages)
		if err != nil {
			return fail(types.StageTools, err)
		}
	}
	tracker.Success(types.StageTools)

	// Phase 3 and 4 overlap: generation streams text while the speech
	// session synthesizes it. The session is opened first so segments can
	// be transmitted as soon as they are cut.
	tracker.Start(types.StageSpeech)
	session, err := o.Speech.OpenSession(ctx, tts.SessionOptions{Voice: in.Agent.VoiceID})
	if err != nil {
		return fail(types.StageSpeech, core.NewStageError(core.CodeSpeechFailed, "speech session could not be opened: "+err.Error()))
	}
	defer session.Close()

	// Second producer: forward synthesized audio to the sink as it arrives.
	var forwarders sync.WaitGroup
	forwarders.Add(1)
	go func() {
		defer forwarders.Done()
		for chunk := range session.Chunks() {
			_ = sink.Send(types.NewAudioEvent(base64.StdEncoding.EncodeToString(chunk)))
		}
	}()

	tracker.Start(types.StageGeneration)
	_, err = streamReply(ctx, o.Completion, &completion.Request{
		Model:       in.Agent.Model,
		Temperature: in.Agent.Temperature,
		Messages:    messages,
	}, sink, session, logger)
	if err != nil {
		session.Close()
		forwarders.Wait()
		return fail(types.StageGeneration, core.NewStageError(core.CodeGenerationFailed, "generation failed: "+err.Error()))
	}
	tracker.Success(types.StageGeneration)

	// A synthesis error at this point cannot retract the reply: the text has
	// already streamed. Log it and finish the turn; only the caller going
	// away aborts.
	if err := session.Wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			session.Close()
			forwarders.Wait()
			return fail(types.StageSpeech, core.NewStageError(core.CodeSpeechFailed, "speech synthesis aborted: "+err.Error()))
		}
		logger.Warn("speech synthesis ended with error", "error", err)
	}
	session.Close()
	forwarders.Wait()
	tracker.Success(types.StageSpeech)

	_ = sink.Send(types.NewDoneEvent())
	return nil
}

// resolveTranscript returns the user's words for this turn. Typed text wins
// over audio and is never sent to the transcriber.
func (o *Orchestrator) resolveTranscript(ctx context.Context, in Input) (string, error) {
	if text := strings.TrimSpace(in.Text); text != "" {
		return text, nil
	}
	if in.Audio == nil {
		return "", core.NewStageError(core.CodeEmptyAudio, "no speech detected in audio")
	}
	result, err := o.Transcriber.Transcribe(ctx, in.Audio, stt.TranscribeOptions{Model: o.ASRModel, Format: in.AudioFormat})
	if err != nil {
		return "", core.NewStageError(core.CodeTranscriptionFailed, "transcription failed: "+err.Error())
	}
	transcript := strings.TrimSpace(result.Text)
	if transcript == "" {
		return "", core.NewStageError(core.CodeEmptyAudio, "no speech detected in audio")
	}
	return transcript, nil
}

func seedMessages(agent types.AgentProfile, history []types.Message, transcript string) []types.Message {
	messages := make([]types.Message, 0, len(history)+2)
	messages = append(messages, types.Message{Role: types.RoleSystem, Content: agent.SystemInstructions})
	messages = append(messages, history...)
	messages = append(messages, types.Message{Role: types.RoleUser, Content: transcript})
	return messages
}

func (o *Orchestrator) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// errorMessage extracts the human-readable message for the error event.
func errorMessage(err error) string {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return coreErr.Message
	}
	return err.Error()
}
