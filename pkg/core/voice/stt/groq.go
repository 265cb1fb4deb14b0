package stt

import (
	"context"
	"fmt"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	groqBaseURL      = "https://api.groq.com/openai/v1"
	defaultASRModel  = "whisper-large-v3-turbo"
	defaultASRFormat = "wav"
)

// GroqProvider implements the STT Provider interface using Groq's
// OpenAI-compatible audio transcription endpoint.
type GroqProvider struct {
	client openai.Client
}

// NewGroq creates a new Groq STT provider.
func NewGroq(apiKey string) *GroqProvider {
	return &GroqProvider{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(groqBaseURL),
		),
	}
}

// Name returns the provider identifier.
func (p *GroqProvider) Name() string {
	return "groq"
}

// Transcribe converts audio to text using Whisper on Groq.
func (p *GroqProvider) Transcribe(ctx context.Context, audio io.Reader, opts TranscribeOptions) (*Transcript, error) {
	model := opts.Model
	if model == "" {
		model = defaultASRModel
	}
	format := opts.Format
	if format == "" {
		format = defaultASRFormat
	}

	params := openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(model),
		File:  openai.File(audio, "audio."+format, mediaType(format)),
	}
	if opts.Language != "" {
		params.Language = openai.String(opts.Language)
	}

	res, err := p.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}

	return &Transcript{Text: res.Text, Language: opts.Language}, nil
}

func mediaType(format string) string {
	switch format {
	case "mp3":
		return "audio/mpeg"
	case "webm":
		return "audio/webm"
	case "ogg":
		return "audio/ogg"
	case "flac":
		return "audio/flac"
	case "m4a":
		return "audio/m4a"
	default:
		return "audio/wav"
	}
}
