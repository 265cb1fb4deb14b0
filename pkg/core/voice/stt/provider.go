// Package stt provides speech-to-text for turn input audio.
package stt

import (
	"context"
	"io"
)

// Provider is the interface for speech-to-text services.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Transcribe converts audio to text.
	Transcribe(ctx context.Context, audio io.Reader, opts TranscribeOptions) (*Transcript, error)
}

// TranscribeOptions configures transcription.
type TranscribeOptions struct {
	Model    string // provider-specific model
	Language string // ISO language code
	Format   string // audio format hint (wav, mp3, webm, ...)
}

// Transcript is the result of transcription.
type Transcript struct {
	Text     string // full transcribed text
	Language string // detected or specified language
}
