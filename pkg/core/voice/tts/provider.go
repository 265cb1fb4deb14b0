// Package tts provides duplex text-to-speech synthesis sessions.
package tts

import "context"

// Session is a duplex synthesis channel opened once per turn. All segments
// sent through a session share one synthesis context, so the service renders
// them as a single continuous utterance.
type Session interface {
	// Send transmits one text segment. cont=true means more text is coming;
	// the final segment of a turn is sent with cont=false, even if empty.
	// A blank segment with cont=true is a no-op and is never transmitted.
	Send(text string, cont bool) error

	// Chunks delivers synthesized audio in arrival order. The channel is
	// closed when synthesis finishes or the session is torn down.
	Chunks() <-chan []byte

	// Wait blocks until the service signals synthesis is fully drained, the
	// session closes, or ctx is done.
	Wait(ctx context.Context) error

	// Close tears the session down. Idempotent and safe from any error path.
	Close() error
}

// SessionOptions configures a synthesis session.
type SessionOptions struct {
	Voice      string // voice identifier
	Model      string // provider-specific synthesis model
	Language   string // language code
	SampleRate int    // output sample rate in Hz
}

// Dialer opens synthesis sessions.
type Dialer interface {
	// Name returns the provider identifier.
	Name() string

	// OpenSession opens one duplex synthesis channel.
	OpenSession(ctx context.Context, opts SessionOptions) (Session, error)
}
