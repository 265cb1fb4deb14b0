package turn

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/parley-ai/parley/pkg/core/completion"
	"github.com/parley-ai/parley/pkg/core/types"
	"github.com/parley-ai/parley/pkg/core/voice"
	"github.com/parley-ai/parley/pkg/core/voice/tts"
)

// streamReply streams the final completion, emitting a text-delta per
// increment, feeding speakable segments to the speech session as they become
// ready, and closing with a single text-final event. The final segment is
// always transmitted with cont=false, even when empty, so the synthesis
// context drains.
func streamReply(ctx context.Context, svc completion.Service, req *completion.Request, sink EventSink, speech tts.Session, logger *slog.Logger) (string, error) {
	stream, err := svc.Stream(ctx, req)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var full strings.Builder
	buf := voice.NewSegmentBuffer(voice.DefaultSegmentThreshold)

	// A segment that fails to transmit is logged and dropped. Losing one
	// segment of audio is better than losing the whole reply.
	speak := func(segment string, cont bool) {
		if speech == nil {
			return
		}
		if err := speech.Send(segment, cont); err != nil {
			logger.Warn("speech segment transmit failed", "error", err)
		}
	}

	for {
		delta, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return full.String(), err
		}

		if delta.Text != "" {
			full.WriteString(delta.Text)
			_ = sink.Send(types.NewTextDeltaEvent(delta.Text))
			buf.Append(delta.Text)
			for {
				segment, ok := buf.Cut(false)
				if !ok {
					break
				}
				if voice.Speakable(segment) {
					speak(segment, true)
				}
			}
		}

		if delta.FinishReason != "" && delta.FinishReason != completion.FinishLength {
			break
		}
	}

	// Flush the tail: a forced soft-boundary cut first, then whatever is
	// left with cont=false so the synthesis context drains.
	if segment, ok := buf.Cut(true); ok && voice.Speakable(segment) {
		speak(segment, true)
	}
	speak(buf.Drain(), false)
	_ = sink.Send(types.NewTextFinalEvent(full.String()))
	return full.String(), nil
}
