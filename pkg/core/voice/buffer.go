// Package voice provides the speakable-segment buffer and the STT/TTS
// provider packages used by the turn pipeline.
package voice

import "strings"

// DefaultSegmentThreshold is the buffer length above which a segment is cut
// even without a natural boundary.
const DefaultSegmentThreshold = 60

// SegmentBuffer accumulates streamed text deltas and decides cut points that
// are speakable units. A raw token delta is a poor synthesis unit: it is
// either too small or split mid-sentence.
type SegmentBuffer struct {
	pending   string
	threshold int
}

// NewSegmentBuffer creates a buffer that cuts at the given length threshold
// when no natural boundary is found. threshold <= 0 uses the default.
func NewSegmentBuffer(threshold int) *SegmentBuffer {
	if threshold <= 0 {
		threshold = DefaultSegmentThreshold
	}
	return &SegmentBuffer{threshold: threshold}
}

// Append adds a text delta to the pending buffer.
func (b *SegmentBuffer) Append(text string) {
	b.pending += text
}

// Cut removes and returns the next speakable segment, if any.
//
// The pending text is scanned backward for the last terminal punctuation
// character and cut immediately after it. Failing that, a forced cut falls
// back to the last whitespace, comma, or semicolon. If no boundary exists
// and the call is forced or the buffer exceeds the threshold, the cut lands
// at the end of the buffer. Otherwise nothing is cut and the buffer waits
// for more text.
func (b *SegmentBuffer) Cut(force bool) (string, bool) {
	if len(b.pending) == 0 {
		return "", false
	}

	cutoff := -1
	for i := len(b.pending) - 1; i >= 0; i-- {
		c := b.pending[i]
		if c == '.' || c == '?' || c == '!' {
			cutoff = i + 1
			break
		}
		if force && isSoftBoundary(c) {
			cutoff = i + 1
			break
		}
	}

	if cutoff == -1 && (force || len(b.pending) > b.threshold) {
		cutoff = len(b.pending)
	}
	if cutoff == -1 {
		return "", false
	}

	segment := b.pending[:cutoff]
	b.pending = b.pending[cutoff:]
	return segment, true
}

// Drain removes and returns everything left in the buffer.
func (b *SegmentBuffer) Drain() string {
	rest := b.pending
	b.pending = ""
	return rest
}

// Len returns the pending byte count.
func (b *SegmentBuffer) Len() int {
	return len(b.pending)
}

// Speakable reports whether a cut segment is worth transmitting.
func Speakable(segment string) bool {
	return strings.TrimSpace(segment) != ""
}

func isSoftBoundary(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', ',', ';':
		return true
	}
	return false
}
