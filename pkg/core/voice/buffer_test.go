package voice

import (
	"strings"
	"testing"
)

func TestSegmentBuffer_CutAtTerminalPunctuation(t *testing.T) {
	b := NewSegmentBuffer(0)
	b.Append("Hello world. And some more")

	segment, ok := b.Cut(false)
	if !ok {
		t.Fatal("expected a cut")
	}
	if segment != "Hello world." {
		t.Errorf("segment = %q, want %q", segment, "Hello world.")
	}
	if b.Drain() != " And some more" {
		t.Error("remainder should stay buffered")
	}
}

func TestSegmentBuffer_WaitsForMoreText(t *testing.T) {
	b := NewSegmentBuffer(0)
	b.Append("no boundary yet")

	if _, ok := b.Cut(false); ok {
		t.Fatal("expected no cut for short unterminated text")
	}
	if b.Len() != len("no boundary yet") {
		t.Errorf("buffer length = %d", b.Len())
	}
}

func TestSegmentBuffer_ForceCutsAtSoftBoundary(t *testing.T) {
	b := NewSegmentBuffer(0)
	b.Append("well, that works")

	segment, ok := b.Cut(true)
	if !ok {
		t.Fatal("expected a forced cut")
	}
	if segment != "well, that " {
		t.Errorf("segment = %q, want %q", segment, "well, that ")
	}
}

func TestSegmentBuffer_ForceCutsWholeBufferWithoutBoundary(t *testing.T) {
	b := NewSegmentBuffer(0)
	b.Append("unbreakable")

	segment, ok := b.Cut(true)
	if !ok || segment != "unbreakable" {
		t.Fatalf("segment = %q ok=%v, want full buffer", segment, ok)
	}
	if b.Len() != 0 {
		t.Error("buffer should be empty after a full cut")
	}
}

func TestSegmentBuffer_ThresholdCutsWithoutPunctuation(t *testing.T) {
	b := NewSegmentBuffer(10)
	b.Append("morethantencharacters")

	segment, ok := b.Cut(false)
	if !ok || segment != "morethantencharacters" {
		t.Fatalf("segment = %q ok=%v, want threshold cut at buffer end", segment, ok)
	}
}

func TestSegmentBuffer_NoLossNoDuplication(t *testing.T) {
	deltas := []string{"Sure", ", that", " works.", " Here is", " a longer tail", " without punctuation"}

	b := NewSegmentBuffer(0)
	var emitted []string
	for _, d := range deltas {
		b.Append(d)
		if segment, ok := b.Cut(false); ok {
			emitted = append(emitted, segment)
		}
	}
	if segment, ok := b.Cut(true); ok {
		emitted = append(emitted, segment)
	}
	emitted = append(emitted, b.Drain())

	if got, want := strings.Join(emitted, ""), strings.Join(deltas, ""); got != want {
		t.Errorf("reassembled %q, want %q", got, want)
	}
}

func TestSegmentBuffer_SingleSegmentAcrossDeltas(t *testing.T) {
	b := NewSegmentBuffer(0)
	for _, d := range []string{"Sure", ", that", " works."} {
		b.Append(d)
	}

	segment, ok := b.Cut(true)
	if !ok || segment != "Sure, that works." {
		t.Fatalf("segment = %q ok=%v, want %q", segment, ok, "Sure, that works.")
	}
	if b.Len() != 0 {
		t.Error("nothing should remain after the terminal period cut")
	}
}

func TestSpeakable(t *testing.T) {
	if Speakable("   \n\t") {
		t.Error("blank segment should not be speakable")
	}
	if !Speakable(" ok ") {
		t.Error("non-blank segment should be speakable")
	}
}
