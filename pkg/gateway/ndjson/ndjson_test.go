package ndjson

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/parley-ai/parley/pkg/core/types"
)

func TestWriter_OneJSONObjectPerLine(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := New(rec)
	if err != nil {
		t.Fatal(err)
	}

	events := []types.StreamEvent{
		types.NewTranscriptEvent("hello"),
		types.NewTextDeltaEvent("Hi"),
		types.NewDoneEvent(),
	}
	for _, ev := range events {
		if err := w.Send(ev); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("content type = %q", ct)
	}
	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	want := []string{
		`{"type":"transcript","text":"hello"}`,
		`{"type":"text-delta","delta":"Hi"}`,
		`{"type":"done"}`,
	}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %s, want %s", i, lines[i], want[i])
		}
	}
}

func TestWriter_NothingAfterTerminalEvent(t *testing.T) {
	rec := httptest.NewRecorder()
	w, err := New(rec)
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Send(types.NewErrorEvent("boom")); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !w.Closed() {
		t.Fatal("writer should be closed after a terminal event")
	}
	if err := w.Send(types.NewDoneEvent()); err != nil {
		t.Fatalf("send after close should be a silent no-op, got %v", err)
	}
	if err := w.Send(types.NewTextDeltaEvent("late")); err != nil {
		t.Fatalf("send after close should be a silent no-op, got %v", err)
	}

	body := strings.TrimRight(rec.Body.String(), "\n")
	if body != `{"type":"error","message":"boom"}` {
		t.Errorf("body = %q, want only the error line", body)
	}
}
