package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeCartesia upgrades one websocket connection, records every segment
// request it receives, and replies with one audio chunk per segment followed
// by a done message once a continue=false segment arrives.
type fakeCartesia struct {
	upgrader websocket.Upgrader
	segments chan cartesiaSegmentRequest
}

func newFakeCartesia() *fakeCartesia {
	return &fakeCartesia{segments: make(chan cartesiaSegmentRequest, 16)}
}

func (f *fakeCartesia) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") == "" {
			t.Error("missing api_key query parameter")
		}
		conn, err := f.upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			var req cartesiaSegmentRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			f.segments <- req

			if req.Transcript != "" {
				chunk := base64.StdEncoding.EncodeToString([]byte("pcm:" + req.Transcript))
				if err := conn.WriteJSON(cartesiaResponse{Type: "chunk", Data: chunk}); err != nil {
					return
				}
			}
			if !req.Continue {
				_ = conn.WriteJSON(cartesiaResponse{Type: "done"})
				return
			}
		}
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestCartesiaSession_SegmentsShareOneContext(t *testing.T) {
	fake := newFakeCartesia()
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	d := NewCartesiaWithEndpoint("test-key", wsURL(srv))
	session, err := d.OpenSession(context.Background(), SessionOptions{Voice: "voice-1"})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	defer session.Close()

	if err := session.Send("Hello there.", true); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := session.Send("Goodbye.", false); err != nil {
		t.Fatalf("send final: %v", err)
	}

	first := <-fake.segments
	second := <-fake.segments
	if first.ContextID == "" || first.ContextID != second.ContextID {
		t.Errorf("segments should share a context id, got %q and %q", first.ContextID, second.ContextID)
	}
	if !first.Continue || second.Continue {
		t.Errorf("continue flags = %v, %v; want true, false", first.Continue, second.Continue)
	}
	if first.Voice.ID != "voice-1" {
		t.Errorf("voice = %q, want voice-1", first.Voice.ID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := session.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}

	var chunks []string
	for chunk := range session.Chunks() {
		chunks = append(chunks, string(chunk))
	}
	if len(chunks) != 2 || chunks[0] != "pcm:Hello there." || chunks[1] != "pcm:Goodbye." {
		t.Errorf("chunks = %q", chunks)
	}
}

func TestCartesiaSession_BlankContinueSegmentIsNotTransmitted(t *testing.T) {
	fake := newFakeCartesia()
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	d := NewCartesiaWithEndpoint("test-key", wsURL(srv))
	session, err := d.OpenSession(context.Background(), SessionOptions{})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	defer session.Close()

	if err := session.Send("", true); err != nil {
		t.Fatalf("blank continue segment should be a no-op, got %v", err)
	}
	if err := session.Send("", false); err != nil {
		t.Fatalf("final empty segment must transmit, got %v", err)
	}

	seg := <-fake.segments
	if seg.Transcript != "" || seg.Continue {
		t.Errorf("only the final empty segment should reach the service, got %+v", seg)
	}
	select {
	case extra := <-fake.segments:
		t.Errorf("unexpected extra segment %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCartesiaSession_SendAfterCloseFails(t *testing.T) {
	fake := newFakeCartesia()
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	d := NewCartesiaWithEndpoint("test-key", wsURL(srv))
	session, err := d.OpenSession(context.Background(), SessionOptions{})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}

	if err := session.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := session.Close(); err != nil {
		t.Fatalf("close must be idempotent, got %v", err)
	}
	if err := session.Send("late", false); err == nil {
		t.Error("send after close should fail")
	}
}

func TestCartesiaSegmentRequest_WireFormat(t *testing.T) {
	req := cartesiaSegmentRequest{
		ModelID:      defaultModelID,
		Transcript:   "hi",
		Voice:        cartesiaVoiceSpec{Mode: "id", ID: "v"},
		Language:     "en",
		ContextID:    "ctx-1",
		Continue:     true,
		OutputFormat: cartesiaOutputFormat{Container: "raw", Encoding: "pcm_f32le", SampleRate: 24000},
	}
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"context_id":"ctx-1"`, `"continue":true`, `"pcm_f32le"`} {
		if !strings.Contains(string(b), key) {
			t.Errorf("marshaled request missing %s: %s", key, b)
		}
	}
}
