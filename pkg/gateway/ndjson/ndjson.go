// Package ndjson serializes stream events as newline-delimited JSON over an
// HTTP response.
package ndjson

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/parley-ai/parley/pkg/core/types"
)

// Writer is the single exit point for a turn's event stream. Events from
// concurrent producers are serialized under a mutex, and once a terminal
// event (done or error) has been written every later event is dropped.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher

	mu     sync.Mutex
	closed bool
}

func New(w http.ResponseWriter) (*Writer, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	return &Writer{w: w, flusher: f}, nil
}

// Send writes one event as a JSON line and flushes. Events after the stream
// has terminated return nil without writing.
func (nw *Writer) Send(event types.StreamEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return err
	}

	nw.mu.Lock()
	defer nw.mu.Unlock()

	if nw.closed {
		return nil
	}
	if _, err := nw.w.Write(append(b, '\n')); err != nil {
		return err
	}
	nw.flusher.Flush()
	if types.IsTerminal(event) {
		nw.closed = true
	}
	return nil
}

// Closed reports whether a terminal event has been written.
func (nw *Writer) Closed() bool {
	nw.mu.Lock()
	defer nw.mu.Unlock()
	return nw.closed
}
