// Package streaming implements the bidirectional SSE StreamTransformer:
// the stateful machine that turns an upstream OpenAI-shape chunk stream
// into a well-formed Anthropic-shape SSE event sequence.
package streaming

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// EventWriter writes Anthropic-shape SSE events: `event: <name>\ndata: <json>\n\n`,
// the one-data-line shape this gateway's downstream events always take.
type EventWriter struct {
	w       io.Writer
	flusher http.Flusher
	mu      sync.Mutex
}

// NewEventWriter wraps w, using its http.Flusher if it implements one.
func NewEventWriter(w io.Writer) *EventWriter {
	ew := &EventWriter{w: w}
	if f, ok := w.(http.Flusher); ok {
		ew.flusher = f
	}
	return ew
}

// WriteEvent emits one event, flushing immediately so the client sees each
// event as soon as it's produced.
func (w *EventWriter) WriteEvent(name string, jsonData []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "event: %s\n", name)
	fmt.Fprintf(&buf, "data: %s\n\n", jsonData)

	if _, err := w.w.Write(buf.Bytes()); err != nil {
		return err
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}

// lineSplitter implements incremental line framing: bytes arrive in
// arbitrary-sized chunks, are split on '\n', and a trailing partial line is
// held until the next chunk completes it.
type lineSplitter struct {
	buffer string
}

// feed appends data and returns every complete line found so far, holding
// back a trailing partial line for the next call.
func (s *lineSplitter) feed(data []byte) []string {
	s.buffer += string(data)
	parts := strings.Split(s.buffer, "\n")
	s.buffer = parts[len(parts)-1]
	return parts[:len(parts)-1]
}

// flush returns any trailing partial line, e.g. at upstream EOF.
func (s *lineSplitter) flush() string {
	remaining := s.buffer
	s.buffer = ""
	return remaining
}

const dataLinePrefix = "data: "
const doneMarker = "[DONE]"

// dataPayload returns the JSON payload of an SSE data line, or ("", false)
// if the line doesn't carry the `data: ` prefix; any other line, e.g.
// `event:`/`id:`, is ignored.
func dataPayload(line string) (string, bool) {
	line = strings.TrimRight(line, "\r")
	if !strings.HasPrefix(line, dataLinePrefix) {
		return "", false
	}
	return strings.TrimPrefix(line, dataLinePrefix), true
}
