package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// streamSSE frames events as text/event-stream per spec.md §6, writing
// one `event: <type>\ndata: <json>\n\n` record per RunEvent and
// flushing after each so the caller sees events as they're produced,
// not buffered until the handler returns. The stream ends when events
// closes (the Driver's sentinel) or the client disconnects.
func streamSSE(w http.ResponseWriter, r *http.Request, events <-chan RunEvent) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(ev.Payload)
			if err != nil {
				data = []byte(`{"error":"failed to encode event"}`)
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}
