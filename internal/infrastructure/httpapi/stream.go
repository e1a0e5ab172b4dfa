package httpapi

import (
	"encoding/json"
	"net/http"
)

// handleRequestStream provides Server-Sent Events with the full record list:
// one "requests" event on connect and one after every change notification.
// Path: /api/requests_stream
func (d *Deps) handleRequestStream(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "STREAM_UNSUPPORTED", "stream unsupported", nil)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// subscribe before the initial snapshot so no change slips between them
	sub := d.Monitor.Subscribe()
	defer d.Monitor.Unsubscribe(sub)
	if err := d.writeSnapshot(w, flusher); err != nil {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			switch ev.Type {
			case EventRequestsChanged, EventRequestsCleared:
				if err := d.writeSnapshot(w, flusher); err != nil {
					return
				}
			case EventLoggingStarted, EventLoggingStopped:
				if err := writeSSE(w, flusher, ev.Type, ev); err != nil {
					return
				}
			}
		}
	}
}

func (d *Deps) writeSnapshot(w http.ResponseWriter, flusher http.Flusher) error {
	recs := d.Net.Requests()
	views := make([]recordView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, d.view(rec))
	}
	return writeSSE(w, flusher, "requests", views)
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	// data: <json> in one line
	if _, err := w.Write([]byte("event: " + event + "\ndata: " + string(b) + "\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
