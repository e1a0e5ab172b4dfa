package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/doanphungtu/tudp-rn-debugger/pkg/shared/curl"
)

// handleRequests lists (GET) or clears (DELETE) the retained records.
// Query: q (URL substring), method, state, limit, offset.
func (d *Deps) handleRequests(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodDelete) {
		return
	}
	if r.Method == http.MethodDelete {
		d.Net.ClearRequests()
		d.Monitor.Broadcast(MonitorEvent{Type: EventRequestsCleared, ID: "*"})
		w.WriteHeader(http.StatusNoContent)
		return
	}
	q := r.URL.Query().Get("q")
	method := r.URL.Query().Get("method")
	state := r.URL.Query().Get("state")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	all := d.Net.Requests()
	views := make([]recordView, 0, minInt(limit, len(all)))
	total := 0
	for _, rec := range all {
		if !matches(rec, q, method, state) {
			continue
		}
		if total >= offset && len(views) < limit {
			views = append(views, d.view(rec))
		}
		total++
	}
	next := ""
	if offset+limit < total {
		next = strconv.Itoa(offset + limit)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": views, "total": total, "next": next})
}

// handleRequestByID serves /api/requests/{id} and /api/requests/{id}/curl.
func (d *Deps) handleRequestByID(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/requests/")
	parts := strings.Split(path, "/")
	id := parts[0]
	if id == "" || len(parts) > 2 || (len(parts) == 2 && parts[1] != "curl") {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
		return
	}
	rec, ok := d.Net.Request(id)
	if !ok {
		writeError(w, http.StatusNotFound, "REQUEST_NOT_FOUND", "request not found", map[string]any{"id": id})
		return
	}
	v := d.view(rec)
	if len(parts) == 2 {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(curl.Generate(v.Record)))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
