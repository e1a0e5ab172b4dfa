package httpapi

import (
	"net/http"
	"sort"
	"time"

	"github.com/doanphungtu/tudp-rn-debugger/internal/domain"
	obs "github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/observability"
)

// Minimal HAR 1.2 structs for export
type harLog struct {
	Version string     `json:"version"`
	Creator harName    `json:"creator"`
	Entries []harEntry `json:"entries"`
}
type harName struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
type harEntry struct {
	StartedDateTime time.Time   `json:"startedDateTime"`
	Time            int64       `json:"time"`
	Request         harRequest  `json:"request"`
	Response        harResponse `json:"response"`
	Comment         string      `json:"comment,omitempty"`
}
type harHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
type harPostData struct {
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}
type harContent struct {
	Size     int    `json:"size"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text,omitempty"`
}
type harRequest struct {
	Method      string       `json:"method"`
	URL         string       `json:"url"`
	HTTPVersion string       `json:"httpVersion"`
	Headers     []harHeader  `json:"headers"`
	PostData    *harPostData `json:"postData,omitempty"`
	HeadersSize int          `json:"headersSize"`
	BodySize    int          `json:"bodySize"`
}
type harResponse struct {
	Status      int         `json:"status"`
	StatusText  string      `json:"statusText"`
	HTTPVersion string      `json:"httpVersion"`
	Headers     []harHeader `json:"headers"`
	Content     harContent  `json:"content"`
	HeadersSize int         `json:"headersSize"`
	BodySize    int         `json:"bodySize"`
}

// handleExportHAR exports the retained records oldest-first, as HAR viewers expect.
func (d *Deps) handleExportHAR(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	recs := d.Net.Requests()
	entries := make([]harEntry, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		entries = append(entries, harEntryOf(d.view(recs[i]).Record))
	}
	har := struct {
		Log harLog `json:"log"`
	}{Log: harLog{Version: "1.2", Creator: harName{Name: obs.Name, Version: obs.Version}, Entries: entries}}
	w.Header().Set("Content-Disposition", "attachment; filename=network_requests.har")
	writeJSON(w, http.StatusOK, har)
}

func harEntryOf(rec domain.Record) harEntry {
	e := harEntry{
		StartedDateTime: time.UnixMilli(rec.StartTime).UTC(),
		Time:            -1,
		Request: harRequest{
			Method:      rec.Method,
			URL:         rec.URL,
			HTTPVersion: "HTTP/1.1",
			Headers:     harHeaders(rec.RequestHeaders),
			HeadersSize: -1,
			BodySize:    -1,
		},
		Response: harResponse{
			HTTPVersion: "HTTP/1.1",
			Headers:     harHeaders(rec.ResponseHeaders),
			HeadersSize: -1,
			BodySize:    -1,
		},
	}
	if rec.Duration != nil {
		e.Time = *rec.Duration
	}
	if rec.RequestBody != nil {
		e.Request.PostData = &harPostData{MimeType: headerFold(rec.RequestHeaders, "Content-Type"), Text: *rec.RequestBody}
		e.Request.BodySize = len(*rec.RequestBody)
	}
	if rec.Status != nil {
		e.Response.Status = *rec.Status
		e.Response.StatusText = http.StatusText(*rec.Status)
	}
	e.Response.Content.MimeType = headerFold(rec.ResponseHeaders, "Content-Type")
	if rec.ResponseBody != nil {
		e.Response.Content.Text = *rec.ResponseBody
		e.Response.Content.Size = len(*rec.ResponseBody)
	}
	if rec.Error != nil {
		e.Comment = *rec.Error
	}
	return e
}

func harHeaders(h map[string]string) []harHeader {
	out := make([]harHeader, 0, len(h))
	for k, v := range h {
		out = append(out, harHeader{Name: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func headerFold(h map[string]string, key string) string {
	if v, ok := h[key]; ok {
		return v
	}
	for k, v := range h {
		if http.CanonicalHeaderKey(k) == key {
			return v
		}
	}
	return ""
}
