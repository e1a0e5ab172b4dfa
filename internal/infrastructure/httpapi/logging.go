package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/config"
	"github.com/doanphungtu/tudp-rn-debugger/internal/usecase"
)

// startRequest mirrors usecase.Options; absent fields keep their current value.
type startRequest struct {
	Force           bool     `json:"force"`
	MaxRequests     *int     `json:"maxRequests"`
	IgnoredHosts    []string `json:"ignoredHosts"`
	IgnoredURLs     []string `json:"ignoredUrls"`
	IgnoredPatterns []string `json:"ignoredPatterns"`
	StaleAfterMs    *int64   `json:"staleAfterMs"`
}

func (d *Deps) handleStart(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	var in startRequest
	// an empty body starts with the current settings
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "BAD_JSON", "invalid json", nil)
		return
	}
	opts := usecase.Options{
		Force:        in.Force,
		MaxRequests:  in.MaxRequests,
		IgnoredHosts: in.IgnoredHosts,
		IgnoredURLs:  in.IgnoredURLs,
	}
	if in.IgnoredPatterns != nil {
		patterns, err := config.CompilePatterns(in.IgnoredPatterns)
		if err != nil {
			writeError(w, http.StatusBadRequest, "BAD_PATTERN", err.Error(), nil)
			return
		}
		opts.IgnoredPatterns = patterns
	}
	if in.StaleAfterMs != nil {
		stale := time.Duration(*in.StaleAfterMs) * time.Millisecond
		opts.StaleAfter = &stale
	}
	if err := d.Net.Start(opts); err != nil {
		status, code := startErrorStatus(err)
		writeError(w, status, code, err.Error(), nil)
		return
	}
	d.Monitor.Broadcast(MonitorEvent{Type: EventLoggingStarted, ID: "*"})
	writeJSON(w, http.StatusOK, d.Net.DebugInfo())
}

func startErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, usecase.ErrAlreadyActive):
		return http.StatusConflict, "ALREADY_ACTIVE"
	case errors.Is(err, usecase.ErrInterceptorConflict):
		return http.StatusConflict, "INTERCEPTOR_CONFLICT"
	case errors.Is(err, usecase.ErrTransportPatched):
		return http.StatusConflict, "TRANSPORT_PATCHED"
	case errors.Is(err, usecase.ErrHookUnavailable):
		return http.StatusServiceUnavailable, "HOOK_UNAVAILABLE"
	}
	return http.StatusInternalServerError, "START_FAILED"
}

func (d *Deps) handleStop(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	if err := d.Net.Stop(); err != nil {
		writeError(w, http.StatusConflict, "NOT_ACTIVE", err.Error(), nil)
		return
	}
	d.Monitor.Broadcast(MonitorEvent{Type: EventLoggingStopped, ID: "*"})
	writeJSON(w, http.StatusOK, d.Net.DebugInfo())
}

func (d *Deps) handleDebug(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, d.Net.DebugInfo())
}

func (d *Deps) handleSelfTest(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()
	ok := d.Net.TestInterceptor(ctx)
	writeJSON(w, http.StatusOK, map[string]any{"ok": ok, "requestCount": d.Net.DebugInfo().RequestCount})
}
