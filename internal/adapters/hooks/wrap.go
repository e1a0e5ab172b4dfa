package hooks

import (
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/doanphungtu/tudp-rn-debugger/internal/domain"
	"github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/transport"
	"github.com/doanphungtu/tudp-rn-debugger/internal/usecase"
)

// WrapHook replaces the round tripper held by a transport slot with a
// recording wrapper around the original. The original is held while enabled
// and put back by Disable.
type WrapHook struct {
	rec  recorder
	slot transport.Slot

	mu        sync.Mutex
	original  http.RoundTripper
	installed http.RoundTripper
}

func NewWrapHook(slot transport.Slot, d Deps) *WrapHook {
	return &WrapHook{rec: newRecorder(d, usecase.HookWrap), slot: slot}
}

func (h *WrapHook) Kind() usecase.HookKind { return usecase.HookWrap }

func (h *WrapHook) Enable(force bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	current := h.slot.Load()
	if current == nil {
		return usecase.ErrHookUnavailable
	}
	if h.installed != nil && transport.Same(current, h.installed) {
		return nil
	}
	original := h.original
	if original == nil {
		original = current
	}
	if !transport.Same(current, original) && !force {
		h.rec.Logger.Warn().Str("slot", h.slot.Name()).Msg("transport already replaced by another wrapper")
		return usecase.ErrTransportPatched
	}
	h.original = original
	w := &wrapper{hook: h, next: original}
	h.installed = w
	h.slot.Store(w)
	return nil
}

func (h *WrapHook) Disable() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.original == nil {
		return
	}
	h.slot.Store(h.original)
	h.original = nil
	h.installed = nil
}

func (h *WrapHook) State() usecase.HookState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return usecase.HookState{Kind: usecase.HookWrap, HasOriginalTransport: h.original != nil}
}

type wrapper struct {
	hook *WrapHook
	next http.RoundTripper
}

func (w *wrapper) RoundTrip(req *http.Request) (*http.Response, error) {
	r := w.hook.rec
	method := domain.NormalizeMethod(req.Method)
	url := req.URL.String()
	if r.ignored(method, url) {
		return w.next.RoundTrip(req)
	}

	rec := domain.NewRecord(uuid.NewString(), method, url)
	rec.RequestHeaders = HeadersOf(req.Header)
	body, out := requestBody(req, r.BodyLimit)
	rec.RequestBody = body
	id := rec.ID
	r.insert(rec)

	resp, err := w.next.RoundTrip(out)
	if err != nil {
		msg := err.Error()
		applied := false
		r.Store.Update(id, func(rec *domain.Record) { applied = rec.Fail(msg, domain.NowMillis()) })
		if applied {
			r.failed()
			r.notify()
		}
		r.Logger.Debug().Str("id", id).Str("url", url).Err(err).Msg("request failed")
		return resp, err
	}

	respBody := responseBody(resp, r.BodyLimit)
	headers := HeadersOf(resp.Header)
	var (
		duration int64
		applied  bool
	)
	r.Store.Update(id, func(rec *domain.Record) {
		if rec.Terminal() {
			return
		}
		rec.ResponseHeaders = headers
		applied = rec.Complete(resp.StatusCode, respBody, domain.NowMillis())
		duration = *rec.Duration
	})
	if applied {
		r.notify()
	}
	r.Logger.Debug().Str("id", id).Str("url", url).Int("status", resp.StatusCode).Int64("duration_ms", duration).Msg("request completed")
	return resp, nil
}
