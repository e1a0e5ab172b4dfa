package hooks

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/doanphungtu/tudp-rn-debugger/internal/domain"
	"github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/interceptor"
	"github.com/doanphungtu/tudp-rn-debugger/internal/usecase"
)

// Facility is the subset of the host interceptor the callback hook drives.
type Facility interface {
	IsInterceptorEnabled() bool
	SetOpenCallback(interceptor.OpenCallback)
	SetRequestHeaderCallback(interceptor.RequestHeaderCallback)
	SetSendCallback(interceptor.SendCallback)
	SetHeaderReceivedCallback(interceptor.HeaderReceivedCallback)
	SetResponseCallback(interceptor.ResponseCallback)
	EnableInterception()
	DisableInterception()
}

// CallbackHook records exchanges reported by the interceptor facility.
// Exchanges are tagged with a 64-bit sequence number; index 0 marks an
// exchange that was filtered out and is never tracked.
type CallbackHook struct {
	rec      recorder
	facility Facility
	seq      atomic.Uint64

	mu  sync.Mutex
	ids map[uint64]string // sequence -> record id
}

func NewCallbackHook(f Facility, d Deps) *CallbackHook {
	return &CallbackHook{
		rec:      newRecorder(d, usecase.HookCallback),
		facility: f,
		ids:      make(map[uint64]string),
	}
}

func (h *CallbackHook) Kind() usecase.HookKind { return usecase.HookCallback }

func (h *CallbackHook) Enable(force bool) error {
	if h.facility.IsInterceptorEnabled() && !force {
		return usecase.ErrInterceptorConflict
	}
	h.facility.SetOpenCallback(h.onOpen)
	h.facility.SetRequestHeaderCallback(h.onRequestHeader)
	h.facility.SetSendCallback(h.onSend)
	h.facility.SetHeaderReceivedCallback(h.onHeaderReceived)
	h.facility.SetResponseCallback(h.onResponse)
	h.facility.EnableInterception()
	return nil
}

func (h *CallbackHook) Disable() {
	h.facility.SetOpenCallback(nil)
	h.facility.SetRequestHeaderCallback(nil)
	h.facility.SetSendCallback(nil)
	h.facility.SetHeaderReceivedCallback(nil)
	h.facility.SetResponseCallback(nil)
	h.facility.DisableInterception()
	h.mu.Lock()
	h.ids = make(map[uint64]string)
	h.mu.Unlock()
}

func (h *CallbackHook) State() usecase.HookState {
	return usecase.HookState{
		Kind:               usecase.HookCallback,
		HasInterceptor:     true,
		InterceptorEnabled: h.facility.IsInterceptorEnabled(),
	}
}

func (h *CallbackHook) onOpen(method, url string, x *interceptor.Exchange) {
	if h.rec.ignored(method, url) {
		return
	}
	seq := h.seq.Add(1)
	x.Index = seq
	rec := domain.NewRecord(strconv.FormatUint(seq, 10), method, url)
	rec.RequestHeaders = map[string]string{}
	h.mu.Lock()
	h.ids[seq] = rec.ID
	h.mu.Unlock()
	h.rec.insert(rec)
	h.rec.Logger.Debug().Str("id", rec.ID).Str("method", rec.Method).Str("url", url).Msg("request opened")
}

func (h *CallbackHook) onRequestHeader(name, value string, x *interceptor.Exchange) {
	h.update(x, func(r *domain.Record) {
		if r.RequestHeaders == nil {
			r.RequestHeaders = map[string]string{}
		}
		r.RequestHeaders[name] = value
	})
}

func (h *CallbackHook) onSend(body string, x *interceptor.Exchange) {
	ok := h.update(x, func(r *domain.Record) {
		r.RequestBody = capturedRequestBody(body)
		// open may precede the moment the body is actually written
		r.StartTime = domain.NowMillis()
	})
	if ok {
		h.rec.notify()
	}
}

func (h *CallbackHook) onHeaderReceived(contentType string, size int64, headers map[string]string, x *interceptor.Exchange) {
	h.update(x, func(r *domain.Record) {
		src := x.ResponseHeaders
		if src == nil {
			src = headers
		}
		out := make(map[string]string, len(src))
		for k, v := range src {
			out[k] = v
		}
		r.ResponseHeaders = out
	})
}

func (h *CallbackHook) onResponse(status int, timeoutMs int64, body, responseURL, responseType string, x *interceptor.Exchange) {
	var rec domain.Record
	ok := h.update(x, func(r *domain.Record) {
		now := domain.NowMillis()
		if status == 0 {
			r.Fail(body, now)
		} else {
			r.Complete(status, capturedResponseBody(body, responseType), now)
		}
		rec = r.Clone()
	})
	h.mu.Lock()
	delete(h.ids, x.Index)
	h.mu.Unlock()
	if !ok {
		return
	}
	if rec.State() == domain.StateFailed {
		h.rec.failed()
		h.rec.Logger.Debug().Str("id", rec.ID).Str("url", rec.URL).Str("error", body).Msg("request failed")
	} else {
		h.rec.Logger.Debug().Str("id", rec.ID).Str("url", rec.URL).Int("status", status).Int64("duration_ms", derefInt64(rec.Duration)).Msg("request completed")
	}
	h.rec.notify()
}

// update resolves the record bound to x at the moment of need; the record may
// have been evicted or cleared since open.
func (h *CallbackHook) update(x *interceptor.Exchange, fn func(r *domain.Record)) bool {
	if x == nil || x.Index == 0 {
		return false
	}
	h.mu.Lock()
	id, ok := h.ids[x.Index]
	h.mu.Unlock()
	if !ok {
		return false
	}
	applied := false
	h.rec.Store.Update(id, func(r *domain.Record) {
		if r.Terminal() {
			return
		}
		fn(r)
		applied = true
	})
	return applied
}

func derefInt64(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
