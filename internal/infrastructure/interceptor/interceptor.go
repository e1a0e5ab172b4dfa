// Package interceptor is the host-level, lifecycle-event based interception
// facility. The host installs one Interceptor into its transport at boot; it is
// inert until a consumer registers callbacks and enables interception. Only one
// consumer owns the callbacks at a time: registering replaces the previous set.
package interceptor

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptrace"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/transport"
)

// DefaultBodyLimit bounds how many body bytes are handed to callbacks.
const DefaultBodyLimit = 1 << 20

// Exchange is the per-request handle passed to every callback. Consumers may
// stash their own identifier in Index during the open callback.
type Exchange struct {
	Index uint64
	// ResponseHeaders is filled by the facility once headers arrive.
	ResponseHeaders map[string]string
	Request         *http.Request
}

type (
	OpenCallback           func(method, url string, x *Exchange)
	RequestHeaderCallback  func(name, value string, x *Exchange)
	SendCallback           func(body string, x *Exchange)
	HeaderReceivedCallback func(contentType string, size int64, headers map[string]string, x *Exchange)
	// ResponseCallback receives status 0 when the exchange failed before a
	// response; body then carries the transport error text.
	ResponseCallback func(status int, timeoutMs int64, body, responseURL, responseType string, x *Exchange)
)

type callbacks struct {
	open           OpenCallback
	requestHeader  RequestHeaderCallback
	send           SendCallback
	headerReceived HeaderReceivedCallback
	response       ResponseCallback
}

// Interceptor is an http.RoundTripper that reports request lifecycle events.
type Interceptor struct {
	next http.RoundTripper

	mu        sync.RWMutex
	enabled   bool
	cb        callbacks
	bodyLimit int64
}

// New wraps next; a nil next means http.DefaultTransport.
func New(next http.RoundTripper) *Interceptor {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Interceptor{next: next, bodyLimit: DefaultBodyLimit}
}

// Install wraps the transport currently held by slot and stores the
// interceptor in its place.
func Install(slot transport.Slot) *Interceptor {
	i := New(slot.Load())
	slot.Store(i)
	return i
}

func (i *Interceptor) SetBodyLimit(n int64) {
	i.mu.Lock()
	if n > 0 {
		i.bodyLimit = n
	}
	i.mu.Unlock()
}

func (i *Interceptor) IsInterceptorEnabled() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.enabled
}

func (i *Interceptor) SetOpenCallback(cb OpenCallback) {
	i.mu.Lock()
	i.cb.open = cb
	i.mu.Unlock()
}

func (i *Interceptor) SetRequestHeaderCallback(cb RequestHeaderCallback) {
	i.mu.Lock()
	i.cb.requestHeader = cb
	i.mu.Unlock()
}

func (i *Interceptor) SetSendCallback(cb SendCallback) {
	i.mu.Lock()
	i.cb.send = cb
	i.mu.Unlock()
}

func (i *Interceptor) SetHeaderReceivedCallback(cb HeaderReceivedCallback) {
	i.mu.Lock()
	i.cb.headerReceived = cb
	i.mu.Unlock()
}

func (i *Interceptor) SetResponseCallback(cb ResponseCallback) {
	i.mu.Lock()
	i.cb.response = cb
	i.mu.Unlock()
}

func (i *Interceptor) EnableInterception() {
	i.mu.Lock()
	i.enabled = true
	i.mu.Unlock()
}

// DisableInterception stops event delivery; callbacks stay registered until
// they are replaced.
func (i *Interceptor) DisableInterception() {
	i.mu.Lock()
	i.enabled = false
	i.mu.Unlock()
}

func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	i.mu.RLock()
	enabled, cb, limit := i.enabled, i.cb, i.bodyLimit
	i.mu.RUnlock()
	if !enabled {
		return i.next.RoundTrip(req)
	}

	x := &Exchange{Request: req}
	url := req.URL.String()
	if cb.open != nil {
		cb.open(req.Method, url, x)
	}
	if cb.requestHeader != nil {
		keys := make([]string, 0, len(req.Header))
		for k := range req.Header {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cb.requestHeader(k, strings.Join(req.Header[k], ", "), x)
		}
	}

	var (
		reqBody  string
		sendOnce sync.Once
	)
	fireSend := func() {
		sendOnce.Do(func() {
			if cb.send != nil {
				cb.send(reqBody, x)
			}
		})
	}
	traced := req.WithContext(httptrace.WithClientTrace(req.Context(), &httptrace.ClientTrace{
		WroteRequest: func(httptrace.WroteRequestInfo) { fireSend() },
	}))
	reqBody = peekRequestBody(traced, limit)

	timeout := timeoutMs(req)
	resp, err := i.next.RoundTrip(traced)
	// round trippers that never touch the wire still get a send event
	fireSend()
	if err != nil {
		if cb.response != nil {
			cb.response(0, timeout, err.Error(), url, "", x)
		}
		return resp, err
	}

	headers := flattenHeader(resp.Header)
	x.ResponseHeaders = headers
	if cb.headerReceived != nil {
		cb.headerReceived(resp.Header.Get("Content-Type"), resp.ContentLength, headers, x)
	}
	if cb.response == nil {
		return resp, nil
	}
	respURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		respURL = resp.Request.URL.String()
	}
	status := resp.StatusCode
	if resp.Body == nil {
		cb.response(status, timeout, "", respURL, "text", x)
		return resp, nil
	}
	resp.Body = &recordingBody{
		rc:    resp.Body,
		limit: limit,
		done: func(body []byte) {
			cb.response(status, timeout, string(body), respURL, responseType(body), x)
		},
	}
	return resp, nil
}

// peekRequestBody reads up to limit bytes of the request body for the send
// event and reattaches them so the real transport sees the full stream.
// req must be a private copy: its Body field may be replaced.
func peekRequestBody(req *http.Request, limit int64) string {
	if req.Body == nil || req.Body == http.NoBody {
		return ""
	}
	if req.GetBody != nil {
		if rc, err := req.GetBody(); err == nil {
			defer rc.Close()
			b, _ := io.ReadAll(io.LimitReader(rc, limit))
			return string(b)
		}
	}
	peek, _ := io.ReadAll(io.LimitReader(req.Body, limit))
	if len(peek) > 0 {
		req.Body = readCloser{io.MultiReader(bytes.NewReader(peek), req.Body), req.Body}
	}
	return string(peek)
}

func timeoutMs(req *http.Request) int64 {
	if dl, ok := req.Context().Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d.Milliseconds()
		}
	}
	return 0
}

func responseType(body []byte) string {
	if isText(body) {
		return "text"
	}
	return "blob"
}

func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = strings.Join(v, ", ")
	}
	return out
}

type readCloser struct {
	io.Reader
	io.Closer
}
