// Package transport models the process-wide round tripper reference that the
// call-wrapping hook replaces and later restores.
package transport

import (
	"net/http"
	"reflect"
	"sync"
)

// Slot is a mutable reference to the transport used by the instrumented program.
type Slot interface {
	Load() http.RoundTripper
	Store(rt http.RoundTripper)
	Name() string
}

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type varSlot struct {
	mu   sync.Mutex
	ptr  *http.RoundTripper
	name string
}

// Var wraps an arbitrary round tripper variable.
func Var(ptr *http.RoundTripper, name string) Slot {
	return &varSlot{ptr: ptr, name: name}
}

// Default is the slot over http.DefaultTransport, used by http.DefaultClient
// and every client without an explicit Transport.
func Default() Slot {
	return Var(&http.DefaultTransport, "http.DefaultTransport")
}

func (s *varSlot) Load() http.RoundTripper {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.ptr
}

func (s *varSlot) Store(rt http.RoundTripper) {
	s.mu.Lock()
	*s.ptr = rt
	s.mu.Unlock()
}

func (s *varSlot) Name() string { return s.name }

type clientSlot struct {
	mu sync.Mutex
	c  *http.Client
}

// Client wraps the Transport field of c. A nil Transport loads as
// http.DefaultTransport, which is what the client would use anyway.
func Client(c *http.Client) Slot { return &clientSlot{c: c} }

func (s *clientSlot) Load() http.RoundTripper {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c.Transport == nil {
		return http.DefaultTransport
	}
	return s.c.Transport
}

func (s *clientSlot) Store(rt http.RoundTripper) {
	s.mu.Lock()
	s.c.Transport = rt
	s.mu.Unlock()
}

func (s *clientSlot) Name() string { return "http.Client.Transport" }

// Same reports whether a and b are the same round tripper instance.
// Non-comparable implementations (func adapters, maps) are compared by
// pointer; two closures built from the same literal compare equal.
func Same(a, b http.RoundTripper) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Func, reflect.Map, reflect.Slice, reflect.Pointer, reflect.UnsafePointer, reflect.Chan:
		return va.Pointer() == vb.Pointer()
	}
	if !ta.Comparable() {
		return false
	}
	// comparable structs may still hold non-comparable interface values
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

// Through returns a round tripper that resolves slot on every request, so a
// client built once keeps following whatever the slot holds.
func Through(slot Slot) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return slot.Load().RoundTrip(r)
	})
}
