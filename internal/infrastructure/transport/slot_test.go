package transport

import (
	"net/http"
	"testing"
)

type structRT struct{ fn func() }

func (structRT) RoundTrip(*http.Request) (*http.Response, error) { return nil, nil }

type valueRT struct{ n int }

func (valueRT) RoundTrip(*http.Request) (*http.Response, error) { return nil, nil }

func TestSame(t *testing.T) {
	t1 := &http.Transport{}
	t2 := &http.Transport{}
	f := RoundTripperFunc(func(*http.Request) (*http.Response, error) { return nil, nil })

	if !Same(t1, t1) || Same(t1, t2) {
		t.Fatalf("pointer identity broken")
	}
	if !Same(f, f) {
		t.Fatalf("func round tripper should equal itself")
	}
	if Same(f, t1) || Same(nil, t1) || !Same(nil, nil) {
		t.Fatalf("mixed comparisons broken")
	}
	if !Same(valueRT{1}, valueRT{1}) || Same(valueRT{1}, valueRT{2}) {
		t.Fatalf("comparable values broken")
	}
	// non-comparable struct must not panic
	if Same(structRT{}, structRT{}) {
		t.Fatalf("non-comparable values are never the same")
	}
}

func TestVarSlot(t *testing.T) {
	var rt http.RoundTripper = &http.Transport{}
	orig := rt
	s := Var(&rt, "test")
	if !Same(s.Load(), orig) {
		t.Fatalf("load should return current value")
	}
	repl := RoundTripperFunc(func(*http.Request) (*http.Response, error) { return nil, nil })
	s.Store(repl)
	if !Same(rt, repl) {
		t.Fatalf("store should write through to the variable")
	}
	if s.Name() != "test" {
		t.Fatalf("name=%q", s.Name())
	}
}

func TestClientSlotNilTransport(t *testing.T) {
	c := &http.Client{}
	s := Client(c)
	if !Same(s.Load(), http.DefaultTransport) {
		t.Fatalf("nil transport should load as DefaultTransport")
	}
	tr := &http.Transport{}
	s.Store(tr)
	if c.Transport != tr {
		t.Fatalf("store should set client transport")
	}
}

func TestThroughFollowsSlot(t *testing.T) {
	var calls []string
	mk := func(name string) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			calls = append(calls, name)
			return &http.Response{StatusCode: 200, Body: http.NoBody, Request: r}, nil
		})
	}
	var rt http.RoundTripper = mk("a")
	slot := Var(&rt, "test")
	via := Through(slot)
	req, _ := http.NewRequest(http.MethodGet, "http://x/", nil)
	_, _ = via.RoundTrip(req)
	slot.Store(mk("b"))
	_, _ = via.RoundTrip(req)
	if len(calls) != 2 || calls[0] != "a" || calls[1] != "b" {
		t.Fatalf("calls=%v", calls)
	}
}
