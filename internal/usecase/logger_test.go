package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/doanphungtu/tudp-rn-debugger/internal/adapters/storage/memory"
	"github.com/doanphungtu/tudp-rn-debugger/internal/domain"
)

type fakeHook struct {
	kind      HookKind
	enableErr error
	enabled   atomic.Bool
	enables   atomic.Int32
	disables  atomic.Int32
	lastForce atomic.Bool
}

func (f *fakeHook) Kind() HookKind { return f.kind }

func (f *fakeHook) Enable(force bool) error {
	f.lastForce.Store(force)
	if f.enableErr != nil && !force {
		return f.enableErr
	}
	f.enables.Add(1)
	f.enabled.Store(true)
	return nil
}

func (f *fakeHook) Disable() {
	f.disables.Add(1)
	f.enabled.Store(false)
}

func (f *fakeHook) State() HookState {
	return HookState{Kind: f.kind, HasOriginalTransport: f.enabled.Load()}
}

func newTestLogger(h Hook, capacity int) (*NetworkLogger, *memory.Store) {
	st := memory.NewStore(capacity)
	l := NewNetworkLogger(Deps{
		Store: st,
		Hub:   NewHub(st.List, time.Millisecond, nil, nil),
		Hook:  h,
	})
	return l, st
}

func intPtr(v int) *int { return &v }

func TestStartStopIdempotence(t *testing.T) {
	h := &fakeHook{kind: HookWrap}
	l, _ := newTestLogger(h, 10)
	defer l.Close()

	if err := l.Start(Options{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := l.Start(Options{}); !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("second start should be a no-op, got %v", err)
	}
	if h.enables.Load() != 1 {
		t.Fatalf("hook enabled %d times", h.enables.Load())
	}
	if err := l.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := l.Stop(); !errors.Is(err, ErrNotActive) {
		t.Fatalf("second stop should report inactive, got %v", err)
	}
	if h.disables.Load() != 1 || l.IsLogging() {
		t.Fatalf("disables=%d logging=%v", h.disables.Load(), l.IsLogging())
	}
}

func TestForceRestart(t *testing.T) {
	h := &fakeHook{kind: HookCallback}
	l, _ := newTestLogger(h, 10)
	defer l.Close()

	if err := l.Start(Options{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := l.Start(Options{Force: true}); err != nil {
		t.Fatalf("forced start: %v", err)
	}
	if h.enables.Load() != 2 || h.disables.Load() != 1 || !h.lastForce.Load() {
		t.Fatalf("force must stop then restart: enables=%d disables=%d", h.enables.Load(), h.disables.Load())
	}
}

func TestHookFailureLeavesInactive(t *testing.T) {
	h := &fakeHook{kind: HookCallback, enableErr: ErrInterceptorConflict}
	l, _ := newTestLogger(h, 10)
	defer l.Close()

	if err := l.Start(Options{}); !errors.Is(err, ErrInterceptorConflict) {
		t.Fatalf("want conflict, got %v", err)
	}
	if l.IsLogging() {
		t.Fatalf("failed start must not mark active")
	}
	if err := l.Start(Options{Force: true}); err != nil {
		t.Fatalf("force should override: %v", err)
	}
}

func TestFailedStartKeepsPriorOptions(t *testing.T) {
	h := &fakeHook{kind: HookWrap, enableErr: ErrTransportPatched}
	l, st := newTestLogger(h, 10)
	defer l.Close()
	for i := 0; i < 5; i++ {
		st.Insert(domain.NewRecord(string(rune('a'+i)), "GET", "http://x/"))
	}

	err := l.Start(Options{MaxRequests: intPtr(2), IgnoredHosts: []string{"api.test"}})
	if !errors.Is(err, ErrTransportPatched) {
		t.Fatalf("want ErrTransportPatched, got %v", err)
	}
	info := l.DebugInfo()
	if info.RequestCount != 5 || info.MaxRequests != 10 {
		t.Fatalf("failed start evicted records: count=%d max=%d", info.RequestCount, info.MaxRequests)
	}
	if len(info.IgnoredHosts) != 0 {
		t.Fatalf("failed start installed filters %v", info.IgnoredHosts)
	}
}

func TestObserverMayCallBackDuringStop(t *testing.T) {
	st := memory.NewStore(10)
	// a long delay keeps the clear pending until Stop flushes it
	l := NewNetworkLogger(Deps{Store: st, Hub: NewHub(st.List, time.Hour, nil, nil), Hook: &fakeHook{kind: HookWrap}})
	defer l.Close()
	if err := l.Start(Options{}); err != nil {
		t.Fatalf("start: %v", err)
	}

	seen := make(chan DebugInfo, 1)
	l.AddCallback(func([]domain.Record) {
		select {
		case seen <- l.DebugInfo():
		default:
		}
	})
	l.ClearRequests()

	done := make(chan error, 1)
	go func() { done <- l.Stop() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("stop blocked on an observer reading debug info")
	}
	select {
	case info := <-seen:
		if info.IsLogging {
			t.Fatalf("observer flushed by stop should see logging off")
		}
	default:
		t.Fatalf("stop did not flush the pending notification")
	}
}

func TestNoHookAvailable(t *testing.T) {
	l, _ := newTestLogger(nil, 10)
	defer l.Close()
	if err := l.Start(Options{}); !errors.Is(err, ErrHookUnavailable) {
		t.Fatalf("want ErrHookUnavailable, got %v", err)
	}
	if info := l.DebugInfo(); info.HookType != HookNone || info.IsLogging {
		t.Fatalf("unexpected debug info %+v", info)
	}
}

func TestOptionsApplied(t *testing.T) {
	h := &fakeHook{kind: HookWrap}
	l, st := newTestLogger(h, 10)
	defer l.Close()
	for _, id := range []string{"1", "2", "3", "4"} {
		st.Insert(domain.NewRecord(id, "GET", "http://x/"+id))
	}

	err := l.Start(Options{
		MaxRequests:     intPtr(0),
		IgnoredHosts:    []string{"b.test", "a.test"},
		IgnoredPatterns: []*regexp.Regexp{regexp.MustCompile(`^OPTIONS `)},
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	recs := l.Requests()
	if len(recs) != 1 || recs[0].ID != "4" {
		t.Fatalf("capacity floor of 1 should keep only the newest: %+v", recs)
	}

	info := l.DebugInfo()
	if info.MaxRequests != 1 || info.RequestCount != 1 || !info.IsLogging || info.HookType != HookWrap {
		t.Fatalf("unexpected info %+v", info)
	}
	if len(info.IgnoredHosts) != 2 || info.IgnoredHosts[0] != "a.test" || info.IgnoredPatterns[0] != "^OPTIONS " {
		t.Fatalf("filters not reflected: %+v", info)
	}
	if info.IgnoredURLs == nil {
		t.Fatalf("unset lists should serialize as empty arrays")
	}

	// unset fields keep their value across restarts
	if err := l.Start(Options{Force: true}); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if got := l.DebugInfo(); len(got.IgnoredHosts) != 2 || got.MaxRequests != 1 {
		t.Fatalf("options lost on restart: %+v", got)
	}

	raw, err := json.Marshal(l.DebugInfo())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var generic map[string]any
	_ = json.Unmarshal(raw, &generic)
	for _, k := range []string{"isLogging", "hookType", "hasInterceptor", "hasOriginalTransport", "requestCount", "maxRequests", "ignoredHosts"} {
		if _, ok := generic[k]; !ok {
			t.Fatalf("debug info missing %q: %s", k, raw)
		}
	}
}

func TestClearNotifies(t *testing.T) {
	l, st := newTestLogger(&fakeHook{kind: HookWrap}, 10)
	defer l.Close()
	st.Insert(domain.NewRecord("a", "GET", "http://x/"))

	got := make(chan int, 4)
	unsubscribe := l.Subscribe(func(recs []domain.Record) { got <- len(recs) })
	l.ClearRequests()
	select {
	case n := <-got:
		if n != 0 {
			t.Fatalf("observer should see an empty store, got %d", n)
		}
	case <-time.After(time.Second):
		t.Fatalf("no notification after clear")
	}
	if len(l.Requests()) != 0 {
		t.Fatalf("requests not cleared")
	}
	unsubscribe()
	unsubscribe()
}

func TestAddRemoveCallback(t *testing.T) {
	l, _ := newTestLogger(&fakeHook{kind: HookWrap}, 10)
	defer l.Close()
	id := l.AddCallback(func([]domain.Record) {})
	l.RemoveCallback(id)
	l.RemoveCallback(id)
	if l.hub.Len() != 0 {
		t.Fatalf("callback not removed")
	}
}

func TestRequestsSnapshotIsolation(t *testing.T) {
	l, st := newTestLogger(&fakeHook{kind: HookWrap}, 10)
	defer l.Close()
	st.Insert(domain.NewRecord("a", "GET", "http://x/"))
	snap := l.Requests()
	snap[0].URL = "mutated"
	if l.Requests()[0].URL != "http://x/" {
		t.Fatalf("snapshot mutation leaked into the store")
	}
}

func TestStaleSweep(t *testing.T) {
	l, st := newTestLogger(&fakeHook{kind: HookWrap}, 10)
	defer l.Close()
	rec := domain.NewRecord("old", "GET", "http://x/")
	rec.StartTime -= 10_000
	st.Insert(rec)
	st.Insert(domain.NewRecord("fresh", "GET", "http://x/"))

	stale := time.Second
	if err := l.Start(Options{StaleAfter: &stale}); err != nil {
		t.Fatalf("start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r, _ := st.Get("old"); r.State() == domain.StateFailed {
			if *r.Error != StaleRequestError {
				t.Fatalf("error=%q", *r.Error)
			}
			if f, _ := st.Get("fresh"); f.State() != domain.StateInFlight {
				t.Fatalf("fresh record must stay in flight")
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("stale record was never failed")
}

func TestTestInterceptor(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	st := memory.NewStore(5)
	l := NewNetworkLogger(Deps{Store: st, Hook: &fakeHook{kind: HookWrap}, Client: srv.Client(), SelfTestURL: srv.URL + "/get"})
	defer l.Close()
	if !l.TestInterceptor(context.Background()) {
		t.Fatalf("any response counts as success")
	}
	if hits.Load() != 1 {
		t.Fatalf("hits=%d", hits.Load())
	}

	bad := NewNetworkLogger(Deps{Store: st, SelfTestURL: "http://127.0.0.1:1/unreachable"})
	defer bad.Close()
	if bad.TestInterceptor(context.Background()) {
		t.Fatalf("transport error must report false")
	}
}
