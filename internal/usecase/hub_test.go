package usecase

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/doanphungtu/tudp-rn-debugger/internal/domain"
	obs "github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/observability"
)

func staticSnapshot(recs ...domain.Record) func() []domain.Record {
	return func() []domain.Record {
		out := make([]domain.Record, len(recs))
		copy(out, recs)
		return out
	}
}

func TestHubCoalescesBursts(t *testing.T) {
	var calls atomic.Int32
	h := NewHub(staticSnapshot(domain.Record{ID: "a"}), 30*time.Millisecond, nil, nil)
	defer h.Close()
	h.Add(func(recs []domain.Record) {
		if len(recs) != 1 || recs[0].ID != "a" {
			t.Errorf("unexpected snapshot %+v", recs)
		}
		calls.Add(1)
	})

	for i := 0; i < 10; i++ {
		h.Schedule()
		time.Sleep(2 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Fatalf("burst should produce one dispatch, got %d", got)
	}

	h.Schedule()
	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 2 {
		t.Fatalf("a later change should dispatch again, got %d", got)
	}
}

func TestHubObserverPanicIsolated(t *testing.T) {
	m := obs.NewMetrics()
	h := NewHub(staticSnapshot(), time.Millisecond, nil, m)
	defer h.Close()

	var second atomic.Bool
	h.Add(func([]domain.Record) { panic("observer bug") })
	h.Add(func([]domain.Record) { second.Store(true) })

	h.Schedule()
	h.Flush()
	if !second.Load() {
		t.Fatalf("later observers must still run after a panic")
	}
	if got := testutil.ToFloat64(m.ObserverPanics); got != 1 {
		t.Fatalf("panic counter=%v", got)
	}
}

func TestHubRemoveAndUnknownID(t *testing.T) {
	h := NewHub(staticSnapshot(), time.Hour, nil, nil)
	defer h.Close()
	var mu sync.Mutex
	var got []string
	a := h.Add(func([]domain.Record) { mu.Lock(); got = append(got, "a"); mu.Unlock() })
	h.Add(func([]domain.Record) { mu.Lock(); got = append(got, "b"); mu.Unlock() })
	h.Remove(a)
	h.Remove(a)
	h.Remove(CallbackID(999))
	if h.Len() != 1 {
		t.Fatalf("len=%d", h.Len())
	}

	h.Schedule()
	h.Flush()
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("got %v", got)
	}
}

func TestHubFlushWithoutPendingIsNoop(t *testing.T) {
	var calls atomic.Int32
	h := NewHub(staticSnapshot(), time.Hour, nil, nil)
	defer h.Close()
	h.Add(func([]domain.Record) { calls.Add(1) })
	h.Flush()
	if calls.Load() != 0 {
		t.Fatalf("flush must not dispatch without a pending change")
	}
}

func TestHubObserversOwnTheirSlices(t *testing.T) {
	h := NewHub(staticSnapshot(domain.Record{ID: "x", RequestHeaders: map[string]string{"k": "v"}}), time.Hour, nil, nil)
	defer h.Close()
	var seen string
	h.Add(func(recs []domain.Record) { recs[0].RequestHeaders["k"] = "mutated" })
	h.Add(func(recs []domain.Record) { seen = recs[0].RequestHeaders["k"] })
	h.Schedule()
	h.Flush()
	if seen != "v" {
		t.Fatalf("second observer saw %q", seen)
	}
}

func TestHubClosedIgnoresSchedule(t *testing.T) {
	var calls atomic.Int32
	h := NewHub(staticSnapshot(), time.Millisecond, nil, nil)
	h.Add(func([]domain.Record) { calls.Add(1) })
	h.Close()
	h.Schedule()
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatalf("closed hub dispatched")
	}
}
