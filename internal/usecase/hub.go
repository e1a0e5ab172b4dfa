package usecase

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/doanphungtu/tudp-rn-debugger/internal/domain"
	obs "github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/observability"
)

// DefaultNotifyDelay is the quiet window observers wait for after the last change.
const DefaultNotifyDelay = 100 * time.Millisecond

// Hub coalesces bursts of store changes into one observer dispatch per quiet
// window. Observers always receive a fresh snapshot taken at dispatch time.
type Hub struct {
	log      *zerolog.Logger
	metrics  *obs.Metrics
	delay    time.Duration
	snapshot func() []domain.Record

	mu        sync.Mutex
	timer     *time.Timer
	pending   bool
	closed    bool
	nextID    CallbackID
	observers map[CallbackID]Observer
	order     []CallbackID
}

// NewHub builds a hub reading snapshots from snapshot. A non-positive delay
// selects DefaultNotifyDelay.
func NewHub(snapshot func() []domain.Record, delay time.Duration, log *zerolog.Logger, m *obs.Metrics) *Hub {
	if delay <= 0 {
		delay = DefaultNotifyDelay
	}
	if log == nil {
		log = obs.Nop()
	}
	return &Hub{
		log:       log,
		metrics:   m,
		delay:     delay,
		snapshot:  snapshot,
		observers: make(map[CallbackID]Observer),
	}
}

// Add registers fn and returns the id to remove it with.
func (h *Hub) Add(fn Observer) CallbackID {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	h.observers[id] = fn
	h.order = append(h.order, id)
	return id
}

// Remove unregisters id; unknown ids are ignored.
func (h *Hub) Remove(id CallbackID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.observers[id]; !ok {
		return
	}
	delete(h.observers, id)
	for i, v := range h.order {
		if v == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}

// Schedule restarts the quiet window.
func (h *Hub) Schedule() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.pending = true
	if h.timer == nil {
		h.timer = time.AfterFunc(h.delay, h.fire)
		return
	}
	h.timer.Stop()
	h.timer.Reset(h.delay)
}

// Flush dispatches a pending notification right away.
func (h *Hub) Flush() {
	h.mu.Lock()
	if !h.pending || h.closed {
		h.mu.Unlock()
		return
	}
	if h.timer != nil {
		h.timer.Stop()
	}
	h.pending = false
	targets := h.targetsLocked()
	h.mu.Unlock()
	h.dispatch(targets)
}

// Close stops the timer and drops every observer. Pending notifications are discarded.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.pending = false
	if h.timer != nil {
		h.timer.Stop()
	}
	h.observers = make(map[CallbackID]Observer)
	h.order = nil
}

func (h *Hub) fire() {
	h.mu.Lock()
	if !h.pending || h.closed {
		h.mu.Unlock()
		return
	}
	h.pending = false
	targets := h.targetsLocked()
	h.mu.Unlock()
	h.dispatch(targets)
}

func (h *Hub) targetsLocked() []Observer {
	out := make([]Observer, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.observers[id])
	}
	return out
}

func (h *Hub) dispatch(targets []Observer) {
	if h.snapshot == nil {
		return
	}
	snap := h.snapshot()
	if h.metrics != nil {
		h.metrics.NotificationsSent.Inc()
		inFlight := 0
		for i := range snap {
			if snap[i].State() == domain.StateInFlight {
				inFlight++
			}
		}
		h.metrics.RequestsInFlight.Set(float64(inFlight))
	}
	for i, fn := range targets {
		recs := snap
		if i < len(targets)-1 {
			// every observer owns its records; the last one takes the original
			recs = cloneRecords(snap)
		}
		h.call(fn, recs)
	}
}

func (h *Hub) call(fn Observer, recs []domain.Record) {
	defer func() {
		if r := recover(); r != nil {
			if h.metrics != nil {
				h.metrics.ObserverPanics.Inc()
			}
			h.log.Error().Err(fmt.Errorf("observer panic: %v", r)).Msg("observer callback failed")
		}
	}()
	fn(recs)
}

func cloneRecords(in []domain.Record) []domain.Record {
	out := make([]domain.Record, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
