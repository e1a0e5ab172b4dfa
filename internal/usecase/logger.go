package usecase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/doanphungtu/tudp-rn-debugger/internal/domain"
	obs "github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/observability"
)

// DefaultSelfTestURL is the endpoint TestInterceptor probes when none is configured.
const DefaultSelfTestURL = "https://httpbin.org/get?test=tudp-debugger"

// StaleRequestError is recorded on in-flight records failed by the stale sweep.
const StaleRequestError = "request timed out waiting for a response"

// Options configure a Start call. Nil or unset fields keep their current value.
type Options struct {
	// Force stops and restarts an active logger and overrides a foreign
	// interceptor or transport patch.
	Force           bool
	MaxRequests     *int
	IgnoredHosts    []string
	IgnoredURLs     []string
	IgnoredPatterns []*regexp.Regexp
	// StaleAfter enables the stale sweep when positive.
	StaleAfter *time.Duration
}

// DebugInfo is a diagnostic snapshot of the controller.
type DebugInfo struct {
	IsLogging            bool     `json:"isLogging"`
	HookType             HookKind `json:"hookType"`
	HasInterceptor       bool     `json:"hasInterceptor"`
	InterceptorEnabled   bool     `json:"interceptorEnabled"`
	HasOriginalTransport bool     `json:"hasOriginalTransport"`
	RequestCount         int      `json:"requestCount"`
	MaxRequests          int      `json:"maxRequests"`
	IgnoredHosts         []string `json:"ignoredHosts"`
	IgnoredURLs          []string `json:"ignoredUrls"`
	IgnoredPatterns      []string `json:"ignoredPatterns"`
	StaleAfterMs         int64    `json:"staleAfterMs"`
}

// Deps are the collaborators a NetworkLogger is assembled from.
type Deps struct {
	Logger  *zerolog.Logger
	Metrics *obs.Metrics
	Store   RequestRepository
	Hub     *Hub
	Filters *FilterHolder
	// Hook is the strategy selected by capability detection; nil when the
	// process exposes neither an interceptor facility nor a transport slot.
	Hook Hook
	// Client sends the self-test request through the instrumented transport.
	Client      *http.Client
	SelfTestURL string
}

// NetworkLogger is the public controller: lifecycle, retention and observers.
type NetworkLogger struct {
	log         *zerolog.Logger
	metrics     *obs.Metrics
	store       RequestRepository
	hub         *Hub
	filters     *FilterHolder
	hook        Hook
	client      *http.Client
	selfTestURL string

	mu         sync.Mutex
	active     bool
	staleAfter time.Duration
	sweepStop  context.CancelFunc
	sweepDone  chan struct{}
}

func NewNetworkLogger(d Deps) *NetworkLogger {
	if d.Logger == nil {
		d.Logger = obs.Nop()
	}
	if d.Filters == nil {
		d.Filters = NewFilterHolder()
	}
	if d.Hub == nil {
		d.Hub = NewHub(d.Store.List, 0, d.Logger, d.Metrics)
	}
	if d.Client == nil {
		d.Client = &http.Client{Timeout: 15 * time.Second}
	}
	if d.SelfTestURL == "" {
		d.SelfTestURL = DefaultSelfTestURL
	}
	return &NetworkLogger{
		log:         d.Logger,
		metrics:     d.Metrics,
		store:       d.Store,
		hub:         d.Hub,
		filters:     d.Filters,
		hook:        d.Hook,
		client:      d.Client,
		selfTestURL: d.SelfTestURL,
	}
}

// Start begins capturing. An active logger is left alone unless opts.Force is
// set, in which case it is fully stopped and restarted. Options take effect
// only once the hook is installed; a failed start leaves them untouched.
func (l *NetworkLogger) Start(opts Options) error {
	l.mu.Lock()
	restarted := false
	if l.active {
		if !opts.Force {
			l.mu.Unlock()
			l.log.Warn().Msg("network logging already active, use force to restart")
			return ErrAlreadyActive
		}
		l.stopLocked()
		restarted = true
	}
	err := l.startLocked(opts)
	l.mu.Unlock()
	// observers may call back into the logger, so they run unlocked
	if restarted {
		l.hub.Flush()
	}
	return err
}

func (l *NetworkLogger) startLocked(opts Options) error {
	if l.hook == nil {
		l.log.Warn().Err(ErrHookUnavailable).Msg("network logging not started")
		return ErrHookUnavailable
	}
	if err := l.hook.Enable(opts.Force); err != nil {
		l.log.Warn().Err(err).Str("hook", string(l.hook.Kind())).Msg("network logging not started")
		return err
	}
	l.applyLocked(opts)
	l.active = true
	if l.staleAfter > 0 {
		l.startSweepLocked()
	}
	l.log.Info().
		Str("hook", string(l.hook.Kind())).
		Int("max_requests", l.store.Capacity()).
		Bool("force", opts.Force).
		Msg("network logging started")
	return nil
}

func (l *NetworkLogger) applyLocked(opts Options) {
	if opts.MaxRequests != nil {
		if evicted := l.store.SetCapacity(*opts.MaxRequests); evicted > 0 {
			if l.metrics != nil {
				l.metrics.EvictionsTotal.Add(float64(evicted))
			}
			l.hub.Schedule()
		}
	}
	if opts.IgnoredHosts != nil || opts.IgnoredURLs != nil || opts.IgnoredPatterns != nil {
		p := l.filters.Load()
		if opts.IgnoredHosts != nil {
			p.IgnoredHosts = domain.StringSet(opts.IgnoredHosts)
		}
		if opts.IgnoredURLs != nil {
			p.IgnoredURLs = domain.StringSet(opts.IgnoredURLs)
		}
		if opts.IgnoredPatterns != nil {
			p.IgnoredPatterns = append([]*regexp.Regexp(nil), opts.IgnoredPatterns...)
		}
		l.filters.Store(p)
	}
	if opts.StaleAfter != nil {
		l.staleAfter = *opts.StaleAfter
	}
}

// Stop uninstalls the active hook. Stopping an inactive logger only logs a
// warning and reports ErrNotActive.
func (l *NetworkLogger) Stop() error {
	l.mu.Lock()
	if !l.active {
		l.mu.Unlock()
		l.log.Warn().Msg("network logging is not active")
		return ErrNotActive
	}
	l.stopLocked()
	l.mu.Unlock()
	l.hub.Flush()
	l.log.Info().Msg("network logging stopped")
	return nil
}

// stopLocked uninstalls the hook. Callers flush the hub after releasing l.mu.
func (l *NetworkLogger) stopLocked() {
	l.hook.Disable()
	l.stopSweepLocked()
	l.active = false
}

func (l *NetworkLogger) IsLogging() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Requests returns a snapshot, newest first. Mutating it has no effect on the store.
func (l *NetworkLogger) Requests() []domain.Record { return l.store.List() }

// Request looks up a single record by id.
func (l *NetworkLogger) Request(id string) (domain.Record, bool) { return l.store.Get(id) }

func (l *NetworkLogger) ClearRequests() {
	l.store.Clear()
	l.hub.Schedule()
}

func (l *NetworkLogger) DebugInfo() DebugInfo {
	l.mu.Lock()
	active, stale := l.active, l.staleAfter
	l.mu.Unlock()

	view := l.filters.Load().Describe()
	info := DebugInfo{
		IsLogging:       active,
		HookType:        HookNone,
		RequestCount:    l.store.Count(),
		MaxRequests:     l.store.Capacity(),
		IgnoredHosts:    nonNil(view.IgnoredHosts),
		IgnoredURLs:     nonNil(view.IgnoredURLs),
		IgnoredPatterns: nonNil(view.IgnoredPatterns),
		StaleAfterMs:    stale.Milliseconds(),
	}
	if l.hook != nil {
		st := l.hook.State()
		info.HookType = st.Kind
		info.HasInterceptor = st.HasInterceptor
		info.InterceptorEnabled = st.InterceptorEnabled
		info.HasOriginalTransport = st.HasOriginalTransport
	}
	return info
}

// TestInterceptor sends one diagnostic GET through the instrumented client.
// It reports whether a response came back at all, whatever its status.
func (l *NetworkLogger) TestInterceptor(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.selfTestURL, nil)
	if err != nil {
		l.log.Error().Err(fmt.Errorf("build self-test request: %w", err)).Str("url", l.selfTestURL).Msg("interceptor test failed")
		return false
	}
	l.log.Info().Str("url", l.selfTestURL).Msg("testing interceptor")
	resp, err := l.client.Do(req)
	if err != nil {
		l.log.Warn().Err(err).Str("url", l.selfTestURL).Msg("interceptor test failed")
		return false
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	l.log.Info().Int("status", resp.StatusCode).Int("request_count", l.store.Count()).Msg("interceptor test completed")
	return true
}

func (l *NetworkLogger) AddCallback(fn Observer) CallbackID { return l.hub.Add(fn) }

func (l *NetworkLogger) RemoveCallback(id CallbackID) { l.hub.Remove(id) }

// Subscribe registers fn and returns a func that unregisters it.
func (l *NetworkLogger) Subscribe(fn Observer) func() {
	id := l.hub.Add(fn)
	var once sync.Once
	return func() { once.Do(func() { l.hub.Remove(id) }) }
}

// Close stops capturing and shuts the notification hub down.
func (l *NetworkLogger) Close() {
	l.mu.Lock()
	wasActive := l.active
	if wasActive {
		l.stopLocked()
	}
	l.mu.Unlock()
	if wasActive {
		l.hub.Flush()
	}
	l.hub.Close()
}

func (l *NetworkLogger) startSweepLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	l.sweepStop, l.sweepDone = cancel, done
	staleAfter := l.staleAfter
	interval := staleAfter / 2
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	if interval > 5*time.Second {
		interval = 5 * time.Second
	}
	go func() {
		defer close(done)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.sweep(staleAfter)
			}
		}
	}()
}

func (l *NetworkLogger) stopSweepLocked() {
	if l.sweepStop == nil {
		return
	}
	l.sweepStop()
	<-l.sweepDone
	l.sweepStop, l.sweepDone = nil, nil
}

func (l *NetworkLogger) sweep(staleAfter time.Duration) {
	now := domain.NowMillis()
	ids := l.store.FailStale(now-staleAfter.Milliseconds(), now, StaleRequestError)
	if len(ids) == 0 {
		return
	}
	if l.metrics != nil {
		l.metrics.StaleRequests.Add(float64(len(ids)))
	}
	l.log.Warn().Strs("ids", ids).Dur("stale_after", staleAfter).Msg("failed stale in-flight requests")
	l.hub.Schedule()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
