// Package hooks implements the two transport interception strategies: the
// callback hook driven by the host interceptor facility, and the wrap hook that
// replaces the transport slot with an instrumented round tripper.
package hooks

import (
	"github.com/rs/zerolog"

	"github.com/doanphungtu/tudp-rn-debugger/internal/domain"
	"github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/interceptor"
	obs "github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/observability"
	"github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/transport"
	"github.com/doanphungtu/tudp-rn-debugger/internal/usecase"
)

// Deps are shared by both hooks.
type Deps struct {
	Store     usecase.RequestRepository
	Notifier  usecase.Notifier
	Filters   *usecase.FilterHolder
	Logger    *zerolog.Logger
	Metrics   *obs.Metrics
	BodyLimit int64
}

// Detect picks exactly one strategy: the callback hook when the host exposes
// an interceptor facility, otherwise the wrap hook over slot. It returns nil
// when neither is available.
func Detect(facility *interceptor.Interceptor, slot transport.Slot, d Deps) usecase.Hook {
	if facility != nil {
		return NewCallbackHook(facility, d)
	}
	if slot != nil {
		return NewWrapHook(slot, d)
	}
	return nil
}

type recorder struct {
	Deps
	kind usecase.HookKind
}

func newRecorder(d Deps, kind usecase.HookKind) recorder {
	if d.Logger == nil {
		d.Logger = obs.Nop()
	}
	if d.Filters == nil {
		d.Filters = usecase.NewFilterHolder()
	}
	if d.BodyLimit <= 0 {
		d.BodyLimit = interceptor.DefaultBodyLimit
	}
	return recorder{Deps: d, kind: kind}
}

func (r recorder) ignored(method, url string) bool {
	if !r.Filters.Load().ShouldIgnore(method, url) {
		return false
	}
	if r.Metrics != nil {
		r.Metrics.RequestsFiltered.WithLabelValues(string(r.kind)).Inc()
	}
	return true
}

func (r recorder) insert(rec *domain.Record) {
	evicted := r.Store.Insert(rec)
	if r.Metrics != nil {
		r.Metrics.RequestsCaptured.WithLabelValues(string(r.kind)).Inc()
		if evicted > 0 {
			r.Metrics.EvictionsTotal.Add(float64(evicted))
		}
	}
	r.notify()
}

func (r recorder) failed() {
	if r.Metrics != nil {
		r.Metrics.RequestsFailed.WithLabelValues(string(r.kind)).Inc()
	}
}

func (r recorder) notify() {
	if r.Notifier != nil {
		r.Notifier.Schedule()
	}
}
