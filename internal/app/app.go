// Package app assembles the network logger from configuration: store, hub,
// capability detection, controller and inspector API.
package app

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/http2"

	"github.com/doanphungtu/tudp-rn-debugger/internal/adapters/hooks"
	"github.com/doanphungtu/tudp-rn-debugger/internal/adapters/storage/memory"
	"github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/config"
	"github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/httpapi"
	"github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/interceptor"
	obs "github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/observability"
	"github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/transport"
	"github.com/doanphungtu/tudp-rn-debugger/internal/usecase"
)

type App struct {
	Cfg     config.Config
	Logger  *zerolog.Logger
	Metrics *obs.Metrics
	Store   *memory.Store
	Hub     *usecase.Hub
	Net     *usecase.NetworkLogger
	Monitor *httpapi.MonitorHub
	// Slot is the transport reference the wrap hook patches.
	Slot transport.Slot
	// Facility is set when the host interceptor was installed at boot.
	Facility *interceptor.Interceptor
	// Client sends requests through whatever Slot currently holds.
	Client *http.Client
}

// New wires an App. A nil slot means http.DefaultTransport when
// cfg.CaptureDefaultTransport is set, otherwise a private transport reference
// seeded with NewBaseTransport.
func New(cfg config.Config, logger *zerolog.Logger, slot transport.Slot) *App {
	if logger == nil {
		logger = obs.Nop()
	}
	switch {
	case slot != nil:
	case cfg.CaptureDefaultTransport:
		slot = transport.Default()
	default:
		var rt http.RoundTripper = NewBaseTransport()
		slot = transport.Var(&rt, "app.transport")
	}
	a := &App{Cfg: cfg, Logger: logger, Metrics: obs.NewMetrics(), Slot: slot}
	a.Store = memory.NewStore(cfg.MaxRequests)
	a.Hub = usecase.NewHub(a.Store.List, time.Duration(cfg.NotifyDelayMs)*time.Millisecond, logger, a.Metrics)
	filters := usecase.NewFilterHolder()

	if cfg.HostInterceptor {
		a.Facility = interceptor.Install(slot)
		a.Facility.SetBodyLimit(int64(cfg.BodyMaxBytes))
	}
	hook := hooks.Detect(a.Facility, slot, hooks.Deps{
		Store:     a.Store,
		Notifier:  a.Hub,
		Filters:   filters,
		Logger:    logger,
		Metrics:   a.Metrics,
		BodyLimit: int64(cfg.BodyMaxBytes),
	})
	a.Client = &http.Client{Transport: transport.Through(slot), Timeout: 30 * time.Second}
	a.Net = usecase.NewNetworkLogger(usecase.Deps{
		Logger:      logger,
		Metrics:     a.Metrics,
		Store:       a.Store,
		Hub:         a.Hub,
		Filters:     filters,
		Hook:        hook,
		Client:      a.Client,
		SelfTestURL: cfg.SelfTestURL,
	})
	a.Monitor = httpapi.NewMonitorHub()
	a.Monitor.Attach(a.Net)
	return a
}

// StartFromConfig starts capturing with the configured options.
func (a *App) StartFromConfig() error {
	opts, err := a.Cfg.LoggerOptions()
	if err != nil {
		return err
	}
	return a.Net.Start(opts)
}

// Handler returns the inspector API.
func (a *App) Handler() http.Handler {
	return httpapi.NewRouter(&httpapi.Deps{
		Cfg:     a.Cfg,
		Logger:  a.Logger,
		Metrics: a.Metrics,
		Net:     a.Net,
		Monitor: a.Monitor,
	})
}

func (a *App) Close() { a.Net.Close() }

// NewBaseTransport clones http.DefaultTransport with HTTP/2 enabled.
func NewBaseTransport() *http.Transport {
	var tr *http.Transport
	if dt, ok := http.DefaultTransport.(*http.Transport); ok {
		tr = dt.Clone()
	} else {
		// DefaultTransport may itself be wrapped by an instrumentation layer
		tr = &http.Transport{Proxy: http.ProxyFromEnvironment, ForceAttemptHTTP2: true}
	}
	_ = http2.ConfigureTransport(tr)
	return tr
}
