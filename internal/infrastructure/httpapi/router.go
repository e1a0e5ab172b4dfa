package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/config"
	obs "github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/observability"
	"github.com/doanphungtu/tudp-rn-debugger/internal/usecase"
)

type Deps struct {
	Cfg     config.Config
	Logger  *zerolog.Logger
	Metrics *obs.Metrics
	Net     *usecase.NetworkLogger
	Monitor *MonitorHub
}

// NewRouter builds the inspector API. A nil Monitor is replaced by a hub
// attached to d.Net.
func NewRouter(d *Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = obs.Nop()
	}
	if d.Monitor == nil {
		d.Monitor = NewMonitorHub()
		d.Monitor.Attach(d.Net)
	}
	return withCORS(d.Cfg, buildBaseMux(d))
}

// buildBaseMux constructs the mux with all routes, without wrappers.
func buildBaseMux(d *Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry(), promhttp.HandlerOpts{}))

	mux.HandleFunc("/api/version", func(w http.ResponseWriter, r *http.Request) {
		info := obs.BuildInfo()
		info["time"] = time.Now().UTC()
		writeJSON(w, http.StatusOK, info)
	})

	mux.HandleFunc("/api/requests", d.handleRequests)
	mux.HandleFunc("/api/requests.har", d.handleExportHAR)
	// single handler for /api/requests/{id}[/curl]
	mux.HandleFunc("/api/requests/", d.handleRequestByID)
	mux.HandleFunc("/api/requests_stream", d.handleRequestStream)

	mux.HandleFunc("/api/debug", d.handleDebug)
	mux.HandleFunc("/api/selftest", d.handleSelfTest)
	mux.HandleFunc("/api/logging/", func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/api/logging/") {
		case "start":
			d.handleStart(w, r)
		case "stop":
			d.handleStop(w, r)
		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found", nil)
		}
	})

	mux.HandleFunc("/api/monitor/ws", d.Monitor.HandleWS)
	return mux
}

func withCORS(cfg config.Config, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", map[string]any{"method": r.Method})
	return false
}
