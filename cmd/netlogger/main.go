package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/doanphungtu/tudp-rn-debugger/internal/app"
	cfgpkg "github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/config"
	obs "github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/observability"
)

var (
	configFile string
	apiURL     string
	noColor    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "netlogger",
		Short:         "In-app HTTP traffic monitor",
		Version:       obs.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", os.Getenv("CONFIG_FILE"), "YAML config file")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:9091", "Inspector API base URL")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(newServeCmd(), newFetchCmd(), newListCmd(), newSelfTestCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (cfgpkg.Config, error) {
	return cfgpkg.LoadFrom(configFile)
}

func newServeCmd() *cobra.Command {
	var (
		addr             string
		defaultTransport bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start capturing and serve the inspector API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("default-transport") {
				cfg.CaptureDefaultTransport = defaultTransport
			}
			return serve(cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides ADDR)")
	cmd.Flags().BoolVar(&defaultTransport, "default-transport", false, "Capture http.DefaultClient traffic (overrides CAPTURE_DEFAULT_TRANSPORT)")
	return cmd
}

func serve(cfg cfgpkg.Config) error {
	logger := obs.NewLoggerWithFile(cfg.LogLevel, obs.FileOutput{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	logger.Info().Str("addr", cfg.Addr).Str("version", obs.Version).Bool("default_transport", cfg.CaptureDefaultTransport).Msg("starting network logger")

	a := app.New(cfg, logger, nil)
	defer a.Close()
	if err := a.StartFromConfig(); err != nil {
		// the API can still start capture later
		logger.Error().Err(err).Msg("capture not started")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	errc := make(chan error, 2)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// Optional TLS listener; net/http negotiates HTTP/2 under TLS.
	var tlsSrv *http.Server
	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		tlsAddr := cfg.TLSAddr
		if tlsAddr == "" {
			tlsAddr = ":9443"
		}
		tlsSrv = &http.Server{
			Addr:              tlsAddr,
			Handler:           a.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		go func() {
			logger.Info().Str("addr", tlsAddr).Msg("starting TLS server (HTTP/2 enabled)")
			if err := tlsSrv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	var runErr error
	select {
	case <-stop:
	case runErr = <-errc:
		logger.Error().Err(runErr).Msg("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	if tlsSrv != nil {
		if err := tlsSrv.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("tls server shutdown error")
		}
	}
	if a.Net.IsLogging() {
		_ = a.Net.Stop()
	}
	logger.Info().Msg("network logger stopped")
	return runErr
}
