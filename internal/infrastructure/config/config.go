package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/doanphungtu/tudp-rn-debugger/internal/usecase"
)

type Config struct {
	Addr            string `yaml:"addr"`
	LogLevel        string `yaml:"log_level"`
	CORSAllowOrigin string `yaml:"cors_allow_origin"`
	// Optional rotating log file, written next to stdout
	LogFile       string `yaml:"log_file"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	// Optional TLS listener for the inspector API (HTTP/2 negotiated via ALPN)
	TLSAddr     string `yaml:"tls_addr"`
	TLSCertFile string `yaml:"tls_cert_file"`
	TLSKeyFile  string `yaml:"tls_key_file"`

	MaxRequests     int      `yaml:"max_requests"`
	IgnoredHosts    []string `yaml:"ignored_hosts"`
	IgnoredURLs     []string `yaml:"ignored_urls"`
	IgnoredPatterns []string `yaml:"ignored_patterns"`
	NotifyDelayMs   int      `yaml:"notify_delay_ms"`
	BodyMaxBytes    int      `yaml:"body_max_bytes"`
	// In-flight records older than this are failed; 0 disables the sweep
	StaleRequestAfterMs int    `yaml:"stale_request_after_ms"`
	SelfTestURL         string `yaml:"selftest_url"`
	Force               bool   `yaml:"force"`
	// HostInterceptor installs the callback facility into the captured
	// transport slot at boot, which makes capability detection pick it.
	HostInterceptor         bool `yaml:"host_interceptor"`
	// CaptureDefaultTransport instruments http.DefaultTransport instead of a
	// private transport, so http.DefaultClient traffic is captured.
	CaptureDefaultTransport bool `yaml:"capture_default_transport"`
	ExposeSensitiveHeaders  bool `yaml:"expose_sensitive_headers"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Addr:                   ":9091",
		LogLevel:               "info",
		CORSAllowOrigin:        "*",
		LogMaxSizeMB:           100,
		LogMaxBackups:          3,
		MaxRequests:            500,
		NotifyDelayMs:          100,
		BodyMaxBytes:           1 << 20,
		SelfTestURL:            usecase.DefaultSelfTestURL,
		ExposeSensitiveHeaders: true,
	}
}

// FromEnv reads the environment on top of Defaults.
func FromEnv() Config {
	cfg := Defaults()
	applyEnv(&cfg)
	return cfg
}

// Load layers Defaults, the YAML file named by CONFIG_FILE (if any) and the
// environment, in that order.
func Load() (Config, error) {
	return LoadFrom(os.Getenv("CONFIG_FILE"))
}

// LoadFrom is Load with an explicit file path; an empty path skips the file.
func LoadFrom(path string) (Config, error) {
	cfg := Defaults()
	if path = strings.TrimSpace(path); path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func overlayFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Addr = getEnv("ADDR", cfg.Addr)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.CORSAllowOrigin = getEnv("CORS_ALLOW_ORIGIN", cfg.CORSAllowOrigin)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	cfg.LogMaxSizeMB = getEnvInt("LOG_MAX_SIZE_MB", cfg.LogMaxSizeMB)
	cfg.LogMaxBackups = getEnvInt("LOG_MAX_BACKUPS", cfg.LogMaxBackups)
	// TLS settings (optional). If cert+key are provided a TLS listener starts on TLS_ADDR
	cfg.TLSAddr = getEnv("TLS_ADDR", cfg.TLSAddr)
	cfg.TLSCertFile = getEnv("TLS_CERT_FILE", cfg.TLSCertFile)
	cfg.TLSKeyFile = getEnv("TLS_KEY_FILE", cfg.TLSKeyFile)

	cfg.MaxRequests = getEnvInt("MAX_REQUESTS", cfg.MaxRequests)
	if v, ok := os.LookupEnv("IGNORED_HOSTS"); ok {
		cfg.IgnoredHosts = splitCSV(v)
	}
	if v, ok := os.LookupEnv("IGNORED_URLS"); ok {
		cfg.IgnoredURLs = splitCSV(v)
	}
	if v, ok := os.LookupEnv("IGNORED_PATTERNS"); ok {
		// regexps routinely contain commas, so patterns go one per line
		cfg.IgnoredPatterns = splitLines(v)
	}
	cfg.NotifyDelayMs = getEnvInt("NOTIFY_DELAY_MS", cfg.NotifyDelayMs)
	cfg.BodyMaxBytes = getEnvInt("BODY_MAX_BYTES", cfg.BodyMaxBytes)
	cfg.StaleRequestAfterMs = getEnvInt("STALE_REQUEST_AFTER_MS", cfg.StaleRequestAfterMs)
	cfg.SelfTestURL = getEnv("SELFTEST_URL", cfg.SelfTestURL)
	cfg.Force = getEnvBool("FORCE", cfg.Force)
	cfg.HostInterceptor = getEnvBool("HOST_INTERCEPTOR", cfg.HostInterceptor)
	cfg.CaptureDefaultTransport = getEnvBool("CAPTURE_DEFAULT_TRANSPORT", cfg.CaptureDefaultTransport)
	// default: expose sensitive headers unless explicitly disabled
	cfg.ExposeSensitiveHeaders = getEnvBool("EXPOSE_SENSITIVE_HEADERS", cfg.ExposeSensitiveHeaders)
}

// LoggerOptions converts the capture settings into Start options. Invalid
// patterns are reported instead of being silently dropped.
func (c Config) LoggerOptions() (usecase.Options, error) {
	maxRequests := c.MaxRequests
	stale := time.Duration(c.StaleRequestAfterMs) * time.Millisecond
	opts := usecase.Options{
		Force:        c.Force,
		MaxRequests:  &maxRequests,
		IgnoredHosts: nonNil(c.IgnoredHosts),
		IgnoredURLs:  nonNil(c.IgnoredURLs),
		StaleAfter:   &stale,
	}
	patterns, err := CompilePatterns(c.IgnoredPatterns)
	if err != nil {
		return opts, err
	}
	opts.IgnoredPatterns = patterns
	return opts, nil
}

// CompilePatterns compiles every expression or reports the first invalid one.
func CompilePatterns(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		re, err := regexp.Compile(e)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", e, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return def
}

// splitCSV splits comma-separated tokens trimming whitespace and skipping empties.
func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func splitLines(s string) []string {
	out := []string{}
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
