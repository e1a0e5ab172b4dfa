package observability

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileOutput configures an optional rotating log file next to stdout.
type FileOutput struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
}

func NewLogger(level string) *zerolog.Logger {
	return NewLoggerTo(level, os.Stdout)
}

// NewLoggerWithFile logs to stdout and, when f.Path is set, to a rotating file.
func NewLoggerWithFile(level string, f FileOutput) *zerolog.Logger {
	if f.Path == "" {
		return NewLogger(level)
	}
	rotating := &lumberjack.Logger{
		Filename:   f.Path,
		MaxSize:    f.MaxSizeMB,
		MaxBackups: f.MaxBackups,
		Compress:   true,
	}
	return NewLoggerTo(level, zerolog.MultiLevelWriter(os.Stdout, rotating))
}

func NewLoggerTo(level string, w io.Writer) *zerolog.Logger {
	lvl := zerolog.InfoLevel
	switch strings.ToLower(level) {
	case "debug":
		lvl = zerolog.DebugLevel
	case "warn":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}
	logger := zerolog.New(w).Level(lvl).With().Timestamp().Str("component", "network-logger").Logger()
	return &logger
}

// Nop returns a logger that discards everything.
func Nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
