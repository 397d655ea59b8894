package observability

import (
	"io"
	"log/slog"
	"os"
)

// LoggerForEnvironment builds the logger for an APP_ENV and LOG_LEVEL pair:
// JSON on stdout in production, text on stderr elsewhere, debug level in
// development.
func LoggerForEnvironment(appEnv, level, version string, out io.Writer) *slog.Logger {
	cfg := DefaultLogConfig()
	if appEnv == "production" {
		cfg = ProductionLogConfig()
	}
	if level != "" {
		cfg.Level = LogLevel(level)
	}
	if appEnv == "development" {
		cfg.Level = LogLevelDebug
	}
	if version != "" {
		cfg.ServiceVersion = version
	}
	if out != nil {
		cfg.Output = out
	} else if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	return NewLogger(cfg)
}
