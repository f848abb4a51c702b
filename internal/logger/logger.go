// Package logger builds the process slog logger: json on stdout for lambda,
// charmbracelet for terminals, with an optional sentry fan-out.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/cruxstack/lambda-email-sender-go/internal/config"
	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

// New returns a logger for cfg writing to stdout.
func New(cfg *config.Config) *slog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg *config.Config, w io.Writer) *slog.Logger {
	base := baseHandler(cfg, w)

	if cfg.AppSentryDSN == "" {
		return slog.New(newRequestDecorator(base, LambdaRequestID))
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.AppSentryDSN,
		Environment: cfg.AppSentryEnvironment,
		EnableLogs:  true,
	})
	if err != nil {
		slog.New(base).Error("failed to initialize sentry", "error", err)
		return slog.New(newRequestDecorator(base, LambdaRequestID))
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
	}.NewSentryHandler(context.Background())

	return slog.New(newRequestDecorator(newMultiHandler(base, sentryHandler), LambdaRequestID))
}

func baseHandler(cfg *config.Config, w io.Writer) slog.Handler {
	if cfg.AppLogFormat == FormatText {
		return charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(cfg.AppLogLevel),
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
		})
	}

	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.AppLogLevel,
	})
}

// Flush waits for buffered sentry events. It is a no-op without sentry.
func Flush(timeout time.Duration) {
	if sentry.CurrentHub().Client() == nil {
		return
	}
	sentry.Flush(timeout)
}
