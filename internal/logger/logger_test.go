package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/cruxstack/lambda-email-sender-go/internal/config"
)

func TestNew_JSONWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&config.Config{AppLogLevel: slog.LevelInfo}, &buf)

	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{
		AwsRequestID: "req-123",
	})
	l.InfoContext(ctx, "email sent", "message_id", "m-1")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected json record, got %q: %v", buf.String(), err)
	}
	if rec["aws_request_id"] != "req-123" {
		t.Errorf("expected aws_request_id, got %v", rec["aws_request_id"])
	}
	if rec["message_id"] != "m-1" || rec["msg"] != "email sent" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestNew_WithoutLambdaContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&config.Config{AppLogLevel: slog.LevelInfo}, &buf)

	l.Info("startup")

	if strings.Contains(buf.String(), "aws_request_id") {
		t.Errorf("expected no request id outside an invocation, got %q", buf.String())
	}
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&config.Config{AppLogLevel: slog.LevelWarn}, &buf)

	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&config.Config{AppLogLevel: slog.LevelDebug, AppLogFormat: FormatText}, &buf)

	l.Debug("local server listening", "port", "3000")

	out := buf.String()
	if !strings.Contains(out, "local server listening") || !strings.Contains(out, "3000") {
		t.Errorf("unexpected output %q", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("expected text output, got json %q", out)
	}
}

type countingHandler struct {
	level slog.Level
	count int
}

func (h *countingHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.level }
func (h *countingHandler) Handle(context.Context, slog.Record) error {
	h.count++
	return nil
}
func (h *countingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *countingHandler) WithGroup(string) slog.Handler      { return h }

func TestMultiHandler(t *testing.T) {
	all := &countingHandler{level: slog.LevelDebug}
	errorsOnly := &countingHandler{level: slog.LevelError}
	l := slog.New(newMultiHandler(all, errorsOnly))

	l.Info("a")
	l.Error("b")

	if all.count != 2 {
		t.Errorf("expected 2 records, got %d", all.count)
	}
	if errorsOnly.count != 1 {
		t.Errorf("expected 1 record, got %d", errorsOnly.count)
	}
}

func TestFlush_NoSentry(t *testing.T) {
	// must not block or panic without an initialized client
	Flush(0)
}
