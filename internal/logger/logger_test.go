package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

// resetLogger restores default state between tests
func resetLogger() {
	Init(Options{})
}

// --- Init Tests ---

func TestInit_Levels(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		debugShown bool
		infoShown  bool
		warnShown  bool
	}{
		{"default", Options{}, false, true, true},
		{"debug", Options{Debug: true}, true, true, true},
		{"quiet", Options{Quiet: true}, false, false, false},
		{"quiet wins over debug", Options{Debug: true, Quiet: true}, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.opts.Output = buf
			Init(tt.opts)
			defer resetLogger()

			Debug("debug line")
			Info("info line")
			Warn("warn line")
			Error("error line")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.debugShown {
				t.Errorf("debug shown = %v, want %v", got, tt.debugShown)
			}
			if got := strings.Contains(out, "info line"); got != tt.infoShown {
				t.Errorf("info shown = %v, want %v", got, tt.infoShown)
			}
			if got := strings.Contains(out, "warn line"); got != tt.warnShown {
				t.Errorf("warn shown = %v, want %v", got, tt.warnShown)
			}
			if !strings.Contains(out, "error line") {
				t.Error("error should be logged at every level")
			}
		})
	}
}

func TestInit_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{JSON: true, Output: buf})
	defer resetLogger()

	Info("json format test")

	out := buf.String()
	if !strings.Contains(out, "{") || !strings.Contains(out, "}") {
		t.Error("JSON format should produce JSON output")
	}
	if !strings.Contains(out, `"msg"`) {
		t.Error("JSON output should contain msg field")
	}
	if !strings.Contains(out, "json format test") {
		t.Error("JSON output should contain the message")
	}
}

func TestInit_TextFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	Info("text format test")

	out := buf.String()
	if !strings.Contains(out, "text format test") {
		t.Error("text output should contain the message")
	}
	if !strings.Contains(strings.ToUpper(out), "INFO") {
		t.Error("text output should contain level INFO")
	}
}

func TestInit_CustomLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	custom := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	Init(Options{Logger: custom, Quiet: true})
	defer resetLogger()

	// Custom logger wins over every other option, including Quiet.
	Debug("through custom logger")

	if !strings.Contains(buf.String(), "through custom logger") {
		t.Error("custom logger should receive log output")
	}
}

func TestSetLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	SetLogger(slog.New(slog.NewTextHandler(buf, nil)))
	defer resetLogger()

	Info("via SetLogger")

	if !strings.Contains(buf.String(), "via SetLogger") {
		t.Error("SetLogger should replace the package logger")
	}
}

// --- Attribute Tests ---

func TestInfo_WithStructuredArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	Info("worker started", "worker", 3, "proxy", "a.example.com")

	out := buf.String()
	for _, want := range []string{"worker started", "worker", "3", "proxy", "a.example.com"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestWith_ReturnsLoggerWithAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	l := With("component", "rotation")
	if l == nil {
		t.Fatal("With() returned nil")
	}

	l.Info("attached attrs")

	out := buf.String()
	if !strings.Contains(out, "component") || !strings.Contains(out, "rotation") {
		t.Error("expected attached attributes in output")
	}
}

// --- Context Tests ---

func TestContextVariants(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Debug: true, Output: buf})
	defer resetLogger()

	ctx := context.Background()
	DebugContext(ctx, "ctx debug")
	InfoContext(ctx, "ctx info")
	WarnContext(ctx, "ctx warn")
	ErrorContext(ctx, "ctx error")

	out := buf.String()
	for _, want := range []string{"ctx debug", "ctx info", "ctx warn", "ctx error"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
