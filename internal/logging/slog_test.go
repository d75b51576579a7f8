package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"
)

func newTestLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	l := slog.New(h)
	return NewSlogLogger(l), &buf
}

func TestSlogLogger_Levels_WriteExpectedOutput(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()

	tests := []struct {
		level string
		msg   string
		key   string
		val   string
	}{
		{"DEBUG", "dbg", "a", "1"},
		{"INFO", "inf", "b", "2"},
		{"WARN", "wrn", "c", "3"},
		{"ERROR", "err", "d", "4"},
	}

	for _, tc := range tests {
		if !strings.Contains(out, "level="+tc.level) {
			t.Fatalf("expected line with level=%s in output:\n%s", tc.level, out)
		}
		if !strings.Contains(out, "msg="+tc.msg) {
			t.Fatalf("expected line with msg=%q in output:\n%s", tc.msg, out)
		}
		if !strings.Contains(out, tc.key+"="+tc.val) {
			t.Fatalf("expected attribute %s=%s in output:\n%s", tc.key, tc.val, out)
		}
	}
}

func TestSlogLogger_With_AddsAttributes(t *testing.T) {
	log, buf := newTestLogger(t)
	ctx := context.Background()

	log2 := log.With("req_id", "123", "module", "rest")
	log2.Info(ctx, "hello", "k", "v")

	out := buf.String()
	for _, s := range []string{"level=INFO", "msg=hello", "req_id=123", "module=rest", "k=v"} {
		if !strings.Contains(out, s) {
			t.Fatalf("expected %q in output, got:\n%s", s, out)
		}
	}
}

func TestNewJSONLogger_DebugToggle(t *testing.T) {
	ctx := context.Background()

	var quiet bytes.Buffer
	NewJSONLogger(&quiet, false).Debug(ctx, "hidden")
	if quiet.Len() != 0 {
		t.Fatalf("debug record must be dropped when debug is off, got %s", quiet.String())
	}

	var verbose bytes.Buffer
	NewJSONLogger(&verbose, true).Debug(ctx, "shown", "k", "v")

	var rec map[string]any
	if err := json.Unmarshal(verbose.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON record: %v (%s)", err, verbose.String())
	}
	if rec["msg"] != "shown" || rec["level"] != "DEBUG" || rec["k"] != "v" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestNewNopLogger_DoesNotPanic(t *testing.T) {
	log := NewNopLogger()
	ctx := context.TODO()
	log.Debug(ctx, "x")
	log.Info(ctx, "x")
	log.Warn(ctx, "x")
	log.Error(ctx, "x")
	log.With("a", 1).Info(ctx, "x")
}

func TestMaskEmail(t *testing.T) {
	tests := map[string]string{
		"amina@example.com": "a****@example.com",
		"a@example.com":     "a@example.com",
		"no-at-sign":        "***",
		"@example.com":      "***",
		"":                  "***",
		"élodie@example.fr": "é*****@example.fr",
		"Ωmega@example.com": "Ω****@example.com",
		"李@example.cn":      "李@example.cn",
	}
	for in, want := range tests {
		got := MaskEmail(in)
		if got != want {
			t.Fatalf("MaskEmail(%q) = %q, want %q", in, got, want)
		}
		if !utf8.ValidString(got) {
			t.Fatalf("MaskEmail(%q) produced invalid UTF-8 %q", in, got)
		}
	}
}
