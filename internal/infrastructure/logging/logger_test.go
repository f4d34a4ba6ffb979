package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/loopmarket/treasury/internal/domain"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLoggerAnnotatesFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = domain.WithUser(ctx, &domain.User{ID: "acct-1", Role: domain.RoleMember})

	output := captureStdout(t, func() {
		New(slog.LevelInfo, "json").InfoCtx(ctx, "test message")
	})

	if !strings.Contains(output, `"request_id":"req-1"`) {
		t.Fatalf("expected request_id in output, got %q", output)
	}
	if !strings.Contains(output, `"account_id":"acct-1"`) {
		t.Fatalf("expected account_id in output, got %q", output)
	}
}

func TestLoggerFormats(t *testing.T) {
	for _, format := range []string{"json", "text", ""} {
		output := captureStdout(t, func() {
			New(slog.LevelInfo, format).Info("formatted output")
		})

		if output == "" {
			t.Fatalf("format %q produced no output", format)
		}
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w
	defer func() {
		os.Stdout = oldStdout
	}()

	fn()

	_ = w.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("failed to read stdout: %v", err)
	}

	return buf.String()
}
