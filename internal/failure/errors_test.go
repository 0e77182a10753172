package failure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorIsSentinelAndCause(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		sentinel error
	}{
		{"generation", Generation("timeout", context.DeadlineExceeded), ErrGenerationUnavailable},
		{"narration", Narration("no engine", context.DeadlineExceeded), ErrNarrationUnavailable},
		{"corrupt", Corrupt("bad json", context.DeadlineExceeded), ErrCorruptHistory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false", wrapped)
			}
			if !errors.Is(wrapped, context.DeadlineExceeded) {
				t.Errorf("errors.Is(%v, cause) = false", wrapped)
			}
			code, ok := CodeOf(wrapped)
			if !ok || code != tt.err.Code {
				t.Errorf("CodeOf = %q, %v; want %q", code, ok, tt.err.Code)
			}
		})
	}
}

func TestErrorWithoutCause(t *testing.T) {
	err := Invalid("message is blank")
	if !errors.Is(err, ErrInvalidInput) {
		t.Error("expected ErrInvalidInput")
	}
	if errors.Is(err, ErrGenerationUnavailable) {
		t.Error("did not expect ErrGenerationUnavailable")
	}
	if got := err.Error(); got != "INVALID_INPUT: message is blank" {
		t.Errorf("Error() = %q", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(nil); got != "" {
		t.Errorf("UserMessage(nil) = %q", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
	got := UserMessage(fmt.Errorf("wrap: %w", Generation("API key is missing", nil)))
	if !strings.Contains(got, "API key is missing") || strings.Contains(got, "GENERATION_UNAVAILABLE") {
		t.Errorf("UserMessage = %q", got)
	}
}

func TestWithContext(t *testing.T) {
	err := Narration("both engines failed", nil).WithContext("engine", "espeak")
	if err.Context["engine"] != "espeak" {
		t.Errorf("context = %v", err.Context)
	}
}
