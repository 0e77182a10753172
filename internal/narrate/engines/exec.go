package engines

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxTextSize is the largest input, in characters, accepted by any engine.
	MaxTextSize = 5000

	// maxOutputSize guards against runaway processes.
	maxOutputSize = 50 * 1024 * 1024
)

// ErrBinaryNotFound is returned when an engine's executable is missing.
var ErrBinaryNotFound = errors.New("speech binary not found")

func checkText(text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("text cannot be empty")
	}
	if n := utf8.RuneCountInString(text); n > MaxTextSize {
		return fmt.Errorf("text too long: %d characters (max %d)", n, MaxTextSize)
	}
	return nil
}

// lookPath returns the first candidate found in PATH.
func lookPath(candidates ...string) (string, error) {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if p, err := exec.LookPath(c); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrBinaryNotFound, strings.Join(candidates, ", "))
}

// run executes a command with stdin pre-configured and returns stdout. The
// process is interrupted, then killed, when timeout elapses or ctx ends.
func run(ctx context.Context, timeout time.Duration, stdin io.Reader, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Not CommandContext: on timeout the process gets an interrupt before
	// it is killed.
	cmd := exec.Command(name, args...) //nolint:gosec
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	cmd.Stdin = stdin
	// Children that inherit stdout must not hold Wait open forever.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("%s failed: %w, stderr: %s", name, err, strings.TrimSpace(stderr.String()))
		}

	case <-ctx.Done():
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case <-done:
		case <-time.After(100 * time.Millisecond):
			_ = cmd.Process.Kill()
			<-done
		}
		return nil, fmt.Errorf("%s timed out: %w", name, ctx.Err())
	}

	out := stdout.Bytes()
	if len(out) == 0 {
		return nil, fmt.Errorf("%s produced no output, stderr: %s", name, strings.TrimSpace(stderr.String()))
	}
	if len(out) > maxOutputSize {
		return nil, fmt.Errorf("%s output too large: %d bytes (max %d)", name, len(out), maxOutputSize)
	}
	return out, nil
}
