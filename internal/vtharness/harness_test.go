package vtharness

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/vtparse/vtparse/internal/vtparse"
)

// readUntil drains events from h until buf contains substr or the timeout
// expires, returning the accumulated Raw text.
func readUntil(t *testing.T, h *Harness, substr string, timeout time.Duration) string {
	t.Helper()
	var buf bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- h.Drain(func(e vtparse.Event) bool {
			if e.Kind == vtparse.KindRaw {
				buf.Write(e.Data)
			}
			return !strings.Contains(buf.String(), substr)
		})
	}()

	deadline := time.After(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		if strings.Contains(buf.String(), substr) {
			return buf.String()
		}
		select {
		case <-deadline:
			t.Fatalf("timeout waiting for %q in output (got: %q)", substr, buf.String())
		case <-done:
			if strings.Contains(buf.String(), substr) {
				return buf.String()
			}
			t.Fatalf("shell output ended before %q appeared (got: %q)", substr, buf.String())
		case <-ticker.C:
		}
	}
}

func TestHarnessBasicIO(t *testing.T) {
	h, err := Spawn("dumb")
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	defer h.Close()

	marker := "VTHARNESS_TEST_MARKER_12345"
	if _, err := h.Write([]byte("echo " + marker + "\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	output := readUntil(t, h, marker, 5*time.Second)
	if !strings.Contains(output, marker) {
		t.Fatalf("marker not found in output: %q", output)
	}
}

func TestHarnessResize(t *testing.T) {
	h, err := Spawn("dumb")
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	defer h.Close()

	if err := h.Resize(40, 120); err != nil {
		t.Fatalf("resize: %v", err)
	}
}

func TestSanitizeTermRejectsControlBytes(t *testing.T) {
	got := sanitizeTerm("xterm\x1b[31m")
	if got != "xterm-256color" {
		t.Fatalf("got %q, want fallback", got)
	}
}

func TestSanitizeTermPassesThroughPlainValue(t *testing.T) {
	got := sanitizeTerm("screen-256color")
	if got != "screen-256color" {
		t.Fatalf("got %q", got)
	}
}
