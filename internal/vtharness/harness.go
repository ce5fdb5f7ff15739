// Package vtharness spawns a real shell in a pseudo-terminal and feeds its
// output through vtparse, so tests can exercise the state machine against a
// genuine terminal program's byte stream instead of only hand-written
// literals.
package vtharness

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/creack/pty"
	"golang.org/x/term"

	"github.com/vtparse/vtparse/internal/vtparse"
)

// Harness owns one spawned shell and the PTY master attached to it.
type Harness struct {
	ptmx *os.File
	cmd  *exec.Cmd
}

// Spawn starts a shell in a new PTY with a 24x80 default size. Shell is
// $SHELL or /bin/sh. If term is empty, the spawned shell's TERM is set to
// xterm-256color unless the calling process is not attached to a real
// terminal, in which case "dumb" is used instead — a test harness run from
// a CI pipe shouldn't ask a shell to emit color codes it can't be certain
// are wanted.
func Spawn(termName string) (*Harness, error) {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}

	cmd := exec.Command(shell)
	shellBase := filepath.Base(shell)
	cmd.Args[0] = "-" + shellBase

	termName = sanitizeTerm(termName)

	var env []string
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, "TERM=") {
			env = append(env, e)
		}
	}
	cmd.Env = append(env, "TERM="+termName)

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 24, Cols: 80})
	if err != nil {
		return nil, fmt.Errorf("start PTY: %w", err)
	}
	return &Harness{ptmx: ptmx, cmd: cmd}, nil
}

// sanitizeTerm validates a TERM value, falling back to a sensible default
// when empty or suspicious. When the calling process has no real terminal
// attached, the default is "dumb" rather than a color-capable value.
func sanitizeTerm(termName string) string {
	if termName == "" {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return "xterm-256color"
		}
		return "dumb"
	}
	if len(termName) > 128 {
		return "xterm-256color"
	}
	for _, c := range termName {
		if c < 0x20 || c == '=' || c > 0x7e {
			return "xterm-256color"
		}
	}
	return termName
}

// Resize sets the PTY to the given dimensions.
func (h *Harness) Resize(rows, cols uint16) error {
	return pty.Setsize(h.ptmx, &pty.Winsize{Rows: rows, Cols: cols})
}

// Write sends bytes to the shell's stdin, as if typed at a keyboard.
func (h *Harness) Write(b []byte) (int, error) {
	return h.ptmx.Write(b)
}

// Drain reads from the PTY until the shell exits or the master closes —
// on Linux a dead child surfaces as an I/O error on the master, not a clean
// EOF, so any read error ends the stream the same way. Every byte read is
// fed through a Parser in ModeOutput and sink is invoked for each event.
func (h *Harness) Drain(sink vtparse.Sink) error {
	p := vtparse.NewParser(vtparse.ModeOutput)
	buf := make([]byte, 32*1024)
	for {
		n, err := h.ptmx.Read(buf)
		if n > 0 {
			aborted := false
			p.Feed(buf[:n], func(e vtparse.Event) bool {
				if !sink(e) {
					aborted = true
					return false
				}
				return true
			})
			if aborted {
				return nil
			}
		}
		if err != nil {
			p.Finish(sink)
			return nil
		}
	}
}

// Close terminates the shell and releases the PTY master.
func (h *Harness) Close() error {
	_ = h.cmd.Process.Kill()
	_ = h.cmd.Wait()
	return h.ptmx.Close()
}
