// Package ansistrip is a thin downstream consumer of vtparse: it discards
// every event except Raw text, producing plain text with all escape
// sequences and control bytes removed. Writer additionally batches that
// plain text before handing it to an io.Writer, so a chatty terminal
// stream doesn't cost a syscall per short Raw run.
package ansistrip

import "github.com/vtparse/vtparse/internal/vtparse"

// StripBytes removes every VT escape sequence and control byte from b,
// returning the remaining printable text. If nothing was stripped, the
// original slice is returned unchanged — no copy is made.
func StripBytes(b []byte) []byte {
	p := vtparse.NewParser(vtparse.ModeOutput)
	out := make([]byte, 0, len(b))
	// Empty input, or a single Raw run spanning the whole input, means
	// nothing was stripped. Input that produced no Raw at all (a lone ESC,
	// an unterminated sequence) strips to nothing.
	unchanged := len(b) == 0
	p.Feed(b, func(e vtparse.Event) bool {
		if e.Kind != vtparse.KindRaw {
			return true
		}
		if len(e.Data) == len(b) {
			// First and only run spans the whole input: nothing to strip.
			unchanged = true
			return true
		}
		out = append(out, e.Data...)
		return true
	})
	p.Finish(func(e vtparse.Event) bool { return true })
	if unchanged {
		return b
	}
	return out
}

// StripString removes every VT escape sequence and control byte from s,
// returning the remaining printable text. If nothing was stripped, the
// original string is returned unchanged — no copy is made.
func StripString(s string) string {
	stripped := StripBytes([]byte(s))
	// Cheap identity check before falling back: StripBytes only returns its
	// input slice verbatim (same length, same bytes) when it found nothing
	// to remove.
	if len(stripped) == len(s) && string(stripped) == s {
		return s
	}
	return string(stripped)
}

// StripBytesCallback feeds b through the parser and invokes fn with each
// Raw chunk as it is produced, without assembling an owned result. fn's
// slice is borrowed and valid only for the duration of the call.
func StripBytesCallback(b []byte, fn func([]byte)) {
	p := vtparse.NewParser(vtparse.ModeOutput)
	p.Feed(b, func(e vtparse.Event) bool {
		if e.Kind == vtparse.KindRaw {
			fn(e.Data)
		}
		return true
	})
	p.Finish(func(e vtparse.Event) bool { return true })
}
