package ansistrip

import (
	"io"
	"sync"
	"time"

	"github.com/vtparse/vtparse/internal/vtparse"
)

const (
	// batchDelay is the coalescing deadline measured from the first stripped
	// byte written into an otherwise-empty batch. It is NOT reset by later
	// writes into the same batch — deadline semantics, not debounce.
	batchDelay = 2 * time.Millisecond

	// batchThreshold forces an immediate flush once a batch grows past it,
	// so one very chatty Write can't grow the buffer without bound.
	batchThreshold = 32 * 1024 // 32 KB
)

// Writer wraps a destination io.Writer, stripping VT sequences from every
// Write call and batching the resulting plain text before it reaches dst.
// This keeps a downstream consumer that is slow to accept small writes (a
// network connection, a log file on a loaded disk) from paying a per-Write
// cost for every short Raw run a chatty terminal stream produces.
//
// A Writer must be closed to flush its final partial batch and release its
// background goroutine.
type Writer struct {
	dst io.Writer
	p   *vtparse.Parser

	mu      sync.Mutex
	buf     []byte
	timer   *time.Timer
	armed   bool // true when the deadline timer is running
	err     error
	done    chan struct{}
	closing chan struct{}
}

// NewWriter returns a Writer that strips escape sequences from everything
// written to it and forwards the batched plain text to dst.
func NewWriter(dst io.Writer) *Writer {
	t := time.NewTimer(0)
	if !t.Stop() {
		<-t.C
	}
	w := &Writer{
		dst:     dst,
		p:       vtparse.NewParser(vtparse.ModeOutput),
		buf:     make([]byte, 0, batchThreshold+4096),
		timer:   t,
		done:    make(chan struct{}),
		closing: make(chan struct{}),
	}
	go w.flushLoop()
	return w
}

func (w *Writer) flushLoop() {
	defer close(w.done)
	for {
		// A stopped timer never delivers, so waiting on its channel while
		// disarmed is safe, and a later arm by Write is seen without a
		// wakeup of this loop.
		select {
		case <-w.timer.C:
			w.mu.Lock()
			w.flushLocked()
			w.mu.Unlock()
		case <-w.closing:
			return
		}
	}
}

// Write strips VT sequences from b and appends the remaining text to the
// pending batch, flushing immediately if the size threshold is crossed. It
// always reports len(b) written on success, matching io.Writer's contract
// that a short write is only ever reported via a non-nil error.
func (w *Writer) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return 0, w.err
	}

	over := false
	w.p.Feed(b, func(e vtparse.Event) bool {
		if e.Kind == vtparse.KindRaw && len(e.Data) > 0 {
			if len(w.buf) == 0 && !w.armed {
				w.timer.Reset(batchDelay)
				w.armed = true
			}
			w.buf = append(w.buf, e.Data...)
			if len(w.buf) >= batchThreshold {
				over = true
			}
		}
		return true
	})
	if over {
		w.flushLocked()
	}
	if w.err != nil {
		return 0, w.err
	}
	return len(b), nil
}

// flushLocked writes out the pending batch and disarms the deadline timer.
// w.mu must be held.
func (w *Writer) flushLocked() {
	if w.armed {
		if !w.timer.Stop() {
			select {
			case <-w.timer.C:
			default:
			}
		}
		w.armed = false
	}
	if len(w.buf) == 0 {
		return
	}
	data := w.buf
	w.buf = make([]byte, 0, batchThreshold+4096)
	if _, err := w.dst.Write(data); err != nil {
		w.err = err
	}
}

// Close flushes any buffered text, stops the background flush goroutine,
// and finalizes the parser's trailing state. Close is not safe to call
// concurrently with Write.
func (w *Writer) Close() error {
	close(w.closing)
	<-w.done

	w.mu.Lock()
	w.p.Finish(func(e vtparse.Event) bool { return true })
	w.flushLocked()
	w.timer.Stop()
	err := w.err
	w.mu.Unlock()
	return err
}
