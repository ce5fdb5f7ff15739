// Package vtparse implements a streaming, push-style parser for the VT
// (DEC/ECMA-48/ANSI) terminal byte protocol. Callers feed arbitrary byte
// slices through Feed and receive a sequence of semantic events describing
// the stream — printable text runs, C0 controls, escape/CSI/DCS/OSC
// sequences — via a synchronous callback.
//
// The automaton is derived from Paul Williams' VT500 parser, with two
// variants sharing one state machine: ModeOutput (terminal-to-screen) and ModeInput
// (keyboard-to-program, which additionally recognizes single-shifts and
// bracketed paste). See Mode for the exact differences.
//
// A Parser is not safe for concurrent use, but independent Parser values
// share no state and may run on separate goroutines freely.
package vtparse

type pstate byte

const (
	stGround pstate = iota
	stEscape
	stEscapeIntermediate
	stCsiEntry
	stCsiParam
	stCsiIntermediate
	stCsiIgnore
	stDcsEntry
	stDcsParam
	stDcsIntermediate
	stDcsPassthrough
	stDcsEsc
	stDcsIgnore
	stDcsIgnoreEsc
	stOscString
	stOscEsc
	stSosPmApc
	stSosPmApcEsc
	stPasteBody
	stSingleShift
)

var pastePattern = [...]byte{bsESC, '[', '2', '0', '1', '~'}

// Parser holds the full state of one VT byte-stream decode. Zero value is
// not usable; construct with NewParser.
type Parser struct {
	mode Mode

	state      pstate
	params     *paramBuffer
	ints       intermediateBuffer
	private    byte
	hasPrivate bool
	ssKind     Kind // pending Ss2/Ss3 waiting on its shifted character

	pasteMatch int // count of pastePattern bytes matched so far, in PasteBody
}

// NewParser returns a Parser configured for the given mode (ModeOutput or
// ModeInput, or a custom Mode value).
func NewParser(mode Mode) *Parser {
	return &Parser{
		mode:   mode,
		params: newParamBuffer(),
	}
}

// Feed parses data and invokes sink for each event produced, in
// byte-arrival order. Sink is called synchronously and may be invoked zero
// or more times. Event payloads that borrow from data or from the parser's
// internal buffers are valid only for the duration of each sink call.
//
// Feed returns early, leaving remaining bytes in data unprocessed, if sink
// returns false.
func (p *Parser) Feed(data []byte, sink Sink) {
	i := 0
	n := len(data)
	for i < n {
		var ok bool
		switch p.state {
		case stGround:
			i, ok = p.feedGround(data, i, sink)
		case stPasteBody:
			i, ok = p.feedPasteBody(data, i, sink)
		case stDcsPassthrough:
			i, ok = p.feedDcsPassthrough(data, i, sink)
		case stDcsIgnore:
			i, ok = p.feedDcsIgnore(data, i, sink)
		case stOscString:
			i, ok = p.feedOscString(data, i, sink)
		case stSosPmApc:
			i, ok = p.feedSosPmApc(data, i, sink)
		case stCsiIgnore:
			i, ok = p.feedCsiIgnore(data, i, sink)
		default:
			ok = p.stepByte(data[i], sink)
			i++
		}
		if !ok {
			return
		}
	}
}

// Finish flushes any state that can be safely closed at end of stream: a
// bare pending ESC (Escape state with no further bytes) becomes C0(0x1B) in
// output mode or a completed Esc('', ESC) in input mode. Any sequence
// mid-flight in CSI/DCS/OSC/SOS/PM/APC is dropped without emission, per the
// observed "never fails" contract. An unterminated bracketed paste stays
// open: its body was already emitted as Raw, and only a held partial
// terminator match is flushed as Raw. Calling Finish twice produces the
// same (empty, after the first call) result as calling it once.
func (p *Parser) Finish(sink Sink) {
	if p.state == stPasteBody {
		if p.pasteMatch > 0 {
			sink(Event{Kind: KindRaw, Data: append([]byte(nil), pastePattern[:p.pasteMatch]...)})
			p.pasteMatch = 0
		}
		return
	}
	if p.state == stEscape && p.ints.n == 0 {
		p.emitPendingEsc(sink)
	}
	p.state = stGround
	p.hasPrivate = false
	p.ints.reset()
	p.pasteMatch = 0
}

func (p *Parser) emitPendingEsc(sink Sink) {
	if p.mode.DoubleEscIsEvent {
		sink(Event{Kind: KindEsc, Byte: bsESC, Intermediates: nil})
	} else {
		sink(Event{Kind: KindC0, Byte: bsESC})
	}
}

// --- Ground: coalesced Raw text, single-byte control dispatch ---

func (p *Parser) feedGround(data []byte, i int, sink Sink) (int, bool) {
	n := len(data)
	start := i
	for i < n && isGroundPrintable(data[i]) {
		i++
	}
	if i > start {
		if !sink(Event{Kind: KindRaw, Data: data[start:i]}) {
			return i, false
		}
	}
	if i >= n {
		return i, true
	}

	b := data[i]
	i++
	switch {
	case b == bsDEL:
		if p.mode.EmitDelInGround {
			return i, sink(Event{Kind: KindC0, Byte: b})
		}
		// Output mode: DEL in ground state is dropped entirely.
		return i, true
	case b == bsESC:
		p.state = stEscape
		p.resetSequence()
		return i, true
	case b == bsCSI8:
		p.state = stCsiEntry
		p.resetSequence()
		return i, true
	case b == bsST96:
		return i, true // ST with nothing open: no-op in Ground
	case isCancel(b):
		return i, sink(Event{Kind: KindC0, Byte: b})
	default: // isC0(b): every other byte value is covered above or by the scan loop
		return i, sink(Event{Kind: KindC0, Byte: b})
	}
}

func (p *Parser) resetSequence() {
	p.params.reset()
	p.ints.reset()
	p.hasPrivate = false
	p.private = 0
}

// --- Single-byte structural states ---

func (p *Parser) stepByte(b byte, sink Sink) bool {
	switch p.state {
	case stEscape:
		return p.onEscape(b, sink)
	case stEscapeIntermediate:
		return p.onEscapeIntermediate(b, sink)
	case stCsiEntry:
		return p.onCsiEntry(b, sink)
	case stCsiParam:
		return p.onCsiParam(b, sink)
	case stCsiIntermediate:
		return p.onCsiIntermediate(b, sink)
	case stDcsEntry:
		return p.onDcsEntry(b, sink)
	case stDcsParam:
		return p.onDcsParam(b, sink)
	case stDcsIntermediate:
		return p.onDcsIntermediate(b, sink)
	case stDcsEsc:
		return p.onDcsEsc(b, sink)
	case stDcsIgnoreEsc:
		return p.onDcsIgnoreEsc(b, sink)
	case stOscEsc:
		return p.onOscEsc(b, sink)
	case stSosPmApcEsc:
		return p.onSosPmApcEsc(b, sink)
	case stSingleShift:
		return p.onSingleShift(b, sink)
	}
	return true
}

// onSingleShift consumes the character shifted in by a pending ESC N / ESC O
// and dispatches the completed Ss2/Ss3 event with it as the final byte.
func (p *Parser) onSingleShift(b byte, sink Sink) bool {
	p.state = stGround
	return sink(Event{Kind: p.ssKind, Byte: b})
}

func (p *Parser) onEscape(b byte, sink Sink) bool {
	switch {
	case isIntermediate(b):
		p.ints.reset()
		p.ints.push(b)
		p.state = stEscapeIntermediate
		return true
	case b == '[':
		p.state = stCsiEntry
		return true
	case b == ']':
		p.state = stOscString
		return sink(Event{Kind: KindOscStart})
	case b == 'P':
		p.state = stDcsEntry
		return true
	case b == 'X' || b == '^' || b == '_':
		p.state = stSosPmApc
		return true
	case p.mode.RecognizeSS2SS3 && (b == 'N' || b == 'O'):
		// ESC N x / ESC O x completes only once x arrives; hold the shift
		// kind and wait one more byte rather than dispatching here.
		p.state = stSingleShift
		p.ssKind = KindSs2
		if b == 'O' {
			p.ssKind = KindSs3
		}
		return true
	case isEscFinal(b):
		p.state = stGround
		return sink(Event{Kind: KindEsc, Byte: b, Intermediates: p.ints.bytes()})
	case b == bsESC:
		p.emitPendingEsc(sink)
		p.state = stEscape
		return true
	case isCancel(b):
		p.state = stGround
		return true
	default:
		return sink(Event{Kind: KindC0, Byte: b})
	}
}

func (p *Parser) onEscapeIntermediate(b byte, sink Sink) bool {
	switch {
	case isIntermediate(b):
		p.ints.push(b)
		return true
	case isEscFinal(b):
		p.state = stGround
		return sink(Event{Kind: KindEsc, Byte: b, Intermediates: p.ints.bytes()})
	case b == bsESC:
		p.ints.reset()
		p.state = stEscape
		return true
	case isCancel(b):
		p.state = stGround
		return true
	default:
		return sink(Event{Kind: KindC0, Byte: b})
	}
}

// --- CSI ---

func (p *Parser) onCsiEntry(b byte, sink Sink) bool {
	switch {
	case isPrivateMarker(b):
		p.private = b
		p.hasPrivate = true
		p.state = stCsiParam
		return true
	case isParamDigit(b):
		p.params.pushByte(b)
		p.state = stCsiParam
		return true
	case b == ';':
		p.params.delimiter(true)
		p.state = stCsiParam
		return true
	case b == ':':
		p.params.pushByte(b)
		p.params.delimiter(false)
		p.state = stCsiParam
		return true
	case isIntermediate(b):
		if !p.ints.push(b) {
			p.state = stCsiIgnore
			return true
		}
		p.state = stCsiIntermediate
		return true
	case b == bsDEL:
		return true // ignored within params
	case isCsiFinal(b):
		return p.dispatchCsi(b, sink)
	case b == bsESC:
		p.resetSequence()
		p.state = stEscape
		return true
	case isCancel(b):
		p.state = stGround
		return true
	default:
		p.state = stCsiIgnore
		return true
	}
}

func (p *Parser) onCsiParam(b byte, sink Sink) bool {
	switch {
	case isParamDigit(b):
		p.params.pushByte(b)
		return true
	case b == ';':
		p.params.delimiter(true)
		return true
	case b == ':':
		p.params.pushByte(b)
		p.params.delimiter(false)
		return true
	case isIntermediate(b):
		if !p.ints.push(b) {
			p.state = stCsiIgnore
			return true
		}
		p.state = stCsiIntermediate
		return true
	case b == bsDEL:
		return true
	case isCsiFinal(b):
		return p.dispatchCsi(b, sink)
	case b == bsESC:
		p.resetSequence()
		p.state = stEscape
		return true
	case isCancel(b):
		p.state = stGround
		return true
	default:
		p.state = stCsiIgnore
		return true
	}
}

func (p *Parser) onCsiIntermediate(b byte, sink Sink) bool {
	switch {
	case isIntermediate(b):
		if !p.ints.push(b) {
			p.state = stCsiIgnore
			return true
		}
		return true
	case isCsiFinal(b):
		return p.dispatchCsi(b, sink)
	case b == bsESC:
		p.resetSequence()
		p.state = stEscape
		return true
	case isCancel(b):
		p.state = stGround
		return true
	default:
		p.state = stCsiIgnore
		return true
	}
}

func (p *Parser) feedCsiIgnore(data []byte, i int, sink Sink) (int, bool) {
	n := len(data)
	for i < n {
		b := data[i]
		i++
		if b == bsESC {
			p.resetSequence()
			p.state = stEscape
			return i, true
		}
		if isCsiFinal(b) || isCancel(b) {
			p.state = stGround
			return i, true
		}
	}
	return i, true
}

func (p *Parser) dispatchCsi(final byte, sink Sink) bool {
	params := p.params.finish()
	if p.mode.BracketedPaste && isPasteStartSeq(p.hasPrivate, p.private, params, final) {
		p.state = stPasteBody
		p.pasteMatch = 0
		return sink(Event{Kind: KindPasteStart})
	}
	p.state = stGround
	return sink(Event{
		Kind:          KindCsi,
		Private:       p.private,
		HasPrivate:    p.hasPrivate,
		Params:        params,
		Intermediates: p.ints.bytes(),
		Final:         final,
	})
}

// isPasteStartSeq matches CSI 200 ~ exactly as xterm emits it: no private
// marker, a single parameter "200", final '~'.
func isPasteStartSeq(hasPrivate bool, private byte, params [][]byte, final byte) bool {
	return !hasPrivate && final == '~' &&
		len(params) == 1 && string(params[0]) == "200"
}

// --- Bracketed paste body ---

// feedPasteBody scans for the literal byte sequence ESC [ 2 0 1 ~ within an
// otherwise-literal text stream, emitting everything before it as Raw.
func (p *Parser) feedPasteBody(data []byte, i int, sink Sink) (int, bool) {
	n := len(data)
	chunkStart := i
	for i < n {
		b := data[i]
		if b == pastePattern[p.pasteMatch] {
			p.pasteMatch++
			i++
			if p.pasteMatch == len(pastePattern) {
				// Full match: flush everything before it, then PasteEnd.
				matchStart := i - len(pastePattern)
				if matchStart > chunkStart {
					if !sink(Event{Kind: KindRaw, Data: data[chunkStart:matchStart]}) {
						return i, false
					}
				}
				p.pasteMatch = 0
				p.state = stGround
				return i, sink(Event{Kind: KindPasteEnd})
			}
			continue
		}
		if isCancel(b) {
			// Flush everything accumulated so far (excluding the partial
			// match, which never completed) plus the partial match bytes
			// themselves as literal text, then abort without PasteEnd.
			if held := p.pasteMatch - (i - chunkStart); held > 0 {
				if !sink(Event{Kind: KindRaw, Data: append([]byte(nil), pastePattern[:held]...)}) {
					return i, false
				}
			}
			if i > chunkStart {
				if !sink(Event{Kind: KindRaw, Data: data[chunkStart:i]}) {
					return i, false
				}
			}
			p.pasteMatch = 0
			p.state = stGround
			return i + 1, true
		}
		if p.pasteMatch > 0 {
			// Mismatch after a partial match: the held bytes were not a
			// terminator after all. Retry this byte as a possible fresh
			// match start, without losing the held prefix from the run.
			// Prefix bytes held over from an earlier Feed call are replayed
			// first, ahead of this call's run.
			if held := p.pasteMatch - (i - chunkStart); held > 0 {
				if !sink(Event{Kind: KindRaw, Data: append([]byte(nil), pastePattern[:held]...)}) {
					return i, false
				}
			}
			p.pasteMatch = 0
			continue
		}
		i++
	}
	// A trailing partial terminator match is held back until the next Feed
	// call (or Finish) resolves it.
	if end := i - p.pasteMatch; end > chunkStart {
		if !sink(Event{Kind: KindRaw, Data: data[chunkStart:end]}) {
			return i, false
		}
	}
	return i, true
}

// --- DCS ---

func (p *Parser) onDcsEntry(b byte, sink Sink) bool {
	switch {
	case p.mode.RejectColonDCS && b == ':':
		p.state = stDcsIgnore
		return true
	case isPrivateMarker(b):
		p.private = b
		p.hasPrivate = true
		p.state = stDcsParam
		return true
	case isParamDigit(b):
		p.params.pushByte(b)
		p.state = stDcsParam
		return true
	case b == ';':
		p.params.delimiter(true)
		p.state = stDcsParam
		return true
	case b == ':':
		p.params.pushByte(b)
		p.params.delimiter(false)
		p.state = stDcsParam
		return true
	case isIntermediate(b):
		if !p.ints.push(b) {
			p.state = stDcsIgnore
			return true
		}
		p.state = stDcsIntermediate
		return true
	case isCsiFinal(b):
		return p.dispatchDcsStart(b, sink)
	case b == bsESC:
		p.resetSequence()
		p.state = stEscape
		return true
	case isCancel(b):
		p.state = stGround
		return true
	default:
		p.state = stDcsIgnore
		return true
	}
}

func (p *Parser) onDcsParam(b byte, sink Sink) bool {
	switch {
	case isParamDigit(b):
		p.params.pushByte(b)
		return true
	case b == ';':
		p.params.delimiter(true)
		return true
	case b == ':':
		p.params.pushByte(b)
		p.params.delimiter(false)
		return true
	case isIntermediate(b):
		if !p.ints.push(b) {
			p.state = stDcsIgnore
			return true
		}
		p.state = stDcsIntermediate
		return true
	case isCsiFinal(b):
		return p.dispatchDcsStart(b, sink)
	case b == bsESC:
		p.resetSequence()
		p.state = stEscape
		return true
	case isCancel(b):
		p.state = stGround
		return true
	default:
		p.state = stDcsIgnore
		return true
	}
}

func (p *Parser) onDcsIntermediate(b byte, sink Sink) bool {
	switch {
	case isIntermediate(b):
		if !p.ints.push(b) {
			p.state = stDcsIgnore
			return true
		}
		return true
	case isCsiFinal(b) || isParamDigit(b) || b == ':' || b == ';':
		// A digit or delimiter breaks the normal param->intermediate->final
		// grammar (intermediates were seen before any parameter byte); the
		// byte itself dispatches as the final byte, not as parameter text.
		return p.dispatchDcsStart(b, sink)
	case b == bsESC:
		p.resetSequence()
		p.state = stEscape
		return true
	case isCancel(b):
		p.state = stGround
		return true
	default:
		p.state = stDcsIgnore
		return true
	}
}

func (p *Parser) dispatchDcsStart(final byte, sink Sink) bool {
	params := p.params.finish()
	p.state = stDcsPassthrough
	return sink(Event{
		Kind:          KindDcsStart,
		Private:       p.private,
		HasPrivate:    p.hasPrivate,
		Params:        params,
		Intermediates: p.ints.bytes(),
		Final:         final,
	})
}

func (p *Parser) feedDcsPassthrough(data []byte, i int, sink Sink) (int, bool) {
	n := len(data)
	chunkStart := i
	for i < n {
		b := data[i]
		switch {
		case b == bsDEL:
			if i > chunkStart {
				if !sink(Event{Kind: KindDcsData, Data: data[chunkStart:i]}) {
					return i, false
				}
			}
			i++
			chunkStart = i
		case b == bsESC:
			if i > chunkStart {
				if !sink(Event{Kind: KindDcsData, Data: data[chunkStart:i]}) {
					return i, false
				}
			}
			p.state = stDcsEsc
			return i + 1, true
		case b == bsST96:
			if i > chunkStart {
				if !sink(Event{Kind: KindDcsData, Data: data[chunkStart:i]}) {
					return i, false
				}
			}
			p.state = stGround
			return i + 1, sink(Event{Kind: KindDcsEnd})
		case isCancel(b):
			// Cancel discards whatever was buffered since the last flush —
			// it is not emitted as a trailing DcsData chunk.
			p.state = stGround
			return i + 1, sink(Event{Kind: KindDcsCancel})
		default:
			i++
		}
	}
	if i > chunkStart {
		if !sink(Event{Kind: KindDcsData, Data: data[chunkStart:i]}) {
			return i, false
		}
	}
	return i, true
}

func (p *Parser) onDcsEsc(b byte, sink Sink) bool {
	switch {
	case b == '\\':
		p.state = stGround
		return sink(Event{Kind: KindDcsEnd})
	case b == bsESC:
		// Held ESC was data; this new one restarts speculation.
		return sink(Event{Kind: KindDcsData, Data: []byte{bsESC}})
	case isCancel(b):
		p.state = stGround
		return sink(Event{Kind: KindDcsCancel})
	default:
		p.state = stDcsPassthrough
		return sink(Event{Kind: KindDcsData, Data: []byte{bsESC, b}})
	}
}

func (p *Parser) feedDcsIgnore(data []byte, i int, sink Sink) (int, bool) {
	n := len(data)
	for i < n {
		b := data[i]
		switch {
		case b == bsESC:
			p.state = stDcsIgnoreEsc
			return i + 1, true
		case b == bsST96 || isCancel(b):
			p.state = stGround
			return i + 1, true
		default:
			i++
		}
	}
	return i, true
}

func (p *Parser) onDcsIgnoreEsc(b byte, sink Sink) bool {
	switch {
	case b == '\\':
		p.state = stGround
	case b == bsESC:
		// stay, still speculating
	case isCancel(b):
		p.state = stGround
	default:
		p.state = stDcsIgnore
	}
	return true
}

// --- OSC ---

func (p *Parser) feedOscString(data []byte, i int, sink Sink) (int, bool) {
	n := len(data)
	chunkStart := i
	for i < n {
		b := data[i]
		switch {
		case b == bsDEL:
			if i > chunkStart {
				if !sink(Event{Kind: KindOscData, Data: data[chunkStart:i]}) {
					return i, false
				}
			}
			i++
			chunkStart = i
		case b == bsBEL:
			if i > chunkStart {
				if !sink(Event{Kind: KindOscData, Data: data[chunkStart:i]}) {
					return i, false
				}
			}
			p.state = stGround
			return i + 1, sink(Event{Kind: KindOscEnd, UsedBEL: true})
		case b == bsESC:
			if i > chunkStart {
				if !sink(Event{Kind: KindOscData, Data: data[chunkStart:i]}) {
					return i, false
				}
			}
			p.state = stOscEsc
			return i + 1, true
		case b == bsST96:
			if i > chunkStart {
				if !sink(Event{Kind: KindOscData, Data: data[chunkStart:i]}) {
					return i, false
				}
			}
			p.state = stGround
			return i + 1, sink(Event{Kind: KindOscEnd, UsedBEL: false})
		case isCancel(b):
			// Cancel discards whatever was buffered since the last flush.
			p.state = stGround
			return i + 1, sink(Event{Kind: KindOscCancel})
		default:
			i++
		}
	}
	if i > chunkStart {
		if !sink(Event{Kind: KindOscData, Data: data[chunkStart:i]}) {
			return i, false
		}
	}
	return i, true
}

func (p *Parser) onOscEsc(b byte, sink Sink) bool {
	switch {
	case b == '\\':
		p.state = stGround
		return sink(Event{Kind: KindOscEnd, UsedBEL: false})
	case b == bsESC:
		return sink(Event{Kind: KindOscData, Data: []byte{bsESC}})
	case isCancel(b):
		p.state = stGround
		return sink(Event{Kind: KindOscCancel})
	default:
		p.state = stOscString
		return sink(Event{Kind: KindOscData, Data: []byte{bsESC, b}})
	}
}

// --- SOS/PM/APC ---

func (p *Parser) feedSosPmApc(data []byte, i int, sink Sink) (int, bool) {
	n := len(data)
	for i < n {
		b := data[i]
		switch {
		case b == bsESC:
			p.state = stSosPmApcEsc
			return i + 1, true
		case b == bsST96 || isCancel(b):
			p.state = stGround
			return i + 1, true
		default:
			i++
		}
	}
	return i, true
}

func (p *Parser) onSosPmApcEsc(b byte, sink Sink) bool {
	switch {
	case b == '\\':
		p.state = stGround
	case b == bsESC:
		// stay, still speculating
	case isCancel(b):
		p.state = stGround
	default:
		p.state = stSosPmApc
	}
	return true
}
