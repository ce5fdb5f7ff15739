package vtparse

const (
	// maxParams is the largest number of parameter slots a single sequence
	// may dispatch with. Bytes belonging to further parameters are dropped,
	// but the sequence still dispatches (see the overflow taxonomy).
	maxParams = 256

	// maxParamBytes bounds the total parameter text retained per sequence.
	// Chosen generously (16 bytes/param average) since overflow here is a
	// silent drop, not a truncation of the final dispatch.
	maxParamBytes = maxParams * 16
)

// paramBuffer accumulates CSI/DCS parameter text for one in-flight sequence.
// It is a single contiguous byte buffer plus a list of end offsets, reused
// across sequences so that steady-state parsing allocates nothing beyond
// the initial backing arrays.
type paramBuffer struct {
	data  []byte
	ends  []int // ends[i] is the end offset (in data) of parameter i
	slice [][]byte

	sawDelimiter bool // true once a ';' or ':' has been seen this sequence
	overflow     bool // true once maxParams worth of delimiters were seen
}

func newParamBuffer() *paramBuffer {
	return &paramBuffer{
		data:  make([]byte, 0, maxParamBytes),
		ends:  make([]int, 0, maxParams),
		slice: make([][]byte, 0, maxParams+1),
	}
}

func (p *paramBuffer) reset() {
	p.data = p.data[:0]
	p.ends = p.ends[:0]
	p.sawDelimiter = false
	p.overflow = false
}

// pushByte appends a byte to the parameter currently being accumulated.
// Bytes beyond maxParamBytes are silently dropped.
func (p *paramBuffer) pushByte(b byte) {
	if len(p.data) < maxParamBytes {
		p.data = append(p.data, b)
	}
}

// delimiter closes the current parameter at a ';' or ':' boundary — ':' does
// not itself start a new slice (it stays embedded in the current one), but
// it does mark the sequence as having seen a delimiter for the trailing
// empty-parameter rule. Only ';' should be passed with split=true.
func (p *paramBuffer) delimiter(split bool) {
	p.sawDelimiter = true
	if !split {
		return
	}
	if len(p.ends) >= maxParams {
		p.overflow = true
		return
	}
	p.ends = append(p.ends, len(p.data))
}

// finish closes the final in-progress parameter and returns the ordered
// slice list. The returned value (and each of its elements) is borrowed
// from the parser's internal buffer and is valid only until the next
// mutating call.
func (p *paramBuffer) finish() [][]byte {
	lastEnd := 0
	if len(p.ends) > 0 {
		lastEnd = p.ends[len(p.ends)-1]
	}
	curLen := len(p.data) - lastEnd

	// Only close the in-progress parameter if something was actually
	// accumulated, or a prior delimiter already started the list — a bare
	// dispatch with no parameter bytes at all yields zero params, not one
	// empty one.
	if !p.overflow && (curLen > 0 || len(p.ends) > 0) {
		p.ends = append(p.ends, len(p.data))
	}
	if p.sawDelimiter && !p.overflow {
		// Synthesize the trailing empty slice: the terminator closes an
		// empty parameter immediately after the last accumulated byte.
		p.ends = append(p.ends, len(p.data))
	}

	p.slice = p.slice[:0]
	start := 0
	for _, end := range p.ends {
		p.slice = append(p.slice, p.data[start:end])
		start = end
	}
	return p.slice
}
