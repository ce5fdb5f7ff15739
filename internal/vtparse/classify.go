package vtparse

// Byte classification helpers. These are plain range checks rather than a
// precomputed 256-entry table — the table form the design notes recommend
// pays for itself once a state has more than a couple of distinct outcomes,
// and most states here dispatch on two or three ranges.

const (
	bsESC  = 0x1B
	bsBEL  = 0x07
	bsCAN  = 0x18
	bsSUB  = 0x1A
	bsDEL  = 0x7F
	bsST96 = 0x9C // 8-bit ST
	bsCSI8 = 0x9B // 8-bit CSI introducer
)

// isC0 reports whether b is a C0 control byte that should dispatch as its
// own C0 event in Ground state. TAB, LF and CR are deliberately excluded:
// they pass through as ordinary ground text instead, so a stream built only
// from printable text and common line endings round-trips through Ground
// unchanged (see the stripper identity property).
func isC0(b byte) bool {
	if b == '\t' || b == '\n' || b == '\r' {
		return false
	}
	return b <= 0x1F || b == bsDEL
}

func isGroundPrintable(b byte) bool {
	if b >= 0x20 && b <= 0x7E {
		return true
	}
	if b == '\t' || b == '\n' || b == '\r' {
		return true
	}
	// 0x80-0xFF passthrough, except the two 8-bit structural bytes.
	return b >= 0x80 && b != bsCSI8 && b != bsST96
}

func isIntermediate(b byte) bool {
	return b >= 0x20 && b <= 0x2F
}

func isParamDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isPrivateMarker(b byte) bool {
	return b >= 0x3C && b <= 0x3F
}

func isCsiFinal(b byte) bool {
	return b >= 0x40 && b <= 0x7E
}

func isEscFinal(b byte) bool {
	return b >= 0x30 && b <= 0x7E
}

func isCancel(b byte) bool {
	return b == bsCAN || b == bsSUB
}
