package vtparse

// Mode selects the handful of behaviors that differ between the two parser
// variants. A single state machine is parameterised by these booleans
// instead of duplicating it: the differences are too narrow to justify a second automaton.
type Mode struct {
	// DoubleEscIsEvent: a second ESC seen while one is already pending emits
	// a completed Esc('', ESC) instead of C0(ESC).
	DoubleEscIsEvent bool

	// RecognizeSS2SS3: ESC N / ESC O are treated as single-shifts (Ss2/Ss3)
	// rather than ordinary Esc sequences.
	RecognizeSS2SS3 bool

	// BracketedPaste: CSI 200 ~ / CSI 201 ~ are recognized as paste
	// brackets rather than passed through as ordinary Csi events.
	BracketedPaste bool

	// RejectColonDCS: a ':' seen at DCS entry routes the sequence into
	// DcsIgnore instead of being accepted as parameter text.
	RejectColonDCS bool

	// EmitDelInGround: 0x7F in ground state is emitted as C0(0x7F) rather
	// than dropped. The two variants disagree on this (see the resolved
	// open question in DESIGN.md).
	EmitDelInGround bool
}

// ModeOutput is the terminal-to-screen variant: no single-shift
// recognition, no bracketed paste, double ESC flushes as C0(ESC), DEL is
// dropped in ground state.
var ModeOutput = Mode{}

// ModeInput is the keyboard-to-program variant: single-shifts and
// bracketed paste are recognized, a second ESC completes as its own Esc
// event, colon-prefixed DCS parameters are rejected, and DEL surfaces as
// C0(0x7F) in ground state.
var ModeInput = Mode{
	DoubleEscIsEvent: true,
	RecognizeSS2SS3:  true,
	BracketedPaste:   true,
	RejectColonDCS:   true,
	EmitDelInGround:  true,
}
