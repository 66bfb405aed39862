// Package draft implements the per-format draft state machines: the
// traditional rotation draft, the two-player Winston pile draft, and the
// single-shot sealed/Jumpstart distributions.
package draft

// Kind identifies which state machine a Session is currently running.
type Kind int

// Valid Kind values.
const (
	KindTraditional Kind = iota
	KindWinston
	KindSealed
	KindJumpstart
)

// String names a Kind for wire payloads (rejoin state, client messages)
// that need a stable label rather than the raw int.
func (k Kind) String() string {
	switch k {
	case KindTraditional:
		return "traditional"
	case KindWinston:
		return "winston"
	case KindSealed:
		return "sealed"
	case KindJumpstart:
		return "jumpstart"
	default:
		return "unknown"
	}
}

// Draft is the narrow common surface a Session needs regardless of which
// concrete state machine is active. The three variants are not otherwise
// interchangeable — their pick/round semantics differ too much to be
// worth forcing behind a shared interface beyond this.
type Draft interface {
	Kind() Kind
}

// negMod is Euclidean modulo: unlike Go's %, it never returns a negative
// result, which is required for boosterOffset to wrap correctly on
// reverse-direction (even-numbered) packs.
func negMod(a, n int) int {
	if n == 0 {
		return 0
	}
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
