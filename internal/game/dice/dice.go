// Package dice provides the core randomness abstraction for the Duskhollow
// combat engine. Every roll in the damage pipeline draws from a Source so
// that combat resolution is deterministic under test.
package dice

// Source is the randomness provider for combat rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// PercentRoll rolls a d100 against chancePct and reports success.
//
// Precondition: src must be non-nil.
// Postcondition: Returns true with probability chancePct/100; chancePct <= 0
// never succeeds, chancePct >= 100 always succeeds.
func PercentRoll(src Source, chancePct int) bool {
	if chancePct <= 0 {
		return false
	}
	if chancePct >= 100 {
		return true
	}
	return src.Intn(100) < chancePct
}
