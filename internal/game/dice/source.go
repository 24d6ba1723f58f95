package dice

import (
	"crypto/rand"
	"math/big"
)

// cryptoSource implements Source using crypto/rand.
//
// Invariant: all values produced are uniformly distributed in [0, n) for any n > 0.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
// Panics with "dice: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// SeqSource is a deterministic Source that replays a fixed sequence of values,
// wrapping around when exhausted. It is intended for tests.
//
// Invariant: Intn(n) always returns a value in [0, n); out-of-range sequence
// entries are reduced modulo n.
type SeqSource struct {
	values []int
	next   int
}

// NewSeqSource creates a SeqSource replaying values in order.
//
// Precondition: values must be non-empty.
func NewSeqSource(values ...int) *SeqSource {
	if len(values) == 0 {
		panic("dice: NewSeqSource requires at least one value")
	}
	vs := make([]int, len(values))
	copy(vs, values)
	return &SeqSource{values: vs}
}

// Intn returns the next sequence value reduced into [0, n).
func (s *SeqSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	if v < 0 {
		v = -v
	}
	return v % n
}
