package random

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/crypto/blake2b"
)

// Entropy supplies fresh seeds for unseeded runs. It is injected at
// construction so that "no seed" still follows one deterministic code path:
// a seed is drawn once, logged, and used like any other.
type Entropy interface {
	NewSeed() (int64, error)
}

// EntropyFunc adapts a function to Entropy.
type EntropyFunc func() (int64, error)

// NewSeed calls f.
func (f EntropyFunc) NewSeed() (int64, error) {
	return f()
}

// CryptoEntropy draws seeds from crypto/rand.
type CryptoEntropy struct{}

// NewSeed returns a non-negative seed read from the OS entropy pool.
func (CryptoEntropy) NewSeed() (int64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("reading entropy: %w", err)
	}
	return int64(binary.BigEndian.Uint64(buf[:]) & math.MaxInt64), nil
}

// ResolveSeed returns seed unchanged when it is non-negative. A negative seed
// means "non-reproducible": one seed is drawn from entropy instead.
// The second return value reports whether entropy was used.
func ResolveSeed(seed int64, entropy Entropy) (int64, bool, error) {
	if seed >= 0 {
		return seed, false, nil
	}
	if entropy == nil {
		entropy = CryptoEntropy{}
	}
	s, err := entropy.NewSeed()
	if err != nil {
		return 0, true, fmt.Errorf("drawing seed: %w", err)
	}
	if s < 0 {
		s &= math.MaxInt64
	}
	return s, true, nil
}

// DeriveSeed derives an independent non-negative seed from a master seed and a
// label (e.g. "pass-3"), so each pass of a batch replays in isolation.
func DeriveSeed(master int64, label string) int64 {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(master))

	h, _ := blake2b.New256(nil) // nil key never errors
	h.Write(buf[:])
	h.Write([]byte(label))
	sum := h.Sum(nil)

	return int64(binary.BigEndian.Uint64(sum[:8]) & math.MaxInt64)
}
