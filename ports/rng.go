package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic
// operations. All downstream randomness derives from these streams; there is
// no hidden global randomness anywhere in the pipeline.
type RNGPort interface {
	// SeededStream creates a deterministic generator for a named stage. The
	// stream is a pure function of (name, seed) and draw order: re-running
	// with the same inputs reproduces bit-identical draws. The stream name
	// deliberately excludes run IDs so replays stay byte-identical.
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// ValidateSeed checks that the seed's first draws match an expected
	// sequence, guarding against a drifting generator implementation.
	ValidateSeed(ctx context.Context, name string, seed int64, expected []float64) error
}
