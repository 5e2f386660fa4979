// Package mathutil collects small integer helpers: MinInt, MaxInt and
// CeilDiv, and a uniform-enough random offset for the Random document
// sampler (the only helper the collection package calls). Adapted from the teacher's erigon-lib/common/math integer
// helpers, trimmed to what this engine actually exercises.
package mathutil

import (
	"crypto/rand"
	"math/big"
)

// MinInt returns the smaller of a and b.
func MinInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// MaxInt returns the larger of a and b.
func MaxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// CeilDiv computes ceil(x/y). Returns 0 for y == 0.
func CeilDiv(x, y int) int {
	if y == 0 {
		return 0
	}
	return (x + y - 1) / y
}

// RandInt64InRange returns a uniformly distributed int64 in [0, n), used
// by collection.Random to pick an offset into a collection's masterpointer
// sequence without materializing the whole key set. Exact distribution is
// unspecified beyond "uniform enough to be useful as a sampler" (spec
// §4.4.1); crypto/rand gives us that for free.
func RandInt64InRange(n int64) (int64, error) {
	if n <= 0 {
		return 0, nil
	}
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0, err
	}
	return v.Int64(), nil
}
