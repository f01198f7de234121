// SPDX-License-Identifier: MIT

/*
Package bitint provides the integer sizing helpers used for sample queues and
transform lengths.

All functions are allocation free and constant time, so they are safe on the
audio path.

Usage:

	// Queue capacity that holds at least 1000 samples
	capacity := bitint.NextPowerOfTwo(1000) // 1024

	// Transform length on a 16-sample lane boundary
	size := bitint.AlignDown(1000, 16) // 992
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size, or 1 for size <= 0.
// Subtracting 1 first keeps exact powers of 2 unchanged.
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
// A power of 2 has one bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// AlignDown rounds n down to a multiple of align, which must be a power of 2.
// Negative n rounds toward negative infinity.
func AlignDown(n, align int) int {
	return n &^ (align - 1)
}
