// Package bitset implements a bit-vector over a byte range with a
// first-free-index search, used for occupancy tracking.
package bitset

import (
	"fmt"
	"math/bits"

	"github.com/pavanmanishd/region"
)

// NotFound is returned by FirstUnset when every logical bit is set.
const NotFound = -1

// Bitset is a logical vector of Len() bits stored little-endian within each
// byte: bit i lives in bytes[i/8] at position i%8. Bits of the final byte
// beyond Len() are ignored.
//
// A Bitset is a small descriptor; copies share the same bytes.
type Bitset struct {
	bytes []byte
	n     int
}

// BytesFor returns the number of bytes needed to hold n bits.
func BytesFor(n int) int {
	return (n + 7) / 8
}

// New returns a bitset of n bits over bytes, which it borrows.
// n must be positive and fit in bytes.
func New(bytes []byte, n int) Bitset {
	if n <= 0 {
		panic(fmt.Sprintf("bitset: invalid bit count %d", n))
	}
	if BytesFor(n) > len(bytes) {
		panic(fmt.Sprintf("bitset: %d bits do not fit in %d bytes", n, len(bytes)))
	}
	return Bitset{bytes: bytes[:BytesFor(n)], n: n}
}

// Push allocates a zeroed bitset of n bits from r.
func Push(r *region.Region, n int) (Bitset, error) {
	if n <= 0 {
		panic(fmt.Sprintf("bitset: invalid bit count %d", n))
	}
	a, err := region.PushArray[byte](r, BytesFor(n))
	if err != nil {
		return Bitset{}, err
	}
	return New(a.Elems(), n), nil
}

// Len returns the number of logical bits.
func (b Bitset) Len() int {
	return b.n
}

// Bytes returns the backing bytes.
func (b Bitset) Bytes() []byte {
	return b.bytes
}

// Set sets bit i.
func (b Bitset) Set(i int) {
	b.check(i)
	b.bytes[i/8] |= 1 << (i % 8)
}

// Clear clears bit i.
func (b Bitset) Clear(i int) {
	b.check(i)
	b.bytes[i/8] &^= 1 << (i % 8)
}

// Test reports whether bit i is set.
func (b Bitset) Test(i int) bool {
	b.check(i)
	return b.bytes[i/8]&(1<<(i%8)) != 0
}

// FirstUnset returns the lowest index whose bit is clear, or NotFound.
//
// Whole bytes are scanned first, skipping 0xFF. In a trailing partial byte
// the bits past Len() are forced to one so they are never reported.
func (b Bitset) FirstUnset() int {
	full := b.n / 8
	for i := 0; i < full; i++ {
		if c := b.bytes[i]; c != 0xFF {
			return i*8 + bits.TrailingZeros8(^c)
		}
	}
	if tail := b.n % 8; tail > 0 {
		c := b.bytes[full] | ^(byte(1)<<tail - 1)
		if c != 0xFF {
			return full*8 + bits.TrailingZeros8(^c)
		}
	}
	return NotFound
}

// Count returns the number of set bits among the logical bits.
func (b Bitset) Count() int {
	full := b.n / 8
	count := 0
	for _, c := range b.bytes[:full] {
		count += bits.OnesCount8(c)
	}
	if tail := b.n % 8; tail > 0 {
		count += bits.OnesCount8(b.bytes[full] & (byte(1)<<tail - 1))
	}
	return count
}

func (b Bitset) check(i int) {
	if b.n == 0 {
		panic("bitset: use of zero Bitset")
	}
	if i < 0 || i >= b.n {
		panic(fmt.Sprintf("bitset: index %d out of range [0,%d)", i, b.n))
	}
}
