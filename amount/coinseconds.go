package amount

import (
	"fmt"
	"math"
	"math/bits"
)

// CoinSeconds is an unsigned 128-bit accumulator holding a balance
// multiplied by a duration in seconds. The product of a full Share balance
// and a multi-year window does not fit in 64 bits, and the accumulator
// must be bit-exact across every node, so the value is carried as an
// explicit two-word integer rather than a float or a heap-allocated
// big integer.
type CoinSeconds struct {
	hi, lo uint64
}

// NewCoinSeconds returns a CoinSeconds holding a plain 64-bit value.
func NewCoinSeconds(v uint64) CoinSeconds {
	return CoinSeconds{lo: v}
}

// CoinSecondsFromShare widens a non-negative share amount multiplied by a
// duration in seconds into a CoinSeconds value. A negative amount is a
// contract violation and panics.
func CoinSecondsFromShare(s Share, seconds uint64) CoinSeconds {
	if s < 0 {
		panic(fmt.Sprintf("coin seconds from negative amount %v", s))
	}

	hi, lo := bits.Mul64(uint64(s), seconds)
	return CoinSeconds{hi: hi, lo: lo}
}

// Add returns the sum of two CoinSeconds values. Overflow of the 128-bit
// range cannot occur for any in-domain balance and window combination, so
// a carry out of the high word panics rather than wrapping silently.
func (c CoinSeconds) Add(other CoinSeconds) CoinSeconds {
	lo, carry := bits.Add64(c.lo, other.lo, 0)
	hi, carry := bits.Add64(c.hi, other.hi, carry)
	if carry != 0 {
		panic("coin seconds accumulator overflow")
	}

	return CoinSeconds{hi: hi, lo: lo}
}

// Sub returns the difference of two CoinSeconds values. The accumulator is
// unsigned, so subtracting more than it holds panics rather than wrapping.
func (c CoinSeconds) Sub(other CoinSeconds) CoinSeconds {
	lo, borrow := bits.Sub64(c.lo, other.lo, 0)
	hi, borrow := bits.Sub64(c.hi, other.hi, borrow)
	if borrow != 0 {
		panic("coin seconds accumulator underflow")
	}

	return CoinSeconds{hi: hi, lo: lo}
}

// Cmp compares two CoinSeconds values, returning -1, 0 or 1 as c is less
// than, equal to or greater than other.
func (c CoinSeconds) Cmp(other CoinSeconds) int {
	switch {
	case c.hi != other.hi:
		if c.hi < other.hi {
			return -1
		}
		return 1

	case c.lo != other.lo:
		if c.lo < other.lo {
			return -1
		}
		return 1

	default:
		return 0
	}
}

// IsZero reports whether the accumulator holds no coin seconds.
func (c CoinSeconds) IsZero() bool {
	return c.hi == 0 && c.lo == 0
}

// divMod divides the 128-bit value by a 64-bit divisor, returning the wide
// quotient and the remainder. The divisor must be non-zero.
func (c CoinSeconds) divMod(d uint64) (CoinSeconds, uint64) {
	if d == 0 {
		panic("coin seconds division by zero")
	}

	// Standard 128 by 64 long division: divide the high word first, then
	// feed its remainder into the low-word division. The intermediate
	// remainder is strictly less than the divisor, so Div64 is safe.
	quoHi := c.hi / d
	rem := c.hi % d
	quoLo, rem := bits.Div64(rem, c.lo, d)

	return CoinSeconds{hi: quoHi, lo: quoLo}, rem
}

// DivSeconds divides the accumulator by a duration in seconds, flooring
// the result. It is used to collapse a blended coin-seconds total back
// into an average balance.
func (c CoinSeconds) DivSeconds(seconds uint64) CoinSeconds {
	quo, _ := c.divMod(seconds)
	return quo
}

// ToShare narrows the accumulator back to a Share amount. Values produced
// by the stake-time algorithm always fit: an average balance never exceeds
// the largest balance observed. Narrowing a wider value is a contract
// violation and panics.
func (c CoinSeconds) ToShare() Share {
	if c.hi != 0 || c.lo > math.MaxInt64 {
		panic(fmt.Sprintf("coin seconds %v exceeds share range", c))
	}

	return Share(c.lo)
}

// String renders the full 128-bit value in decimal.
func (c CoinSeconds) String() string {
	if c.hi == 0 {
		return fmt.Sprintf("%d", c.lo)
	}

	// Peel off the low 18 decimal digits at a time until the value fits
	// in a single word.
	const digits = 1_000_000_000_000_000_000

	var (
		out  string
		rest = c
	)
	for rest.hi != 0 {
		var rem uint64
		rest, rem = rest.divMod(digits)
		out = fmt.Sprintf("%018d%s", rem, out)
	}

	return fmt.Sprintf("%d%s", rest.lo, out)
}
