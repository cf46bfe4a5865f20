// Package amount defines the integer monetary units used by the ledger
// core: the chain's native Share amount, basis-point fee percentages, and
// the 128-bit CoinSeconds accumulator used for stake-time accounting. All
// arithmetic in this package is integer-only and deterministic; there is
// deliberately no floating point anywhere, as these values feed consensus
// critical state.
package amount

import (
	"fmt"
	"math"
	"math/bits"
)

const (
	// TotalBasisPoints is the scale of all fee percentages on the chain.
	// A percentage field holding this value means 100%.
	TotalBasisPoints BasisPoints = 10000

	// MaxShare is the largest representable Share amount.
	MaxShare Share = math.MaxInt64
)

// Share is the native integer unit of the chain's core asset. Amounts are
// signed so that deltas can be expressed directly, but all fee and stake
// quantities handled by this module are non-negative; passing a negative
// amount where a fee is expected is a programming error and panics.
type Share int64

// String returns the share amount with its unit tag.
func (s Share) String() string {
	return fmt.Sprintf("%d FLR", int64(s))
}

// BasisPoints expresses a fee percentage as an integer fraction of
// TotalBasisPoints, avoiding any floating point in fee math.
type BasisPoints uint16

// String renders the raw basis points together with a human readable
// percentage.
func (p BasisPoints) String() string {
	return fmt.Sprintf("%d bp (%d.%02d%%)", uint16(p), p/100, p%100)
}

// CutFee returns the portion of a that a percentage of p basis points
// selects, as exact floor division with a 128-bit intermediate product so
// that no precision is lost for any representable amount. Both a zero
// amount and a zero percentage cut nothing, and the full percentage cuts
// everything, without touching the wide path.
//
// A negative amount or a percentage beyond TotalBasisPoints is a contract
// violation by the caller and panics: fee amounts are validated before
// they ever reach the ledger core, so either condition here means state
// corruption and must abort the state transition deterministically.
func CutFee(a Share, p BasisPoints) Share {
	if a < 0 {
		panic(fmt.Sprintf("fee cut of negative amount %v", a))
	}
	if p > TotalBasisPoints {
		panic(fmt.Sprintf("fee percentage %v exceeds %v", p,
			TotalBasisPoints))
	}

	if a == 0 || p == 0 {
		return 0
	}
	if p == TotalBasisPoints {
		return a
	}

	// The product a*p needs up to 77 bits, so widen through a 128-bit
	// intermediate and narrow back after the division. The quotient is
	// bounded by a and the high word by p, so Div64 cannot overflow.
	hi, lo := bits.Mul64(uint64(a), uint64(p))
	quo, _ := bits.Div64(hi, lo, uint64(TotalBasisPoints))

	return Share(quo)
}
