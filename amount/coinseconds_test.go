package amount

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// bigFromCoinSeconds converts the two-word value into a big.Int for
// cross-checking against arbitrary precision arithmetic.
func bigFromCoinSeconds(c CoinSeconds) *big.Int {
	v := new(big.Int).SetUint64(c.hi)
	v.Lsh(v, 64)

	return v.Add(v, new(big.Int).SetUint64(c.lo))
}

// TestCoinSecondsBasics covers construction, comparison and narrowing on
// values around the 64-bit boundary.
func TestCoinSecondsBasics(t *testing.T) {
	t.Parallel()

	zero := NewCoinSeconds(0)
	require.True(t, zero.IsZero())
	require.Equal(t, Share(0), zero.ToShare())

	small := NewCoinSeconds(42)
	require.False(t, small.IsZero())
	require.Equal(t, Share(42), small.ToShare())
	require.Equal(t, 1, small.Cmp(zero))
	require.Equal(t, -1, zero.Cmp(small))
	require.Equal(t, 0, small.Cmp(NewCoinSeconds(42)))

	// A product that overflows 64 bits must compare above any single
	// word value and refuse to narrow.
	wide := CoinSecondsFromShare(MaxShare, 1<<20)
	require.Equal(t, 1, wide.Cmp(NewCoinSeconds(math.MaxUint64)))
	require.Panics(t, func() {
		wide.ToShare()
	})

	require.Panics(t, func() {
		CoinSecondsFromShare(-1, 60)
	})
}

// TestCoinSecondsAdd checks addition carries across the word boundary and
// that overflowing the full 128-bit range panics.
func TestCoinSecondsAdd(t *testing.T) {
	t.Parallel()

	a := NewCoinSeconds(math.MaxUint64)
	sum := a.Add(NewCoinSeconds(1))
	require.Equal(t, CoinSeconds{hi: 1, lo: 0}, sum)

	full := CoinSeconds{hi: math.MaxUint64, lo: math.MaxUint64}
	require.Panics(t, func() {
		full.Add(NewCoinSeconds(1))
	})
}

// TestCoinSecondsSub checks subtraction borrows across the word boundary
// and that going below zero panics.
func TestCoinSecondsSub(t *testing.T) {
	t.Parallel()

	v := CoinSeconds{hi: 1, lo: 0}
	require.Equal(
		t, NewCoinSeconds(math.MaxUint64), v.Sub(NewCoinSeconds(1)),
	)

	require.Equal(t, NewCoinSeconds(0), v.Sub(v))

	require.Panics(t, func() {
		NewCoinSeconds(1).Sub(NewCoinSeconds(2))
	})
	require.Panics(t, func() {
		NewCoinSeconds(0).Sub(CoinSeconds{hi: 1, lo: 0})
	})
}

// TestCoinSecondsDiv checks the long division path, including a quotient
// that itself exceeds 64 bits.
func TestCoinSecondsDiv(t *testing.T) {
	t.Parallel()

	// 2^64 / 2 has a clean single-word quotient.
	v := CoinSeconds{hi: 1, lo: 0}
	require.Equal(t, NewCoinSeconds(1<<63), v.DivSeconds(2))

	// Flooring: (2^64 + 5) / 3.
	v = CoinSeconds{hi: 1, lo: 5}
	want := new(big.Int).Add(
		new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(5),
	)
	want.Quo(want, big.NewInt(3))
	require.Equal(t, want, bigFromCoinSeconds(v.DivSeconds(3)))

	// A wide quotient keeps its high word.
	v = CoinSeconds{hi: 8, lo: 0}
	quo := v.DivSeconds(2)
	require.Equal(t, CoinSeconds{hi: 4, lo: 0}, quo)

	require.Panics(t, func() {
		v.DivSeconds(0)
	})
}

// TestCoinSecondsString renders values on both sides of the word boundary.
func TestCoinSecondsString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "0", NewCoinSeconds(0).String())
	require.Equal(t, "12345", NewCoinSeconds(12345).String())

	// 2^64 = 18446744073709551616.
	v := CoinSeconds{hi: 1, lo: 0}
	require.Equal(t, "18446744073709551616", v.String())

	// 2^127 = 170141183460469231731687303715884105728.
	v = CoinSeconds{hi: 1 << 63, lo: 0}
	require.Equal(
		t, "170141183460469231731687303715884105728", v.String(),
	)
}

// TestCoinSecondsProperties cross-checks the two-word arithmetic against
// math/big over random values.
func TestCoinSecondsProperties(t *testing.T) {
	t.Parallel()

	t.Run("mul add div agree with big", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			bal := Share(rapid.Int64Range(
				0, int64(MaxShare),
			).Draw(t, "balance"))
			secs := rapid.Uint64Range(
				1, 1<<40,
			).Draw(t, "seconds")
			div := rapid.Uint64Range(1, 1<<40).Draw(t, "divisor")

			got := CoinSecondsFromShare(bal, secs)
			want := new(big.Int).Mul(
				big.NewInt(int64(bal)),
				new(big.Int).SetUint64(secs),
			)
			require.Equal(t, want, bigFromCoinSeconds(got))

			doubled := got.Add(got)
			wantSum := new(big.Int).Add(want, want)
			require.Equal(
				t, wantSum, bigFromCoinSeconds(doubled),
			)

			quo := doubled.DivSeconds(div)
			wantQuo := new(big.Int).Quo(
				wantSum, new(big.Int).SetUint64(div),
			)
			require.Equal(t, wantQuo, bigFromCoinSeconds(quo))

			diff := doubled.Sub(got)
			require.Equal(t, want, bigFromCoinSeconds(diff))
			require.Equal(t, 0, diff.Cmp(got))

			require.Equal(
				t, wantSum.String(), doubled.String(),
			)
		})
	})
}
