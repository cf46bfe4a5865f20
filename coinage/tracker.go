// Package coinage implements stake time accounting for accounts. An
// account's stake time is measured in coin seconds, the product of its
// effective balance and the time that balance has been held. To keep the
// figures bounded, the accumulated coin seconds are capped by a moving
// average of the balance over a configurable window, and all timestamps are
// quantized to a one minute grid so that repeated updates within the same
// minute are idempotent.
package coinage

import (
	"fmt"
	"time"

	"github.com/florinchain/florind/amount"
)

// UpdateQuantum is the granularity of stake time timestamps. Update times
// are rounded down to a multiple of this quantum before any accounting is
// done, so two updates within the same quantum observe the same clock.
const UpdateQuantum = time.Minute

// QuantizeTime rounds t down to the stake time grid.
func QuantizeTime(t time.Time) time.Time {
	return t.Truncate(UpdateQuantum)
}

// Tracker accumulates the coin seconds earned by a single account. The zero
// value is ready to use: both timestamps sit at the zero time, which reads
// as "stale beyond any window", so the first update snaps the average to the
// current effective balance.
type Tracker struct {
	// AverageCoins is the moving average of the account's effective
	// balance over the configured window, as of the last update.
	AverageCoins amount.Share

	// AverageCoinsLastUpdate is the quantized time AverageCoins was last
	// brought current.
	AverageCoinsLastUpdate time.Time

	// CoinSecondsEarned is the stake time accumulated so far. It never
	// exceeds AverageCoins times the window.
	CoinSecondsEarned amount.CoinSeconds

	// CoinSecondsEarnedLastUpdate is the quantized time CoinSecondsEarned
	// was last brought current.
	CoinSecondsEarnedLastUpdate time.Time
}

// Compute returns the coin seconds earned and the moving average balance the
// tracker would hold at time now, without mutating the tracker. The caller
// supplies the account's current effective balance, which must not be
// negative, and the averaging window.
//
// The moving average blends the previous average with the current balance in
// proportion to how much of the window has elapsed since the last update.
// Once the elapsed time covers the whole window the average is simply the
// current balance. The accumulated coin seconds grow by balance times
// elapsed seconds and are then capped at average times window, so an account
// can never carry more stake time than its average balance sustained for one
// full window.
func (t *Tracker) Compute(effectiveBalance amount.Share,
	window time.Duration, now time.Time) (amount.CoinSeconds,
	amount.Share) {

	if effectiveBalance < 0 {
		panic(fmt.Sprintf("negative effective balance %v",
			effectiveBalance))
	}
	if window <= 0 {
		panic(fmt.Sprintf("non-positive window %v", window))
	}

	nowRounded := QuantizeTime(now)
	windowSeconds := uint64(window / time.Second)

	// Bring the moving average current.
	newAverageCoins := t.AverageCoins
	if nowRounded.After(t.AverageCoinsLastUpdate) {
		deltaSeconds := uint64(
			nowRounded.Sub(t.AverageCoinsLastUpdate) / time.Second,
		)
		if deltaSeconds >= windowSeconds {
			newAverageCoins = effectiveBalance
		} else {
			oldSeconds := windowSeconds - deltaSeconds

			oldCoinSeconds := amount.CoinSecondsFromShare(
				t.AverageCoins, oldSeconds,
			)
			newCoinSeconds := amount.CoinSecondsFromShare(
				effectiveBalance, deltaSeconds,
			)

			newAverageCoins = oldCoinSeconds.Add(newCoinSeconds).
				DivSeconds(windowSeconds).ToShare()
		}
	}

	// Derive the cap from the updated average rather than reusing the
	// blended sum, otherwise the truncation in the average division would
	// let the earned figure sit above what the average can justify.
	maxCoinSeconds := amount.CoinSecondsFromShare(
		newAverageCoins, windowSeconds,
	)

	// Accrue earned coin seconds since the last update.
	newEarned := t.CoinSecondsEarned
	if nowRounded.After(t.CoinSecondsEarnedLastUpdate) {
		deltaSeconds := uint64(
			nowRounded.Sub(t.CoinSecondsEarnedLastUpdate) /
				time.Second,
		)
		newEarned = newEarned.Add(amount.CoinSecondsFromShare(
			effectiveBalance, deltaSeconds,
		))
	}

	if newEarned.Cmp(maxCoinSeconds) > 0 {
		newEarned = maxCoinSeconds
	}

	return newEarned, newAverageCoins
}

// Update brings the tracker current at time now, accruing coin seconds at
// the given effective balance. Calling it again within the same quantum is a
// no-op. Both timestamps are set to the quantized now.
func (t *Tracker) Update(effectiveBalance amount.Share,
	window time.Duration, now time.Time) {

	nowRounded := QuantizeTime(now)
	if !nowRounded.After(t.CoinSecondsEarnedLastUpdate) &&
		!nowRounded.After(t.AverageCoinsLastUpdate) {

		return
	}

	earned, averageCoins := t.Compute(
		effectiveBalance, window, nowRounded,
	)

	t.CoinSecondsEarned = earned
	t.CoinSecondsEarnedLastUpdate = nowRounded
	t.AverageCoins = averageCoins
	t.AverageCoinsLastUpdate = nowRounded
}

// SetEarned overwrites the accumulated coin seconds, typically after some of
// them have been consumed. The earned timestamp is advanced to the quantized
// now if that is later, but never rewound, and the moving average is left
// untouched.
func (t *Tracker) SetEarned(earned amount.CoinSeconds, now time.Time) {
	nowRounded := QuantizeTime(now)

	t.CoinSecondsEarned = earned
	if t.CoinSecondsEarnedLastUpdate.Before(nowRounded) {
		t.CoinSecondsEarnedLastUpdate = nowRounded
	}
}
