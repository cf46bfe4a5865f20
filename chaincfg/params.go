// Package chaincfg defines the chain level parameters that govern fee
// distribution, cashback vesting, and stake time accounting. The parameters
// are fixed at process start and shared read-only by the subsystems that
// consume them.
package chaincfg

import (
	"errors"
	"time"

	"github.com/florinchain/florind/amount"
)

const (
	// CommitteeAccountUID is the account that receives the network's
	// share of distributed fees.
	CommitteeAccountUID = 0

	// ValidatorAccountUID is the operational account used by block
	// producers.
	ValidatorAccountUID = 1

	// NullAccountUID is the account that burned funds are attributed to.
	// It has no authority and its balances are unspendable.
	NullAccountUID = 2

	// TempAccountUID is the account used to stage funds for operations
	// that have not yet been finalized.
	TempAccountUID = 3

	// FirstUnreservedAccountUID is the lowest UID that can be assigned to
	// a user account. All UIDs below it are reserved for the accounts
	// above.
	FirstUnreservedAccountUID = 4
)

const (
	// DefaultReservePercentOfFee is the portion of the network's fee cut
	// that is earmarked for the reserve rather than the committee pool,
	// expressed in basis points.
	DefaultReservePercentOfFee amount.BasisPoints = 2000

	// DefaultCashbackVestingThreshold is the fee size above which a paid
	// fee is routed to the vesting bucket instead of being distributed as
	// liquid cashback.
	DefaultCashbackVestingThreshold amount.Share = 100000000

	// DefaultCoinSecondsWindow is the averaging window applied when
	// updating an account's moving average balance and the horizon used
	// to cap its accrued coin seconds.
	DefaultCoinSecondsWindow = 7 * 24 * time.Hour

	// DefaultFeeSweepInterval is how often the fee sweeper scans accounts
	// for pending fees to distribute.
	DefaultFeeSweepInterval = 10 * time.Minute
)

var (
	// ErrInvalidReservePercent signals that the reserve percentage exceeds
	// one hundred percent.
	ErrInvalidReservePercent = errors.New("reserve percent exceeds " +
		"10000 basis points")

	// ErrInvalidVestingThreshold signals a negative cashback vesting
	// threshold.
	ErrInvalidVestingThreshold = errors.New("cashback vesting threshold " +
		"is negative")

	// ErrInvalidCoinSecondsWindow signals a window that is shorter than
	// the stake time quantum or not a whole number of seconds.
	ErrInvalidCoinSecondsWindow = errors.New("coin seconds window must " +
		"be a whole number of seconds and at least one minute")

	// ErrInvalidSweepInterval signals a non-positive fee sweep interval.
	ErrInvalidSweepInterval = errors.New("fee sweep interval is not " +
		"positive")
)

// Params bundles the consensus critical knobs of the accounting engine. A
// Params value is treated as immutable once handed to a subsystem.
type Params struct {
	// ReservePercentOfFee is the portion of the network fee cut routed to
	// the reserve, in basis points of the cut.
	ReservePercentOfFee amount.BasisPoints

	// CashbackVestingThreshold is the fee size above which a paid fee
	// lands in the pending vesting bucket. Fees at or below it are
	// distributed as liquid cashback.
	CashbackVestingThreshold amount.Share

	// CoinSecondsWindow is the length of the moving average window used
	// for stake time accounting. It also bounds the total coin seconds an
	// account may accrue.
	CoinSecondsWindow time.Duration

	// FeeSweepInterval is the period of the background fee distribution
	// sweep.
	FeeSweepInterval time.Duration
}

// DefaultParams returns the parameters used by the production network.
func DefaultParams() Params {
	return Params{
		ReservePercentOfFee:      DefaultReservePercentOfFee,
		CashbackVestingThreshold: DefaultCashbackVestingThreshold,
		CoinSecondsWindow:        DefaultCoinSecondsWindow,
		FeeSweepInterval:         DefaultFeeSweepInterval,
	}
}

// Validate returns an error if any parameter is outside its permitted range.
func (p Params) Validate() error {
	if p.ReservePercentOfFee > amount.TotalBasisPoints {
		return ErrInvalidReservePercent
	}

	if p.CashbackVestingThreshold < 0 {
		return ErrInvalidVestingThreshold
	}

	if p.CoinSecondsWindow < time.Minute ||
		p.CoinSecondsWindow%time.Second != 0 {

		return ErrInvalidCoinSecondsWindow
	}

	if p.FeeSweepInterval <= 0 {
		return ErrInvalidSweepInterval
	}

	return nil
}
