package acctdb

import (
	"fmt"

	"github.com/florinchain/florind/amount"
	"github.com/florinchain/florind/coinage"
)

// AccountStats carries the high churn counters of a single account,
// separated from the account object itself so that balance and fee traffic
// does not trigger the account lifecycle observers.
type AccountStats struct {
	// PendingFees are fees paid by this account that have not been
	// distributed yet and whose cashback will vest.
	PendingFees amount.Share

	// PendingVestedFees are undistributed fees below the vesting
	// threshold, whose cashback pays out liquid.
	PendingVestedFees amount.Share

	// LifetimeFeesPaid is the running total of all fees this account has
	// ever had distributed.
	LifetimeFeesPaid amount.Share

	// CoreBalance is the account's balance of the core asset.
	CoreBalance amount.Share

	// CoreLeasedIn is the balance leased to this account by others. It
	// counts toward the effective balance but is not spendable.
	CoreLeasedIn amount.Share

	// CoreLeasedOut is the balance this account leased to others.
	CoreLeasedOut amount.Share

	// StakeTime tracks the account's moving average balance and accrued
	// coin seconds.
	StakeTime coinage.Tracker
}

// EffectiveBalance is the balance that counts for stake time accounting:
// what the account holds, plus what it leased in, minus what it leased out.
func (s *AccountStats) EffectiveBalance() amount.Share {
	return s.CoreBalance + s.CoreLeasedIn - s.CoreLeasedOut
}

// PayFee routes a just-paid fee into one of the two pending buckets. Fees
// above the vesting threshold land in PendingFees, everything else in
// PendingVestedFees. The fee is only recorded here, distribution happens
// when the fee engine processes the buckets.
func (s *AccountStats) PayFee(fee, vestingThreshold amount.Share) {
	if fee < 0 {
		panic(fmt.Sprintf("negative fee %v", fee))
	}

	if fee > vestingThreshold {
		s.PendingFees += fee
	} else {
		s.PendingVestedFees += fee
	}
}

// CashbackBalance holds the fee cashback credited to an account, split by
// whether it still vests or is already liquid.
type CashbackBalance struct {
	// Vested is the liquid cashback available for withdrawal.
	Vested amount.Share

	// Unvested is the cashback still subject to vesting.
	Unvested amount.Share
}

// FeePool is the chain wide sink for the network's share of distributed
// fees.
type FeePool struct {
	// AccumulatedFees is the network cut collected from fee
	// distribution.
	AccumulatedFees amount.Share

	// Burned counts amounts destroyed instead of deposited, such as
	// cashback addressed to the chain's reserved accounts.
	Burned amount.Share
}
