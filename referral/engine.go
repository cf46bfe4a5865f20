// Package referral implements the fee distribution engine. Fees paid by an
// account collect in two pending buckets on its statistics and are
// periodically split between the network's fee pool and the account's
// referral chain, with the chain's shares paid out as cashback. Fees above
// the chain's vesting threshold settle as vesting cashback, the rest settle
// liquid.
package referral

import (
	"fmt"
	"time"

	"github.com/florinchain/florind/acctdb"
	"github.com/florinchain/florind/amount"
	"github.com/florinchain/florind/chaincfg"
)

// Config bundles the engine's view of the ledger. All fields are required.
type Config struct {
	// Account fetches an account by UID.
	Account func(acctdb.AccountID) (*acctdb.Account, error)

	// ModifyAccount applies a mutation to an account under the store's
	// controlled mutation primitive.
	ModifyAccount func(acctdb.AccountID, func(*acctdb.Account) error) error

	// Stats returns a snapshot of an account's statistics.
	Stats func(acctdb.AccountID) (acctdb.AccountStats, error)

	// ModifyStats applies a mutation to an account's statistics.
	ModifyStats func(acctdb.AccountID, func(*acctdb.AccountStats)) error

	// DepositCashback credits a referral share to an account, vested or
	// liquid.
	DepositCashback func(acctdb.AccountID, amount.Share, bool) error

	// AddToFeePool credits the network's share of a distributed fee to
	// the global fee pool.
	AddToFeePool func(amount.Share)

	// HeadTime returns the current chain time, used to judge the
	// referrer's membership tier.
	HeadTime func() time.Time

	// Params are the chain level accounting parameters.
	Params chaincfg.Params
}

// Engine distributes the pending fee buckets of individual accounts.
type Engine struct {
	cfg Config
}

// NewEngine creates a fee distribution engine backed by the given ledger
// collaborators.
func NewEngine(cfg *Config) *Engine {
	return &Engine{cfg: *cfg}
}

// ProcessFees distributes the account's pending fee buckets. If either
// bucket is non-zero the distribution runs once per bucket: first the
// bucket of fees paid above the vesting threshold, whose shares settle as
// vesting cashback, then the bucket of ordinary fees, whose shares settle
// liquid. Afterwards the distributed amounts move out of the buckets and
// into the account's lifetime fee counter. With both buckets empty the call
// changes nothing.
func (e *Engine) ProcessFees(uid acctdb.AccountID) error {
	stats, err := e.cfg.Stats(uid)
	if err != nil {
		return fmt.Errorf("unable to fetch stats for account %v: %w",
			uid, err)
	}

	pendingFees := stats.PendingFees
	pendingVestedFees := stats.PendingVestedFees
	if pendingFees <= 0 && pendingVestedFees <= 0 {
		return nil
	}

	log.Debugf("Distributing fees of account %v: pending=%v, "+
		"pending_vested=%v", uid, pendingFees, pendingVestedFees)

	if err := e.payOutFees(uid, pendingFees, true); err != nil {
		return err
	}
	if err := e.payOutFees(uid, pendingVestedFees, false); err != nil {
		return err
	}

	// Fees recorded while the distribution ran stay in the buckets for
	// the next pass.
	return e.cfg.ModifyStats(uid, func(stats *acctdb.AccountStats) {
		stats.LifetimeFeesPaid += pendingFees + pendingVestedFees
		stats.PendingFees -= pendingFees
		stats.PendingVestedFees -= pendingVestedFees
	})
}

// payOutFees runs the distribution algorithm once for a single bucket.
func (e *Engine) payOutFees(uid acctdb.AccountID, coreFeeTotal amount.Share,
	requireVesting bool) error {

	acct, err := e.cfg.Account(uid)
	if err != nil {
		return fmt.Errorf("unable to fetch account %v: %w", uid, err)
	}

	// A referrer that has fallen back to basic membership forfeits its
	// share to the lifetime referrer. Registrars are required to be
	// lifetime members, so no equivalent check applies to them.
	referrer, err := e.cfg.Account(acct.Referrer)
	if err != nil {
		return fmt.Errorf("unable to fetch referrer %v of account "+
			"%v: %w", acct.Referrer, uid, err)
	}
	if referrer.IsBasic(e.cfg.HeadTime()) {
		err := e.cfg.ModifyAccount(
			uid, func(acct *acctdb.Account) error {
				acct.Referrer = acct.LifetimeReferrer
				return nil
			},
		)
		if err != nil {
			return fmt.Errorf("unable to demote referrer of "+
				"account %v: %w", uid, err)
		}

		log.Debugf("Referrer %v of account %v is no longer a "+
			"member, falling back to lifetime referrer %v",
			acct.Referrer, uid, acct.LifetimeReferrer)

		acct.Referrer = acct.LifetimeReferrer
	}

	networkCut := amount.CutFee(coreFeeTotal, acct.NetworkFeePercentage)
	if networkCut > coreFeeTotal {
		panic(fmt.Sprintf("network cut %v exceeds fee total %v",
			networkCut, coreFeeTotal))
	}

	// The reserve split of the network cut only feeds the closing sum
	// check. The pool is credited with the full cut.
	reserved := amount.CutFee(networkCut, e.cfg.Params.ReservePercentOfFee)
	accumulated := networkCut - reserved

	lifetimeCut := amount.CutFee(
		coreFeeTotal, acct.LifetimeReferrerFeePercentage,
	)
	referral := coreFeeTotal - networkCut - lifetimeCut

	e.cfg.AddToFeePool(networkCut)

	referrerCut := amount.CutFee(referral, acct.ReferrerRewardsPercentage)
	registrarCut := referral - referrerCut

	err = e.cfg.DepositCashback(
		acct.LifetimeReferrer, lifetimeCut, requireVesting,
	)
	if err != nil {
		return fmt.Errorf("unable to deposit lifetime referrer "+
			"share: %w", err)
	}
	err = e.cfg.DepositCashback(acct.Referrer, referrerCut, requireVesting)
	if err != nil {
		return fmt.Errorf("unable to deposit referrer share: %w", err)
	}
	err = e.cfg.DepositCashback(
		acct.Registrar, registrarCut, requireVesting,
	)
	if err != nil {
		return fmt.Errorf("unable to deposit registrar share: %w", err)
	}

	if referrerCut+registrarCut+accumulated+reserved+lifetimeCut !=
		coreFeeTotal {

		panic(fmt.Sprintf("fee distribution of %v does not sum up: "+
			"network=%v, lifetime=%v, referrer=%v, registrar=%v",
			coreFeeTotal, networkCut, lifetimeCut, referrerCut,
			registrarCut))
	}

	log.Tracef("Distributed fee of %v for account %v: network=%v, "+
		"lifetime_referrer=%v, referrer=%v, registrar=%v, vesting=%v",
		coreFeeTotal, uid, networkCut, lifetimeCut, referrerCut,
		registrarCut, requireVesting)

	return nil
}
