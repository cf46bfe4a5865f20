package florind

import (
	"sync"

	"github.com/florinchain/florind/acctdb"
	"github.com/florinchain/florind/amount"
	"github.com/florinchain/florind/authindex"
	"github.com/florinchain/florind/chaincfg"
	"github.com/florinchain/florind/referral"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/ticker"
)

// Config holds the collaborators and parameters of a ledger instance.
type Config struct {
	// Clock supplies the chain head time used for membership checks and
	// stake time accounting. Defaults to the system clock.
	Clock clock.Clock

	// Params are the chain level accounting parameters.
	Params chaincfg.Params

	// SweepTicker drives the periodic fee distribution passes. Defaults
	// to a plain interval ticker firing every Params.FeeSweepInterval.
	SweepTicker ticker.Ticker
}

// Ledger bundles the per-account ledger core: the account store, the
// authority member index kept in lockstep with it, and the fee distribution
// engine with its sweeper.
type Ledger struct {
	started sync.Once
	stopped sync.Once

	cfg Config

	store   *acctdb.Store
	members *authindex.MemberIndex
	engine  *referral.Engine
	sweeper *referral.Sweeper
}

// NewLedger assembles a ledger from the given config.
func NewLedger(cfg *Config) (*Ledger, error) {
	l := &Ledger{cfg: *cfg}

	if l.cfg.Clock == nil {
		l.cfg.Clock = clock.NewDefaultClock()
	}
	if err := l.cfg.Params.Validate(); err != nil {
		return nil, err
	}

	l.store = acctdb.NewStore(&acctdb.Config{
		Clock:  l.cfg.Clock,
		Params: l.cfg.Params,
	})

	// The store seeds the chain's reserved accounts before any observer
	// can register, so the index starts from a full rebuild.
	l.members = authindex.NewMemberIndex()
	l.store.RegisterObserver(l.members)
	if err := l.members.Rebuild(l.store); err != nil {
		return nil, err
	}

	l.engine = referral.NewEngine(&referral.Config{
		Account:         l.store.Account,
		ModifyAccount:   l.store.ModifyAccount,
		Stats:           l.store.Stats,
		ModifyStats:     l.store.ModifyStats,
		DepositCashback: l.store.DepositCashback,
		AddToFeePool: func(amt amount.Share) {
			l.store.ModifyFeePool(func(pool *acctdb.FeePool) {
				pool.AccumulatedFees += amt
			})
		},
		HeadTime: l.cfg.Clock.Now,
		Params:   l.cfg.Params,
	})

	sweepTicker := l.cfg.SweepTicker
	if sweepTicker == nil {
		sweepTicker = ticker.New(l.cfg.Params.FeeSweepInterval)
	}
	l.sweeper = referral.NewSweeper(&referral.SweeperConfig{
		ForEachAccount: l.store.ForEachAccount,
		Stats:          l.store.Stats,
		ProcessFees:    l.engine.ProcessFees,
		SweepTicker:    sweepTicker,
	})

	return l, nil
}

// Start launches the ledger's background machinery.
func (l *Ledger) Start() {
	l.started.Do(func() {
		log.Infof("Ledger starting, sweeping fees every %v",
			l.cfg.Params.FeeSweepInterval)

		l.sweeper.Start()
	})
}

// Stop shuts the background machinery down and waits for it to exit.
func (l *Ledger) Stop() {
	l.stopped.Do(func() {
		log.Info("Ledger stopping")

		l.sweeper.Stop()
	})
}

// Store returns the ledger's account database.
func (l *Ledger) Store() *acctdb.Store {
	return l.store
}

// MemberIndex returns the ledger's authority member index.
func (l *Ledger) MemberIndex() *authindex.MemberIndex {
	return l.members
}

// Engine returns the ledger's fee distribution engine.
func (l *Ledger) Engine() *referral.Engine {
	return l.engine
}
