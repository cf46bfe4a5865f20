package referral

import (
	"sync"

	"github.com/florinchain/florind/acctdb"
	"github.com/lightningnetwork/lnd/ticker"
)

// SweeperConfig bundles the sweeper's dependencies.
type SweeperConfig struct {
	// ForEachAccount iterates every account in the store.
	ForEachAccount func(func(*acctdb.Account) error) error

	// Stats returns a snapshot of an account's statistics.
	Stats func(acctdb.AccountID) (acctdb.AccountStats, error)

	// ProcessFees distributes an account's pending fee buckets.
	ProcessFees func(acctdb.AccountID) error

	// SweepTicker fires once per distribution pass.
	SweepTicker ticker.Ticker
}

// Sweeper periodically walks the account set and distributes every non-zero
// pending fee bucket it finds. Distribution failures for individual accounts
// are logged and skipped, they do not stop the pass or the sweeper.
type Sweeper struct {
	started sync.Once
	stopped sync.Once

	cfg SweeperConfig

	wg   sync.WaitGroup
	quit chan struct{}
}

// NewSweeper creates a fee sweeper driven by the config's ticker.
func NewSweeper(cfg *SweeperConfig) *Sweeper {
	return &Sweeper{
		cfg:  *cfg,
		quit: make(chan struct{}),
	}
}

// Start launches the sweep loop.
func (s *Sweeper) Start() {
	s.started.Do(func() {
		log.Info("Fee sweeper starting")

		s.wg.Add(1)
		go s.sweepLoop()
	})
}

// Stop signals the sweep loop to exit and waits for it to finish.
func (s *Sweeper) Stop() {
	s.stopped.Do(func() {
		log.Info("Fee sweeper stopping")

		close(s.quit)
		s.wg.Wait()
	})
}

// sweepLoop runs distribution passes until the sweeper is stopped.
//
// NOTE: This must be run as a goroutine.
func (s *Sweeper) sweepLoop() {
	defer s.wg.Done()

	s.cfg.SweepTicker.Resume()
	defer s.cfg.SweepTicker.Stop()

	for {
		select {
		case <-s.cfg.SweepTicker.Ticks():
			s.sweep()

		case <-s.quit:
			return
		}
	}
}

// sweep runs a single distribution pass over all accounts.
func (s *Sweeper) sweep() {
	var uids []acctdb.AccountID
	err := s.cfg.ForEachAccount(func(acct *acctdb.Account) error {
		uids = append(uids, acct.UID)
		return nil
	})
	if err != nil {
		log.Errorf("Unable to scan accounts for pending fees: %v", err)
		return
	}

	var swept int
	for _, uid := range uids {
		stats, err := s.cfg.Stats(uid)
		if err != nil {
			// The account may have been removed since the scan.
			log.Warnf("Unable to fetch stats of account %v: %v",
				uid, err)
			continue
		}
		if stats.PendingFees <= 0 && stats.PendingVestedFees <= 0 {
			continue
		}

		if err := s.cfg.ProcessFees(uid); err != nil {
			log.Errorf("Unable to distribute fees of account "+
				"%v: %v", uid, err)
			continue
		}

		swept++
	}

	if swept > 0 {
		log.Debugf("Distributed pending fees of %d accounts", swept)
	}
}
