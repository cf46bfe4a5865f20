package acctdb

import (
	"fmt"
	"sort"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"github.com/florinchain/florind/amount"
	"github.com/florinchain/florind/chaincfg"
	"github.com/florinchain/florind/multimutex"
	"github.com/lightningnetwork/lnd/clock"
)

// LifecycleObserver is implemented by components that shadow the account set
// with derived state, such as the authority member index. The store invokes
// the hooks synchronously while it holds its own lock: implementations must
// be fast, must treat the passed account as read-only, and must not call
// back into the store.
type LifecycleObserver interface {
	// ObjectInserted is invoked after a new account was added.
	ObjectInserted(acct *Account)

	// ObjectRemoved is invoked after an account was deleted, with the
	// removed account.
	ObjectRemoved(acct *Account)

	// AboutToModify is invoked with the unmodified account before a
	// modification is applied. Every call is followed by exactly one
	// ObjectModified call for the same account.
	AboutToModify(acct *Account)

	// ObjectModified is invoked with the updated account after a
	// modification was applied.
	ObjectModified(acct *Account)
}

// Config provides the store with its collaborators.
type Config struct {
	// Clock supplies the chain head time used for membership checks and
	// stake time accounting.
	Clock clock.Clock

	// Params are the chain level accounting parameters.
	Params chaincfg.Params
}

// reservedAccounts are the chain's builtin accounts. Every store starts out
// with these, so user registrations can never collide with them and fee
// distribution always finds its counterparties.
var reservedAccounts = []struct {
	uid  AccountID
	name string
}{
	{chaincfg.CommitteeAccountUID, "committee-account"},
	{chaincfg.ValidatorAccountUID, "validator-account"},
	{chaincfg.NullAccountUID, "null-account"},
	{chaincfg.TempAccountUID, "temp-account"},
}

// Store is the in-memory account database. Account object mutations are
// serialized store wide and dispatch lifecycle hooks, while the high churn
// statistics and cashback counters are updated under per-account locks so
// that fee and balance traffic on distinct accounts does not contend.
type Store struct {
	cfg *Config

	// mtx guards the object maps. Account mutations and lifecycle hook
	// dispatch happen under the write lock, everything else takes the
	// read lock.
	mtx sync.RWMutex

	accounts map[AccountID]*Account
	stats    map[AccountID]*AccountStats
	cashback map[AccountID]*CashbackBalance

	// statsMtx serializes read-modify-write cycles on a single
	// account's statistics and cashback balance.
	statsMtx *multimutex.Mutex[AccountID]

	poolMtx sync.Mutex
	pool    FeePool

	observers []LifecycleObserver
}

// NewStore creates an account database holding the chain's reserved accounts
// and nothing else. The reserved accounts are lifetime members referring to
// themselves, with their full fee routed to the network.
func NewStore(cfg *Config) *Store {
	s := &Store{
		cfg:      cfg,
		accounts: make(map[AccountID]*Account),
		stats:    make(map[AccountID]*AccountStats),
		cashback: make(map[AccountID]*CashbackBalance),
		statsMtx: multimutex.NewMutex[AccountID](),
	}

	for _, reserved := range reservedAccounts {
		s.accounts[reserved.uid] = &Account{
			UID:                  reserved.uid,
			Name:                 reserved.name,
			Registrar:            reserved.uid,
			Referrer:             reserved.uid,
			LifetimeReferrer:     reserved.uid,
			NetworkFeePercentage: amount.TotalBasisPoints,
			MembershipExpiration: NeverExpires,
		}
		s.stats[reserved.uid] = &AccountStats{}
		s.cashback[reserved.uid] = &CashbackBalance{}
	}

	return s
}

// RegisterObserver adds a lifecycle observer. Observers are notified in
// registration order. Indexes that register against a store that already
// holds accounts should rebuild themselves from it afterwards.
func (s *Store) RegisterObserver(observer LifecycleObserver) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.observers = append(s.observers, observer)
}

// validateAccount rejects accounts whose fee percentages cannot form a valid
// distribution or that carry no name.
func validateAccount(acct *Account) error {
	if acct.Name == "" {
		return ErrInvalidAccountName
	}

	if acct.NetworkFeePercentage > amount.TotalBasisPoints ||
		acct.LifetimeReferrerFeePercentage > amount.TotalBasisPoints ||
		acct.ReferrerRewardsPercentage > amount.TotalBasisPoints {

		return ErrInvalidFeeSplit
	}

	// The network and lifetime referrer cuts both come off the same fee,
	// so together they cannot exceed the whole.
	total := uint32(acct.NetworkFeePercentage) +
		uint32(acct.LifetimeReferrerFeePercentage)
	if total > uint32(amount.TotalBasisPoints) {
		return ErrInvalidFeeSplit
	}

	return nil
}

// InsertAccount adds a new account along with zeroed statistics and cashback
// balances, then notifies the lifecycle observers. The account's referral
// accounts must already exist.
func (s *Store) InsertAccount(acct *Account) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if acct.UID < chaincfg.FirstUnreservedAccountUID {
		return fmt.Errorf("%w: %v", ErrReservedAccountUID, acct.UID)
	}
	if _, ok := s.accounts[acct.UID]; ok {
		return fmt.Errorf("%w: %v", ErrDuplicateAccount, acct.UID)
	}
	if err := validateAccount(acct); err != nil {
		return err
	}

	for _, referral := range []AccountID{
		acct.Registrar, acct.Referrer, acct.LifetimeReferrer,
	} {
		if _, ok := s.accounts[referral]; !ok {
			return fmt.Errorf("%w: %v", ErrUnknownReferral,
				referral)
		}
	}

	cp := acct.Copy()
	s.accounts[cp.UID] = cp
	s.stats[cp.UID] = &AccountStats{}
	s.cashback[cp.UID] = &CashbackBalance{}

	for _, observer := range s.observers {
		observer.ObjectInserted(cp)
	}

	log.Debugf("Inserted account %v (%v)", cp.UID, cp.Name)

	return nil
}

// RemoveAccount deletes an account and its statistics and cashback balances,
// then notifies the lifecycle observers with the removed account. The
// reserved accounts cannot be removed.
func (s *Store) RemoveAccount(uid AccountID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if uid < chaincfg.FirstUnreservedAccountUID {
		return fmt.Errorf("%w: %v", ErrReservedAccountUID, uid)
	}

	acct, ok := s.accounts[uid]
	if !ok {
		return fmt.Errorf("%w: %v", ErrAccountNotFound, uid)
	}

	delete(s.accounts, uid)
	delete(s.stats, uid)
	delete(s.cashback, uid)

	for _, observer := range s.observers {
		observer.ObjectRemoved(acct)
	}

	log.Debugf("Removed account %v (%v)", acct.UID, acct.Name)

	return nil
}

// ModifyAccount applies fn to a scratch copy of the account and, if fn
// succeeds and the result validates, atomically replaces the stored object.
// Observers see AboutToModify with the old object and ObjectModified with
// the new one. If fn returns an error, nothing is applied and no hooks fire.
func (s *Store) ModifyAccount(uid AccountID,
	fn func(acct *Account) error) error {

	s.mtx.Lock()
	defer s.mtx.Unlock()

	acct, ok := s.accounts[uid]
	if !ok {
		return fmt.Errorf("%w: %v", ErrAccountNotFound, uid)
	}

	updated := acct.Copy()
	if err := fn(updated); err != nil {
		return err
	}

	if updated.UID != uid {
		panic(fmt.Sprintf("account UID changed during modify: "+
			"%v -> %v", uid, updated.UID))
	}
	if err := validateAccount(updated); err != nil {
		return err
	}

	for _, observer := range s.observers {
		observer.AboutToModify(acct)
	}

	s.accounts[uid] = updated

	for _, observer := range s.observers {
		observer.ObjectModified(updated)
	}

	log.Tracef("Account %v modified: %v", uid,
		newLogClosure(func() string {
			return spew.Sdump(updated)
		}))

	return nil
}

// Account returns a copy of the account with the given UID.
func (s *Store) Account(uid AccountID) (*Account, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	acct, ok := s.accounts[uid]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrAccountNotFound, uid)
	}

	return acct.Copy(), nil
}

// ForEachAccount invokes fn with a copy of every account in ascending UID
// order, stopping at the first error.
func (s *Store) ForEachAccount(fn func(acct *Account) error) error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	uids := make([]AccountID, 0, len(s.accounts))
	for uid := range s.accounts {
		uids = append(uids, uid)
	}
	sort.Slice(uids, func(i, j int) bool {
		return uids[i] < uids[j]
	})

	for _, uid := range uids {
		if err := fn(s.accounts[uid].Copy()); err != nil {
			return err
		}
	}

	return nil
}

// Stats returns a snapshot of the account's statistics.
func (s *Store) Stats(uid AccountID) (AccountStats, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	stats, ok := s.stats[uid]
	if !ok {
		return AccountStats{}, fmt.Errorf("%w: %v",
			ErrAccountNotFound, uid)
	}

	s.statsMtx.Lock(uid)
	defer s.statsMtx.Unlock(uid)

	return *stats, nil
}

// ModifyStats applies fn to the account's statistics under the per-account
// lock.
func (s *Store) ModifyStats(uid AccountID, fn func(stats *AccountStats)) error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	stats, ok := s.stats[uid]
	if !ok {
		return fmt.Errorf("%w: %v", ErrAccountNotFound, uid)
	}

	s.statsMtx.Lock(uid)
	defer s.statsMtx.Unlock(uid)

	fn(stats)

	return nil
}

// PayFee records a fee paid by the account in the pending bucket picked by
// the chain's cashback vesting threshold. The fee sits there until the fee
// engine distributes it.
func (s *Store) PayFee(uid AccountID, fee amount.Share) error {
	err := s.ModifyStats(uid, func(stats *AccountStats) {
		stats.PayFee(fee, s.cfg.Params.CashbackVestingThreshold)
	})
	if err != nil {
		return err
	}

	log.Debugf("Account %v paid fee %v", uid, fee)

	return nil
}

// RefreshCoinSeconds brings the account's stake time accounting current at
// the head time.
func (s *Store) RefreshCoinSeconds(uid AccountID) error {
	return s.ModifyStats(uid, func(stats *AccountStats) {
		stats.StakeTime.Update(
			stats.EffectiveBalance(),
			s.cfg.Params.CoinSecondsWindow, s.cfg.Clock.Now(),
		)
	})
}

// SpendCoinSeconds consumes part of the account's accrued coin seconds,
// refreshing the accumulator first so the spend is judged against the
// current figure.
func (s *Store) SpendCoinSeconds(uid AccountID, cs amount.CoinSeconds) error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	stats, ok := s.stats[uid]
	if !ok {
		return fmt.Errorf("%w: %v", ErrAccountNotFound, uid)
	}

	s.statsMtx.Lock(uid)
	defer s.statsMtx.Unlock(uid)

	now := s.cfg.Clock.Now()
	stats.StakeTime.Update(
		stats.EffectiveBalance(), s.cfg.Params.CoinSecondsWindow, now,
	)

	earned := stats.StakeTime.CoinSecondsEarned
	if earned.Cmp(cs) < 0 {
		return fmt.Errorf("%w: account %v has %v, spend %v",
			ErrInsufficientCoinSeconds, uid, earned, cs)
	}

	stats.StakeTime.SetEarned(earned.Sub(cs), now)

	log.Debugf("Account %v spent %v coin seconds", uid, cs)

	return nil
}

// Cashback returns a snapshot of the account's cashback balance.
func (s *Store) Cashback(uid AccountID) (CashbackBalance, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	cb, ok := s.cashback[uid]
	if !ok {
		return CashbackBalance{}, fmt.Errorf("%w: %v",
			ErrAccountNotFound, uid)
	}

	s.statsMtx.Lock(uid)
	defer s.statsMtx.Unlock(uid)

	return *cb, nil
}

// DepositCashback credits fee cashback to an account. Deposits requiring
// vesting accumulate in the unvested bucket, the rest pay out liquid.
// Cashback addressed to one of the chain's reserved accounts is burned to
// the fee pool instead. Zero deposits are a no-op.
func (s *Store) DepositCashback(uid AccountID, amt amount.Share,
	requireVesting bool) error {

	if amt < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeDeposit, amt)
	}
	if amt == 0 {
		return nil
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	cb, ok := s.cashback[uid]
	if !ok {
		return fmt.Errorf("%w: %v", ErrAccountNotFound, uid)
	}

	// The chain's own accounts do not earn cashback.
	if uid < chaincfg.FirstUnreservedAccountUID {
		s.poolMtx.Lock()
		s.pool.Burned += amt
		s.poolMtx.Unlock()

		log.Debugf("Burned cashback of %v for reserved account %v",
			amt, uid)

		return nil
	}

	s.statsMtx.Lock(uid)
	defer s.statsMtx.Unlock(uid)

	if requireVesting {
		cb.Unvested += amt
	} else {
		cb.Vested += amt
	}

	log.Tracef("Deposited cashback of %v to account %v (vesting=%v)",
		amt, uid, requireVesting)

	return nil
}

// AdjustCoreBalance applies a balance delta to the account. The stake time
// accumulator is brought current with the pre-change balance first, so the
// delta only earns coin seconds from now on. A negative delta that would
// overdraw the account is rejected.
func (s *Store) AdjustCoreBalance(uid AccountID, delta amount.Share) error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	stats, ok := s.stats[uid]
	if !ok {
		return fmt.Errorf("%w: %v", ErrAccountNotFound, uid)
	}

	s.statsMtx.Lock(uid)
	defer s.statsMtx.Unlock(uid)

	stats.StakeTime.Update(
		stats.EffectiveBalance(), s.cfg.Params.CoinSecondsWindow,
		s.cfg.Clock.Now(),
	)

	if delta < 0 && stats.CoreBalance+delta < 0 {
		return fmt.Errorf("%w: account %v has %v, delta %v",
			ErrInsufficientBalance, uid, stats.CoreBalance, delta)
	}
	stats.CoreBalance += delta

	log.Debugf("Account %v core balance adjusted by %v to %v", uid,
		delta, stats.CoreBalance)

	return nil
}

// FeePool returns a snapshot of the global fee pool.
func (s *Store) FeePool() FeePool {
	s.poolMtx.Lock()
	defer s.poolMtx.Unlock()

	return s.pool
}

// ModifyFeePool applies fn to the global fee pool.
func (s *Store) ModifyFeePool(fn func(pool *FeePool)) {
	s.poolMtx.Lock()
	defer s.poolMtx.Unlock()

	fn(&s.pool)
}
