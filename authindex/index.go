// Package authindex maintains reverse lookups from authority members to the
// accounts that reference them. Two families are tracked: accounts named in
// another account's authorities, and public keys named in another account's
// authorities or memo key. The index is a rebuildable cache fed by the
// account database's lifecycle hooks, it is never persisted.
package authindex

import (
	"fmt"
	"sort"
	"sync"

	"github.com/florinchain/florind/acctdb"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// AccountSource is the subset of the account database the index can rebuild
// itself from.
type AccountSource interface {
	// ForEachAccount visits every account in ascending UID order.
	ForEachAccount(func(acct *acctdb.Account) error) error
}

// AccountMembers returns the accounts referenced by any of the account's
// three authorities.
func AccountMembers(acct *acctdb.Account) fn.Set[acctdb.AccountID] {
	members := fn.NewSet[acctdb.AccountID]()

	for _, authority := range []*acctdb.Authority{
		&acct.Owner, &acct.Active, &acct.Secondary,
	} {
		for _, auth := range authority.AccountAuths {
			members.Add(auth.Account)
		}
	}

	return members
}

// KeyMembers returns the public keys referenced by the account's owner and
// active authorities, plus its memo key. Keys in the secondary authority are
// not part of key membership, and an unset memo key is skipped.
func KeyMembers(acct *acctdb.Account) fn.Set[acctdb.PubKey] {
	members := fn.NewSet[acctdb.PubKey]()

	for _, authority := range []*acctdb.Authority{
		&acct.Owner, &acct.Active,
	} {
		for _, auth := range authority.KeyAuths {
			members.Add(auth.Key)
		}
	}

	if !acct.MemoKey.IsZero() {
		members.Add(acct.MemoKey)
	}

	return members
}

// MemberIndex is the in-memory reverse index over authority membership. It
// implements acctdb.LifecycleObserver; registering it with a store keeps it
// consistent with every account mutation. Queries may run concurrently with
// the hooks.
type MemberIndex struct {
	mtx sync.RWMutex

	// accountMembers maps a member account to the accounts whose
	// authorities reference it.
	accountMembers map[acctdb.AccountID]fn.Set[acctdb.AccountID]

	// keyMembers maps a public key to the accounts whose authorities or
	// memo key reference it.
	keyMembers map[acctdb.PubKey]fn.Set[acctdb.AccountID]

	// beforeAccounts and beforeKeys hold the membership snapshot taken
	// by AboutToModify until the matching ObjectModified consumes it.
	// The store serializes mutations, so at most one snapshot is in
	// flight.
	beforeAccounts fn.Set[acctdb.AccountID]
	beforeKeys     fn.Set[acctdb.PubKey]
	snapshotTaken  bool
}

// A compile time check to ensure MemberIndex implements the
// acctdb.LifecycleObserver interface.
var _ acctdb.LifecycleObserver = (*MemberIndex)(nil)

// NewMemberIndex creates an empty member index.
func NewMemberIndex() *MemberIndex {
	return &MemberIndex{
		accountMembers: make(
			map[acctdb.AccountID]fn.Set[acctdb.AccountID],
		),
		keyMembers: make(map[acctdb.PubKey]fn.Set[acctdb.AccountID]),
	}
}

// indexAdd records uid as a dependent of every member, creating index
// entries as needed.
func indexAdd[M comparable](index map[M]fn.Set[acctdb.AccountID],
	members fn.Set[M], uid acctdb.AccountID) {

	for member := range members {
		dependents, ok := index[member]
		if !ok {
			dependents = fn.NewSet[acctdb.AccountID]()
			index[member] = dependents
		}
		dependents.Add(uid)
	}
}

// indexRemove erases uid from every member's dependent set, dropping index
// entries that empty out.
func indexRemove[M comparable](index map[M]fn.Set[acctdb.AccountID],
	members fn.Set[M], uid acctdb.AccountID) {

	for member := range members {
		dependents, ok := index[member]
		if !ok {
			continue
		}

		dependents.Remove(uid)
		if dependents.IsEmpty() {
			delete(index, member)
		}
	}
}

// ObjectInserted adds the new account to the dependent sets of all its
// members.
func (m *MemberIndex) ObjectInserted(acct *acctdb.Account) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	indexAdd(m.accountMembers, AccountMembers(acct), acct.UID)
	indexAdd(m.keyMembers, KeyMembers(acct), acct.UID)
}

// ObjectRemoved erases the account from the dependent sets of all the
// members it referenced just before removal.
func (m *MemberIndex) ObjectRemoved(acct *acctdb.Account) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	indexRemove(m.accountMembers, AccountMembers(acct), acct.UID)
	indexRemove(m.keyMembers, KeyMembers(acct), acct.UID)
}

// AboutToModify snapshots the account's membership before the mutation is
// applied, replacing any previous snapshot.
func (m *MemberIndex) AboutToModify(acct *acctdb.Account) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.beforeAccounts = AccountMembers(acct)
	m.beforeKeys = KeyMembers(acct)
	m.snapshotTaken = true
}

// ObjectModified diffs the account's membership against the snapshot taken
// by AboutToModify and applies the minimal set of index updates. Members
// present both before and after the mutation are untouched.
func (m *MemberIndex) ObjectModified(acct *acctdb.Account) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if !m.snapshotTaken {
		panic(fmt.Sprintf("account %v modified without membership "+
			"snapshot", acct.UID))
	}
	m.snapshotTaken = false

	afterAccounts := AccountMembers(acct)
	afterKeys := KeyMembers(acct)

	indexRemove(
		m.accountMembers, m.beforeAccounts.Diff(afterAccounts),
		acct.UID,
	)
	indexAdd(
		m.accountMembers, afterAccounts.Diff(m.beforeAccounts),
		acct.UID,
	)

	indexRemove(m.keyMembers, m.beforeKeys.Diff(afterKeys), acct.UID)
	indexAdd(m.keyMembers, afterKeys.Diff(m.beforeKeys), acct.UID)

	m.beforeAccounts = nil
	m.beforeKeys = nil
}

// AccountsByMember returns the accounts whose authorities reference the
// given account, in ascending UID order.
func (m *MemberIndex) AccountsByMember(
	member acctdb.AccountID) []acctdb.AccountID {

	m.mtx.RLock()
	defer m.mtx.RUnlock()

	return sortedDependents(m.accountMembers[member])
}

// AccountsByKey returns the accounts whose owner or active authorities or
// memo key reference the given public key, in ascending UID order.
func (m *MemberIndex) AccountsByKey(key acctdb.PubKey) []acctdb.AccountID {
	m.mtx.RLock()
	defer m.mtx.RUnlock()

	return sortedDependents(m.keyMembers[key])
}

// sortedDependents flattens a dependent set into a sorted slice.
func sortedDependents(dependents fn.Set[acctdb.AccountID]) []acctdb.AccountID {
	if dependents.IsEmpty() {
		return nil
	}

	uids := dependents.ToSlice()
	sort.Slice(uids, func(i, j int) bool {
		return uids[i] < uids[j]
	})

	return uids
}

// Rebuild reconstructs the index from the full account set, discarding its
// current contents. A fresh index must be rebuilt when it is registered with
// a store that already holds accounts.
func (m *MemberIndex) Rebuild(source AccountSource) error {
	accountMembers := make(map[acctdb.AccountID]fn.Set[acctdb.AccountID])
	keyMembers := make(map[acctdb.PubKey]fn.Set[acctdb.AccountID])

	err := source.ForEachAccount(func(acct *acctdb.Account) error {
		indexAdd(accountMembers, AccountMembers(acct), acct.UID)
		indexAdd(keyMembers, KeyMembers(acct), acct.UID)
		return nil
	})
	if err != nil {
		return err
	}

	m.mtx.Lock()
	defer m.mtx.Unlock()

	m.accountMembers = accountMembers
	m.keyMembers = keyMembers
	m.beforeAccounts = nil
	m.beforeKeys = nil
	m.snapshotTaken = false

	log.Debugf("Rebuilt authority member index: %d account members, "+
		"%d key members", len(accountMembers), len(keyMembers))

	return nil
}
