package authindex

import (
	"fmt"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/florinchain/florind/acctdb"
	"github.com/florinchain/florind/chaincfg"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"
)

var testTime = time.Unix(1700000040, 0)

// testKey derives a distinct public key from a seed.
func testKey(seed byte) acctdb.PubKey {
	var scalar [32]byte
	scalar[0] = 1
	scalar[31] = seed

	priv, _ := btcec.PrivKeyFromBytes(scalar[:])

	return acctdb.NewPubKey(priv.PubKey())
}

// testAccount builds a bare account referring to the committee account.
func testAccount(uid acctdb.AccountID) *acctdb.Account {
	return &acctdb.Account{
		UID:                  uid,
		Name:                 fmt.Sprintf("acct-%d", uid),
		Registrar:            chaincfg.CommitteeAccountUID,
		Referrer:             chaincfg.CommitteeAccountUID,
		LifetimeReferrer:     chaincfg.CommitteeAccountUID,
		MembershipExpiration: acctdb.NeverExpires,
	}
}

// TestMembershipDerivation asserts which authority entries count towards
// account and key membership.
func TestMembershipDerivation(t *testing.T) {
	t.Parallel()

	acct := testAccount(7)
	acct.Owner = acctdb.Authority{
		WeightThreshold: 2,
		AccountAuths: []acctdb.AccountWeight{
			{Account: 10, Weight: 1},
		},
		KeyAuths: []acctdb.KeyWeight{
			{Key: testKey(1), Weight: 1},
		},
	}
	acct.Active = acctdb.Authority{
		WeightThreshold: 1,
		AccountAuths: []acctdb.AccountWeight{
			{Account: 11, Weight: 1},

			// Duplicate of an owner entry, sets collapse it.
			{Account: 10, Weight: 1},
		},
		KeyAuths: []acctdb.KeyWeight{
			{Key: testKey(2), Weight: 1},
		},
	}
	acct.Secondary = acctdb.Authority{
		WeightThreshold: 1,
		AccountAuths: []acctdb.AccountWeight{
			{Account: 12, Weight: 1},
		},
		KeyAuths: []acctdb.KeyWeight{
			{Key: testKey(3), Weight: 1},
		},
	}
	acct.MemoKey = testKey(4)

	accountMembers := AccountMembers(acct)
	require.Equal(t, 3, len(accountMembers))
	for _, member := range []acctdb.AccountID{10, 11, 12} {
		require.True(t, accountMembers.Contains(member))
	}

	// Key membership spans owner and active plus the memo key. The
	// secondary authority's key must not appear.
	keyMembers := KeyMembers(acct)
	require.Equal(t, 3, len(keyMembers))
	for _, key := range []acctdb.PubKey{
		testKey(1), testKey(2), testKey(4),
	} {
		require.True(t, keyMembers.Contains(key))
	}
	require.False(t, keyMembers.Contains(testKey(3)))

	// An unset memo key contributes nothing.
	acct.MemoKey = acctdb.PubKey{}
	require.Equal(t, 2, len(KeyMembers(acct)))
}

// TestIndexInsertRemove asserts the plain insert and remove paths, including
// the removal of index entries whose dependent set empties out.
func TestIndexInsertRemove(t *testing.T) {
	t.Parallel()

	index := NewMemberIndex()

	sharedKey := testKey(1)

	first := testAccount(7)
	first.Owner.AccountAuths = []acctdb.AccountWeight{
		{Account: 20, Weight: 1},
	}
	first.Owner.KeyAuths = []acctdb.KeyWeight{
		{Key: sharedKey, Weight: 1},
	}

	second := testAccount(5)
	second.Active.AccountAuths = []acctdb.AccountWeight{
		{Account: 20, Weight: 1},
	}
	second.Active.KeyAuths = []acctdb.KeyWeight{
		{Key: sharedKey, Weight: 1},
	}

	index.ObjectInserted(first)
	index.ObjectInserted(second)

	// Results come back in ascending UID order regardless of insertion
	// order.
	require.Equal(
		t, []acctdb.AccountID{5, 7}, index.AccountsByMember(20),
	)
	require.Equal(
		t, []acctdb.AccountID{5, 7}, index.AccountsByKey(sharedKey),
	)
	require.Nil(t, index.AccountsByMember(99))
	require.Nil(t, index.AccountsByKey(testKey(9)))

	index.ObjectRemoved(first)
	require.Equal(
		t, []acctdb.AccountID{5}, index.AccountsByMember(20),
	)
	require.Equal(
		t, []acctdb.AccountID{5}, index.AccountsByKey(sharedKey),
	)

	// Removing the last dependent drops the entries entirely.
	index.ObjectRemoved(second)
	require.Nil(t, index.AccountsByMember(20))
	require.Nil(t, index.AccountsByKey(sharedKey))
	require.Empty(t, index.accountMembers)
	require.Empty(t, index.keyMembers)
}

// TestIndexModify asserts that a modification only touches the entries whose
// membership actually changed.
func TestIndexModify(t *testing.T) {
	t.Parallel()

	index := NewMemberIndex()

	keptKey := testKey(1)

	before := testAccount(7)
	before.Owner = acctdb.Authority{
		WeightThreshold: 1,
		AccountAuths: []acctdb.AccountWeight{
			{Account: 8, Weight: 1},
		},
		KeyAuths: []acctdb.KeyWeight{
			{Key: keptKey, Weight: 1},
		},
	}

	index.ObjectInserted(before)

	// Drop the account auth, keep the key auth, add a new account auth.
	after := before.Copy()
	after.Owner.AccountAuths = []acctdb.AccountWeight{
		{Account: 9, Weight: 1},
	}

	index.AboutToModify(before)
	index.ObjectModified(after)

	require.Nil(t, index.AccountsByMember(8))
	require.Equal(t, []acctdb.AccountID{7}, index.AccountsByMember(9))
	require.Equal(t, []acctdb.AccountID{7}, index.AccountsByKey(keptKey))
}

// TestIndexModifyMemoKey asserts that rotating the memo key moves the
// account between key entries.
func TestIndexModifyMemoKey(t *testing.T) {
	t.Parallel()

	index := NewMemberIndex()

	before := testAccount(7)
	before.MemoKey = testKey(1)
	index.ObjectInserted(before)

	after := before.Copy()
	after.MemoKey = testKey(2)

	index.AboutToModify(before)
	index.ObjectModified(after)

	require.Nil(t, index.AccountsByKey(testKey(1)))
	require.Equal(
		t, []acctdb.AccountID{7}, index.AccountsByKey(testKey(2)),
	)
}

// TestUnpairedModifyPanics asserts the hook pairing contract.
func TestUnpairedModifyPanics(t *testing.T) {
	t.Parallel()

	index := NewMemberIndex()
	acct := testAccount(7)
	index.ObjectInserted(acct)

	require.Panics(t, func() {
		index.ObjectModified(acct)
	})

	// A snapshot is consumed by the first modified call, a second one
	// without a fresh snapshot panics again.
	index.AboutToModify(acct)
	index.ObjectModified(acct)
	require.Panics(t, func() {
		index.ObjectModified(acct)
	})
}

// TestRebuild asserts that rebuilding from a populated store produces the
// same index as replaying the individual inserts.
func TestRebuild(t *testing.T) {
	t.Parallel()

	store := acctdb.NewStore(&acctdb.Config{
		Clock:  clock.NewTestClock(testTime),
		Params: chaincfg.DefaultParams(),
	})

	var accounts []*acctdb.Account
	for i := 0; i < 4; i++ {
		acct := testAccount(acctdb.AccountID(10 + i))
		acct.Owner.AccountAuths = []acctdb.AccountWeight{
			{Account: acctdb.AccountID(20 + i%2), Weight: 1},
		}
		acct.Active.KeyAuths = []acctdb.KeyWeight{
			{Key: testKey(byte(1 + i%2)), Weight: 1},
		}
		acct.MemoKey = testKey(byte(10 + i))
		accounts = append(accounts, acct)
	}

	// The member accounts themselves.
	require.NoError(t, store.InsertAccount(testAccount(20)))
	require.NoError(t, store.InsertAccount(testAccount(21)))
	for _, acct := range accounts {
		require.NoError(t, store.InsertAccount(acct))
	}

	rebuilt := NewMemberIndex()
	require.NoError(t, rebuilt.Rebuild(store))

	replayed := NewMemberIndex()
	require.NoError(t, store.ForEachAccount(
		func(acct *acctdb.Account) error {
			replayed.ObjectInserted(acct)
			return nil
		},
	))

	for _, member := range []acctdb.AccountID{0, 10, 20, 21, 99} {
		require.Equal(
			t, replayed.AccountsByMember(member),
			rebuilt.AccountsByMember(member),
		)
	}
	for seed := byte(1); seed < 15; seed++ {
		require.Equal(
			t, replayed.AccountsByKey(testKey(seed)),
			rebuilt.AccountsByKey(testKey(seed)),
		)
	}

	require.Equal(
		t, []acctdb.AccountID{10, 12}, rebuilt.AccountsByMember(20),
	)
	require.Equal(
		t, []acctdb.AccountID{11, 13}, rebuilt.AccountsByMember(21),
	)
	require.Equal(
		t, []acctdb.AccountID{10, 12},
		rebuilt.AccountsByKey(testKey(1)),
	)

	// Rebuilding again over existing contents must not double count.
	require.NoError(t, rebuilt.Rebuild(store))
	require.Equal(
		t, []acctdb.AccountID{10, 12}, rebuilt.AccountsByMember(20),
	)
}

// TestStoreIntegration feeds the index through a live store's lifecycle
// hooks and asserts it follows every mutation.
func TestStoreIntegration(t *testing.T) {
	t.Parallel()

	store := acctdb.NewStore(&acctdb.Config{
		Clock:  clock.NewTestClock(testTime),
		Params: chaincfg.DefaultParams(),
	})

	index := NewMemberIndex()
	store.RegisterObserver(index)

	memoKey := testKey(1)

	acct := testAccount(7)
	acct.Owner.AccountAuths = []acctdb.AccountWeight{
		{Account: chaincfg.CommitteeAccountUID, Weight: 1},
	}
	acct.MemoKey = memoKey
	require.NoError(t, store.InsertAccount(acct))

	require.Equal(
		t, []acctdb.AccountID{7},
		index.AccountsByMember(chaincfg.CommitteeAccountUID),
	)
	require.Equal(t, []acctdb.AccountID{7}, index.AccountsByKey(memoKey))

	// A validation failure inside a modification fires no hooks and so
	// must leave the index untouched.
	err := store.ModifyAccount(7, func(acct *acctdb.Account) error {
		acct.MemoKey = testKey(2)
		return fmt.Errorf("rejected")
	})
	require.Error(t, err)
	require.Equal(t, []acctdb.AccountID{7}, index.AccountsByKey(memoKey))

	// A real modification is reflected.
	err = store.ModifyAccount(7, func(acct *acctdb.Account) error {
		acct.Owner.AccountAuths = nil
		return nil
	})
	require.NoError(t, err)
	require.Nil(t, index.AccountsByMember(chaincfg.CommitteeAccountUID))
	require.Equal(t, []acctdb.AccountID{7}, index.AccountsByKey(memoKey))

	require.NoError(t, store.RemoveAccount(7))
	require.Nil(t, index.AccountsByKey(memoKey))
}
