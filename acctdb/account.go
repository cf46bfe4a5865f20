// Package acctdb implements the in-memory account database at the heart of
// the accounting engine. It owns the canonical account objects, their
// per-account statistics and cashback balances, and the global fee pool, and
// it notifies registered lifecycle observers around every account mutation so
// that derived indexes stay consistent with the objects they shadow.
package acctdb

import (
	"encoding/hex"
	"math"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/florinchain/florind/amount"
)

// AccountID is the chain wide unique identifier of an account.
type AccountID uint64

// String returns the decimal form of the account ID.
func (a AccountID) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// PubKey is a compressed secp256k1 public key in its 33 byte serialized
// form, usable as a map key.
type PubKey [33]byte

// NewPubKey returns the compressed serialization of the given public key.
func NewPubKey(pub *btcec.PublicKey) PubKey {
	var pk PubKey
	copy(pk[:], pub.SerializeCompressed())

	return pk
}

// ParsePubKey deserializes the key back into its elliptic curve form.
func (p PubKey) ParsePubKey() (*btcec.PublicKey, error) {
	return btcec.ParsePubKey(p[:])
}

// IsZero reports whether the key is the all zero placeholder used by
// accounts that have no memo key set.
func (p PubKey) IsZero() bool {
	return p == PubKey{}
}

// String returns the hex encoding of the serialized key.
func (p PubKey) String() string {
	return hex.EncodeToString(p[:])
}

// KeyWeight pairs a public key with its voting weight inside an authority.
type KeyWeight struct {
	Key    PubKey
	Weight uint16
}

// AccountWeight pairs an account with its voting weight inside an authority.
type AccountWeight struct {
	Account AccountID
	Weight  uint16
}

// Authority describes who may act for an account: a weight threshold that
// must be met by a combination of the listed account and key auths. This
// database only tracks authority membership, evaluating thresholds is the
// signature validator's job.
type Authority struct {
	WeightThreshold uint32
	AccountAuths    []AccountWeight
	KeyAuths        []KeyWeight
}

// Copy returns a deep copy of the authority.
func (a Authority) Copy() Authority {
	cp := Authority{
		WeightThreshold: a.WeightThreshold,
	}

	if a.AccountAuths != nil {
		cp.AccountAuths = make([]AccountWeight, len(a.AccountAuths))
		copy(cp.AccountAuths, a.AccountAuths)
	}
	if a.KeyAuths != nil {
		cp.KeyAuths = make([]KeyWeight, len(a.KeyAuths))
		copy(cp.KeyAuths, a.KeyAuths)
	}

	return cp
}

// NeverExpires is the membership expiration of a lifetime member. It sits at
// the maximum 32 bit unix second so that every realistic chain time compares
// before it.
var NeverExpires = time.Unix(math.MaxUint32, 0).UTC()

// Account is the canonical account object. All mutations must flow through
// Store.ModifyAccount so that lifecycle observers see a consistent
// before/after sequence.
type Account struct {
	// UID is the account's chain wide identifier. It never changes once
	// the account exists.
	UID AccountID

	// Name is the account's human readable name.
	Name string

	// Registrar is the account that registered this account. Registrars
	// are lifetime members by construction and are never rewritten.
	Registrar AccountID

	// Referrer is the account currently credited with referral rewards.
	// It is demoted to LifetimeReferrer by fee processing once the
	// referrer's own membership has lapsed.
	Referrer AccountID

	// LifetimeReferrer is the most recent lifetime member in this
	// account's referral chain.
	LifetimeReferrer AccountID

	// NetworkFeePercentage is the portion of this account's fees taken
	// by the network, in basis points.
	NetworkFeePercentage amount.BasisPoints

	// LifetimeReferrerFeePercentage is the portion of this account's
	// fees paid to LifetimeReferrer, in basis points.
	LifetimeReferrerFeePercentage amount.BasisPoints

	// ReferrerRewardsPercentage is the portion of the referral remainder
	// paid to Referrer rather than Registrar, in basis points.
	ReferrerRewardsPercentage amount.BasisPoints

	// MembershipExpiration is the time this account's paid membership
	// lapses. Lifetime members carry NeverExpires.
	MembershipExpiration time.Time

	// Owner is the authority that can change every aspect of the
	// account, including the other authorities.
	Owner Authority

	// Active is the authority used for day to day operations.
	Active Authority

	// Secondary is the authority for low risk operations. Its key auths
	// are excluded from key membership indexing, only its account auths
	// count as members.
	Secondary Authority

	// MemoKey is the key used to decrypt memos addressed to this
	// account. The zero value means no memo key is set.
	MemoKey PubKey
}

// IsBasic reports whether the account's paid membership has lapsed at the
// given time, leaving it with only basic privileges.
func (a *Account) IsBasic(now time.Time) bool {
	return now.After(a.MembershipExpiration)
}

// IsLifetimeMember reports whether the account's membership never expires.
func (a *Account) IsLifetimeMember() bool {
	return a.MembershipExpiration.Equal(NeverExpires)
}

// Copy returns a deep copy of the account.
func (a *Account) Copy() *Account {
	cp := *a
	cp.Owner = a.Owner.Copy()
	cp.Active = a.Active.Copy()
	cp.Secondary = a.Secondary.Copy()

	return &cp
}
