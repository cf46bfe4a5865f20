package acctdb

import "errors"

var (
	// ErrAccountNotFound is returned when a lookup or mutation targets a
	// UID the store has no account for.
	ErrAccountNotFound = errors.New("account not found")

	// ErrDuplicateAccount is returned when an insert reuses an existing
	// UID.
	ErrDuplicateAccount = errors.New("account uid already exists")

	// ErrReservedAccountUID is returned when an insert or removal
	// targets one of the chain's reserved accounts.
	ErrReservedAccountUID = errors.New("account uid is reserved")

	// ErrInvalidAccountName is returned when an account carries an empty
	// name.
	ErrInvalidAccountName = errors.New("invalid account name")

	// ErrInvalidFeeSplit is returned when an account's fee percentages
	// cannot add up to a valid distribution.
	ErrInvalidFeeSplit = errors.New("fee percentages exceed one hundred " +
		"percent")

	// ErrUnknownReferral is returned when an inserted account references
	// a registrar or referrer that does not exist.
	ErrUnknownReferral = errors.New("referral account does not exist")

	// ErrNegativeDeposit is returned when a cashback deposit carries a
	// negative amount.
	ErrNegativeDeposit = errors.New("negative cashback deposit")

	// ErrInsufficientBalance is returned when a balance adjustment would
	// overdraw the account.
	ErrInsufficientBalance = errors.New("insufficient core balance")

	// ErrInsufficientCoinSeconds is returned when a spend exceeds the
	// account's accrued coin seconds.
	ErrInsufficientCoinSeconds = errors.New("insufficient coin seconds")
)
