// Package florind implements the per-account ledger core of the florin
// chain. It bundles an in-memory account database with lifecycle observers,
// a pair of authority membership reverse indices kept in lockstep with it,
// a referral fee distribution engine paying out vesting and liquid
// cashback, and stake time accounting over a moving window.
//
// The subsystems live in their own packages and can be used independently:
// acctdb holds accounts and their statistics, authindex maintains the
// membership indices, referral distributes pending fees, coinage implements
// the stake time tracker and amount the integer monetary units. The Ledger
// type in this package wires them together the way a node would.
package florind
