// Copyright (C) 2025-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mempool

import "github.com/luxfi/mempool/ids"

// OutcomeKind enumerates the four (and only four) outcomes process() can
// report (spec §4.5/§7).
type OutcomeKind int

const (
	// Accepted means the transaction was installed, possibly evicting
	// conflicting or lowest-weight transactions.
	Accepted OutcomeKind = iota
	// DoubleSpendingLoser means a conflict was detected and the
	// candidate's weight did not exceed the mean of the conflicts it
	// spends against.
	DoubleSpendingLoser
	// Declined means the transaction was rejected without being marked
	// permanently invalid: fee floor, full pool, or missing ancestors.
	Declined
	// Invalidated means the transaction was rejected and recorded in the
	// approximate cache: blacklisted, or validation failed outright.
	Invalidated
)

func (k OutcomeKind) String() string {
	switch k {
	case Accepted:
		return "accepted"
	case DoubleSpendingLoser:
		return "double_spending_loser"
	case Declined:
		return "declined"
	case Invalidated:
		return "invalidated"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result reported for every process() call.
type Outcome struct {
	Kind OutcomeKind

	// Reason explains a Declined or Invalidated outcome. Not part of any
	// programmatic contract — log lines and these reasons are not wire
	// format (spec §6).
	Reason string

	// WinnerIDs carries the ids of the conflicting transactions that
	// defeated a DoubleSpendingLoser candidate.
	WinnerIDs []ids.TxID
}

func accepted() Outcome { return Outcome{Kind: Accepted} }

func declined(reason string) Outcome { return Outcome{Kind: Declined, Reason: reason} }

func invalidated(reason string) Outcome { return Outcome{Kind: Invalidated, Reason: reason} }

func doubleSpendingLoser(winners []ids.TxID) Outcome {
	return Outcome{Kind: DoubleSpendingLoser, WinnerIDs: winners}
}
