// Copyright (C) 2025-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mempool

import (
	"context"

	"github.com/luxfi/mempool/ids"
	"github.com/luxfi/mempool/tx"
)

// StateValidator is the external transaction-validation capability (spec
// §6). It is the only suspension point the mempool state machine has:
// validation is a synchronous CPU call bounded by maxCost.
type StateValidator interface {
	ValidateWithCost(ctx context.Context, t *tx.Transaction, maxCost uint64) (cost uint64, err error)
}

// UtxoView exposes confirmed-state box lookups shadowed by a pool's own
// unconfirmed outputs (spec §6).
type UtxoView interface {
	BoxByID(boxID ids.BoxID) (tx.Output, bool)
	WithUnconfirmedTransactions(txs []*tx.Transaction) UtxoView
}

// State is the sealed capability set process() dispatches validation on
// (spec §4.5 step 4). Exactly one of the three concrete kinds below
// satisfies it.
type State interface {
	isMempoolState()
}

// UtxoState validates against a UTXO view that layers pooled outputs over
// confirmed state; an input whose box is absent from that view means the
// transaction may be a descendant of a still-missing parent.
type UtxoState struct {
	View      UtxoView
	Validator StateValidator
}

func (UtxoState) isMempoolState() {}

// GenericState validates directly, with no UTXO shadowing. Spec §9(c):
// reported as "currently unreachable" in the source this was distilled
// from, but still implemented since the capability set admits it.
type GenericState struct {
	Validator StateValidator
}

func (GenericState) isMempoolState() {}

// DigestOnlyState skips validation entirely — the caller (typically the
// local wallet) is trusted.
type DigestOnlyState struct{}

func (DigestOnlyState) isMempoolState() {}
