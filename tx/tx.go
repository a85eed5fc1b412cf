// Copyright (C) 2025-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package tx holds the transaction shapes the mempool reasons about. The
// mempool never constructs or signs these; they arrive fully formed from
// the network or a local wallet.
package tx

import (
	"bytes"
	"time"

	"github.com/luxfi/mempool/ids"
)

// Input references a box owned by some prior transaction or the UTXO set.
type Input struct {
	BoxID ids.BoxID
}

// Output produces a fresh box carrying value and a locking script.
type Output struct {
	BoxID       ids.BoxID
	Value       uint64
	Proposition []byte
}

// Transaction is the unit the mempool stages. Identity, inputs, outputs and
// size are immutable once observed by the pool.
type Transaction struct {
	ID      ids.TxID
	Inputs  []Input
	Outputs []Output
	Size    uint32 // serialized byte size
}

// Fee sums the outputs paying the given fee proposition.
func (t *Transaction) Fee(feeProposition []byte) uint64 {
	var fee uint64
	for _, out := range t.Outputs {
		if bytes.Equal(out.Proposition, feeProposition) {
			fee += out.Value
		}
	}
	return fee
}

// Source identifies where an unconfirmed transaction arrived from.
type Source int

const (
	// SourceUnknown is the zero value.
	SourceUnknown Source = iota
	// SourcePeer marks a transaction relayed by a network peer.
	SourcePeer
	// SourceLocal marks a transaction submitted by the local wallet/RPC.
	SourceLocal
)

// Unconfirmed wraps a Transaction with the arrival metadata the mempool
// needs: who sent it, when it showed up, and (optionally) a pre-computed
// validation cost estimate.
type Unconfirmed struct {
	Tx        *Transaction
	Peer      string
	Source    Source
	EnqueuedAt time.Time
	CostHint  *uint64 // optional pre-estimated validation cost
}

// ID is a convenience accessor for the wrapped transaction's id.
func (u *Unconfirmed) ID() ids.TxID { return u.Tx.ID }
