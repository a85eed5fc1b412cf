// Copyright (C) 2025-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package weightedid defines the value type the ordered pool sorts on:
// a transaction id carrying a priority weight, the fee rate it was minted
// with, and the time it entered the pool.
package weightedid

import (
	"bytes"

	"github.com/holiman/uint256"

	"github.com/luxfi/mempool/ids"
)

// WeightedID is the pool's priority key for a transaction. Equality and
// hashing consider only ID: two WeightedIDs for the same transaction but
// different weights collide by design, so callers must remove the stale
// entry before inserting the fresh one (spec §4.2).
type WeightedID struct {
	ID        ids.TxID
	Weight    int64
	FeePerKb  int64
	CreatedAt int64 // unix millis
}

// FeePerKb computes fee*1024/size using 256-bit intermediate arithmetic so
// that large fees never overflow before the division (spec §3).
func FeePerKb(fee uint64, size uint32) int64 {
	if size == 0 {
		return 0
	}
	v := uint256.NewInt(fee)
	v.Mul(v, uint256.NewInt(1024))
	v.Div(v, uint256.NewInt(uint64(size)))
	return int64(v.Uint64())
}

// New builds the initial WeightedID for a transaction just entering the
// pool: weight starts equal to feePerKb (spec §3).
func New(id ids.TxID, fee uint64, size uint32, createdAtMillis int64) WeightedID {
	fpk := FeePerKb(fee, size)
	return WeightedID{
		ID:        id,
		Weight:    fpk,
		FeePerKb:  fpk,
		CreatedAt: createdAtMillis,
	}
}

// WithWeight returns a copy of w with a new Weight, used when family
// propagation raises or lowers an ancestor's priority.
func (w WeightedID) WithWeight(weight int64) WeightedID {
	w.Weight = weight
	return w
}

// Equal compares ids only, matching the pool's identity semantics.
func (w WeightedID) Equal(other WeightedID) bool {
	return w.ID == other.ID
}

// Less orders by (-Weight, ID): higher weight sorts first, ties broken by
// id so the order is total and stable (spec §4.2).
func Less(a, b WeightedID) bool {
	if a.Weight != b.Weight {
		return a.Weight > b.Weight
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}
