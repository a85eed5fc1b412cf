// Copyright (C) 2025-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package orderedpool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/mempool/approxcache"
	"github.com/luxfi/mempool/clock"
	"github.com/luxfi/mempool/ids"
	"github.com/luxfi/mempool/tx"
)

var feeProp = []byte("fee")

func newTestPool(t *testing.T, capacity int) (*Pool, *clock.Mock) {
	t.Helper()
	clk := clock.NewMock(time.Unix(0, 0))
	cache, err := approxcache.New(approxcache.Config{
		FilterCapacity:   1_000,
		FilterFPR:        0.01,
		FrontSize:        64,
		FrontTTL:         time.Hour,
		RotationInterval: 0,
	}, clk)
	require.NoError(t, err)
	return New(Config{Capacity: capacity, FeeProposition: feeProp}, clk, cache), clk
}

func mkTx(id byte, inputBox byte, outputBox byte, fee uint64, size uint32) *tx.Unconfirmed {
	t := &tx.Transaction{
		ID:   ids.TxID{id},
		Size: size,
	}
	if inputBox != 0 {
		t.Inputs = []tx.Input{{BoxID: ids.BoxID{inputBox}}}
	}
	t.Outputs = []tx.Output{{BoxID: ids.BoxID{outputBox}, Value: fee, Proposition: feeProp}}
	return &tx.Unconfirmed{Tx: t}
}

func TestPutRegistersAcrossAllIndices(t *testing.T) {
	require := require.New(t)
	p, _ := newTestPool(t, 10)

	utx := mkTx(1, 5, 10, 1_000_000, 200)
	p.Put(utx)

	require.True(p.Contains(ids.TxID{1}))
	got, ok := p.Get(ids.TxID{1})
	require.True(ok)
	require.Same(utx, got)
	require.Contains(p.SpentInputs(), ids.BoxID{5})
}

func TestRemoveIsNoopOnAbsentTx(t *testing.T) {
	require := require.New(t)
	p, _ := newTestPool(t, 10)

	require.Nil(p.Remove(ids.TxID{99}))
}

func TestPutRemoveRoundTrip(t *testing.T) {
	require := require.New(t)
	p, _ := newTestPool(t, 10)

	other := mkTx(2, 0, 20, 500_000, 200)
	p.Put(other)
	otherWeight := p.registry[ids.TxID{2}].Weight

	utx := mkTx(1, 0, 10, 1_000_000, 200)
	p.Put(utx)
	require.Equal(2, p.Size())

	removed := p.Remove(ids.TxID{1})
	require.NotNil(removed)
	require.Equal(1, p.Size())
	require.False(p.Contains(ids.TxID{1}))

	// Unrelated tx's weight must be untouched.
	got, ok := p.Get(ids.TxID{2})
	require.True(ok)
	require.Equal(got.Tx.ID, ids.TxID{2})
	require.Equal(otherWeight, p.registry[ids.TxID{2}].Weight)
}

func TestCapacityEvictsLowestWeightTail(t *testing.T) {
	require := require.New(t)
	p, _ := newTestPool(t, 2)

	p.Put(mkTx(1, 0, 11, 1_000_000, 200)) // highest feePerKb
	p.Put(mkTx(2, 0, 12, 500_000, 200))   // middle
	evicted := p.Put(mkTx(3, 0, 13, 100_000, 200)).Utx

	require.NotNil(evicted)
	require.Equal(ids.TxID{3}, evicted.Tx.ID, "the new lowest-weight arrival is the one evicted")
	require.Equal(2, p.Size())
}

func TestCanAcceptRejectsEqualWeightAtCapacity(t *testing.T) {
	require := require.New(t)
	p, _ := newTestPool(t, 1)

	p.Put(mkTx(1, 0, 11, 1_000_000, 200))

	candidate := mkTx(2, 0, 12, 1_000_000, 200) // identical feePerKb to the tail
	require.False(p.CanAccept(candidate), "equal weight at capacity must be rejected (strict inequality)")
}

func TestCanAcceptRejectsInvalidatedID(t *testing.T) {
	require := require.New(t)
	p, _ := newTestPool(t, 10)

	id := ids.TxID{7}
	p.Invalidate(id)

	candidate := &tx.Unconfirmed{Tx: &tx.Transaction{ID: id, Size: 200, Outputs: []tx.Output{{BoxID: ids.BoxID{70}, Value: 1_000_000, Proposition: feeProp}}}}
	require.False(p.CanAccept(candidate))
}

func TestFamilyPropagationRaisesParentWeight(t *testing.T) {
	require := require.New(t)
	p, _ := newTestPool(t, 10)

	parent := mkTx(1, 0, 100, 200_000, 200)
	p.Put(parent)
	parentWeightBefore := p.registry[ids.TxID{1}].Weight

	child := mkTx(2, 100, 200, 1_000_000, 200) // spends parent's output 100
	p.Put(child)

	parentWtx := p.registry[ids.TxID{1}]
	childWtx := p.registry[ids.TxID{2}]

	require.Equal(parentWeightBefore+childWtx.Weight, parentWtx.Weight, "parent.weight gains exactly the child's weight")
	require.GreaterOrEqual(parentWtx.Weight, childWtx.Weight, "family monotonicity: parent.weight >= child.weight")
}

func TestRemoveLowersParentWeightBack(t *testing.T) {
	require := require.New(t)
	p, _ := newTestPool(t, 10)

	parent := mkTx(1, 0, 100, 200_000, 200)
	p.Put(parent)
	originalParentWeight := p.registry[ids.TxID{1}].Weight

	child := mkTx(2, 100, 200, 1_000_000, 200)
	p.Put(child)
	require.Greater(p.registry[ids.TxID{1}].Weight, originalParentWeight)

	p.Remove(ids.TxID{2})
	require.Equal(originalParentWeight, p.registry[ids.TxID{1}].Weight)
}

func TestConflictsFindsSpendersOfSameInput(t *testing.T) {
	require := require.New(t)
	p, _ := newTestPool(t, 10)

	a := mkTx(1, 50, 11, 1_000_000, 200)
	p.Put(a)

	bTx := &tx.Transaction{ID: ids.TxID{2}, Inputs: []tx.Input{{BoxID: ids.BoxID{50}}}, Outputs: []tx.Output{{BoxID: ids.BoxID{12}, Value: 2_000_000, Proposition: feeProp}}, Size: 200}
	conflicts := p.Conflicts(bTx)

	require.Len(conflicts, 1)
	require.Equal(ids.TxID{1}, conflicts[0].ID)
}

func TestTakeOrdersHighestWeightFirst(t *testing.T) {
	require := require.New(t)
	p, _ := newTestPool(t, 10)

	p.Put(mkTx(1, 0, 11, 100_000, 200))
	p.Put(mkTx(2, 0, 12, 1_000_000, 200))
	p.Put(mkTx(3, 0, 13, 500_000, 200))

	top := p.Take(3)
	require.Equal(ids.TxID{2}, top[0].Tx.ID)
	require.Equal(ids.TxID{3}, top[1].Tx.ID)
	require.Equal(ids.TxID{1}, top[2].Tx.ID)
}

func TestRandomReturnsExactlyMinNSize(t *testing.T) {
	require := require.New(t)
	p, _ := newTestPool(t, 10)

	for i := byte(1); i <= 5; i++ {
		p.Put(mkTx(i, 0, i+10, uint64(i)*100_000, 200))
	}

	require.Len(p.Random(3), 3)
	require.Len(p.Random(100), 5)
}
