// Copyright (C) 2025-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package weightedid

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/mempool/ids"
)

func TestFeePerKb(t *testing.T) {
	require := require.New(t)

	require.Equal(int64(5120), FeePerKb(1000, 200))
	require.Equal(int64(0), FeePerKb(1000, 0))
	require.Equal(int64(0), FeePerKb(0, 200))
}

func TestNewStartsWeightAtFeePerKb(t *testing.T) {
	require := require.New(t)

	id := ids.TxID{1}
	w := New(id, 1_000_000, 200, 1234)
	require.Equal(w.FeePerKb, w.Weight)
	require.Equal(int64(1234), w.CreatedAt)
}

func TestWithWeightPreservesIdentity(t *testing.T) {
	require := require.New(t)

	w := New(ids.TxID{1}, 100, 10, 0)
	bumped := w.WithWeight(999)

	require.True(w.Equal(bumped))
	require.Equal(int64(999), bumped.Weight)
	require.Equal(w.FeePerKb, bumped.FeePerKb, "bumping weight must not touch feePerKb")
}

func TestLessOrdersByWeightDescThenID(t *testing.T) {
	require := require.New(t)

	high := WeightedID{ID: ids.TxID{2}, Weight: 100}
	low := WeightedID{ID: ids.TxID{1}, Weight: 50}
	require.True(Less(high, low))
	require.False(Less(low, high))

	tieA := WeightedID{ID: ids.TxID{1}, Weight: 50}
	tieB := WeightedID{ID: ids.TxID{2}, Weight: 50}
	require.True(Less(tieA, tieB))
	require.False(Less(tieB, tieA))
}
