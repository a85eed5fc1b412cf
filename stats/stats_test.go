// Copyright (C) 2025-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package stats

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/mempool/ids"
	"github.com/luxfi/mempool/weightedid"
)

func TestAddBucketsByWaitMinutes(t *testing.T) {
	require := require.New(t)

	s := New(0)
	wtx := weightedid.WeightedID{ID: ids.TxID{1}, FeePerKb: 5000, CreatedAt: 0}

	s.Add(5*60_000, wtx) // waited exactly 5 minutes

	bin := s.Bin(5)
	require.Equal(uint64(1), bin.Count)
	require.Equal(uint64(5000), bin.TotalFee)
	require.Equal(uint64(1), s.TakenTxns())
}

func TestAddClampsAtFiftyNineMinutes(t *testing.T) {
	require := require.New(t)

	s := New(0)
	wtx := weightedid.WeightedID{ID: ids.TxID{1}, FeePerKb: 1000, CreatedAt: 0}

	s.Add(200*60_000, wtx) // waited 200 minutes, far past the clamp

	require.Equal(uint64(1), s.Bin(59).Count)
	require.Equal(uint64(0), s.Bin(58).Count)
}

func TestRecommendedFeeFallsBackToMinFeeWhenEmpty(t *testing.T) {
	require := require.New(t)

	s := New(0)
	require.Equal(uint64(1_234), s.RecommendedFee(59, 200, 1_234))
}

func TestRecommendedFeeUsesSmallestQualifyingBucket(t *testing.T) {
	require := require.New(t)

	s := New(0)
	s.Add(10*60_000, weightedid.WeightedID{ID: ids.TxID{1}, FeePerKb: 10_240, CreatedAt: 0})
	s.Add(2*60_000, weightedid.WeightedID{ID: ids.TxID{2}, FeePerKb: 5_120, CreatedAt: 0})

	// Only the bucket at minute 2 qualifies for maxWaitMin=5.
	got := s.RecommendedFee(5, 200, 999)
	require.Equal(uint64(5_120)*200/1024, got)
}
