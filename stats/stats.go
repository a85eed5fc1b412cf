// Copyright (C) 2025-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package stats tracks how long transactions wait in the pool before
// leaving it, as a rolling histogram keyed by wait-minutes, clamped at an
// hour (spec §4.4).
package stats

import (
	"sync"

	"github.com/luxfi/mempool/weightedid"
)

const numBins = 60

// Bin aggregates the transactions that waited exactly its index's number
// of minutes before leaving the pool.
type Bin struct {
	Count    uint64
	TotalFee uint64
}

// Stats is the append-only rolling histogram of spec §3/§4.4. The start
// timestamp is fixed at construction and never updated; histogram bins
// only ever grow.
type Stats struct {
	mu               sync.RWMutex
	startMeasurement int64 // unix millis
	takenTxns        uint64
	histogram        [numBins]Bin
}

// New starts a Stats measurement window at nowMillis.
func New(nowMillis int64) *Stats {
	return &Stats{startMeasurement: nowMillis}
}

// Add records a removal observation for wtx leaving the pool at nowMillis.
func (s *Stats) Add(nowMillis int64, wtx weightedid.WeightedID) {
	waitMinutes := (nowMillis - wtx.CreatedAt) / 60_000
	if waitMinutes < 0 {
		waitMinutes = 0
	}
	if waitMinutes > numBins-1 {
		waitMinutes = numBins - 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b := &s.histogram[waitMinutes]
	b.Count++
	b.TotalFee += uint64(wtx.FeePerKb)
	s.takenTxns++
}

// Bin returns the aggregated bin at minute m, or an empty Bin if m is out
// of range.
func (s *Stats) Bin(m int) Bin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m < 0 || m >= numBins {
		return Bin{}
	}
	return s.histogram[m]
}

// TakenTxns returns the total number of removal observations recorded.
func (s *Stats) TakenTxns() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.takenTxns
}

// StartMeasurement returns the fixed window-start timestamp in unix
// millis.
func (s *Stats) StartMeasurement() int64 {
	return s.startMeasurement
}

// RecommendedFee finds the smallest wait-bucket m <= maxWaitMin with a
// non-empty bin and returns the fee that bucket's average feePerKb would
// imply for a transaction of the given size; minFee if no bucket
// qualifies (spec §4.5).
func (s *Stats) RecommendedFee(maxWaitMin int, size uint32, minFee uint64) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if maxWaitMin >= numBins {
		maxWaitMin = numBins - 1
	}
	for m := 0; m <= maxWaitMin; m++ {
		b := s.histogram[m]
		if b.Count == 0 {
			continue
		}
		avgFeePerKb := b.TotalFee / b.Count
		return avgFeePerKb * uint64(size) / 1024
	}
	return minFee
}
