// Copyright (C) 2025-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package mempool orchestrates the ordered pool, the approximate
// invalidated-id cache, and the wait-time stats behind the single
// process() state machine of spec §4.5.
package mempool

import (
	"context"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/luxfi/mempool/approxcache"
	"github.com/luxfi/mempool/clock"
	"github.com/luxfi/mempool/config"
	"github.com/luxfi/mempool/ids"
	"github.com/luxfi/mempool/log"
	"github.com/luxfi/mempool/orderedpool"
	"github.com/luxfi/mempool/stats"
	"github.com/luxfi/mempool/telemetry"
	"github.com/luxfi/mempool/tx"
	"github.com/luxfi/mempool/weightedid"
)

// MemPool is the orchestrator of spec §4.5: one OrderedPool, one Stats,
// and a reference to Settings. All mutation runs under mu, matching the
// single-writer model of spec §5. The read methods take mu as well,
// since the underlying orderedpool.Pool is not safe for concurrent use.
type MemPool struct {
	mu       sync.Mutex
	settings config.Settings
	clk      clock.Clock
	metrics  *telemetry.Metrics

	pool  *orderedpool.Pool
	stats *stats.Stats

	stopRotation func()
}

// New builds a MemPool from settings. metrics may be nil to disable
// telemetry.
func New(settings config.Settings, clk clock.Clock, metrics *telemetry.Metrics) (*MemPool, error) {
	if err := settings.Verify(); err != nil {
		return nil, err
	}
	if settings.BlacklistedTransactions == nil {
		settings.BlacklistedTransactions = mapset.NewThreadUnsafeSet[ids.TxID]()
	}

	invalidated, err := approxcache.New(settings.InvalidCache, clk)
	if err != nil {
		return nil, err
	}
	stop := invalidated.StartRotation()

	pool := orderedpool.New(orderedpool.Config{
		Capacity:       settings.MempoolCapacity,
		FeeProposition: settings.FeePropositionBytes,
	}, clk, invalidated)

	return &MemPool{
		settings:     settings,
		clk:          clk,
		metrics:      metrics,
		pool:         pool,
		stats:        stats.New(clk.Now().UnixMilli()),
		stopRotation: stop,
	}, nil
}

// Close stops the approximate cache's background rotation goroutine. The
// pool itself is discarded without flushing (spec §5: "a process-level
// shutdown discards the pool without flushing").
func (m *MemPool) Close() {
	if m.stopRotation != nil {
		m.stopRotation()
	}
}

// Process runs the full acceptance state machine of spec §4.5 for a
// single arriving transaction.
func (m *MemPool) Process(ctx context.Context, utx *tx.Unconfirmed, state State) Outcome {
	start := m.clk.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() {
		if m.metrics != nil {
			m.metrics.ObserveProcessSeconds(m.clk.Now().Sub(start).Seconds())
			m.metrics.SetPoolSize(m.pool.Size())
		}
	}()

	id := utx.Tx.ID

	// 1. Blacklist.
	if m.settings.BlacklistedTransactions.Contains(id) {
		if r := m.pool.Invalidate(id); r != nil {
			m.stats.Add(m.clk.Now().UnixMilli(), r.Weight)
		}
		m.metrics.IncInvalidated("blacklisted")
		return invalidated("blacklisted")
	}

	// 2. Fee floor.
	fee := utx.Tx.Fee(m.settings.FeePropositionBytes)
	if fee < m.settings.MinimalFeeAmount {
		m.metrics.IncDeclined("min fee not met")
		return declined("min fee not met")
	}

	// 3. Acceptance gate.
	if !m.pool.CanAccept(utx) {
		m.metrics.IncDeclined("pool full or invalidated")
		return declined("pool full or invalidated")
	}

	// 4. Validation dispatch.
	switch st := state.(type) {
	case UtxoState:
		view := st.View.WithUnconfirmedTransactions(m.pooledTransactions())
		for _, in := range utx.Tx.Inputs {
			if _, ok := view.BoxByID(in.BoxID); !ok {
				m.metrics.IncDeclined("not all utxos in place yet")
				return declined("not all utxos in place yet")
			}
		}
		if _, err := st.Validator.ValidateWithCost(ctx, utx.Tx, m.settings.MaxTransactionCost); err != nil {
			reason := err.Error()
			if r := m.pool.Invalidate(id); r != nil {
				m.stats.Add(m.clk.Now().UnixMilli(), r.Weight)
			}
			m.metrics.IncInvalidated(reason)
			return invalidated(reason)
		}
	case GenericState:
		if _, err := st.Validator.ValidateWithCost(ctx, utx.Tx, m.settings.MaxTransactionCost); err != nil {
			reason := err.Error()
			if r := m.pool.Invalidate(id); r != nil {
				m.stats.Add(m.clk.Now().UnixMilli(), r.Weight)
			}
			m.metrics.IncInvalidated(reason)
			return invalidated(reason)
		}
	case DigestOnlyState:
		// Trust the caller; no validation performed.
	default:
		log.Error("mempool: process called with unrecognized state capability", "tx", id)
		m.metrics.IncDeclined("unrecognized state")
		return declined("unrecognized state")
	}

	// 5. Double-spend arbitration.
	return m.acceptIfNoDoubleSpend(utx)
}

func (m *MemPool) acceptIfNoDoubleSpend(utx *tx.Unconfirmed) Outcome {
	conflicts := m.pool.Conflicts(utx.Tx)
	if len(conflicts) == 0 {
		m.installLocked(utx)
		m.metrics.IncAccepted()
		return accepted()
	}

	var sum int64
	for _, c := range conflicts {
		sum += c.Weight
	}
	avg := float64(sum) / float64(len(conflicts))

	fee := utx.Tx.Fee(m.settings.FeePropositionBytes)
	candidateWeight := float64(weightedid.FeePerKb(fee, utx.Tx.Size))

	if candidateWeight > avg {
		now := m.clk.Now().UnixMilli()
		for _, c := range conflicts {
			if r := m.pool.Remove(c.ID); r != nil {
				m.stats.Add(now, r.Weight)
			}
		}
		m.installLocked(utx)
		m.metrics.IncAccepted()
		return accepted()
	}

	winners := make([]ids.TxID, len(conflicts))
	for i, c := range conflicts {
		winners[i] = c.ID
	}
	m.metrics.IncDoubleSpendLoss()
	return doubleSpendingLoser(winners)
}

func (m *MemPool) installLocked(utx *tx.Unconfirmed) {
	removed := m.pool.Put(utx)
	if removed != nil {
		m.stats.Add(m.clk.Now().UnixMilli(), removed.Weight)
		m.metrics.IncEvictions(1)
	}
}

func (m *MemPool) pooledTransactions() []*tx.Transaction {
	entries := m.pool.GetAllPrioritized()
	out := make([]*tx.Transaction, len(entries))
	for i, e := range entries {
		out[i] = e.Tx
	}
	return out
}

// Put installs utx directly, bypassing CanAccept (spec §6's
// putWithoutCheck). Used for re-admitting a transaction a caller knows
// is safe, e.g. during a reorg replay.
func (m *MemPool) Put(utx *tx.Unconfirmed) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installLocked(utx)
}

// PutMany installs every transaction in txs via Put, without running
// CanAccept — spec §6's putWithoutCheck(iter).
func (m *MemPool) PutMany(txs []*tx.Unconfirmed) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, utx := range txs {
		m.installLocked(utx)
	}
}

// Remove drops id from the pool, if present.
func (m *MemPool) Remove(id ids.TxID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r := m.pool.Remove(id); r != nil {
		m.stats.Add(m.clk.Now().UnixMilli(), r.Weight)
	}
}

// Invalidate removes id (if present) and marks it permanently unacceptable
// until the approximate cache forgets it.
func (m *MemPool) Invalidate(id ids.TxID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r := m.pool.Invalidate(id); r != nil {
		m.stats.Add(m.clk.Now().UnixMilli(), r.Weight)
	}
}

// Filter removes every pooled transaction for which keep returns false.
func (m *MemPool) Filter(keep func(*tx.Unconfirmed) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clk.Now().UnixMilli()
	for _, r := range m.pool.FilterRemove(keep) {
		m.stats.Add(now, r.Weight)
	}
}

// FilterExclude removes every pooled transaction whose id is in exclude.
func (m *MemPool) FilterExclude(exclude mapset.Set[ids.TxID]) {
	m.Filter(func(utx *tx.Unconfirmed) bool {
		return !exclude.Contains(utx.Tx.ID)
	})
}

// Size returns the number of pooled transactions.
func (m *MemPool) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pool.Size()
}

// Contains reports whether id is currently pooled.
func (m *MemPool) Contains(id ids.TxID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pool.Contains(id)
}

// Get returns the pooled transaction for id, if any.
func (m *MemPool) Get(id ids.TxID) (*tx.Unconfirmed, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pool.Get(id)
}

// Take returns the first n entries by descending priority.
func (m *MemPool) Take(n int) []*tx.Unconfirmed {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pool.Take(n)
}

// GetAllPrioritized returns every pooled entry by descending priority.
func (m *MemPool) GetAllPrioritized() []*tx.Unconfirmed {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pool.GetAllPrioritized()
}

// Random returns a contiguous window of n prioritized entries starting at
// a uniformly chosen index (spec §4.5/§9(a)); entries near either end of
// the order are less likely to be included than those in the middle.
func (m *MemPool) Random(n int) []*tx.Unconfirmed {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pool.Random(n)
}

// SpentInputs returns every box id currently spent by a pooled
// transaction.
func (m *MemPool) SpentInputs() []ids.BoxID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pool.SpentInputs()
}

// WeightedTransactionIds returns up to limit transaction ids in priority
// order, for miners assembling a block.
func (m *MemPool) WeightedTransactionIds(limit int) []ids.TxID {
	entries := m.Take(limit)
	out := make([]ids.TxID, len(entries))
	for i, e := range entries {
		out[i] = e.Tx.ID
	}
	return out
}

// GetRecommendedFee delegates to Stats.RecommendedFee with the pool's
// configured minimum fee as the empty-histogram fallback.
func (m *MemPool) GetRecommendedFee(maxWaitMin int, size uint32) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats.RecommendedFee(maxWaitMin, size, m.settings.MinimalFeeAmount)
}

// GetExpectedWaitTime estimates how long a transaction offering fee at
// size would wait, by counting how many pooled entries would sort ahead
// of it and scaling the measurement window by that fraction (spec §4.5).
func (m *MemPool) GetExpectedWaitTime(fee uint64, size uint32) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	taken := m.stats.TakenTxns()
	if taken == 0 {
		return 0
	}
	candidateWeight := weightedid.FeePerKb(fee, size)
	pos := m.pool.CountStrictlyGreater(candidateWeight)
	elapsed := m.clk.Now().UnixMilli() - m.stats.StartMeasurement()
	millis := elapsed * int64(pos) / int64(taken)
	return time.Duration(millis) * time.Millisecond
}

// GetReader returns a read-only facade over m, for API layers that
// should not be able to mutate the pool.
func (m *MemPool) GetReader() MemPoolReader {
	return reader{m: m}
}

// MemPoolReader is the read-only facade of spec §6.
type MemPoolReader interface {
	Size() int
	Contains(id ids.TxID) bool
	Get(id ids.TxID) (*tx.Unconfirmed, bool)
	Take(n int) []*tx.Unconfirmed
	GetAllPrioritized() []*tx.Unconfirmed
	Random(n int) []*tx.Unconfirmed
	SpentInputs() []ids.BoxID
	WeightedTransactionIds(limit int) []ids.TxID
	GetRecommendedFee(maxWaitMin int, size uint32) uint64
	GetExpectedWaitTime(fee uint64, size uint32) time.Duration
}

type reader struct{ m *MemPool }

func (r reader) Size() int                  { return r.m.Size() }
func (r reader) Contains(id ids.TxID) bool  { return r.m.Contains(id) }
func (r reader) Get(id ids.TxID) (*tx.Unconfirmed, bool) { return r.m.Get(id) }
func (r reader) Take(n int) []*tx.Unconfirmed            { return r.m.Take(n) }
func (r reader) GetAllPrioritized() []*tx.Unconfirmed    { return r.m.GetAllPrioritized() }
func (r reader) Random(n int) []*tx.Unconfirmed          { return r.m.Random(n) }
func (r reader) SpentInputs() []ids.BoxID                { return r.m.SpentInputs() }
func (r reader) WeightedTransactionIds(limit int) []ids.TxID {
	return r.m.WeightedTransactionIds(limit)
}
func (r reader) GetRecommendedFee(maxWaitMin int, size uint32) uint64 {
	return r.m.GetRecommendedFee(maxWaitMin, size)
}
func (r reader) GetExpectedWaitTime(fee uint64, size uint32) time.Duration {
	return r.m.GetExpectedWaitTime(fee, size)
}
