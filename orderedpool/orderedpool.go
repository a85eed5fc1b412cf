// Copyright (C) 2025-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package orderedpool implements the five-index priority pool described in
// spec §4.3: a weight-ordered structure plus id, input-box and output-box
// lookups, backstopped by an approximate cache of recently invalidated ids.
//
// All public methods treat the pool as a single logical generation and
// update all five indices together. If family propagation finds the
// output index pointing at a parent entry the tree does not hold, it logs
// the breach and skips that parent; the rest of the mutation is still
// applied and is not rolled back. Pool
// itself holds no lock and is not safe for concurrent use — callers must
// serialize every access (reads included) through a single owner's mutex,
// which MemPool provides one layer up.
package orderedpool

import (
	"math/rand"

	"github.com/google/btree"

	"github.com/luxfi/mempool/approxcache"
	"github.com/luxfi/mempool/clock"
	"github.com/luxfi/mempool/ids"
	"github.com/luxfi/mempool/log"
	"github.com/luxfi/mempool/tx"
	"github.com/luxfi/mempool/weightedid"
)

const treeDegree = 32

// Config bundles the parameters OrderedPool needs to compute a
// transaction's initial WeightedID itself (spec §4.3: "put computes
// wtx = weighted(tx)").
type Config struct {
	Capacity       int
	FeeProposition []byte
}

// entry is the btree element: keyed by WeightedID, carrying the wrapped
// transaction alongside it. Ordering (via Less) only ever looks at w, so
// two entries with equal w but different utx collide — callers must
// remove the stale entry before inserting a replacement (spec §4.2).
type entry struct {
	w   weightedid.WeightedID
	utx *tx.Unconfirmed
}

func entryLess(a, b entry) bool {
	return weightedid.Less(a.w, b.w)
}

// Pool is the OrderedPool of spec §3/§4.3.
type Pool struct {
	cfg Config
	clk clock.Clock

	tree        *btree.BTreeG[entry]
	registry    map[ids.TxID]weightedid.WeightedID
	inputs      map[ids.BoxID]weightedid.WeightedID
	outputs     map[ids.BoxID]weightedid.WeightedID
	invalidated *approxcache.Cache
}

// New builds an empty pool. invalidated is shared across pool generations
// per spec §5 ("the approximate cache may be shared across pool
// generations").
func New(cfg Config, clk clock.Clock, invalidated *approxcache.Cache) *Pool {
	return &Pool{
		cfg:         cfg,
		clk:         clk,
		tree:        btree.NewG(treeDegree, entryLess),
		registry:    make(map[ids.TxID]weightedid.WeightedID),
		inputs:      make(map[ids.BoxID]weightedid.WeightedID),
		outputs:     make(map[ids.BoxID]weightedid.WeightedID),
		invalidated: invalidated,
	}
}

// Size returns the number of transactions currently stored.
func (p *Pool) Size() int { return p.tree.Len() }

// Contains reports whether id is currently stored (registry membership,
// invariant 4 of spec §3 — not the same as the approximate cache).
func (p *Pool) Contains(id ids.TxID) bool {
	_, ok := p.registry[id]
	return ok
}

// Get returns the stored transaction for id, if any.
func (p *Pool) Get(id ids.TxID) (*tx.Unconfirmed, bool) {
	wtx, ok := p.registry[id]
	if !ok {
		return nil, false
	}
	e, found := p.tree.Get(entry{w: wtx})
	if !found {
		return nil, false
	}
	return e.utx, true
}

// CanAccept implements spec §4.3's acceptance gate. It never mutates
// state: the capacity branch compares the candidate's own feePerKb
// (family propagation only ever touches ancestors, never the candidate
// itself, since it has no descendants yet) against the current
// lowest-weight entry.
func (p *Pool) CanAccept(utx *tx.Unconfirmed) bool {
	id := utx.Tx.ID
	if p.invalidated.MightContain(id) {
		return false
	}
	if _, exists := p.registry[id]; exists {
		return false
	}
	if p.tree.Len() < p.cfg.Capacity {
		return true
	}
	tail, ok := p.tree.Max()
	if !ok {
		return true
	}
	fee := utx.Tx.Fee(p.cfg.FeeProposition)
	candidateWeight := weightedid.FeePerKb(fee, utx.Tx.Size)
	return candidateWeight > tail.w.Weight
}

// Removed carries both the evicted transaction and the WeightedID it held
// at the moment of removal, so callers (Stats.Add in particular) don't
// need to re-derive a weight that may already have changed.
type Removed struct {
	Utx    *tx.Unconfirmed
	Weight weightedid.WeightedID
}

// Put installs utx, propagates its weight to ancestors, and — if that
// pushes the pool over capacity — evicts the new lowest-weight entry.
// The insert-then-evict order is mandatory (spec §4.3): the arriving tx
// may raise an ancestor's weight above the pre-insert tail, so evaluating
// the eviction victim first could wrongly evict a now-valuable ancestor.
// Returns the evicted transaction, if any.
func (p *Pool) Put(utx *tx.Unconfirmed) *Removed {
	t := utx.Tx
	fee := t.Fee(p.cfg.FeeProposition)
	wtx := weightedid.New(t.ID, fee, t.Size, p.clk.Now().UnixMilli())

	p.tree.ReplaceOrInsert(entry{w: wtx, utx: utx})
	p.registry[t.ID] = wtx
	for _, in := range t.Inputs {
		p.inputs[in.BoxID] = wtx
	}
	for _, out := range t.Outputs {
		p.outputs[out.BoxID] = wtx
	}

	p.updateFamily(t, wtx.Weight)

	if p.tree.Len() > p.cfg.Capacity {
		return p.evictTail()
	}
	return nil
}

// PutWithoutCheck is an alias for Put: the pool itself never consults
// CanAccept internally (spec §9's "putWithoutCheck admits an invalidated
// tx" only differs from put at the MemPool layer, which is the one that
// gates on CanAccept before calling either).
func (p *Pool) PutWithoutCheck(utx *tx.Unconfirmed) *Removed {
	return p.Put(utx)
}

// Remove drops tx.id from all five indices and reduces ancestors' weight
// by the removed entry's weight. A no-op if tx.id is absent.
func (p *Pool) Remove(id ids.TxID) *Removed {
	wtx, ok := p.registry[id]
	if !ok {
		return nil
	}
	e, found := p.tree.Get(entry{w: wtx})
	if !found {
		return nil
	}
	return p.removeEntry(e)
}

func (p *Pool) evictTail() *Removed {
	e, ok := p.tree.Max()
	if !ok {
		return nil
	}
	return p.removeEntry(e)
}

func (p *Pool) removeEntry(e entry) *Removed {
	p.tree.Delete(e)
	delete(p.registry, e.w.ID)
	for _, in := range e.utx.Tx.Inputs {
		if cur, ok := p.inputs[in.BoxID]; ok && cur.ID == e.w.ID {
			delete(p.inputs, in.BoxID)
		}
	}
	for _, out := range e.utx.Tx.Outputs {
		if cur, ok := p.outputs[out.BoxID]; ok && cur.ID == e.w.ID {
			delete(p.outputs, out.BoxID)
		}
	}
	p.updateFamily(e.utx.Tx, -e.w.Weight)
	return &Removed{Utx: e.utx, Weight: e.w}
}

// Invalidate removes tx.id (if present) and permanently records it in the
// approximate cache, even if the id was never stored.
func (p *Pool) Invalidate(id ids.TxID) *Removed {
	removed := p.Remove(id)
	p.invalidated.Put(id)
	return removed
}

// updateFamily walks the spend-parent chain starting from t's own inputs,
// adjusting each ancestor's weight by delta and propagating further up.
// Implemented as an explicit work-list rather than recursion (spec §9)
// with visited-parent memoisation so a wide family is only ever
// revisited once.
func (p *Pool) updateFamily(t *tx.Transaction, delta int64) {
	if delta == 0 {
		return
	}
	visited := make(map[ids.TxID]bool)
	queue := []*tx.Transaction{t}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, in := range cur.Inputs {
			parentW, ok := p.outputs[in.BoxID]
			if !ok {
				continue // input's box is not produced by anything currently pooled
			}
			if visited[parentW.ID] {
				continue
			}
			visited[parentW.ID] = true

			e, found := p.tree.Get(entry{w: parentW})
			if !found {
				log.Error("orderedpool: output index points at a missing parent entry",
					"parent", parentW.ID, "tx", t.ID)
				continue
			}

			newW := parentW.WithWeight(parentW.Weight + delta)
			p.tree.Delete(e)
			e.w = newW
			p.tree.ReplaceOrInsert(e)
			p.registry[newW.ID] = newW
			for _, in2 := range e.utx.Tx.Inputs {
				if cur2, ok := p.inputs[in2.BoxID]; ok && cur2.ID == newW.ID {
					p.inputs[in2.BoxID] = newW
				}
			}
			for _, out2 := range e.utx.Tx.Outputs {
				if cur2, ok := p.outputs[out2.BoxID]; ok && cur2.ID == newW.ID {
					p.outputs[out2.BoxID] = newW
				}
			}

			queue = append(queue, e.utx.Tx)
		}
	}
}

// Take returns the first n entries in priority order (highest weight
// first); fewer than n if the pool is smaller.
func (p *Pool) Take(n int) []*tx.Unconfirmed {
	out := make([]*tx.Unconfirmed, 0, n)
	p.tree.Ascend(func(e entry) bool {
		if len(out) >= n {
			return false
		}
		out = append(out, e.utx)
		return true
	})
	return out
}

// GetAllPrioritized returns every entry in priority order.
func (p *Pool) GetAllPrioritized() []*tx.Unconfirmed {
	return p.Take(p.tree.Len())
}

// Random returns a contiguous window of n entries from the priority order,
// starting at an index chosen uniformly from [0, total-n] (spec
// §4.5/§9(a)). It is not a uniform sample: the first and last entries are
// each included only when the window starts at their end, so both ends of
// the order are under-represented relative to the middle.
func (p *Pool) Random(n int) []*tx.Unconfirmed {
	total := p.tree.Len()
	if n > total {
		n = total
	}
	if n <= 0 {
		return nil
	}
	maxStart := total - n
	start := 0
	if maxStart > 0 {
		start = rand.Intn(maxStart + 1)
	}
	all := p.GetAllPrioritized()
	return all[start : start+n]
}

// SpentInputs returns every box id currently referenced as an input by a
// pooled transaction.
func (p *Pool) SpentInputs() []ids.BoxID {
	out := make([]ids.BoxID, 0, len(p.inputs))
	for boxID := range p.inputs {
		out = append(out, boxID)
	}
	return out
}

// MinWeight returns the lowest weight currently stored (the tail/eviction
// candidate), or false if the pool is empty.
func (p *Pool) MinWeight() (int64, bool) {
	e, ok := p.tree.Max()
	if !ok {
		return 0, false
	}
	return e.w.Weight, true
}

// CountStrictlyGreater returns the number of stored entries whose weight
// strictly exceeds w — the "pos" value getExpectedWaitTime needs.
func (p *Pool) CountStrictlyGreater(w int64) int {
	count := 0
	p.tree.Ascend(func(e entry) bool {
		if e.w.Weight <= w {
			return false
		}
		count++
		return true
	})
	return count
}

// Conflicts returns the distinct WeightedIDs of pooled transactions that
// spend any of t's inputs (spec §4.5's acceptIfNoDoubleSpend).
func (p *Pool) Conflicts(t *tx.Transaction) []weightedid.WeightedID {
	seen := make(map[ids.TxID]bool)
	var out []weightedid.WeightedID
	for _, in := range t.Inputs {
		wtx, ok := p.inputs[in.BoxID]
		if !ok || seen[wtx.ID] {
			continue
		}
		seen[wtx.ID] = true
		out = append(out, wtx)
	}
	return out
}

// FilterRemove removes every stored transaction for which keep returns
// false, returning the removed entries. Used to implement the exposed
// filter(predicate)/filter(excludeSet) surface at the MemPool layer.
func (p *Pool) FilterRemove(keep func(*tx.Unconfirmed) bool) []*Removed {
	var victims []ids.TxID
	p.tree.Ascend(func(e entry) bool {
		if !keep(e.utx) {
			victims = append(victims, e.w.ID)
		}
		return true
	})
	removed := make([]*Removed, 0, len(victims))
	for _, id := range victims {
		if r := p.Remove(id); r != nil {
			removed = append(removed, r)
		}
	}
	return removed
}
