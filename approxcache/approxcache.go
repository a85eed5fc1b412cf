// Copyright (C) 2025-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package approxcache implements the two-tier "recently invalidated"
// filter described in spec §4.1: an exact, bounded, LRU-evicted front
// cache backstopped by a rotating pair of Bloom filters. Membership is
// approximate by design — false positives are tolerated, false negatives
// are forbidden for ids still within the front TTL.
package approxcache

import (
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru"
	"github.com/holiman/bloomfilter/v2"

	"github.com/luxfi/mempool/clock"
	"github.com/luxfi/mempool/ids"
	"github.com/luxfi/mempool/log"
)

// Config mirrors the invalidCacheCfg settings block from spec §6.
type Config struct {
	// FilterCapacity is the number of elements the back filter is sized
	// for before its false-positive rate degrades past FilterFPR.
	FilterCapacity uint64
	// FilterFPR is the target false-positive rate at FilterCapacity.
	FilterFPR float64
	// FrontSize is the capacity of the exact front cache.
	FrontSize int
	// FrontTTL is how long a front-cache entry remains authoritative;
	// older entries are treated as absent (spec §4.1).
	FrontTTL time.Duration
	// RotationInterval is how often the back filter is replaced with a
	// fresh one so stale entries fade out (spec §4.1, §9). A filter is
	// also rotated early if it has absorbed FilterCapacity insertions,
	// since that is the point its false-positive rate stops honoring FPR.
	RotationInterval time.Duration
}

// Cache is the ApproxCache of spec §4.1.
type Cache struct {
	clk clock.Clock

	front    *lru.Cache
	frontTTL time.Duration

	backMu     sync.Mutex
	active     *bloomfilter.Filter
	standby    *bloomfilter.Filter // the filter rotated out last; still consulted
	sinceRotate uint64
	cfg        Config

	quit chan chan struct{}
}

// New constructs a Cache per cfg. The back filter starts empty; the front
// cache is unseeded.
func New(cfg Config, clk clock.Clock) (*Cache, error) {
	front, err := lru.New(cfg.FrontSize)
	if err != nil {
		return nil, err
	}
	active, err := newFilter(cfg)
	if err != nil {
		return nil, err
	}
	return &Cache{
		clk:      clk,
		front:    front,
		frontTTL: cfg.FrontTTL,
		active:   active,
		cfg:      cfg,
	}, nil
}

func newFilter(cfg Config) (*bloomfilter.Filter, error) {
	m, k := bloomParams(cfg.FilterCapacity, cfg.FilterFPR)
	return bloomfilter.New(m, k)
}

// bloomParams derives the bit-array size and hash-function count for a
// filter sized to hold n elements at false-positive rate p.
func bloomParams(n uint64, p float64) (m, k uint64) {
	if n == 0 {
		n = 1
	}
	if p <= 0 || p >= 1 {
		p = 0.01
	}
	fn := float64(n)
	mf := math.Ceil(-fn * math.Log(p) / (math.Ln2 * math.Ln2))
	if mf < 1 {
		mf = 1
	}
	kf := math.Round((mf / fn) * math.Ln2)
	if kf < 1 {
		kf = 1
	}
	return uint64(mf), uint64(kf)
}

// Put records id as invalidated: it is written to the front cache with the
// current timestamp and folded into the active back filter.
func (c *Cache) Put(id ids.TxID) {
	c.front.Add(id, c.clk.Now())

	c.backMu.Lock()
	defer c.backMu.Unlock()
	c.active.Add(hashID(id))
	c.sinceRotate++
	if c.sinceRotate >= c.cfg.FilterCapacity {
		c.rotateLocked()
	}
}

// MightContain returns true if id is present in the front cache (and not
// expired) or reported positive by either back filter. It never returns
// false for an id inserted within FrontTTL (spec §4.1).
func (c *Cache) MightContain(id ids.TxID) bool {
	if v, ok := c.front.Get(id); ok {
		if insertedAt, ok := v.(time.Time); ok && c.clk.Now().Sub(insertedAt) <= c.frontTTL {
			return true
		}
	}

	c.backMu.Lock()
	defer c.backMu.Unlock()
	h := hashID(id)
	if c.active.Contains(h) {
		return true
	}
	return c.standby != nil && c.standby.Contains(h)
}

func (c *Cache) rotateLocked() {
	fresh, err := newFilter(c.cfg)
	if err != nil {
		log.Error("approxcache: failed to rotate back filter, keeping stale one", "err", err)
		return
	}
	c.standby = c.active
	c.active = fresh
	c.sinceRotate = 0
}

// Rotate forces a back-filter rotation outside of the Put-triggered path;
// exposed for the background ticker started by StartRotation.
func (c *Cache) Rotate() {
	c.backMu.Lock()
	defer c.backMu.Unlock()
	c.rotateLocked()
}

// StartRotation launches a goroutine that rotates the back filter every
// RotationInterval, fading out entries older than ~2*RotationInterval. It
// returns a stop function mirroring TxPool.Close()'s quit-channel
// shutdown: the caller invokes it once, and it blocks until the goroutine
// has exited.
func (c *Cache) StartRotation() (stop func()) {
	if c.cfg.RotationInterval <= 0 {
		return func() {}
	}
	c.quit = make(chan chan struct{})
	quit := c.quit
	go func() {
		ticker := time.NewTicker(c.cfg.RotationInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Rotate()
			case done := <-quit:
				close(done)
				return
			}
		}
	}()
	return func() {
		done := make(chan struct{})
		quit <- done
		<-done
	}
}

// hashable adapts a TxID to the hash.Hash64 interface the bloom filter
// consumes. The id is already a cryptographic hash, so folding its bytes
// is sufficient entropy — there is no need to re-hash with a
// general-purpose hash function.
type hashable struct{ b [32]byte }

func (h hashable) Write(p []byte) (int, error) { return len(p), nil }
func (h hashable) Sum(b []byte) []byte         { return append(b, h.b[:]...) }
func (h hashable) Reset()                      {}
func (h hashable) Size() int                   { return 8 }
func (h hashable) BlockSize() int              { return 32 }

func (h hashable) Sum64() uint64 {
	var v uint64
	for i, b := range h.b {
		v ^= uint64(b) << uint((i%8)*8)
	}
	return v
}

func hashID(id ids.TxID) hashable {
	return hashable{b: id}
}
