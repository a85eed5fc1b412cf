// Copyright (C) 2025-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads mempool Settings the way luxfi-evm loads its node
// configuration: viper merges flags, environment variables and an
// optional file, and a Verify method rejects an inconsistent result
// before it reaches the rest of the module.
package config

import (
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/luxfi/mempool/approxcache"
	"github.com/luxfi/mempool/ids"
)

// Settings mirrors spec §6's external Settings contract.
type Settings struct {
	MempoolCapacity         int
	MinimalFeeAmount        uint64
	MaxTransactionCost      uint64
	BlacklistedTransactions mapset.Set[ids.TxID]
	FeePropositionBytes     []byte
	InvalidCache            approxcache.Config
}

// Default returns the settings luxfi-evm style tooling falls back to when
// nothing overrides them.
func Default() Settings {
	return Settings{
		MempoolCapacity:    5_000,
		MinimalFeeAmount:   1_000,
		MaxTransactionCost: 1_000_000,
		BlacklistedTransactions: mapset.NewThreadUnsafeSet[ids.TxID](),
		FeePropositionBytes:     []byte("fee"),
		InvalidCache: approxcache.Config{
			FilterCapacity:   100_000,
			FilterFPR:        0.01,
			FrontSize:        1_000,
			FrontTTL:         10 * time.Minute,
			RotationInterval: time.Hour,
		},
	}
}

// Verify rejects a Settings value that would make the pool meaningless,
// the same shape as params.DynamicFeeConfig.Verify() in the upstream
// fee-market config.
func (s Settings) Verify() error {
	if s.MempoolCapacity <= 0 {
		return fmt.Errorf("config: mempoolCapacity must be positive, got %d", s.MempoolCapacity)
	}
	if s.MaxTransactionCost == 0 {
		return fmt.Errorf("config: maxTransactionCost must be positive")
	}
	if len(s.FeePropositionBytes) == 0 {
		return fmt.Errorf("config: feePropositionBytes must not be empty")
	}
	if s.InvalidCache.FilterCapacity == 0 {
		return fmt.Errorf("config: invalidCache.filterCapacity must be positive")
	}
	if s.InvalidCache.FrontSize <= 0 {
		return fmt.Errorf("config: invalidCache.frontSize must be positive")
	}
	if s.InvalidCache.FilterFPR <= 0 || s.InvalidCache.FilterFPR >= 1 {
		return fmt.Errorf("config: invalidCache.filterFpr must be in (0,1), got %f", s.InvalidCache.FilterFPR)
	}
	return nil
}

// BindFlags registers the mempoolctl flag surface onto fs, following the
// viper+pflag wiring pattern used throughout the cmd/ tree.
func BindFlags(fs *pflag.FlagSet) {
	fs.Int("mempool.capacity", 5_000, "maximum number of transactions held in the pool")
	fs.Uint64("mempool.min-fee", 1_000, "minimum fee (in fee-proposition units) accepted")
	fs.Uint64("mempool.max-tx-cost", 1_000_000, "validation cost budget per transaction")
	fs.Duration("mempool.front-ttl", 10*time.Minute, "TTL of the invalidated-id front cache")
	fs.Duration("mempool.rotation-interval", time.Hour, "how often the invalidated-id back filter rotates")
	fs.Uint64("mempool.filter-capacity", 100_000, "sizing capacity of the invalidated-id back filter")
	fs.Float64("mempool.filter-fpr", 0.01, "target false-positive rate of the invalidated-id back filter")
	fs.Int("mempool.front-size", 1_000, "capacity of the invalidated-id front cache")
}

// Load reads Settings from v, which the caller has already told to parse
// flags/env/file (e.g. via viper.BindPFlags(fs) and viper.ReadInConfig()).
// The blacklist itself is not sourced from viper: callers load it
// separately (it typically comes from a governance feed, not a static
// config file) and attach it with WithBlacklist.
func Load(v *viper.Viper) Settings {
	return Settings{
		MempoolCapacity:         v.GetInt("mempool.capacity"),
		MinimalFeeAmount:        v.GetUint64("mempool.min-fee"),
		MaxTransactionCost:      v.GetUint64("mempool.max-tx-cost"),
		BlacklistedTransactions: mapset.NewThreadUnsafeSet[ids.TxID](),
		FeePropositionBytes:     []byte("fee"),
		InvalidCache: approxcache.Config{
			FilterCapacity:   v.GetUint64("mempool.filter-capacity"),
			FilterFPR:        v.GetFloat64("mempool.filter-fpr"),
			FrontSize:        v.GetInt("mempool.front-size"),
			FrontTTL:         v.GetDuration("mempool.front-ttl"),
			RotationInterval: v.GetDuration("mempool.rotation-interval"),
		},
	}
}

// WithBlacklist returns a copy of s carrying blacklist as its blacklisted
// id set.
func (s Settings) WithBlacklist(blacklist mapset.Set[ids.TxID]) Settings {
	s.BlacklistedTransactions = blacklist
	return s
}
