// Copyright (C) 2025-2026, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command mempoolctl is a debug CLI over an in-process MemPool, following
// the urfave/cli/v2 app/command layout luxfi-evm's cmd/evm-node uses.
package main

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/luxfi/mempool/clock"
	"github.com/luxfi/mempool/config"
	"github.com/luxfi/mempool/ids"
	"github.com/luxfi/mempool/log"
	"github.com/luxfi/mempool/mempool"
	"github.com/luxfi/mempool/telemetry"
	"github.com/luxfi/mempool/tx"
)

var (
	logLevel    string
	fixturePath string
)

func main() {
	app := &cli.App{
		Name:    "mempoolctl",
		Usage:   "inspect and exercise an in-process transaction mempool",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Value:       "info",
				Usage:       "log verbosity (trace|debug|info|warn|error|crit)",
				Destination: &logLevel,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a mempool config file (viper-compatible: yaml, json, toml)",
			},
			&cli.StringFlag{
				Name:        "fixture",
				Usage:       "JSONL file of transactions to seed the pool with at startup",
				Destination: &fixturePath,
			},
		},
		Before: func(ctx *cli.Context) error {
			lvl, err := log.LvlFromString(logLevel)
			if err != nil {
				return fmt.Errorf("mempoolctl: invalid --log-level: %w", err)
			}
			log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, lvl, true)))
			return nil
		},
		Commands: []*cli.Command{
			statsCommand,
			takeCommand,
			feeEstimateCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadSettings builds Settings from MEMPOOL_* environment variables (e.g.
// MEMPOOL_MIN_FEE for mempool.min-fee), --config (if given) or defaults,
// mirroring the viper.BindPFlags wiring other luxfi cmd/ tools use.
func loadSettings(ctx *cli.Context) (config.Settings, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	fs := pflag.NewFlagSet("mempoolctl", pflag.ContinueOnError)
	config.BindFlags(fs)
	if err := v.BindPFlags(fs); err != nil {
		return config.Settings{}, err
	}

	if path := ctx.String("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return config.Settings{}, fmt.Errorf("mempoolctl: reading config: %w", err)
		}
	}

	settings := config.Load(v)
	if err := settings.Verify(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

// newEmptyPool constructs a MemPool from the resolved CLI settings, wired
// to its own prometheus registry, and, when --fixture is given, seeds it
// from a JSONL transaction fixture via PutMany before handing it back —
// the subcommands below only exercise read-side queries against it.
func newEmptyPool(ctx *cli.Context) (*mempool.MemPool, error) {
	settings, err := loadSettings(ctx)
	if err != nil {
		return nil, err
	}

	metrics, err := telemetry.New(prometheus.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("mempoolctl: registering metrics: %w", err)
	}

	m, err := mempool.New(settings, clock.Real{}, metrics)
	if err != nil {
		return nil, err
	}

	if fixturePath != "" {
		txs, err := loadFixture(fixturePath)
		if err != nil {
			return nil, fmt.Errorf("mempoolctl: loading fixture: %w", err)
		}
		m.PutMany(txs)
	}
	return m, nil
}

// fixtureLine is one JSONL record: a transaction plus the arrival
// metadata PutMany needs, in the same shape a wallet or peer relay would
// hand the pool.
type fixtureLine struct {
	ID      string          `json:"id"`
	Inputs  []string        `json:"inputs"`
	Outputs []fixtureOutput `json:"outputs"`
	Size    uint32          `json:"size"`
	Peer    string          `json:"peer"`
}

type fixtureOutput struct {
	BoxID       string `json:"box_id"`
	Value       uint64 `json:"value"`
	Proposition string `json:"proposition"` // hex-encoded locking script
}

// loadFixture reads one JSON object per line and converts each into an
// Unconfirmed transaction, arriving "now" from the fixture's named peer.
func loadFixture(path string) ([]*tx.Unconfirmed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	now := time.Now()
	var out []*tx.Unconfirmed
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var fl fixtureLine
		if err := json.Unmarshal(line, &fl); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		txID, err := ids.TxIDFromHex(fl.ID)
		if err != nil {
			return nil, fmt.Errorf("line %d: id: %w", lineNo, err)
		}

		inputs := make([]tx.Input, len(fl.Inputs))
		for i, boxHex := range fl.Inputs {
			boxID, err := ids.BoxIDFromHex(boxHex)
			if err != nil {
				return nil, fmt.Errorf("line %d: input %d: %w", lineNo, i, err)
			}
			inputs[i] = tx.Input{BoxID: boxID}
		}

		outputs := make([]tx.Output, len(fl.Outputs))
		for i, fo := range fl.Outputs {
			boxID, err := ids.BoxIDFromHex(fo.BoxID)
			if err != nil {
				return nil, fmt.Errorf("line %d: output %d: %w", lineNo, i, err)
			}
			prop, err := hex.DecodeString(fo.Proposition)
			if err != nil {
				return nil, fmt.Errorf("line %d: output %d: proposition: %w", lineNo, i, err)
			}
			outputs[i] = tx.Output{BoxID: boxID, Value: fo.Value, Proposition: prop}
		}

		out = append(out, &tx.Unconfirmed{
			Tx: &tx.Transaction{
				ID:      txID,
				Inputs:  inputs,
				Outputs: outputs,
				Size:    fl.Size,
			},
			Peer:       fl.Peer,
			Source:     tx.SourcePeer,
			EnqueuedAt: now,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var statsCommand = &cli.Command{
	Name:  "stats",
	Usage: "print pool size and recommended fee at a few wait targets",
	Action: func(ctx *cli.Context) error {
		m, err := newEmptyPool(ctx)
		if err != nil {
			return err
		}
		defer m.Close()

		fmt.Printf("size: %d\n", m.Size())
		for _, waitMin := range []int{0, 5, 15, 30, 59} {
			fee := m.GetRecommendedFee(waitMin, 250)
			fmt.Printf("recommended fee for <=%2dmin wait, 250B tx: %d\n", waitMin, fee)
		}
		return nil
	},
}

var takeCommand = &cli.Command{
	Name:      "take",
	Usage:     "print the top N pooled transaction ids by priority",
	ArgsUsage: "N",
	Action: func(ctx *cli.Context) error {
		n := 10
		if ctx.Args().Len() > 0 {
			fmt.Sscanf(ctx.Args().First(), "%d", &n)
		}
		m, err := newEmptyPool(ctx)
		if err != nil {
			return err
		}
		defer m.Close()

		for _, id := range m.WeightedTransactionIds(n) {
			fmt.Println(id)
		}
		return nil
	},
}

var feeEstimateCommand = &cli.Command{
	Name:      "fee-estimate",
	Usage:     "estimate expected wait time for a hypothetical fee/size",
	ArgsUsage: "FEE SIZE",
	Action: func(ctx *cli.Context) error {
		if ctx.Args().Len() < 2 {
			return cli.Exit("usage: mempoolctl fee-estimate FEE SIZE", 1)
		}
		var fee uint64
		var size uint32
		fmt.Sscanf(ctx.Args().Get(0), "%d", &fee)
		fmt.Sscanf(ctx.Args().Get(1), "%d", &size)

		m, err := newEmptyPool(ctx)
		if err != nil {
			return err
		}
		defer m.Close()

		wait := m.GetExpectedWaitTime(fee, size)
		fmt.Printf("expected wait: %s\n", wait.Round(time.Second))
		return nil
	},
}
