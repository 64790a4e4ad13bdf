package engine

import (
	"time"

	"github.com/999bits/wildfire/internal/infrastructure/memory"
	"github.com/999bits/wildfire/pkg/config"
)

// Options tunes the command loop.
type Options struct {
	Pair string

	// A snapshot is written once SnapshotOffsetDelta commands were applied, or
	// after SnapshotInterval when at least one command was applied.
	SnapshotInterval    time.Duration
	SnapshotOffsetDelta int64

	// ReadBackoff is the pause after a failed read.
	ReadBackoff time.Duration

	// DevLedgers enables the mint, deposit, approve and authorize_operator
	// commands and puts the ledger balances into snapshots.
	DevLedgers *memory.Ledgers
}

// DefaultEngineOptions returns the default options.
func DefaultEngineOptions() *Options {
	return &Options{
		Pair:                "VT/WBNB",
		SnapshotInterval:    30 * time.Second,
		SnapshotOffsetDelta: 1000,
		ReadBackoff:         100 * time.Millisecond,
	}
}

// OptionsFromConfig builds options from the service configuration. ledgers is
// only used when the dev ledger is enabled.
func OptionsFromConfig(cfg *config.Config, ledgers *memory.Ledgers) *Options {
	options := DefaultEngineOptions()
	options.Pair = cfg.Pair
	if cfg.SnapshotInterval > 0 {
		options.SnapshotInterval = cfg.SnapshotInterval
	}
	if cfg.SnapshotOffsetDelta > 0 {
		options.SnapshotOffsetDelta = cfg.SnapshotOffsetDelta
	}
	if cfg.DevLedger {
		options.DevLedgers = ledgers
	}
	return options
}
