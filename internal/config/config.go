// Package config provides history engine configuration.
//
// Settings are layered: built-in defaults, then an optional TOML or YAML
// file, then STRATA_* environment variables. All history settings live
// under the "history" section; log settings live under "logging":
//
//	[history]
//	mergeWindowMs = 500
//	maxEntries = 500
//	maxMemoryMB = 50
//	pruneThresholdRatio = 0.9
//
//	[logging]
//	level = "debug"
//	file = "/var/log/strata.log"
//
// A Reloader re-reads the file when it changes and hands the result to a
// callback, typically one that calls History.ApplyTo.
package config

import (
	"errors"
	"time"

	"github.com/dshills/strata/internal/engine/history"
)

// Logging holds the log settings a file or the environment may carry.
type Logging struct {
	Level  string
	Format string
	File   string
}

// History holds the tunable settings of the history engine.
type History struct {
	// MergeWindow is the coalescing window. Zero disables merging.
	MergeWindow time.Duration

	// MaxEntries bounds the number of retained entries.
	MaxEntries int

	// MaxMemoryMB bounds the estimated size of the retained entries.
	MaxMemoryMB float64

	// PruneThresholdRatio is the fraction of either budget at which
	// pruning starts.
	PruneThresholdRatio float64

	// PastRetentionRatio is the share of MaxEntries kept for undo.
	PastRetentionRatio float64

	// ProtectedRecent entries are never evicted for memory.
	ProtectedRecent int

	// MinEntriesForMemoryPrune is the floor below which memory pruning
	// stops.
	MinEntriesForMemoryPrune int
}

// Default returns the engine defaults.
func Default() History {
	d := history.DefaultConfig()
	return History{
		MergeWindow:              d.MergeWindow,
		MaxEntries:               d.MaxEntries,
		MaxMemoryMB:              history.DefaultMaxMemoryMB,
		PruneThresholdRatio:      d.PruneThresholdRatio,
		PastRetentionRatio:       d.PastRetentionRatio,
		ProtectedRecent:          d.ProtectedRecent,
		MinEntriesForMemoryPrune: d.MinEntriesForMemoryPrune,
	}
}

// Validate checks every setting and returns all failures joined.
func (c History) Validate() error {
	var errs []error
	check := func(ok bool, path, msg string, value any) {
		if !ok {
			errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value})
		}
	}

	check(c.MergeWindow >= 0, "history.mergeWindow", "must not be negative", c.MergeWindow)
	check(c.MaxEntries >= 1, "history.maxEntries", "must be at least 1", c.MaxEntries)
	check(c.MaxMemoryMB > 0, "history.maxMemoryMB", "must be positive", c.MaxMemoryMB)
	check(c.PruneThresholdRatio > 0 && c.PruneThresholdRatio <= 1,
		"history.pruneThresholdRatio", "must be in (0, 1]", c.PruneThresholdRatio)
	check(c.PastRetentionRatio > 0 && c.PastRetentionRatio <= 1,
		"history.pastRetentionRatio", "must be in (0, 1]", c.PastRetentionRatio)
	check(c.ProtectedRecent >= 0, "history.protectedRecent", "must not be negative", c.ProtectedRecent)
	check(c.MinEntriesForMemoryPrune >= 0,
		"history.minEntriesForMemoryPrune", "must not be negative", c.MinEntriesForMemoryPrune)

	return errors.Join(errs...)
}

// EngineConfig converts the settings to the engine's representation.
func (c History) EngineConfig() history.Config {
	return history.Config{
		MergeWindow:              c.MergeWindow,
		MaxEntries:               c.MaxEntries,
		MaxMemoryBytes:           int64(c.MaxMemoryMB * 1024 * 1024),
		PruneThresholdRatio:      c.PruneThresholdRatio,
		PastRetentionRatio:       c.PastRetentionRatio,
		ProtectedRecent:          c.ProtectedRecent,
		MinEntriesForMemoryPrune: c.MinEntriesForMemoryPrune,
	}
}

// Option returns an engine option carrying these settings.
func (c History) Option() history.Option {
	return history.WithConfig(c.EngineConfig())
}

// ApplyTo reconfigures a running engine. Shrinking a budget prunes
// immediately.
func (c History) ApplyTo(h *history.History) {
	h.SetConfig(c.EngineConfig())
}
