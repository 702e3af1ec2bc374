package history

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Default configuration values.
const (
	DefaultMergeWindow              = 500 * time.Millisecond
	DefaultMaxEntries               = 500
	DefaultMaxMemoryMB              = 50.0
	DefaultPruneThresholdRatio      = 0.9
	DefaultPastRetentionRatio       = 0.7
	DefaultProtectedRecent          = 5
	DefaultMinEntriesForMemoryPrune = 10
)

// Config bounds and tunes the history log.
type Config struct {
	// MergeWindow is the maximum age of the most recent entry for a commit
	// to coalesce into it. Zero disables coalescing.
	MergeWindow time.Duration

	// MaxEntries is the entry budget.
	MaxEntries int

	// MaxMemoryBytes is the estimated memory budget.
	MaxMemoryBytes int64

	// PruneThresholdRatio is the fraction of either budget at which pruning
	// runs after a commit.
	PruneThresholdRatio float64

	// PastRetentionRatio is the share of MaxEntries kept from the undo side
	// when pruning; the remainder is kept from the redo side.
	PastRetentionRatio float64

	// ProtectedRecent is how many of the newest entries memory pruning never
	// evicts.
	ProtectedRecent int

	// MinEntriesForMemoryPrune is the entry count at or below which memory
	// pruning stops evicting.
	MinEntriesForMemoryPrune int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MergeWindow:              DefaultMergeWindow,
		MaxEntries:               DefaultMaxEntries,
		MaxMemoryBytes:           mbToBytes(DefaultMaxMemoryMB),
		PruneThresholdRatio:      DefaultPruneThresholdRatio,
		PastRetentionRatio:       DefaultPastRetentionRatio,
		ProtectedRecent:          DefaultProtectedRecent,
		MinEntriesForMemoryPrune: DefaultMinEntriesForMemoryPrune,
	}
}

// normalize replaces out-of-range values with defaults.
func (c Config) normalize() Config {
	d := DefaultConfig()
	if c.MergeWindow < 0 {
		c.MergeWindow = 0
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = d.MaxEntries
	}
	if c.MaxMemoryBytes <= 0 {
		c.MaxMemoryBytes = d.MaxMemoryBytes
	}
	if c.PruneThresholdRatio <= 0 || c.PruneThresholdRatio > 1 {
		c.PruneThresholdRatio = d.PruneThresholdRatio
	}
	if c.PastRetentionRatio <= 0 || c.PastRetentionRatio > 1 {
		c.PastRetentionRatio = d.PastRetentionRatio
	}
	if c.ProtectedRecent < 0 {
		c.ProtectedRecent = d.ProtectedRecent
	}
	if c.MinEntriesForMemoryPrune < 0 {
		c.MinEntriesForMemoryPrune = d.MinEntriesForMemoryPrune
	}
	return c
}

// Option configures a History during creation.
type Option func(*History)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(h *History) {
		h.cfg = cfg.normalize()
	}
}

// WithMergeWindow sets the coalescing window.
func WithMergeWindow(d time.Duration) Option {
	return func(h *History) {
		if d >= 0 {
			h.cfg.MergeWindow = d
		}
	}
}

// WithMaxEntries sets the entry budget.
func WithMaxEntries(max int) Option {
	return func(h *History) {
		if max > 0 {
			h.cfg.MaxEntries = max
		}
	}
}

// WithMaxMemoryMB sets the memory budget in megabytes.
func WithMaxMemoryMB(mb float64) Option {
	return func(h *History) {
		if mb > 0 {
			h.cfg.MaxMemoryBytes = mbToBytes(mb)
		}
	}
}

// WithPruneThresholdRatio sets the fraction of the budgets that triggers pruning.
func WithPruneThresholdRatio(ratio float64) Option {
	return func(h *History) {
		if ratio > 0 && ratio <= 1 {
			h.cfg.PruneThresholdRatio = ratio
		}
	}
}

// WithRetention sets the pruning heuristics: the past share of the entry
// budget and the number of newest entries protected from memory pruning.
func WithRetention(pastRatio float64, protectedRecent int) Option {
	return func(h *History) {
		if pastRatio > 0 && pastRatio <= 1 {
			h.cfg.PastRetentionRatio = pastRatio
		}
		if protectedRecent >= 0 {
			h.cfg.ProtectedRecent = protectedRecent
		}
	}
}

// WithClock sets the time source used for entry timestamps and coalescing.
func WithClock(now func() time.Time) Option {
	return func(h *History) {
		if now != nil {
			h.now = now
		}
	}
}

// WithIDGenerator sets the function producing entry ids.
func WithIDGenerator(gen func() string) Option {
	return func(h *History) {
		if gen != nil {
			h.newID = gen
		}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(h *History) {
		if l != nil {
			h.logger = l
		}
	}
}

func defaultIDGenerator() string {
	return uuid.NewString()
}

func mbToBytes(mb float64) int64 {
	return int64(mb * bytesPerMB)
}
