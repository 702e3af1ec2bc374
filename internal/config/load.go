package config

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/dshills/strata/internal/config/loader"
)

// Loader resolves History settings from defaults, a file and the
// environment.
type Loader struct {
	fs   loader.FileSystem
	path string
	env  loader.Loader
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFS reads the config file through fsys.
func WithFS(fsys loader.FileSystem) LoaderOption {
	return func(l *Loader) { l.fs = fsys }
}

// WithEnv replaces the environment source. Nil disables it.
func WithEnv(env loader.Loader) LoaderOption {
	return func(l *Loader) { l.env = env }
}

// NewLoader creates a loader for path. An empty path skips the file layer.
func NewLoader(path string, opts ...LoaderOption) *Loader {
	l := &Loader{
		fs:   loader.DefaultFS(),
		path: path,
		env:  loader.NewEnvLoader(loader.EnvPrefix),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the config file path.
func (l *Loader) Path() string { return l.path }

// Load is shorthand for NewLoader(path).Load().
func Load(path string) (History, error) {
	return NewLoader(path).Load()
}

// Load resolves and validates the settings. A missing file leaves the
// defaults in place.
func (l *Loader) Load() (History, error) {
	merged, err := l.merged()
	if err != nil {
		return History{}, err
	}

	cfg := Default()
	section, err := sectionOf(merged, "history")
	if err != nil {
		return History{}, err
	}
	if err := cfg.decode(section); err != nil {
		return History{}, err
	}

	if err := cfg.Validate(); err != nil {
		return History{}, err
	}
	return cfg, nil
}

// LoadLogging resolves the "logging" section. Unset fields stay empty so
// callers can apply their own defaults.
func (l *Loader) LoadLogging() (Logging, error) {
	merged, err := l.merged()
	if err != nil {
		return Logging{}, err
	}
	section, err := sectionOf(merged, "logging")
	if err != nil {
		return Logging{}, err
	}

	var cfg Logging
	for key, raw := range section {
		var dst *string
		switch key {
		case "level":
			dst = &cfg.Level
		case "format":
			dst = &cfg.Format
		case "file":
			dst = &cfg.File
		default:
			continue
		}
		s, ok := raw.(string)
		if !ok {
			return Logging{}, &TypeError{Path: "logging." + key, Expected: "string", Actual: fmt.Sprintf("%T", raw)}
		}
		*dst = s
	}
	return cfg, nil
}

// merged layers the file and environment sources.
func (l *Loader) merged() (map[string]any, error) {
	merged := make(map[string]any)

	if l.path != "" {
		fl, err := loader.ForPathWithFS(l.fs, l.path)
		if err != nil {
			return nil, err
		}
		fileCfg, err := fl.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, fileCfg)
	}

	if l.env != nil {
		envCfg, err := l.env.Load()
		if err != nil {
			return nil, fmt.Errorf("loading environment: %w", err)
		}
		merged = loader.DeepMerge(merged, envCfg)
	}
	return merged, nil
}

func sectionOf(merged map[string]any, name string) (map[string]any, error) {
	section, ok := merged[name]
	if !ok {
		return nil, nil
	}
	m, ok := section.(map[string]any)
	if !ok {
		return nil, &TypeError{Path: name, Expected: "table", Actual: fmt.Sprintf("%T", section)}
	}
	return m, nil
}

// decode overlays recognised keys from a history section. Unknown keys
// are ignored.
func (c *History) decode(m map[string]any) error {
	for key, raw := range m {
		path := "history." + key
		var err error
		switch key {
		case "mergeWindow":
			c.MergeWindow, err = toDuration(path, raw, time.Millisecond)
		case "mergeWindowMs":
			var ms float64
			if ms, err = toFloat(path, raw); err == nil {
				c.MergeWindow = time.Duration(ms * float64(time.Millisecond))
			}
		case "maxEntries":
			c.MaxEntries, err = toInt(path, raw)
		case "maxMemoryMB", "maxMemoryMb":
			c.MaxMemoryMB, err = toFloat(path, raw)
		case "pruneThresholdRatio", "pruneRatio":
			c.PruneThresholdRatio, err = toFloat(path, raw)
		case "pastRetentionRatio":
			c.PastRetentionRatio, err = toFloat(path, raw)
		case "protectedRecent":
			c.ProtectedRecent, err = toInt(path, raw)
		case "minEntriesForMemoryPrune":
			c.MinEntriesForMemoryPrune, err = toInt(path, raw)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func toFloat(path string, v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, nil
		}
	}
	return 0, &TypeError{Path: path, Expected: "number", Actual: fmt.Sprintf("%T", v)}
}

func toInt(path string, v any) (int, error) {
	f, err := toFloat(path, v)
	if err != nil {
		return 0, &TypeError{Path: path, Expected: "integer", Actual: fmt.Sprintf("%T", v)}
	}
	if f != math.Trunc(f) {
		return 0, &TypeError{Path: path, Expected: "integer", Actual: "fractional number"}
	}
	return int(f), nil
}

// toDuration accepts a duration value, a duration string, or a bare number
// in units of unit.
func toDuration(path string, v any, unit time.Duration) (time.Duration, error) {
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case string:
		if parsed, err := time.ParseDuration(d); err == nil {
			return parsed, nil
		}
	default:
		if f, err := toFloat(path, v); err == nil {
			return time.Duration(f * float64(unit)), nil
		}
	}
	return 0, &TypeError{Path: path, Expected: "duration", Actual: fmt.Sprintf("%T", v)}
}
