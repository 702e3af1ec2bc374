package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/dshills/strata/internal/config/loader"
	"github.com/dshills/strata/internal/config/watcher"
	"github.com/dshills/strata/internal/engine/history"
	"github.com/dshills/strata/internal/store"
)

type staticEnv map[string]any

func (e staticEnv) Load() (map[string]any, error) { return e, nil }

func TestDefaultMatchesEngine(t *testing.T) {
	got := Default().EngineConfig()
	if got != history.DefaultConfig() {
		t.Errorf("Default().EngineConfig() = %+v, want %+v", got, history.DefaultConfig())
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*History)
		path   string
	}{
		{"negative merge window", func(c *History) { c.MergeWindow = -time.Second }, "history.mergeWindow"},
		{"zero entries", func(c *History) { c.MaxEntries = 0 }, "history.maxEntries"},
		{"zero memory", func(c *History) { c.MaxMemoryMB = 0 }, "history.maxMemoryMB"},
		{"ratio above one", func(c *History) { c.PruneThresholdRatio = 1.5 }, "history.pruneThresholdRatio"},
		{"zero retention", func(c *History) { c.PastRetentionRatio = 0 }, "history.pastRetentionRatio"},
		{"negative protected", func(c *History) { c.ProtectedRecent = -1 }, "history.protectedRecent"},
		{"negative minimum", func(c *History) { c.MinEntriesForMemoryPrune = -1 }, "history.minEntriesForMemoryPrune"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("Validate() error = %v, want ErrValidationFailed", err)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Path != tt.path {
				t.Errorf("ValidationError = %+v, want path %s", ve, tt.path)
			}
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.MaxEntries = 0
	cfg.MaxMemoryMB = -1

	err := cfg.Validate()
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok || len(joined.Unwrap()) != 2 {
		t.Errorf("Validate() = %v, want two joined errors", err)
	}
}

func TestLoadLayers(t *testing.T) {
	fsys := fstest.MapFS{
		"strata.toml": {Data: []byte(`
[history]
mergeWindow = "250ms"
maxEntries = 100
maxMemoryMB = 8
pastRetentionRatio = 0.5
unknownKey = "ignored"
`)},
	}
	env := staticEnv{"history": map[string]any{"maxEntries": int64(40)}}

	cfg, err := NewLoader("strata.toml", WithFS(fsys), WithEnv(env)).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Default()
	want.MergeWindow = 250 * time.Millisecond
	want.MaxEntries = 40 // environment wins
	want.MaxMemoryMB = 8
	want.PastRetentionRatio = 0.5
	if cfg != want {
		t.Errorf("Load() = %+v, want %+v", cfg, want)
	}
}

func TestLoadYAML(t *testing.T) {
	fsys := fstest.MapFS{
		"strata.yml": {Data: []byte("history:\n  mergeWindowMs: 0\n  protectedRecent: 2\n")},
	}

	cfg, err := NewLoader("strata.yml", WithFS(fsys), WithEnv(nil)).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MergeWindow != 0 || cfg.ProtectedRecent != 2 {
		t.Errorf("Load() = %+v", cfg)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader(filepath.Join(t.TempDir(), "none.toml"), WithEnv(nil)).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("STRATA_HISTORY_MERGE_WINDOW_MS", "1200")
	t.Setenv("STRATA_HISTORY_MAX_MEMORY_MB", "12.5")
	t.Setenv("STRATA_HISTORY_PRUNE_RATIO", "0.75")

	cfg, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MergeWindow != 1200*time.Millisecond || cfg.MaxMemoryMB != 12.5 || cfg.PruneThresholdRatio != 0.75 {
		t.Errorf("Load() = %+v", cfg)
	}
}

func TestLoadLogging(t *testing.T) {
	fsys := fstest.MapFS{
		"strata.toml": {Data: []byte("[logging]\nlevel = \"debug\"\nformat = \"json\"\n")},
	}
	t.Setenv("STRATA_LOG_LEVEL", "warn")
	t.Setenv("STRATA_LOG_FILE", "/tmp/strata.log")

	got, err := NewLoader("strata.toml", WithFS(fsys)).LoadLogging()
	if err != nil {
		t.Fatalf("LoadLogging() error = %v", err)
	}
	want := Logging{Level: "warn", Format: "json", File: "/tmp/strata.log"}
	if got != want {
		t.Errorf("LoadLogging() = %+v, want %+v", got, want)
	}

	bad := fstest.MapFS{"strata.toml": {Data: []byte("[logging]\nlevel = 3\n")}}
	_, err = NewLoader("strata.toml", WithFS(bad), WithEnv(nil)).LoadLogging()
	var typeErr *TypeError
	if !errors.As(err, &typeErr) || typeErr.Path != "logging.level" {
		t.Errorf("LoadLogging() error = %v, want TypeError at logging.level", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		data string
		want error
	}{
		{"bad type", "c.toml", "[history]\nmaxEntries = \"many\"\n", ErrTypeMismatch},
		{"fraction for integer", "c.toml", "[history]\nmaxEntries = 1.5\n", ErrTypeMismatch},
		{"section not a table", "c.toml", "history = 3\n", ErrTypeMismatch},
		{"invalid value", "c.toml", "[history]\nmaxEntries = -5\n", ErrValidationFailed},
		{"unsupported format", "c.json", "{}", loader.ErrUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{tt.path: {Data: []byte(tt.data)}}
			_, err := NewLoader(tt.path, WithFS(fsys), WithEnv(nil)).Load()
			if !errors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadParseError(t *testing.T) {
	fsys := fstest.MapFS{"c.yaml": {Data: []byte("history: [unclosed")}}
	_, err := NewLoader("c.yaml", WithFS(fsys), WithEnv(nil)).Load()

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Errorf("Load() error = %v, want *ParseError", err)
	}
}

func TestApplyTo(t *testing.T) {
	h, err := history.New(store.NewMemory())
	if err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.MergeWindow = 0
	cfg.MaxEntries = 7
	cfg.ApplyTo(h)

	got := h.Config()
	if got.MergeWindow != 0 || got.MaxEntries != 7 {
		t.Errorf("Config() = %+v", got)
	}
}

func TestReloader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strata.toml")
	if err := os.WriteFile(path, []byte("[history]\nmaxEntries = 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	type result struct {
		cfg History
		err error
	}
	results := make(chan result, 8)

	r, err := NewReloader(NewLoader(path, WithEnv(nil)), func(cfg History, err error) {
		results <- result{cfg, err}
	}, nil, watcher.WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewReloader() error = %v", err)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	if err := os.WriteFile(path, []byte("[history]\nmaxEntries = 25\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case res := <-results:
		if res.err != nil {
			t.Fatalf("reload error = %v", res.err)
		}
		if res.cfg.MaxEntries != 25 {
			t.Errorf("reloaded MaxEntries = %d, want 25", res.cfg.MaxEntries)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}
