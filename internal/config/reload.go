package config

import (
	"context"
	"log/slog"

	"github.com/dshills/strata/internal/config/watcher"
)

// ReloadFunc receives the outcome of a reload. On error cfg is the zero
// value and the previous settings should stay in effect.
type ReloadFunc func(cfg History, err error)

// Reloader re-reads a config file whenever it changes.
type Reloader struct {
	loader  *Loader
	watcher *watcher.Watcher
	logger  *slog.Logger
}

// NewReloader watches l's file and calls fn after every change. The
// watcher is not started until Start.
func NewReloader(l *Loader, fn ReloadFunc, logger *slog.Logger, opts ...watcher.Option) (*Reloader, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts = append([]watcher.Option{watcher.WithErrorHandler(func(err error) {
		logger.Warn("config: watch error", "error", err)
	})}, opts...)

	w, err := watcher.New(opts...)
	if err != nil {
		return nil, err
	}
	if err := w.Watch(l.Path()); err != nil {
		_ = w.Close()
		return nil, err
	}

	r := &Reloader{loader: l, watcher: w, logger: logger}
	w.OnChange(func(ev watcher.Event) {
		logger.Debug("config: file changed", "path", ev.Path, "op", ev.Op.String())
		cfg, err := r.loader.Load()
		if err != nil {
			logger.Warn("config: reload failed", "path", ev.Path, "error", err)
		} else {
			logger.Info("config: reloaded", "path", ev.Path)
		}
		fn(cfg, err)
	})
	return r, nil
}

// Start begins watching until ctx is cancelled or Close is called.
func (r *Reloader) Start(ctx context.Context) {
	r.watcher.Start(ctx)
}

// Close stops watching.
func (r *Reloader) Close() error {
	return r.watcher.Close()
}
