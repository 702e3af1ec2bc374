package plugin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/strata/internal/document"
	"github.com/dshills/strata/internal/plugin/api"
	plua "github.com/dshills/strata/internal/plugin/lua"
)

// Host runs Lua scripts against a single document.
type Host struct {
	mu sync.RWMutex

	doc    *document.Document
	state  *plua.State
	status State
	err    error

	// Options
	executionTimeout time.Duration
	output           io.Writer
	logger           *slog.Logger
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithExecutionTimeout sets the timeout for each script run or call.
func WithExecutionTimeout(d time.Duration) HostOption {
	return func(h *Host) {
		h.executionTimeout = d
	}
}

// WithOutput redirects the script's print output.
func WithOutput(w io.Writer) HostOption {
	return func(h *Host) {
		h.output = w
	}
}

// WithLogger sets the logger used by the host and by strata.log.
func WithLogger(l *slog.Logger) HostOption {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHost creates a host for doc. The Lua state is not created until Load.
func NewHost(doc *document.Document, opts ...HostOption) (*Host, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}

	h := &Host{
		doc:              doc,
		status:           StateUnloaded,
		executionTimeout: plua.DefaultExecutionTimeout,
		logger:           slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Document returns the document scripts operate on.
func (h *Host) Document() *document.Document {
	return h.doc
}

// State returns the current lifecycle state.
func (h *Host) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.status
}

// Error returns the error that moved the host into StateError, if any.
func (h *Host) Error() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.err
}

// Load creates the Lua state and injects the strata modules.
func (h *Host) Load(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.status != StateUnloaded {
		return ErrAlreadyLoaded
	}

	opts := []plua.StateOption{plua.WithExecutionTimeout(h.executionTimeout)}
	if h.output != nil {
		opts = append(opts, plua.WithOutput(h.output))
	}
	state, err := plua.NewState(opts...)
	if err != nil {
		return h.failLocked(err)
	}

	reg, err := api.DefaultRegistry(h.doc, h.logger)
	if err == nil {
		err = reg.InjectAll(state.LuaState())
	}
	if err != nil {
		state.Close()
		return h.failLocked(err)
	}

	h.state = state
	h.status = StateLoaded
	h.err = nil
	h.logger.Debug("plugin: host loaded", "modules", reg.List())
	return nil
}

// RunFile executes a script file.
func (h *Host) RunFile(ctx context.Context, path string) error {
	return h.run(path, func(s *plua.State) error {
		return s.DoFileContext(ctx, path)
	})
}

// RunString executes a chunk of Lua code.
func (h *Host) RunString(ctx context.Context, code string) error {
	return h.run("<string>", func(s *plua.State) error {
		return s.DoStringContext(ctx, code)
	})
}

func (h *Host) run(name string, fn func(*plua.State) error) error {
	h.mu.Lock()
	switch h.status {
	case StateLoaded:
	case StateRunning:
		h.mu.Unlock()
		return ErrBusy
	default:
		h.mu.Unlock()
		return ErrNotLoaded
	}
	h.status = StateRunning
	state := h.state
	h.mu.Unlock()

	start := time.Now()
	err := fn(state)

	h.mu.Lock()
	if h.status == StateRunning {
		h.status = StateLoaded
	}
	h.mu.Unlock()

	if err != nil {
		h.logger.Warn("plugin: script failed", "script", name, "error", err)
		return fmt.Errorf("run %s: %w", name, err)
	}
	h.logger.Debug("plugin: script finished", "script", name, "duration", time.Since(start))
	return nil
}

// Call calls a global Lua function with Go arguments and returns Go values.
func (h *Host) Call(fn string, args ...any) ([]any, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case h.state == nil:
		return nil, ErrNotLoaded
	case h.status == StateRunning:
		return nil, ErrBusy
	}

	L := h.state.LuaState()
	luaArgs := make([]lua.LValue, len(args))
	for i, arg := range args {
		luaArgs[i] = plua.ToLuaValue(L, arg)
	}

	results, err := h.state.Call(fn, luaArgs...)
	if err != nil {
		return nil, err
	}

	out := make([]any, len(results))
	for i, r := range results {
		out[i] = plua.ToGoValue(r)
	}
	return out, nil
}

// HasFunction reports whether the script defined the named global function.
func (h *Host) HasFunction(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.state == nil || h.status == StateRunning {
		return false
	}
	return h.state.GetGlobal(name).Type() == lua.LTFunction
}

// GetGlobal returns a global variable converted to a Go value.
func (h *Host) GetGlobal(name string) any {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.state == nil || h.status == StateRunning {
		return nil
	}
	return plua.ToGoValue(h.state.GetGlobal(name))
}

// Unload closes the Lua state. The document and its history are untouched.
func (h *Host) Unload() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.status == StateRunning {
		return ErrBusy
	}
	if h.state != nil {
		h.state.Close()
		h.state = nil
	}
	h.status = StateUnloaded
	h.err = nil
	return nil
}

func (h *Host) failLocked(err error) error {
	h.status = StateError
	h.err = fmt.Errorf("load host: %w", err)
	return h.err
}
