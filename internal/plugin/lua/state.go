package lua

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultExecutionTimeout bounds a single DoString, DoFile or Call.
const DefaultExecutionTimeout = 5 * time.Second

// State wraps gopher-lua with a sandbox and an execution timeout.
//
// gopher-lua's LState is not goroutine-safe. The mutex serializes calls made
// through State; code that uses LuaState directly must synchronize itself.
type State struct {
	L *lua.LState

	mu      sync.Mutex
	timeout time.Duration
	output  io.Writer
	closed  bool
}

// StateOption configures a State.
type StateOption func(*State)

// WithExecutionTimeout sets the timeout for each execution. Zero disables it.
// The timeout is enforced through the VM's context check, so tight Lua loops
// are interrupted as well.
func WithExecutionTimeout(d time.Duration) StateOption {
	return func(s *State) {
		s.timeout = d
	}
}

// WithOutput redirects print. The default is stdout.
func WithOutput(w io.Writer) StateOption {
	return func(s *State) {
		s.output = w
	}
}

// NewState creates a sandboxed Lua state with the base, package, table,
// string and math libraries.
func NewState(opts ...StateOption) (*State, error) {
	s := &State{
		timeout: DefaultExecutionTimeout,
		output:  os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	if err := openSafeLibraries(L); err != nil {
		L.Close()
		return nil, err
	}
	installSandbox(L)
	installPrint(L, s.output)

	s.L = L
	return s, nil
}

// openSafeLibraries opens only libraries without filesystem or process
// access. package is needed for require and PreloadModule.
func openSafeLibraries(L *lua.LState) error {
	libs := []struct {
		name string
		open lua.LGFunction
	}{
		{lua.LoadLibName, lua.OpenPackage},
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.open),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name))
		if err != nil {
			return fmt.Errorf("open %s library: %w", lib.name, err)
		}
	}
	return nil
}

// DoString executes a chunk of Lua code.
func (s *State) DoString(code string) error {
	return s.DoStringContext(context.Background(), code)
}

// DoStringContext executes code, stopping early when ctx is done.
func (s *State) DoStringContext(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	return s.exec(ctx, func() error {
		return s.L.DoString(code)
	})
}

// DoFile executes a Lua file.
func (s *State) DoFile(path string) error {
	return s.DoFileContext(context.Background(), path)
}

// DoFileContext executes a file, stopping early when ctx is done.
func (s *State) DoFileContext(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStateClosed
	}
	return s.exec(ctx, func() error {
		return s.L.DoFile(path)
	})
}

// Call calls a global Lua function. It returns an empty slice, not nil, when
// the function returns nothing.
func (s *State) Call(fn string, args ...lua.LValue) ([]lua.LValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStateClosed
	}

	fnVal := s.L.GetGlobal(fn)
	if fnVal == lua.LNil {
		return nil, fmt.Errorf("%w: %q", ErrFunctionNotFound, fn)
	}
	if fnVal.Type() != lua.LTFunction {
		return nil, fmt.Errorf("%w: %q is %s", ErrNotFunction, fn, fnVal.Type())
	}

	top := s.L.GetTop()
	err := s.exec(context.Background(), func() error {
		s.L.Push(fnVal)
		for _, arg := range args {
			s.L.Push(arg)
		}
		return s.L.PCall(len(args), lua.MultRet, nil)
	})
	if err != nil {
		s.L.SetTop(top)
		return nil, err
	}

	n := s.L.GetTop() - top
	if n <= 0 {
		return []lua.LValue{}, nil
	}
	results := make([]lua.LValue, n)
	for i := 0; i < n; i++ {
		results[i] = s.L.Get(top + i + 1)
	}
	s.L.Pop(n)
	return results, nil
}

// exec runs fn under the execution timeout and recovers VM panics.
func (s *State) exec(ctx context.Context, fn func() error) (err error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if ctx.Done() != nil {
		s.L.SetContext(ctx)
		defer s.L.RemoveContext()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()

	err = fn()
	if err != nil && ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %v", ErrExecutionTimeout, err)
		}
		return fmt.Errorf("%w: %v", ctx.Err(), err)
	}
	return err
}

// GetGlobal returns a global variable value.
func (s *State) GetGlobal(name string) lua.LValue {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return lua.LNil
	}
	return s.L.GetGlobal(name)
}

// SetGlobal sets a global variable.
func (s *State) SetGlobal(name string, value lua.LValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.L.SetGlobal(name, value)
}

// RegisterFunc registers a Go function as a global Lua function.
func (s *State) RegisterFunc(name string, fn lua.LGFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.L.SetGlobal(name, s.L.NewFunction(fn))
}

// PreloadModule makes a module available to require. Only names in the
// strata namespace pass the sandboxed require.
func (s *State) PreloadModule(name string, loader lua.LGFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.L.PreloadModule(name, loader)
}

// LuaState returns the underlying gopher-lua state. Access through it
// bypasses the mutex and the execution timeout.
func (s *State) LuaState() *lua.LState {
	return s.L
}

// IsClosed reports whether Close has been called.
func (s *State) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases the Lua state. Later calls return ErrStateClosed.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.L.Close()
	s.closed = true
	return nil
}
