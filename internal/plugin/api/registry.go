package api

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/strata/internal/document"
	plua "github.com/dshills/strata/internal/plugin/lua"
)

// APIVersion is reported to scripts as strata.api_version.
const APIVersion = 1

// Module is a Lua API module.
type Module interface {
	// Name returns the module name, e.g. "doc" or "history".
	Name() string

	// Register builds the module table and stores it in the
	// _strata_<name> global for the loader to collect.
	Register(L *lua.LState) error
}

// Registry manages API modules and their injection into Lua states.
type Registry struct {
	mu      sync.RWMutex
	modules map[string]Module
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]Module)}
}

// Register adds a module. Names must be unique.
func (r *Registry) Register(mod Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.modules[mod.Name()]; exists {
		return fmt.Errorf("module %q already registered", mod.Name())
	}
	r.modules[mod.Name()] = mod
	return nil
}

// Get returns a module by name.
func (r *Registry) Get(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mod, ok := r.modules[name]
	return mod, ok
}

// List returns the registered module names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// InjectAll registers every module into L and preloads the aggregate
// module, so scripts can write:
//
//	local strata = require("strata")
//	strata.doc.add({ id = "a", kind = "rect" })
//
// Each module is also available as require("strata.<name>").
func (r *Registry) InjectAll(L *lua.LState) error {
	names := r.List()

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range names {
		if err := r.modules[name].Register(L); err != nil {
			return fmt.Errorf("failed to register module %q: %w", name, err)
		}
	}

	installLoader(L, names)
	return nil
}

// installLoader moves the _strata_<name> globals into one table and
// preloads it.
func installLoader(L *lua.LState, names []string) {
	root := L.NewTable()

	for _, name := range names {
		global := globalName(name)
		val := L.GetGlobal(global)
		if val == lua.LNil {
			continue
		}
		L.SetField(root, name, val)
		L.SetGlobal(global, lua.LNil)

		mod := val
		L.PreloadModule(plua.ModuleNamespace+"."+name, func(L *lua.LState) int {
			L.Push(mod)
			return 1
		})
	}

	L.SetField(root, "api_version", lua.LNumber(APIVersion))

	L.PreloadModule(plua.ModuleNamespace, func(L *lua.LState) int {
		L.Push(root)
		return 1
	})
}

// globalName returns the staging global for a module.
func globalName(module string) string {
	return "_" + plua.ModuleNamespace + "_" + module
}

// DefaultRegistry returns a registry with the doc, history and log modules
// bound to doc.
func DefaultRegistry(doc *document.Document, logger *slog.Logger) (*Registry, error) {
	r := NewRegistry()

	modules := []Module{
		NewDocumentModule(doc),
		NewHistoryModule(doc.History()),
		NewLogModule(logger),
	}
	for _, mod := range modules {
		if err := r.Register(mod); err != nil {
			return nil, fmt.Errorf("failed to register module %q: %w", mod.Name(), err)
		}
	}
	return r, nil
}
