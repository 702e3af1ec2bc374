package lua

import (
	"io"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// ModuleNamespace is the name under which the host preloads its modules.
// require accepts it and any "strata.<name>" submodule.
const ModuleNamespace = "strata"

// builtinModules may be required even though they are already globals.
var builtinModules = map[string]bool{
	"string": true,
	"table":  true,
	"math":   true,
}

// unsafeGlobals load code from disk or from strings outside the sandbox.
var unsafeGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
}

// installSandbox removes unsafe globals and replaces require with a version
// that only resolves built-in and preloaded strata modules.
func installSandbox(L *lua.LState) {
	for _, name := range unsafeGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	if pkg, ok := L.GetGlobal("package").(*lua.LTable); ok {
		L.SetField(pkg, "path", lua.LString(""))
		L.SetField(pkg, "cpath", lua.LString(""))
	}

	original := L.GetGlobal("require")
	L.SetGlobal("require", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if !allowedModule(name) {
			L.RaiseError("module %q is not available", name)
			return 0
		}
		L.Push(original)
		L.Push(lua.LString(name))
		L.Call(1, 1)
		return 1
	}))
}

func allowedModule(name string) bool {
	if builtinModules[name] || name == ModuleNamespace {
		return true
	}
	return strings.HasPrefix(name, ModuleNamespace+".") && len(name) > len(ModuleNamespace)+1
}

// installPrint sends print output to w, tab separated like the stock print.
func installPrint(L *lua.LState, w io.Writer) {
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		var sb strings.Builder
		for i := 1; i <= L.GetTop(); i++ {
			if i > 1 {
				sb.WriteByte('\t')
			}
			sb.WriteString(L.ToStringMeta(L.Get(i)).String())
		}
		sb.WriteByte('\n')
		_, _ = io.WriteString(w, sb.String())
		return 0
	}))
}
