// Package lua provides the sandboxed Lua runtime used for scripting.
//
// A State wraps gopher-lua with:
//   - only the base, package, table, string and math libraries
//   - dofile, loadfile, load and loadstring removed
//   - a require that resolves built-in modules and preloaded "strata"
//     modules, never files on disk
//   - a per-call execution timeout enforced through the VM context
//
// Usage:
//
//	state, err := lua.NewState(lua.WithExecutionTimeout(2 * time.Second))
//	if err != nil {
//	    return err
//	}
//	defer state.Close()
//
//	if err := state.DoFile("edit.lua"); err != nil {
//	    return err
//	}
//
// ToGoValue and ToLuaValue convert between Lua values and the JSON-like Go
// values stored in element properties.
package lua
