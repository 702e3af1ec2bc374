// Package plugin runs Lua scripts against a document.
//
// A Host owns one sandboxed Lua state with the strata modules injected
// (see package api). Scripts edit the document and drive its history:
//
//	host, err := plugin.NewHost(doc, plugin.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	if err := host.Load(ctx); err != nil {
//	    return err
//	}
//	defer host.Unload()
//
//	if err := host.RunFile(ctx, "layout.lua"); err != nil {
//	    return err
//	}
//
// A Host is Unloaded until Load succeeds, Loaded while idle, Running during
// RunFile or RunString, and Error if Load failed.
package plugin
