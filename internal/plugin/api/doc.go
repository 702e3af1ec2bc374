// Package api provides the Lua modules exposed to scripts.
//
// Scripts reach everything through the "strata" namespace:
//
//	local strata = require("strata")
//
//	strata.history.batch("Add shapes", function()
//	    strata.doc.add({ id = "a", kind = "rect", width = 10, height = 10 })
//	    strata.doc.add({ id = "b", kind = "text", text = "hello" })
//	end)
//
//	strata.doc.update_with("Move", "drag:a", "a", { x = 40 })
//	strata.history.undo()
//	strata.log.info("usage", strata.history.memory_usage())
//
// Modules:
//   - strata.doc: element add, update, remove, reorder and queries
//   - strata.history: undo/redo, batches, checkpoints, limits and
//     introspection
//   - strata.log: structured logging through the host's slog logger
//
// Each module implements Module and registers its table under a
// _strata_<name> global. Registry.InjectAll then gathers those globals into
// the preloaded "strata" module and also preloads each one as
// "strata.<name>".
//
// Element tables use the keys id, kind, x, y, width, height, angle,
// version, text, data_url, points, cells and props. Any other key is stored
// as a property. Positions passed to doc.add_at and doc.move and returned
// by doc.index_of are 1-based.
package api
