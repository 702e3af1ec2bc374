package api

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	lua "github.com/yuin/gopher-lua"

	plua "github.com/dshills/strata/internal/plugin/lua"
)

// LogModule implements strata.log on top of a slog logger.
type LogModule struct {
	logger *slog.Logger
}

// NewLogModule creates a log module. A nil logger discards records.
func NewLogModule(logger *slog.Logger) *LogModule {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LogModule{logger: logger.With("source", "script")}
}

// Name returns the module name.
func (m *LogModule) Name() string {
	return "log"
}

// Register registers the module into the Lua state.
func (m *LogModule) Register(L *lua.LState) error {
	mod := L.NewTable()

	L.SetField(mod, "debug", L.NewFunction(m.logAt(slog.LevelDebug)))
	L.SetField(mod, "info", L.NewFunction(m.logAt(slog.LevelInfo)))
	L.SetField(mod, "warn", L.NewFunction(m.logAt(slog.LevelWarn)))
	L.SetField(mod, "error", L.NewFunction(m.logAt(slog.LevelError)))

	L.SetGlobal(globalName(m.Name()), mod)
	return nil
}

// logAt returns level(msg, [fields]). fields is a table whose entries become
// record attributes, sorted by key.
func (m *LogModule) logAt(level slog.Level) lua.LGFunction {
	return func(L *lua.LState) int {
		msg := L.CheckString(1)

		var attrs []slog.Attr
		if fields := L.OptTable(2, nil); fields != nil {
			if values, ok := plua.ToGoValue(fields).(map[string]any); ok {
				for k, v := range values {
					attrs = append(attrs, slog.Any(k, v))
				}
				slices.SortFunc(attrs, func(a, b slog.Attr) int {
					return strings.Compare(a.Key, b.Key)
				})
			}
		}

		m.logger.LogAttrs(context.Background(), level, msg, attrs...)
		return 0
	}
}
