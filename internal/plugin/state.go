package plugin

// State is where a Host is in its lifecycle.
type State int

const (
	StateUnloaded State = iota // no Lua state
	StateLoaded                // modules injected, idle
	StateRunning               // RunFile or RunString in progress
	StateError                 // Load failed; Unload to retry
)

var stateNames = [...]string{
	StateUnloaded: "unloaded",
	StateLoaded:   "loaded",
	StateRunning:  "running",
	StateError:    "error",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// IsUsable reports whether a script may be started.
func (s State) IsUsable() bool {
	return s == StateLoaded
}
