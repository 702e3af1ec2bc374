package plugin

import "errors"

// Host errors.
var (
	// ErrNilDocument is returned when a host is created without a document.
	ErrNilDocument = errors.New("document is nil")

	// ErrAlreadyLoaded is returned when loading a host twice.
	ErrAlreadyLoaded = errors.New("host is already loaded")

	// ErrNotLoaded is returned when running scripts on an unloaded host.
	ErrNotLoaded = errors.New("host is not loaded")

	// ErrBusy is returned when a script is started while another runs.
	ErrBusy = errors.New("host is running a script")
)
