package compat

import "errors"

// ErrUnsupportedOperation indicates an operation type the encoder does not
// know how to render.
var ErrUnsupportedOperation = errors.New("compat: unsupported operation")
