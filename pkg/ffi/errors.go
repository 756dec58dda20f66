package ffi

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned by LoadSaplingProver when the module was built
// without the native prover.
var ErrUnavailable = errors.New("native sapling prover unavailable (build with cgo and -tags saplingffi)")

// FFIError represents an error returned from the native library.
type FFIError struct {
	Code    int
	Message string
}

func (e *FFIError) Error() string {
	return fmt.Sprintf("FFI error %d: %s", e.Code, e.Message)
}
