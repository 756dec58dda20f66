package encoding

import "fmt"

// Artifact kinds reported in FormatError.Kind.
const (
	KindTransparentAddress = "transparent address"
	KindPaymentAddress     = "sapling payment address"
	KindFullViewingKey     = "sapling extended full viewing key"
	KindSpendingKey        = "sapling extended spending key"
)

// FormatError is returned when a string does not decode under the expected
// prefix or HRP, fails its checksum, or carries a malformed payload.
type FormatError struct {
	Kind     string // Artifact kind (one of the Kind* constants)
	Expected string // Expected HRP or hex prefix
	Reason   string // Short description of what failed
	Cause    error  // Underlying decoder error (if any)
}

func (e *FormatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid %s (expected %s): %s: %v", e.Kind, e.Expected, e.Reason, e.Cause)
	}
	return fmt.Sprintf("invalid %s (expected %s): %s", e.Kind, e.Expected, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Cause
}
