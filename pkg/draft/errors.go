package draft

import "fmt"

// Error codes carried by BuilderError and ProofGenerationError.
const (
	ErrInvalidInput        = "INVALID_INPUT"         // Input data is invalid or malformed
	ErrDuplicateOutpoint   = "DUPLICATE_OUTPOINT"    // Same UTXO added twice
	ErrUnsupportedScript   = "UNSUPPORTED_SCRIPT"    // Locking script is not P2PKH
	ErrInsufficientFunds   = "INSUFFICIENT_FUNDS"    // Inputs do not cover outputs
	ErrValueOutOfRange     = "VALUE_OUT_OF_RANGE"    // Amount or total above MAX_MONEY
	ErrExpiryOutOfRange    = "EXPIRY_OUT_OF_RANGE"   // Expiry height overflows
	ErrInvalidState        = "INVALID_STATE"         // Operation not allowed in the draft's state
	ErrProofCreationFailed = "PROOF_CREATION_FAILED" // Prover rejected an output or binding signature
	ErrParamsUnavailable   = "PARAMS_UNAVAILABLE"    // Proving parameters could not be loaded
	ErrSigningFailed       = "SIGNING_FAILED"        // Transparent signature could not be produced
)

// Item names used in error positions.
const (
	ItemRequest              = "request"
	ItemTransparentInput     = "transparent input"
	ItemTransparentRecipient = "transparent recipient"
	ItemShieldedRecipient    = "shielded recipient"
)

// position renders "item" or "item N".
func position(item string, index int) string {
	if index < 0 {
		return item
	}
	return fmt.Sprintf("%s %d", item, index)
}

// DecodingError is returned when a caller-supplied field is malformed: bad
// hex, wrong length, or an out-of-range value. Index is -1 when the field
// does not belong to a list item.
type DecodingError struct {
	Item    string // e.g. "transparent input"
	Index   int
	Field   string // e.g. "utxo"
	Message string
	Cause   error
}

func (e *DecodingError) Error() string {
	msg := fmt.Sprintf("decoding error: %s: field %q", position(e.Item, e.Index), e.Field)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DecodingError) Unwrap() error { return e.Cause }

// AddressFormatError is returned when an address fails to decode under the
// selected network profile.
type AddressFormatError struct {
	Item  string
	Index int
	Field string
	Cause error
}

func (e *AddressFormatError) Error() string {
	return fmt.Sprintf("address format error: %s: field %q: %v", position(e.Item, e.Index), e.Field, e.Cause)
}

func (e *AddressFormatError) Unwrap() error { return e.Cause }

// KeyFormatError is returned when a viewing or spending key string fails to
// decode under the selected network profile.
type KeyFormatError struct {
	Item  string
	Index int
	Field string
	Cause error
}

func (e *KeyFormatError) Error() string {
	return fmt.Sprintf("key format error: %s: field %q: %v", position(e.Item, e.Index), e.Field, e.Cause)
}

func (e *KeyFormatError) Unwrap() error { return e.Cause }

// BuilderError is returned when the draft rejects an item or cannot be
// finalized.
type BuilderError struct {
	Code    string
	Item    string // empty for draft-wide failures
	Index   int
	Message string
	Cause   error
}

func (e *BuilderError) Error() string {
	msg := fmt.Sprintf("builder error [%s]", e.Code)
	if e.Item != "" {
		msg += ": " + position(e.Item, e.Index)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *BuilderError) Unwrap() error { return e.Cause }

// ProofGenerationError is returned when the prover fails. Index names the
// shielded output, or is -1 for parameter loading and the binding signature.
type ProofGenerationError struct {
	Code    string
	Index   int
	Message string
	Cause   error
}

func (e *ProofGenerationError) Error() string {
	msg := fmt.Sprintf("prover error [%s]", e.Code)
	if e.Index >= 0 {
		msg += fmt.Sprintf(": shielded output %d", e.Index)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ProofGenerationError) Unwrap() error { return e.Cause }

// SerializationError is returned when the final transaction cannot be
// encoded.
type SerializationError struct {
	Message string
	Cause   error
}

func (e *SerializationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("serialization error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("serialization error: %s", e.Message)
}

func (e *SerializationError) Unwrap() error { return e.Cause }
