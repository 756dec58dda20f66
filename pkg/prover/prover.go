// Package prover defines the capability the assembler needs from a Sapling
// prover: proving and encrypting outputs, and signing the value balance.
//
// Implementations live in pkg/ffi (native, behind a build tag) and
// internal/provertest (deterministic, for tests).
package prover

import (
	"errors"

	"github.com/suffix-labs/zcash-saplingtx/pkg/tx"
	"github.com/suffix-labs/zcash-saplingtx/pkg/zip32"
)

// MemoSize is the size of a Sapling memo field.
const MemoSize = 512

// Memo is a raw memo field.
type Memo [MemoSize]byte

var (
	ErrEmptySpendParams  = errors.New("spend parameters are empty")
	ErrEmptyOutputParams = errors.New("output parameters are empty")
)

// Prover holds loaded proving parameters. A Prover may be cached and shared
// across assemblies; each assembly opens its own Context.
type Prover interface {
	NewContext() (Context, error)
	Close() error
}

// Context accumulates the value commitment randomness of one transaction so
// that the binding signature can be produced after every output is proved.
// A Context is not safe for concurrent use.
type Context interface {
	ProveOutput(req OutputRequest) (tx.OutputDescription, error)
	BindingSig(valueBalance int64, sighash [32]byte) ([tx.BindingSigSize]byte, error)
	Close() error
}

// OutputRequest describes one shielded output. A nil OVK makes the output
// unrecoverable by the sender; a nil Memo encrypts the empty memo.
type OutputRequest struct {
	OVK   *zip32.OutgoingViewingKey
	To    zip32.PaymentAddress
	Value uint64
	Memo  *Memo
}

// Params holds the raw Groth16 parameter blobs.
type Params struct {
	Spend  []byte
	Output []byte
}

// Validate rejects missing parameter blobs.
func (p Params) Validate() error {
	if len(p.Spend) == 0 {
		return ErrEmptySpendParams
	}
	if len(p.Output) == 0 {
		return ErrEmptyOutputParams
	}
	return nil
}
