// Package tx defines the Zcash v4 (Overwinter/Sapling) transaction format
// used by Sapling and Canopy consensus branches: its types, its canonical
// serialization, a parser, and the transaction id.
//
// Reference: Zcash protocol specification §7.1 (Transaction Encoding and Consensus)
package tx

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Transaction format constants.
const (
	// V4Header is fOverwintered | nVersion=4.
	V4Header uint32 = 0x80000004

	// SaplingVersionGroupID is nVersionGroupId for v4 transactions.
	SaplingVersionGroupID uint32 = 0x892F2085

	// DefaultExpiryDelta matches the reference wallet builder.
	DefaultExpiryDelta uint32 = 20

	// ExpiryHeightThreshold is the first expiry height consensus rejects.
	ExpiryHeightThreshold uint32 = 500_000_000

	// MaxMoney is the supply-bounded maximum for any amount, in zatoshis.
	MaxMoney uint64 = 21_000_000 * 100_000_000

	// DefaultSequence is nSequence for every input this module produces.
	DefaultSequence uint32 = 0xFFFFFFFF
)

// Sapling output description field sizes.
const (
	EncCiphertextSize = 580
	OutCiphertextSize = 80
	GrothProofSize    = 192
	BindingSigSize    = 64

	OutputDescriptionSize = 32 + 32 + 32 + EncCiphertextSize + OutCiphertextSize + GrothProofSize
)

// OutPoint references output Index of the transaction with id Hash. Hash is
// kept in internal (wire) byte order; Hash.String() gives the display form.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// TxIn is a transparent input.
type TxIn struct {
	PrevOut   OutPoint
	ScriptSig []byte
	Sequence  uint32
}

// TxOut is a transparent output.
type TxOut struct {
	Value        uint64
	ScriptPubKey []byte
}

// OutputDescription is a proved Sapling output.
type OutputDescription struct {
	CV            [32]byte                // value commitment
	Cmu           [32]byte                // note commitment u-coordinate
	EphemeralKey  [32]byte                // epk
	EncCiphertext [EncCiphertextSize]byte // note plaintext encrypted to the recipient
	OutCiphertext [OutCiphertextSize]byte // recovery data encrypted under ovk
	Proof         [GrothProofSize]byte    // Groth16 proof
}

// Transaction is a v4 transaction. Shielded spends and JoinSplits are
// always empty in transactions built here, but the parser tolerates neither.
type Transaction struct {
	Header         uint32
	VersionGroupID uint32

	Inputs  []TxIn
	Outputs []TxOut

	LockTime     uint32
	ExpiryHeight uint32

	ValueBalance    int64
	ShieldedOutputs []OutputDescription
	BindingSig      [BindingSigSize]byte
}

// HasSaplingBundle reports whether the transaction has shielded outputs and
// therefore a binding signature.
func (t *Transaction) HasSaplingBundle() bool {
	return len(t.ShieldedOutputs) > 0
}
