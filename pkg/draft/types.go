// Package draft holds the in-progress transaction assembled from caller
// supplied inputs and recipients.
//
// A Draft is populated by the roles in pkg/roles, one item at a time, and is
// consumed exactly once when the final transaction is extracted. It is never
// persisted or shared between assembly calls.
package draft

import (
	"github.com/suffix-labs/zcash-saplingtx/pkg/crypto"
	"github.com/suffix-labs/zcash-saplingtx/pkg/network"
	"github.com/suffix-labs/zcash-saplingtx/pkg/tx"
	"github.com/suffix-labs/zcash-saplingtx/pkg/zip32"
)

// Draft is a transaction under construction.
type Draft struct {
	Global      Global
	Transparent TransparentBundle
	Sapling     SaplingBundle

	// Fee is set once the IoFinalizer has balanced the draft.
	Fee *uint64

	state State
}

// Global contains transaction-wide fields fixed by the Creator.
type Global struct {
	Profile           network.Profile
	Header            uint32 // v4 with the overwintered bit set
	VersionGroupID    uint32
	ConsensusBranchID uint32
	TargetHeight      uint32
	ExpiryHeight      uint32 // TargetHeight + tx.DefaultExpiryDelta
	LockTime          uint32
}

// TransparentBundle contains transparent inputs and outputs in caller order.
type TransparentBundle struct {
	Inputs  []TransparentInput
	Outputs []TransparentOutput
}

// TransparentInput is a coin being spent. The Constructor fills the outpoint,
// value and script; the Signer adds Signature and PubKey; the SpendFinalizer
// builds ScriptSig.
type TransparentInput struct {
	Key          *crypto.PrivateKey
	PrevOut      tx.OutPoint
	Value        uint64
	ScriptPubKey []byte
	Sequence     uint32
	SighashType  uint8

	Signature []byte // DER signature followed by the sighash type byte
	PubKey    *[33]byte
	ScriptSig []byte
}

// TransparentOutput is a coin being created.
type TransparentOutput struct {
	Value        uint64
	ScriptPubKey []byte
}

// SaplingBundle contains the shielded outputs and, once finalized, the value
// balance and binding signature.
type SaplingBundle struct {
	Outputs      []SaplingOutput
	ValueBalance int64 // always -sum(Outputs.Value); there are no shielded spends
	BindingSig   *[tx.BindingSigSize]byte
}

// SaplingOutput is a note to be created for Recipient.
type SaplingOutput struct {
	OVK       *zip32.OutgoingViewingKey
	Recipient zip32.PaymentAddress
	Value     uint64

	// Memo is never populated; encrypting without one yields the empty memo.
	Memo *[512]byte

	// Description is set by the Prover role.
	Description *tx.OutputDescription
}

// New returns an empty draft.
func New(g Global) *Draft {
	return &Draft{Global: g, state: StateEmpty}
}

// TotalIn sums the transparent input values. ok is false on uint64 overflow.
func (d *Draft) TotalIn() (total uint64, ok bool) {
	for _, in := range d.Transparent.Inputs {
		if total+in.Value < total {
			return 0, false
		}
		total += in.Value
	}
	return total, true
}

// TotalTransparentOut sums the transparent output values.
func (d *Draft) TotalTransparentOut() (total uint64, ok bool) {
	for _, out := range d.Transparent.Outputs {
		if total+out.Value < total {
			return 0, false
		}
		total += out.Value
	}
	return total, true
}

// TotalShieldedOut sums the Sapling output values.
func (d *Draft) TotalShieldedOut() (total uint64, ok bool) {
	for _, out := range d.Sapling.Outputs {
		if total+out.Value < total {
			return 0, false
		}
		total += out.Value
	}
	return total, true
}
