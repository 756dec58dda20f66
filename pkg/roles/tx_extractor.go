package roles

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/suffix-labs/zcash-saplingtx/pkg/crypto"
	"github.com/suffix-labs/zcash-saplingtx/pkg/draft"
	"github.com/suffix-labs/zcash-saplingtx/pkg/prover"
	"github.com/suffix-labs/zcash-saplingtx/pkg/tx"
)

// Extracted is the result of a successful extraction.
type Extracted struct {
	Transaction *tx.Transaction
	Raw         []byte
	TxID        chainhash.Hash
}

// TxExtractor produces the final transaction from a finalized draft.
//
// The Transaction Extractor role:
//   - Verifies every input has a scriptSig and every output a description
//   - Creates the Sapling binding signature over the shielded sighash
//   - Serializes the transaction in v4 format and computes its id
//   - Moves the draft to Finalized
type TxExtractor struct {
	draft *draft.Draft
	ctx   prover.Context
}

// NewTxExtractor creates a new Transaction Extractor. ctx may be nil when
// the draft has no Sapling outputs.
func NewTxExtractor(d *draft.Draft, ctx prover.Context) *TxExtractor {
	return &TxExtractor{draft: d, ctx: ctx}
}

// Extract returns the serialized transaction.
func (e *TxExtractor) Extract() (*Extracted, error) {
	d := e.draft
	if err := requireBalanced(d); err != nil {
		return nil, err
	}
	for i, input := range d.Transparent.Inputs {
		if input.ScriptSig == nil {
			return nil, &draft.BuilderError{
				Code:    draft.ErrInvalidState,
				Item:    draft.ItemTransparentInput,
				Index:   i,
				Message: "missing scriptSig (not finalized)",
			}
		}
	}

	t, err := buildTransaction(d)
	if err != nil {
		return nil, err
	}

	if t.HasSaplingBundle() {
		if err := e.createBindingSignature(t); err != nil {
			return nil, err
		}
	}

	raw, err := t.Bytes()
	if err != nil {
		return nil, &draft.SerializationError{Message: "failed to serialize transaction", Cause: err}
	}

	if err := d.Advance(draft.StateFinalized); err != nil {
		return nil, err
	}

	return &Extracted{
		Transaction: t,
		Raw:         raw,
		TxID:        tx.TxID(raw),
	}, nil
}

// createBindingSignature signs the shielded sighash with the binding key
// accumulated by the proving context.
func (e *TxExtractor) createBindingSignature(t *tx.Transaction) error {
	if e.ctx == nil {
		return &draft.ProofGenerationError{
			Code:    draft.ErrParamsUnavailable,
			Index:   -1,
			Message: "no proving context for binding signature",
		}
	}

	sighash, err := crypto.ShieldedSignatureHash(t, e.draft.Global.ConsensusBranchID)
	if err != nil {
		return &draft.SerializationError{Message: "failed to compute shielded sighash", Cause: err}
	}

	sig, err := e.ctx.BindingSig(t.ValueBalance, sighash)
	if err != nil {
		return &draft.ProofGenerationError{
			Code:    draft.ErrProofCreationFailed,
			Index:   -1,
			Message: "binding signature failed",
			Cause:   err,
		}
	}

	t.BindingSig = sig
	e.draft.Sapling.BindingSig = &sig
	return nil
}

// buildTransaction maps the draft onto the wire transaction. Every Sapling
// output must already be proved.
func buildTransaction(d *draft.Draft) (*tx.Transaction, error) {
	t := &tx.Transaction{
		Header:         d.Global.Header,
		VersionGroupID: d.Global.VersionGroupID,
		LockTime:       d.Global.LockTime,
		ExpiryHeight:   d.Global.ExpiryHeight,
		ValueBalance:   d.Sapling.ValueBalance,
	}

	for _, in := range d.Transparent.Inputs {
		t.Inputs = append(t.Inputs, tx.TxIn{
			PrevOut:   in.PrevOut,
			ScriptSig: in.ScriptSig,
			Sequence:  in.Sequence,
		})
	}
	for _, out := range d.Transparent.Outputs {
		t.Outputs = append(t.Outputs, tx.TxOut{
			Value:        out.Value,
			ScriptPubKey: out.ScriptPubKey,
		})
	}
	for i, out := range d.Sapling.Outputs {
		if out.Description == nil {
			return nil, &draft.BuilderError{
				Code:    draft.ErrInvalidState,
				Item:    draft.ItemShieldedRecipient,
				Index:   i,
				Message: fmt.Sprintf("output %d has not been proved", i),
			}
		}
		t.ShieldedOutputs = append(t.ShieldedOutputs, *out.Description)
	}
	if d.Sapling.BindingSig != nil {
		t.BindingSig = *d.Sapling.BindingSig
	}
	return t, nil
}
