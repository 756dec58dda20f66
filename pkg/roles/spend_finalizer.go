package roles

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/suffix-labs/zcash-saplingtx/pkg/draft"
)

// SpendFinalizer finalizes transparent inputs by constructing scriptSigs.
//
// For P2PKH the scriptSig is <signature> <pubkey>. Once built, the private
// key and the loose signature are dropped from the draft.
type SpendFinalizer struct {
	draft *draft.Draft
}

// NewSpendFinalizer creates a new Spend Finalizer.
func NewSpendFinalizer(d *draft.Draft) *SpendFinalizer {
	return &SpendFinalizer{draft: d}
}

// Finalize builds the scriptSig of every input.
func (f *SpendFinalizer) Finalize() error {
	if err := requireBalanced(f.draft); err != nil {
		return err
	}

	for i := range f.draft.Transparent.Inputs {
		input := &f.draft.Transparent.Inputs[i]
		if err := finalizeP2PKH(input); err != nil {
			return &draft.BuilderError{
				Code:    draft.ErrSigningFailed,
				Item:    draft.ItemTransparentInput,
				Index:   i,
				Message: "failed to finalize P2PKH input",
				Cause:   err,
			}
		}
		clearInputMetadata(input)
	}
	return nil
}

func finalizeP2PKH(input *draft.TransparentInput) error {
	if len(input.Signature) == 0 || input.PubKey == nil {
		return fmt.Errorf("input is not signed")
	}

	scriptSig, err := txscript.NewScriptBuilder().
		AddData(input.Signature).
		AddData(input.PubKey[:]).
		Script()
	if err != nil {
		return err
	}
	input.ScriptSig = scriptSig
	return nil
}

// clearInputMetadata drops material that is no longer needed once the
// scriptSig exists.
func clearInputMetadata(input *draft.TransparentInput) {
	input.Key = nil
	input.Signature = nil
}

// Finish returns the finalized draft.
func (f *SpendFinalizer) Finish() *draft.Draft {
	return f.draft
}
