package roles

import (
	"fmt"

	"github.com/btcsuite/btcd/txscript"
	"github.com/suffix-labs/zcash-saplingtx/pkg/crypto"
	"github.com/suffix-labs/zcash-saplingtx/pkg/draft"
	"github.com/suffix-labs/zcash-saplingtx/pkg/tx"
	"github.com/suffix-labs/zcash-saplingtx/pkg/zip32"
)

// Constructor adds inputs and outputs to a draft.
//
// Inputs are accepted first, then outputs:
//   - AddTransparentInput while the draft is empty, then AcceptInputs
//   - AddTransparentOutput and AddSaplingOutput, then AcceptOutputs
//
// Items keep the order in which they were added.
type Constructor struct {
	draft     *draft.Draft
	outpoints map[tx.OutPoint]struct{}
}

// NewConstructor creates a new Constructor from a draft made by the Creator.
func NewConstructor(d *draft.Draft) *Constructor {
	outpoints := make(map[tx.OutPoint]struct{}, len(d.Transparent.Inputs))
	for _, in := range d.Transparent.Inputs {
		outpoints[in.PrevOut] = struct{}{}
	}
	return &Constructor{draft: d, outpoints: outpoints}
}

// AddTransparentInput adds a P2PKH coin to spend with key. The key is not
// checked against the script.
//
// The input is signed with SIGHASH_ALL and the default sequence.
func (c *Constructor) AddTransparentInput(
	key *crypto.PrivateKey,
	prevOut tx.OutPoint,
	value uint64,
	scriptPubKey []byte,
) error {
	if err := c.draft.Require(draft.StateEmpty); err != nil {
		return err
	}

	index := len(c.draft.Transparent.Inputs)
	fail := func(code, format string, args ...interface{}) error {
		return &draft.BuilderError{
			Code:    code,
			Item:    draft.ItemTransparentInput,
			Index:   index,
			Message: fmt.Sprintf(format, args...),
		}
	}

	if key == nil {
		return fail(draft.ErrInvalidInput, "missing private key")
	}
	if value > tx.MaxMoney {
		return fail(draft.ErrValueOutOfRange, "value %d exceeds maximum %d", value, tx.MaxMoney)
	}
	if _, dup := c.outpoints[prevOut]; dup {
		return fail(draft.ErrDuplicateOutpoint, "outpoint %s:%d already added", prevOut.Hash, prevOut.Index)
	}
	if class := txscript.GetScriptClass(scriptPubKey); class != txscript.PubKeyHashTy {
		return fail(draft.ErrUnsupportedScript, "locking script is %s, only pubkeyhash can be signed", class)
	}

	c.draft.Transparent.Inputs = append(c.draft.Transparent.Inputs, draft.TransparentInput{
		Key:          key,
		PrevOut:      prevOut,
		Value:        value,
		ScriptPubKey: scriptPubKey,
		Sequence:     tx.DefaultSequence,
		SighashType:  crypto.SighashAll,
	})
	c.outpoints[prevOut] = struct{}{}
	return nil
}

// AcceptInputs closes the input list.
func (c *Constructor) AcceptInputs() error {
	return c.draft.Advance(draft.StateInputsAccepted)
}

// AddTransparentOutput adds a transparent output paying value to
// scriptPubKey.
func (c *Constructor) AddTransparentOutput(scriptPubKey []byte, value uint64) error {
	if err := c.draft.Require(draft.StateInputsAccepted); err != nil {
		return err
	}

	index := len(c.draft.Transparent.Outputs)
	if value > tx.MaxMoney {
		return &draft.BuilderError{
			Code:    draft.ErrValueOutOfRange,
			Item:    draft.ItemTransparentRecipient,
			Index:   index,
			Message: fmt.Sprintf("value %d exceeds maximum %d", value, tx.MaxMoney),
		}
	}
	if len(scriptPubKey) == 0 {
		return &draft.BuilderError{
			Code:    draft.ErrInvalidInput,
			Item:    draft.ItemTransparentRecipient,
			Index:   index,
			Message: "empty locking script",
		}
	}

	c.draft.Transparent.Outputs = append(c.draft.Transparent.Outputs, draft.TransparentOutput{
		Value:        value,
		ScriptPubKey: scriptPubKey,
	})
	return nil
}

// AddSaplingOutput adds a shielded output to recipient. With a non-nil ovk
// the sender can later recover the note; the memo is left empty.
func (c *Constructor) AddSaplingOutput(
	ovk *zip32.OutgoingViewingKey,
	recipient zip32.PaymentAddress,
	value uint64,
) error {
	if err := c.draft.Require(draft.StateInputsAccepted); err != nil {
		return err
	}

	if value > tx.MaxMoney {
		return &draft.BuilderError{
			Code:    draft.ErrValueOutOfRange,
			Item:    draft.ItemShieldedRecipient,
			Index:   len(c.draft.Sapling.Outputs),
			Message: fmt.Sprintf("value %d exceeds maximum %d", value, tx.MaxMoney),
		}
	}

	c.draft.Sapling.Outputs = append(c.draft.Sapling.Outputs, draft.SaplingOutput{
		OVK:       ovk,
		Recipient: recipient,
		Value:     value,
	})
	return nil
}

// AcceptOutputs closes the output lists.
func (c *Constructor) AcceptOutputs() error {
	return c.draft.Advance(draft.StateOutputsAccepted)
}

// Finish returns the constructed draft.
func (c *Constructor) Finish() *draft.Draft {
	return c.draft
}
