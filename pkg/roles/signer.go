package roles

import (
	"github.com/suffix-labs/zcash-saplingtx/pkg/crypto"
	"github.com/suffix-labs/zcash-saplingtx/pkg/draft"
	"github.com/suffix-labs/zcash-saplingtx/pkg/tx"
)

// Signer adds signatures to transparent inputs.
//
// The Signer role:
//   - Computes the ZIP 243 signature hash for each transparent input
//   - Signs it with the input's private key
//   - Stores DER signature || sighash type and the compressed public key
//
// ZIP 243 commits to the Sapling output descriptions, so signing runs after
// the Prover.
type Signer struct {
	draft *draft.Draft
}

// NewSigner creates a new Signer.
func NewSigner(d *draft.Draft) *Signer {
	return &Signer{draft: d}
}

// SignAll signs every transparent input.
func (s *Signer) SignAll() error {
	if err := requireBalanced(s.draft); err != nil {
		return err
	}

	unsigned, err := buildTransaction(s.draft)
	if err != nil {
		return err
	}

	for i := range s.draft.Transparent.Inputs {
		if err := s.signInput(unsigned, i); err != nil {
			return err
		}
	}
	return nil
}

func (s *Signer) signInput(unsigned *tx.Transaction, i int) error {
	input := &s.draft.Transparent.Inputs[i]
	fail := func(msg string, cause error) error {
		return &draft.BuilderError{
			Code:    draft.ErrSigningFailed,
			Item:    draft.ItemTransparentInput,
			Index:   i,
			Message: msg,
			Cause:   cause,
		}
	}

	if input.Key == nil {
		return fail("private key already released", nil)
	}

	sighash, err := crypto.SignatureHash(unsigned, s.draft.Global.ConsensusBranchID, &crypto.SigningInput{
		Index:      i,
		ScriptCode: input.ScriptPubKey,
		Value:      input.Value,
	}, input.SighashType)
	if err != nil {
		return fail("failed to compute sighash", err)
	}

	der, err := input.Key.Sign(sighash)
	if err != nil {
		return fail("failed to sign", err)
	}

	// Transparent signatures are DER_signature || sighash_type.
	input.Signature = append(der, input.SighashType)
	pub := input.Key.PublicKey().SerializeCompressed()
	input.PubKey = &pub
	return nil
}

// Finish returns the signed draft.
func (s *Signer) Finish() *draft.Draft {
	return s.draft
}
