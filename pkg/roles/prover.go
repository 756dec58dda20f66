package roles

import (
	"github.com/suffix-labs/zcash-saplingtx/pkg/draft"
	"github.com/suffix-labs/zcash-saplingtx/pkg/prover"
)

// Prover proves every Sapling output of a balanced draft.
//
// Proving is delegated to a prover.Context; the same context later signs
// the value balance in the TxExtractor, so both roles must share it.
type Prover struct {
	draft *draft.Draft
	ctx   prover.Context
}

// NewProver creates a Prover role using ctx.
func NewProver(d *draft.Draft, ctx prover.Context) *Prover {
	return &Prover{draft: d, ctx: ctx}
}

// ProveOutputs fills in the output description of every Sapling output.
func (p *Prover) ProveOutputs() error {
	if err := requireBalanced(p.draft); err != nil {
		return err
	}
	if len(p.draft.Sapling.Outputs) > 0 && p.ctx == nil {
		return &draft.ProofGenerationError{
			Code:    draft.ErrParamsUnavailable,
			Index:   -1,
			Message: "no proving context",
		}
	}

	for i := range p.draft.Sapling.Outputs {
		out := &p.draft.Sapling.Outputs[i]
		desc, err := p.ctx.ProveOutput(prover.OutputRequest{
			OVK:   out.OVK,
			To:    out.Recipient,
			Value: out.Value,
			Memo:  (*prover.Memo)(out.Memo),
		})
		if err != nil {
			return &draft.ProofGenerationError{
				Code:    draft.ErrProofCreationFailed,
				Index:   i,
				Message: "output proof failed",
				Cause:   err,
			}
		}
		out.Description = &desc
	}
	return nil
}

// Finish returns the proved draft.
func (p *Prover) Finish() *draft.Draft {
	return p.draft
}
