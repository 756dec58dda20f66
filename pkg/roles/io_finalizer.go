package roles

import (
	"fmt"

	"github.com/suffix-labs/zcash-saplingtx/pkg/draft"
	"github.com/suffix-labs/zcash-saplingtx/pkg/tx"
)

// IoFinalizer balances a draft whose inputs and outputs are all accepted.
//
// Fees are not estimated: whatever the inputs carry beyond the outputs is
// the fee, and it must not be negative. With no shielded spends the Sapling
// value balance is the negated sum of the shielded outputs.
type IoFinalizer struct {
	draft *draft.Draft
}

// NewIoFinalizer creates a new IO Finalizer.
func NewIoFinalizer(d *draft.Draft) *IoFinalizer {
	return &IoFinalizer{draft: d}
}

// Finalize checks totals against tx.MaxMoney, checks that the inputs cover
// the outputs, and sets the value balance and fee.
func (f *IoFinalizer) Finalize() error {
	d := f.draft
	if err := d.Require(draft.StateOutputsAccepted); err != nil {
		return err
	}
	if d.Fee != nil {
		return &draft.BuilderError{Code: draft.ErrInvalidState, Index: -1, Message: "draft already balanced"}
	}

	in, err := boundedTotal("transparent inputs", d.TotalIn)
	if err != nil {
		return err
	}
	tOut, err := boundedTotal("transparent outputs", d.TotalTransparentOut)
	if err != nil {
		return err
	}
	sOut, err := boundedTotal("shielded outputs", d.TotalShieldedOut)
	if err != nil {
		return err
	}
	out := tOut + sOut
	if out > tx.MaxMoney {
		return &draft.BuilderError{
			Code:    draft.ErrValueOutOfRange,
			Index:   -1,
			Message: fmt.Sprintf("total output value %d exceeds maximum %d", out, tx.MaxMoney),
		}
	}

	if in < out {
		return &draft.BuilderError{
			Code:    draft.ErrInsufficientFunds,
			Index:   -1,
			Message: fmt.Sprintf("inputs total %d, outputs total %d", in, out),
		}
	}

	fee := in - out
	d.Sapling.ValueBalance = -int64(sOut)
	d.Fee = &fee
	return nil
}

// Fee returns the implicit fee after Finalize.
func (f *IoFinalizer) Fee() uint64 {
	if f.draft.Fee == nil {
		return 0
	}
	return *f.draft.Fee
}

// Finish returns the balanced draft.
func (f *IoFinalizer) Finish() *draft.Draft {
	return f.draft
}

func boundedTotal(what string, total func() (uint64, bool)) (uint64, error) {
	sum, ok := total()
	if !ok || sum > tx.MaxMoney {
		return 0, &draft.BuilderError{
			Code:    draft.ErrValueOutOfRange,
			Index:   -1,
			Message: fmt.Sprintf("sum of %s exceeds maximum %d", what, tx.MaxMoney),
		}
	}
	return sum, nil
}

// requireBalanced is shared by the roles that run after the IO Finalizer.
func requireBalanced(d *draft.Draft) error {
	if err := d.Require(draft.StateOutputsAccepted); err != nil {
		return err
	}
	if d.Fee == nil {
		return &draft.BuilderError{Code: draft.ErrInvalidState, Index: -1, Message: "draft is not balanced"}
	}
	return nil
}
