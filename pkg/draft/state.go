package draft

import "fmt"

// State is a draft's position in its lifecycle:
//
//	Empty -> InputsAccepted -> OutputsAccepted -> Finalized
//
// Any non-terminal state may move to Aborted. Finalized and Aborted are
// terminal.
type State int

const (
	StateEmpty State = iota
	StateInputsAccepted
	StateOutputsAccepted
	StateFinalized
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateInputsAccepted:
		return "inputs-accepted"
	case StateOutputsAccepted:
		return "outputs-accepted"
	case StateFinalized:
		return "finalized"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateFinalized || s == StateAborted
}

// State returns the draft's current state.
func (d *Draft) State() State {
	return d.state
}

// Advance moves the draft to the next state. Only single forward steps and
// aborts from a non-terminal state are allowed.
func (d *Draft) Advance(to State) error {
	if d.state.Terminal() {
		return &BuilderError{
			Code:    ErrInvalidState,
			Index:   -1,
			Message: fmt.Sprintf("draft is %s", d.state),
		}
	}
	if to != StateAborted && to != d.state+1 {
		return &BuilderError{
			Code:    ErrInvalidState,
			Index:   -1,
			Message: fmt.Sprintf("cannot move from %s to %s", d.state, to),
		}
	}
	d.state = to
	return nil
}

// Require returns an error unless the draft is in state s.
func (d *Draft) Require(s State) error {
	if d.state != s {
		return &BuilderError{
			Code:    ErrInvalidState,
			Index:   -1,
			Message: fmt.Sprintf("draft is %s, want %s", d.state, s),
		}
	}
	return nil
}

// Abort moves a non-terminal draft to Aborted and drops key material. It is
// a no-op on terminal drafts.
func (d *Draft) Abort() {
	if d.state.Terminal() {
		return
	}
	d.state = StateAborted
	d.clearKeys()
}

func (d *Draft) clearKeys() {
	for i := range d.Transparent.Inputs {
		d.Transparent.Inputs[i].Key = nil
	}
}
