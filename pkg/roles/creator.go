// Package roles implements the steps that turn caller inputs into a signed
// v4 transaction. Each role owns one responsibility and operates on a shared
// *draft.Draft:
//   - Creator: initializes an empty draft bound to a network and height
//   - Constructor: adds transparent inputs, transparent outputs and Sapling outputs
//   - IO Finalizer: checks value balance and fixes the fee
//   - Prover: proves and encrypts every Sapling output
//   - Signer: adds transparent ECDSA signatures over the ZIP 243 sighash
//   - Spend Finalizer: builds the transparent scriptSigs
//   - Transaction Extractor: adds the binding signature and serializes
//
// Roles run in that order. Any error leaves the draft unusable and the
// caller aborts it.
package roles

import (
	"fmt"

	"github.com/suffix-labs/zcash-saplingtx/pkg/draft"
	"github.com/suffix-labs/zcash-saplingtx/pkg/network"
	"github.com/suffix-labs/zcash-saplingtx/pkg/tx"
)

// Creator initializes an empty draft.
//
// The Creator fixes the transaction-wide fields every later role relies on:
// the v4 header, the consensus branch from the network profile, and the
// expiry height derived from the target height.
type Creator struct {
	profile      network.Profile
	targetHeight uint32
	lockTime     uint32
}

// NewCreator creates a Creator for a transaction mined at targetHeight on
// the given network.
func NewCreator(profile network.Profile, targetHeight uint32) *Creator {
	return &Creator{
		profile:      profile,
		targetHeight: targetHeight,
	}
}

// WithLockTime sets nLockTime. The default is 0.
func (c *Creator) WithLockTime(lockTime uint32) *Creator {
	c.lockTime = lockTime
	return c
}

// Create returns an empty draft. The expiry height is targetHeight +
// tx.DefaultExpiryDelta and must stay below tx.ExpiryHeightThreshold.
func (c *Creator) Create() (*draft.Draft, error) {
	expiry := c.targetHeight + tx.DefaultExpiryDelta
	if expiry < c.targetHeight || expiry >= tx.ExpiryHeightThreshold {
		return nil, &draft.BuilderError{
			Code:    draft.ErrExpiryOutOfRange,
			Index:   -1,
			Message: fmt.Sprintf("expiry height for target height %d is out of range", c.targetHeight),
		}
	}

	return draft.New(draft.Global{
		Profile:           c.profile,
		Header:            tx.V4Header,
		VersionGroupID:    tx.SaplingVersionGroupID,
		ConsensusBranchID: c.profile.ConsensusBranchID,
		TargetHeight:      c.targetHeight,
		ExpiryHeight:      expiry,
		LockTime:          c.lockTime,
	}), nil
}
