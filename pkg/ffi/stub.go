//go:build !cgo || !saplingffi

package ffi

import (
	"github.com/suffix-labs/zcash-saplingtx/pkg/prover"
)

// LoadSaplingProver validates the parameter blobs and reports that no native
// prover is linked into this build.
func LoadSaplingProver(spend, output []byte) (prover.Prover, error) {
	if err := (prover.Params{Spend: spend, Output: output}).Validate(); err != nil {
		return nil, err
	}
	return nil, ErrUnavailable
}
