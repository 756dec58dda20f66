package zip32

import (
	"errors"
	"math/big"
)

// PaymentAddressSize is d (11) || repr(pk_d) (32).
const PaymentAddressSize = 43

// PaymentAddress is a Sapling shielded payment address.
type PaymentAddress struct {
	Diversifier Diversifier
	PkD         Point
}

// Bytes returns the 43-byte raw address.
func (a *PaymentAddress) Bytes() [PaymentAddressSize]byte {
	var out [PaymentAddressSize]byte
	copy(out[:DiversifierSize], a.Diversifier[:])
	pkd := encodePoint(&a.PkD)
	copy(out[DiversifierSize:], pkd[:])
	return out
}

// Equal reports whether two addresses have identical encodings.
func (a *PaymentAddress) Equal(o *PaymentAddress) bool {
	return a.Diversifier == o.Diversifier && pointsEqual(&a.PkD, &o.PkD)
}

// ParsePaymentAddress validates a raw address: the diversifier must have a
// valid g_d and pk_d must be a non-identity prime-order point.
func ParsePaymentAddress(b []byte) (PaymentAddress, error) {
	if len(b) != PaymentAddressSize {
		return PaymentAddress{}, errors.New("payment address must be 43 bytes")
	}
	var a PaymentAddress
	copy(a.Diversifier[:], b[:DiversifierSize])
	if _, ok := a.Diversifier.G(); !ok {
		return PaymentAddress{}, errors.New("diversifier has no valid base point")
	}

	var repr [32]byte
	copy(repr[:], b[DiversifierSize:])
	pkd, ok := decodeSubgroupPoint(repr)
	if !ok || isIdentity(&pkd) {
		return PaymentAddress{}, errors.New("pk_d is not a valid transmission key")
	}
	a.PkD = pkd
	return a, nil
}

func paymentAddressFor(d Diversifier, ivk *big.Int) (PaymentAddress, bool) {
	gd, ok := d.G()
	if !ok {
		return PaymentAddress{}, false
	}
	return PaymentAddress{Diversifier: d, PkD: scalarMult(&gd, ivk)}, true
}
