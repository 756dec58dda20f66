package encoding

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"github.com/suffix-labs/zcash-saplingtx/pkg/zip32"
)

// EncodePaymentAddress encodes a Sapling payment address under hrp.
func EncodePaymentAddress(hrp string, a zip32.PaymentAddress) (string, error) {
	raw := a.Bytes()
	return encodeBech32(hrp, raw[:])
}

// DecodePaymentAddress decodes s, which must carry exactly hrp.
func DecodePaymentAddress(hrp, s string) (zip32.PaymentAddress, error) {
	raw, err := decodeBech32(KindPaymentAddress, hrp, s, zip32.PaymentAddressSize)
	if err != nil {
		return zip32.PaymentAddress{}, err
	}
	a, err := zip32.ParsePaymentAddress(raw)
	if err != nil {
		return zip32.PaymentAddress{}, &FormatError{Kind: KindPaymentAddress, Expected: hrp, Reason: "invalid payload", Cause: err}
	}
	return a, nil
}

// EncodeExtendedFullViewingKey encodes k under hrp.
func EncodeExtendedFullViewingKey(hrp string, k *zip32.ExtendedFullViewingKey) (string, error) {
	return encodeBech32(hrp, k.Bytes())
}

// DecodeExtendedFullViewingKey decodes s, which must carry exactly hrp.
func DecodeExtendedFullViewingKey(hrp, s string) (*zip32.ExtendedFullViewingKey, error) {
	raw, err := decodeBech32(KindFullViewingKey, hrp, s, zip32.ExtendedKeySize)
	if err != nil {
		return nil, err
	}
	k, err := zip32.ParseExtendedFullViewingKey(raw)
	if err != nil {
		return nil, &FormatError{Kind: KindFullViewingKey, Expected: hrp, Reason: "invalid payload", Cause: err}
	}
	return k, nil
}

// EncodeExtendedSpendingKey encodes k under hrp.
func EncodeExtendedSpendingKey(hrp string, k *zip32.ExtendedSpendingKey) (string, error) {
	return encodeBech32(hrp, k.Bytes())
}

// DecodeExtendedSpendingKey decodes s, which must carry exactly hrp.
func DecodeExtendedSpendingKey(hrp, s string) (*zip32.ExtendedSpendingKey, error) {
	raw, err := decodeBech32(KindSpendingKey, hrp, s, zip32.ExtendedKeySize)
	if err != nil {
		return nil, err
	}
	k, err := zip32.ParseExtendedSpendingKey(raw)
	if err != nil {
		return nil, &FormatError{Kind: KindSpendingKey, Expected: hrp, Reason: "invalid payload", Cause: err}
	}
	return k, nil
}

func encodeBech32(hrp string, payload []byte) (string, error) {
	data, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("converting to base32: %w", err)
	}
	s, err := bech32.Encode(hrp, data)
	if err != nil {
		return "", fmt.Errorf("bech32 encode: %w", err)
	}
	return s, nil
}

// decodeBech32 decodes without the BIP 173 90-character limit, since
// extended viewing and spending keys are longer than that.
func decodeBech32(kind, hrp, s string, size int) ([]byte, error) {
	gotHRP, data, err := bech32.DecodeNoLimit(s)
	if err != nil {
		return nil, &FormatError{Kind: kind, Expected: hrp, Reason: "bech32 decode failed", Cause: err}
	}
	if gotHRP != hrp {
		return nil, &FormatError{Kind: kind, Expected: hrp, Reason: fmt.Sprintf("unexpected prefix %q", gotHRP)}
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, &FormatError{Kind: kind, Expected: hrp, Reason: "invalid padding", Cause: err}
	}
	if len(raw) != size {
		return nil, &FormatError{Kind: kind, Expected: hrp, Reason: fmt.Sprintf("payload is %d bytes, want %d", len(raw), size)}
	}
	return raw, nil
}
