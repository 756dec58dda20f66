package zip32

import (
	"errors"
	"math/big"

	"github.com/dchest/blake2s"
	blake2b "github.com/minio/blake2b-simd"
)

// BLAKE2b personalizations.
const (
	masterKeyPersonalization      = "ZcashIP32Sapling"
	expandSeedPersonalization     = "Zcash_ExpandSeed"
	fvkFingerprintPersonalization = "ZcashSaplingFVFP"
)

// PRF^expand domain separators.
const (
	expandAsk      = 0x00
	expandNsk      = 0x01
	expandOvk      = 0x02
	expandDk       = 0x10
	expandChild    = 0x11
	expandChildAsk = 0x13
	expandChildNsk = 0x14
	expandChildOvk = 0x15
	expandChildDk  = 0x16
)

var (
	errInvalidScalar = errors.New("scalar is not canonical")
	errInvalidPoint  = errors.New("point is not a valid prime-order Jubjub point")
)

// prfExpand computes PRF^expand(key, t) = BLAKE2b-512("Zcash_ExpandSeed", key || t).
func prfExpand(key []byte, t ...[]byte) [64]byte {
	h, _ := blake2b.New(&blake2b.Config{Size: 64, Person: []byte(expandSeedPersonalization)})
	h.Write(key)
	for _, part := range t {
		h.Write(part)
	}
	var out [64]byte
	copy(out[:], h.Sum(nil))
	return out
}

// OutgoingViewingKey lets the sender of a Sapling output recover it.
type OutgoingViewingKey [32]byte

// ExpandedSpendingKey is (ask, nsk, ovk).
type ExpandedSpendingKey struct {
	Ask *big.Int
	Nsk *big.Int
	Ovk OutgoingViewingKey
}

func expandedFromSpendingKey(sk []byte) ExpandedSpendingKey {
	ask := prfExpand(sk, []byte{expandAsk})
	nsk := prfExpand(sk, []byte{expandNsk})
	ovk := prfExpand(sk, []byte{expandOvk})

	e := ExpandedSpendingKey{
		Ask: toScalar(ask[:]),
		Nsk: toScalar(nsk[:]),
	}
	copy(e.Ovk[:], ovk[:32])
	return e
}

// Bytes returns ask || nsk || ovk (96 bytes).
func (e *ExpandedSpendingKey) Bytes() []byte {
	ask := bigToLE32(e.Ask)
	nsk := bigToLE32(e.Nsk)
	out := make([]byte, 0, 96)
	out = append(out, ask[:]...)
	out = append(out, nsk[:]...)
	return append(out, e.Ovk[:]...)
}

func parseExpandedSpendingKey(b []byte) (ExpandedSpendingKey, error) {
	ask, ok := scalarFromRepr(b[0:32])
	if !ok {
		return ExpandedSpendingKey{}, errInvalidScalar
	}
	nsk, ok := scalarFromRepr(b[32:64])
	if !ok {
		return ExpandedSpendingKey{}, errInvalidScalar
	}
	e := ExpandedSpendingKey{Ask: ask, Nsk: nsk}
	copy(e.Ovk[:], b[64:96])
	return e, nil
}

// FullViewingKey returns (ak, nk, ovk) for the expanded key.
func (e *ExpandedSpendingKey) FullViewingKey() FullViewingKey {
	return FullViewingKey{
		Ak:  scalarMult(&spendingKeyGenerator, e.Ask),
		Nk:  scalarMult(&proofGenerationKeyGenerator, e.Nsk),
		Ovk: e.Ovk,
	}
}

// FullViewingKey is (ak, nk, ovk).
type FullViewingKey struct {
	Ak  Point
	Nk  Point
	Ovk OutgoingViewingKey
}

// Bytes returns repr(ak) || repr(nk) || ovk (96 bytes).
func (f *FullViewingKey) Bytes() []byte {
	ak := encodePoint(&f.Ak)
	nk := encodePoint(&f.Nk)
	out := make([]byte, 0, 96)
	out = append(out, ak[:]...)
	out = append(out, nk[:]...)
	return append(out, f.Ovk[:]...)
}

func parseFullViewingKey(b []byte) (FullViewingKey, error) {
	var akRepr, nkRepr [32]byte
	copy(akRepr[:], b[0:32])
	copy(nkRepr[:], b[32:64])

	ak, ok := decodeSubgroupPoint(akRepr)
	if !ok || isIdentity(&ak) {
		return FullViewingKey{}, errInvalidPoint
	}
	nk, ok := decodeSubgroupPoint(nkRepr)
	if !ok {
		return FullViewingKey{}, errInvalidPoint
	}
	f := FullViewingKey{Ak: ak, Nk: nk}
	copy(f.Ovk[:], b[64:96])
	return f, nil
}

// IncomingViewingKey computes ivk = CRH^ivk(ak, nk), truncated to 251 bits.
func (f *FullViewingKey) IncomingViewingKey() *big.Int {
	ak := encodePoint(&f.Ak)
	nk := encodePoint(&f.Nk)

	h, _ := blake2s.New(&blake2s.Config{Size: 32, Person: []byte(incomingViewingKeyPersonalization)})
	h.Write(ak[:])
	h.Write(nk[:])

	digest := h.Sum(nil)
	digest[31] &= 0x07
	return leToBig(digest)
}

// Fingerprint is BLAKE2b-256("ZcashSaplingFVFP", ak || nk || ovk).
func (f *FullViewingKey) Fingerprint() [32]byte {
	h, _ := blake2b.New(&blake2b.Config{Size: 32, Person: []byte(fvkFingerprintPersonalization)})
	h.Write(f.Bytes())
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Tag is the first four bytes of the fingerprint.
func (f *FullViewingKey) Tag() [4]byte {
	fp := f.Fingerprint()
	var tag [4]byte
	copy(tag[:], fp[:4])
	return tag
}

func (f *FullViewingKey) equal(o *FullViewingKey) bool {
	return pointsEqual(&f.Ak, &o.Ak) && pointsEqual(&f.Nk, &o.Nk) && f.Ovk == o.Ovk
}
