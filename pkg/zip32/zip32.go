// Package zip32 implements Sapling hierarchical deterministic key derivation
// (ZIP 32) over the Jubjub curve, together with diversified payment address
// generation.
//
// Only hardened derivation is exposed for spending keys. Every operation is a
// pure function of its inputs.
//
// References:
//   - ZIP 32: https://zips.z.cash/zip-0032
//   - Zcash protocol specification §4.2.2, §5.4.1.7 (GroupHash^J), §5.4.1.6 (DiversifyHash)
package zip32

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	blake2b "github.com/minio/blake2b-simd"
)

// HardenedKeyStart is the first hardened child index.
const HardenedKeyStart uint32 = 1 << 31

// ExtendedKeySize is the serialized size of both extended key kinds.
const ExtendedKeySize = 1 + 4 + 4 + 32 + 96 + 32

// ErrNonHardened is returned when a spending key derivation is asked for a
// non-hardened child.
var ErrNonHardened = errors.New("sapling spending keys support hardened derivation only")

// Path is the three-level hardened path purpose'/coin_type'/account'.
type Path struct {
	Purpose  uint32
	CoinType uint32
	Account  uint32
}

// Indices returns the hardened child indices of the path.
func (p Path) Indices() ([]uint32, error) {
	raw := []uint32{p.Purpose, p.CoinType, p.Account}
	out := make([]uint32, len(raw))
	for i, v := range raw {
		if v >= HardenedKeyStart {
			return nil, fmt.Errorf("path index %d (%d) must be below 2^31", i, v)
		}
		out[i] = v | HardenedKeyStart
	}
	return out, nil
}

// ChainCode is the 32-byte chain code carried by extended keys.
type ChainCode [32]byte

// ExtendedSpendingKey is a Sapling extended spending key.
type ExtendedSpendingKey struct {
	Depth        uint8
	ParentFVKTag [4]byte
	ChildIndex   uint32
	ChainCode    ChainCode
	Expsk        ExpandedSpendingKey
	Dk           DiversifierKey
}

// NewMaster derives the master extended spending key from a seed.
func NewMaster(seed []byte) *ExtendedSpendingKey {
	h, _ := blake2b.New(&blake2b.Config{Size: 64, Person: []byte(masterKeyPersonalization)})
	h.Write(seed)
	i := h.Sum(nil)

	sk, c := i[:32], i[32:]
	dk := prfExpand(sk, []byte{expandDk})

	k := &ExtendedSpendingKey{
		Expsk: expandedFromSpendingKey(sk),
	}
	copy(k.ChainCode[:], c)
	copy(k.Dk[:], dk[:32])
	return k
}

// DeriveChild returns the hardened child at index i (which must include the
// hardened bit).
func (k *ExtendedSpendingKey) DeriveChild(i uint32) (*ExtendedSpendingKey, error) {
	if i < HardenedKeyStart {
		return nil, ErrNonHardened
	}
	if k.Depth == 0xff {
		return nil, errors.New("maximum derivation depth reached")
	}

	fvk := k.Expsk.FullViewingKey()

	var le [4]byte
	binary.LittleEndian.PutUint32(le[:], i)
	tmp := prfExpand(k.ChainCode[:], []byte{expandChild}, k.Expsk.Bytes(), k.Dk[:], le[:])
	il, ir := tmp[:32], tmp[32:]

	askTweak := prfExpand(il, []byte{expandChildAsk})
	nskTweak := prfExpand(il, []byte{expandChildNsk})

	ask := new(big.Int).Add(k.Expsk.Ask, toScalar(askTweak[:]))
	ask.Mod(ask, jubjubOrder)
	nsk := new(big.Int).Add(k.Expsk.Nsk, toScalar(nskTweak[:]))
	nsk.Mod(nsk, jubjubOrder)

	ovk := prfExpand(il, []byte{expandChildOvk}, k.Expsk.Ovk[:])

	child := &ExtendedSpendingKey{
		Depth:        k.Depth + 1,
		ParentFVKTag: fvk.Tag(),
		ChildIndex:   i,
		Expsk:        ExpandedSpendingKey{Ask: ask, Nsk: nsk},
		Dk:           k.Dk.deriveChild(il),
	}
	copy(child.Expsk.Ovk[:], ovk[:32])
	copy(child.ChainCode[:], ir)
	return child, nil
}

// DerivePath applies DeriveChild for each index in turn.
func (k *ExtendedSpendingKey) DerivePath(indices ...uint32) (*ExtendedSpendingKey, error) {
	cur := k
	for n, i := range indices {
		next, err := cur.DeriveChild(i)
		if err != nil {
			return nil, fmt.Errorf("deriving level %d: %w", n, err)
		}
		cur = next
	}
	return cur, nil
}

// FromPath derives the key at m/purpose'/coin_type'/account' from seed.
func FromPath(seed []byte, path Path) (*ExtendedSpendingKey, error) {
	indices, err := path.Indices()
	if err != nil {
		return nil, err
	}
	return NewMaster(seed).DerivePath(indices...)
}

// ExtendedFullViewingKey returns the viewing key counterpart.
func (k *ExtendedSpendingKey) ExtendedFullViewingKey() *ExtendedFullViewingKey {
	return &ExtendedFullViewingKey{
		Depth:        k.Depth,
		ParentFVKTag: k.ParentFVKTag,
		ChildIndex:   k.ChildIndex,
		ChainCode:    k.ChainCode,
		FVK:          k.Expsk.FullViewingKey(),
		Dk:           k.Dk,
	}
}

// DefaultAddress is the default address of the key's viewing key.
func (k *ExtendedSpendingKey) DefaultAddress() (DiversifierIndex, PaymentAddress, error) {
	return k.ExtendedFullViewingKey().DefaultAddress()
}

// Bytes serializes the key to its 169-byte form.
func (k *ExtendedSpendingKey) Bytes() []byte {
	out := make([]byte, 0, ExtendedKeySize)
	out = appendExtendedHeader(out, k.Depth, k.ParentFVKTag, k.ChildIndex, k.ChainCode)
	out = append(out, k.Expsk.Bytes()...)
	return append(out, k.Dk[:]...)
}

// ParseExtendedSpendingKey is the inverse of Bytes.
func ParseExtendedSpendingKey(b []byte) (*ExtendedSpendingKey, error) {
	if len(b) != ExtendedKeySize {
		return nil, fmt.Errorf("extended spending key must be %d bytes, got %d", ExtendedKeySize, len(b))
	}
	k := &ExtendedSpendingKey{}
	rest := parseExtendedHeader(b, &k.Depth, &k.ParentFVKTag, &k.ChildIndex, &k.ChainCode)

	expsk, err := parseExpandedSpendingKey(rest[:96])
	if err != nil {
		return nil, fmt.Errorf("expanded spending key: %w", err)
	}
	k.Expsk = expsk
	copy(k.Dk[:], rest[96:128])
	return k, nil
}

// ExtendedFullViewingKey is a Sapling extended full viewing key.
type ExtendedFullViewingKey struct {
	Depth        uint8
	ParentFVKTag [4]byte
	ChildIndex   uint32
	ChainCode    ChainCode
	FVK          FullViewingKey
	Dk           DiversifierKey
}

// OutgoingViewingKey returns ovk.
func (k *ExtendedFullViewingKey) OutgoingViewingKey() OutgoingViewingKey {
	return k.FVK.Ovk
}

// Address returns the payment address for diversifier index j, or false if
// d_j has no valid base point.
func (k *ExtendedFullViewingKey) Address(j DiversifierIndex) (PaymentAddress, bool, error) {
	d, err := k.Dk.Diversifier(j)
	if err != nil {
		return PaymentAddress{}, false, err
	}
	addr, ok := paymentAddressFor(d, k.FVK.IncomingViewingKey())
	return addr, ok, nil
}

// DefaultAddress returns the address at the first valid diversifier index,
// scanning upward from zero.
func (k *ExtendedFullViewingKey) DefaultAddress() (DiversifierIndex, PaymentAddress, error) {
	j, d, err := k.Dk.FindDiversifier(DiversifierIndex{})
	if err != nil {
		return DiversifierIndex{}, PaymentAddress{}, err
	}
	addr, ok := paymentAddressFor(d, k.FVK.IncomingViewingKey())
	if !ok {
		return DiversifierIndex{}, PaymentAddress{}, errors.New("diversifier lost its base point")
	}
	return j, addr, nil
}

// Bytes serializes the key to its 169-byte form.
func (k *ExtendedFullViewingKey) Bytes() []byte {
	out := make([]byte, 0, ExtendedKeySize)
	out = appendExtendedHeader(out, k.Depth, k.ParentFVKTag, k.ChildIndex, k.ChainCode)
	out = append(out, k.FVK.Bytes()...)
	return append(out, k.Dk[:]...)
}

// Equal compares two viewing keys field by field.
func (k *ExtendedFullViewingKey) Equal(o *ExtendedFullViewingKey) bool {
	return k.Depth == o.Depth &&
		k.ParentFVKTag == o.ParentFVKTag &&
		k.ChildIndex == o.ChildIndex &&
		k.ChainCode == o.ChainCode &&
		k.Dk == o.Dk &&
		k.FVK.equal(&o.FVK)
}

// ParseExtendedFullViewingKey is the inverse of Bytes. ak and nk must be
// valid prime-order points.
func ParseExtendedFullViewingKey(b []byte) (*ExtendedFullViewingKey, error) {
	if len(b) != ExtendedKeySize {
		return nil, fmt.Errorf("extended full viewing key must be %d bytes, got %d", ExtendedKeySize, len(b))
	}
	k := &ExtendedFullViewingKey{}
	rest := parseExtendedHeader(b, &k.Depth, &k.ParentFVKTag, &k.ChildIndex, &k.ChainCode)

	fvk, err := parseFullViewingKey(rest[:96])
	if err != nil {
		return nil, fmt.Errorf("full viewing key: %w", err)
	}
	k.FVK = fvk
	copy(k.Dk[:], rest[96:128])
	return k, nil
}

func appendExtendedHeader(out []byte, depth uint8, tag [4]byte, index uint32, cc ChainCode) []byte {
	out = append(out, depth)
	out = append(out, tag[:]...)
	out = binary.LittleEndian.AppendUint32(out, index)
	return append(out, cc[:]...)
}

func parseExtendedHeader(b []byte, depth *uint8, tag *[4]byte, index *uint32, cc *ChainCode) []byte {
	*depth = b[0]
	copy(tag[:], b[1:5])
	*index = binary.LittleEndian.Uint32(b[5:9])
	copy(cc[:], b[9:41])
	return b[41:]
}
