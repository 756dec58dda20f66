package zip32

import (
	"errors"
	"fmt"
	"strings"

	"github.com/capitalone/fpe/ff1"
)

// DiversifierIndexSize and DiversifierSize are both 88 bits.
const (
	DiversifierIndexSize = 11
	DiversifierSize      = 11
)

var errDiversifierSpaceExhausted = errors.New("no valid diversifier at or after index")

// DiversifierKey is dk, the FF1-AES256 key for diversifiers.
type DiversifierKey [32]byte

// DiversifierIndex is an 88-bit little-endian counter.
type DiversifierIndex [DiversifierIndexSize]byte

// Diversifier is d, the first 11 bytes of a payment address.
type Diversifier [DiversifierSize]byte

// NewDiversifierIndex returns the index for a small counter value.
func NewDiversifierIndex(j uint64) DiversifierIndex {
	var idx DiversifierIndex
	for i := 0; i < 8; i++ {
		idx[i] = byte(j >> (8 * i))
	}
	return idx
}

// increment adds one, reporting false on wrap-around.
func (idx *DiversifierIndex) increment() bool {
	for i := range idx {
		idx[i]++
		if idx[i] != 0 {
			return true
		}
	}
	return false
}

func (dk DiversifierKey) deriveChild(il []byte) DiversifierKey {
	tmp := prfExpand(il, []byte{expandChildDk}, dk[:])
	var out DiversifierKey
	copy(out[:], tmp[:32])
	return out
}

// Diversifier computes d_j = FF1-AES256(dk, j) over the 88-bit binary
// numeral string of j, least significant bit first.
func (dk DiversifierKey) Diversifier(j DiversifierIndex) (Diversifier, error) {
	cipher, err := ff1.NewCipher(2, 0, dk[:], nil)
	if err != nil {
		return Diversifier{}, fmt.Errorf("initializing FF1: %w", err)
	}
	enc, err := cipher.Encrypt(bytesToNumerals(j[:]))
	if err != nil {
		return Diversifier{}, fmt.Errorf("FF1 encrypt: %w", err)
	}
	var d Diversifier
	if err := numeralsToBytes(enc, d[:]); err != nil {
		return Diversifier{}, err
	}
	return d, nil
}

// FindDiversifier returns the first index at or after start whose diversifier
// maps to a valid g_d.
func (dk DiversifierKey) FindDiversifier(start DiversifierIndex) (DiversifierIndex, Diversifier, error) {
	j := start
	for {
		d, err := dk.Diversifier(j)
		if err != nil {
			return DiversifierIndex{}, Diversifier{}, err
		}
		if _, ok := d.G(); ok {
			return j, d, nil
		}
		if !j.increment() {
			return DiversifierIndex{}, Diversifier{}, errDiversifierSpaceExhausted
		}
	}
}

// G returns the diversified base g_d = GroupHash^J("Zcash_gd", d).
func (d Diversifier) G() (Point, bool) {
	return groupHash(d[:], diversifierHashPersonalization)
}

func bytesToNumerals(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) * 8)
	for _, v := range b {
		for i := 0; i < 8; i++ {
			if (v>>i)&1 == 1 {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
	}
	return sb.String()
}

func numeralsToBytes(s string, out []byte) error {
	if len(s) != len(out)*8 {
		return fmt.Errorf("FF1 output has %d numerals, want %d", len(s), len(out)*8)
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
		case '1':
			out[i/8] |= 1 << (i % 8)
		default:
			return fmt.Errorf("FF1 output has non-binary numeral %q", s[i])
		}
	}
	return nil
}
