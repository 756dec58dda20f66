// Package encoding converts transparent addresses and Sapling keys/addresses
// between their raw forms and their human-readable wire strings.
//
// Transparent addresses use Base58Check with the two-byte prefixes of the
// selected network profile. Sapling artifacts use bech32 under a caller
// supplied HRP. Nothing here guesses the network: every decode takes the
// profile or HRP it must match.
package encoding

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"

	"github.com/suffix-labs/zcash-saplingtx/pkg/network"
)

const (
	transparentPrefixLen   = 2
	transparentHashLen     = 20
	base58ChecksumLen      = 4
	transparentAddressSize = transparentPrefixLen + transparentHashLen + base58ChecksumLen
)

// AddressKind distinguishes P2PKH from P2SH transparent addresses.
type AddressKind int

const (
	PubKeyHash AddressKind = iota
	ScriptHash
)

func (k AddressKind) String() string {
	if k == ScriptHash {
		return "p2sh"
	}
	return "p2pkh"
}

// TransparentAddress is a decoded transparent address.
type TransparentAddress struct {
	Kind AddressKind
	Hash [20]byte
}

// Script returns the locking script paying to the address.
func (a TransparentAddress) Script() ([]byte, error) {
	if a.Kind == ScriptHash {
		return txscript.NewScriptBuilder().
			AddOp(txscript.OP_HASH160).
			AddData(a.Hash[:]).
			AddOp(txscript.OP_EQUAL).
			Script()
	}
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(a.Hash[:]).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

// TransparentAddressFromScript recognizes standard P2PKH and P2SH locking
// scripts.
func TransparentAddressFromScript(script []byte) (TransparentAddress, bool) {
	var a TransparentAddress
	switch txscript.GetScriptClass(script) {
	case txscript.PubKeyHashTy:
		a.Kind = PubKeyHash
		copy(a.Hash[:], script[3:23])
	case txscript.ScriptHashTy:
		a.Kind = ScriptHash
		copy(a.Hash[:], script[2:22])
	default:
		return TransparentAddress{}, false
	}
	return a, true
}

// EncodeTransparentAddress renders a under the profile's prefixes.
func EncodeTransparentAddress(p network.Profile, a TransparentAddress) string {
	prefix := p.TransparentPubKeyPrefix
	if a.Kind == ScriptHash {
		prefix = p.TransparentScriptPrefix
	}

	payload := make([]byte, 0, transparentAddressSize)
	payload = append(payload, prefix[:]...)
	payload = append(payload, a.Hash[:]...)
	checksum := chainhash.DoubleHashB(payload)
	payload = append(payload, checksum[:base58ChecksumLen]...)

	return base58.Encode(payload)
}

// DecodeTransparentAddress parses s, disambiguating P2PKH from P2SH by which
// of the profile's two prefixes matches.
func DecodeTransparentAddress(p network.Profile, s string) (TransparentAddress, error) {
	pkh, sh := p.TransparentPrefixes()
	expected := hex.EncodeToString(pkh[:]) + "|" + hex.EncodeToString(sh[:])

	decoded := base58.Decode(s)
	if len(decoded) != transparentAddressSize {
		return TransparentAddress{}, &FormatError{
			Kind:     KindTransparentAddress,
			Expected: expected,
			Reason:   "wrong payload length",
		}
	}

	payload := decoded[:len(decoded)-base58ChecksumLen]
	checksum := chainhash.DoubleHashB(payload)
	if !bytes.Equal(checksum[:base58ChecksumLen], decoded[len(payload):]) {
		return TransparentAddress{}, &FormatError{
			Kind:     KindTransparentAddress,
			Expected: expected,
			Reason:   "checksum mismatch",
		}
	}

	var a TransparentAddress
	switch {
	case bytes.Equal(payload[:transparentPrefixLen], pkh[:]):
		a.Kind = PubKeyHash
	case bytes.Equal(payload[:transparentPrefixLen], sh[:]):
		a.Kind = ScriptHash
	default:
		return TransparentAddress{}, &FormatError{
			Kind:     KindTransparentAddress,
			Expected: expected,
			Reason:   "prefix " + hex.EncodeToString(payload[:transparentPrefixLen]) + " does not belong to this network",
		}
	}
	copy(a.Hash[:], payload[transparentPrefixLen:])
	return a, nil
}
