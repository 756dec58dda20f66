// Package network holds the per-network protocol constants used by the codec,
// the key derivation module and the transaction assembler.
//
// A profile is selected once per call from a coin identifier and never
// mutated afterwards.
package network

import (
	"errors"
	"fmt"
	"strings"
)

// Consensus branch ids (ZIP 200 / ZIP 251).
const (
	BranchIDSapling uint32 = 0x76b809bb
	BranchIDCanopy  uint32 = 0xe9ff75a6
)

// ErrUnknownCoin is returned by Resolve for identifiers no profile matches.
var ErrUnknownCoin = errors.New("unknown coin identifier")

// Coin enumerates the supported network variants.
type Coin int

const (
	// CoinPrimary is Zcash mainnet ("zec").
	CoinPrimary Coin = iota
	// CoinAlternate is the Sapling-era fork using za/zxviewa prefixes ("zel").
	CoinAlternate
	// CoinTestnet is Zcash testnet ("taz").
	CoinTestnet
)

// Coins lists every supported variant. Anything that switches over Coin is
// expected to handle each entry.
func Coins() []Coin {
	return []Coin{CoinPrimary, CoinAlternate, CoinTestnet}
}

func (c Coin) String() string {
	switch c {
	case CoinPrimary:
		return "zec"
	case CoinAlternate:
		return "zel"
	case CoinTestnet:
		return "taz"
	default:
		return fmt.Sprintf("coin(%d)", int(c))
	}
}

// Profile is the immutable bundle of constants for one network.
type Profile struct {
	Coin Coin
	Name string

	TransparentPubKeyPrefix [2]byte // P2PKH Base58Check prefix
	TransparentScriptPrefix [2]byte // P2SH Base58Check prefix

	ConsensusBranchID uint32

	SaplingAddressHRP     string
	SaplingViewingKeyHRP  string
	SaplingSpendingKeyHRP string
}

// Profile returns the constants for c. The second result is false for values
// outside Coins().
func (c Coin) Profile() (Profile, bool) {
	switch c {
	case CoinPrimary:
		return Profile{
			Coin:                    CoinPrimary,
			Name:                    "primary",
			TransparentPubKeyPrefix: [2]byte{0x1c, 0xb8},
			TransparentScriptPrefix: [2]byte{0x1c, 0xbd},
			ConsensusBranchID:       BranchIDCanopy,
			SaplingAddressHRP:       "zs",
			SaplingViewingKeyHRP:    "zxviews",
			SaplingSpendingKeyHRP:   "secret-extended-key-main",
		}, true
	case CoinAlternate:
		return Profile{
			Coin:                    CoinAlternate,
			Name:                    "alternate",
			TransparentPubKeyPrefix: [2]byte{0x1c, 0xb8},
			TransparentScriptPrefix: [2]byte{0x1c, 0xbd},
			ConsensusBranchID:       BranchIDSapling,
			SaplingAddressHRP:       "za",
			SaplingViewingKeyHRP:    "zxviewa",
			SaplingSpendingKeyHRP:   "secret-extended-key-main",
		}, true
	case CoinTestnet:
		return Profile{
			Coin:                    CoinTestnet,
			Name:                    "testnet",
			TransparentPubKeyPrefix: [2]byte{0x1d, 0x25},
			TransparentScriptPrefix: [2]byte{0x1c, 0xba},
			ConsensusBranchID:       BranchIDCanopy,
			SaplingAddressHRP:       "ztestsapling",
			SaplingViewingKeyHRP:    "zxviewtestsapling",
			SaplingSpendingKeyHRP:   "secret-extended-key-test",
		}, true
	default:
		return Profile{}, false
	}
}

// Primary returns the primary network profile.
func Primary() Profile {
	p, _ := CoinPrimary.Profile()
	return p
}

// ParseCoin maps a coin identifier (ticker or network tag, case-insensitive)
// to its Coin.
func ParseCoin(id string) (Coin, error) {
	switch strings.ToLower(strings.TrimSpace(id)) {
	case "zec", "primary", "main", "mainnet":
		return CoinPrimary, nil
	case "zel", "alternate":
		return CoinAlternate, nil
	case "taz", "testnet", "test":
		return CoinTestnet, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCoin, id)
	}
}

// Resolve returns the profile for a coin identifier. Unknown identifiers are
// rejected with ErrUnknownCoin.
func Resolve(id string) (Profile, error) {
	c, err := ParseCoin(id)
	if err != nil {
		return Profile{}, err
	}
	p, ok := c.Profile()
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownCoin, id)
	}
	return p, nil
}

// ResolveOrPrimary behaves like Resolve but maps unknown identifiers to the
// primary profile. The boolean reports whether the fallback was taken so
// callers can surface it.
func ResolveOrPrimary(id string) (Profile, bool) {
	p, err := Resolve(id)
	if err != nil {
		return Primary(), true
	}
	return p, false
}

// TransparentPrefixes returns the two Base58Check prefixes of the profile.
func (p Profile) TransparentPrefixes() (pubKeyHash, scriptHash [2]byte) {
	return p.TransparentPubKeyPrefix, p.TransparentScriptPrefix
}
