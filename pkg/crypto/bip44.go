package crypto

import (
	"fmt"

	"github.com/tyler-smith/go-bip32"
)

// BIP 44 purpose for transparent keys.
const bip44Purpose uint32 = 44

// DeriveTransparentKey derives the secp256k1 key at
// m/44'/coinType'/account'/0/index from a BIP 32 seed.
func DeriveTransparentKey(seed []byte, coinType, account, index uint32) (*PrivateKey, error) {
	if coinType >= bip32.FirstHardenedChild || account >= bip32.FirstHardenedChild {
		return nil, fmt.Errorf("coin type and account must be below 2^31")
	}

	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("master key: %w", err)
	}

	path := []uint32{
		bip32.FirstHardenedChild + bip44Purpose,
		bip32.FirstHardenedChild + coinType,
		bip32.FirstHardenedChild + account,
		0,
		index,
	}
	for depth, child := range path {
		key, err = key.NewChildKey(child)
		if err != nil {
			return nil, fmt.Errorf("deriving level %d: %w", depth, err)
		}
	}

	return PrivateKeyFromBytes(key.Key)
}
