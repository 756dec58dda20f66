package api

import (
	"encoding/json"
	"fmt"

	"github.com/suffix-labs/zcash-saplingtx/internal/log"
	"github.com/suffix-labs/zcash-saplingtx/pkg/encoding"
	"github.com/suffix-labs/zcash-saplingtx/pkg/zip32"
)

// DeriveKeyTriple derives the extended spending key at path and encodes it
// together with its extended full viewing key and default payment address.
func DeriveKeyTriple(seed []byte, path zip32.Path, spendingHRP, viewingHRP, addressHRP string) (*KeyTriple, error) {
	xsk, err := zip32.FromPath(seed, path)
	if err != nil {
		return nil, fmt.Errorf("failed to derive spending key: %w", err)
	}
	xfvk := xsk.ExtendedFullViewingKey()

	index, addr, err := xfvk.DefaultAddress()
	if err != nil {
		return nil, fmt.Errorf("failed to derive default address: %w", err)
	}

	privateKey, err := encoding.EncodeExtendedSpendingKey(spendingHRP, xsk)
	if err != nil {
		return nil, err
	}
	viewingKey, err := encoding.EncodeExtendedFullViewingKey(viewingHRP, xfvk)
	if err != nil {
		return nil, err
	}
	address, err := encoding.EncodePaymentAddress(addressHRP, addr)
	if err != nil {
		return nil, err
	}

	log.Keys.Debug().
		Uint32("purpose", path.Purpose).
		Uint32("coin_type", path.CoinType).
		Uint32("account", path.Account).
		Hex("diversifier_index", index[:]).
		Msg("derived sapling key triple")

	return &KeyTriple{
		Address:    address,
		PrivateKey: privateKey,
		ViewingKey: viewingKey,
	}, nil
}

// DeriveAddress is DeriveKeyTriple rendered as indented JSON.
func DeriveAddress(
	seed []byte,
	purpose, coinType, account uint32,
	spendingHRP, viewingHRP, addressHRP string,
) (string, error) {
	path := zip32.Path{Purpose: purpose, CoinType: coinType, Account: account}
	triple, err := DeriveKeyTriple(seed, path, spendingHRP, viewingHRP, addressHRP)
	if err != nil {
		return "", err
	}

	out, err := json.MarshalIndent(triple, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode key triple: %w", err)
	}
	return string(out), nil
}
