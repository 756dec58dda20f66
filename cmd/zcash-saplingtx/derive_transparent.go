package main

import (
	"encoding/hex"

	"github.com/urfave/cli/v2"

	"github.com/suffix-labs/zcash-saplingtx/pkg/crypto"
	"github.com/suffix-labs/zcash-saplingtx/pkg/encoding"
	"github.com/suffix-labs/zcash-saplingtx/pkg/network"
)

var deriveTransparent = cli.Command{
	Name:  "derive-transparent",
	Usage: "derive a BIP 44 transparent key, its address and locking script",
	Flags: append([]cli.Flag{
		&cli.UintFlag{
			Name:  "coin-type",
			Usage: "SLIP 44 coin type",
			Value: 133,
		},
		&cli.UintFlag{
			Name:  "account",
			Usage: "account index",
		},
		&cli.UintFlag{
			Name:  "index",
			Usage: "external address index",
		},
	}, seedFlags...),
	Action: deriveTransparentAction,
}

type transparentKey struct {
	PrivateKey string `json:"private_key"`
	WIF        string `json:"wif"`
	PublicKey  string `json:"public_key"`
	Address    string `json:"address"`
	Script     string `json:"script"`
}

func deriveTransparentAction(ctx *cli.Context) error {
	seed, err := readSeed(ctx)
	if err != nil {
		return err
	}
	p, err := profile()
	if err != nil {
		return err
	}

	key, err := crypto.DeriveTransparentKey(
		seed,
		uint32(ctx.Uint("coin-type")),
		uint32(ctx.Uint("account")),
		uint32(ctx.Uint("index")),
	)
	if err != nil {
		return err
	}

	out, err := describeTransparentKey(p, key)
	if err != nil {
		return err
	}
	return printJSON(out)
}

func describeTransparentKey(p network.Profile, key *crypto.PrivateKey) (*transparentKey, error) {
	pub := key.PublicKey()
	addr := encoding.TransparentAddress{Kind: encoding.PubKeyHash, Hash: pub.Hash160()}
	script, err := addr.Script()
	if err != nil {
		return nil, err
	}
	wif, err := crypto.EncodeWIF(key.Bytes(), true, p.Coin == network.CoinTestnet)
	if err != nil {
		return nil, err
	}

	return &transparentKey{
		PrivateKey: key.Hex(),
		WIF:        wif,
		PublicKey:  hex.EncodeToString(pub.Bytes()),
		Address:    encoding.EncodeTransparentAddress(p, addr),
		Script:     hex.EncodeToString(script),
	}, nil
}
