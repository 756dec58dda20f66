package main

import (
	"encoding/hex"
	"errors"
	"strings"

	"github.com/tyler-smith/go-bip39"
	"github.com/urfave/cli/v2"
)

var errInvalidMnemonic = errors.New("invalid mnemonic")

var seedFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "seed",
		Usage: "seed as a raw string",
	},
	&cli.StringFlag{
		Name:  "seed-hex",
		Usage: "seed as hex",
	},
	&cli.StringFlag{
		Name:  "mnemonic",
		Usage: "BIP 39 mnemonic to expand into the seed",
	},
	&cli.StringFlag{
		Name:  "passphrase",
		Usage: "optional BIP 39 passphrase, used with --mnemonic",
	},
}

// readSeed returns the seed from exactly one of --seed, --seed-hex and
// --mnemonic.
func readSeed(ctx *cli.Context) ([]byte, error) {
	set := 0
	for _, name := range []string{"seed", "seed-hex", "mnemonic"} {
		if ctx.IsSet(name) {
			set++
		}
	}
	if set != 1 {
		return nil, &invalidUsageError{
			ctx:     ctx,
			command: ctx.Command.Name,
			reason:  "exactly one of --seed, --seed-hex or --mnemonic is required",
		}
	}

	switch {
	case ctx.IsSet("seed"):
		return []byte(ctx.String("seed")), nil
	case ctx.IsSet("seed-hex"):
		seed, err := hex.DecodeString(ctx.String("seed-hex"))
		if err != nil {
			return nil, err
		}
		return seed, nil
	default:
		return seedFromMnemonic(ctx.String("mnemonic"), ctx.String("passphrase"))
	}
}

func seedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errInvalidMnemonic
	}
	return bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
}
