package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/suffix-labs/zcash-saplingtx/internal/log"
	"github.com/suffix-labs/zcash-saplingtx/pkg/api"
)

var derive = cli.Command{
	Name:  "derive",
	Usage: "derive a Sapling spending key, viewing key and default address",
	Flags: append([]cli.Flag{
		&cli.UintFlag{
			Name:  "purpose",
			Usage: "ZIP 32 purpose",
			Value: 32,
		},
		&cli.UintFlag{
			Name:  "coin-type",
			Usage: "SLIP 44 coin type",
			Value: 133,
		},
		&cli.UintFlag{
			Name:  "account",
			Usage: "account index",
		},
	}, seedFlags...),
	Action: deriveAction,
}

func deriveAction(ctx *cli.Context) error {
	seed, err := readSeed(ctx)
	if err != nil {
		return err
	}
	p, err := profile()
	if err != nil {
		return err
	}

	log.CLI.Debug().Str("network", p.Name).Msg("deriving sapling keys")

	out, err := api.DeriveAddress(
		seed,
		uint32(ctx.Uint("purpose")),
		uint32(ctx.Uint("coin-type")),
		uint32(ctx.Uint("account")),
		p.SaplingSpendingKeyHRP,
		p.SaplingViewingKeyHRP,
		p.SaplingAddressHRP,
	)
	if err != nil {
		return err
	}

	fmt.Println(out)
	return nil
}
