// zcash-saplingtx CLI - transparent and Sapling transaction assembly
//
// Example usage:
//
//	# Derive a Sapling key triple from a mnemonic
//	zcash-saplingtx derive --mnemonic "abandon ... art" --account 0
//
//	# Derive a transparent key ready to fund an input
//	zcash-saplingtx derive-transparent --seed-hex 000102... --index 3
//
//	# Assemble a transaction from JSON files
//	zcash-saplingtx assemble --inputs in.json --transparent t.json --shielded z.json --height 756504 --coin zel
//
//	# Decode a raw transaction
//	zcash-saplingtx inspect 0400008085202f89...
//
// Configuration is read from ZSAPLINGTX_* environment variables; flags take
// precedence.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/suffix-labs/zcash-saplingtx/internal/config"
	"github.com/suffix-labs/zcash-saplingtx/internal/log"
	"github.com/suffix-labs/zcash-saplingtx/pkg/network"
)

var version = "0.1.0"

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Version = version
	app.Name = "zcash-saplingtx"
	app.Usage = "derive Sapling keys and assemble transparent-to-Sapling transactions"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "trace, debug, info, warn, error or disabled",
		},
		&cli.BoolFlag{
			Name:  "log-json",
			Usage: "write logs as JSON",
		},
		&cli.StringFlag{
			Name:  "coin",
			Usage: "network: zec, zel or taz",
		},
	}
	app.Before = setup
	app.Commands = append(
		app.Commands,
		&derive,
		&deriveTransparent,
		&assemble,
		&inspect,
		&parseURI,
		&versionCmd,
	)

	return app
}

// setup loads the environment configuration, applies global flag overrides
// and initializes logging.
func setup(ctx *cli.Context) error {
	if err := config.InitConfig(); err != nil {
		return err
	}
	if ctx.IsSet("log-level") {
		if !log.ValidLevel(ctx.String("log-level")) {
			return fmt.Errorf("unknown log level %q", ctx.String("log-level"))
		}
		config.Set(config.LogLevelKey, ctx.String("log-level"))
	}
	if ctx.IsSet("log-json") {
		config.Set(config.LogJSONKey, ctx.Bool("log-json"))
	}
	if ctx.IsSet("coin") {
		config.Set(config.CoinKey, ctx.String("coin"))
	}

	return log.Init(
		config.GetString(config.LogLevelKey),
		config.GetBool(config.LogJSONKey),
		config.GetString(config.LogFileKey),
	)
}

// profile resolves the configured coin. Lenient mode falls back to the
// primary network.
func profile() (network.Profile, error) {
	coin := config.GetString(config.CoinKey)
	if config.GetBool(config.LenientCoinKey) {
		p, fellBack := network.ResolveOrPrimary(coin)
		if fellBack {
			log.CLI.Warn().Str("coin", coin).Msg("unknown coin, using primary network")
		}
		return p, nil
	}
	return network.Resolve(coin)
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
	reason  string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s: %s", e.command, e.reason)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_, _ = fmt.Fprintf(os.Stderr, "[zcash-saplingtx] %v\n", err)
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[zcash-saplingtx] %v\n", err)
	}
	os.Exit(1)
}
