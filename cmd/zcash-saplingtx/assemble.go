package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/suffix-labs/zcash-saplingtx/internal/config"
	"github.com/suffix-labs/zcash-saplingtx/internal/log"
	"github.com/suffix-labs/zcash-saplingtx/pkg/api"
	"github.com/suffix-labs/zcash-saplingtx/pkg/draft"
	"github.com/suffix-labs/zcash-saplingtx/pkg/network"
	"github.com/suffix-labs/zcash-saplingtx/pkg/prover"
	"github.com/suffix-labs/zcash-saplingtx/pkg/zip321"
)

var errMemoUnsupported = errors.New("memos are not supported")

var assemble = cli.Command{
	Name:  "assemble",
	Usage: "build and sign a transaction, printing its hex",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "inputs",
			Usage:    "JSON file with the transparent inputs",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "transparent",
			Usage: "JSON file with the transparent recipients",
		},
		&cli.StringFlag{
			Name:  "shielded",
			Usage: "JSON file with the shielded recipients",
		},
		&cli.StringFlag{
			Name:  "uri",
			Usage: "ZIP 321 payment request to take recipients from",
		},
		&cli.StringFlag{
			Name:  "view-key",
			Usage: "sender viewing key for shielded payments in --uri",
		},
		&cli.UintFlag{
			Name:     "height",
			Usage:    "target block height",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "spend-params",
			Usage: "Sapling spend parameters file",
		},
		&cli.StringFlag{
			Name:  "output-params",
			Usage: "Sapling output parameters file",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "print hex, txid and fee as JSON",
		},
	},
	Action: assembleAction,
}

type assembleResult struct {
	Hex  string `json:"hex"`
	TxID string `json:"txid"`
	Fee  uint64 `json:"fee"`
}

func assembleAction(ctx *cli.Context) error {
	p, err := profile()
	if err != nil {
		return err
	}

	var inputs []api.TransparentInput
	if err := readJSONFile(ctx.String("inputs"), &inputs); err != nil {
		return err
	}

	var (
		tRecipients []api.TransparentRecipient
		sRecipients []api.ShieldedRecipient
	)
	if path := ctx.String("transparent"); path != "" {
		if err := readJSONFile(path, &tRecipients); err != nil {
			return err
		}
	}
	if path := ctx.String("shielded"); path != "" {
		if err := readJSONFile(path, &sRecipients); err != nil {
			return err
		}
	}
	if uri := ctx.String("uri"); uri != "" {
		t, s, err := recipientsFromURI(p, uri, ctx.String("view-key"))
		if err != nil {
			return err
		}
		tRecipients = append(tRecipients, t...)
		sRecipients = append(sRecipients, s...)
	}

	if ctx.IsSet("spend-params") {
		config.Set(config.SpendParamsKey, ctx.String("spend-params"))
	}
	if ctx.IsSet("output-params") {
		config.Set(config.OutputParamsKey, ctx.String("output-params"))
	}

	// Transparent-only transactions need no proving parameters.
	var pr prover.Prover
	if len(sRecipients) > 0 {
		pr, err = loadProver()
		if err != nil {
			return err
		}
		defer pr.Close()
	}

	assembler := api.NewAssembler(pr, api.Options{LenientCoin: config.GetBool(config.LenientCoinKey)})
	assembled, err := assembler.Assemble(
		inputs,
		tRecipients,
		sRecipients,
		uint32(ctx.Uint("height")),
		config.GetString(config.CoinKey),
	)
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		return printJSON(assembleResult{Hex: assembled.Hex, TxID: assembled.TxID, Fee: assembled.Fee})
	}
	fmt.Println(assembled.Hex)
	return nil
}

func loadProver() (prover.Prover, error) {
	params, err := config.ReadParams()
	if err != nil {
		return nil, &draft.ProofGenerationError{
			Code:    draft.ErrParamsUnavailable,
			Index:   -1,
			Message: "failed to read proving parameters",
			Cause:   err,
		}
	}

	spend, output := config.GetParamsPaths()
	log.Prover.Debug().
		Str("spend", spend).
		Str("output", output).
		Int("spend_size", len(params.Spend)).
		Int("output_size", len(params.Output)).
		Msg("loading sapling prover")

	pr, err := api.ProverLoader(params.Spend, params.Output)
	if err != nil {
		return nil, &draft.ProofGenerationError{
			Code:    draft.ErrParamsUnavailable,
			Index:   -1,
			Message: "failed to load proving parameters",
			Cause:   err,
		}
	}
	return pr, nil
}

// recipientsFromURI splits the payments of a ZIP 321 request into transparent
// and shielded recipients. Shielded payments are sent with viewKey as the
// sender's viewing key.
func recipientsFromURI(
	p network.Profile,
	uri, viewKey string,
) ([]api.TransparentRecipient, []api.ShieldedRecipient, error) {
	req, err := zip321.Parse(uri)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid payment request: %w", err)
	}

	var (
		tRecipients []api.TransparentRecipient
		sRecipients []api.ShieldedRecipient
	)
	for i, payment := range req.Payments {
		if payment.Memo != nil {
			return nil, nil, fmt.Errorf("payment %d: %w", i, errMemoUnsupported)
		}
		if payment.Address == "" {
			return nil, nil, fmt.Errorf("payment %d: missing address", i)
		}
		amount, err := payment.Zatoshis()
		if err != nil {
			return nil, nil, fmt.Errorf("payment %d: %w", i, err)
		}

		if strings.HasPrefix(payment.Address, p.SaplingAddressHRP+"1") {
			if viewKey == "" {
				return nil, nil, fmt.Errorf("payment %d: --view-key is required for shielded payments", i)
			}
			sRecipients = append(sRecipients, api.ShieldedRecipient{
				ViewKey: viewKey,
				Address: payment.Address,
				Amount:  amount,
			})
			continue
		}
		tRecipients = append(tRecipients, api.TransparentRecipient{
			Address: payment.Address,
			Amount:  amount,
		})
	}

	return tRecipients, sRecipients, nil
}

func readJSONFile(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}
