package main

import (
	"github.com/urfave/cli/v2"

	"github.com/suffix-labs/zcash-saplingtx/pkg/zip321"
)

var parseURI = cli.Command{
	Name:      "parse-uri",
	Usage:     "parse a ZIP 321 payment request",
	ArgsUsage: "<uri>",
	Action:    parseURIAction,
}

type paymentSummary struct {
	Address  string  `json:"address"`
	Amount   string  `json:"amount,omitempty"`
	Zatoshis *uint64 `json:"zatoshis,omitempty"`
	Memo     *string `json:"memo,omitempty"`
	Label    *string `json:"label,omitempty"`
	Message  *string `json:"message,omitempty"`
}

func parseURIAction(ctx *cli.Context) error {
	if ctx.Args().Len() != 1 {
		return &invalidUsageError{ctx: ctx, command: "parse-uri", reason: "expected one URI"}
	}

	payments, err := summarizePayments(ctx.Args().First())
	if err != nil {
		return err
	}
	return printJSON(payments)
}

func summarizePayments(uri string) ([]paymentSummary, error) {
	req, err := zip321.Parse(uri)
	if err != nil {
		return nil, err
	}

	out := make([]paymentSummary, 0, len(req.Payments))
	for _, payment := range req.Payments {
		s := paymentSummary{
			Address: payment.Address,
			Memo:    payment.Memo,
			Label:   payment.Label,
			Message: payment.Message,
		}
		if payment.Amount != nil {
			s.Amount = payment.Amount.StringFixed(8)
			zats, err := payment.Zatoshis()
			if err != nil {
				return nil, err
			}
			s.Zatoshis = &zats
		}
		out = append(out, s)
	}
	return out, nil
}
