package zip321

import (
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// Encode renders the request. A single payment keeps its address in the
// URI path; several payments are written with indexed parameters.
func (req *PaymentRequest) Encode() string {
	switch len(req.Payments) {
	case 0:
		return scheme
	case 1:
		p := req.Payments[0]
		params := url.Values{}
		addParams(params, p, "")
		if len(params) == 0 {
			return scheme + p.Address
		}
		return scheme + p.Address + "?" + params.Encode()
	}

	params := url.Values{}
	for i, p := range req.Payments {
		suffix := "." + strconv.Itoa(i)
		params.Set("address"+suffix, p.Address)
		addParams(params, p, suffix)
	}
	return scheme + "?" + params.Encode()
}

func addParams(params url.Values, p Payment, suffix string) {
	if p.Amount != nil {
		params.Set("amount"+suffix, formatAmount(p.Amount))
	}
	optional := map[string]*string{"memo": p.Memo, "label": p.Label, "message": p.Message}
	for name, v := range optional {
		if v != nil {
			params.Set(name+suffix, *v)
		}
	}
}

// formatAmount drops trailing zeros.
func formatAmount(amount *decimal.Decimal) string {
	return amount.Truncate(8).String()
}
