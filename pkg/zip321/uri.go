// Package zip321 reads and writes ZIP 321 payment request URIs.
//
//	zcash:<address>?amount=<zec>&label=<text>
//	zcash:?address=<a0>&amount=<z0>&address.1=<a1>&amount.1=<z1>
//
// Parameters without a suffix belong to payment 0. Amounts are kept as exact
// decimals; Payment.Zatoshis converts them for the assembler.
//
// See: https://zips.z.cash/zip-0321
package zip321

import (
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	scheme         = "zcash:"
	zatoshisPerZEC = 100_000_000
	maxParamIndex  = 9999
)

var maxMoneyZEC = decimal.NewFromInt(21_000_000)

var (
	// ErrNoAmount is returned by Zatoshis when the payer chooses the amount.
	ErrNoAmount = errors.New("payment has no amount")
	// ErrRequiredParam is returned for req- parameters this parser does not
	// understand.
	ErrRequiredParam = errors.New("unsupported required parameter")
)

// PaymentRequest is a parsed payment request with payments in index order.
type PaymentRequest struct {
	Payments []Payment
}

// Payment is one recipient of a request. Optional fields are nil when
// absent.
type Payment struct {
	Address string
	Amount  *decimal.Decimal // ZEC
	Memo    *string          // base64url, as found in the URI
	Label   *string
	Message *string
}

// Zatoshis returns the payment amount in zatoshis.
func (p Payment) Zatoshis() (uint64, error) {
	if p.Amount == nil {
		return 0, ErrNoAmount
	}
	return p.Amount.Shift(8).BigInt().Uint64(), nil
}

// NewAmount returns the ZEC amount for a zatoshi value.
func NewAmount(zatoshis uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(zatoshis), -8)
}

// Parse reads a payment request. The "zcash:" scheme is optional.
func Parse(uri string) (*PaymentRequest, error) {
	rest := strings.TrimPrefix(uri, scheme)
	address, query := rest, ""
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		address, query = rest[:i], rest[i+1:]
	} else if strings.Contains(rest, "=") {
		address, query = "", rest
	}

	values, err := url.ParseQuery(query)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query: %w", err)
	}

	fields := map[int]map[string]string{}
	if address != "" {
		fields[0] = map[string]string{"address": address}
	}
	for key, vals := range values {
		name, index, err := splitParam(key)
		if err != nil {
			return nil, err
		}
		if len(vals) != 1 {
			return nil, fmt.Errorf("parameter %q given %d times", key, len(vals))
		}
		if fields[index] == nil {
			fields[index] = map[string]string{}
		}
		if _, dup := fields[index][name]; dup {
			return nil, fmt.Errorf("parameter %q given twice for payment %d", name, index)
		}
		fields[index][name] = vals[0]
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("no payments found in URI")
	}

	indices := make([]int, 0, len(fields))
	for index := range fields {
		indices = append(indices, index)
	}
	sort.Ints(indices)

	req := &PaymentRequest{Payments: make([]Payment, 0, len(indices))}
	for _, index := range indices {
		// Only a lone unindexed payment may leave the address to the payer.
		payment, err := newPayment(fields[index], len(indices) > 1 || index != 0)
		if err != nil {
			return nil, fmt.Errorf("payment %d: %w", index, err)
		}
		req.Payments = append(req.Payments, payment)
	}
	return req, nil
}

// splitParam splits "amount.3" into ("amount", 3). Unsuffixed names have
// index 0.
func splitParam(key string) (string, int, error) {
	dot := strings.IndexByte(key, '.')
	if dot < 0 {
		return key, 0, nil
	}

	name, suffix := key[:dot], key[dot+1:]
	index, err := strconv.Atoi(suffix)
	if err != nil || index < 0 || index > maxParamIndex || (len(suffix) > 1 && suffix[0] == '0') {
		return "", 0, fmt.Errorf("invalid parameter index in %q", key)
	}
	return name, index, nil
}

func newPayment(fields map[string]string, needAddress bool) (Payment, error) {
	var p Payment
	for name, value := range fields {
		value := value
		switch name {
		case "address":
			p.Address = value
		case "amount":
			amount, err := parseAmount(value)
			if err != nil {
				return Payment{}, fmt.Errorf("invalid amount: %w", err)
			}
			p.Amount = &amount
		case "memo":
			p.Memo = &value
		case "label":
			p.Label = &value
		case "message":
			p.Message = &value
		default:
			if strings.HasPrefix(name, "req-") {
				return Payment{}, fmt.Errorf("%w: %s", ErrRequiredParam, name)
			}
		}
	}

	if needAddress && p.Address == "" {
		return Payment{}, fmt.Errorf("missing address")
	}
	return p, nil
}

// parseAmount accepts plain decimal ZEC: non-negative, at most 8 fractional
// digits, no exponent, and within the 21 million supply.
func parseAmount(s string) (decimal.Decimal, error) {
	if strings.ContainsAny(s, "eE+") {
		return decimal.Zero, fmt.Errorf("not a valid number: %q", s)
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a valid number: %w", err)
	}

	switch {
	case amount.IsNegative():
		return decimal.Zero, fmt.Errorf("amount cannot be negative")
	case !amount.Equal(amount.Truncate(8)):
		return decimal.Zero, fmt.Errorf("amount has more than 8 decimal places")
	case amount.GreaterThan(maxMoneyZEC):
		return decimal.Zero, fmt.Errorf("amount exceeds %s ZEC", maxMoneyZEC)
	}
	return amount, nil
}
