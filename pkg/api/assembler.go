package api

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/suffix-labs/zcash-saplingtx/internal/log"
	"github.com/suffix-labs/zcash-saplingtx/pkg/crypto"
	"github.com/suffix-labs/zcash-saplingtx/pkg/draft"
	"github.com/suffix-labs/zcash-saplingtx/pkg/encoding"
	"github.com/suffix-labs/zcash-saplingtx/pkg/ffi"
	"github.com/suffix-labs/zcash-saplingtx/pkg/network"
	"github.com/suffix-labs/zcash-saplingtx/pkg/prover"
	"github.com/suffix-labs/zcash-saplingtx/pkg/roles"
	"github.com/suffix-labs/zcash-saplingtx/pkg/tx"
	"github.com/suffix-labs/zcash-saplingtx/pkg/zip32"
)

// ProverLoader builds a prover from the Sapling spend and output parameter
// blobs. AssembleTransaction calls it once per call with shielded recipients.
var ProverLoader = ffi.LoadSaplingProver

// Options tune an Assembler.
type Options struct {
	// LenientCoin maps unknown coin identifiers to the primary network
	// instead of rejecting them.
	LenientCoin bool
}

// Assembler builds transactions with a caller-owned prover. It is safe for
// concurrent use as long as the prover is.
type Assembler struct {
	prover prover.Prover
	opts   Options
}

// NewAssembler returns an Assembler using p. p may be nil when no call
// includes shielded recipients.
func NewAssembler(p prover.Prover, opts Options) *Assembler {
	return &Assembler{prover: p, opts: opts}
}

// AssembleTransaction assembles the transaction and returns its hex. A prover
// is loaded from the parameter blobs only when there are shielded recipients,
// and is released before returning.
func AssembleTransaction(
	inputs []TransparentInput,
	tRecipients []TransparentRecipient,
	sRecipients []ShieldedRecipient,
	height uint32,
	coin string,
	spendParams, outputParams []byte,
) (string, error) {
	var p prover.Prover
	if len(sRecipients) > 0 {
		loaded, err := ProverLoader(spendParams, outputParams)
		if err != nil {
			return "", &draft.ProofGenerationError{
				Code:    draft.ErrParamsUnavailable,
				Index:   -1,
				Message: "failed to load proving parameters",
				Cause:   err,
			}
		}
		defer loaded.Close()
		p = loaded
	}

	assembled, err := NewAssembler(p, Options{}).Assemble(inputs, tRecipients, sRecipients, height, coin)
	if err != nil {
		return "", err
	}
	return assembled.Hex, nil
}

// Assemble builds, proves, signs and serializes one transaction.
//
// Assembly is all-or-nothing: on any error the draft is aborted, its keys are
// dropped and no bytes are returned.
func (a *Assembler) Assemble(
	inputs []TransparentInput,
	tRecipients []TransparentRecipient,
	sRecipients []ShieldedRecipient,
	height uint32,
	coin string,
) (*AssembledTransaction, error) {
	logger := log.Assembler.With().Str("request_id", uuid.New().String()).Logger()

	profile, err := a.resolveProfile(coin, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("network", profile.Name).
		Uint32("height", height).
		Int("inputs", len(inputs)).
		Int("transparent_recipients", len(tRecipients)).
		Int("shielded_recipients", len(sRecipients)).
		Msg("assembling transaction")

	d, err := roles.NewCreator(profile, height).Create()
	if err != nil {
		return nil, err
	}

	assembled, err := a.build(d, profile, inputs, tRecipients, sRecipients)
	if err != nil {
		d.Abort()
		event := logger.Warn()
		if isDecodingFailure(err) {
			event = logger.Debug()
		}
		event.Err(err).Msg("assembly aborted")
		return nil, err
	}

	logger.Info().
		Str("txid", assembled.TxID).
		Uint64("fee", assembled.Fee).
		Int("size", len(assembled.Raw)).
		Msg("transaction assembled")

	return assembled, nil
}

func (a *Assembler) resolveProfile(coin string, logger zerolog.Logger) (network.Profile, error) {
	if a.opts.LenientCoin {
		profile, fellBack := network.ResolveOrPrimary(coin)
		if fellBack {
			logger.Warn().Str("coin", coin).Msg("unknown coin, using primary network")
		}
		return profile, nil
	}

	profile, err := network.Resolve(coin)
	if err != nil {
		return network.Profile{}, &draft.DecodingError{
			Item:  draft.ItemRequest,
			Index: -1,
			Field: "coin",
			Cause: err,
		}
	}
	return profile, nil
}

func (a *Assembler) build(
	d *draft.Draft,
	profile network.Profile,
	inputs []TransparentInput,
	tRecipients []TransparentRecipient,
	sRecipients []ShieldedRecipient,
) (*AssembledTransaction, error) {
	constructor := roles.NewConstructor(d)

	for i := range inputs {
		key, prevOut, script, err := decodeInput(i, &inputs[i])
		if err != nil {
			return nil, err
		}
		if err := constructor.AddTransparentInput(key, prevOut, inputs[i].Amount, script); err != nil {
			return nil, err
		}
	}
	if err := constructor.AcceptInputs(); err != nil {
		return nil, err
	}

	for i, r := range tRecipients {
		script, err := decodeTransparentRecipient(profile, i, r)
		if err != nil {
			return nil, err
		}
		if err := constructor.AddTransparentOutput(script, r.Amount); err != nil {
			return nil, err
		}
	}

	for i, r := range sRecipients {
		ovk, to, err := decodeShieldedRecipient(profile, i, r)
		if err != nil {
			return nil, err
		}
		if err := constructor.AddSaplingOutput(&ovk, to, r.Amount); err != nil {
			return nil, err
		}
	}
	if err := constructor.AcceptOutputs(); err != nil {
		return nil, err
	}

	ioFinalizer := roles.NewIoFinalizer(constructor.Finish())
	if err := ioFinalizer.Finalize(); err != nil {
		return nil, err
	}
	d = ioFinalizer.Finish()

	var ctx prover.Context
	if len(d.Sapling.Outputs) > 0 {
		var err error
		if ctx, err = a.newContext(); err != nil {
			return nil, err
		}
		defer ctx.Close()
	}

	proverRole := roles.NewProver(d, ctx)
	if err := proverRole.ProveOutputs(); err != nil {
		return nil, err
	}

	signer := roles.NewSigner(proverRole.Finish())
	if err := signer.SignAll(); err != nil {
		return nil, err
	}

	spendFinalizer := roles.NewSpendFinalizer(signer.Finish())
	if err := spendFinalizer.Finalize(); err != nil {
		return nil, err
	}

	extracted, err := roles.NewTxExtractor(spendFinalizer.Finish(), ctx).Extract()
	if err != nil {
		return nil, err
	}

	return &AssembledTransaction{
		Raw:         extracted.Raw,
		Hex:         hex.EncodeToString(extracted.Raw),
		TxID:        extracted.TxID.String(),
		Fee:         *d.Fee,
		Transaction: extracted.Transaction,
	}, nil
}

func (a *Assembler) newContext() (prover.Context, error) {
	if a.prover == nil {
		return nil, &draft.ProofGenerationError{
			Code:    draft.ErrParamsUnavailable,
			Index:   -1,
			Message: "no prover configured",
		}
	}

	ctx, err := a.prover.NewContext()
	if err != nil {
		return nil, &draft.ProofGenerationError{
			Code:    draft.ErrParamsUnavailable,
			Index:   -1,
			Message: "failed to open proving context",
			Cause:   err,
		}
	}
	return ctx, nil
}

func decodeInput(index int, in *TransparentInput) (*crypto.PrivateKey, tx.OutPoint, []byte, error) {
	fail := func(field, msg string, cause error) error {
		return &draft.DecodingError{
			Item:    draft.ItemTransparentInput,
			Index:   index,
			Field:   field,
			Message: msg,
			Cause:   cause,
		}
	}

	key, err := crypto.ParsePrivateKeyHex(in.PrivateKey)
	if err != nil {
		return nil, tx.OutPoint{}, nil, fail("private_key", "", err)
	}

	if len(in.UTXO) != chainhash.MaxHashStringSize {
		return nil, tx.OutPoint{}, nil, fail("utxo", fmt.Sprintf("expected %d hex characters, got %d", chainhash.MaxHashStringSize, len(in.UTXO)), nil)
	}
	// NewHashFromStr reverses the display order into wire order.
	hash, err := chainhash.NewHashFromStr(in.UTXO)
	if err != nil {
		return nil, tx.OutPoint{}, nil, fail("utxo", "invalid hex", err)
	}

	script, err := hex.DecodeString(in.Script)
	if err != nil {
		return nil, tx.OutPoint{}, nil, fail("script", "invalid hex", err)
	}

	if in.Amount > tx.MaxMoney {
		return nil, tx.OutPoint{}, nil, fail("amount", fmt.Sprintf("%d exceeds maximum %d", in.Amount, tx.MaxMoney), nil)
	}

	return key, tx.OutPoint{Hash: *hash, Index: in.VoutIndex}, script, nil
}

func decodeTransparentRecipient(profile network.Profile, index int, r TransparentRecipient) ([]byte, error) {
	addr, err := encoding.DecodeTransparentAddress(profile, r.Address)
	if err != nil {
		return nil, &draft.AddressFormatError{
			Item:  draft.ItemTransparentRecipient,
			Index: index,
			Field: "address",
			Cause: err,
		}
	}
	if r.Amount > tx.MaxMoney {
		return nil, amountOutOfRange(draft.ItemTransparentRecipient, index, r.Amount)
	}

	script, err := addr.Script()
	if err != nil {
		return nil, &draft.AddressFormatError{
			Item:  draft.ItemTransparentRecipient,
			Index: index,
			Field: "address",
			Cause: err,
		}
	}
	return script, nil
}

func decodeShieldedRecipient(
	profile network.Profile,
	index int,
	r ShieldedRecipient,
) (zip32.OutgoingViewingKey, zip32.PaymentAddress, error) {
	xfvk, err := encoding.DecodeExtendedFullViewingKey(profile.SaplingViewingKeyHRP, r.ViewKey)
	if err != nil {
		return zip32.OutgoingViewingKey{}, zip32.PaymentAddress{}, &draft.KeyFormatError{
			Item:  draft.ItemShieldedRecipient,
			Index: index,
			Field: "view_key",
			Cause: err,
		}
	}

	to, err := encoding.DecodePaymentAddress(profile.SaplingAddressHRP, r.Address)
	if err != nil {
		return zip32.OutgoingViewingKey{}, zip32.PaymentAddress{}, &draft.AddressFormatError{
			Item:  draft.ItemShieldedRecipient,
			Index: index,
			Field: "address",
			Cause: err,
		}
	}

	if r.Amount > tx.MaxMoney {
		return zip32.OutgoingViewingKey{}, zip32.PaymentAddress{}, amountOutOfRange(draft.ItemShieldedRecipient, index, r.Amount)
	}

	return xfvk.OutgoingViewingKey(), to, nil
}

func amountOutOfRange(item string, index int, amount uint64) error {
	return &draft.DecodingError{
		Item:    item,
		Index:   index,
		Field:   "amount",
		Message: fmt.Sprintf("%d exceeds maximum %d", amount, tx.MaxMoney),
	}
}

// isDecodingFailure reports whether err was caused by malformed caller data
// rather than by the builder or prover.
func isDecodingFailure(err error) bool {
	var (
		de *draft.DecodingError
		ae *draft.AddressFormatError
		ke *draft.KeyFormatError
	)
	return errors.As(err, &de) || errors.As(err, &ae) || errors.As(err, &ke)
}
