package api

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suffix-labs/zcash-saplingtx/internal/provertest"
	"github.com/suffix-labs/zcash-saplingtx/pkg/crypto"
	"github.com/suffix-labs/zcash-saplingtx/pkg/draft"
	"github.com/suffix-labs/zcash-saplingtx/pkg/encoding"
	"github.com/suffix-labs/zcash-saplingtx/pkg/ffi"
	"github.com/suffix-labs/zcash-saplingtx/pkg/network"
	"github.com/suffix-labs/zcash-saplingtx/pkg/prover"
	"github.com/suffix-labs/zcash-saplingtx/pkg/tx"
)

const (
	alternateZAddr = "za1w02tz80epk77ud26080v6zt3svt3uu4gzv42mdl372uwdmusu2csmqrf6k57r7jmyyge7eenppx"
	alternateFVK   = "zxviewa1qveya6heqqqqpqy4cdpxtnq2nepcpu7j3zknymg8u04lsex9ttgjp0xz20drd5y38hy0dl52qhlx8gmzvkzv64uccxkjte5kgq5hyekthwjtwlj33an7d4asf8ywqlmrvp6tv6kr993tfq8ejrhenazxau3lk0qr4u7rz3yxd6fgw60hl4qnrsr3s3x0640cc90rx9czph8775sne3k9pyh0mklgqvaqvje3dhfhvs8k8zjj9wnf4556q7qh3pk6w8zucs3s53msw9q4qcvcx"

	scenarioHeight = 756504
	scenarioUTXO   = "4d6b4f7d2d0f1b3e8e1c9a6b0c5d2e7f8a9b0c1d2e3f4a5b6c7d8e9f0a1b2c3d"
	scenarioKeyHex = "112233445566778899aabbccddeeff00112233445566778899aabbccddeeff01"
)

type fixture struct {
	profile network.Profile
	key     *crypto.PrivateKey
	script  []byte
	tAddr   string
}

func newFixture(t *testing.T, coin string) fixture {
	t.Helper()
	profile, err := network.Resolve(coin)
	require.NoError(t, err)

	key, err := crypto.ParsePrivateKeyHex(scenarioKeyHex)
	require.NoError(t, err)

	addr := encoding.TransparentAddress{Kind: encoding.PubKeyHash, Hash: key.PublicKey().Hash160()}
	script, err := addr.Script()
	require.NoError(t, err)

	return fixture{
		profile: profile,
		key:     key,
		script:  script,
		tAddr:   encoding.EncodeTransparentAddress(profile, addr),
	}
}

func (f fixture) input(utxo string, vout uint32, amount uint64) TransparentInput {
	return TransparentInput{
		PrivateKey: scenarioKeyHex,
		UTXO:       utxo,
		VoutIndex:  vout,
		Amount:     amount,
		Script:     hex.EncodeToString(f.script),
	}
}

func TestAssembleScenario(t *testing.T) {
	f := newFixture(t, "alternate")
	p := provertest.New()

	assembled, err := NewAssembler(p, Options{}).Assemble(
		[]TransparentInput{f.input(scenarioUTXO, 0, 50000000)},
		[]TransparentRecipient{{Address: f.tAddr, Amount: 49997000}},
		[]ShieldedRecipient{{ViewKey: alternateFVK, Address: alternateZAddr, Amount: 2000}},
		scenarioHeight,
		"alternate",
	)
	require.NoError(t, err)

	assert.Equal(t, uint64(1000), assembled.Fee)
	assert.Equal(t, hex.EncodeToString(assembled.Raw), assembled.Hex)
	assert.Equal(t, tx.TxID(assembled.Raw).String(), assembled.TxID)

	parsed, err := tx.Parse(assembled.Raw)
	require.NoError(t, err)
	assert.Equal(t, tx.V4Header, parsed.Header)
	assert.Equal(t, tx.SaplingVersionGroupID, parsed.VersionGroupID)
	assert.Equal(t, uint32(scenarioHeight+20), parsed.ExpiryHeight)
	assert.Equal(t, uint32(0), parsed.LockTime)
	assert.Equal(t, int64(-2000), parsed.ValueBalance)
	require.Len(t, parsed.Inputs, 1)
	require.Len(t, parsed.Outputs, 1)
	require.Len(t, parsed.ShieldedOutputs, 1)
	assert.Equal(t, uint64(49997000), parsed.Outputs[0].Value)
	assert.Equal(t, f.script, parsed.Outputs[0].ScriptPubKey)

	// utxo is given in display order and stored reversed.
	raw, err := hex.DecodeString(scenarioUTXO)
	require.NoError(t, err)
	assert.Equal(t, raw[31], parsed.Inputs[0].PrevOut.Hash[0])
	assert.Equal(t, scenarioUTXO, parsed.Inputs[0].PrevOut.Hash.String())

	// header + one P2PKH input + one P2PKH output + one output description
	// + binding signature.
	scriptSigLen := len(parsed.Inputs[0].ScriptSig)
	want := 29 + (32 + 4 + 1 + scriptSigLen + 4) + (8 + 1 + 25) + tx.OutputDescriptionSize + tx.BindingSigSize
	assert.Equal(t, want, len(assembled.Raw))
	assert.Equal(t, 2*want, len(assembled.Hex))

	// The signature commits to the alternate network's branch id.
	pushes, err := txscript.PushedData(parsed.Inputs[0].ScriptSig)
	require.NoError(t, err)
	require.Len(t, pushes, 2)
	sig := pushes[0]
	assert.Equal(t, crypto.SighashAll, sig[len(sig)-1])
	pub, err := crypto.ParsePublicKey(pushes[1])
	require.NoError(t, err)

	in := &crypto.SigningInput{Index: 0, ScriptCode: f.script, Value: 50000000}
	sapling, err := crypto.SignatureHash(parsed, network.BranchIDSapling, in, crypto.SighashAll)
	require.NoError(t, err)
	canopy, err := crypto.SignatureHash(parsed, network.BranchIDCanopy, in, crypto.SighashAll)
	require.NoError(t, err)
	assert.True(t, crypto.VerifySignature(pub, sapling, sig[:len(sig)-1]))
	assert.False(t, crypto.VerifySignature(pub, canopy, sig[:len(sig)-1]))

	stats := p.Stats()
	assert.Equal(t, 1, stats.Contexts)
	assert.Equal(t, 1, stats.ClosedContexts)
	assert.Equal(t, 1, stats.Outputs)
	assert.Equal(t, 1, stats.Bindings)
	assert.False(t, stats.Closed)
}

func TestAssembleDeterministicWithCannedProver(t *testing.T) {
	f := newFixture(t, "zel")
	assemble := func() string {
		assembled, err := NewAssembler(provertest.New(), Options{}).Assemble(
			[]TransparentInput{f.input(scenarioUTXO, 1, 10000)},
			nil,
			[]ShieldedRecipient{{ViewKey: alternateFVK, Address: alternateZAddr, Amount: 9000}},
			scenarioHeight,
			"zel",
		)
		require.NoError(t, err)
		return assembled.Hex
	}
	assert.Equal(t, assemble(), assemble())
}

func TestAssembleTransparentOnly(t *testing.T) {
	f := newFixture(t, "zec")
	p := provertest.New()

	assembled, err := NewAssembler(p, Options{}).Assemble(
		[]TransparentInput{f.input(scenarioUTXO, 0, 100000)},
		[]TransparentRecipient{{Address: f.tAddr, Amount: 90000}},
		nil,
		1000000,
		"ZEC",
	)
	require.NoError(t, err)
	assert.Equal(t, uint64(10000), assembled.Fee)
	assert.False(t, assembled.Transaction.HasSaplingBundle())
	assert.Zero(t, p.Stats().Contexts, "no proving context without shielded outputs")
}

func TestAssembleEmptyDraft(t *testing.T) {
	assembled, err := NewAssembler(nil, Options{}).Assemble(nil, nil, nil, 100, "zec")
	require.NoError(t, err)
	assert.Len(t, assembled.Raw, 29)
	assert.Zero(t, assembled.Fee)
}

func TestAssembleInsufficientFunds(t *testing.T) {
	f := newFixture(t, "zel")
	p := provertest.New()

	assembled, err := NewAssembler(p, Options{}).Assemble(
		[]TransparentInput{f.input(scenarioUTXO, 0, 1000)},
		[]TransparentRecipient{{Address: f.tAddr, Amount: 500}},
		[]ShieldedRecipient{{ViewKey: alternateFVK, Address: alternateZAddr, Amount: 501}},
		scenarioHeight,
		"zel",
	)
	assert.Nil(t, assembled)
	var be *draft.BuilderError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, draft.ErrInsufficientFunds, be.Code)
	assert.Zero(t, p.Stats().Outputs, "nothing is proved before the balance check")
}

func TestAssembleDecodingErrors(t *testing.T) {
	f := newFixture(t, "zel")
	good := f.input(scenarioUTXO, 0, 10000)

	tests := []struct {
		name   string
		mutate func(in *TransparentInput)
		field  string
	}{
		{"bad key hex", func(in *TransparentInput) { in.PrivateKey = "zz" }, "private_key"},
		{"zero key", func(in *TransparentInput) { in.PrivateKey = strings.Repeat("00", 32) }, "private_key"},
		{"short utxo", func(in *TransparentInput) { in.UTXO = "abcd" }, "utxo"},
		{"utxo not hex", func(in *TransparentInput) { in.UTXO = strings.Repeat("g", 64) }, "utxo"},
		{"script not hex", func(in *TransparentInput) { in.Script = "0x76" }, "script"},
		{"amount above max", func(in *TransparentInput) { in.Amount = tx.MaxMoney + 1 }, "amount"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			second := good
			second.VoutIndex = 1
			tc.mutate(&second)

			_, err := NewAssembler(nil, Options{}).Assemble(
				[]TransparentInput{good, second}, nil, nil, scenarioHeight, "zel")

			var de *draft.DecodingError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, draft.ItemTransparentInput, de.Item)
			assert.Equal(t, 1, de.Index)
			assert.Equal(t, tc.field, de.Field)
		})
	}
}

func TestAssembleBuilderRejectsInputs(t *testing.T) {
	f := newFixture(t, "zel")
	in := f.input(scenarioUTXO, 0, 10000)

	_, err := NewAssembler(nil, Options{}).Assemble([]TransparentInput{in, in}, nil, nil, scenarioHeight, "zel")
	var be *draft.BuilderError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, draft.ErrDuplicateOutpoint, be.Code)
	assert.Equal(t, 1, be.Index)

	p2sh := in
	p2sh.Script = "a914" + strings.Repeat("11", 20) + "87"
	_, err = NewAssembler(nil, Options{}).Assemble([]TransparentInput{p2sh}, nil, nil, scenarioHeight, "zel")
	require.ErrorAs(t, err, &be)
	assert.Equal(t, draft.ErrUnsupportedScript, be.Code)
}

func TestAssembleCrossNetworkStrings(t *testing.T) {
	f := newFixture(t, "zec")
	in := f.input(scenarioUTXO, 0, 10000)

	// Alternate network Sapling strings under the primary profile.
	_, err := NewAssembler(provertest.New(), Options{}).Assemble(
		[]TransparentInput{in}, nil,
		[]ShieldedRecipient{{ViewKey: alternateFVK, Address: alternateZAddr, Amount: 1000}},
		scenarioHeight, "zec")
	var ke *draft.KeyFormatError
	require.ErrorAs(t, err, &ke)
	assert.Equal(t, "view_key", ke.Field)

	var fe *encoding.FormatError
	assert.ErrorAs(t, err, &fe)

	// A testnet transparent address under the primary profile.
	testnet := newFixture(t, "taz")
	_, err = NewAssembler(nil, Options{}).Assemble(
		[]TransparentInput{in},
		[]TransparentRecipient{{Address: testnet.tAddr, Amount: 1000}},
		nil, scenarioHeight, "zec")
	var ae *draft.AddressFormatError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, draft.ItemTransparentRecipient, ae.Item)
	assert.Equal(t, 0, ae.Index)
	assert.Equal(t, "address", ae.Field)
}

func TestAssembleRecipientAmountOutOfRange(t *testing.T) {
	f := newFixture(t, "zel")
	_, err := NewAssembler(nil, Options{}).Assemble(
		[]TransparentInput{f.input(scenarioUTXO, 0, 10000)},
		[]TransparentRecipient{{Address: f.tAddr, Amount: tx.MaxMoney + 1}},
		nil, scenarioHeight, "zel")

	var de *draft.DecodingError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "amount", de.Field)
	assert.Equal(t, draft.ItemTransparentRecipient, de.Item)
}

func TestAssembleUnknownCoin(t *testing.T) {
	_, err := NewAssembler(nil, Options{}).Assemble(nil, nil, nil, scenarioHeight, "btc")
	var de *draft.DecodingError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, draft.ItemRequest, de.Item)
	assert.Equal(t, "coin", de.Field)
	assert.ErrorIs(t, err, network.ErrUnknownCoin)

	// Lenient mode falls back to the primary network.
	f := newFixture(t, "zec")
	assembled, err := NewAssembler(nil, Options{LenientCoin: true}).Assemble(
		[]TransparentInput{f.input(scenarioUTXO, 0, 10000)},
		[]TransparentRecipient{{Address: f.tAddr, Amount: 9000}},
		nil, scenarioHeight, "btc")
	require.NoError(t, err)

	in := &crypto.SigningInput{Index: 0, ScriptCode: f.script, Value: 10000}
	sighash, err := crypto.SignatureHash(assembled.Transaction, network.BranchIDCanopy, in, crypto.SighashAll)
	require.NoError(t, err)
	pushes, err := txscript.PushedData(assembled.Transaction.Inputs[0].ScriptSig)
	require.NoError(t, err)
	sig := pushes[0]
	assert.True(t, crypto.VerifySignature(f.key.PublicKey(), sighash, sig[:len(sig)-1]))
}

func TestAssembleExpiryOutOfRange(t *testing.T) {
	_, err := NewAssembler(nil, Options{}).Assemble(nil, nil, nil, tx.ExpiryHeightThreshold-10, "zec")
	var be *draft.BuilderError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, draft.ErrExpiryOutOfRange, be.Code)
}

func TestAssembleProverFailures(t *testing.T) {
	f := newFixture(t, "zel")
	inputs := []TransparentInput{f.input(scenarioUTXO, 0, 10000)}
	recipients := []ShieldedRecipient{
		{ViewKey: alternateFVK, Address: alternateZAddr, Amount: 1000},
		{ViewKey: alternateFVK, Address: alternateZAddr, Amount: 2000},
	}

	t.Run("no prover", func(t *testing.T) {
		_, err := NewAssembler(nil, Options{}).Assemble(inputs, nil, recipients, scenarioHeight, "zel")
		var pe *draft.ProofGenerationError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, draft.ErrParamsUnavailable, pe.Code)
	})

	t.Run("context", func(t *testing.T) {
		p := &provertest.Prover{FailContext: true}
		_, err := NewAssembler(p, Options{}).Assemble(inputs, nil, recipients, scenarioHeight, "zel")
		var pe *draft.ProofGenerationError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, draft.ErrParamsUnavailable, pe.Code)
		assert.ErrorIs(t, err, provertest.ErrInjected)
	})

	t.Run("second output", func(t *testing.T) {
		p := &provertest.Prover{FailOutput: 2}
		assembled, err := NewAssembler(p, Options{}).Assemble(inputs, nil, recipients, scenarioHeight, "zel")
		assert.Nil(t, assembled)
		var pe *draft.ProofGenerationError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, draft.ErrProofCreationFailed, pe.Code)
		assert.Equal(t, 1, pe.Index)

		stats := p.Stats()
		assert.Equal(t, stats.Contexts, stats.ClosedContexts, "context released on failure")
	})

	t.Run("binding signature", func(t *testing.T) {
		p := &provertest.Prover{FailBinding: true}
		_, err := NewAssembler(p, Options{}).Assemble(inputs, nil, recipients, scenarioHeight, "zel")
		var pe *draft.ProofGenerationError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, -1, pe.Index)
		assert.Equal(t, p.Stats().Contexts, p.Stats().ClosedContexts)
	})
}

func TestAssembleTransactionLoaderLifecycle(t *testing.T) {
	f := newFixture(t, "zel")
	inputs := []TransparentInput{f.input(scenarioUTXO, 0, 50000000)}
	tRecipients := []TransparentRecipient{{Address: f.tAddr, Amount: 49997000}}
	sRecipients := []ShieldedRecipient{{ViewKey: alternateFVK, Address: alternateZAddr, Amount: 2000}}

	original := ProverLoader
	t.Cleanup(func() { ProverLoader = original })

	var loaded *provertest.Prover
	loads := 0
	ProverLoader = func(spend, output []byte) (prover.Prover, error) {
		loads++
		if err := (prover.Params{Spend: spend, Output: output}).Validate(); err != nil {
			return nil, err
		}
		loaded = provertest.New()
		return loaded, nil
	}

	hexTx, err := AssembleTransaction(inputs, tRecipients, sRecipients, scenarioHeight, "alternate", []byte{1}, []byte{2})
	require.NoError(t, err)
	assert.NotEmpty(t, hexTx)
	assert.Equal(t, 1, loads)
	assert.True(t, loaded.Stats().Closed, "prover released after success")

	// Failure after loading still releases the prover.
	_, err = AssembleTransaction(inputs, tRecipients, sRecipients, scenarioHeight, "btc", []byte{1}, []byte{2})
	require.Error(t, err)
	assert.True(t, loaded.Stats().Closed, "prover released after failure")

	_, err = AssembleTransaction(inputs, tRecipients, sRecipients, scenarioHeight, "alternate", nil, []byte{2})
	var pe *draft.ProofGenerationError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, draft.ErrParamsUnavailable, pe.Code)
	assert.ErrorIs(t, err, prover.ErrEmptySpendParams)

	// No shielded recipients, no prover, even with missing parameters.
	loads = 0
	hexTx, err = AssembleTransaction(inputs, tRecipients, nil, scenarioHeight, "alternate", nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, hexTx)
	assert.Zero(t, loads)
}

func TestAssembleTransactionSkipsProverWithoutShieldedRecipients(t *testing.T) {
	original := ProverLoader
	t.Cleanup(func() { ProverLoader = original })
	ProverLoader = func(spend, output []byte) (prover.Prover, error) {
		t.Fatal("prover loaded for a transaction without shielded outputs")
		return nil, nil
	}

	hexTx, err := AssembleTransaction(nil, nil, nil, 100, "zec", nil, nil)
	require.NoError(t, err)
	assert.Len(t, hexTx, 2*29)

	f := newFixture(t, "zec")
	hexTx, err = AssembleTransaction(
		[]TransparentInput{f.input(scenarioUTXO, 0, 100000)},
		[]TransparentRecipient{{Address: f.tAddr, Amount: 90000}},
		nil,
		1000000,
		"zec",
		nil, nil,
	)
	require.NoError(t, err)
	raw, err := hex.DecodeString(hexTx)
	require.NoError(t, err)
	parsed, err := tx.Parse(raw)
	require.NoError(t, err)
	assert.False(t, parsed.HasSaplingBundle())
}

func TestAssembleTransactionWithoutNativeProver(t *testing.T) {
	f := newFixture(t, "zel")
	_, err := AssembleTransaction(
		[]TransparentInput{f.input(scenarioUTXO, 0, 50000000)},
		nil,
		[]ShieldedRecipient{{ViewKey: alternateFVK, Address: alternateZAddr, Amount: 2000}},
		scenarioHeight,
		"zel",
		[]byte{1}, []byte{2},
	)
	if err == nil {
		t.Skip("native prover linked into this build")
	}
	var pe *draft.ProofGenerationError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, draft.ErrParamsUnavailable, pe.Code)
	assert.True(t, errors.Is(err, ffi.ErrUnavailable))
}
