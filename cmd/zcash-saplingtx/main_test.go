package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suffix-labs/zcash-saplingtx/pkg/api"
	"github.com/suffix-labs/zcash-saplingtx/pkg/crypto"
	"github.com/suffix-labs/zcash-saplingtx/pkg/encoding"
	"github.com/suffix-labs/zcash-saplingtx/pkg/network"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	zelZAddr     = "za1w02tz80epk77ud26080v6zt3svt3uu4gzv42mdl372uwdmusu2csmqrf6k57r7jmyyge7eenppx"
	zelFVK       = "zxviewa1qveya6heqqqqpqy4cdpxtnq2nepcpu7j3zknymg8u04lsex9ttgjp0xz20drd5y38hy0dl52qhlx8gmzvkzv64uccxkjte5kgq5hyekthwjtwlj33an7d4asf8ywqlmrvp6tv6kr993tfq8ejrhenazxau3lk0qr4u7rz3yxd6fgw60hl4qnrsr3s3x0640cc90rx9czph8775sne3k9pyh0mklgqvaqvje3dhfhvs8k8zjj9wnf4556q7qh3pk6w8zucs3s53msw9q4qcvcx"
)

// run executes the CLI and returns what it printed on stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ZSAPLINGTX_LOG_LEVEL", "disabled")

	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w

	runErr := newApp().Run(append([]string{"zcash-saplingtx"}, args...))

	os.Stdout = stdout
	require.NoError(t, w.Close())
	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)

	return buf.String(), runErr
}

func mustProfile(t *testing.T, coin string) network.Profile {
	t.Helper()
	p, err := network.Resolve(coin)
	require.NoError(t, err)
	return p
}

func TestDeriveCommand(t *testing.T) {
	out, err := run(t, "derive", "--seed", "myamazingseedphrase")
	require.NoError(t, err)

	expected, err := api.DeriveAddress([]byte("myamazingseedphrase"), 32, 133, 0, "secret-extended-key-main", "zxviews", "zs")
	require.NoError(t, err)
	assert.Equal(t, expected, strings.TrimSpace(out))

	out, err = run(t, "--coin", "zel", "derive", "--seed", "myamazingseedphrase")
	require.NoError(t, err)
	var triple api.KeyTriple
	require.NoError(t, json.Unmarshal([]byte(out), &triple))
	assert.True(t, strings.HasPrefix(triple.Address, "za1"))
	assert.True(t, strings.HasPrefix(triple.ViewingKey, "zxviewa1"))
}

func TestDeriveCommandSeedFlags(t *testing.T) {
	_, err := run(t, "derive")
	var usage *invalidUsageError
	require.ErrorAs(t, err, &usage)

	_, err = run(t, "derive", "--seed", "a", "--seed-hex", "00")
	require.ErrorAs(t, err, &usage)

	_, err = run(t, "derive", "--mnemonic", "not a valid mnemonic")
	assert.ErrorIs(t, err, errInvalidMnemonic)

	_, err = run(t, "--coin", "btc", "derive", "--seed", "a")
	assert.ErrorIs(t, err, network.ErrUnknownCoin)
}

func TestSeedFromMnemonic(t *testing.T) {
	seed, err := seedFromMnemonic("  "+strings.ReplaceAll(testMnemonic, " ", "  ")+"\n", "")
	require.NoError(t, err)
	assert.Len(t, seed, 64)

	withPassphrase, err := seedFromMnemonic(testMnemonic, "TREZOR")
	require.NoError(t, err)
	assert.NotEqual(t, seed, withPassphrase)
}

func TestDeriveTransparentCommand(t *testing.T) {
	out, err := run(t, "derive-transparent", "--mnemonic", testMnemonic, "--index", "2")
	require.NoError(t, err)

	var key transparentKey
	require.NoError(t, json.Unmarshal([]byte(out), &key))

	priv, err := crypto.ParsePrivateKeyWIF(key.WIF)
	require.NoError(t, err)
	assert.Equal(t, key.PrivateKey, priv.Hex())

	addr, err := encoding.DecodeTransparentAddress(mustProfile(t, "zec"), key.Address)
	require.NoError(t, err)
	assert.Equal(t, priv.PublicKey().Hash160(), addr.Hash)
	assert.True(t, strings.HasPrefix(key.Address, "t1"))
	assert.True(t, strings.HasPrefix(key.Script, "76a914"))
}

func TestRecipientsFromURI(t *testing.T) {
	p := mustProfile(t, "zel")
	key, err := crypto.ParsePrivateKeyHex(strings.Repeat("01", 32))
	require.NoError(t, err)
	described, err := describeTransparentKey(p, key)
	require.NoError(t, err)

	uri := "zcash:?address=" + described.Address + "&amount=0.4999&address.1=" + zelZAddr + "&amount.1=0.00002"
	tRecipients, sRecipients, err := recipientsFromURI(p, uri, zelFVK)
	require.NoError(t, err)

	require.Len(t, tRecipients, 1)
	assert.Equal(t, described.Address, tRecipients[0].Address)
	assert.EqualValues(t, 49990000, tRecipients[0].Amount)

	require.Len(t, sRecipients, 1)
	assert.Equal(t, zelZAddr, sRecipients[0].Address)
	assert.Equal(t, zelFVK, sRecipients[0].ViewKey)
	assert.EqualValues(t, 2000, sRecipients[0].Amount)

	_, _, err = recipientsFromURI(p, uri, "")
	assert.ErrorContains(t, err, "--view-key")

	_, _, err = recipientsFromURI(p, "zcash:"+zelZAddr+"?amount=1&memo=aGk", zelFVK)
	assert.ErrorIs(t, err, errMemoUnsupported)

	_, _, err = recipientsFromURI(p, "zcash:"+zelZAddr, zelFVK)
	assert.Error(t, err)
}

func TestAssembleAndInspectCommands(t *testing.T) {
	p := mustProfile(t, "zec")
	key, err := crypto.ParsePrivateKeyHex(strings.Repeat("02", 32))
	require.NoError(t, err)
	described, err := describeTransparentKey(p, key)
	require.NoError(t, err)

	dir := t.TempDir()
	inputs := []api.TransparentInput{{
		PrivateKey: described.PrivateKey,
		UTXO:       strings.Repeat("ab", 32),
		VoutIndex:  1,
		Amount:     100000,
		Script:     described.Script,
	}}
	recipients := []api.TransparentRecipient{{Address: described.Address, Amount: 99000}}
	writeJSON(t, filepath.Join(dir, "inputs.json"), inputs)
	writeJSON(t, filepath.Join(dir, "transparent.json"), recipients)

	out, err := run(t, "assemble",
		"--inputs", filepath.Join(dir, "inputs.json"),
		"--transparent", filepath.Join(dir, "transparent.json"),
		"--height", "2000000",
		"--json",
	)
	require.NoError(t, err)

	var result assembleResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.EqualValues(t, 1000, result.Fee)

	out, err = run(t, "inspect", result.Hex)
	require.NoError(t, err)

	var summary txSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, result.TxID, summary.TxID)
	assert.Equal(t, "0x80000004", summary.Header)
	assert.Equal(t, "0x892f2085", summary.VersionGroupID)
	assert.EqualValues(t, 2000020, summary.ExpiryHeight)
	require.Len(t, summary.Inputs, 1)
	assert.Equal(t, strings.Repeat("ab", 32), summary.Inputs[0].TxID)
	assert.EqualValues(t, 1, summary.Inputs[0].Vout)
	require.Len(t, summary.Outputs, 1)
	assert.Equal(t, "0.00099000", summary.Outputs[0].Value)
	assert.Equal(t, described.Address, summary.Outputs[0].Address)
	assert.Equal(t, "0.00000000", summary.ValueBalance)
	assert.Empty(t, summary.ShieldedOutputs)
}

func TestAssembleCommandNeedsParamsForShieldedOutputs(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ZSAPLINGTX_PARAMS_DIR", dir)

	writeJSON(t, filepath.Join(dir, "inputs.json"), []api.TransparentInput{})
	writeJSON(t, filepath.Join(dir, "shielded.json"), []api.ShieldedRecipient{{ViewKey: zelFVK, Address: zelZAddr, Amount: 1}})

	_, err := run(t, "--coin", "zel", "assemble",
		"--inputs", filepath.Join(dir, "inputs.json"),
		"--shielded", filepath.Join(dir, "shielded.json"),
		"--height", "100",
	)
	assert.ErrorContains(t, err, "PARAMS_UNAVAILABLE")
}

func TestParseURICommand(t *testing.T) {
	out, err := run(t, "parse-uri", "zcash:t1UPSwfMYLe18ezbCqnR5QgdJGznzCUYHkj?amount=1.5&label=coffee")
	require.NoError(t, err)

	var payments []paymentSummary
	require.NoError(t, json.Unmarshal([]byte(out), &payments))
	require.Len(t, payments, 1)
	assert.Equal(t, "1.50000000", payments[0].Amount)
	require.NotNil(t, payments[0].Zatoshis)
	assert.EqualValues(t, 150000000, *payments[0].Zatoshis)
	require.NotNil(t, payments[0].Label)
	assert.Equal(t, "coffee", *payments[0].Label)

	_, err = run(t, "parse-uri")
	var usage *invalidUsageError
	assert.ErrorAs(t, err, &usage)
}

func writeJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
}
