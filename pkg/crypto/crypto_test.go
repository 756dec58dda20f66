package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suffix-labs/zcash-saplingtx/pkg/network"
	"github.com/suffix-labs/zcash-saplingtx/pkg/tx"
)

const testKeyHex = "0000000000000000000000000000000000000000000000000000000000000001"

func TestPrivateKeyParsing(t *testing.T) {
	key, err := ParsePrivateKeyHex(testKeyHex)
	require.NoError(t, err)
	assert.Equal(t, testKeyHex, key.Hex())

	// Generator point G, compressed.
	assert.Equal(t,
		"0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798",
		hex.EncodeToString(key.PublicKey().Bytes()))

	tests := []struct {
		name string
		in   string
	}{
		{"zero", "0000000000000000000000000000000000000000000000000000000000000000"},
		{"group order", "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141"},
		{"above order", "ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePrivateKeyHex(tt.in)
			assert.ErrorIs(t, err, ErrInvalidScalar)
		})
	}

	_, err = ParsePrivateKeyHex("abcd")
	assert.ErrorContains(t, err, "32 bytes")
	_, err = ParsePrivateKeyHex("zz")
	assert.ErrorContains(t, err, "invalid hex")
}

func TestWIFRoundTrip(t *testing.T) {
	key, err := ParsePrivateKeyHex(testKeyHex)
	require.NoError(t, err)

	for _, compressed := range []bool{true, false} {
		for _, testnet := range []bool{true, false} {
			wif, err := EncodeWIF(key.Bytes(), compressed, testnet)
			require.NoError(t, err)

			parsed, err := ParsePrivateKeyWIF(wif)
			require.NoError(t, err)
			assert.Equal(t, key.Bytes(), parsed.Bytes())
		}
	}

	// Well-known compressed mainnet WIF for k = 1.
	wif, err := EncodeWIF(key.Bytes(), true, false)
	require.NoError(t, err)
	assert.Equal(t, "KwDiBf89QgGbjEhKnhXJuH7LrciVrZi3qYjgd9M7rFU73sVHnoWn", wif)

	corrupted := []byte(wif)
	corrupted[10] ^= 0x01
	_, err = ParsePrivateKeyWIF(string(corrupted))
	assert.Error(t, err)
}

func TestSignAndVerify(t *testing.T) {
	key, err := ParsePrivateKeyHex(testKeyHex)
	require.NoError(t, err)

	digest := [32]byte{1, 2, 3}
	sig, err := key.Sign(digest)
	require.NoError(t, err)

	pub, err := ParsePublicKey(key.PublicKey().Bytes())
	require.NoError(t, err)
	assert.True(t, VerifySignature(pub, digest, sig))

	digest[0] ^= 0xff
	assert.False(t, VerifySignature(pub, digest, sig))
	assert.False(t, VerifySignature(pub, digest, []byte{0x30, 0x00}))
}

func TestHash160MatchesAddressScript(t *testing.T) {
	key, err := ParsePrivateKeyHex(testKeyHex)
	require.NoError(t, err)

	h := key.PublicKey().Hash160()
	script, err := txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).AddOp(txscript.OP_HASH160).AddData(h[:]).
		AddOp(txscript.OP_EQUALVERIFY).AddOp(txscript.OP_CHECKSIG).Script()
	require.NoError(t, err)
	assert.Equal(t, txscript.PubKeyHashTy, txscript.GetScriptClass(script))
	// RIPEMD160(SHA256(G)) is a fixed, widely published value.
	assert.Equal(t, "751e76e8199196d454941c45d1b3a323f1433bd6", hex.EncodeToString(h[:]))
}

func TestDeriveTransparentKey(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, 32)

	a, err := DeriveTransparentKey(seed, 133, 0, 0)
	require.NoError(t, err)
	b, err := DeriveTransparentKey(seed, 133, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, a.Bytes(), b.Bytes())

	c, err := DeriveTransparentKey(seed, 133, 0, 1)
	require.NoError(t, err)
	assert.NotEqual(t, a.Bytes(), c.Bytes())

	_, err = DeriveTransparentKey(seed, 1<<31, 0, 0)
	assert.Error(t, err)
}

func sampleTx() *tx.Transaction {
	t := &tx.Transaction{
		Header:         tx.V4Header,
		VersionGroupID: tx.SaplingVersionGroupID,
		Inputs: []tx.TxIn{
			{PrevOut: tx.OutPoint{Hash: [32]byte{0xaa}, Index: 0}, Sequence: tx.DefaultSequence},
			{PrevOut: tx.OutPoint{Hash: [32]byte{0xbb}, Index: 3}, Sequence: tx.DefaultSequence},
		},
		Outputs: []tx.TxOut{
			{Value: 1000, ScriptPubKey: []byte{0x76, 0xa9}},
		},
		ExpiryHeight: 756524,
		ValueBalance: -2000,
	}
	t.ShieldedOutputs = []tx.OutputDescription{{CV: [32]byte{7}}}
	return t
}

func TestSignatureHashCommitments(t *testing.T) {
	base := sampleTx()
	in := &SigningInput{Index: 0, ScriptCode: []byte{0x76, 0xa9, 0x14}, Value: 50000000}

	all, err := SignatureHash(base, network.BranchIDSapling, in, SighashAll)
	require.NoError(t, err)

	again, err := SignatureHash(sampleTx(), network.BranchIDSapling, in, SighashAll)
	require.NoError(t, err)
	assert.Equal(t, all, again)

	t.Run("branch id", func(t *testing.T) {
		h, err := SignatureHash(base, network.BranchIDCanopy, in, SighashAll)
		require.NoError(t, err)
		assert.NotEqual(t, all, h)
	})

	t.Run("input value", func(t *testing.T) {
		other := *in
		other.Value++
		h, err := SignatureHash(base, network.BranchIDSapling, &other, SighashAll)
		require.NoError(t, err)
		assert.NotEqual(t, all, h)
	})

	t.Run("input index", func(t *testing.T) {
		other := *in
		other.Index = 1
		h, err := SignatureHash(base, network.BranchIDSapling, &other, SighashAll)
		require.NoError(t, err)
		assert.NotEqual(t, all, h)
	})

	t.Run("shielded outputs", func(t *testing.T) {
		mod := sampleTx()
		mod.ShieldedOutputs[0].Proof[0] = 1
		h, err := SignatureHash(mod, network.BranchIDSapling, in, SighashAll)
		require.NoError(t, err)
		assert.NotEqual(t, all, h)
	})

	t.Run("none ignores transparent outputs", func(t *testing.T) {
		none, err := SignatureHash(base, network.BranchIDSapling, in, SighashNone)
		require.NoError(t, err)

		mod := sampleTx()
		mod.Outputs[0].Value = 1
		h, err := SignatureHash(mod, network.BranchIDSapling, in, SighashNone)
		require.NoError(t, err)
		assert.Equal(t, none, h)
		assert.NotEqual(t, all, none)
	})

	t.Run("anyone can pay ignores other inputs", func(t *testing.T) {
		acp, err := SignatureHash(base, network.BranchIDSapling, in, SighashAll|SighashAnyoneCanPay)
		require.NoError(t, err)

		mod := sampleTx()
		mod.Inputs[1].PrevOut.Index = 9
		h, err := SignatureHash(mod, network.BranchIDSapling, in, SighashAll|SighashAnyoneCanPay)
		require.NoError(t, err)
		assert.Equal(t, acp, h)
	})

	t.Run("single without matching output", func(t *testing.T) {
		other := *in
		other.Index = 1
		h1, err := SignatureHash(base, network.BranchIDSapling, &other, SighashSingle)
		require.NoError(t, err)

		mod := sampleTx()
		mod.Outputs[0].Value = 1
		h2, err := SignatureHash(mod, network.BranchIDSapling, &other, SighashSingle)
		require.NoError(t, err)
		assert.Equal(t, h1, h2)
	})
}

func TestShieldedSignatureHash(t *testing.T) {
	base := sampleTx()
	shielded, err := ShieldedSignatureHash(base, network.BranchIDSapling)
	require.NoError(t, err)

	perInput, err := SignatureHash(base, network.BranchIDSapling,
		&SigningInput{Index: 0, ScriptCode: []byte{0x76}, Value: 1}, SighashAll)
	require.NoError(t, err)
	assert.NotEqual(t, shielded, perInput)

	// The binding signature does not commit to itself.
	base.BindingSig[0] = 0xff
	again, err := ShieldedSignatureHash(base, network.BranchIDSapling)
	require.NoError(t, err)
	assert.Equal(t, shielded, again)
}

func TestSignatureHashRejects(t *testing.T) {
	base := sampleTx()

	_, err := SignatureHash(base, network.BranchIDSapling, &SigningInput{Index: 2}, SighashAll)
	assert.ErrorContains(t, err, "out of range")

	_, err = SignatureHash(base, network.BranchIDSapling, nil, 0x04)
	assert.ErrorContains(t, err, "unsupported sighash type")
}
