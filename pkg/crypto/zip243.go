package crypto

import (
	"encoding/binary"
	"fmt"
	"hash"

	blake2b "github.com/minio/blake2b-simd"
	"github.com/suffix-labs/zcash-saplingtx/pkg/tx"
)

// Signature hash types.
const (
	SighashAll          uint8 = 0x01
	SighashNone         uint8 = 0x02
	SighashSingle       uint8 = 0x03
	SighashAnyoneCanPay uint8 = 0x80

	sighashMask uint8 = 0x1f
)

// ZIP 243 personalization strings.
const (
	SigHashPersonalizationPrefix = "ZcashSigHash"

	PrevoutsHashPersonalization        = "ZcashPrevoutHash"
	SequenceHashPersonalization        = "ZcashSequencHash"
	OutputsHashPersonalization         = "ZcashOutputsHash"
	ShieldedOutputsHashPersonalization = "ZcashSOutputHash"
)

// SigningInput identifies the transparent input being signed. A nil
// *SigningInput asks for the shielded signature hash used by the binding
// signature.
type SigningInput struct {
	Index      int
	ScriptCode []byte
	Value      uint64
}

// blake2bNew256 creates a BLAKE2b-256 hash with the given personalization.
// The personalization is a separate parameter, not a key.
func blake2bNew256(personalization []byte) hash.Hash {
	h, err := blake2b.New(&blake2b.Config{Size: 32, Person: personalization})
	if err != nil {
		// Only reachable with a personalization longer than 16 bytes.
		panic(err)
	}
	return h
}

func sum256(h hash.Hash) [32]byte {
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// SignatureHash computes the ZIP 243 signature hash of a v4 transaction
// under the given consensus branch.
func SignatureHash(t *tx.Transaction, branchID uint32, in *SigningInput, hashType uint8) ([32]byte, error) {
	base := hashType & sighashMask
	if base < SighashAll || base > SighashSingle {
		return [32]byte{}, fmt.Errorf("unsupported sighash type 0x%02x", hashType)
	}
	if in != nil && (in.Index < 0 || in.Index >= len(t.Inputs)) {
		return [32]byte{}, fmt.Errorf("input index %d out of range (%d inputs)", in.Index, len(t.Inputs))
	}
	anyoneCanPay := hashType&SighashAnyoneCanPay != 0

	personalization := make([]byte, 16)
	copy(personalization, SigHashPersonalizationPrefix)
	binary.LittleEndian.PutUint32(personalization[12:], branchID)
	h := blake2bNew256(personalization)

	binary.Write(h, binary.LittleEndian, t.Header)
	binary.Write(h, binary.LittleEndian, t.VersionGroupID)

	var zero [32]byte

	if anyoneCanPay {
		h.Write(zero[:])
	} else {
		d := prevoutsHash(t.Inputs)
		h.Write(d[:])
	}

	if anyoneCanPay || base != SighashAll {
		h.Write(zero[:])
	} else {
		d := sequenceHash(t.Inputs)
		h.Write(d[:])
	}

	switch {
	case base != SighashSingle && base != SighashNone:
		d := outputsHash(t.Outputs)
		h.Write(d[:])
	case base == SighashSingle && in != nil && in.Index < len(t.Outputs):
		d := outputsHash(t.Outputs[in.Index : in.Index+1])
		h.Write(d[:])
	default:
		h.Write(zero[:])
	}

	// JoinSplits and shielded spends are never present.
	h.Write(zero[:])
	h.Write(zero[:])

	if len(t.ShieldedOutputs) > 0 {
		d := shieldedOutputsHash(t.ShieldedOutputs)
		h.Write(d[:])
	} else {
		h.Write(zero[:])
	}

	binary.Write(h, binary.LittleEndian, t.LockTime)
	binary.Write(h, binary.LittleEndian, t.ExpiryHeight)
	binary.Write(h, binary.LittleEndian, t.ValueBalance)
	binary.Write(h, binary.LittleEndian, uint32(hashType))

	if in != nil {
		txin := &t.Inputs[in.Index]
		h.Write(txin.PrevOut.Hash[:])
		binary.Write(h, binary.LittleEndian, txin.PrevOut.Index)
		tx.WriteCompactSize(h, uint64(len(in.ScriptCode)))
		h.Write(in.ScriptCode)
		binary.Write(h, binary.LittleEndian, in.Value)
		binary.Write(h, binary.LittleEndian, txin.Sequence)
	}

	return sum256(h), nil
}

// ShieldedSignatureHash is the SIGHASH_ALL hash with no transparent input,
// signed by the binding signature.
func ShieldedSignatureHash(t *tx.Transaction, branchID uint32) ([32]byte, error) {
	return SignatureHash(t, branchID, nil, SighashAll)
}

func prevoutsHash(inputs []tx.TxIn) [32]byte {
	h := blake2bNew256([]byte(PrevoutsHashPersonalization))
	for i := range inputs {
		h.Write(inputs[i].PrevOut.Hash[:])
		binary.Write(h, binary.LittleEndian, inputs[i].PrevOut.Index)
	}
	return sum256(h)
}

func sequenceHash(inputs []tx.TxIn) [32]byte {
	h := blake2bNew256([]byte(SequenceHashPersonalization))
	for i := range inputs {
		binary.Write(h, binary.LittleEndian, inputs[i].Sequence)
	}
	return sum256(h)
}

func outputsHash(outputs []tx.TxOut) [32]byte {
	h := blake2bNew256([]byte(OutputsHashPersonalization))
	for i := range outputs {
		tx.WriteTxOut(h, &outputs[i])
	}
	return sum256(h)
}

func shieldedOutputsHash(outputs []tx.OutputDescription) [32]byte {
	h := blake2bNew256([]byte(ShieldedOutputsHashPersonalization))
	for i := range outputs {
		tx.WriteOutputDescription(h, &outputs[i])
	}
	return sum256(h)
}
