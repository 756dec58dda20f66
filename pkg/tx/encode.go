package tx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Serialize writes the canonical v4 encoding of t to w.
func (t *Transaction) Serialize(w io.Writer) error {
	if t.Header != V4Header {
		return fmt.Errorf("unsupported header 0x%08x", t.Header)
	}
	if t.VersionGroupID != SaplingVersionGroupID {
		return fmt.Errorf("unsupported version group id 0x%08x", t.VersionGroupID)
	}

	ew := &errWriter{w: w}

	ew.writeUint32(t.Header)
	ew.writeUint32(t.VersionGroupID)

	ew.writeCompactSize(uint64(len(t.Inputs)))
	for i := range t.Inputs {
		in := &t.Inputs[i]
		ew.write(in.PrevOut.Hash[:])
		ew.writeUint32(in.PrevOut.Index)
		ew.writeVarBytes(in.ScriptSig)
		ew.writeUint32(in.Sequence)
	}

	ew.writeCompactSize(uint64(len(t.Outputs)))
	for i := range t.Outputs {
		WriteTxOut(ew, &t.Outputs[i])
	}

	ew.writeUint32(t.LockTime)
	ew.writeUint32(t.ExpiryHeight)
	ew.writeInt64(t.ValueBalance)

	// vShieldedSpend
	ew.writeCompactSize(0)

	ew.writeCompactSize(uint64(len(t.ShieldedOutputs)))
	for i := range t.ShieldedOutputs {
		WriteOutputDescription(ew, &t.ShieldedOutputs[i])
	}

	// vJoinSplit
	ew.writeCompactSize(0)

	if t.HasSaplingBundle() {
		ew.write(t.BindingSig[:])
	}

	return ew.err
}

// Bytes returns the serialized transaction.
func (t *Transaction) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TxID returns the double-SHA256 of the serialized transaction. The
// returned hash prints in the conventional reversed display order.
func TxID(raw []byte) chainhash.Hash {
	return chainhash.DoubleHashH(raw)
}

// WriteTxOut writes value || compactSize(len) || script.
func WriteTxOut(w io.Writer, out *TxOut) {
	binary.Write(w, binary.LittleEndian, out.Value)
	WriteCompactSize(w, uint64(len(out.ScriptPubKey)))
	w.Write(out.ScriptPubKey)
}

// WriteOutputDescription writes cv || cmu || epk || enc || out || proof.
func WriteOutputDescription(w io.Writer, d *OutputDescription) {
	w.Write(d.CV[:])
	w.Write(d.Cmu[:])
	w.Write(d.EphemeralKey[:])
	w.Write(d.EncCiphertext[:])
	w.Write(d.OutCiphertext[:])
	w.Write(d.Proof[:])
}

// WriteCompactSize writes a Bitcoin-style variable length integer.
func WriteCompactSize(w io.Writer, n uint64) {
	if n < 253 {
		w.Write([]byte{byte(n)})
	} else if n <= 0xFFFF {
		w.Write([]byte{253})
		binary.Write(w, binary.LittleEndian, uint16(n))
	} else if n <= 0xFFFFFFFF {
		w.Write([]byte{254})
		binary.Write(w, binary.LittleEndian, uint32(n))
	} else {
		w.Write([]byte{255})
		binary.Write(w, binary.LittleEndian, n)
	}
}

// errWriter latches the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := ew.w.Write(p)
	ew.err = err
	return n, err
}

func (ew *errWriter) write(p []byte) {
	ew.Write(p)
}

func (ew *errWriter) writeUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	ew.Write(b[:])
}

func (ew *errWriter) writeInt64(v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	ew.Write(b[:])
}

func (ew *errWriter) writeCompactSize(n uint64) {
	WriteCompactSize(ew, n)
}

func (ew *errWriter) writeVarBytes(b []byte) {
	WriteCompactSize(ew, uint64(len(b)))
	ew.Write(b)
}
