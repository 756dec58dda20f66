package tx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// maxPreallocate bounds slice preallocation from untrusted counts.
const maxPreallocate = 1 << 12

// Parse decodes a v4 transaction. Transactions with shielded spends or
// JoinSplits are rejected, as are trailing bytes.
func Parse(data []byte) (*Transaction, error) {
	r := bytes.NewReader(data)
	t := &Transaction{}

	if err := binary.Read(r, binary.LittleEndian, &t.Header); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if t.Header>>31 == 0 {
		return nil, fmt.Errorf("not an overwintered transaction (header=0x%08x)", t.Header)
	}
	if t.Header != V4Header {
		return nil, fmt.Errorf("not a v4 transaction (version=%d)", t.Header&0x7FFFFFFF)
	}

	if err := binary.Read(r, binary.LittleEndian, &t.VersionGroupID); err != nil {
		return nil, fmt.Errorf("reading version_group_id: %w", err)
	}
	if t.VersionGroupID != SaplingVersionGroupID {
		return nil, fmt.Errorf("unexpected version_group_id 0x%08x", t.VersionGroupID)
	}

	if err := parseTransparent(r, t); err != nil {
		return nil, fmt.Errorf("parsing transparent bundle: %w", err)
	}

	if err := binary.Read(r, binary.LittleEndian, &t.LockTime); err != nil {
		return nil, fmt.Errorf("reading lock_time: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &t.ExpiryHeight); err != nil {
		return nil, fmt.Errorf("reading expiry_height: %w", err)
	}

	if err := parseSapling(r, t); err != nil {
		return nil, fmt.Errorf("parsing sapling bundle: %w", err)
	}

	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes", r.Len())
	}
	return t, nil
}

func parseTransparent(r *bytes.Reader, t *Transaction) error {
	numInputs, err := ReadCompactSize(r)
	if err != nil {
		return fmt.Errorf("reading input count: %w", err)
	}
	t.Inputs = make([]TxIn, 0, min(numInputs, maxPreallocate))
	for i := uint64(0); i < numInputs; i++ {
		var in TxIn
		if err := parseTxIn(r, &in); err != nil {
			return fmt.Errorf("parsing input %d: %w", i, err)
		}
		t.Inputs = append(t.Inputs, in)
	}

	numOutputs, err := ReadCompactSize(r)
	if err != nil {
		return fmt.Errorf("reading output count: %w", err)
	}
	t.Outputs = make([]TxOut, 0, min(numOutputs, maxPreallocate))
	for i := uint64(0); i < numOutputs; i++ {
		var out TxOut
		if err := parseTxOut(r, &out); err != nil {
			return fmt.Errorf("parsing output %d: %w", i, err)
		}
		t.Outputs = append(t.Outputs, out)
	}
	return nil
}

func parseTxIn(r *bytes.Reader, in *TxIn) error {
	if _, err := io.ReadFull(r, in.PrevOut.Hash[:]); err != nil {
		return fmt.Errorf("reading prevout txid: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &in.PrevOut.Index); err != nil {
		return fmt.Errorf("reading prevout index: %w", err)
	}
	script, err := readVarBytes(r)
	if err != nil {
		return fmt.Errorf("reading scriptSig: %w", err)
	}
	in.ScriptSig = script
	if err := binary.Read(r, binary.LittleEndian, &in.Sequence); err != nil {
		return fmt.Errorf("reading sequence: %w", err)
	}
	return nil
}

func parseTxOut(r *bytes.Reader, out *TxOut) error {
	if err := binary.Read(r, binary.LittleEndian, &out.Value); err != nil {
		return fmt.Errorf("reading value: %w", err)
	}
	script, err := readVarBytes(r)
	if err != nil {
		return fmt.Errorf("reading scriptPubKey: %w", err)
	}
	out.ScriptPubKey = script
	return nil
}

func parseSapling(r *bytes.Reader, t *Transaction) error {
	if err := binary.Read(r, binary.LittleEndian, &t.ValueBalance); err != nil {
		return fmt.Errorf("reading value balance: %w", err)
	}

	numSpends, err := ReadCompactSize(r)
	if err != nil {
		return fmt.Errorf("reading spend count: %w", err)
	}
	if numSpends != 0 {
		return fmt.Errorf("shielded spends are not supported (got %d)", numSpends)
	}

	numOutputs, err := ReadCompactSize(r)
	if err != nil {
		return fmt.Errorf("reading output count: %w", err)
	}
	t.ShieldedOutputs = make([]OutputDescription, 0, min(numOutputs, maxPreallocate))
	for i := uint64(0); i < numOutputs; i++ {
		var d OutputDescription
		if err := readOutputDescription(r, &d); err != nil {
			return fmt.Errorf("reading output %d: %w", i, err)
		}
		t.ShieldedOutputs = append(t.ShieldedOutputs, d)
	}

	numJoinSplits, err := ReadCompactSize(r)
	if err != nil {
		return fmt.Errorf("reading joinsplit count: %w", err)
	}
	if numJoinSplits != 0 {
		return fmt.Errorf("joinsplits are not supported (got %d)", numJoinSplits)
	}

	if numOutputs > 0 {
		if _, err := io.ReadFull(r, t.BindingSig[:]); err != nil {
			return fmt.Errorf("reading binding sig: %w", err)
		}
	}
	return nil
}

// ParseOutputDescription decodes a single serialized output description.
func ParseOutputDescription(b []byte) (OutputDescription, error) {
	var d OutputDescription
	if len(b) != OutputDescriptionSize {
		return d, fmt.Errorf("output description is %d bytes, want %d", len(b), OutputDescriptionSize)
	}
	err := readOutputDescription(bytes.NewReader(b), &d)
	return d, err
}

func readOutputDescription(r io.Reader, d *OutputDescription) error {
	fields := []struct {
		name string
		buf  []byte
	}{
		{"cv", d.CV[:]},
		{"cmu", d.Cmu[:]},
		{"ephemeral key", d.EphemeralKey[:]},
		{"enc ciphertext", d.EncCiphertext[:]},
		{"out ciphertext", d.OutCiphertext[:]},
		{"zkproof", d.Proof[:]},
	}
	for _, f := range fields {
		if _, err := io.ReadFull(r, f.buf); err != nil {
			return fmt.Errorf("reading %s: %w", f.name, err)
		}
	}
	return nil
}

func readVarBytes(r *bytes.Reader) ([]byte, error) {
	n, err := ReadCompactSize(r)
	if err != nil {
		return nil, fmt.Errorf("reading length: %w", err)
	}
	if n > uint64(r.Len()) {
		return nil, fmt.Errorf("length %d exceeds remaining %d bytes", n, r.Len())
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ReadCompactSize reads a Bitcoin-style variable length integer.
func ReadCompactSize(r io.Reader) (uint64, error) {
	var first [1]byte
	if _, err := io.ReadFull(r, first[:]); err != nil {
		return 0, err
	}

	switch first[0] {
	case 253:
		var v uint16
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		return uint64(v), nil
	case 254:
		var v uint32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		return uint64(v), nil
	case 255:
		var v uint64
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return 0, err
		}
		return v, nil
	default:
		return uint64(first[0]), nil
	}
}
