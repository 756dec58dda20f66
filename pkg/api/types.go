// Package api is the entry point for applications using zcash-saplingtx.
//
// It offers two operations:
//
//  1. DeriveAddress / DeriveKeyTriple - Sapling key triple from a seed and a
//     ZIP 32 path
//  2. AssembleTransaction / Assembler.Assemble - a signed v4 transaction
//     spending transparent coins to transparent and Sapling recipients
//
// Every call owns its own draft. Nothing here is retained between calls except
// the prover an Assembler was built with.
package api

import (
	"github.com/suffix-labs/zcash-saplingtx/pkg/tx"
)

// TransparentInput is a transparent coin to spend, as supplied by the caller.
type TransparentInput struct {
	PrivateKey string `json:"private_key"` // hex, 32 bytes
	UTXO       string `json:"utxo"`        // txid hex, display order
	VoutIndex  uint32 `json:"vout_index"`
	Amount     uint64 `json:"amount"` // zatoshis
	Script     string `json:"script"` // locking script hex
}

// TransparentRecipient is a transparent output.
type TransparentRecipient struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

// ShieldedRecipient is a Sapling output. ViewKey is the sender's extended
// full viewing key; its outgoing viewing key lets the sender recover the note.
type ShieldedRecipient struct {
	ViewKey string `json:"view_key"`
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

// KeyTriple is the encoded result of a Sapling key derivation.
type KeyTriple struct {
	Address    string `json:"address"`
	PrivateKey string `json:"private_key"`
	ViewingKey string `json:"viewing_key"`
}

// AssembledTransaction is a finalized, signed transaction.
type AssembledTransaction struct {
	Raw         []byte
	Hex         string
	TxID        string // display (byte-reversed) order
	Fee         uint64 // implicit: inputs minus outputs
	Transaction *tx.Transaction
}
