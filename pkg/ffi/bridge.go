//go:build cgo && saplingffi

// Package ffi provides CGO bindings to a native Sapling prover.
//
// Proving and note encryption need the Groth16 circuits and Jubjub value
// commitments that are not available in pure Go, so they are delegated to a
// small Rust library wrapping the zcash proving crates.
//
// Build the library and then the module with the saplingffi tag:
//
//	cd pkg/ffi/rust && cargo build --release
//	go build -tags saplingffi ./...
//
// Without the tag LoadSaplingProver returns ErrUnavailable.
package ffi

/*
#cgo LDFLAGS: -L${SRCDIR}/rust/target/release -lzcash_sapling_ffi
#cgo darwin LDFLAGS: -framework Security -framework Foundation
#cgo linux LDFLAGS: -ldl -lm

#include <stdlib.h>
#include <stdint.h>
#include <stdbool.h>

// FFI error codes
typedef enum {
    FFI_OK = 0,
    FFI_ERROR_NULL_POINTER = 1,
    FFI_ERROR_INVALID_PARAMS = 2,
    FFI_ERROR_PROVING_FAILED = 3,
    FFI_ERROR_INVALID_ADDRESS = 4,
    FFI_ERROR_BINDING_SIG_FAILED = 5,
} FFIErrorCode;

typedef struct SaplingProver SaplingProver;
typedef struct SaplingContext SaplingContext;

char *ffi_last_error_message(void);
void ffi_free_string(char *s);

SaplingProver *ffi_sapling_prover_new(
    const uint8_t *spend_params, size_t spend_len,
    const uint8_t *output_params, size_t output_len
);
void ffi_sapling_prover_free(SaplingProver *prover);

SaplingContext *ffi_sapling_context_new(void);
void ffi_sapling_context_free(SaplingContext *ctx);

FFIErrorCode ffi_sapling_output(
    const SaplingProver *prover,
    SaplingContext *ctx,
    const uint8_t ovk[32],
    bool has_ovk,
    const uint8_t to[43],
    uint64_t value,
    const uint8_t memo[512],
    bool has_memo,
    uint8_t description_out[948]
);

FFIErrorCode ffi_sapling_binding_sig(
    SaplingContext *ctx,
    int64_t value_balance,
    const uint8_t sighash[32],
    uint8_t sig_out[64]
);
*/
import "C"
import (
	"errors"
	"sync"
	"unsafe"

	"github.com/suffix-labs/zcash-saplingtx/pkg/prover"
	"github.com/suffix-labs/zcash-saplingtx/pkg/tx"
)

var errClosed = errors.New("prover is closed")

// getLastError retrieves the last error message from Rust.
func getLastError(code C.FFIErrorCode) error {
	if code == C.FFI_OK {
		return nil
	}

	cMsg := C.ffi_last_error_message()
	if cMsg == nil {
		return &FFIError{
			Code:    int(code),
			Message: "unknown error (no message available)",
		}
	}
	defer C.ffi_free_string(cMsg)

	return &FFIError{
		Code:    int(code),
		Message: C.GoString(cMsg),
	}
}

// saplingProver owns the parsed parameters on the Rust side.
type saplingProver struct {
	mu  sync.RWMutex
	ptr *C.SaplingProver
}

// LoadSaplingProver parses the spend and output parameter blobs. The
// returned Prover must be closed to release them.
func LoadSaplingProver(spend, output []byte) (prover.Prover, error) {
	if err := (prover.Params{Spend: spend, Output: output}).Validate(); err != nil {
		return nil, err
	}

	ptr := C.ffi_sapling_prover_new(
		(*C.uint8_t)(unsafe.Pointer(&spend[0])),
		C.size_t(len(spend)),
		(*C.uint8_t)(unsafe.Pointer(&output[0])),
		C.size_t(len(output)),
	)
	if ptr == nil {
		return nil, getLastError(C.FFI_ERROR_INVALID_PARAMS)
	}
	return &saplingProver{ptr: ptr}, nil
}

func (p *saplingProver) NewContext() (prover.Context, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.ptr == nil {
		return nil, errClosed
	}

	ctx := C.ffi_sapling_context_new()
	if ctx == nil {
		return nil, getLastError(C.FFI_ERROR_NULL_POINTER)
	}
	return &saplingContext{prover: p, ptr: ctx}, nil
}

func (p *saplingProver) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ptr != nil {
		C.ffi_sapling_prover_free(p.ptr)
		p.ptr = nil
	}
	return nil
}

type saplingContext struct {
	prover *saplingProver
	ptr    *C.SaplingContext
}

func (c *saplingContext) ProveOutput(req prover.OutputRequest) (tx.OutputDescription, error) {
	if c.ptr == nil {
		return tx.OutputDescription{}, errClosed
	}

	c.prover.mu.RLock()
	defer c.prover.mu.RUnlock()
	if c.prover.ptr == nil {
		return tx.OutputDescription{}, errClosed
	}

	var ovk [32]byte
	if req.OVK != nil {
		ovk = *req.OVK
	}
	var memo prover.Memo
	if req.Memo != nil {
		memo = *req.Memo
	}
	to := req.To.Bytes()
	var out [tx.OutputDescriptionSize]byte

	code := C.ffi_sapling_output(
		c.prover.ptr,
		c.ptr,
		(*C.uint8_t)(unsafe.Pointer(&ovk[0])),
		C.bool(req.OVK != nil),
		(*C.uint8_t)(unsafe.Pointer(&to[0])),
		C.uint64_t(req.Value),
		(*C.uint8_t)(unsafe.Pointer(&memo[0])),
		C.bool(req.Memo != nil),
		(*C.uint8_t)(unsafe.Pointer(&out[0])),
	)
	if code != C.FFI_OK {
		return tx.OutputDescription{}, getLastError(code)
	}

	return tx.ParseOutputDescription(out[:])
}

func (c *saplingContext) BindingSig(valueBalance int64, sighash [32]byte) ([tx.BindingSigSize]byte, error) {
	var sig [tx.BindingSigSize]byte
	if c.ptr == nil {
		return sig, errClosed
	}

	code := C.ffi_sapling_binding_sig(
		c.ptr,
		C.int64_t(valueBalance),
		(*C.uint8_t)(unsafe.Pointer(&sighash[0])),
		(*C.uint8_t)(unsafe.Pointer(&sig[0])),
	)
	if code != C.FFI_OK {
		return sig, getLastError(code)
	}
	return sig, nil
}

func (c *saplingContext) Close() error {
	if c.ptr != nil {
		C.ffi_sapling_context_free(c.ptr)
		c.ptr = nil
	}
	return nil
}
