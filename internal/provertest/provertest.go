// Package provertest provides a deterministic prover.Prover for tests. It
// returns canned output descriptions and binding signatures derived from its
// inputs, so assembled transactions are reproducible without proving
// parameters.
package provertest

import (
	"encoding/binary"
	"errors"
	"hash"
	"sync"

	blake2b "github.com/minio/blake2b-simd"
	"github.com/suffix-labs/zcash-saplingtx/pkg/prover"
	"github.com/suffix-labs/zcash-saplingtx/pkg/tx"
)

const (
	outputPersonalization  = "ZSaplingTxTstOut"
	bindingPersonalization = "ZSaplingTxTstBsg"
)

var (
	ErrInjected = errors.New("injected prover failure")
	ErrClosed   = errors.New("prover is closed")
)

// Prover is a canned prover. The zero value is ready to use and never fails.
type Prover struct {
	// FailOutput makes the Nth ProveOutput call (1-based, across all
	// contexts) fail. Zero disables it.
	FailOutput int
	// FailBinding makes every BindingSig call fail.
	FailBinding bool
	// FailContext makes NewContext fail.
	FailContext bool

	mu             sync.Mutex
	closed         bool
	contexts       int
	closedContexts int
	outputs        int
	bindings       int
}

// New returns a Prover that never fails.
func New() *Prover {
	return &Prover{}
}

// Stats is a snapshot of the prover's call counters.
type Stats struct {
	Contexts       int
	ClosedContexts int
	Outputs        int
	Bindings       int
	Closed         bool
}

// Stats returns the current counters.
func (p *Prover) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Contexts:       p.contexts,
		ClosedContexts: p.closedContexts,
		Outputs:        p.outputs,
		Bindings:       p.bindings,
		Closed:         p.closed,
	}
}

func (p *Prover) NewContext() (prover.Context, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	if p.FailContext {
		return nil, ErrInjected
	}
	p.contexts++
	return &proofContext{prover: p}, nil
}

func (p *Prover) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

type proofContext struct {
	prover *Prover
	cvs    [][32]byte
	closed bool
}

func (c *proofContext) ProveOutput(req prover.OutputRequest) (tx.OutputDescription, error) {
	var d tx.OutputDescription
	if c.closed {
		return d, ErrClosed
	}

	p := c.prover
	p.mu.Lock()
	p.outputs++
	fail := p.FailOutput != 0 && p.outputs == p.FailOutput
	p.mu.Unlock()
	if fail {
		return d, ErrInjected
	}

	h := newHash(outputPersonalization, 64)
	var flags [2]byte
	if req.OVK != nil {
		flags[0] = 1
		h.Write(req.OVK[:])
	}
	if req.Memo != nil {
		flags[1] = 1
		h.Write(req.Memo[:])
	}
	h.Write(flags[:])
	to := req.To.Bytes()
	h.Write(to[:])
	binary.Write(h, binary.LittleEndian, req.Value)
	binary.Write(h, binary.LittleEndian, uint32(len(c.cvs)))
	seed := h.Sum(nil)

	fill(seed, 0, d.CV[:])
	fill(seed, 1, d.Cmu[:])
	fill(seed, 2, d.EphemeralKey[:])
	fill(seed, 3, d.EncCiphertext[:])
	fill(seed, 4, d.OutCiphertext[:])
	fill(seed, 5, d.Proof[:])

	c.cvs = append(c.cvs, d.CV)
	return d, nil
}

func (c *proofContext) BindingSig(valueBalance int64, sighash [32]byte) ([tx.BindingSigSize]byte, error) {
	var sig [tx.BindingSigSize]byte
	if c.closed {
		return sig, ErrClosed
	}

	p := c.prover
	p.mu.Lock()
	p.bindings++
	fail := p.FailBinding
	p.mu.Unlock()
	if fail {
		return sig, ErrInjected
	}

	h := newHash(bindingPersonalization, tx.BindingSigSize)
	for _, cv := range c.cvs {
		h.Write(cv[:])
	}
	binary.Write(h, binary.LittleEndian, valueBalance)
	h.Write(sighash[:])
	copy(sig[:], h.Sum(nil))
	return sig, nil
}

func (c *proofContext) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.prover.mu.Lock()
	c.prover.closedContexts++
	c.prover.mu.Unlock()
	return nil
}

func newHash(person string, size uint8) hash.Hash {
	h, err := blake2b.New(&blake2b.Config{Size: size, Person: []byte(person)})
	if err != nil {
		panic(err)
	}
	return h
}

// fill expands seed into out, domain-separated by label.
func fill(seed []byte, label byte, out []byte) {
	var counter uint32
	for off := 0; off < len(out); counter++ {
		h := newHash(outputPersonalization, 64)
		h.Write(seed)
		h.Write([]byte{label})
		binary.Write(h, binary.LittleEndian, counter)
		off += copy(out[off:], h.Sum(nil))
	}
}
