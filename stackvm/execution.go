// Package stackvm implements the byte-oriented stack virtual machine
// of §4: a bounded byte stack, a ten-opcode instruction decoder, and
// an evaluator state machine. Its architecture — a fixed-capacity
// stack owned exclusively by one Engine-like evaluator, opcodes
// dispatched from a decoded instruction, and cryptographic opcodes
// that pop framed operands before calling out to an injected verifier
// — is grounded on txscript's Engine (stack discipline, DER/pubkey
// encoding checks, the CHECKMULTISIG pop-then-match shape) and
// chronos-tachyon/go-peggy's Op/Execution split (decode-then-step,
// explicit Running/Halted states).
package stackvm

import (
	"github.com/massvault/xvm/config"
	"github.com/massvault/xvm/internal/der"
	"github.com/massvault/xvm/internal/logging"
	"github.com/massvault/xvm/p256oracle"
)

// State records whether an Evaluator has terminated, and how.
type State uint8

const (
	// Running means evaluation has not terminated.
	Running State = iota
	// HaltedOK means the program counter reached the end of the code
	// with no contract violation. The stack holds the result.
	HaltedOK
	// HaltedErr means evaluation stopped on a contract violation. The
	// stack's contents are undefined and must not be consumed.
	HaltedErr
)

// DeviceContext optionally binds a 32-octet device identifier for the
// lifetime of one evaluation. A nil *DeviceContext means "no device
// context bound"; OP_DEVICEID then fails with ErrNoDeviceContext.
type DeviceContext struct {
	// ID must be exactly config.Active().DeviceIDLen octets once bound;
	// any other length fails OP_DEVICEID with ErrBadDeviceID.
	ID []byte
}

// Tracer receives one call per instruction that executed without
// error, after it executes, with the resulting stack depth — the
// structured-trace analogue of
// logging.CPrint(logging.TRACE, "stepping", ...) inside txscript's
// Engine.Execute, exposed here as a typed hook instead of a fixed log
// level so callers can build their own disassembly views.
type Tracer func(pc int, op Opcode, stackDepth int)

// Evaluator runs a single program against an optional message and
// optional device context, per §4.5. An Evaluator is single-use: once
// Run returns, construct a new one for the next evaluation. It owns
// its Stack exclusively; nothing is shared with any other Evaluator
// except via an explicit Stack.Clone() hand-off.
type Evaluator struct {
	code  []byte
	msg   []byte
	ctx   *DeviceContext
	stack *Stack
	oracle p256oracle.Oracle

	pc    int
	state State

	Tracer Tracer
}

// NewEvaluator returns an Evaluator with a fresh, empty stack.
func NewEvaluator(code, msg []byte, ctx *DeviceContext, oracle p256oracle.Oracle) *Evaluator {
	return NewEvaluatorWithStack(code, msg, ctx, oracle, NewStack())
}

// NewEvaluatorWithStack returns an Evaluator whose stack is pre-seeded
// with stack (typically a Stack.Clone() of a prior phase's terminal
// stack — the machine001 hand-off contract of §4.6).
func NewEvaluatorWithStack(code, msg []byte, ctx *DeviceContext, oracle p256oracle.Oracle, stack *Stack) *Evaluator {
	return &Evaluator{code: code, msg: msg, ctx: ctx, oracle: oracle, stack: stack}
}

// State returns the evaluator's current termination state.
func (e *Evaluator) State() State {
	return e.state
}

// Stack returns the evaluator's stack. Its contents are meaningful
// only once State() == HaltedOK.
func (e *Evaluator) Stack() *Stack {
	return e.stack
}

// Run executes the bound program to completion. There are no
// backward jumps in this instruction set, so Run always terminates:
// either the program counter reaches len(code) (HaltedOK) or a
// contract violation halts evaluation early (HaltedErr), and Run
// returns the corresponding error.
func (e *Evaluator) Run() error {
	for e.pc < len(e.code) {
		if err := e.step(); err != nil {
			e.state = HaltedErr
			logging.CPrint(logging.WARN, "stackvm: evaluation halted", logging.LogFormat{
				"pc":  e.pc,
				"err": err.Error(),
			})
			return err
		}
	}
	e.state = HaltedOK
	return nil
}

// step decodes and executes one instruction, advancing pc per §4.3.
func (e *Evaluator) step() error {
	pc := e.pc
	code := Opcode(e.code[pc])
	if !code.valid() {
		return haltErr(pc, code, ErrUnknownOpcode)
	}

	var err error
	adv := 1
	switch code {
	case OpADD:
		err = e.binOp(func(a, b byte) byte { return a + b })
	case OpMUL:
		err = e.binOp(func(a, b byte) byte { return a * b })
	case OpAND:
		err = e.binOp(func(a, b byte) byte { return a & b })
	case OpOR:
		err = e.binOp(func(a, b byte) byte { return a | b })
	case OpNOT:
		err = e.opNot()
	case OpPUSH:
		adv, err = e.opPush(pc)
	case OpSIGVERIFY:
		err = e.opSigverify()
	case OpMULTISIGVERIFY:
		err = e.opMultisigverify()
	case OpEQUAL32:
		err = e.opEqual32()
	case OpDEVICEID:
		err = e.opDeviceID()
	}

	if err != nil {
		return haltErr(pc, code, err)
	}

	if e.Tracer != nil {
		e.Tracer(pc, code, e.stack.Depth())
	}
	logging.CPrint(logging.TRACE, "stackvm: stepping", logging.LogFormat{
		"pc": pc, "op": code.String(), "depth": e.stack.Depth(),
	})

	e.pc += adv
	return nil
}

// binOp implements the two-operand arithmetic/bitwise opcodes: pop
// top-of-stack first as a, the next item as b, push fn(a, b).
func (e *Evaluator) binOp(fn func(a, b byte) byte) error {
	a, err := e.stack.Pop()
	if err != nil {
		return err
	}
	b, err := e.stack.Pop()
	if err != nil {
		return err
	}
	return e.stack.Push(fn(a, b))
}

func (e *Evaluator) opNot() error {
	a, err := e.stack.Pop()
	if err != nil {
		return err
	}
	return e.stack.Push(^a)
}

// opPush reads the PUSH operand at pc+1 (count n) and pc+2..pc+2+n-1
// (the n octets to push), and returns the total instruction length
// 2+n so the caller can advance pc. It rejects a missing count octet
// or an operand run that would extend past the end of the program.
func (e *Evaluator) opPush(pc int) (int, error) {
	if pc+1 >= len(e.code) {
		return 0, ErrTruncatedOperand
	}
	n := int(e.code[pc+1])
	if pc+2+n > len(e.code) {
		return 0, ErrTruncatedOperand
	}
	if err := e.stack.PushBytes(e.code[pc+2 : pc+2+n]); err != nil {
		return 0, err
	}
	return 2 + n, nil
}

func (e *Evaluator) opSigverify() error {
	pubkey, err := e.stack.PopCompressedPubKey()
	if err != nil {
		return err
	}
	derSig, err := e.stack.PopDERSignature()
	if err != nil {
		return err
	}
	raw, err := der.ToRaw(derSig)
	if err != nil {
		return ErrMalformedSignature
	}
	ok := e.oracle.Verify(e.msg, raw, pubkey)
	return e.stack.Push(boolByte(ok))
}

func (e *Evaluator) opMultisigverify() error {
	params := config.Active()

	n, err := e.stack.Pop()
	if err != nil {
		return err
	}
	k, err := e.stack.Pop()
	if err != nil {
		return err
	}
	nKeys, kSigs := int(n), int(k)
	if nKeys == 0 || kSigs == 0 || kSigs > nKeys {
		return ErrBadMultisigArity
	}
	if nKeys > params.MaxMultisigKeys || kSigs > params.MaxMultisigSigs {
		return ErrBadMultisigArity
	}

	keys := make([][33]byte, nKeys)
	for i := 0; i < nKeys; i++ {
		pk, err := e.stack.PopCompressedPubKey()
		if err != nil {
			return err
		}
		keys[i] = pk
	}

	sigs := make([][]byte, kSigs)
	for i := 0; i < kSigs; i++ {
		sig, err := e.stack.PopDERSignature()
		if err != nil {
			return err
		}
		sigs[i] = sig
	}

	// Outer keys / inner sigs, inner break on first accept. This order
	// and the inner break are load-bearing: do not reorder, dedupe, or
	// early-exit differently — see §4.4/§9.
	valid := 0
	for i := 0; i < nKeys; i++ {
		for j := 0; j < kSigs; j++ {
			raw, err := der.ToRaw(sigs[j])
			if err != nil {
				continue
			}
			if e.oracle.Verify(e.msg, raw, keys[i]) {
				valid++
				break
			}
		}
	}

	return e.stack.Push(boolByte(valid >= kSigs))
}

func (e *Evaluator) opEqual32() error {
	a, err := e.stack.PopBytes(32)
	if err != nil {
		return err
	}
	b, err := e.stack.PopBytes(32)
	if err != nil {
		return err
	}
	return e.stack.Push(boolByte(bytesEqual(a, b)))
}

func (e *Evaluator) opDeviceID() error {
	n := config.Active().DeviceIDLen
	if e.ctx == nil || len(e.ctx.ID) != n {
		if e.ctx == nil {
			return ErrNoDeviceContext
		}
		return ErrBadDeviceID
	}
	return e.stack.PushBytes(e.ctx.ID)
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
