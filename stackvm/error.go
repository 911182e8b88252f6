package stackvm

import "github.com/pkg/errors"

// Sentinel errors, one per contract violation named in §7 of the
// specification. machine001 only ever observes pass/fail, but these
// let tests and differential fuzzing classify a rejection the way
// txscript's ErrStackXxx family does for script-engine failures.
var (
	// ErrStackOverflow and ErrStackUnderflow are stack violations.
	ErrStackOverflow  = errors.New("stackvm: stack overflow")
	ErrStackUnderflow = errors.New("stackvm: stack underflow")

	// ErrUnknownOpcode, ErrTruncatedOperand, ErrBadPubKeyEncoding, and
	// ErrNotDER/ErrDERTooLong are decode violations.
	ErrUnknownOpcode     = errors.New("stackvm: unknown opcode")
	ErrTruncatedOperand  = errors.New("stackvm: truncated operand")
	ErrBadPubKeyEncoding = errors.New("stackvm: malformed compressed public key")
	ErrNotDER            = errors.New("stackvm: stack-popped signature is not DER framed")
	ErrDERTooLong        = errors.New("stackvm: stack-popped DER signature exceeds maximum length")

	// ErrBadMultisigArity is a decode violation specific to
	// MULTISIGVERIFY's (k, n) operand pair.
	ErrBadMultisigArity = errors.New("stackvm: invalid multisig arity")

	// ErrMalformedSignature is a DER violation: the stack-popped frame
	// was well-formed as a frame but its body failed der.ToRaw.
	ErrMalformedSignature = errors.New("stackvm: signature body is not well-formed DER")

	// ErrNoDeviceContext and ErrBadDeviceID are context violations.
	ErrNoDeviceContext = errors.New("stackvm: DEVICEID with no device context bound")
	ErrBadDeviceID     = errors.New("stackvm: device identifier is not exactly the configured length")
)

// EvalError reports a runtime evaluation failure together with the
// program counter and opcode at which it occurred, mirroring the
// positional context peggyvm's RuntimeError and DisassembleError
// types attach to decode/execution failures.
type EvalError struct {
	// Cause is one of the sentinels above; the standard library's
	// errors.Is / errors.Unwrap recover it through Unwrap.
	Cause error
	// PC is the program counter at which the instruction started.
	PC int
	// Code is the opcode octet at PC; for ErrUnknownOpcode it is the
	// unrecognized value itself.
	Code Opcode
}

func (e *EvalError) Error() string {
	return errors.Wrapf(e.Cause, "stackvm: at pc=%d op=%d", e.PC, e.Code).Error()
}

func (e *EvalError) Unwrap() error {
	return e.Cause
}

func haltErr(pc int, code Opcode, cause error) error {
	return &EvalError{Cause: cause, PC: pc, Code: code}
}
