// Package config holds the hard resource bounds the evaluator runs
// against. Bounds are registered once at process startup, the same
// shape the rest of the ecosystem uses for network parameter tables.
// stackvm reads its stack, DER-length, pubkey, device-id and multisig
// bounds from Active(); the EQUAL32 operand width and the DER scalar
// width are fixed in code.
package config

import "errors"

// ErrAlreadyRegistered is returned by Register when params have
// already been installed for this process.
var ErrAlreadyRegistered = errors.New("config: params already registered")

// Params is the complete set of hard resource bounds referenced by
// stackvm and machine001. All fields are mandatory; a zero Params is
// not valid and Register rejects it.
type Params struct {
	// StackCapacity is the maximum number of octets the byte stack may
	// hold at once. Spec: 1024.
	StackCapacity int

	// MaxDERSignatureLen is the maximum total length, in octets, of a
	// DER signature as popped from the stack (tag+length+body). Spec: 74.
	MaxDERSignatureLen int

	// MaxScalarLen is the maximum post-leading-zero-strip length, in
	// octets, of a DER INTEGER body. Spec: 32 (P-256 scalar width).
	// der.ToRaw does not read this field; it uses a fixed 32.
	MaxScalarLen int

	// CompressedPubKeyLen is the fixed length, in octets, of a
	// compressed P-256 public key. Spec: 33.
	CompressedPubKeyLen int

	// DeviceIDLen is the fixed length, in octets, of a device
	// identifier. Spec: 32.
	DeviceIDLen int

	// MaxMultisigKeys is the largest value MULTISIGVERIFY's n operand
	// may take. Spec: 255 (single octet).
	MaxMultisigKeys int

	// MaxMultisigSigs is the largest value MULTISIGVERIFY's k operand
	// may take. Spec: 255 (single octet).
	MaxMultisigSigs int
}

func (p *Params) valid() bool {
	return p != nil &&
		p.StackCapacity > 0 &&
		p.MaxDERSignatureLen > 0 &&
		p.MaxScalarLen > 0 &&
		p.CompressedPubKeyLen > 0 &&
		p.DeviceIDLen > 0 &&
		p.MaxMultisigKeys > 0 &&
		p.MaxMultisigSigs > 0
}

// MainNetParams are the literal bounds given in the specification.
// This is the default used by stackvm and machine001 when no other
// Params have been registered.
var MainNetParams = Params{
	StackCapacity:       1024,
	MaxDERSignatureLen:  74,
	MaxScalarLen:        32,
	CompressedPubKeyLen: 33,
	DeviceIDLen:         32,
	MaxMultisigKeys:     255,
	MaxMultisigSigs:     255,
}

var active = MainNetParams
var registered bool

// Register installs params as the active, process-wide resource
// bounds. It must be called at most once, as early as possible in
// main(); library code should call Active instead of hard-coding
// bounds.
func Register(params Params) error {
	if !params.valid() {
		return errors.New("config: invalid params")
	}
	if registered {
		return ErrAlreadyRegistered
	}
	active = params
	registered = true
	return nil
}

// Active returns the currently registered params, or MainNetParams if
// Register was never called.
func Active() Params {
	if !registered {
		return MainNetParams
	}
	return active
}
