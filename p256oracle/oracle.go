// Package p256oracle models P-256 ECDSA verification as an injected
// capability, per the design notes: a single verify operation that
// stackvm's cryptographic opcodes call through an interface rather
// than a concrete curve library, so tests and fuzzers can substitute a
// double.
//
// None of the curve libraries carried by the wider example pack
// (secp256k1 variants, Ed25519, BLS12-381) implement the NIST P-256
// curve this system specifies, so the production Oracle is built on
// the standard library's crypto/ecdsa and crypto/elliptic — see
// DESIGN.md for why no third-party dependency could serve this role.
package p256oracle

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"math/big"
)

// Oracle verifies an ECDSA signature against a compressed public key
// and an arbitrary-length message, without hashing the message at this
// boundary.
type Oracle interface {
	// Verify reports whether raw (64-octet r‖s) is a valid ECDSA
	// signature over msg under the compressed P-256 public key pubkey
	// (33 octets, leading octet ∈ {0x02, 0x03}). Implementations must
	// not mutate or retain any of the arguments.
	Verify(msg []byte, raw [64]byte, pubkey [33]byte) bool
}

// Standard is the production Oracle, backed by crypto/ecdsa's P-256
// verifier. The message is passed to ecdsa.Verify verbatim: this
// system does not hash at the VM boundary, matching §6 of the
// specification ("hashing, if any, is the oracle's responsibility").
// Standard treats msg as pre-hashed input, which is the contract
// crypto/ecdsa.Verify itself expects.
var Standard Oracle = standardOracle{}

type standardOracle struct{}

func (standardOracle) Verify(msg []byte, raw [64]byte, pubkey [33]byte) bool {
	pub, ok := unmarshalCompressed(pubkey)
	if !ok {
		return false
	}
	r := new(big.Int).SetBytes(raw[:32])
	s := new(big.Int).SetBytes(raw[32:])
	return ecdsa.Verify(pub, msg, r, s)
}

// unmarshalCompressed decodes a 33-octet SEC1 compressed point on
// P-256. The caller has already validated pubkey[0] ∈ {0x02, 0x03}
// (stackvm's pop_compressed_pubkey contract); this function re-derives
// y from x and the curve equation to confirm the point actually lies
// on the curve.
func unmarshalCompressed(pubkey [33]byte) (*ecdsa.PublicKey, bool) {
	curve := elliptic.P256()
	if pubkey[0] != 0x02 && pubkey[0] != 0x03 {
		return nil, false
	}
	x := new(big.Int).SetBytes(pubkey[1:])
	params := curve.Params()
	if x.Cmp(params.P) >= 0 {
		return nil, false
	}

	// y² = x³ - 3x + b (mod p)
	y2 := new(big.Int).Exp(x, big.NewInt(3), params.P)
	threeX := new(big.Int).Lsh(x, 1)
	threeX.Add(threeX, x)
	y2.Sub(y2, threeX)
	y2.Add(y2, params.B)
	y2.Mod(y2, params.P)

	y := new(big.Int).ModSqrt(y2, params.P)
	if y == nil {
		return nil, false
	}
	if y.Bit(0) != uint(pubkey[0]&0x01) {
		y.Sub(params.P, y)
	}
	if !curve.IsOnCurve(x, y) {
		return nil, false
	}
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, true
}
