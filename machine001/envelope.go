// Package machine001 implements the two-phase witness/policy
// composition protocol of §4.6: it deserializes the xsig and xpubkey
// envelopes, runs stackvm twice with a defined stack hand-off, and
// applies the strict final-state acceptance rule.
package machine001

import "github.com/pkg/errors"

// CodeType discriminates the two envelope kinds carried by the
// 6-octet prefix "xsig" || 0x00 || T.
type CodeType byte

const (
	// TypeXPubKey marks a policy program (T = 0x00).
	TypeXPubKey CodeType = 0x00
	// TypeXSig marks a witness program (T = 0x01).
	TypeXSig CodeType = 0x01
)

const prefixLen = 6

var magic = [4]byte{'x', 's', 'i', 'g'}

// ErrEnvelope is the sentinel cause for §7's "envelope violation":
// wrong prefix or input shorter than the prefix.
var ErrEnvelope = errors.New("machine001: malformed envelope")

// parseEnvelope strips the 6-octet "xsig"||0x00||T prefix and checks
// it matches want, returning the program bytes that follow.
func parseEnvelope(data []byte, want CodeType) ([]byte, error) {
	if len(data) < prefixLen {
		return nil, errors.Wrap(ErrEnvelope, "input shorter than envelope prefix")
	}
	if data[0] != magic[0] || data[1] != magic[1] || data[2] != magic[2] || data[3] != magic[3] {
		return nil, errors.Wrap(ErrEnvelope, "bad magic")
	}
	if data[4] != 0x00 {
		return nil, errors.Wrap(ErrEnvelope, "bad machine type")
	}
	if CodeType(data[5]) != want {
		return nil, errors.Wrap(ErrEnvelope, "bad code type")
	}
	return data[prefixLen:], nil
}

// Envelope serializes program bytes into the wire format named by
// typ — the inverse of parseEnvelope, provided so tests and tooling
// can construct valid xsig/xpubkey inputs without hand-assembling the
// prefix.
func Envelope(typ CodeType, program []byte) []byte {
	out := make([]byte, prefixLen+len(program))
	copy(out[0:4], magic[:])
	out[4] = 0x00
	out[5] = byte(typ)
	copy(out[prefixLen:], program)
	return out
}
