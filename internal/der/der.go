// Package der converts DER-encoded ECDSA signatures to the fixed
// 64-octet r‖s representation the P-256 oracle expects. It mirrors the
// framing checks txscript's checkSignatureEncoding performs on a
// popped signature, generalized from secp256k1's 33-byte scalar width
// to P-256's 32-byte width and relaxed to a typed-result parser rather
// than strict signature-malleability policy (machine001 has no notion
// of "low S").
package der

import "github.com/pkg/errors"

// ErrMalformed is the sentinel cause for every DER-shape violation.
// Wrap it with errors.Wrap to add positional context; callers that
// only need the §7 "DER violation" classification can compare
// errors.Cause(err) with it.
var ErrMalformed = errors.New("der: malformed signature")

// RawLen is the length, in octets, of the r‖s output of ToRaw.
const RawLen = 64

// scalarLen is the width, in octets, of a single P-256 scalar (r or s)
// once right-aligned and zero-padded.
const scalarLen = RawLen / 2

// ToRaw parses a DER-encoded ECDSA signature
//
//	SEQUENCE(0x30) seq_len
//	  INTEGER(0x02) len_r  r_bytes…
//	  INTEGER(0x02) len_s  s_bytes…
//
// and returns the 64-octet r‖s form, with r right-aligned and
// zero-padded into the first 32 octets and s likewise into the last
// 32. Every length field is checked against the remaining input
// before the cursor advances past it; on any violation the returned
// byte array is the zero value and must not be consumed.
func ToRaw(in []byte) ([RawLen]byte, error) {
	var out [RawLen]byte

	if len(in) < 6 {
		return out, errors.Wrap(ErrMalformed, "input shorter than minimum DER signature")
	}
	if in[0] != 0x30 {
		return out, errors.Wrap(ErrMalformed, "missing SEQUENCE tag")
	}
	seqLen := int(in[1])
	if 2+seqLen > len(in) {
		return out, errors.Wrap(ErrMalformed, "SEQUENCE length exceeds input")
	}
	// Integers are parsed against the full remaining input, not just
	// the declared seq_len window: seq_len only bounds the envelope,
	// per §4.2 ("seq_len must not push the integers past the end of
	// the input").
	rest := in[2:]

	r, n, err := parseInteger(rest)
	if err != nil {
		return out, err
	}
	copy(out[scalarLen-len(r):scalarLen], r)

	s, _, err := parseInteger(rest[n:])
	if err != nil {
		return [RawLen]byte{}, err
	}
	copy(out[RawLen-len(s):RawLen], s)

	return out, nil
}

// parseInteger parses one ASN.1 INTEGER from the front of buf,
// strips a single DER-minimality leading 0x00 when the body is longer
// than one octet, and rejects bodies that don't fit in a P-256 scalar
// after stripping. It returns the (possibly stripped) integer body and
// the number of input octets consumed (tag + length + full body,
// pre-strip).
func parseInteger(buf []byte) (value []byte, consumed int, err error) {
	if len(buf) < 2 {
		return nil, 0, errors.Wrap(ErrMalformed, "truncated INTEGER header")
	}
	if buf[0] != 0x02 {
		return nil, 0, errors.Wrap(ErrMalformed, "missing INTEGER tag")
	}
	length := int(buf[1])
	if 2+length > len(buf) {
		return nil, 0, errors.Wrap(ErrMalformed, "INTEGER length exceeds input")
	}
	body := buf[2 : 2+length]
	if len(body) > 1 && body[0] == 0x00 {
		body = body[1:]
	}
	if len(body) > scalarLen {
		return nil, 0, errors.Wrap(ErrMalformed, "INTEGER overflows P-256 scalar width")
	}
	return body, 2 + length, nil
}
