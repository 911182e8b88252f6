package der

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeInt(v *big.Int) []byte {
	b := v.Bytes()
	if len(b) == 0 {
		b = []byte{0x00}
	}
	if b[0]&0x80 != 0 {
		b = append([]byte{0x00}, b...)
	}
	return append([]byte{0x02, byte(len(b))}, b...)
}

func encodeSig(r, s *big.Int) []byte {
	body := append(encodeInt(r), encodeInt(s)...)
	return append([]byte{0x30, byte(len(body))}, body...)
}

func TestToRaw_RoundTrip(t *testing.T) {
	tests := []*struct {
		name string
		r, s *big.Int
	}{
		{"small values", big.NewInt(1), big.NewInt(2)},
		{"high-bit r needs padding", big.NewInt(0x80), big.NewInt(3)},
		{"max width scalars", new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1)), big.NewInt(7)},
		{"zero r", big.NewInt(0), big.NewInt(5)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sig := encodeSig(tc.r, tc.s)
			raw, err := ToRaw(sig)
			require.NoError(t, err)
			var want [RawLen]byte
			rb := tc.r.Bytes()
			sb := tc.s.Bytes()
			copy(want[scalarLen-len(rb):scalarLen], rb)
			copy(want[RawLen-len(sb):RawLen], sb)
			require.Equal(t, want, raw)
		})
	}
}

func TestToRaw_Rejects(t *testing.T) {
	tests := []*struct {
		name string
		in   []byte
	}{
		{"empty", nil},
		{"too short", []byte{0x30, 0x02, 0x02, 0x00}},
		{"wrong outer tag", append([]byte{0x31}, encodeSig(big.NewInt(1), big.NewInt(1))[1:]...)},
		{"seq len past end", []byte{0x30, 0x7f, 0x02, 0x01, 0x01, 0x02, 0x01, 0x01}},
		{"missing r tag", []byte{0x30, 0x06, 0x03, 0x01, 0x01, 0x02, 0x01, 0x01}},
		{"r integer length past end", []byte{0x30, 0x06, 0x02, 0x05, 0x01, 0x02, 0x01, 0x01}},
		{"r overflows scalar width", func() []byte {
			big33 := make([]byte, 33)
			big33[0] = 0x01
			body := append([]byte{0x02, 34, 0x00}, big33...)
			body = append(body, encodeInt(big.NewInt(1))...)
			return append([]byte{0x30, byte(len(body))}, body...)
		}()},
		{"missing s tag", func() []byte {
			body := append(encodeInt(big.NewInt(1)), 0x03, 0x01, 0x01)
			return append([]byte{0x30, byte(len(body))}, body...)
		}()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ToRaw(tc.in)
			require.Error(t, err, "ToRaw(%x) accepted, want rejection", tc.in)
		})
	}
}

// FuzzDerToRaw exercises ToRaw against arbitrary byte strings,
// including well-formed DER signatures so the corpus has a path past
// the tag/length gates; ToRaw must never panic and must always return
// exactly RawLen octets on success.
func FuzzDerToRaw(f *testing.F) {
	f.Add(encodeSig(big.NewInt(1), big.NewInt(2)))
	f.Add([]byte{0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01, 0x01})
	f.Add([]byte{})
	f.Add([]byte{0x30, 0x7f, 0x02, 0x01, 0x01})
	f.Fuzz(func(t *testing.T, in []byte) {
		// ToRaw must never panic regardless of input shape; a non-nil
		// error is an acceptable outcome for any malformed input.
		_, _ = ToRaw(in)
	})
}

func TestToRaw_OutputAlwaysExactly64(t *testing.T) {
	sig := encodeSig(big.NewInt(42), big.NewInt(43))
	raw, err := ToRaw(sig)
	require.NoError(t, err)
	require.Len(t, raw, RawLen)
	require.NotEqual(t, bytes.Count(raw[:], []byte{0}), RawLen, "raw output is all zero")
}
