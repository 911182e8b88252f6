package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegister_RejectsInvalidParams(t *testing.T) {
	err := Register(Params{})
	require.Error(t, err)
	require.False(t, registered, "Register() with invalid params must not mark registered")
}

func TestRegister_SuccessThenDuplicateRejected(t *testing.T) {
	defer func() {
		active = MainNetParams
		registered = false
	}()

	custom := Params{
		StackCapacity:       2048,
		MaxDERSignatureLen:  74,
		MaxScalarLen:        32,
		CompressedPubKeyLen: 33,
		DeviceIDLen:         32,
		MaxMultisigKeys:     16,
		MaxMultisigSigs:     16,
	}
	require.NoError(t, Register(custom))
	require.Equal(t, custom, Active())

	err := Register(MainNetParams)
	require.ErrorIs(t, err, ErrAlreadyRegistered)
	require.Equal(t, custom, Active(), "a rejected duplicate registration must not change the active params")
}

func TestParams_ValidRejectsZeroFields(t *testing.T) {
	base := MainNetParams
	require.True(t, base.valid())

	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"zero stack capacity", func(p *Params) { p.StackCapacity = 0 }},
		{"zero max der signature len", func(p *Params) { p.MaxDERSignatureLen = 0 }},
		{"zero max scalar len", func(p *Params) { p.MaxScalarLen = 0 }},
		{"zero compressed pubkey len", func(p *Params) { p.CompressedPubKeyLen = 0 }},
		{"zero device id len", func(p *Params) { p.DeviceIDLen = 0 }},
		{"zero max multisig keys", func(p *Params) { p.MaxMultisigKeys = 0 }},
		{"zero max multisig sigs", func(p *Params) { p.MaxMultisigSigs = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := base
			tc.mutate(&p)
			require.False(t, p.valid())
		})
	}

	require.False(t, (*Params)(nil).valid())
}
