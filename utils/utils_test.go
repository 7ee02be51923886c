package utils_test

import (
	"encoding/hex"
	"math/big"
	"testing"

	"provider-dashboard/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	aliceAddress = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	alicePubHex  = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
)

func TestFormatBalance(t *testing.T) {
	cases := []struct {
		value    int64
		decimals uint32
		unit     string
		want     string
	}{
		{501, 8, "CAP", "5.0100 micro CAP"},
		{1000, 8, "CAP", "10.0000 micro CAP"},
		{5000, 8, "FLARP", "50.0000 micro FLARP"},
		{123456789, 8, "UNIT", "1.2345 UNIT"},
		{99999999, 8, "UNIT", "999.9999 milli UNIT"},
		{-123456789, 8, "UNIT", "-1.2345 UNIT"},
		{utils.DOLLARS * 2500, 8, "FRQCY", "2.5000 Kilo FRQCY"},
		{0, 8, "CAP", "0.0000 CAP"},
		{7, 0, "", "7.0000"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, utils.FormatBalance(big.NewInt(c.value), c.decimals, c.unit))
	}
	assert.Equal(t, "0.0000 CAP", utils.FormatBalance(nil, 8, "CAP"))
}

func TestParseAmount(t *testing.T) {
	v, err := utils.ParseAmount("1.5", 8)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(150000000), v)

	v, err = utils.ParseAmount(" 2 ", 8)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2*utils.DOLLARS), v)

	for _, bad := range []string{"", "abc", "0", "-1", "0.000000001"} {
		_, err := utils.ParseAmount(bad, 8)
		assert.ErrorIs(t, err, utils.ErrInvalidAmount, bad)
	}
}

func TestAddressRoundTrip(t *testing.T) {
	pub, format, err := utils.DecodeAddress(aliceAddress)
	require.NoError(t, err)
	assert.Equal(t, alicePubHex, hex.EncodeToString(pub))
	assert.Equal(t, uint16(utils.SubstrateSS58Format), format)

	addr, err := utils.EncodeAddress(pub, utils.SubstrateSS58Format)
	require.NoError(t, err)
	assert.Equal(t, aliceAddress, addr)

	freq, err := utils.EncodeAddress(pub, utils.FrequencySS58Format)
	require.NoError(t, err)
	pub2, format2, err := utils.DecodeAddress(freq)
	require.NoError(t, err)
	assert.Equal(t, pub, pub2)
	assert.Equal(t, uint16(utils.FrequencySS58Format), format2)
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	_, _, err := utils.DecodeAddress("0xdeadbeef")
	assert.ErrorIs(t, err, utils.ErrInvalidAddress)

	// flip the last character to break the checksum
	broken := aliceAddress[:len(aliceAddress)-1] + "Z"
	_, _, err = utils.DecodeAddress(broken)
	assert.ErrorIs(t, err, utils.ErrInvalidAddress)

	_, err = utils.EncodeAddress([]byte{1, 2, 3}, 42)
	assert.Error(t, err)
}

func TestWrapBytes(t *testing.T) {
	w := utils.WrapBytes([]byte{1, 2})
	assert.Equal(t, "<Bytes>\x01\x02</Bytes>", string(w))
	assert.Equal(t, w, utils.WrapBytes(w))
	assert.Equal(t, []byte{1, 2}, utils.UnwrapBytes(w))
	assert.Equal(t, []byte{3}, utils.UnwrapBytes([]byte{3}))
}
