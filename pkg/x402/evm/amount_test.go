package evm

import (
	"testing"

	"github.com/stretchr/testify/require"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
)

func TestParseAmountExact(t *testing.T) {
	cases := []struct {
		decimal  string
		decimals uint8
		want     x402.TokenAmount
	}{
		{"1", 6, "1000000"},
		{"1.5", 6, "1500000"},
		{"0.000001", 6, "1"},
		{"0", 6, "0"},
		{"123.456789", 6, "123456789"},
	}
	for _, c := range cases {
		got, err := ParseAmount(c.decimal, c.decimals)
		require.NoError(t, err, c.decimal)
		require.Equal(t, c.want, got, c.decimal)
	}
}

func TestParseAmountRejectsExcessPrecision(t *testing.T) {
	_, err := ParseAmount("0.0000001", 6)
	require.Error(t, err)
	require.ErrorIs(t, err, x402.ErrPrecisionLoss)
}

func TestParseAmountRejectsNegative(t *testing.T) {
	_, err := ParseAmount("-1", 6)
	require.Error(t, err)
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	_, err := ParseAmount("not-a-number", 6)
	require.Error(t, err)
}

func TestFormatAmountRoundTrip(t *testing.T) {
	amt, err := ParseAmount("1.5", 6)
	require.NoError(t, err)
	s, err := FormatAmount(amt, 6)
	require.NoError(t, err)
	require.Equal(t, "1.500000", s)
}
