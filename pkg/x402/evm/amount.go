package evm

import (
	"math/big"
	"strings"

	x402 "github.com/ultravioletadao/karmakadabra-core/pkg/x402"
)

// ParseAmount converts a human decimal string (e.g. "1.50") plus a token's
// decimals count into the token's smallest-unit integer amount, the way the
// teacher's money-parser example motivates but implemented here with
// math/big.Rat so the conversion is exact rather than float-based. Any
// fractional remainder below one smallest unit is rejected as precision
// loss rather than silently truncated or rounded.
func ParseAmount(decimal string, decimals uint8) (x402.TokenAmount, error) {
	decimal = strings.TrimSpace(decimal)
	if decimal == "" {
		return "", x402.New(x402.KindInvalidArgument, "amount must not be empty")
	}

	r, ok := new(big.Rat).SetString(decimal)
	if !ok {
		return "", x402.New(x402.KindInvalidArgument, "amount is not a valid decimal number")
	}
	if r.Sign() < 0 {
		return "", x402.New(x402.KindInvalidArgument, "amount must not be negative")
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	scaled := new(big.Rat).Mul(r, new(big.Rat).SetInt(scale))

	if !scaled.IsInt() {
		return "", x402.Wrap(x402.KindPrecisionLoss, "amount has more precision than the token's decimals support", x402.ErrPrecisionLoss)
	}

	return x402.TokenAmount(scaled.Num().String()), nil
}

// FormatAmount converts a smallest-unit integer TokenAmount back into a
// human decimal string, for logging and display only.
func FormatAmount(amount x402.TokenAmount, decimals uint8) (string, error) {
	n, ok := new(big.Int).SetString(string(amount), 10)
	if !ok {
		return "", x402.New(x402.KindInvalidArgument, "amount is not a valid integer")
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	r := new(big.Rat).SetFrac(n, scale)
	return r.FloatString(int(decimals)), nil
}
