package utils

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	CENTS   = 1000000
	DOLLARS = 100 * CENTS

	DefaultDecimals = 8
	displayDigits   = 4
)

var siPrefixes = map[int]string{
	-24: "yocto",
	-21: "zepto",
	-18: "atto",
	-15: "femto",
	-12: "pico",
	-9:  "nano",
	-6:  "micro",
	-3:  "milli",
	0:   "",
	3:   "Kilo",
	6:   "Mill",
	9:   "Bill",
	12:  "Tril",
	15:  "Peta",
	18:  "Exa",
	21:  "Zeta",
	24:  "Yotta",
}

// FormatBalance renders an amount of planck with the SI prefix that keeps the
// integer part below 1000, e.g. 501 planck at 8 decimals is "5.0100 micro CAP".
func FormatBalance(value *big.Int, decimals uint32, unit string) string {
	if value == nil || value.Sign() == 0 {
		return strings.TrimSpace(fmt.Sprintf("%s %s", decimal.Zero.StringFixed(displayDigits), unit))
	}
	d := decimal.NewFromBigInt(value, -int32(decimals))

	digits := len(new(big.Int).Abs(value).String())
	exp := digits - 1 - int(decimals)
	si := floorDiv(exp, 3) * 3
	if si < -24 {
		si = -24
	}
	if si > 24 {
		si = 24
	}

	// digits past the fourth are cut, never rounded up
	shown := d.Shift(int32(-si)).Truncate(displayDigits).StringFixed(displayDigits)
	prefix := siPrefixes[si]
	if prefix == "" {
		return strings.TrimSpace(fmt.Sprintf("%s %s", shown, unit))
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s %s", shown, prefix, unit))
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a token amount like "1.5" into planck.
func ParseAmount(s string, decimals uint32) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, s)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %s must be positive", ErrInvalidAmount, s)
	}
	planck := d.Shift(int32(decimals))
	if !planck.Equal(planck.Truncate(0)) {
		return nil, fmt.Errorf("%w: %s has more than %d decimals", ErrInvalidAmount, s, decimals)
	}
	return planck.BigInt(), nil
}
