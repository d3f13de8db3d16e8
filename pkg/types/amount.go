package types

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// ToBaseUnits converts a human-readable amount to the token's smallest unit.
// Fractional dust below the token's precision is rejected rather than
// silently truncated.
func ToBaseUnits(amount string, decimals int) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be greater than 0")
	}

	shifted := d.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}

	return shifted.BigInt(), nil
}

// FromBaseUnits formats a smallest-unit amount as a human-readable string.
func FromBaseUnits(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}

// FromBaseUnitsString is FromBaseUnits for amounts that arrive as decimal
// strings from the API.
func FromBaseUnitsString(v string, decimals int) (string, error) {
	n, ok := new(big.Int).SetString(v, 10)
	if !ok {
		return "", fmt.Errorf("invalid base unit amount %q", v)
	}
	return FromBaseUnits(n, decimals), nil
}
