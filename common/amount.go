package common

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

var ErrNegativeAmount = errors.New("negative amount")

// ScaleAmount converts a decimal amount to minor units, truncating any digit
// beyond decimalPlaces. 1.005 with two places is 100.
func ScaleAmount(amount decimal.Decimal, decimalPlaces uint8) (*big.Int, error) {
	if amount.IsNegative() {
		return nil, ErrNegativeAmount
	}
	return amount.Shift(int32(decimalPlaces)).Truncate(0).BigInt(), nil
}

// UnscaleAmount is the inverse of ScaleAmount: raw / 10^decimalPlaces.
func UnscaleAmount(raw *big.Int, decimalPlaces uint8) decimal.Decimal {
	return decimal.NewFromBigInt(raw, -int32(decimalPlaces))
}
