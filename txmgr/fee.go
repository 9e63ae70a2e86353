package txmgr

import (
	"math/big"

	"github.com/TEENet-io/nc-bridge-go/agreement"
)

// Gas is paid in Mead.
var MeadCurrency = agreement.Currency{
	Ticker:        "Mead",
	DecimalPlaces: 18,
}

const DefaultGasLimit = 4

// FeePolicy sets the gas fields of every transaction.
type FeePolicy struct {
	MaxGasPrice agreement.FungibleAssetValue
	GasLimit    int64
}

// DefaultFeePolicy is a max gas price of 1 Mead and a gas limit of 4.
func DefaultFeePolicy() FeePolicy {
	return FeePolicy{
		MaxGasPrice: agreement.FungibleAssetValue{
			Currency: MeadCurrency,
			RawValue: new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil),
		},
		GasLimit: DefaultGasLimit,
	}
}
