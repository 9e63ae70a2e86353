package agreement

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"

	"github.com/TEENet-io/nc-bridge-go/bencodex"
)

// CurrencyValue returns the canonical bencodex form of a currency.
func CurrencyValue(c Currency) bencodex.Dict {
	d := bencodex.Dict{
		bencodex.TextKey("ticker"):        c.Ticker,
		bencodex.TextKey("decimalPlaces"): []byte{c.DecimalPlaces},
	}

	if c.Minters == nil {
		d[bencodex.TextKey("minters")] = nil
	} else {
		minters := make([]Address, len(c.Minters))
		copy(minters, c.Minters)
		sort.Slice(minters, func(i, j int) bool { return bytes.Compare(minters[i][:], minters[j][:]) < 0 })

		list := make(bencodex.List, 0, len(minters))
		for _, m := range minters {
			list = append(list, m.Bytes())
		}
		d[bencodex.TextKey("minters")] = list
	}

	if c.TotalSupplyTrackable {
		d[bencodex.TextKey("totalSupplyTrackable")] = true
	}

	if c.MaximumSupply != nil {
		unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(c.DecimalPlaces)), nil)
		major, minor := new(big.Int).QuoRem(c.MaximumSupply, unit, new(big.Int))
		d[bencodex.TextKey("maximumSupplyMajor")] = major
		d[bencodex.TextKey("maximumSupplyMinor")] = minor
	}

	return d
}

// CurrencyFromValue is the inverse of CurrencyValue.
func CurrencyFromValue(v bencodex.Value) (Currency, error) {
	var c Currency

	d, err := bencodex.AsDict(v)
	if err != nil {
		return c, err
	}

	tickerV, _ := d.Get("ticker")
	if c.Ticker, err = bencodex.AsText(tickerV); err != nil {
		return c, fmt.Errorf("currency ticker: %w", err)
	}

	dpV, _ := d.Get("decimalPlaces")
	dp, err := bencodex.AsBinary(dpV)
	if err != nil || len(dp) != 1 {
		return c, fmt.Errorf("%w: currency decimalPlaces", bencodex.ErrMalformed)
	}
	c.DecimalPlaces = dp[0]

	if mintersV, ok := d.Get("minters"); ok && mintersV != nil {
		list, err := bencodex.AsList(mintersV)
		if err != nil {
			return c, fmt.Errorf("currency minters: %w", err)
		}
		c.Minters = make([]Address, 0, len(list))
		for _, item := range list {
			b, err := bencodex.AsBinary(item)
			if err != nil || len(b) != 20 {
				return c, fmt.Errorf("%w: currency minter", bencodex.ErrMalformed)
			}
			c.Minters = append(c.Minters, BytesToAddress(b))
		}
	}

	if v, ok := d.Get("totalSupplyTrackable"); ok {
		c.TotalSupplyTrackable = v == true
	}

	majorV, hasMajor := d.Get("maximumSupplyMajor")
	minorV, hasMinor := d.Get("maximumSupplyMinor")
	if hasMajor && hasMinor {
		major, err := bencodex.AsInteger(majorV)
		if err != nil {
			return c, err
		}
		minor, err := bencodex.AsInteger(minorV)
		if err != nil {
			return c, err
		}
		unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(c.DecimalPlaces)), nil)
		c.MaximumSupply = new(big.Int).Add(new(big.Int).Mul(major, unit), minor)
	}

	return c, nil
}

// FungibleAssetValue is encoded as [currency, rawValue].
func (fav FungibleAssetValue) Value() bencodex.List {
	return bencodex.List{CurrencyValue(fav.Currency), fav.RawValue}
}

func FungibleAssetValueFromValue(v bencodex.Value) (FungibleAssetValue, error) {
	var fav FungibleAssetValue

	list, err := bencodex.AsList(v)
	if err != nil {
		return fav, err
	}
	if len(list) != 2 {
		return fav, fmt.Errorf("%w: fungible asset value has %d elements", bencodex.ErrMalformed, len(list))
	}
	if fav.Currency, err = CurrencyFromValue(list[0]); err != nil {
		return fav, err
	}
	if fav.RawValue, err = bencodex.AsInteger(list[1]); err != nil {
		return fav, err
	}
	return fav, nil
}

func BytesToAddress(b []byte) Address {
	var a Address
	copy(a[:], b)
	return a
}
