package cmd

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/nc-bridge-go/account"
	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/common"
	"github.com/TEENet-io/nc-bridge-go/headless"
	"github.com/TEENet-io/nc-bridge-go/txmgr"
)

// NCGMinter mints NCG on the upstream network. Currency equality covers the
// minter set, so a deposit without it is a different asset.
const NCGMinter = "0x47d082a115c63e7b58b1532d20e631538eafadde"

// UpstreamCurrency builds the currency a deposit is sent in. An empty minter
// means no minters.
func UpstreamCurrency(ticker string, decimalPlaces uint8, minter string) (agreement.Currency, error) {
	currency := agreement.Currency{Ticker: ticker, DecimalPlaces: decimalPlaces}
	if minter == "" {
		return currency, nil
	}
	m, err := common.ParseAddress(minter)
	if err != nil {
		return agreement.Currency{}, fmt.Errorf("minter: %w", err)
	}
	currency.Minters = []agreement.Address{m}
	return currency, nil
}

// UserConfig configures a user sending assets into the bridge vault.
type UserConfig struct {
	GqlEndpoint string
	PrivateKey  string
}

// User is a holder of NCG on the upstream chain.
type User struct {
	transfer *txmgr.AssetTransfer
	address  agreement.Address
}

func NewUser(cfg *UserConfig) (*User, error) {
	if cfg.GqlEndpoint == "" {
		return nil, fmt.Errorf("%w: upstream graphql endpoint", ErrMissingConfig)
	}
	return NewUserWithClient(cfg, headless.NewClient(headless.DefaultConfig(cfg.GqlEndpoint)))
}

func NewUserWithClient(cfg *UserConfig, client agreement.HeadlessClient) (*User, error) {
	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("%w: depositor private key", ErrMissingConfig)
	}
	key, err := account.NewRawPrivateKeyFromHex(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	submitter := txmgr.NewSubmitter(client, key, txmgr.DefaultFeePolicy())
	return &User{transfer: txmgr.NewAssetTransfer(submitter), address: key.Address()}, nil
}

func (u *User) Address() agreement.Address {
	return u.address
}

// Deposit sends amount to the vault with the downstream recipient as memo,
// which is what the transfer observer mints to.
func (u *User) Deposit(ctx context.Context, vault, recipient agreement.Address, amount decimal.Decimal, currency agreement.Currency) (agreement.TxID, error) {
	raw, err := common.ScaleAmount(amount, currency.DecimalPlaces)
	if err != nil {
		return agreement.TxID{}, err
	}
	memo := recipient.Hex()
	txID, err := u.transfer.Transfer(ctx, vault, agreement.FungibleAssetValue{Currency: currency, RawValue: raw}, &memo)
	if err != nil {
		return agreement.TxID{}, err
	}
	logger.WithFields(logger.Fields{
		"from":      u.address.Hex(),
		"vault":     vault.Hex(),
		"recipient": memo,
		"amount":    amount.String(),
		"tx":        txID.Hex(),
	}).Info("deposit staged")
	return txID, nil
}
