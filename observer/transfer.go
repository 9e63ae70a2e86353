package observer

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/common"
)

// TransferObserver mints the transferred amount to the address written in
// the transfer memo.
type TransferObserver struct {
	relay
	currency agreement.Currency
}

var _ agreement.Observer = (*TransferObserver)(nil)

// NewTransferObserver mints NCG with the minter as its only minter.
func NewTransferObserver(cfg Config) *TransferObserver {
	return NewTransferObserverWithCurrency(cfg, NCG(cfg.Minter.MinterAddress()))
}

func NewTransferObserverWithCurrency(cfg Config, currency agreement.Currency) *TransferObserver {
	return &TransferObserver{relay: newRelay("transfer", cfg), currency: currency}
}

// NCG on the destination chain, 2 decimal places.
func NCG(minter agreement.Address) agreement.Currency {
	return agreement.Currency{
		Ticker:        "NCG",
		DecimalPlaces: 2,
		Minters:       []agreement.Address{minter},
	}
}

func (o *TransferObserver) Notify(ctx context.Context, events []agreement.SourceEvent) error {
	for _, ev := range events {
		transfer, ok := ev.(*agreement.TransferEvent)
		if !ok {
			return fmt.Errorf("%w: %T", ErrUnexpectedEvent, ev)
		}

		if err := o.storePosition(transfer); err != nil {
			return err
		}

		recipient, err := common.ParseAddress(transfer.Memo)
		if err != nil {
			return fmt.Errorf("%w: memo %q of tx %s", ErrInvalidRecipient, transfer.Memo, transfer.TxID.Hex())
		}

		amount, err := common.ScaleAmount(transfer.Amount, o.currency.DecimalPlaces)
		if err != nil {
			return fmt.Errorf("tx %s: %w", transfer.TxID.Hex(), err)
		}
		if amount.Sign() == 0 {
			logger.WithFields(logger.Fields{
				"tx":     transfer.TxID.Hex(),
				"amount": transfer.Amount.String(),
			}).Warn("amount is below the smallest unit, nothing to mint")
			continue
		}

		mint := agreement.FungibleAssetMint{Recipient: recipient, Amount: amount, Currency: o.currency}
		if err := o.mint(ctx, transfer, []agreement.MintInstruction{mint}); err != nil {
			return err
		}
	}
	return nil
}
