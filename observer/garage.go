package observer

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/common"
)

// GarageObserver mints what was unloaded from a garage: assets to their
// owners, items to the recipient avatar. One event is one transaction.
type GarageObserver struct {
	relay
}

var _ agreement.Observer = (*GarageObserver)(nil)

func NewGarageObserver(cfg Config) *GarageObserver {
	return &GarageObserver{relay: newRelay("garage", cfg)}
}

func (o *GarageObserver) Notify(ctx context.Context, events []agreement.SourceEvent) error {
	for _, ev := range events {
		unload, ok := ev.(*agreement.GarageUnloadEvent)
		if !ok {
			return fmt.Errorf("%w: %T", ErrUnexpectedEvent, ev)
		}

		if err := o.storePosition(unload); err != nil {
			return err
		}

		mints, err := GarageMints(unload)
		if err != nil {
			return fmt.Errorf("tx %s: %w", unload.TxID.Hex(), err)
		}
		if len(mints) == 0 {
			logger.WithField("tx", unload.TxID.Hex()).Warn("garage unload carries nothing to mint")
			continue
		}

		if err := o.mint(ctx, unload, mints); err != nil {
			return err
		}
	}
	return nil
}

// GarageMints lists asset lines first, then item lines, each in event order.
// Lines that come to nothing are left out, the same as transfer dust.
func GarageMints(ev *agreement.GarageUnloadEvent) ([]agreement.MintInstruction, error) {
	mints := make([]agreement.MintInstruction, 0, len(ev.FungibleAssets)+len(ev.FungibleItems))
	for _, line := range ev.FungibleAssets {
		amount, err := common.ScaleAmount(line.Amount, line.Currency.DecimalPlaces)
		if err != nil {
			return nil, err
		}
		if amount.Sign() == 0 {
			logger.WithFields(logger.Fields{
				"tx":       ev.TxID.Hex(),
				"owner":    line.Owner.Hex(),
				"currency": line.Currency.Ticker,
				"amount":   line.Amount.String(),
			}).Warn("garage asset line is below the smallest unit, not minted")
			continue
		}
		mints = append(mints, agreement.FungibleAssetMint{
			Recipient: line.Owner,
			Amount:    amount,
			Currency:  line.Currency,
		})
	}
	for _, line := range ev.FungibleItems {
		if line.Count == 0 {
			logger.WithFields(logger.Fields{
				"tx":   ev.TxID.Hex(),
				"item": line.ItemID.Hex(),
			}).Warn("garage item line has count 0, not minted")
			continue
		}
		mints = append(mints, agreement.FungibleItemMint{
			Recipient: line.Recipient,
			ItemID:    line.ItemID,
			Count:     line.Count,
		})
	}
	return mints, nil
}
