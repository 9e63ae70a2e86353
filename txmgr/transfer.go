package txmgr

import (
	"context"

	"github.com/TEENet-io/nc-bridge-go/agreement"
)

// AssetTransfer moves assets held by the signer with transfer_asset5.
type AssetTransfer struct {
	submitter *Submitter
}

func NewAssetTransfer(submitter *Submitter) *AssetTransfer {
	return &AssetTransfer{submitter: submitter}
}

func (at *AssetTransfer) Transfer(ctx context.Context, recipient agreement.Address, amount agreement.FungibleAssetValue, memo *string) (agreement.TxID, error) {
	action := TransferAsset5Action(at.submitter.Address(), recipient, amount, memo)
	return at.submitter.Submit(ctx, ActionTransferAsset5, action)
}
