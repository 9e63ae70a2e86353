package txmgr

import (
	"fmt"

	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/bencodex"
)

const (
	ActionMintAssets     = "mint_assets"
	ActionTransferAsset5 = "transfer_asset5"
)

func typedAction(typeID string, values bencodex.Value) bencodex.Dict {
	return bencodex.Dict{
		bencodex.TextKey("type_id"): typeID,
		bencodex.TextKey("values"):  values,
	}
}

// MintAssetsAction encodes every instruction as [recipient, asset|null, item|null].
func MintAssetsAction(mints []agreement.MintInstruction) (bencodex.Dict, error) {
	if len(mints) == 0 {
		return nil, ErrNoMints
	}

	specs := make(bencodex.List, 0, len(mints))
	for _, mint := range mints {
		switch m := mint.(type) {
		case agreement.FungibleAssetMint:
			fav := agreement.FungibleAssetValue{Currency: m.Currency, RawValue: m.Amount}
			specs = append(specs, bencodex.List{m.Recipient.Bytes(), fav.Value(), nil})
		case agreement.FungibleItemMint:
			specs = append(specs, bencodex.List{m.Recipient.Bytes(), nil, bencodex.List{m.ItemID.Bytes(), m.Count}})
		default:
			return nil, fmt.Errorf("%w: %T", ErrUnknownInstruction, mint)
		}
	}

	return typedAction(ActionMintAssets, specs), nil
}

// TransferAsset5Action omits the memo key when memo is nil.
func TransferAsset5Action(sender, recipient agreement.Address, amount agreement.FungibleAssetValue, memo *string) bencodex.Dict {
	values := bencodex.Dict{
		bencodex.TextKey("amount"):    amount.Value(),
		bencodex.TextKey("recipient"): recipient.Bytes(),
		bencodex.TextKey("sender"):    sender.Bytes(),
	}
	if memo != nil {
		values[bencodex.TextKey("memo")] = *memo
	}
	return typedAction(ActionTransferAsset5, values)
}
