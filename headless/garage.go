package headless

import (
	"fmt"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/bencodex"
	"github.com/TEENet-io/nc-bridge-go/common"
)

// DecodeGarageUnload decodes the raw bencodex of an unload_from_my_garages
// action:
//
//	{"type_id": ..., "values": {"l": [avatar, [[owner, fav]...], [[itemId, count]...], memo]}}
//
// TxID and BlockHash are not part of the action and stay empty.
func DecodeGarageUnload(raw []byte) (*agreement.GarageUnloadEvent, error) {
	v, err := bencodex.Decode(raw)
	if err != nil {
		return nil, err
	}
	action, err := bencodex.AsDict(v)
	if err != nil {
		return nil, err
	}
	valuesV, ok := action.Get("values")
	if !ok {
		return nil, fmt.Errorf("%w: action has no values", bencodex.ErrMalformed)
	}
	values, err := bencodex.AsDict(valuesV)
	if err != nil {
		return nil, err
	}
	lV, ok := values.Get("l")
	if !ok {
		return nil, fmt.Errorf("%w: garage values have no l", bencodex.ErrMalformed)
	}
	l, err := bencodex.AsList(lV)
	if err != nil {
		return nil, err
	}
	if len(l) < 4 {
		return nil, fmt.Errorf("%w: garage values have %d elements", bencodex.ErrMalformed, len(l))
	}

	avatar, err := asAddress(l[0])
	if err != nil {
		return nil, err
	}
	ev := &agreement.GarageUnloadEvent{RecipientAvatarAddress: avatar}

	if l[1] != nil {
		favs, err := bencodex.AsList(l[1])
		if err != nil {
			return nil, err
		}
		for _, item := range favs {
			pair, err := bencodex.AsList(item)
			if err != nil || len(pair) != 2 {
				return nil, fmt.Errorf("%w: fungible asset line", bencodex.ErrMalformed)
			}
			owner, err := asAddress(pair[0])
			if err != nil {
				return nil, err
			}
			fav, err := agreement.FungibleAssetValueFromValue(pair[1])
			if err != nil {
				return nil, err
			}
			ev.FungibleAssets = append(ev.FungibleAssets, agreement.FungibleAssetLine{
				Owner:    owner,
				Currency: fav.Currency,
				Amount:   common.UnscaleAmount(fav.RawValue, fav.Currency.DecimalPlaces),
			})
		}
	}

	if l[2] != nil {
		items, err := bencodex.AsList(l[2])
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			pair, err := bencodex.AsList(item)
			if err != nil || len(pair) != 2 {
				return nil, fmt.Errorf("%w: fungible item line", bencodex.ErrMalformed)
			}
			id, err := bencodex.AsBinary(pair[0])
			if err != nil || len(id) != ethcommon.HashLength {
				return nil, fmt.Errorf("%w: fungible item id", bencodex.ErrMalformed)
			}
			count, err := bencodex.AsInteger(pair[1])
			if err != nil || !count.IsInt64() {
				return nil, fmt.Errorf("%w: fungible item count", bencodex.ErrMalformed)
			}
			ev.FungibleItems = append(ev.FungibleItems, agreement.FungibleItemLine{
				Recipient: avatar,
				ItemID:    ethcommon.BytesToHash(id),
				Count:     count.Int64(),
			})
		}
	}

	if l[3] != nil {
		memo, err := bencodex.AsText(l[3])
		if err != nil {
			return nil, err
		}
		ev.Memo = &memo
	}

	return ev, nil
}

// GarageUnloadConcerns reports whether an unload is addressed to the avatar
// or moves assets owned by the agent.
func GarageUnloadConcerns(ev *agreement.GarageUnloadEvent, agent, avatar agreement.Address) bool {
	if ev.RecipientAvatarAddress == avatar {
		return true
	}
	for _, line := range ev.FungibleAssets {
		if line.Owner == agent {
			return true
		}
	}
	return false
}

func asAddress(v bencodex.Value) (agreement.Address, error) {
	b, err := bencodex.AsBinary(v)
	if err != nil {
		return agreement.Address{}, err
	}
	if len(b) != ethcommon.AddressLength {
		return agreement.Address{}, fmt.Errorf("%w: address has %d bytes", bencodex.ErrMalformed, len(b))
	}
	return agreement.BytesToAddress(b), nil
}
