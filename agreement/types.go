// Golbal Agreement on types

package agreement

import (
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Address of an account on either chain. Both chains derive it the same way
// (last 20 bytes of keccak256 over the uncompressed public key).
type Address = ethcommon.Address

type BlockHash = ethcommon.Hash

type TxID = ethcommon.Hash

// ChainLocation identifies a block.
type ChainLocation struct {
	BlockHash  BlockHash
	BlockIndex uint64
}

// TransactionLocation identifies a transaction inside a block.
// It is the durable relay checkpoint: once stored, every event at or
// before it is considered processed.
type TransactionLocation struct {
	BlockHash BlockHash
	TxID      TxID
}

func (tl TransactionLocation) String() string {
	return fmt.Sprintf("{block=%s tx=%s}", tl.BlockHash.Hex(), tl.TxID.Hex())
}

// Currency describes a fungible asset. Two currencies are the same only if
// every field matches.
type Currency struct {
	Ticker               string
	DecimalPlaces        uint8
	Minters              []Address // nil means anyone can mint
	TotalSupplyTrackable bool
	MaximumSupply        *big.Int // in minor units, nil means unlimited
}

func (c Currency) Equal(o Currency) bool {
	if c.Ticker != o.Ticker || c.DecimalPlaces != o.DecimalPlaces || c.TotalSupplyTrackable != o.TotalSupplyTrackable {
		return false
	}
	if (c.Minters == nil) != (o.Minters == nil) || len(c.Minters) != len(o.Minters) {
		return false
	}
	for i := range c.Minters {
		if c.Minters[i] != o.Minters[i] {
			return false
		}
	}
	if (c.MaximumSupply == nil) != (o.MaximumSupply == nil) {
		return false
	}
	return c.MaximumSupply == nil || c.MaximumSupply.Cmp(o.MaximumSupply) == 0
}

// FungibleAssetValue is an amount of a currency in minor units.
type FungibleAssetValue struct {
	Currency Currency
	RawValue *big.Int
}

// SourceEvent is an event observed on the source chain.
type SourceEvent interface {
	Location() TransactionLocation
}

// TransferEvent is a fungible asset transfer to a watched address.
// The memo carries the recipient on the destination chain.
type TransferEvent struct {
	BlockHash BlockHash
	TxID      TxID
	Sender    Address
	Recipient Address
	Amount    decimal.Decimal
	Memo      string
}

func (ev *TransferEvent) Location() TransactionLocation {
	return TransactionLocation{BlockHash: ev.BlockHash, TxID: ev.TxID}
}

func (ev *TransferEvent) String() string {
	return fmt.Sprintf("%+v", *ev)
}

type FungibleAssetLine struct {
	Owner    Address
	Currency Currency
	Amount   decimal.Decimal
}

type FungibleItemLine struct {
	Recipient Address
	ItemID    ethcommon.Hash
	Count     int64
}

// GarageUnloadEvent is an unload_from_my_garages action on the source chain.
type GarageUnloadEvent struct {
	BlockHash              BlockHash
	TxID                   TxID
	RecipientAvatarAddress Address
	FungibleAssets         []FungibleAssetLine
	FungibleItems          []FungibleItemLine
	Memo                   *string
}

func (ev *GarageUnloadEvent) Location() TransactionLocation {
	return TransactionLocation{BlockHash: ev.BlockHash, TxID: ev.TxID}
}

func (ev *GarageUnloadEvent) String() string {
	return fmt.Sprintf("%+v", *ev)
}

// MintInstruction is either a FungibleAssetMint or a FungibleItemMint.
type MintInstruction interface {
	isMintInstruction()
	MintRecipient() Address
}

type FungibleAssetMint struct {
	Recipient Address
	Amount    *big.Int // minor units
	Currency  Currency
}

func (FungibleAssetMint) isMintInstruction() {}

func (m FungibleAssetMint) MintRecipient() Address { return m.Recipient }

type FungibleItemMint struct {
	Recipient Address
	ItemID    ethcommon.Hash
	Count     int64
}

func (FungibleItemMint) isMintInstruction() {}

func (m FungibleItemMint) MintRecipient() Address { return m.Recipient }
