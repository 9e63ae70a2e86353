package agreement

import (
	"context"
)

// HeadlessClient is what the relay needs from a chain endpoint.
// The same interface serves the source chain (reads) and the
// destination chain (nonce, genesis hash, staging).
type HeadlessClient interface {
	GetTipIndex(ctx context.Context) (uint64, error)
	GetBlockHash(ctx context.Context, index uint64) (BlockHash, error)
	GetBlockIndex(ctx context.Context, hash BlockHash) (uint64, error)

	// Events are returned in the order they appear in the block.
	GetTransferEvents(ctx context.Context, blockHash BlockHash, recipient Address) ([]*TransferEvent, error)

	// Includes an event iff its recipient avatar equals avatar, or any of
	// its fungible asset lines is owned by agent.
	GetGarageUnloadEvents(ctx context.Context, blockIndex uint64, agent, avatar Address) ([]*GarageUnloadEvent, error)

	GetNextTxNonce(ctx context.Context, address Address) (int64, error)
	GetGenesisHash(ctx context.Context) (BlockHash, error)

	// StageTransaction takes a hex encoded signed transaction.
	StageTransaction(ctx context.Context, payload string) (TxID, error)
}

// PositionStore persists the relay position of each monitor.
// Load returns (nil, nil) when nothing was stored yet.
type PositionStore interface {
	Load(key string) (*TransactionLocation, error)
	Store(key string, loc TransactionLocation) error
}

// Minter issues mint transactions on the destination chain.
type Minter interface {
	MinterAddress() Address
	MintAssets(ctx context.Context, mints []MintInstruction) (TxID, error)
}

// Observer receives finalized source events, in chain order.
type Observer interface {
	Notify(ctx context.Context, events []SourceEvent) error
}
