package monitor

import (
	"context"

	"github.com/TEENet-io/nc-bridge-go/agreement"
)

// TransferFetcher returns the transfers to a watched address.
type TransferFetcher struct {
	Client    agreement.HeadlessClient
	Recipient agreement.Address
}

func (f *TransferFetcher) FetchEvents(ctx context.Context, blockIndex uint64) ([]agreement.SourceEvent, error) {
	blockHash, err := f.Client.GetBlockHash(ctx, blockIndex)
	if err != nil {
		return nil, err
	}
	transfers, err := f.Client.GetTransferEvents(ctx, blockHash, f.Recipient)
	if err != nil {
		return nil, err
	}

	events := make([]agreement.SourceEvent, 0, len(transfers))
	for _, ev := range transfers {
		events = append(events, ev)
	}
	return events, nil
}

// GarageUnloadFetcher returns the garage unloads concerning an agent or its avatar.
type GarageUnloadFetcher struct {
	Client agreement.HeadlessClient
	Agent  agreement.Address
	Avatar agreement.Address
}

func (f *GarageUnloadFetcher) FetchEvents(ctx context.Context, blockIndex uint64) ([]agreement.SourceEvent, error) {
	blockHash, err := f.Client.GetBlockHash(ctx, blockIndex)
	if err != nil {
		return nil, err
	}
	unloads, err := f.Client.GetGarageUnloadEvents(ctx, blockIndex, f.Agent, f.Avatar)
	if err != nil {
		return nil, err
	}

	events := make([]agreement.SourceEvent, 0, len(unloads))
	for _, ev := range unloads {
		ev.BlockHash = blockHash
		events = append(events, ev)
	}
	return events, nil
}
