package headless

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/common"
)

const (
	queryTipIndex = `query GetTipIndex
{ chainQuery { blockQuery { blocks(desc: true, limit: 1) { index } } } }`

	queryBlockHash = `query GetBlockHash($index: ID!)
{ chainQuery { blockQuery { block(index: $index) { hash } } } }`

	queryBlockIndex = `query GetBlockIndex($hash: ID!)
{ chainQuery { blockQuery { block(hash: $hash) { index } } } }`

	queryTransferEvents = `query GetNCGTransferEvents($blockHash: ByteString!, $recipient: Address!)
{ transferNCGHistories(blockHash: $blockHash, recipient: $recipient) { blockHash txId sender recipient amount memo } }`

	// limit counts blocks starting at startingBlockIndex.
	queryGarageUnloads = `query GetGarageUnloads($startingBlockIndex: Long!, $limit: Long!)
{ transaction { ncTransactions(startingBlockIndex: $startingBlockIndex, actionType: "unload_from_my_garages*", limit: $limit) { id actions { raw } } } }`

	queryNextTxNonce = `query GetNextTxNonce($address: Address!) { nextTxNonce(address: $address) }`

	queryGenesisHash = `query GetGenesisHash { chainQuery { blockQuery { block(index: 0) { hash } } } }`

	mutationStageTransaction = `mutation StageTransaction($payload: String!) { stageTransaction(payload: $payload) }`
)

type blockFields struct {
	Index *uint64 `json:"index"`
	Hash  *string `json:"hash"`
}

type blockQueryResponse struct {
	ChainQuery struct {
		BlockQuery struct {
			Block  *blockFields  `json:"block"`
			Blocks []blockFields `json:"blocks"`
		} `json:"blockQuery"`
	} `json:"chainQuery"`
}

func (c *Client) GetTipIndex(ctx context.Context) (uint64, error) {
	var resp blockQueryResponse
	if err := c.request(ctx, "GetTipIndex", queryTipIndex, map[string]any{}, &resp); err != nil {
		return 0, err
	}
	blocks := resp.ChainQuery.BlockQuery.Blocks
	if len(blocks) == 0 || blocks[0].Index == nil {
		return 0, ErrNotFoundFor("tip", "")
	}
	return *blocks[0].Index, nil
}

func (c *Client) GetBlockHash(ctx context.Context, index uint64) (agreement.BlockHash, error) {
	var resp blockQueryResponse
	if err := c.request(ctx, "GetBlockHash", queryBlockHash, map[string]any{"index": index}, &resp); err != nil {
		return agreement.BlockHash{}, err
	}
	block := resp.ChainQuery.BlockQuery.Block
	if block == nil || block.Hash == nil {
		return agreement.BlockHash{}, ErrNotFoundFor("block", index)
	}
	hash, err := common.ParseHash(*block.Hash)
	if err != nil {
		return agreement.BlockHash{}, ErrMalformedResponse("GetBlockHash", err)
	}
	return hash, nil
}

func (c *Client) GetBlockIndex(ctx context.Context, hash agreement.BlockHash) (uint64, error) {
	var resp blockQueryResponse
	if err := c.request(ctx, "GetBlockIndex", queryBlockIndex, map[string]any{"hash": hexOf(hash)}, &resp); err != nil {
		return 0, err
	}
	block := resp.ChainQuery.BlockQuery.Block
	if block == nil || block.Index == nil {
		return 0, ErrNotFoundFor("block", hash.Hex())
	}
	return *block.Index, nil
}

type transferHistory struct {
	BlockHash string  `json:"blockHash"`
	TxID      string  `json:"txId"`
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient"`
	Amount    string  `json:"amount"`
	Memo      *string `json:"memo"`
}

func (h transferHistory) toEvent() (*agreement.TransferEvent, error) {
	blockHash, err := common.ParseHash(h.BlockHash)
	if err != nil {
		return nil, err
	}
	txID, err := common.ParseHash(h.TxID)
	if err != nil {
		return nil, err
	}
	sender, err := common.ParseAddress(h.Sender)
	if err != nil {
		return nil, err
	}
	recipient, err := common.ParseAddress(h.Recipient)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(h.Amount)
	if err != nil {
		return nil, fmt.Errorf("amount %q: %w", h.Amount, err)
	}

	ev := &agreement.TransferEvent{
		BlockHash: blockHash,
		TxID:      txID,
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	}
	if h.Memo != nil {
		ev.Memo = *h.Memo
	}
	return ev, nil
}

func (c *Client) GetTransferEvents(ctx context.Context, blockHash agreement.BlockHash, recipient agreement.Address) ([]*agreement.TransferEvent, error) {
	var resp struct {
		TransferNCGHistories []transferHistory `json:"transferNCGHistories"`
	}
	vars := map[string]any{
		"blockHash": hexOf(blockHash),
		"recipient": recipient.Hex(),
	}
	if err := c.request(ctx, "GetNCGTransferEvents", queryTransferEvents, vars, &resp); err != nil {
		return nil, err
	}

	events := make([]*agreement.TransferEvent, 0, len(resp.TransferNCGHistories))
	for _, h := range resp.TransferNCGHistories {
		ev, err := h.toEvent()
		if err != nil {
			return nil, ErrMalformedResponse("GetNCGTransferEvents", err)
		}
		events = append(events, ev)
	}
	return events, nil
}

type ncTransaction struct {
	ID      string `json:"id"`
	Actions []struct {
		Raw string `json:"raw"`
	} `json:"actions"`
}

// GetGarageUnloadEvents returns the garage unloads of one block that concern
// the given agent or avatar. Block hashes are left empty; callers that know
// the block hash stamp it on.
func (c *Client) GetGarageUnloadEvents(ctx context.Context, blockIndex uint64, agent, avatar agreement.Address) ([]*agreement.GarageUnloadEvent, error) {
	var resp struct {
		Transaction struct {
			NCTransactions []ncTransaction `json:"ncTransactions"`
		} `json:"transaction"`
	}
	vars := map[string]any{
		"startingBlockIndex": blockIndex,
		"limit":              1,
	}
	if err := c.request(ctx, "GetGarageUnloads", queryGarageUnloads, vars, &resp); err != nil {
		return nil, err
	}

	events := []*agreement.GarageUnloadEvent{}
	for _, tx := range resp.Transaction.NCTransactions {
		if len(tx.Actions) == 0 {
			continue
		}
		txID, err := common.ParseHash(tx.ID)
		if err != nil {
			return nil, ErrMalformedResponse("GetGarageUnloads", err)
		}
		raw, err := common.HexStrToByteSlice(tx.Actions[0].Raw)
		if err != nil {
			return nil, ErrMalformedResponse("GetGarageUnloads", err)
		}
		ev, err := DecodeGarageUnload(raw)
		if err != nil {
			return nil, ErrMalformedResponse("GetGarageUnloads", err)
		}
		ev.TxID = txID

		if GarageUnloadConcerns(ev, agent, avatar) {
			events = append(events, ev)
		}
	}
	return events, nil
}

func (c *Client) GetNextTxNonce(ctx context.Context, address agreement.Address) (int64, error) {
	var resp struct {
		NextTxNonce int64 `json:"nextTxNonce"`
	}
	if err := c.request(ctx, "GetNextTxNonce", queryNextTxNonce, map[string]any{"address": address.Hex()}, &resp); err != nil {
		return 0, err
	}
	return resp.NextTxNonce, nil
}

func (c *Client) GetGenesisHash(ctx context.Context) (agreement.BlockHash, error) {
	var resp blockQueryResponse
	if err := c.request(ctx, "GetGenesisHash", queryGenesisHash, map[string]any{}, &resp); err != nil {
		return agreement.BlockHash{}, err
	}
	block := resp.ChainQuery.BlockQuery.Block
	if block == nil || block.Hash == nil {
		return agreement.BlockHash{}, ErrNotFoundFor("block", 0)
	}
	hash, err := common.ParseHash(*block.Hash)
	if err != nil {
		return agreement.BlockHash{}, ErrMalformedResponse("GetGenesisHash", err)
	}
	return hash, nil
}

func (c *Client) StageTransaction(ctx context.Context, payload string) (agreement.TxID, error) {
	var resp struct {
		StageTransaction string `json:"stageTransaction"`
	}
	if err := c.request(ctx, "StageTransaction", mutationStageTransaction, map[string]any{"payload": payload}, &resp); err != nil {
		return agreement.TxID{}, err
	}
	txID, err := common.ParseHash(resp.StageTransaction)
	if err != nil {
		return agreement.TxID{}, ErrMalformedResponse("StageTransaction", err)
	}
	return txID, nil
}
