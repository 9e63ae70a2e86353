package headless

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/bencodex"
	"github.com/TEENet-io/nc-bridge-go/common"
)

type gqlRequest struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
}

// newFakeHeadless answers each operation with the payload returned by the
// matching handler. A handler returning a string is sent as an error list.
func newFakeHeadless(t *testing.T, handlers map[string]func(vars map[string]any) any) (*httptest.Server, *int32) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)

		var req gqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		h, ok := handlers[req.OperationName]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch out := h(req.Variables).(type) {
		case string:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data":   nil,
				"errors": []map[string]any{{"message": out}},
			})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{"data": out})
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func testConfig(endpoint string) Config {
	return Config{
		Endpoint:   endpoint,
		MaxRetry:   3,
		RetryDelay: time.Millisecond,
		Timeout:    time.Second,
	}
}

func TestGetTipIndex(t *testing.T) {
	srv, _ := newFakeHeadless(t, map[string]func(map[string]any) any{
		"GetTipIndex": func(map[string]any) any {
			return map[string]any{"chainQuery": map[string]any{"blockQuery": map[string]any{
				"blocks": []map[string]any{{"index": 10}},
			}}}
		},
	})

	tip, err := NewClient(testConfig(srv.URL)).GetTipIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(10), tip)
}

func TestRetryCount(t *testing.T) {
	srv, calls := newFakeHeadless(t, map[string]func(map[string]any) any{
		"GetTipIndex": func(map[string]any) any { return "node is syncing" },
	})

	cfg := testConfig(srv.URL)
	_, err := NewClient(cfg).GetTipIndex(context.Background())
	assert.ErrorIs(t, err, ErrGraphQL)
	assert.Equal(t, int32(cfg.MaxRetry+1), atomic.LoadInt32(calls))
}

func TestRetryRecovers(t *testing.T) {
	var n int32
	srv, calls := newFakeHeadless(t, map[string]func(map[string]any) any{
		"GetNextTxNonce": func(vars map[string]any) any {
			if atomic.AddInt32(&n, 1) < 3 {
				return "temporarily unavailable"
			}
			return map[string]any{"nextTxNonce": 7}
		},
	})

	nonce, err := NewClient(testConfig(srv.URL)).GetNextTxNonce(context.Background(), common.RandAddress())
	require.NoError(t, err)
	assert.Equal(t, int64(7), nonce)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestRetryStopsOnCancel(t *testing.T) {
	srv, _ := newFakeHeadless(t, map[string]func(map[string]any) any{
		"GetTipIndex": func(map[string]any) any { return "down" },
	})

	cfg := testConfig(srv.URL)
	cfg.MaxRetry = 1000
	cfg.RetryDelay = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewClient(cfg).GetTipIndex(ctx)
	assert.Error(t, err)
}

func TestGetBlockHashAndIndex(t *testing.T) {
	hash := common.RandHash()
	srv, _ := newFakeHeadless(t, map[string]func(map[string]any) any{
		"GetBlockHash": func(vars map[string]any) any {
			assert.Equal(t, float64(8), vars["index"])
			return map[string]any{"chainQuery": map[string]any{"blockQuery": map[string]any{
				"block": map[string]any{"hash": common.ByteSliceToPureHexStr(hash[:])},
			}}}
		},
		"GetBlockIndex": func(vars map[string]any) any {
			assert.Equal(t, common.ByteSliceToPureHexStr(hash[:]), vars["hash"])
			return map[string]any{"chainQuery": map[string]any{"blockQuery": map[string]any{
				"block": map[string]any{"index": 8},
			}}}
		},
		"GetGenesisHash": func(map[string]any) any {
			return map[string]any{"chainQuery": map[string]any{"blockQuery": map[string]any{
				"block": nil,
			}}}
		},
	})
	c := NewClient(testConfig(srv.URL))

	got, err := c.GetBlockHash(context.Background(), 8)
	require.NoError(t, err)
	assert.Equal(t, hash, got)

	idx, err := c.GetBlockIndex(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), idx)

	_, err = c.GetGenesisHash(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetTransferEvents(t *testing.T) {
	blockHash := common.RandHash()
	txID := common.RandHash()
	vault := common.RandAddress()
	sender := common.RandAddress()
	memo := common.RandAddress().Hex()

	srv, _ := newFakeHeadless(t, map[string]func(map[string]any) any{
		"GetNCGTransferEvents": func(vars map[string]any) any {
			assert.Equal(t, vault.Hex(), vars["recipient"])
			return map[string]any{"transferNCGHistories": []map[string]any{
				{
					"blockHash": common.ByteSliceToPureHexStr(blockHash[:]),
					"txId":      common.ByteSliceToPureHexStr(txID[:]),
					"sender":    sender.Hex(),
					"recipient": vault.Hex(),
					"amount":    "1.23",
					"memo":      memo,
				},
				{
					"blockHash": common.ByteSliceToPureHexStr(blockHash[:]),
					"txId":      common.ByteSliceToPureHexStr(txID[:]),
					"sender":    sender.Hex(),
					"recipient": vault.Hex(),
					"amount":    "5",
					"memo":      nil,
				},
			}}
		},
	})

	events, err := NewClient(testConfig(srv.URL)).GetTransferEvents(context.Background(), blockHash, vault)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, blockHash, events[0].BlockHash)
	assert.Equal(t, txID, events[0].TxID)
	assert.Equal(t, sender, events[0].Sender)
	assert.True(t, events[0].Amount.Equal(decimal.RequireFromString("1.23")))
	assert.Equal(t, memo, events[0].Memo)
	assert.Equal(t, "", events[1].Memo)
}

func TestGetTransferEventsMalformedIsNotRetried(t *testing.T) {
	srv, calls := newFakeHeadless(t, map[string]func(map[string]any) any{
		"GetNCGTransferEvents": func(map[string]any) any {
			return map[string]any{"transferNCGHistories": "oops"}
		},
	})

	_, err := NewClient(testConfig(srv.URL)).GetTransferEvents(context.Background(), common.RandHash(), common.RandAddress())
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

var testNCG = agreement.Currency{Ticker: "NCG", DecimalPlaces: 2, Minters: []agreement.Address{ethcommon.HexToAddress("0x47d082a115c63e7b58b1532d20e631538eafadde")}}

func garageAction(t *testing.T, avatar agreement.Address, assets [][2]any, items [][2]any, memo any) []byte {
	favs := bencodex.List{}
	for _, a := range assets {
		owner := a[0].(agreement.Address)
		fav := agreement.FungibleAssetValue{Currency: testNCG, RawValue: big.NewInt(a[1].(int64))}
		favs = append(favs, bencodex.List{owner.Bytes(), fav.Value()})
	}
	its := bencodex.List{}
	for _, it := range items {
		id := it[0].(ethcommon.Hash)
		its = append(its, bencodex.List{id.Bytes(), it[1]})
	}
	raw, err := bencodex.Encode(bencodex.Dict{
		bencodex.TextKey("type_id"): "unload_from_my_garages",
		bencodex.TextKey("values"): bencodex.Dict{
			bencodex.TextKey("l"): bencodex.List{avatar.Bytes(), favs, its, memo},
		},
	})
	require.NoError(t, err)
	return raw
}

func TestDecodeGarageUnload(t *testing.T) {
	avatar := common.RandAddress()
	owner := common.RandAddress()
	itemID := common.RandHash()

	raw := garageAction(t, avatar, [][2]any{{owner, int64(12345)}}, [][2]any{{itemID, int64(3)}}, "hello")
	ev, err := DecodeGarageUnload(raw)
	require.NoError(t, err)

	assert.Equal(t, avatar, ev.RecipientAvatarAddress)
	require.Len(t, ev.FungibleAssets, 1)
	assert.Equal(t, owner, ev.FungibleAssets[0].Owner)
	assert.True(t, testNCG.Equal(ev.FungibleAssets[0].Currency))
	assert.True(t, ev.FungibleAssets[0].Amount.Equal(decimal.RequireFromString("123.45")))
	require.Len(t, ev.FungibleItems, 1)
	assert.Equal(t, agreement.FungibleItemLine{Recipient: avatar, ItemID: itemID, Count: 3}, ev.FungibleItems[0])
	require.NotNil(t, ev.Memo)
	assert.Equal(t, "hello", *ev.Memo)

	raw = garageAction(t, avatar, nil, nil, nil)
	ev, err = DecodeGarageUnload(raw)
	require.NoError(t, err)
	assert.Nil(t, ev.Memo)

	_, err = DecodeGarageUnload([]byte("de"))
	assert.ErrorIs(t, err, bencodex.ErrMalformed)
}

func TestGarageFilter(t *testing.T) {
	agent := common.RandAddress()
	avatar := common.RandAddress()
	stranger := common.RandAddress()
	strangerAvatar := common.RandAddress()

	toAvatar := garageAction(t, avatar, nil, nil, nil)
	fromAgent := garageAction(t, strangerAvatar, [][2]any{{stranger, int64(1)}, {agent, int64(2)}}, nil, nil)
	unrelated := garageAction(t, strangerAvatar, [][2]any{{stranger, int64(1)}}, nil, nil)

	txs := []map[string]any{}
	ids := []ethcommon.Hash{}
	for _, raw := range [][]byte{toAvatar, fromAgent, unrelated} {
		id := common.RandHash()
		ids = append(ids, id)
		txs = append(txs, map[string]any{
			"id":      common.ByteSliceToPureHexStr(id[:]),
			"actions": []map[string]any{{"raw": hex.EncodeToString(raw)}},
		})
	}

	srv, _ := newFakeHeadless(t, map[string]func(map[string]any) any{
		"GetGarageUnloads": func(vars map[string]any) any {
			assert.Equal(t, float64(9), vars["startingBlockIndex"])
			assert.Equal(t, float64(1), vars["limit"])
			return map[string]any{"transaction": map[string]any{"ncTransactions": txs}}
		},
	})

	events, err := NewClient(testConfig(srv.URL)).GetGarageUnloadEvents(context.Background(), 9, agent, avatar)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, ids[0], events[0].TxID)
	assert.Equal(t, ids[1], events[1].TxID)
}

func TestGarageUnloadBadHexIsMalformed(t *testing.T) {
	srv, calls := newFakeHeadless(t, map[string]func(map[string]any) any{
		"GetGarageUnloads": func(map[string]any) any {
			txs := []map[string]any{{
				"id":      common.ByteSliceToPureHexStr(common.RandBytes(32)),
				"actions": []map[string]any{{"raw": "6475zz"}},
			}}
			return map[string]any{"transaction": map[string]any{"ncTransactions": txs}}
		},
	})

	_, err := NewClient(testConfig(srv.URL)).GetGarageUnloadEvents(context.Background(), 9, common.RandAddress(), common.RandAddress())
	var bad hex.InvalidByteError
	assert.ErrorAs(t, err, &bad)
	assert.ErrorContains(t, err, "malformed GetGarageUnloads response")
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestStageTransaction(t *testing.T) {
	txID := common.RandHash()
	srv, _ := newFakeHeadless(t, map[string]func(map[string]any) any{
		"StageTransaction": func(vars map[string]any) any {
			assert.Equal(t, "64656164626565", vars["payload"])
			return map[string]any{"stageTransaction": common.ByteSliceToPureHexStr(txID[:])}
		},
	})

	got, err := NewClient(testConfig(srv.URL)).StageTransaction(context.Background(), "64656164626565")
	require.NoError(t, err)
	assert.Equal(t, txID, got)
}

func TestSimulatedStageRejectsBadHex(t *testing.T) {
	sim := NewSimulatedHeadless()
	_, err := sim.StageTransaction(context.Background(), "0xzz")
	assert.Error(t, err)
	assert.Empty(t, sim.StagedPayloads())
}
