package reporter

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/nc-bridge-go/common"
	"github.com/TEENet-io/nc-bridge-go/kvstate"
	"github.com/TEENet-io/nc-bridge-go/state"
)

func newTestServer(t *testing.T, withMintLog bool) (*HttpReader, *state.StateDB) {
	gin.SetMode(gin.TestMode)

	db, err := state.OpenStateDB(t.TempDir() + "/reporter.db")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	var mintlog MintLogReader
	if withMintLog {
		mintlog = db
	}
	srv := httptest.NewServer(NewHttpReporter("127.0.0.1", "0", db, mintlog).SetupRouter())
	t.Cleanup(srv.Close)
	return NewHttpReaderFromURL(srv.URL), db
}

func TestHello(t *testing.T) {
	reader, _ := newTestServer(t, true)
	body, err := reader.GetHello()
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"world"}`, body)
}

func TestPositionRoute(t *testing.T) {
	reader, db := newTestServer(t, true)

	_, code, err := reader.GetPosition("nine-chronicles")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, code)

	loc := state.RandLocation()
	require.NoError(t, db.Store("nine-chronicles", loc))

	body, code, err := reader.GetPosition("nine-chronicles")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)

	var resp struct {
		Data positionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, loc.BlockHash.Hex(), resp.Data.BlockHash)
	assert.Equal(t, loc.TxID.Hex(), resp.Data.TxID)
}

func TestPositionsRoute(t *testing.T) {
	reader, db := newTestServer(t, true)

	body, code, err := reader.GetPositions()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"data":[]}`, body)

	transfer := state.RandLocation()
	garage := state.RandLocation()
	require.NoError(t, db.Store("nine-chronicles", transfer))
	require.NoError(t, db.Store("garage", garage))

	body, _, err = reader.GetPositions()
	require.NoError(t, err)
	var resp struct {
		Data []positionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, []positionResponse{
		{Key: "garage", BlockHash: garage.BlockHash.Hex(), TxID: garage.TxID.Hex()},
		{Key: "nine-chronicles", BlockHash: transfer.BlockHash.Hex(), TxID: transfer.TxID.Hex()},
	}, resp.Data)
}

func TestPositionsRouteOnBadger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	kv, err := kvstate.NewInMemoryBadgerStore()
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	loc := state.RandLocation()
	require.NoError(t, kv.Store("garage", loc))

	srv := httptest.NewServer(NewHttpReporter("127.0.0.1", "0", kv, nil).SetupRouter())
	t.Cleanup(srv.Close)

	body, code, err := NewHttpReaderFromURL(srv.URL).GetPositions()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, loc.TxID.Hex())
}

func TestMintsRoute(t *testing.T) {
	reader, db := newTestServer(t, true)

	tx := &state.MintTx{
		TxID:       common.RandHash(),
		MonitorKey: "garage",
		SourceTxID: common.RandHash(),
		CreatedAt:  time.Unix(1700000000, 0),
	}
	require.NoError(t, db.InsertMintTx(tx))

	body, code, err := reader.GetMints("garage")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)

	var resp struct {
		Data []mintResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, tx.TxID.Hex(), resp.Data[0].TxID)
	assert.Equal(t, tx.SourceTxID.Hex(), resp.Data[0].SourceTxID)
	assert.Equal(t, int64(1700000000), resp.Data[0].CreatedAt)

	body, _, err = reader.GetMints("nine-chronicles")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[]}`, body)
}

func TestMintsRouteWithoutLog(t *testing.T) {
	reader, _ := newTestServer(t, false)
	_, code, err := reader.GetMints("garage")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestMetricsRoute(t *testing.T) {
	reader, _ := newTestServer(t, true)
	body, err := reader.GetMetrics()
	require.NoError(t, err)
	assert.Contains(t, body, "go_goroutines")
}
