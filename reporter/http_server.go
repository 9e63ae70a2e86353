// This is a http type of reporter.
// It reads the relay positions and the mint log
// and publishes them on the http routes.

package reporter

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/state"
)

const (
	ROUTE_HELLO     = "/hello"
	ROUTE_POSITION  = "/position/:key"
	ROUTE_POSITIONS = "/positions"
	ROUTE_MINTS     = "/mints/:key"
	ROUTE_METRICS   = "/metrics"

	shutdownTimeout = 5 * time.Second
)

// PositionReader is satisfied by *state.StateDB and *kvstate.BadgerStore.
type PositionReader interface {
	Load(key string) (*agreement.TransactionLocation, error)
	List() (map[string]agreement.TransactionLocation, error)
}

// MintLogReader is satisfied by *state.StateDB.
type MintLogReader interface {
	GetMintTxs(monitorKey string) ([]*state.MintTx, error)
}

type HttpReporter struct {
	serverIP   string // listen ip
	serverPort string // listen port

	// upstream data sources
	positions PositionReader
	mintlog   MintLogReader // nil when no mint log is kept
}

func NewHttpReporter(serverIP string, serverPort string, positions PositionReader, mintlog MintLogReader) *HttpReporter {
	return &HttpReporter{
		serverIP:   serverIP,
		serverPort: serverPort,
		positions:  positions,
		mintlog:    mintlog,
	}
}

// Hook up routes & handlers
func (h *HttpReporter) SetupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET(ROUTE_HELLO, Hello)
	router.GET(ROUTE_POSITION, h.Position)
	router.GET(ROUTE_POSITIONS, h.Positions)
	router.GET(ROUTE_MINTS, h.Mints)
	router.GET(ROUTE_METRICS, gin.WrapH(promhttp.Handler()))

	return router
}

func (h *HttpReporter) Address() string {
	return h.serverIP + ":" + h.serverPort
}

// Run serves until ctx is done.
func (h *HttpReporter) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    h.Address(),
		Handler: h.SetupRouter(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("address", srv.Addr).Info("http reporter listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

// Example route.
func Hello(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "world",
	})
}

type positionResponse struct {
	Key       string `json:"key"`
	BlockHash string `json:"blockHash"`
	TxID      string `json:"txId"`
}

func (h *HttpReporter) Position(c *gin.Context) {
	key := c.Param("key")
	loc, err := h.positions.Load(key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if loc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No position stored"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": positionResponse{
		Key:       key,
		BlockHash: loc.BlockHash.Hex(),
		TxID:      loc.TxID.Hex(),
	}})
}

// Positions lists every monitor's position ordered by key.
func (h *HttpReporter) Positions(c *gin.Context) {
	all, err := h.positions.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := make([]positionResponse, 0, len(keys))
	for _, k := range keys {
		data = append(data, positionResponse{
			Key:       k,
			BlockHash: all[k].BlockHash.Hex(),
			TxID:      all[k].TxID.Hex(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

type mintResponse struct {
	TxID       string `json:"txId"`
	SourceTxID string `json:"sourceTxId"`
	CreatedAt  int64  `json:"createdAt"`
}

func (h *HttpReporter) Mints(c *gin.Context) {
	if h.mintlog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Mint log disabled"})
		return
	}

	txs, err := h.mintlog.GetMintTxs(c.Param("key"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	data := make([]mintResponse, 0, len(txs))
	for _, tx := range txs {
		data = append(data, mintResponse{
			TxID:       tx.TxID.Hex(),
			SourceTxID: tx.SourceTxID.Hex(),
			CreatedAt:  tx.CreatedAt.Unix(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}
