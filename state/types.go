package state

import (
	"time"

	"github.com/TEENet-io/nc-bridge-go/agreement"
)

// MintTx links a staged destination transaction to the source transaction it relays.
type MintTx struct {
	TxID       agreement.TxID
	MonitorKey string
	SourceTxID agreement.TxID
	CreatedAt  time.Time
}

type Position struct {
	Key       string
	Location  agreement.TransactionLocation
	UpdatedAt time.Time
}
