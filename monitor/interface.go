// Implement EventFetcher to make the monitor watch a new kind of event.
package monitor

import (
	"context"

	"github.com/TEENet-io/nc-bridge-go/agreement"
)

// EventFetcher does the dirty job for one kind of event.
type EventFetcher interface {
	// Events of a single block, in the order they appear in the block.
	// Every event shall carry the block hash and tx id of its location.
	// An empty block returns an empty slice, not an error.
	FetchEvents(ctx context.Context, blockIndex uint64) ([]agreement.SourceEvent, error)
}

// PositionMatcher reports whether ev is the event recorded at loc.
type PositionMatcher func(ev agreement.SourceEvent, loc agreement.TransactionLocation) bool

// MatchTxID is the default PositionMatcher.
func MatchTxID(ev agreement.SourceEvent, loc agreement.TransactionLocation) bool {
	return ev.Location().TxID == loc.TxID
}
