// Package observer turns finalized source events into mints on the
// destination chain.
//
// Every event is handled the same way: the relay position is stored first,
// then the mint is staged. A crash between the two loses that one event
// rather than minting it twice.
package observer

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/metrics"
	"github.com/TEENet-io/nc-bridge-go/notifier"
	"github.com/TEENet-io/nc-bridge-go/state"
)

var (
	ErrInvalidRecipient = errors.New("invalid recipient")
	ErrUnexpectedEvent  = errors.New("unexpected event type")
)

// MintLog records staged mints. *state.StateDB implements it.
type MintLog interface {
	InsertMintTx(tx *state.MintTx) error
}

type Config struct {
	MonitorKey string
	Store      agreement.PositionStore
	Minter     agreement.Minter
	MintLog    MintLog           // optional
	Notifier   notifier.Notifier // optional
}

// relay holds what both observers share.
type relay struct {
	kind string
	cfg  Config
}

func newRelay(kind string, cfg Config) relay {
	if cfg.Notifier == nil {
		cfg.Notifier = notifier.Nop{}
	}
	return relay{kind: kind, cfg: cfg}
}

func (r *relay) storePosition(ev agreement.SourceEvent) error {
	loc := ev.Location()
	if err := r.cfg.Store.Store(r.cfg.MonitorKey, loc); err != nil {
		return fmt.Errorf("failed to store position %v: %w", loc, err)
	}
	logger.WithFields(logger.Fields{
		"monitor":  r.cfg.MonitorKey,
		"position": loc.String(),
	}).Debug("stored relay position")
	return nil
}

func (r *relay) mint(ctx context.Context, ev agreement.SourceEvent, mints []agreement.MintInstruction) error {
	loc := ev.Location()
	txID, err := r.cfg.Minter.MintAssets(ctx, mints)
	if err != nil {
		return fmt.Errorf("failed to mint for %v: %w", loc, err)
	}

	logger.WithFields(logger.Fields{
		"monitor":   r.cfg.MonitorKey,
		"source_tx": loc.TxID.Hex(),
		"mint_tx":   txID.Hex(),
		"mints":     len(mints),
	}).Info("relayed event")
	metrics.RelayedEvents.WithLabelValues(r.cfg.MonitorKey).Inc()

	// the mint is staged already, bookkeeping failures are only logged
	if r.cfg.MintLog != nil {
		if err := r.cfg.MintLog.InsertMintTx(&state.MintTx{
			TxID:       txID,
			MonitorKey: r.cfg.MonitorKey,
			SourceTxID: loc.TxID,
		}); err != nil {
			logger.WithField("mint_tx", txID.Hex()).Errorf("failed to record mint tx: %v", err)
		}
	}
	if err := r.cfg.Notifier.Notify(ctx, &notifier.MintReceipt{
		MonitorKey: r.cfg.MonitorKey,
		Kind:       r.kind,
		Source:     loc,
		MintTxID:   txID,
	}); err != nil {
		logger.WithField("mint_tx", txID.Hex()).Warnf("failed to publish mint receipt: %v", err)
	}
	return nil
}
