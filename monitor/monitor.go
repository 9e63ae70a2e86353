// Monitor: polls the source chain and hands finalized events to an observer.
// A block is final once a later authorization boundary is reached, so events
// are delivered per boundary window, never block by block.
package monitor

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/metrics"
)

const (
	DefaultInterval     = 5
	DefaultPollInterval = time.Second
)

var ErrNotStarted = errors.New("monitor not started")

// Configuration
type Config struct {
	Name         string        // identifies the monitor in logs and metrics
	Interval     uint64        // authorization interval, in blocks
	PollInterval time.Duration // interval to poll the tip of the chain
}

// replay is the unfinished window found at startup.
type replay struct {
	position agreement.TransactionLocation
	block    agreement.ChainLocation // block of the stored position
	boundary uint64                 // boundary authorizing block
}

type Monitor struct {
	cfg      Config
	client   agreement.HeadlessClient
	fetcher  EventFetcher
	observer agreement.Observer
	matcher  PositionMatcher

	started      bool
	lastBoundary uint64 // every boundary up to this one has been delivered
	pending      *replay
}

func New(cfg Config, client agreement.HeadlessClient, fetcher EventFetcher, observer agreement.Observer) *Monitor {
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Monitor{
		cfg:      cfg,
		client:   client,
		fetcher:  fetcher,
		observer: observer,
		matcher:  MatchTxID,
	}
}

// WithPositionMatcher replaces MatchTxID when finding the stored position in
// its block during replay.
func (m *Monitor) WithPositionMatcher(pm PositionMatcher) *Monitor {
	m.matcher = pm
	return m
}

func (m *Monitor) LastBoundary() uint64 {
	return m.lastBoundary
}

// Start positions the monitor. With a stored position, the rest of its window
// is replayed before anything else. Without one, the monitor begins with the
// first boundary at or above the current tip.
func (m *Monitor) Start(ctx context.Context, position *agreement.TransactionLocation) error {
	if position != nil {
		from, err := m.client.GetBlockIndex(ctx, position.BlockHash)
		if err != nil {
			logger.WithField("monitor", m.cfg.Name).Errorf("failed to resolve stored position %v: %v", position, err)
			return err
		}
		boundary := NextBoundary(from, m.cfg.Interval)
		m.pending = &replay{
			position: *position,
			block:    agreement.ChainLocation{BlockHash: position.BlockHash, BlockIndex: from},
			boundary: boundary,
		}
		m.lastBoundary = boundary

		logger.WithFields(logger.Fields{
			"monitor":  m.cfg.Name,
			"position": position.String(),
			"block":    from,
			"boundary": boundary,
		}).Info("resuming from stored position")
	} else {
		tip, err := m.client.GetTipIndex(ctx)
		if err != nil {
			logger.WithField("monitor", m.cfg.Name).Errorf("failed to get tip index: %v", err)
			return err
		}
		m.lastBoundary = lastBoundaryBelow(tip, m.cfg.Interval)

		logger.WithFields(logger.Fields{
			"monitor": m.cfg.Name,
			"tip":     tip,
		}).Info("starting without stored position")
	}

	m.started = true
	metrics.LastBoundary.WithLabelValues(m.cfg.Name).Set(float64(m.lastBoundary))
	return nil
}

// The Big Loop! Adapter failures are retried on the next tick; an observer
// failure ends the loop.
func (m *Monitor) Loop(ctx context.Context) error {
	if !m.started {
		return ErrNotStarted
	}

	pollTicker := time.NewTicker(m.cfg.PollInterval)
	defer pollTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pollTicker.C:
			if err := m.Poll(ctx); err != nil {
				return err
			}
		}
	}
}

// Poll runs one cycle. Only observer errors are returned.
func (m *Monitor) Poll(ctx context.Context) error {
	tip, err := m.client.GetTipIndex(ctx)
	if err != nil {
		logger.WithField("monitor", m.cfg.Name).Warnf("failed to get tip index: %v", err)
		return nil
	}
	logger.WithFields(logger.Fields{
		"monitor":       m.cfg.Name,
		"tip":           tip,
		"last_boundary": m.lastBoundary,
	}).Debug("polling")

	if m.pending != nil {
		if tip < m.pending.boundary {
			return nil
		}
		events, err := m.replayEvents(ctx, m.pending)
		if err != nil {
			logger.WithField("monitor", m.cfg.Name).Warnf("failed to replay window of %d: %v", m.pending.boundary, err)
			return nil
		}
		if err := m.deliver(ctx, events); err != nil {
			return err
		}
		m.pending = nil
	}

	target := tip / m.cfg.Interval * m.cfg.Interval
	for b := m.lastBoundary + m.cfg.Interval; b <= target; b += m.cfg.Interval {
		events, err := m.windowEvents(ctx, b)
		if err != nil {
			logger.WithField("monitor", m.cfg.Name).Warnf("failed to fetch window of %d: %v", b, err)
			return nil
		}
		if err := m.deliver(ctx, events); err != nil {
			return err
		}
		m.lastBoundary = b
		metrics.LastBoundary.WithLabelValues(m.cfg.Name).Set(float64(b))
	}

	return nil
}

func (m *Monitor) windowEvents(ctx context.Context, boundary uint64) ([]agreement.SourceEvent, error) {
	events := []agreement.SourceEvent{}
	for _, b := range Window(boundary, m.cfg.Interval) {
		evs, err := m.fetcher.FetchEvents(ctx, b)
		if err != nil {
			return nil, err
		}
		events = append(events, evs...)
	}
	return events, nil
}

// replayEvents returns what follows the stored position up to its boundary.
func (m *Monitor) replayEvents(ctx context.Context, r *replay) ([]agreement.SourceEvent, error) {
	first, err := m.fetcher.FetchEvents(ctx, r.block.BlockIndex)
	if err != nil {
		return nil, err
	}

	events := []agreement.SourceEvent{}
	found := false
	for _, ev := range first {
		if found {
			events = append(events, ev)
		} else if m.matcher(ev, r.position) {
			found = true
		}
	}
	if !found {
		logger.WithFields(logger.Fields{
			"monitor":  m.cfg.Name,
			"position": r.position.String(),
			"block":    r.block.BlockIndex,
		}).Warn("stored tx not found in its block, skipping the rest of the block")
	}

	for b := r.block.BlockIndex + 1; b <= r.boundary; b++ {
		evs, err := m.fetcher.FetchEvents(ctx, b)
		if err != nil {
			return nil, err
		}
		events = append(events, evs...)
	}
	return events, nil
}

func (m *Monitor) deliver(ctx context.Context, events []agreement.SourceEvent) error {
	if len(events) == 0 {
		return nil
	}
	logger.WithFields(logger.Fields{
		"monitor": m.cfg.Name,
		"events":  len(events),
	}).Info("delivering finalized events")

	if err := m.observer.Notify(ctx, events); err != nil {
		logger.WithField("monitor", m.cfg.Name).Errorf("observer failed: %v", err)
		return err
	}
	return nil
}
