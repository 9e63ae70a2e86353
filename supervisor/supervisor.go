// Package supervisor runs long-lived units such as monitors, each in its own
// failure domain.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type Policy int

const (
	// Terminate cancels every unit on the first failure and returns it.
	Terminate Policy = iota
	// Restart runs a failed unit again after RestartDelay. Other units are
	// left alone.
	Restart
)

const DefaultRestartDelay = 5 * time.Second

var ErrUnknownPolicy = errors.New("unknown failure policy")

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "terminate":
		return Terminate, nil
	case "restart":
		return Restart, nil
	}
	return Terminate, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

func (p Policy) String() string {
	if p == Restart {
		return "restart"
	}
	return "terminate"
}

// RunFunc runs a unit until ctx is done or it fails. It is invoked again on
// restart, so anything stateful should be built inside it.
type RunFunc func(ctx context.Context) error

type unit struct {
	name string
	run  RunFunc
}

type Supervisor struct {
	policy       Policy
	restartDelay time.Duration
	units        []unit
}

func New(policy Policy, restartDelay time.Duration) *Supervisor {
	if restartDelay <= 0 {
		restartDelay = DefaultRestartDelay
	}
	return &Supervisor{policy: policy, restartDelay: restartDelay}
}

func (s *Supervisor) Add(name string, run RunFunc) {
	s.units = append(s.units, unit{name: name, run: run})
}

// Run blocks until every unit returns. A unit returning because ctx was
// cancelled is not a failure.
func (s *Supervisor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, u := range s.units {
		g.Go(func() error {
			return s.supervise(gctx, u)
		})
	}
	err := g.Wait()
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return nil
	}
	return err
}

func (s *Supervisor) supervise(ctx context.Context, u unit) error {
	for {
		logger.WithField("unit", u.name).Info("starting")
		err := u.run(ctx)
		if ctx.Err() != nil {
			logger.WithField("unit", u.name).Info("stopped")
			return ctx.Err()
		}
		if err == nil {
			logger.WithField("unit", u.name).Info("finished")
			return nil
		}

		if s.policy == Terminate {
			logger.WithField("unit", u.name).Errorf("failed, terminating: %v", err)
			return fmt.Errorf("%s: %w", u.name, err)
		}

		logger.WithFields(logger.Fields{
			"unit":  u.name,
			"delay": s.restartDelay,
		}).Errorf("failed, restarting: %v", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.restartDelay):
		}
	}
}
