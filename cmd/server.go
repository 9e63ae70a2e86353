// Server = upstream monitors + relay observers + downstream minter
// + position store + http reporter, run under one supervisor.
// All components are configured via environment variables or a config file.

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/nc-bridge-go/account"
	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/common"
	"github.com/TEENet-io/nc-bridge-go/headless"
	"github.com/TEENet-io/nc-bridge-go/monitor"
	"github.com/TEENet-io/nc-bridge-go/notifier"
	"github.com/TEENet-io/nc-bridge-go/observer"
	"github.com/TEENet-io/nc-bridge-go/reporter"
	"github.com/TEENet-io/nc-bridge-go/supervisor"
	"github.com/TEENet-io/nc-bridge-go/txmgr"
)

// Keys the monitors keep their positions under.
const (
	MonitorKeyTransfer = "nine-chronicles"
	MonitorKeyGarage   = "garage"
)

var ErrMissingConfig = errors.New("missing configuration")

// Keep the configuration's fields as "text" as possible.
// Its easier to load it from env vars or a config file.
type BridgeServerConfig struct {
	// upstream side (watched)
	UpstreamGqlEndpoint string
	UpstreamPrivateKey  string // optional, owner of the vault
	VaultAddress        string // defaults to the address of UpstreamPrivateKey
	AgentAddress        string // garage monitor runs when agent and avatar are both set
	AvatarAddress       string

	// downstream side (minted on)
	DownstreamGqlEndpoint string
	DownstreamPrivateKey  string // minter

	// state side
	StorePath   string
	StoreDriver string // sqlite or badger

	// monitor side
	ConfirmationInterval uint64
	PollInterval         time.Duration
	FailurePolicy        string // terminate or restart
	RestartDelay         time.Duration

	// headless side
	GqlMaxRetry   int
	GqlRetryDelay time.Duration
	GqlTimeout    time.Duration

	// Http side, disabled when port is empty
	HttpIp   string
	HttpPort string

	// Nats side, disabled when url is empty
	NatsUrl     string
	NatsSubject string
}

func (bsc *BridgeServerConfig) headlessConfig(endpoint string) headless.Config {
	return headless.Config{
		Endpoint:   endpoint,
		MaxRetry:   bsc.GqlMaxRetry,
		RetryDelay: bsc.GqlRetryDelay,
		Timeout:    bsc.GqlTimeout,
	}
}

// BridgeServer holds the objects that consists of the bridge server.
type BridgeServer struct {
	Upstream   agreement.HeadlessClient
	Downstream agreement.HeadlessClient
	Store      *Store
	Minter     *txmgr.Minter
	Notifier   notifier.Notifier
	Reporter   *reporter.HttpReporter // nil when disabled

	supervisor *supervisor.Supervisor
}

// NewBridgeServer connects to both headless endpoints and wires everything.
func NewBridgeServer(bsc *BridgeServerConfig) (*BridgeServer, error) {
	if bsc.UpstreamGqlEndpoint == "" || bsc.DownstreamGqlEndpoint == "" {
		return nil, fmt.Errorf("%w: both upstream and downstream graphql endpoints", ErrMissingConfig)
	}
	upstream := headless.NewClient(bsc.headlessConfig(bsc.UpstreamGqlEndpoint))
	downstream := headless.NewClient(bsc.headlessConfig(bsc.DownstreamGqlEndpoint))
	return NewBridgeServerWithClients(bsc, upstream, downstream)
}

// NewBridgeServerWithClients wires the server over given chain clients.
func NewBridgeServerWithClients(bsc *BridgeServerConfig, upstream, downstream agreement.HeadlessClient) (*BridgeServer, error) {
	minterKey, err := account.NewRawPrivateKeyFromHex(bsc.DownstreamPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("downstream private key: %w", err)
	}

	vault, err := resolveVault(bsc)
	if err != nil {
		return nil, err
	}

	policy, err := supervisor.ParsePolicy(bsc.FailurePolicy)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(bsc.StoreDriver, bsc.StorePath)
	if err != nil {
		return nil, err
	}

	var note notifier.Notifier = notifier.Nop{}
	if bsc.NatsUrl != "" {
		nn, err := notifier.NewNATSNotifier(bsc.NatsUrl, bsc.NatsSubject)
		if err != nil {
			store.Close()
			return nil, err
		}
		note = nn
	}

	minter := txmgr.NewMinter(txmgr.NewSubmitter(downstream, minterKey, txmgr.DefaultFeePolicy()))
	logger.WithField("address", minter.MinterAddress().Hex()).Info("Minter address")
	logger.WithField("address", vault.Hex()).Info("Vault address")

	s := &BridgeServer{
		Upstream:   upstream,
		Downstream: downstream,
		Store:      store,
		Minter:     minter,
		Notifier:   note,
		supervisor: supervisor.New(policy, bsc.RestartDelay),
	}

	monitorCfg := func(name string) monitor.Config {
		return monitor.Config{Name: name, Interval: bsc.ConfirmationInterval, PollInterval: bsc.PollInterval}
	}
	observerCfg := func(key string) observer.Config {
		return observer.Config{
			MonitorKey: key,
			Store:      store.Positions,
			Minter:     minter,
			MintLog:    store.mintLog(),
			Notifier:   note,
		}
	}

	// *** NCG transfers to the vault ***
	s.supervisor.Add(MonitorKeyTransfer, s.monitorUnit(
		monitorCfg(MonitorKeyTransfer),
		&monitor.TransferFetcher{Client: upstream, Recipient: vault},
		observer.NewTransferObserver(observerCfg(MonitorKeyTransfer)),
	))

	// *** Garage unloads, only when configured ***
	if bsc.AgentAddress != "" && bsc.AvatarAddress != "" {
		agent, err := common.ParseAddress(bsc.AgentAddress)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("agent address: %w", err)
		}
		avatar, err := common.ParseAddress(bsc.AvatarAddress)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("avatar address: %w", err)
		}
		s.supervisor.Add(MonitorKeyGarage, s.monitorUnit(
			monitorCfg(MonitorKeyGarage),
			&monitor.GarageUnloadFetcher{Client: upstream, Agent: agent, Avatar: avatar},
			observer.NewGarageObserver(observerCfg(MonitorKeyGarage)),
		))
	}

	// *** Http reporter ***
	if bsc.HttpPort != "" {
		s.Reporter = reporter.NewHttpReporter(bsc.HttpIp, bsc.HttpPort, store.reader, store.mintLogReader())
		s.supervisor.Add("reporter", s.Reporter.Run)
	}

	return s, nil
}

// monitorUnit rebuilds the monitor from the stored position on every run,
// so a restart goes through the replay path.
func (s *BridgeServer) monitorUnit(cfg monitor.Config, fetcher monitor.EventFetcher, obs agreement.Observer) supervisor.RunFunc {
	return func(ctx context.Context) error {
		position, err := s.Store.Positions.Load(cfg.Name)
		if err != nil {
			return fmt.Errorf("failed to load position: %w", err)
		}
		m := monitor.New(cfg, s.Upstream, fetcher, obs)
		if err := m.Start(ctx, position); err != nil {
			return err
		}
		return m.Loop(ctx)
	}
}

// Run blocks until ctx is done or, under the terminate policy, a unit fails.
func (s *BridgeServer) Run(ctx context.Context) error {
	return s.supervisor.Run(ctx)
}

func (s *BridgeServer) Close() {
	s.Notifier.Close()
	if err := s.Store.Close(); err != nil {
		logger.Errorf("failed to close store: %v", err)
	}
}

func resolveVault(bsc *BridgeServerConfig) (agreement.Address, error) {
	var owner *agreement.Address
	if bsc.UpstreamPrivateKey != "" {
		key, err := account.NewRawPrivateKeyFromHex(bsc.UpstreamPrivateKey)
		if err != nil {
			return agreement.Address{}, fmt.Errorf("upstream private key: %w", err)
		}
		addr := key.Address()
		owner = &addr
	}

	if bsc.VaultAddress == "" {
		if owner == nil {
			return agreement.Address{}, fmt.Errorf("%w: vault address or upstream private key", ErrMissingConfig)
		}
		return *owner, nil
	}

	vault, err := common.ParseAddress(bsc.VaultAddress)
	if err != nil {
		return agreement.Address{}, fmt.Errorf("vault address: %w", err)
	}
	if owner != nil && *owner != vault {
		logger.WithFields(logger.Fields{
			"vault": vault.Hex(),
			"owner": owner.Hex(),
		}).Warn("upstream private key does not own the vault")
	}
	return vault, nil
}

// Create, then start the bridge server and wait.
// Press Ctrl-C to stop the server.
func StartBridgeServerAndWait(bsc *BridgeServerConfig) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up a signal channel to listen for Ctrl-C (SIGINT) or SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("Received signal: %v, cancelling context...", sig)
		cancel()
	}()

	server, err := NewBridgeServer(bsc)
	if err != nil {
		logger.Errorf("failed to create bridge server: %v", err)
		return err
	}
	defer server.Close()

	if err := server.Run(ctx); err != nil {
		logger.Errorf("bridge server stopped: %v", err)
		return err
	}
	return nil
}
