package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TEENet-io/nc-bridge-go/cmd"
	"github.com/TEENet-io/nc-bridge-go/common"
	"github.com/TEENet-io/nc-bridge-go/headless"
	"github.com/TEENet-io/nc-bridge-go/logconfig"
	"github.com/TEENet-io/nc-bridge-go/monitor"
)

const (
	ENV_CONFIG_FILE_PATH = "BRIDGE_CONFIG"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile, logLevel string

	root := &cobra.Command{
		Use:          "nc-bridge",
		Short:        "Relay NCG transfers and garage unloads between Nine Chronicles networks",
		SilenceUsage: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			return initializeViper(configFile, logLevel)
		},
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "configuration file, overrides $"+ENV_CONFIG_FILE_PATH)
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, production or a logrus level")

	root.AddCommand(newRunCmd(), newPositionCmd(), newDepositCmd())
	return root
}

// initializeViper reads env vars and the optional config file.
func initializeViper(configFile, logLevel string) error {
	viper.AutomaticEnv()
	setDefaults()

	if configFile == "" {
		configFile = viper.GetString(ENV_CONFIG_FILE_PATH)
	}
	if configFile != "" {
		if !cmd.FileExists(configFile) {
			return fmt.Errorf("configuration file not found: %s", configFile)
		}
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading configuration file: %w", err)
		}
	}

	if logLevel == "" {
		logLevel = viper.GetString("LOG_LEVEL")
	}
	return logconfig.ConfigLogger(logLevel)
}

func setDefaults() {
	viper.SetDefault("STORE_DRIVER", cmd.StoreDriverSQLite)
	viper.SetDefault("CONFIRMATION_INTERVAL", monitor.DefaultInterval)
	viper.SetDefault("POLL_INTERVAL", monitor.DefaultPollInterval)
	viper.SetDefault("GQL_MAX_RETRY", headless.DefaultMaxRetry)
	viper.SetDefault("GQL_RETRY_DELAY", headless.DefaultRetryDelay)
	viper.SetDefault("GQL_TIMEOUT", headless.DefaultTimeout)
	viper.SetDefault("FAILURE_POLICY", "terminate")
	viper.SetDefault("RESTART_DELAY", 5*time.Second)
	viper.SetDefault("HTTP_IP", "0.0.0.0")
	viper.SetDefault("NATS_SUBJECT", "nc-bridge.mint")
	viper.SetDefault("LOG_LEVEL", "info")
}

// PrepareBridgeServerConfig reads configuration variables and returns a BridgeServerConfig.
func PrepareBridgeServerConfig() *cmd.BridgeServerConfig {
	return &cmd.BridgeServerConfig{
		// upstream side
		UpstreamGqlEndpoint: viper.GetString("NC_UPSTREAM_GQL_ENDPOINT"),
		UpstreamPrivateKey:  viper.GetString("NC_UPSTREAM_PRIVATE_KEY"),
		VaultAddress:        viper.GetString("NC_VAULT_ADDRESS"),
		AgentAddress:        viper.GetString("NC_AGENT_ADDRESS"),
		AvatarAddress:       viper.GetString("NC_AVATAR_ADDRESS"),
		// downstream side
		DownstreamGqlEndpoint: viper.GetString("NC_DOWNSTREAM_GQL_ENDPOINT"),
		DownstreamPrivateKey:  viper.GetString("NC_DOWNSTREAM_PRIVATE_KEY"),
		// state side
		StorePath:   viper.GetString("MONITOR_STATE_STORE_PATH"),
		StoreDriver: viper.GetString("STORE_DRIVER"),
		// monitor side
		ConfirmationInterval: viper.GetUint64("CONFIRMATION_INTERVAL"),
		PollInterval:         viper.GetDuration("POLL_INTERVAL"),
		FailurePolicy:        viper.GetString("FAILURE_POLICY"),
		RestartDelay:         viper.GetDuration("RESTART_DELAY"),
		// headless side
		GqlMaxRetry:   viper.GetInt("GQL_MAX_RETRY"),
		GqlRetryDelay: viper.GetDuration("GQL_RETRY_DELAY"),
		GqlTimeout:    viper.GetDuration("GQL_TIMEOUT"),
		// Http side
		HttpIp:   viper.GetString("HTTP_IP"),
		HttpPort: viper.GetString("HTTP_PORT"),
		// Nats side
		NatsUrl:     viper.GetString("NATS_URL"),
		NatsSubject: viper.GetString("NATS_SUBJECT"),
	}
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the relay server and block until interrupted",
		RunE: func(c *cobra.Command, args []string) error {
			logger.Info("Starting bridge server... press Ctrl+C to kill the server")
			return cmd.StartBridgeServerAndWait(PrepareBridgeServerConfig())
		},
	}
}

func newPositionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "position [monitor-key]",
		Short: "Print the stored relay position of a monitor",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			key := cmd.MonitorKeyTransfer
			if len(args) == 1 {
				key = args[0]
			}

			store, err := cmd.OpenStore(viper.GetString("STORE_DRIVER"), viper.GetString("MONITOR_STATE_STORE_PATH"))
			if err != nil {
				return err
			}
			defer store.Close()

			loc, err := store.Positions.Load(key)
			if err != nil {
				return err
			}
			if loc == nil {
				return fmt.Errorf("no position stored for %q", key)
			}

			out, err := json.MarshalIndent(map[string]string{
				"key":       key,
				"blockHash": loc.BlockHash.Hex(),
				"txId":      loc.TxID.Hex(),
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), string(out))
			return nil
		},
	}
}

func newDepositCmd() *cobra.Command {
	var (
		amount, recipient, ticker, minter, privateKey string
		decimalPlaces                                 uint8
	)

	deposit := &cobra.Command{
		Use:   "deposit",
		Short: "Send assets from the depositor key to the vault, to be minted to --recipient",
		RunE: func(c *cobra.Command, args []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			to, err := common.ParseAddress(recipient)
			if err != nil {
				return fmt.Errorf("recipient: %w", err)
			}
			vault, err := common.ParseAddress(viper.GetString("NC_VAULT_ADDRESS"))
			if err != nil {
				return fmt.Errorf("vault address: %w", err)
			}
			currency, err := cmd.UpstreamCurrency(ticker, decimalPlaces, minter)
			if err != nil {
				return err
			}

			// never the vault owner's key
			if privateKey == "" {
				privateKey = viper.GetString("NC_DEPOSITOR_PRIVATE_KEY")
			}
			user, err := cmd.NewUser(&cmd.UserConfig{
				GqlEndpoint: viper.GetString("NC_UPSTREAM_GQL_ENDPOINT"),
				PrivateKey:  privateKey,
			})
			if err != nil {
				return err
			}
			if user.Address() == vault {
				return fmt.Errorf("depositor %s is the vault itself", vault.Hex())
			}

			txID, err := user.Deposit(context.Background(), vault, to, value, currency)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), txID.Hex())
			return nil
		},
	}
	deposit.Flags().StringVar(&amount, "amount", "", "amount in major units, e.g. 1.23")
	deposit.Flags().StringVar(&recipient, "recipient", "", "address to mint to on the downstream chain")
	deposit.Flags().StringVar(&ticker, "ticker", "NCG", "currency ticker")
	deposit.Flags().Uint8Var(&decimalPlaces, "decimal-places", 2, "currency decimal places")
	deposit.Flags().StringVar(&minter, "minter", cmd.NCGMinter, "currency minter address, empty for none")
	deposit.Flags().StringVar(&privateKey, "private-key", "", "depositor key, overrides $NC_DEPOSITOR_PRIVATE_KEY")
	_ = deposit.MarkFlagRequired("amount")
	_ = deposit.MarkFlagRequired("recipient")
	return deposit
}
