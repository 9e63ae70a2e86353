package main

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/nc-bridge-go/account"
	"github.com/TEENet-io/nc-bridge-go/cmd"
	"github.com/TEENet-io/nc-bridge-go/state"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Cleanup(viper.Reset)
	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPositionCommand(t *testing.T) {
	path := t.TempDir() + "/relay.db"
	t.Setenv("MONITOR_STATE_STORE_PATH", path)

	db, err := state.OpenStateDB(path)
	require.NoError(t, err)
	loc := state.RandLocation()
	require.NoError(t, db.Store(cmd.MonitorKeyTransfer, loc))
	require.NoError(t, db.Close())

	out, err := execute(t, "position")
	require.NoError(t, err)
	assert.Contains(t, out, loc.TxID.Hex())
	assert.Contains(t, out, loc.BlockHash.Hex())

	_, err = execute(t, "position", "garage")
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	file := t.TempDir() + "/bridge.yaml"
	require.NoError(t, os.WriteFile(file, []byte("NC_VAULT_ADDRESS: \"0x47d082a115c63e7b58b1532d20e631538eafadde\"\nPOLL_INTERVAL: 3s\n"), 0o600))
	t.Cleanup(viper.Reset)

	require.NoError(t, initializeViper(file, "info"))
	bsc := PrepareBridgeServerConfig()
	assert.Equal(t, "0x47d082a115c63e7b58b1532d20e631538eafadde", bsc.VaultAddress)
	assert.Equal(t, 3*time.Second, bsc.PollInterval)
	assert.Equal(t, uint64(5), bsc.ConfirmationInterval)
	assert.Equal(t, 3, bsc.GqlMaxRetry)
	assert.Equal(t, cmd.StoreDriverSQLite, bsc.StoreDriver)

	assert.Error(t, initializeViper(t.TempDir()+"/missing.yaml", "info"))
}

func TestDepositCommandDefaults(t *testing.T) {
	deposit := newDepositCmd()
	assert.Equal(t, cmd.NCGMinter, deposit.Flags().Lookup("minter").DefValue)
	assert.Equal(t, "NCG", deposit.Flags().Lookup("ticker").DefValue)
	assert.Equal(t, "2", deposit.Flags().Lookup("decimal-places").DefValue)
}

func TestDepositCommandKey(t *testing.T) {
	const ownerKey = "b71c71a67e1177ad4e901695e1b4b9ee17ae16c6668d313eac2f96dbcda3f291"
	owner, err := account.NewRawPrivateKeyFromHex(ownerKey)
	require.NoError(t, err)

	t.Setenv("NC_UPSTREAM_GQL_ENDPOINT", "http://127.0.0.1:1/graphql")
	t.Setenv("NC_UPSTREAM_PRIVATE_KEY", ownerKey)
	t.Setenv("NC_VAULT_ADDRESS", owner.Address().Hex())
	args := []string{"deposit", "--amount", "1", "--recipient", "0x9093dd96c4bb6b44A9E0A522e2DE49641F146223"}

	// the vault owner's key is not a depositor key
	_, err = execute(t, args...)
	assert.ErrorIs(t, err, cmd.ErrMissingConfig)

	t.Setenv("NC_DEPOSITOR_PRIVATE_KEY", ownerKey)
	_, err = execute(t, args...)
	assert.ErrorContains(t, err, "is the vault itself")

	_, err = execute(t, append(args, "--private-key", "0x1234")...)
	assert.ErrorIs(t, err, account.ErrInvalidPrivateKey)
}
