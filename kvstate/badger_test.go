package kvstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/common"
)

func randLocation() agreement.TransactionLocation {
	return agreement.TransactionLocation{BlockHash: common.RandHash(), TxID: common.RandHash()}
}

func TestBadgerPosition(t *testing.T) {
	st, err := NewInMemoryBadgerStore()
	require.NoError(t, err)
	defer st.Close()

	loc, err := st.Load("nine-chronicles")
	assert.NoError(t, err)
	assert.Nil(t, loc)

	first := randLocation()
	require.NoError(t, st.Store("nine-chronicles", first))
	second := randLocation()
	require.NoError(t, st.Store("nine-chronicles", second))
	garage := randLocation()
	require.NoError(t, st.Store("garage", garage))

	loc, err = st.Load("nine-chronicles")
	require.NoError(t, err)
	assert.Equal(t, &second, loc)

	all, err := st.List()
	require.NoError(t, err)
	assert.Equal(t, map[string]agreement.TransactionLocation{
		"nine-chronicles": second,
		"garage":          garage,
	}, all)

	assert.ErrorIs(t, st.Store("", first), ErrKeyEmpty)
}

func TestBadgerPositionSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	st, err := NewBadgerStore(dir)
	require.NoError(t, err)
	loc := randLocation()
	require.NoError(t, st.Store("nine-chronicles", loc))
	require.NoError(t, st.Close())

	st, err = NewBadgerStore(dir)
	require.NoError(t, err)
	defer st.Close()

	got, err := st.Load("nine-chronicles")
	require.NoError(t, err)
	assert.Equal(t, &loc, got)
}
