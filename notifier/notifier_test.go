package notifier

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/common"
)

type fakePublisher struct {
	msgs   []*nats.Msg
	closed bool
}

func (f *fakePublisher) PublishMsg(m *nats.Msg) error {
	f.msgs = append(f.msgs, m)
	return nil
}

func (f *fakePublisher) Close() { f.closed = true }

func TestNATSNotifierPublishesReceipt(t *testing.T) {
	pub := &fakePublisher{}
	n := &NATSNotifier{conn: pub, subject: "ncbridge.mint"}

	receipt := &MintReceipt{
		MonitorKey: "nine-chronicles",
		Kind:       "transfer",
		Source:     agreement.TransactionLocation{BlockHash: common.RandHash(), TxID: common.RandHash()},
		MintTxID:   common.RandHash(),
	}
	require.NoError(t, n.Notify(context.Background(), receipt))
	require.Len(t, pub.msgs, 1)

	msg := pub.msgs[0]
	assert.Equal(t, "ncbridge.mint", msg.Subject)
	assert.Equal(t, receipt.MintTxID.Hex(), msg.Header.Get("Nats-Msg-Id"))

	var got MintReceipt
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, *receipt, got)
	assert.NotZero(t, got.Timestamp)

	n.Close()
	assert.True(t, pub.closed)
}

func TestNewNATSNotifierUnreachable(t *testing.T) {
	_, err := NewNATSNotifier("nats://127.0.0.1:1", "ncbridge.mint")
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	assert.NoError(t, n.Notify(context.Background(), &MintReceipt{}))
	n.Close()
}
