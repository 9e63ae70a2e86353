// Package notifier publishes a receipt for every relayed mint so that other
// services can follow the bridge without polling the destination chain.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/nc-bridge-go/agreement"
)

type MintReceipt struct {
	MonitorKey string                        `json:"monitorKey"`
	Kind       string                        `json:"kind"` // "transfer" or "garage"
	Source     agreement.TransactionLocation `json:"source"`
	MintTxID   agreement.TxID                `json:"mintTxId"`
	Timestamp  int64                         `json:"timestamp"`
}

type Notifier interface {
	Notify(ctx context.Context, receipt *MintReceipt) error
	Close()
}

// Nop drops every receipt.
type Nop struct{}

func (Nop) Notify(context.Context, *MintReceipt) error { return nil }
func (Nop) Close() {}

// publisher is satisfied by *nats.Conn.
type publisher interface {
	PublishMsg(m *nats.Msg) error
	Close()
}

type NATSNotifier struct {
	conn    publisher
	subject string
}

func NewNATSNotifier(natsURL, subject string) (*NATSNotifier, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("nc-bridge"),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS: reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSNotifier{conn: conn, subject: subject}, nil
}

func (n *NATSNotifier) Notify(ctx context.Context, receipt *MintReceipt) error {
	if receipt.Timestamp == 0 {
		receipt.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(receipt)
	if err != nil {
		return err
	}

	header := nats.Header{}
	// lets JetStream drop duplicates of the same mint
	header.Add("Nats-Msg-Id", receipt.MintTxID.Hex())

	return n.conn.PublishMsg(&nats.Msg{
		Subject: n.subject,
		Data:    data,
		Header:  header,
	})
}

func (n *NATSNotifier) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}
