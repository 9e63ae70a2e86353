// Submitter: the one pipeline every destination transaction goes through.
// 1. resolve the signer  2. fetch nonce and genesis hash  3. assemble the
// envelope with the fee policy  4. sign  5. encode and stage.
package txmgr

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/nc-bridge-go/account"
	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/bencodex"
	"github.com/TEENet-io/nc-bridge-go/metrics"
)

type Submitter struct {
	client agreement.HeadlessClient
	signer account.Signer
	fee    FeePolicy
	now    func() time.Time

	// a signer never has two submissions in flight, or nonces would collide
	mu sync.Mutex
}

func NewSubmitter(client agreement.HeadlessClient, signer account.Signer, fee FeePolicy) *Submitter {
	return &Submitter{
		client: client,
		signer: signer,
		fee:    fee,
		now:    time.Now,
	}
}

func (s *Submitter) Address() agreement.Address {
	return s.signer.Address()
}

// Submit builds, signs and stages a transaction carrying the actions.
// name only labels logs and metrics.
func (s *Submitter) Submit(ctx context.Context, name string, actions ...bencodex.Value) (agreement.TxID, error) {
	txID, err := s.submit(ctx, actions)
	if err != nil {
		metrics.Submissions.WithLabelValues(name, "error").Inc()
		logger.WithField("action", name).Errorf("failed to submit transaction: %v", err)
		return agreement.TxID{}, err
	}
	metrics.Submissions.WithLabelValues(name, "staged").Inc()
	return txID, nil
}

func (s *Submitter) submit(ctx context.Context, actions []bencodex.Value) (agreement.TxID, error) {
	if len(actions) == 0 {
		return agreement.TxID{}, ErrNoActions
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 1. Resolve the signer
	signer := s.signer.Address()

	// 2. Fetch nonce and genesis hash from the destination
	nonce, err := s.client.GetNextTxNonce(ctx, signer)
	if err != nil {
		return agreement.TxID{}, err
	}
	genesis, err := s.client.GetGenesisHash(ctx)
	if err != nil {
		return agreement.TxID{}, err
	}

	// 3. Assemble the envelope
	unsigned := &UnsignedTx{
		Nonce:            nonce,
		GenesisHash:      genesis,
		PublicKey:        s.signer.PublicKey(),
		Signer:           signer,
		Timestamp:        s.now(),
		UpdatedAddresses: []agreement.Address{},
		Actions:          actions,
		MaxGasPrice:      s.fee.MaxGasPrice,
		GasLimit:         s.fee.GasLimit,
	}

	// 4. Sign
	signed, err := Sign(unsigned, s.signer)
	if err != nil {
		return agreement.TxID{}, err
	}

	// 5. Encode and stage
	raw, err := signed.Bytes()
	if err != nil {
		return agreement.TxID{}, err
	}
	txID, err := s.client.StageTransaction(ctx, hex.EncodeToString(raw))
	if err != nil {
		return agreement.TxID{}, err
	}

	logger.WithFields(logger.Fields{
		"signer": signer.Hex(),
		"nonce":  nonce,
		"tx_id":  txID.Hex(),
	}).Info("staged transaction")
	return txID, nil
}
