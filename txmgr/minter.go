package txmgr

import (
	"context"

	"github.com/TEENet-io/nc-bridge-go/agreement"
)

// Minter issues mint_assets transactions.
type Minter struct {
	submitter *Submitter
}

var _ agreement.Minter = (*Minter)(nil)

func NewMinter(submitter *Submitter) *Minter {
	return &Minter{submitter: submitter}
}

func (m *Minter) MinterAddress() agreement.Address {
	return m.submitter.Address()
}

// MintAssets puts every instruction into a single action of a single transaction.
func (m *Minter) MintAssets(ctx context.Context, mints []agreement.MintInstruction) (agreement.TxID, error) {
	action, err := MintAssetsAction(mints)
	if err != nil {
		return agreement.TxID{}, err
	}
	return m.submitter.Submit(ctx, ActionMintAssets, action)
}
