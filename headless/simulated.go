package headless

import (
	"context"
	"errors"
	"sync"

	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/bencodex"
	"github.com/TEENet-io/nc-bridge-go/common"
)

var ErrSimulatedFailure = errors.New("simulated headless failure")

// SimulatedHeadless is an in-memory chain implementing agreement.HeadlessClient.
type SimulatedHeadless struct {
	mu sync.Mutex

	tip       uint64
	hashes    map[uint64]agreement.BlockHash
	transfers map[uint64][]*agreement.TransferEvent
	garages   map[uint64][]*agreement.GarageUnloadEvent
	nonces    map[agreement.Address]int64
	genesis   agreement.BlockHash

	// Staged holds the payloads passed to StageTransaction, in order.
	Staged []string
	// FailTip makes the next n GetTipIndex calls fail.
	FailTip int
	// FailBlocks makes event queries for these blocks fail while set.
	FailBlocks map[uint64]bool
}

var _ agreement.HeadlessClient = (*SimulatedHeadless)(nil)

func NewSimulatedHeadless() *SimulatedHeadless {
	return &SimulatedHeadless{
		hashes:     map[uint64]agreement.BlockHash{},
		transfers:  map[uint64][]*agreement.TransferEvent{},
		garages:    map[uint64][]*agreement.GarageUnloadEvent{},
		nonces:     map[agreement.Address]int64{},
		genesis:    common.RandHash(),
		FailBlocks: map[uint64]bool{},
	}
}

func (s *SimulatedHeadless) hashOf(index uint64) agreement.BlockHash {
	h, ok := s.hashes[index]
	if !ok {
		h = common.RandHash()
		s.hashes[index] = h
	}
	return h
}

// SetTip moves the tip. Blocks up to it get random hashes on first use.
func (s *SimulatedHeadless) SetTip(tip uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tip = tip
}

func (s *SimulatedHeadless) BlockHashOf(index uint64) agreement.BlockHash {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hashOf(index)
}

func (s *SimulatedHeadless) SetGenesisHash(h agreement.BlockHash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.genesis = h
}

func (s *SimulatedHeadless) SetNonce(addr agreement.Address, nonce int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonces[addr] = nonce
}

// AddTransfer appends a transfer to a block and stamps its block hash.
func (s *SimulatedHeadless) AddTransfer(index uint64, ev *agreement.TransferEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev.BlockHash = s.hashOf(index)
	s.transfers[index] = append(s.transfers[index], ev)
}

func (s *SimulatedHeadless) AddGarageUnload(index uint64, ev *agreement.GarageUnloadEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.garages[index] = append(s.garages[index], ev)
}

func (s *SimulatedHeadless) GetTipIndex(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailTip > 0 {
		s.FailTip--
		return 0, ErrSimulatedFailure
	}
	return s.tip, nil
}

func (s *SimulatedHeadless) GetBlockHash(ctx context.Context, index uint64) (agreement.BlockHash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index > s.tip {
		return agreement.BlockHash{}, ErrNotFoundFor("block", index)
	}
	return s.hashOf(index), nil
}

func (s *SimulatedHeadless) GetBlockIndex(ctx context.Context, hash agreement.BlockHash) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for index, h := range s.hashes {
		if h == hash {
			return index, nil
		}
	}
	return 0, ErrNotFoundFor("block", hash.Hex())
}

func (s *SimulatedHeadless) GetTransferEvents(ctx context.Context, blockHash agreement.BlockHash, recipient agreement.Address) ([]*agreement.TransferEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := []*agreement.TransferEvent{}
	for index, h := range s.hashes {
		if h != blockHash {
			continue
		}
		if s.FailBlocks[index] {
			return nil, ErrSimulatedFailure
		}
		for _, ev := range s.transfers[index] {
			if ev.Recipient == recipient {
				events = append(events, ev)
			}
		}
	}
	return events, nil
}

func (s *SimulatedHeadless) GetGarageUnloadEvents(ctx context.Context, blockIndex uint64, agent, avatar agreement.Address) ([]*agreement.GarageUnloadEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailBlocks[blockIndex] {
		return nil, ErrSimulatedFailure
	}

	events := []*agreement.GarageUnloadEvent{}
	for _, ev := range s.garages[blockIndex] {
		if GarageUnloadConcerns(ev, agent, avatar) {
			events = append(events, ev)
		}
	}
	return events, nil
}

func (s *SimulatedHeadless) GetNextTxNonce(ctx context.Context, address agreement.Address) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nonces[address], nil
}

func (s *SimulatedHeadless) GetGenesisHash(ctx context.Context) (agreement.BlockHash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.genesis, nil
}

// StageTransaction checks the payload decodes and returns a random tx id.
func (s *SimulatedHeadless) StageTransaction(ctx context.Context, payload string) (agreement.TxID, error) {
	raw, err := common.HexStrToByteSlice(payload)
	if err != nil {
		return agreement.TxID{}, err
	}
	if _, err := bencodex.Decode(raw); err != nil {
		return agreement.TxID{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Staged = append(s.Staged, payload)
	return common.RandHash(), nil
}

// StagedPayloads returns a copy of Staged, safe while other goroutines submit.
func (s *SimulatedHeadless) StagedPayloads() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Staged...)
}
