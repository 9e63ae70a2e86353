// Package kvstate keeps relay positions in an embedded Badger database.
// It is the alternative to the SQLite state for deployments that only need
// positions and no mint log.
package kvstate

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/common"
)

const positionPrefix = "relay_position"

var ErrKeyEmpty = errors.New("key is empty")

// stored value; hashes keep their 0x hex form
type positionRecord struct {
	BlockHash string `json:"blockHash"`
	TxID      string `json:"txId"`
}

type BadgerStore struct {
	db *badger.DB
}

var _ agreement.PositionStore = (*BadgerStore)(nil)

func NewBadgerStore(path string) (*BadgerStore, error) {
	return open(badger.DefaultOptions(path).WithLogger(nil))
}

// NewInMemoryBadgerStore keeps nothing on disk.
func NewInMemoryBadgerStore() (*BadgerStore, error) {
	return open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
}

func open(opts badger.Options) (*BadgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func fullKey(k string) ([]byte, error) {
	if k == "" {
		return nil, ErrKeyEmpty
	}
	return []byte(positionPrefix + "/" + k), nil
}

func (b *BadgerStore) Load(key string) (*agreement.TransactionLocation, error) {
	k, err := fullKey(key)
	if err != nil {
		return nil, err
	}

	var valCopy []byte
	err = b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		valCopy, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var rec positionRecord
	if err := json.Unmarshal(valCopy, &rec); err != nil {
		return nil, err
	}
	return rec.location(), nil
}

func (b *BadgerStore) Store(key string, loc agreement.TransactionLocation) error {
	k, err := fullKey(key)
	if err != nil {
		return err
	}

	data, err := json.Marshal(positionRecord{BlockHash: loc.BlockHash.Hex(), TxID: loc.TxID.Hex()})
	if err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, data)
	})
}

// List returns every stored position keyed by monitor key.
func (b *BadgerStore) List() (map[string]agreement.TransactionLocation, error) {
	result := map[string]agreement.TransactionLocation{}
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		p := []byte(positionPrefix + "/")
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var rec positionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			result[strings.TrimPrefix(string(item.KeyCopy(nil)), string(p))] = *rec.location()
		}
		return nil
	})
	return result, err
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}

func (rec positionRecord) location() *agreement.TransactionLocation {
	return &agreement.TransactionLocation{
		BlockHash: common.HexStrToHash(rec.BlockHash),
		TxID:      common.HexStrToHash(rec.TxID),
	}
}
