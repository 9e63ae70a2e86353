package cmd

import (
	"fmt"
	"os"

	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/kvstate"
	"github.com/TEENet-io/nc-bridge-go/observer"
	"github.com/TEENet-io/nc-bridge-go/reporter"
	"github.com/TEENet-io/nc-bridge-go/state"
)

const (
	StoreDriverSQLite = "sqlite"
	StoreDriverBadger = "badger"
)

// fileExists checks if a file exists and is readable
func FileExists(filePath string) bool {
	file, err := os.Open(filePath)
	if err != nil {
		return false
	}
	defer file.Close()
	return true
}

// Store is the opened position store. StateDB is nil unless the sqlite
// driver is used, and only then is a mint log kept.
type Store struct {
	Positions agreement.PositionStore
	StateDB   *state.StateDB
	reader    reporter.PositionReader
	close     func() error
}

func OpenStore(driver, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: store path", ErrMissingConfig)
	}
	switch driver {
	case "", StoreDriverSQLite:
		db, err := state.OpenStateDB(path)
		if err != nil {
			return nil, err
		}
		return &Store{Positions: db, StateDB: db, reader: db, close: db.Close}, nil
	case StoreDriverBadger:
		kv, err := kvstate.NewBadgerStore(path)
		if err != nil {
			return nil, err
		}
		return &Store{Positions: kv, reader: kv, close: kv.Close}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}

func (s *Store) mintLog() observer.MintLog {
	if s.StateDB == nil {
		return nil
	}
	return s.StateDB
}

func (s *Store) mintLogReader() reporter.MintLogReader {
	if s.StateDB == nil {
		return nil
	}
	return s.StateDB
}

func (s *Store) Close() error {
	return s.close()
}
