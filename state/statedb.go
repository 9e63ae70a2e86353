package state

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/common"
	"github.com/TEENet-io/nc-bridge-go/database"
)

var ErrEmptyKey = errors.New("empty monitor key")

// StateDB is the SQLite relay position store. It also keeps the log of
// staged mint transactions.
type StateDB struct {
	db        *sql.DB
	stmtCache *database.StmtCache
}

var _ agreement.PositionStore = (*StateDB)(nil)

// OpenStateDB opens (or creates) the SQLite file at path.
func OpenStateDB(path string) (*StateDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// one writer, so read-your-writes holds across goroutines
	db.SetMaxOpenConns(1)

	st, err := NewStateDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return st, nil
}

func NewStateDB(db *sql.DB) (*StateDB, error) {
	// 1. Create the tables.
	if _, err := db.Exec(relayPositionTable + mintTxTable); err != nil {
		return nil, err
	}

	// 2. A stmt cache + db.
	return &StateDB{
		db:        db,
		stmtCache: database.NewStmtCache(db),
	}, nil
}

func (st *StateDB) Close() error {
	if err := st.stmtCache.Close(); err != nil {
		logger.Warnf("failed to close cached statements: %v", err)
	}
	return st.db.Close()
}

// Load returns the stored position of a monitor, nil if there is none.
func (st *StateDB) Load(key string) (*agreement.TransactionLocation, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	query := `SELECT block_hash, tx_id FROM relay_position WHERE key = ?`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}

	var blockHash, txID string
	if err := stmt.QueryRow(key).Scan(&blockHash, &txID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &agreement.TransactionLocation{
		BlockHash: common.HexStrToHash(blockHash),
		TxID:      common.HexStrToHash(txID),
	}, nil
}

func (st *StateDB) Store(key string, loc agreement.TransactionLocation) error {
	if key == "" {
		return ErrEmptyKey
	}

	query := `INSERT OR REPLACE INTO relay_position (key, block_hash, tx_id, updated_at) VALUES (?, ?, ?, ?)`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return err
	}

	if _, err := stmt.Exec(key, loc.BlockHash.String()[2:], loc.TxID.String()[2:], time.Now().Unix()); err != nil {
		logger.WithField("key", key).Errorf("failed to store relay position: %v", err)
		return err
	}
	return nil
}

// List returns every stored position keyed by monitor key.
func (st *StateDB) List() (map[string]agreement.TransactionLocation, error) {
	positions, err := st.GetPositions()
	if err != nil {
		return nil, err
	}
	result := make(map[string]agreement.TransactionLocation, len(positions))
	for _, p := range positions {
		result[p.Key] = p.Location
	}
	return result, nil
}

// GetPositions returns every stored position ordered by key.
func (st *StateDB) GetPositions() ([]*Position, error) {
	query := `SELECT key, block_hash, tx_id, updated_at FROM relay_position ORDER BY key`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	positions := []*Position{}
	for rows.Next() {
		var key, blockHash, txID string
		var updatedAt int64
		if err := rows.Scan(&key, &blockHash, &txID, &updatedAt); err != nil {
			return nil, err
		}
		positions = append(positions, &Position{
			Key: key,
			Location: agreement.TransactionLocation{
				BlockHash: common.HexStrToHash(blockHash),
				TxID:      common.HexStrToHash(txID),
			},
			UpdatedAt: time.Unix(updatedAt, 0),
		})
	}
	return positions, rows.Err()
}

func (st *StateDB) InsertMintTx(tx *MintTx) error {
	query := `INSERT OR REPLACE INTO mint_tx (tx_id, monitor_key, source_tx_id, created_at) VALUES (?, ?, ?, ?)`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return err
	}

	createdAt := tx.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = stmt.Exec(tx.TxID.String()[2:], tx.MonitorKey, tx.SourceTxID.String()[2:], createdAt.UnixNano())
	return err
}

// GetMintTxs returns the mint transactions of a monitor, oldest first.
func (st *StateDB) GetMintTxs(monitorKey string) ([]*MintTx, error) {
	query := `SELECT tx_id, monitor_key, source_tx_id, created_at FROM mint_tx WHERE monitor_key = ? ORDER BY created_at, rowid`
	stmt, err := st.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}

	rows, err := stmt.Query(monitorKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := []*MintTx{}
	for rows.Next() {
		var txID, key, sourceTxID string
		var createdAt int64
		if err := rows.Scan(&txID, &key, &sourceTxID, &createdAt); err != nil {
			return nil, err
		}
		txs = append(txs, &MintTx{
			TxID:       common.HexStrToHash(txID),
			MonitorKey: key,
			SourceTxID: common.HexStrToHash(sourceTxID),
			CreatedAt:  time.Unix(0, createdAt),
		})
	}
	return txs, rows.Err()
}
