package state

import (
	"database/sql"

	logger "github.com/sirupsen/logrus"

	"github.com/TEENet-io/nc-bridge-go/agreement"
	"github.com/TEENet-io/nc-bridge-go/common"
)

func RandLocation() agreement.TransactionLocation {
	return agreement.TransactionLocation{
		BlockHash: common.RandHash(),
		TxID:      common.RandHash(),
	}
}

func getMemoryDB() *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		logger.Fatal(err)
	}
	// every connection would get its own in-memory database
	db.SetMaxOpenConns(1)
	return db
}
