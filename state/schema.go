package state

import "strings"

var (
	strZeroBytes32 = strings.Repeat("0", 64)

	// last processed source transaction of each monitor.
	// block_hash and tx_id are 32-byte hex strings without prefix '0x'
	relayPositionTable = `CREATE TABLE IF NOT EXISTS relay_position (
		key VARCHAR(64) PRIMARY KEY NOT NULL,
		block_hash CHAR(64) NOT NULL,
		tx_id CHAR(64) NOT NULL,
		updated_at BIGINT NOT NULL,
		CONSTRAINT chk_block_hash CHECK (block_hash != '` + strZeroBytes32 + `')
	);`

	// destination transactions staged for source transactions
	mintTxTable = `CREATE TABLE IF NOT EXISTS mint_tx (
		tx_id CHAR(64) PRIMARY KEY NOT NULL,
		monitor_key VARCHAR(64) NOT NULL,
		source_tx_id CHAR(64) NOT NULL,
		created_at BIGINT NOT NULL,
		CONSTRAINT chk_tx_id CHECK (tx_id != '` + strZeroBytes32 + `')
	);
	CREATE INDEX IF NOT EXISTS idx_mint_tx_monitor_key ON mint_tx (monitor_key);`
)
