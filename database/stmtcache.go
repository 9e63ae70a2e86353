// Package database holds helpers shared by the SQLite stores.
package database

import (
	"database/sql"
	"errors"
	"sync"
)

// StmtCache maps a query string to its prepared statement.
type StmtCache struct {
	db *sql.DB
	m  sync.Map
}

func NewStmtCache(db *sql.DB) *StmtCache {
	return &StmtCache{db: db}
}

// Prepare returns the cached statement of query, preparing it on first use.
// When two callers race, the loser's statement is closed.
func (sc *StmtCache) Prepare(query string) (*sql.Stmt, error) {
	if cached, ok := sc.m.Load(query); ok {
		return cached.(*sql.Stmt), nil
	}
	stmt, err := sc.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	if actual, loaded := sc.m.LoadOrStore(query, stmt); loaded {
		_ = stmt.Close()
		return actual.(*sql.Stmt), nil
	}
	return stmt, nil
}

// Len is the number of cached statements.
func (sc *StmtCache) Len() int {
	n := 0
	sc.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Close closes and forgets every cached statement.
func (sc *StmtCache) Close() error {
	var errs []error
	sc.m.Range(func(k, v any) bool {
		errs = append(errs, v.(*sql.Stmt).Close())
		sc.m.Delete(k)
		return true
	})
	return errors.Join(errs...)
}
