package dummydb

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/session"
)

// DB is an in-memory store for tests and local tinkering. It satisfies
// core.DB; transactions are no-ops except for advisory lock release.
type DB struct {
	mu sync.RWMutex

	sessions    map[string]*session.Session
	groups      map[string]*enrollment.Group
	enrollments map[string]*enrollment.Enrollment
	attendances map[string]*attendance.Attendance // keyed sessionID + "/" + learnerID

	locks map[string]*Tx
}

var _ core.DB = (*DB)(nil) // interface compliance check

func Open() (*DB, error) {
	db := &DB{
		sessions:    make(map[string]*session.Session),
		groups:      make(map[string]*enrollment.Group),
		enrollments: make(map[string]*enrollment.Enrollment),
		attendances: make(map[string]*attendance.Attendance),
		locks:       make(map[string]*Tx),
	}
	return db, nil
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return noopResult{}, nil
}
func (db *DB) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sql.ErrNoRows
}
func (db *DB) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return nil
}

func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (core.DBTransactor, error) {
	return &Tx{db: db}, nil
}

// tryLock mimics pg_try_advisory_xact_lock: fail fast when another live
// transaction holds the (class, key) pair.
func (db *DB) tryLock(class int, key string, tx *Tx) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	k := fmt.Sprintf("%d:%s", class, key)
	if holder, ok := db.locks[k]; ok && holder != tx {
		return core.ErrOperationInProgress
	}
	if tx != nil {
		db.locks[k] = tx
		tx.held = append(tx.held, k)
	}
	return nil
}

func (db *DB) releaseLocks(tx *Tx) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, k := range tx.held {
		if db.locks[k] == tx {
			delete(db.locks, k)
		}
	}
	tx.held = nil
}

// Tx holds advisory locks until Commit/Rollback; writes apply immediately.
type Tx struct {
	db   *DB
	held []string
}

var _ core.DBTransactor = (*Tx)(nil)

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return tx.db.ExecContext(ctx, query, args...)
}
func (tx *Tx) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return tx.db.GetContext(ctx, dest, query, args...)
}
func (tx *Tx) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return tx.db.SelectContext(ctx, dest, query, args...)
}

func (tx *Tx) Commit() error {
	tx.db.releaseLocks(tx)
	return nil
}

func (tx *Tx) Rollback() error {
	tx.db.releaseLocks(tx)
	return nil
}

// lockTx extracts the lock-holding transaction when the exec is ours.
func lockTx(exec core.DBExecutor) *Tx {
	if tx, ok := exec.(*Tx); ok {
		return tx
	}
	return nil
}

type noopResult struct{}

func (noopResult) LastInsertId() (int64, error) { return 0, nil }
func (noopResult) RowsAffected() (int64, error) { return 1, nil }
