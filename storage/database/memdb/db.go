// Package memdb is an in-process core.RemoteStore, used for local runs and tests.
package memdb

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolportal/core"
)

// NowFunc stamps server timestamps.
var NowFunc = time.Now // mockable

// Operations
const (
	OpQuery  = "query"
	OpGet    = "get"
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

type (
	DB struct {
		tables map[string]*table

		mu       sync.Mutex
		failures map[string]error // {op:table: error}
		calls    map[string]int   // {op:table: count}
	}

	table struct {
		sync.RWMutex
		rows []core.Row // insertion order
	}
)

var _ core.RemoteStore = (*DB)(nil) // interface compliance check

func Open() *DB {
	db := &DB{
		tables:   make(map[string]*table, len(core.Tables)),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
	for _, name := range core.Tables {
		db.tables[name] = &table{}
	}
	return db
}

func opKey(op, table string) string {
	return op + ":" + table
}

// FailOn makes every `op` on `table` fail with err; a nil err clears the failure.
func (db *DB) FailOn(op, table string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if err == nil {
		delete(db.failures, opKey(op, table))
		return
	}
	db.failures[opKey(op, table)] = err
}

// Calls returns how many times `op` was issued against `table`.
func (db *DB) Calls(op, table string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.calls[opKey(op, table)]
}

// Rows returns a snapshot of the rows of `table`, in insertion order.
func (db *DB) Rows(name string) []core.Row {
	tbl, ok := db.tables[name]
	if !ok {
		return nil
	}
	tbl.RLock()
	defer tbl.RUnlock()
	return tbl.snapshot()
}

func (db *DB) begin(ctx context.Context, op, name string) (*table, error) {
	db.mu.Lock()
	db.calls[opKey(op, name)]++
	failure := db.failures[opKey(op, name)]
	db.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failure != nil {
		return nil, failure
	}
	tbl, ok := db.tables[name]
	if !ok {
		return nil, errors.Wrap(core.ErrUnknownTable, name)
	}
	return tbl, nil
}

func (tbl *table) snapshot() []core.Row {
	rows := make([]core.Row, 0, len(tbl.rows))
	for _, r := range tbl.rows {
		rows = append(rows, r.Clone())
	}
	return rows
}

func (db *DB) Query(ctx context.Context, name string, ordering ...core.DBOrdering) ([]core.Row, error) {
	tbl, err := db.begin(ctx, OpQuery, name)
	if err != nil {
		return nil, err
	}
	tbl.RLock()
	defer tbl.RUnlock()

	rows := tbl.snapshot()
	core.SortRows(rows, ordering...)
	return rows, nil
}

func (db *DB) Get(ctx context.Context, name string, conds ...core.Cond) (core.Row, error) {
	tbl, err := db.begin(ctx, OpGet, name)
	if err != nil {
		return nil, err
	}
	tbl.RLock()
	defer tbl.RUnlock()

	var found core.Row
	for _, r := range tbl.rows {
		if core.MatchAll(r, conds...) {
			if found != nil {
				return nil, core.ErrNoRows
			}
			found = r
		}
	}
	if found == nil {
		return nil, core.ErrNoRows
	}
	return found.Clone(), nil
}

func (db *DB) Insert(ctx context.Context, name string, row core.Row) (core.Row, error) {
	tbl, err := db.begin(ctx, OpInsert, name)
	if err != nil {
		return nil, err
	}

	r := row.Clone()
	r[core.ColumnID] = uuid.New().String()
	now := NowFunc().UTC()
	for _, col := range core.ServerTimestamps[name] {
		if v, ok := r[col]; !ok || v == nil {
			r[col] = now
		}
	}

	tbl.Lock()
	defer tbl.Unlock()
	tbl.rows = append(tbl.rows, r)
	return r.Clone(), nil
}

// Update patches the row with the given id; an unknown id is not an error.
func (db *DB) Update(ctx context.Context, name, id string, patch core.Row) error {
	tbl, err := db.begin(ctx, OpUpdate, name)
	if err != nil {
		return err
	}
	tbl.Lock()
	defer tbl.Unlock()

	for _, r := range tbl.rows {
		if r[core.ColumnID] == id {
			for col, v := range patch {
				if col != core.ColumnID {
					r[col] = v
				}
			}
		}
	}
	return nil
}

func (db *DB) Delete(ctx context.Context, name string, conds ...core.Cond) error {
	if len(conds) == 0 {
		return core.ErrUnfilteredDelete
	}
	tbl, err := db.begin(ctx, OpDelete, name)
	if err != nil {
		return err
	}
	tbl.Lock()
	defer tbl.Unlock()

	kept := make([]core.Row, 0, len(tbl.rows))
	for _, r := range tbl.rows {
		if !core.MatchAll(r, conds...) {
			kept = append(kept, r)
		}
	}
	tbl.rows = kept
	return nil
}
