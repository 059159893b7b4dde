// Package boltstore implements core.RemoteStore over a single bbolt file.
// Each table is a bucket; rows are JSON documents keyed by an insertion sequence.
package boltstore

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/trezcool/schoolportal/core"
)

// NowFunc stamps server timestamps.
var NowFunc = time.Now // mockable

type Store struct {
	db *bolt.DB
}

var _ core.RemoteStore = (*Store)(nil) // interface compliance check

// Open opens (or creates) the database file at path and makes sure every table exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range core.Tables {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return errors.Wrapf(err, "creating bucket %s", name)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// view and update report a closed database as a shutdown error.
func (s *Store) view(fn func(*bolt.Tx) error) error {
	return core.ShutdownOn(s.db.View(fn), bolt.ErrDatabaseNotOpen)
}

func (s *Store) update(fn func(*bolt.Tx) error) error {
	return core.ShutdownOn(s.db.Update(fn), bolt.ErrDatabaseNotOpen)
}

func bucket(tx *bolt.Tx, table string) (*bolt.Bucket, error) {
	if !core.IsTable(table) {
		return nil, errors.Wrap(core.ErrUnknownTable, table)
	}
	b := tx.Bucket([]byte(table))
	if b == nil {
		return nil, errors.Wrap(core.ErrUnknownTable, table)
	}
	return b, nil
}

func seqKey(n uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, n)
	return key
}

func decode(data []byte) (core.Row, error) {
	var row core.Row
	if err := sonic.Unmarshal(data, &row); err != nil {
		return nil, errors.Wrap(err, "decoding row")
	}
	return row, nil
}

// scan calls fn for every row of the bucket, in insertion order, until fn returns false.
func scan(b *bolt.Bucket, fn func(key []byte, row core.Row) bool) error {
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		row, err := decode(v)
		if err != nil {
			return err
		}
		if !fn(k, row) {
			return nil
		}
	}
	return nil
}

func (s *Store) Query(ctx context.Context, table string, ordering ...core.DBOrdering) ([]core.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows := make([]core.Row, 0)
	err := s.view(func(tx *bolt.Tx) error {
		b, err := bucket(tx, table)
		if err != nil {
			return err
		}
		return scan(b, func(_ []byte, row core.Row) bool {
			rows = append(rows, row)
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	core.SortRows(rows, ordering...)
	return rows, nil
}

func (s *Store) Get(ctx context.Context, table string, conds ...core.Cond) (core.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		found   core.Row
		matches int
	)
	err := s.view(func(tx *bolt.Tx) error {
		b, err := bucket(tx, table)
		if err != nil {
			return err
		}
		return scan(b, func(_ []byte, row core.Row) bool {
			if core.MatchAll(row, conds...) {
				found = row
				matches++
			}
			return matches < 2
		})
	})
	if err != nil {
		return nil, err
	}
	if matches != 1 {
		return nil, core.ErrNoRows
	}
	return found, nil
}

func (s *Store) Insert(ctx context.Context, table string, row core.Row) (core.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := row.Clone()
	r[core.ColumnID] = uuid.New().String()
	now := NowFunc().UTC()
	for _, col := range core.ServerTimestamps[table] {
		if v, ok := r[col]; !ok || v == nil {
			r[col] = now
		}
	}
	data, err := sonic.Marshal(r)
	if err != nil {
		return nil, errors.Wrap(err, "encoding row")
	}

	var stored core.Row
	err = s.update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, table)
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return errors.Wrap(err, "allocating key")
		}
		if err := b.Put(seqKey(seq), data); err != nil {
			return errors.Wrapf(err, "inserting into %s", table)
		}
		stored, err = decode(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// Update patches the row with the given id; an unknown id is not an error.
func (s *Store) Update(ctx context.Context, table, id string, patch core.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, table)
		if err != nil {
			return err
		}
		var (
			key []byte
			row core.Row
		)
		err = scan(b, func(k []byte, r core.Row) bool {
			if r[core.ColumnID] == id {
				key, row = append([]byte(nil), k...), r
				return false
			}
			return true
		})
		if err != nil || key == nil {
			return err
		}
		for col, v := range patch {
			if col != core.ColumnID {
				row[col] = v
			}
		}
		data, err := sonic.Marshal(row)
		if err != nil {
			return errors.Wrap(err, "encoding row")
		}
		return b.Put(key, data)
	})
}

func (s *Store) Delete(ctx context.Context, table string, conds ...core.Cond) error {
	if len(conds) == 0 {
		return core.ErrUnfilteredDelete
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, table)
		if err != nil {
			return err
		}
		var keys [][]byte
		err = scan(b, func(k []byte, row core.Row) bool {
			if core.MatchAll(row, conds...) {
				keys = append(keys, append([]byte(nil), k...))
			}
			return true
		})
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return errors.Wrapf(err, "deleting from %s", table)
			}
		}
		return nil
	})
}
