// Package pgstore implements core.RemoteStore over PostgreSQL.
package pgstore

import (
	"context"
	"database/sql"
	"reflect"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/schoolportal/core"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// uniqueColumns names the column whose repeated insert is a no-op, for tables that have one.
var uniqueColumns = map[string]string{
	core.TableViewedResources:  "resource_id",
	core.TableViewedTimetables: "resource_id",
}

type Store struct {
	db *sqlx.DB
}

var _ core.RemoteStore = (*Store)(nil) // interface compliance check

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func checkTable(table string) error {
	if !core.IsTable(table) {
		return errors.Wrap(core.ErrUnknownTable, table)
	}
	return nil
}

// fatal reports a connection the pool has given up on as a shutdown error.
func fatal(err error) error {
	return core.ShutdownOn(err, sql.ErrConnDone)
}

func validID(v interface{}) bool {
	id, ok := v.(string)
	if !ok {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

// predicate converts conditions into a squirrel AND clause.
// Ids that are not UUIDs never match a row, so an equality on one makes the whole clause
// unmatchable (ok is false) and an inequality on one is dropped.
func predicate(conds []core.Cond) (and sq.And, ok bool) {
	and = make(sq.And, 0, len(conds))
	for _, c := range conds {
		if c.Column == core.ColumnID && c.Value != nil && !validID(c.Value) {
			if c.Op == core.OpNeq {
				continue
			}
			return nil, false
		}
		if c.Op == core.OpNeq {
			and = append(and, sq.NotEq{c.Column: c.Value})
		} else {
			and = append(and, sq.Eq{c.Column: c.Value})
		}
	}
	return and, true
}

func (s *Store) Query(ctx context.Context, table string, ordering ...core.DBOrdering) ([]core.Row, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	b := psql.Select("*").From(table)
	for _, ord := range ordering {
		b = b.OrderBy(ord.String())
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	return s.selectRows(ctx, query, args...)
}

func (s *Store) Get(ctx context.Context, table string, conds ...core.Cond) (core.Row, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	b := psql.Select("*").From(table).Limit(2)
	if len(conds) > 0 {
		where, ok := predicate(conds)
		if !ok {
			return nil, core.ErrNoRows
		}
		b = b.Where(where)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	rows, err := s.selectRows(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) != 1 {
		return nil, core.ErrNoRows
	}
	return rows[0], nil
}

func (s *Store) Insert(ctx context.Context, table string, row core.Row) (core.Row, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	values := make(map[string]interface{}, len(row))
	for col, v := range row {
		if col == core.ColumnID {
			continue // assigned by the database
		}
		cv, err := columnValue(v)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding %s.%s", table, col)
		}
		values[col] = cv
	}

	query, args, err := insertQuery(table, values)
	if err != nil {
		return nil, errors.Wrap(err, "building insert")
	}
	inserted := make(map[string]interface{})
	err = s.db.QueryRowxContext(ctx, query, args...).MapScan(inserted)
	if errors.Is(err, sql.ErrNoRows) {
		if col, ok := uniqueColumns[table]; ok {
			// already there: hand back the stored row
			return s.Get(ctx, table, core.Eq(col, values[col]))
		}
	}
	if err != nil {
		return nil, errors.Wrapf(fatal(err), "inserting into %s", table)
	}
	return normalize(inserted), nil
}

func insertQuery(table string, values map[string]interface{}) (string, []interface{}, error) {
	suffix := "RETURNING *"
	if col, ok := uniqueColumns[table]; ok {
		suffix = "ON CONFLICT (" + col + ") DO NOTHING " + suffix
	}
	return psql.Insert(table).SetMap(values).Suffix(suffix).ToSql()
}

func (s *Store) Update(ctx context.Context, table, id string, patch core.Row) error {
	if err := checkTable(table); err != nil {
		return err
	}
	values := make(map[string]interface{}, len(patch))
	for col, v := range patch {
		if col == core.ColumnID {
			continue
		}
		cv, err := columnValue(v)
		if err != nil {
			return errors.Wrapf(err, "encoding %s.%s", table, col)
		}
		values[col] = cv
	}
	if len(values) == 0 || !validID(id) {
		return nil
	}

	query, args, err := psql.Update(table).SetMap(values).Where(sq.Eq{core.ColumnID: id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building update")
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(fatal(err), "updating %s", table)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, table string, conds ...core.Cond) error {
	if len(conds) == 0 {
		return core.ErrUnfilteredDelete
	}
	if err := checkTable(table); err != nil {
		return err
	}
	where, ok := predicate(conds)
	if !ok {
		return nil
	}
	query, args, err := psql.Delete(table).Where(where).ToSql()
	if err != nil {
		return errors.Wrap(err, "building delete")
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrapf(fatal(err), "deleting from %s", table)
	}
	return nil
}

func (s *Store) selectRows(ctx context.Context, query string, args ...interface{}) ([]core.Row, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(fatal(err), "querying")
	}
	defer func() { _ = rows.Close() }()

	result := make([]core.Row, 0)
	for rows.Next() {
		r := make(map[string]interface{})
		if err := rows.MapScan(r); err != nil {
			return nil, errors.Wrap(err, "scanning row")
		}
		result = append(result, normalize(r))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(fatal(err), "iterating rows")
	}
	return result, nil
}

// normalize turns driver values into plain Go values: text and UUID columns come back as []byte.
func normalize(r map[string]interface{}) core.Row {
	row := make(core.Row, len(r))
	for col, v := range r {
		switch t := v.(type) {
		case []byte:
			row[col] = string(t)
		case time.Time:
			row[col] = t.UTC()
		default:
			row[col] = v
		}
	}
	return row
}

// columnValue encodes slices and maps as JSON for JSONB columns.
func columnValue(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch v.(type) {
	case time.Time, *time.Time, []byte:
		return v, nil
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Map:
		b, err := sonic.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return v, nil
}
