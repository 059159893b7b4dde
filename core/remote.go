package core

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoRows is returned by RemoteStore.Get when the filter does not match exactly one row.
	ErrNoRows = errors.New("no single row matches the filter")
	// ErrUnfilteredDelete is returned by RemoteStore.Delete when called without any condition.
	ErrUnfilteredDelete = errors.New("refusing to delete without a filter")
	ErrUnknownTable     = errors.New("unknown table")
)

type (
	// Row is a single table row keyed by column name.
	Row map[string]interface{}

	Op int

	// Cond is a single column predicate; multiple conditions are ANDed.
	Cond struct {
		Column string
		Op     Op
		Value  interface{}
	}

	// RemoteStore is a generic client over named remote tables.
	// The store assigns row ids and server timestamps on insert.
	RemoteStore interface {
		Query(ctx context.Context, table string, ordering ...DBOrdering) ([]Row, error)
		// Get returns the single row matching all conditions, or ErrNoRows.
		Get(ctx context.Context, table string, conds ...Cond) (Row, error)
		Insert(ctx context.Context, table string, row Row) (Row, error)
		Update(ctx context.Context, table, id string, patch Row) error
		Delete(ctx context.Context, table string, conds ...Cond) error
	}

	// BlobStore stores files under a bucket and resolves them to public URLs.
	BlobStore interface {
		Upload(ctx context.Context, bucket, key string, r io.Reader, contentType string) error
		PublicURL(bucket, key string) string
		// Remove deletes the given keys; missing keys are ignored.
		Remove(ctx context.Context, bucket string, keys ...string) error
	}
)

const (
	OpEq Op = iota
	OpNeq
)

func (op Op) String() string {
	if op == OpNeq {
		return "<>"
	}
	return "="
}

func Eq(column string, value interface{}) Cond  { return Cond{Column: column, Op: OpEq, Value: value} }
func Neq(column string, value interface{}) Cond { return Cond{Column: column, Op: OpNeq, Value: value} }

func (c Cond) String() string {
	return fmt.Sprintf("%s %s %v", c.Column, c.Op, c.Value)
}

// Match reports whether `row` satisfies the condition.
func (c Cond) Match(row Row) bool {
	equal := CompareValues(row[c.Column], c.Value) == 0
	if c.Op == OpNeq {
		return !equal
	}
	return equal
}

// MatchAll reports whether `row` satisfies every condition.
func MatchAll(row Row, conds ...Cond) bool {
	for _, c := range conds {
		if !c.Match(row) {
			return false
		}
	}
	return true
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	cp := make(Row, len(r))
	for k, v := range r {
		cp[k] = v
	}
	return cp
}

// SortRows sorts rows in place by the given orderings, in priority order.
func SortRows(rows []Row, ordering ...DBOrdering) {
	if len(ordering) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range ordering {
			cmp := CompareValues(rows[i][ord.Field], rows[j][ord.Field])
			if cmp == 0 {
				continue
			}
			if ord.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
}

// CompareValues compares two column values, returning -1, 0 or 1.
// nil sorts first; timestamps may be given as time.Time or RFC 3339 strings.
func CompareValues(a, b interface{}) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	if ta, ok := asTime(a); ok {
		if tb, ok := asTime(b); ok {
			switch {
			case ta.Before(tb):
				return -1
			case ta.After(tb):
				return 1
			}
			return 0
		}
	}
	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0
			case !ba:
				return -1
			}
			return 1
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func asTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		if len(t) < len("2006-01-02T15:04:05Z") {
			return time.Time{}, false
		}
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case uint8:
		return float64(n), true
	}
	return 0, false
}
