package pgstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolportal/core"
)

func Test_predicate(t *testing.T) {
	const id = "8a1e4c9e-7f4a-4b0e-9a51-3c2f8d6e1b70"
	tests := []struct {
		name      string
		conds     []core.Cond
		wantOK    bool
		wantQuery string
		wantArgs  []interface{}
	}{
		{
			name:      "plain columns and valid id",
			conds:     []core.Cond{core.Eq("teacher_name", "Jane"), core.Neq(core.ColumnID, id)},
			wantOK:    true,
			wantQuery: "DELETE FROM uploads WHERE (teacher_name = $1 AND id <> $2)",
			wantArgs:  []interface{}{"Jane", id},
		},
		{
			name:      "inequality on a malformed id is dropped",
			conds:     []core.Cond{core.Eq("teacher_name", "Jane"), core.Neq(core.ColumnID, "bogus")},
			wantOK:    true,
			wantQuery: "DELETE FROM uploads WHERE (teacher_name = $1)",
			wantArgs:  []interface{}{"Jane"},
		},
		{
			name:   "equality on a malformed id matches nothing",
			conds:  []core.Cond{core.Eq(core.ColumnID, "bogus")},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, ok := predicate(tt.conds)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			query, args, err := psql.Delete(core.TableUploads).Where(where).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantQuery, query)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func Test_insertQuery(t *testing.T) {
	query, args, err := insertQuery(core.TableViewedResources, map[string]interface{}{"resource_id": "r1"})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO viewed_resources (resource_id) VALUES ($1) ON CONFLICT (resource_id) DO NOTHING RETURNING *", query)
	assert.Equal(t, []interface{}{"r1"}, args)

	query, _, err = insertQuery(core.TableAnnouncements, map[string]interface{}{"title": "a"})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO announcements (title) VALUES ($1) RETURNING *", query)
}

func Test_fatal(t *testing.T) {
	err := errors.Wrap(fatal(sql.ErrConnDone), "querying")
	assert.True(t, core.IsShutdown(err))
	assert.ErrorIs(t, err, sql.ErrConnDone)

	assert.False(t, core.IsShutdown(fatal(sql.ErrNoRows)))
}

func Test_columnValue(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{name: "nil", in: nil, want: nil},
		{name: "string", in: "abc", want: "abc"},
		{name: "bool", in: true, want: true},
		{name: "time", in: now, want: now},
		{name: "slice", in: []interface{}{map[string]interface{}{"date": "2024-05-01"}}, want: `[{"date":"2024-05-01"}]`},
		{name: "empty slice", in: []interface{}{}, want: `[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := columnValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_normalize(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("WAT", 3600))
	row := normalize(map[string]interface{}{
		"id":         []byte("8a1e"),
		"is_read":    false,
		"created_at": ts,
	})
	assert.Equal(t, "8a1e", row["id"])
	assert.Equal(t, false, row["is_read"])
	assert.Equal(t, time.UTC, row["created_at"].(time.Time).Location())
	assert.True(t, ts.Equal(row["created_at"].(time.Time)))
}

func TestStore_rejectsUnknownTables(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	_, err := s.Query(ctx, "pg_user")
	assert.ErrorIs(t, err, core.ErrUnknownTable)
	_, err = s.Get(ctx, "pg_user", core.Eq("id", "1"))
	assert.ErrorIs(t, err, core.ErrUnknownTable)
	_, err = s.Insert(ctx, "pg_user", core.Row{"a": 1})
	assert.ErrorIs(t, err, core.ErrUnknownTable)
	assert.ErrorIs(t, s.Update(ctx, "pg_user", "1", core.Row{"a": 1}), core.ErrUnknownTable)
	assert.ErrorIs(t, s.Delete(ctx, "pg_user", core.Eq("id", "1")), core.ErrUnknownTable)
	assert.Equal(t, core.ErrUnfilteredDelete, s.Delete(ctx, core.TableUploads))
}

func TestStore_malformedIDs(t *testing.T) {
	s := New(nil) // never reaches the database
	ctx := context.Background()

	_, err := s.Get(ctx, core.TableAnnouncements, core.Eq(core.ColumnID, "bogus"))
	assert.Equal(t, core.ErrNoRows, err)
	assert.NoError(t, s.Update(ctx, core.TableAnnouncements, "bogus", core.Row{"is_read": true}))
	assert.NoError(t, s.Delete(ctx, core.TableAnnouncements, core.Eq(core.ColumnID, "bogus")))
}
