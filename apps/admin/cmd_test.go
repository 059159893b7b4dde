package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolportal/apps/portal/di"
	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/auth"
	"github.com/trezcool/schoolportal/core/portal"
	"github.com/trezcool/schoolportal/services/logger"
	"github.com/trezcool/schoolportal/storage/blob/memblob"
	"github.com/trezcool/schoolportal/storage/database"
	"github.com/trezcool/schoolportal/storage/database/memdb"
	"github.com/trezcool/schoolportal/tests"
)

var remoteDB *memdb.DB

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	remoteDB = memdb.Open()
	logger := logsvc.NewDiscardLogger()

	var out bytes.Buffer
	return &commandLine{
		remote: &di.Remote{Store: remoteDB, SQL: sqlx.NewDb(nil, "postgres")},
		auth:   auth.NewManager(remoteDB, logger),
		store:  portal.NewStore(remoteDB, memblob.New(""), logger),
		out:    &out,
	}, &out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case err == nil:
		if tt.wantErr != nil || tt.wantErrStr != "" {
			t.Errorf("cli.run() expected an error")
		}
	case tt.wantErr != nil:
		if err != tt.wantErr {
			t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
		}
	case tt.wantErrStr != "":
		if err.Error() != tt.wantErrStr {
			t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
		}
	default:
		t.Errorf("cli.run() unexpected error = %v", err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	database.GooseRunFunc = func(ctx context.Context, command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: `running migration "lol": "lol": no such command`},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: `running migration "up-to": up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION`},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: `running migration "up-to": version must be a number (got 'lol')`},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: `running migration "create": create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]`},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: `running migration "down-to": version must be a number (got 'lol')`},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "timetables", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(context.Background(), args))
		})
	}

	t.Run("no postgres", func(t *testing.T) {
		cli.remote = &di.Remote{Store: remoteDB}
		assert.Equal(t, errNoDatabase, cli.run(context.Background(), []string{"admin", "migrate", "up"}))
	})
}

func Test_commandLine_addTeacher(t *testing.T) {
	cli, out := setup(t)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"addteacher"}, wantErr: errHelp},
		{name: "name but no password", args: []string{"addteacher", "-name", "Jane"}, wantErr: errHelp},
		{name: "add", args: []string{"addteacher", "-name", "  Jane Doe "}, extra: extra{pwd: "pwd"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(context.Background(), args))
		})
	}

	rows := remoteDB.Rows(core.TableTeachers)
	require.Len(t, rows, 1)
	assert.Equal(t, "jane doe", rows[0]["username"])
	assert.Equal(t, "Jane Doe", rows[0]["name"])
	assert.Equal(t, "pwd", rows[0]["password"])
	assert.Contains(t, out.String(), "added teacher Jane Doe (username: jane doe")
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, _ := setup(t)
	teacher := testutil.CreateTeacher(t, remoteDB, "Jane", "jane", "old")

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "id but no password", args: []string{"resetpassword", "-id", teacher.ID}, wantErr: errHelp},
		{name: "teacher not found", args: []string{"resetpassword", "-id", "lol"}, extra: extra{pwd: "lol"}, wantErr: errTeacherNotFound},
		{name: "reset", args: []string{"resetpassword", "-id", teacher.ID}, extra: extra{pwd: "new"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(context.Background(), args))
		})
	}

	res := cli.auth.Login(context.Background(), "jane", "new")
	assert.True(t, res.Success)
}

func Test_commandLine_counts(t *testing.T) {
	cli, out := setup(t)
	testutil.CreateAnnouncement(t, remoteDB, "Open day", portal.TargetPublic, false)
	testutil.CreateAdmission(t, remoteDB, "Kid", portal.AdmissionPending)

	require.NoError(t, cli.run(context.Background(), []string{"admin", "counts"}))
	assert.Contains(t, out.String(), `"announcements": 1`)
	assert.Contains(t, out.String(), `"admissions": 1`)
}
