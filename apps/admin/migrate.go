package main

import (
	"context"
	"errors"

	"github.com/trezcool/schoolportal/storage/database"
)

var errNoDatabase = errors.New("migrations need the postgres remote backend")

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	if cli.remote == nil || cli.remote.SQL == nil {
		return errNoDatabase
	}
	return database.Migrate(ctx, cli.remote.SQL.DB, args[0], args[1:]...)
}
