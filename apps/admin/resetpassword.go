package main

import (
	"context"

	"github.com/pkg/errors"
)

var errTeacherNotFound = errors.New("teacher not found")

func (cli *commandLine) resetPassword(ctx context.Context, id, pwd string) error {
	cli.auth.LoadTeachers(ctx)

	var found bool
	for _, t := range cli.auth.Teachers() {
		if t.ID == id {
			found = true
			break
		}
	}
	if !found {
		return errTeacherNotFound
	}
	return cli.auth.UpdateTeacherPassword(ctx, id, pwd)
}
