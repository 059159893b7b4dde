package main

import (
	"context"
	"fmt"

	"github.com/trezcool/schoolportal/core"
)

func (cli *commandLine) addTeacher(ctx context.Context, name, pwd string) error {
	teacher, err := cli.auth.AddTeacher(ctx, core.CleanString(name), pwd)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "added teacher %s (username: %s, id: %s)\n", teacher.Name, teacher.Username, teacher.ID)
	return nil
}
