package main

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

func (cli *commandLine) counts(ctx context.Context) error {
	cli.store.Load(ctx)

	out, err := sonic.ConfigStd.MarshalIndent(cli.store.UnreadCounts(), "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding counts")
	}
	_, err = fmt.Fprintln(cli.out, string(out))
	return err
}
