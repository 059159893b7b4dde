package main

import (
	"context"
	"log"
	"os"

	"github.com/trezcool/schoolportal/apps/portal/di"
	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/auth"
	"github.com/trezcool/schoolportal/core/portal"
)

func main() {
	logger := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	var code int
	err := di.New(core.NewConfig).Invoke(func(remote *di.Remote, mgr *auth.Manager, store *portal.Store) {
		defer func() { _ = remote.Close() }()

		cli := commandLine{
			remote: remote,
			auth:   mgr,
			store:  store,
			out:    os.Stdout,
		}
		if err := cli.run(context.Background(), os.Args); err != nil {
			if err != errHelp {
				logger.Printf("\nerror: %s\n", err)
			}
			code = 1
		}
	})
	if err != nil {
		logger.Fatal(err)
	}
	os.Exit(code)
}
