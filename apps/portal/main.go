package main

import (
	"context"
	"expvar"
	"fmt"
	"log"

	"github.com/trezcool/schoolportal/apps/portal/di"
	echoapi "github.com/trezcool/schoolportal/apps/portal/echo"
	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/auth"
	"github.com/trezcool/schoolportal/core/portal"
)

func main() {
	c := di.New(core.NewConfig)

	must(c.Invoke(func(
		conf *core.Config,
		logger core.Logger,
		remote *di.Remote,
		mgr *auth.Manager,
		store *portal.Store,
		server *echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))

		core.ParseEmailTemplates(logger)

		defer func() {
			if err := remote.Close(); err != nil {
				logger.Error(fmt.Sprintf("closing remote store: %v", err), err)
			}
		}()
		defer logger.Info("Application stopped")

		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)

		// =========================================================================
		// Load Session & Domain State

		ctx := context.Background()
		mgr.LoadTeachers(ctx)
		store.Load(ctx)

		// =========================================================================
		// Start API Service

		go func() {
			server.Start()
		}()

		// =========================================================================
		// Shutdown

		select {
		case err := <-server.Errors():
			logger.Fatal(fmt.Sprintf("server error: %v", err), err)

		case sig := <-server.ShutdownSignal():
			logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			// asking listener to shut down and shed load
			if err := server.Shutdown(ctx); err != nil {
				logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
