// Package di wires the portal's dependencies with a dig container.
package di

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/schoolportal/apps/portal/echo"
	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/auth"
	"github.com/trezcool/schoolportal/core/portal"
	emailsvc "github.com/trezcool/schoolportal/services/email"
	logsvc "github.com/trezcool/schoolportal/services/logger"
	"github.com/trezcool/schoolportal/storage/blob/b2blob"
	"github.com/trezcool/schoolportal/storage/blob/memblob"
	"github.com/trezcool/schoolportal/storage/blob/ossblob"
	"github.com/trezcool/schoolportal/storage/database"
	"github.com/trezcool/schoolportal/storage/database/boltstore"
	"github.com/trezcool/schoolportal/storage/database/memdb"
	"github.com/trezcool/schoolportal/storage/database/pgstore"
)

type (
	// Remote is the configured remote store, plus the SQL handle when backed by postgres.
	Remote struct {
		Store core.RemoteStore
		SQL   *sqlx.DB // nil unless postgres
		close func() error
	}

	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}
)

// Close releases the underlying connection or file.
func (r *Remote) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "PORTAL : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newRemote(conf *core.Config, loggerParam DBLoggerParam) (*Remote, error) {
	logger := loggerParam.Logger

	switch conf.Remote.Backend {
	case core.BackendMemory:
		logger.Warn("using the in-memory remote store: data is lost on exit")
		return &Remote{Store: memdb.Open()}, nil

	case core.BackendBolt:
		store, err := boltstore.Open(conf.Remote.BoltPath)
		if err != nil {
			return nil, err
		}
		logger.Info(fmt.Sprintf("using bolt remote store at %s", conf.Remote.BoltPath))
		return &Remote{Store: store, close: store.Close}, nil

	case core.BackendPostgres:
		db, err := database.Open(context.Background(), conf.Remote.Database)
		if err != nil {
			return nil, err
		}
		logger.Info(fmt.Sprintf("using postgres remote store at %s", conf.Remote.Database.Address()))
		return &Remote{Store: pgstore.New(db), SQL: db, close: db.Close}, nil
	}
	return nil, errors.Errorf("unknown remote backend %q", conf.Remote.Backend)
}

func remoteStore(r *Remote) core.RemoteStore {
	return r.Store
}

func newBlobStore(conf *core.Config) (core.BlobStore, error) {
	switch conf.Blob.Backend {
	case core.BackendMemory:
		return memblob.New(conf.Blob.PublicBase), nil
	case core.BackendB2:
		return b2blob.New(context.Background(), conf.Blob.B2.AccountID, conf.Blob.B2.AppKey, conf.Blob.PublicBase)
	case core.BackendOSS:
		return ossblob.New(conf.Blob.OSS.Endpoint, conf.Blob.OSS.AccessKey, conf.Blob.OSS.SecretKey, conf.Blob.PublicBase)
	}
	return nil, errors.Errorf("unknown blob backend %q", conf.Blob.Backend)
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || !conf.MailEnabled() {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate
}

func newAuthManager(conf *core.Config, remote core.RemoteStore, logger core.Logger) *auth.Manager {
	return auth.NewManager(remote, logger, auth.WithHashedPasswords(conf.Auth.HashPasswords))
}

func newStore(conf *core.Config, remote core.RemoteStore, blobs core.BlobStore, mailer core.EmailService, logger core.Logger) *portal.Store {
	return portal.NewStore(remote, blobs, logger, portal.WithMailer(mailer, conf.AppName))
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	validate *validator.Validate,
	translator ut.Translator,
	mgr *auth.Manager,
	store *portal.Store,
) *echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Address:    conf.Server.Host,
		AppName:    conf.AppName,
		Debug:      conf.Debug,
		TestMode:   conf.TestMode,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Auth:       mgr,
		Store:      store,
	})
}

// New returns a new dependency injection dig.Container.
// newConfig is usually core.NewConfig.
func New(newConfig func() *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRemote))
	must(c.Provide(remoteStore))
	must(c.Provide(newBlobStore))
	must(c.Provide(newEmailService))
	must(c.Provide(newTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newAuthManager))
	must(c.Provide(newStore))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
