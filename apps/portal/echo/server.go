package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/auth"
	"github.com/trezcool/schoolportal/core/portal"
)

type (
	Options struct {
		Address        string
		AppName        string
		Debug          bool
		TestMode       bool
		DisableReqLogs bool
		Logger         core.Logger
		Validate       *validator.Validate
		Translator     ut.Translator
		Auth           *auth.Manager
		Store          *portal.Store
	}

	Server struct {
		opts     *Options
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ http.Handler = (*Server)(nil) // interface compliance check

func NewServer(opts *Options) *Server {
	s := &Server{
		opts:     opts,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.opts.Debug || s.opts.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, s.signalShutdown)
	s.app.Debug = s.opts.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	session := requireSession(s.opts.Auth)
	admin := requireAdmin(s.opts.Auth)

	s.registerSessionAPI(v1, session)
	s.registerTeacherAPI(v1, session, admin)
	s.registerResourceAPI(v1, session, admin)
	s.registerUploadAPI(v1, session, admin)
	s.registerAnnouncementAPI(v1, session, admin)
	s.registerSuggestionAPI(v1, admin)
	s.registerAdmissionAPI(v1, admin)
	s.registerAttendanceAPI(v1, session)
	v1.GET("/counts", s.counts, session)
}

// Start listens on the configured address; failures are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// signalShutdown never blocks; one pending signal is enough.
func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.opts.AppName+"!")
}

// counts serves the full badge set to admins and only the resource badges to teachers.
func (s *Server) counts(ctx echo.Context) error {
	c := s.opts.Store.UnreadCounts()
	if contextAccount(ctx).IsAdmin() {
		return ctx.JSON(http.StatusOK, c)
	}
	return ctx.JSON(http.StatusOK, c.ForTeacher())
}
