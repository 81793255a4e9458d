package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/announcement"
	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/core/video"
)

type (
	ServerDeps struct {
		Conf            *core.Config
		Logger          core.Logger
		UserSvc         user.Service
		VideoSvc        video.Service
		ClassroomSvc    classroom.Service
		AnnouncementSvc announcement.Service
		ProgressSvc     progress.Service
		DisableReqLogs  bool
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		// Errors surfaces listener failures to the main goroutine.
		Errors() <-chan error
		// ShutdownSignal delivers OS signals and internal shutdown requests.
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(newJWTConfig(conf))

	registerUserAPI(v1, jwt, conf, s.deps.UserSvc)
	registerVideoAPI(v1, jwt, s.deps.UserSvc, s.deps.VideoSvc, s.deps.ProgressSvc)
	registerClassroomAPI(v1, jwt, s.deps.UserSvc, s.deps.ClassroomSvc)
	registerAnnouncementAPI(v1, jwt, s.deps.UserSvc, s.deps.AnnouncementSvc)
	registerProgressAPI(v1, jwt, s.deps.UserSvc, s.deps.VideoSvc, s.deps.ProgressSvc)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errs
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// signalShutdown requests a graceful shutdown from the error handler.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}
