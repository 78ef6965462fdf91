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

	"github.com/syllabix/syllabix/core"
	"github.com/syllabix/syllabix/core/cluster"
	"github.com/syllabix/syllabix/core/course"
	"github.com/syllabix/syllabix/core/department"
	"github.com/syllabix/syllabix/core/honour"
	"github.com/syllabix/syllabix/core/regulation"
	"github.com/syllabix/syllabix/core/roster"
	"github.com/syllabix/syllabix/core/user"
	"github.com/syllabix/syllabix/services/metrics"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Metrics    *metrics.Metrics // optional
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc       *user.Service
		DepartmentSvc *department.Service
		RegulationSvc *regulation.Service
		ClusterSvc    *cluster.Service
		CourseSvc     *course.Service
		HonourSvc     *honour.Service
		RosterSvc     *roster.Service

		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.HidePort = true
	s.app.Debug = conf.Debug
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout
	if conf.Debug {
		s.app.Logger.SetLevel(log.DEBUG)
	} else {
		s.app.Logger.SetLevel(log.WARN)
	}

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestID())
	if s.deps.Metrics != nil {
		s.app.Use(metricsMiddleware(s.deps.Metrics))
	}
	if !s.deps.DisableReqLogs {
		s.app.Use(requestLogger(s.deps.Logger))
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{conf.FrontendBaseURL},
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := jwtMiddleware(conf)

	registerUserAPI(v1, jwt, s.deps.Conf, s.deps.UserSvc, s.deps.Validate)
	registerDepartmentAPI(v1, jwt, s.deps.DepartmentSvc, s.deps.Validate)
	registerRegulationAPI(v1, jwt, s.deps)
	registerClusterAPI(v1, jwt, s.deps.ClusterSvc, s.deps.RegulationSvc, s.deps.Validate)
	registerCourseAPI(v1, jwt, s.deps.CourseSvc, s.deps.RegulationSvc, s.deps.Validate)
	registerHonourAPI(v1, jwt, s.deps.HonourSvc, s.deps.RegulationSvc, s.deps.Validate)
	registerRosterAPI(v1, jwt, s.deps.RosterSvc, s.deps.Validate)
}

// Start listens on the configured address; a failure is reported on Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	signal.Stop(s.shutdown)
	return s.app.Close()
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}

// InitValidators registers the custom tags and translations of every domain package.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	regulation.InitValidators(validate, translator)
	cluster.InitValidators(validate, translator)
	course.InitValidators(validate, translator)
	roster.InitValidators(validate, translator)
}
