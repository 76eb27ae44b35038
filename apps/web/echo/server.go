package echoweb

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/marksboard/core"
	inmemdb "github.com/trezcool/marksboard/storage/inmem"
)

type ServerDeps struct {
	Conf     *core.Config
	Logger   core.Logger
	Sessions *inmemdb.SessionStore

	DisableReqLogs bool
}

// Server is the web front end of the marks portal.
type Server struct {
	deps     ServerDeps
	app      *echo.Echo
	errors   chan error
	shutdown chan os.Signal
}

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
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Renderer = newRenderer(conf.AppName)
	s.app.Debug = conf.Debug

	s.app.GET("/healthz", healthz)

	h := handlers{conf: conf, logger: s.deps.Logger}
	g := s.app.Group("", sessionMiddleware(conf, s.deps.Sessions))
	g.GET("/", h.home)
	g.GET("/signup", h.signupPage)
	g.POST("/signup", h.signup)
	g.GET("/login", h.loginPage)
	g.POST("/login", h.login)
	g.POST("/logout", h.logout)

	dg := g.Group("/dashboard", studentMiddleware())
	dg.GET("", h.dashboard)
	dg.POST("/marks", h.submitMarks)

	tg := dg.Group("/table")
	tg.GET("", h.table)
	tg.POST("/add", h.addMarks)
	tg.POST("/add/cancel", h.closeAddForm)
	tg.POST("/edit/:studentId", h.editRow)
	tg.POST("/save", h.saveRow)
	tg.POST("/cancel", h.cancelEdit)
	tg.GET("/export.xlsx", h.exportRanking)
}

// Start listens on the configured address. Failures are reported on Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- errors.Wrap(err, "starting server")
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

// Shutdown stops the server gracefully and ends every session.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.deps.Sessions.Close()
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	defer s.deps.Sessions.Close()
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func healthz(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
