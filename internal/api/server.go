// Package api exposes the video pipeline over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/ivlev/beatvideo/internal/compiler"
	"github.com/ivlev/beatvideo/internal/engine"
	"github.com/ivlev/beatvideo/internal/store"
)

// Pipeline is the part of engine.Pipeline the API needs.
type Pipeline interface {
	Run(ctx context.Context, req engine.JobRequest) (*engine.Result, error)
	Compile(req engine.JobRequest) ([]compiler.CompiledScene, error)
}

// Records reads finished jobs.
type Records interface {
	Get(ctx context.Context, id string) (store.JobRecord, error)
	List(ctx context.Context, limit int) ([]store.JobRecord, error)
}

type (
	Options struct {
		Address        string
		BodyLimit      string
		JobTimeout     time.Duration
		DisableReqLogs bool

		Pipeline Pipeline
		Records  Records
		Logger   *zap.Logger
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Records == nil {
		opts.Records = store.NewMemory()
	}
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.HidePort = true

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(requestLogger(s.opts.Logger))
	}
	s.app.Use(middleware.Recover())
	if s.opts.BodyLimit != "" {
		s.app.Use(middleware.BodyLimit(s.opts.BodyLimit))
	}

	s.app.Validator = newValidator()
	s.app.HTTPErrorHandler = newHTTPErrorHandler(s.opts.Logger)

	s.app.GET("/healthz", health)

	v1 := s.app.Group("/v1")
	registerVideoAPI(v1, s.opts)
}

func (s *server) Start() error {
	s.opts.Logger.Info("api listening", zap.String("addr", s.opts.Address))
	err := s.app.Start(s.opts.Address)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}

func health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
