package daemon

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"podcaster/internal/api"
	"podcaster/internal/logging"
)

// Service is the set of front-end operations the HTTP routes expose.
type Service interface {
	CreateAndGather(ctx context.Context, topic string) (api.FetchResult, error)
	Summarize(ctx context.Context, id int64) (api.ScriptResult, error)
	Synthesize(ctx context.Context, id int64) (api.AudioResult, error)
	Generate(ctx context.Context, topic string) (api.AudioResult, error)
	ListQueries(ctx context.Context) ([]api.QueryView, error)
	ListArticles(ctx context.Context) ([]api.ArticleView, error)
	Reset(ctx context.Context) error
	Status(ctx context.Context) (api.Status, error)
}

type apiServer struct {
	svc    Service
	logger *slog.Logger
}

// NewHandler builds the echo router serving svc. A non-empty token enables
// bearer authentication on every route except /status and /metrics.
func NewHandler(svc Service, token string, logger *slog.Logger) *echo.Echo {
	srv := &apiServer{svc: svc, logger: logging.NewComponentLogger(logger, "http")}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(srv.logger)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			srv.logger.Debug("request",
				logging.String("method", v.Method),
				logging.String("uri", v.URI),
				logging.Int("status", v.Status),
				logging.Duration("latency", v.Latency),
				logging.String(logging.FieldCorrelationID, v.RequestID),
			)
			return nil
		},
	}))

	e.GET("/status", srv.handleStatus)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	g := e.Group("", authMiddleware(token))
	g.POST("/fetch/:query", srv.handleFetch)
	g.POST("/summarize/:queryid", srv.handleSummarize)
	g.POST("/podcast/:queryid", srv.handlePodcast)
	g.POST("/generate/:query", srv.handleGenerate)
	g.GET("/queries", srv.handleQueries)
	g.GET("/articles", srv.handleArticles)
	g.DELETE("/reset", srv.handleReset)

	return e
}

func (s *apiServer) handleFetch(c echo.Context) error {
	result, err := s.svc.CreateAndGather(c.Request().Context(), pathParam(c, "query"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *apiServer) handleSummarize(c echo.Context) error {
	id, err := api.ParseQueryID(c.Param("queryid"))
	if err != nil {
		return err
	}
	result, err := s.svc.Summarize(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *apiServer) handlePodcast(c echo.Context) error {
	id, err := api.ParseQueryID(c.Param("queryid"))
	if err != nil {
		return err
	}
	result, err := s.svc.Synthesize(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *apiServer) handleGenerate(c echo.Context) error {
	result, err := s.svc.Generate(c.Request().Context(), pathParam(c, "query"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *apiServer) handleQueries(c echo.Context) error {
	queries, err := s.svc.ListQueries(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, queries)
}

func (s *apiServer) handleArticles(c echo.Context) error {
	articles, err := s.svc.ListArticles(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, articles)
}

func (s *apiServer) handleReset(c echo.Context) error {
	if err := s.svc.Reset(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, "success")
}

func (s *apiServer) handleStatus(c echo.Context) error {
	status, err := s.svc.Status(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, status)
}

// pathParam returns the decoded value of a path parameter. Echo matches on the
// raw path when the request carries escaped slashes, so values may still be
// percent-encoded.
func pathParam(c echo.Context, name string) string {
	raw := c.Param(name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func newHTTPServer(handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Generation waits on three providers, each retried.
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}
