package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/contentagent/internal/queue/streams"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// LagReader reads the consumer group backlog of the request stream.
type LagReader func(ctx context.Context) (streams.LagMetrics, error)

// OpsOptions wires the ops endpoints.
type OpsOptions struct {
	Checks   map[string]HealthCheck
	Lag      LagReader
	Gatherer prometheus.Gatherer
	Logger   *log.Logger
}

// NewOpsServer builds the operational HTTP surface: health, metrics and queue lag.
func NewOpsServer(opts OpsOptions) *echo.Echo {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]any{"error": msg})
		}
	}

	h := &opsHandler{checks: opts.Checks, lag: opts.Lag}
	e.GET("/healthz", h.healthz)
	e.GET("/queue/lag", h.queueLag)
	if opts.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	} else {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
	return e
}

type opsHandler struct {
	checks map[string]HealthCheck
	lag    LagReader
}

func (h *opsHandler) healthz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()
	status := http.StatusOK
	report := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			report[name] = err.Error()
			continue
		}
		report[name] = "ok"
	}
	return c.JSON(status, report)
}

func (h *opsHandler) queueLag(c echo.Context) error {
	if h.lag == nil {
		return echo.NewHTTPError(http.StatusNotFound, "queue not configured")
	}
	m, err := h.lag(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, m)
}
