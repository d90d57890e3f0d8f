// Package server exposes the scanner over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/mohammad-safakhou/wildscan/config"
	"github.com/mohammad-safakhou/wildscan/internal/cache"
	"github.com/mohammad-safakhou/wildscan/internal/login"
	"github.com/mohammad-safakhou/wildscan/internal/orchestrator"
	"github.com/mohammad-safakhou/wildscan/internal/session"
	"github.com/mohammad-safakhou/wildscan/internal/telemetry"
	"github.com/mohammad-safakhou/wildscan/models"
)

// Sessions is the part of session.Store the API needs.
type Sessions interface {
	HasValidCredential() bool
	Status() session.Status
	Delete() error
	Validate(ctx context.Context) session.Validation
}

// LoginFlow is the part of login.Flow the API needs.
type LoginFlow interface {
	Start(ctx context.Context) (login.StartResult, error)
	Poll(ctx context.Context) login.PollResult
	Cancel()
	Snapshot() login.Snapshot
}

// Scans is the part of orchestrator.Orchestrator the API needs.
type Scans interface {
	ScanRoute(ctx context.Context, r models.Route) (models.ScanResult, error)
	ScanMultipleRoutes(ctx context.Context, routes []models.Route) ([]models.ScanResult, error)
	ClearRoute(ctx context.Context, r models.Route) error
	ClearAll(ctx context.Context) (int64, error)
	CacheStats(ctx context.Context) (cache.Stats, error)
}

// Deps wires the handlers. Limiter is shared by every scan endpoint.
type Deps struct {
	Sessions Sessions
	Login    LoginFlow
	Scans    Scans
	Limiter  *orchestrator.BatchLimiter
	Limits   config.ScanConfig
	Metrics  *telemetry.Metrics
	Logger   *log.Logger
}

// New builds the echo instance with every route registered.
func New(d Deps) *echo.Echo {
	logger := d.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}
	if d.Limiter == nil {
		d.Limiter = orchestrator.NewBatchLimiter(d.Limits.MinInterval)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.HTTPErrorHandler = errorHandler(logger)

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	api := e.Group("/api")
	(&AirportsHandler{}).Register(api.Group("/airports"))
	(&AuthHandler{Sessions: d.Sessions, Login: d.Login, Logger: logger}).Register(api)
	sh := &ScanHandler{
		Sessions: d.Sessions,
		Scans:    d.Scans,
		Limiter:  d.Limiter,
		Limits:   d.Limits,
		Metrics:  d.Metrics,
		Logger:   logger,
	}
	sh.Register(api.Group("/scan"))
	(&CacheHandler{Scans: d.Scans}).Register(api.Group("/cache"))
	return e
}

// errorHandler renders every error as {"error": msg}. Rate limits also carry
// retryAfterSeconds and a Retry-After header.
func errorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		req := c.Request()

		var rl *orchestrator.RateLimitedError
		if errors.As(err, &rl) {
			c.Response().Header().Set("Retry-After", fmt.Sprint(rl.Seconds()))
			_ = c.JSON(http.StatusTooManyRequests, RateLimitedResponse{Error: rl.Error(), RetryAfterSeconds: rl.Seconds()})
			return
		}

		code := http.StatusInternalServerError
		msg := err.Error()
		var he *echo.HTTPError
		switch {
		case errors.Is(err, session.ErrNotAuthenticated):
			code = http.StatusUnauthorized
			msg = "Not logged in. Please log in first."
		case errors.As(err, &he):
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		if code >= http.StatusInternalServerError {
			logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		}
		_ = c.JSON(code, HTTPError{Error: msg})
	}
}

// Run serves e on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", addr)
		errCh <- e.Start(addr)
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
