package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/wildscan/config"
	"github.com/mohammad-safakhou/wildscan/internal/airports"
	"github.com/mohammad-safakhou/wildscan/internal/orchestrator"
	"github.com/mohammad-safakhou/wildscan/internal/session"
	"github.com/mohammad-safakhou/wildscan/internal/telemetry"
	"github.com/mohammad-safakhou/wildscan/models"
)

// ScanHandler serves the batch scan endpoints. Every request passes the same gate in
// order: session present, request well formed, batch interval elapsed.
type ScanHandler struct {
	Sessions Sessions
	Scans    Scans
	Limiter  *orchestrator.BatchLimiter
	Limits   config.ScanConfig
	Metrics  *telemetry.Metrics
	Logger   *log.Logger
}

func (h *ScanHandler) Register(g *echo.Group) {
	g.POST("/outbound", h.outbound)
	g.GET("/outbound", h.single)
	g.POST("/anywhere", h.anywhere)
}

func (h *ScanHandler) limits() config.ScanConfig {
	l := h.Limits
	if l.MaxOrigins <= 0 {
		l.MaxOrigins = 10
	}
	if l.MaxDestinations <= 0 {
		l.MaxDestinations = 50
	}
	if l.DefaultDestinations <= 0 {
		l.DefaultDestinations = min(20, l.MaxDestinations)
	}
	return l
}

func (h *ScanHandler) authenticated() error {
	if !h.Sessions.HasValidCredential() {
		return session.ErrNotAuthenticated
	}
	return nil
}

// admit records the batch start; a rejected batch does not move the window.
func (h *ScanHandler) admit() error {
	if err := h.Limiter.Allow(); err != nil {
		h.Metrics.RateLimited()
		return err
	}
	return nil
}

func badRequest(format string, args ...any) error {
	return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(format, args...))
}

// scanContext detaches the batch from the client connection; scans run to completion.
func scanContext(c echo.Context) context.Context {
	return context.WithoutCancel(c.Request().Context())
}

func (h *ScanHandler) buildOutbound(req OutboundRequest) ([]models.Route, error) {
	lim := h.limits()
	if len(req.Origins) == 0 || len(req.Origins) > lim.MaxOrigins {
		return nil, badRequest("Invalid request: origins must contain 1 to %d codes", lim.MaxOrigins)
	}
	if len(req.Destinations) == 0 {
		return nil, badRequest("Please specify at least one destination")
	}
	if len(req.Destinations) > lim.MaxDestinations {
		return nil, badRequest("Invalid request: at most %d destinations", lim.MaxDestinations)
	}
	var routes []models.Route
	for _, o := range req.Origins {
		for _, d := range req.Destinations {
			if strings.EqualFold(strings.TrimSpace(o), strings.TrimSpace(d)) {
				continue
			}
			r, err := models.NewRoute(o, d, req.Date)
			if err != nil {
				return nil, badRequest("Invalid request: %v", err)
			}
			routes = append(routes, r)
		}
	}
	if len(routes) == 0 {
		return nil, badRequest("Invalid request: every origin equals every destination")
	}
	return routes, nil
}

// outbound
//
//	@Summary	Scan origins x destinations on one date
//	@Tags		scan
//	@Accept		json
//	@Produce	json
//	@Param		payload	body		OutboundRequest	true	"Routes"
//	@Success	200		{object}	OutboundResponse
//	@Failure	400		{object}	HTTPError
//	@Failure	401		{object}	HTTPError
//	@Failure	429		{object}	RateLimitedResponse
//	@Router		/api/scan/outbound [post]
func (h *ScanHandler) outbound(c echo.Context) error {
	if err := h.authenticated(); err != nil {
		return err
	}
	var req OutboundRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request: %v", err)
	}
	routes, err := h.buildOutbound(req)
	if err != nil {
		return err
	}
	if err := h.admit(); err != nil {
		return err
	}

	h.Logger.Printf("outbound scan: %d routes on %s", len(routes), req.Date)
	results, err := h.Scans.ScanMultipleRoutes(scanContext(c), routes)
	if err != nil {
		return scanError(err)
	}
	return c.JSON(http.StatusOK, summarizeOutbound(routes[0].Date, results, req.NonstopOnly))
}

func (h *ScanHandler) single(c echo.Context) error {
	origin, dest, date := c.QueryParam("origin"), c.QueryParam("destination"), c.QueryParam("date")
	if origin == "" || dest == "" || date == "" {
		return badRequest("Missing required parameters: origin, destination, date")
	}
	if err := h.authenticated(); err != nil {
		return err
	}
	r, err := models.NewRoute(origin, dest, date)
	if err != nil {
		return badRequest("Invalid request: %v", err)
	}
	if err := h.admit(); err != nil {
		return err
	}
	res, err := h.Scans.ScanRoute(scanContext(c), r)
	if err != nil {
		return scanError(err)
	}
	return c.JSON(http.StatusOK, SingleRouteResponse{Success: true, ScanResult: res})
}

// anywhere
//
//	@Summary	Scan one origin to the first N known airports
//	@Tags		scan
//	@Accept		json
//	@Produce	json
//	@Param		payload	body		AnywhereRequest	true	"Origin and date"
//	@Success	200		{object}	AnywhereResponse
//	@Failure	400		{object}	HTTPError
//	@Failure	401		{object}	HTTPError
//	@Failure	429		{object}	RateLimitedResponse
//	@Router		/api/scan/anywhere [post]
func (h *ScanHandler) anywhere(c echo.Context) error {
	if err := h.authenticated(); err != nil {
		return err
	}
	var req AnywhereRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request: %v", err)
	}
	lim := h.limits()
	n := lim.DefaultDestinations
	if req.MaxDestinations != nil {
		n = *req.MaxDestinations
	}
	if n < 1 || n > lim.MaxDestinations {
		return badRequest("Invalid request: maxDestinations must be in 1..%d", lim.MaxDestinations)
	}
	var routes []models.Route
	for _, d := range airports.Destinations(req.Origin, n) {
		r, err := models.NewRoute(req.Origin, d, req.Date)
		if err != nil {
			return badRequest("Invalid request: %v", err)
		}
		routes = append(routes, r)
	}
	if len(routes) == 0 {
		return badRequest("Invalid request: no destinations for %q", req.Origin)
	}
	if err := h.admit(); err != nil {
		return err
	}

	origin := routes[0].Origin
	h.Logger.Printf("anywhere scan: %d destinations from %s", len(routes), origin)
	results, err := h.Scans.ScanMultipleRoutes(scanContext(c), routes)
	if err != nil {
		return scanError(err)
	}
	return c.JSON(http.StatusOK, summarizeAnywhere(origin, routes[0].Date, results))
}

// scanError keeps the not-authenticated sentinel for the error handler and turns anything
// else into a 500.
func scanError(err error) error {
	if errors.Is(err, session.ErrNotAuthenticated) {
		return err
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
}
