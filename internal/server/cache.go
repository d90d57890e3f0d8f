package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/wildscan/models"
)

// CacheHandler exposes result cache maintenance.
type CacheHandler struct {
	Scans Scans
}

func (h *CacheHandler) Register(g *echo.Group) {
	g.GET("/stats", h.stats)
	g.DELETE("", h.cleanup)
	g.DELETE("/:origin/:destination/:date", h.clearRoute)
}

func (h *CacheHandler) stats(c echo.Context) error {
	st, err := h.Scans.CacheStats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
	return c.JSON(http.StatusOK, CacheStatsResponse{Backend: st.Backend, Entries: st.Count})
}

// cleanup removes expired entries only; live results stay served.
func (h *CacheHandler) cleanup(c echo.Context) error {
	n, err := h.Scans.ClearAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
	return c.JSON(http.StatusOK, CleanupResponse{Success: true, CleanedEntries: n})
}

func (h *CacheHandler) clearRoute(c echo.Context) error {
	r, err := models.NewRoute(c.Param("origin"), c.Param("destination"), c.Param("date"))
	if err != nil {
		return badRequest("Invalid request: %v", err)
	}
	if err := h.Scans.ClearRoute(c.Request().Context(), r); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Cleared " + r.String()})
}
