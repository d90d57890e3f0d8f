package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/wildscan/internal/airports"
)

type AirportsHandler struct{}

func (h *AirportsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
}

func (h *AirportsHandler) list(c echo.Context) error {
	if q := c.QueryParam("q"); q != "" {
		return c.JSON(http.StatusOK, AirportsResponse{Airports: airports.Search(q)})
	}
	return c.JSON(http.StatusOK, AirportsResponse{Airports: airports.All()})
}
