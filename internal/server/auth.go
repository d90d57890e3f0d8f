package server

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/wildscan/internal/session"
)

// AuthHandler drives the interactive login and reports on the stored session.
type AuthHandler struct {
	Sessions Sessions
	Login    LoginFlow
	Logger   *log.Logger
}

func (h *AuthHandler) Register(g *echo.Group) {
	g.GET("/auth-status", h.status)
	g.POST("/login", h.start)
	g.GET("/login", h.poll)
	g.DELETE("/login", h.cancel)
	g.POST("/validate-session", h.validate)
}

// status
//
//	@Summary	Stored session summary
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	session.Status
//	@Router		/api/auth-status [get]
func (h *AuthHandler) status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Sessions.Status())
}

// start
//
//	@Summary	Open a visible browser on the login page
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	login.StartResult
//	@Failure	500	{object}	HTTPError
//	@Router		/api/login [post]
func (h *AuthHandler) start(c echo.Context) error {
	res, err := h.Login.Start(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) poll(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Login.Poll(c.Request().Context()))
}

// cancel aborts the login flow, or with ?action=logout removes the stored session.
func (h *AuthHandler) cancel(c echo.Context) error {
	if c.QueryParam("action") == "logout" {
		if err := h.Sessions.Delete(); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
		}
		h.Logger.Printf("session deleted on request")
		return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Logged out"})
	}
	h.Login.Cancel()
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Login cancelled"})
}

// validate
//
//	@Summary	Check the stored session against the live site
//	@Tags		auth
//	@Produce	json
//	@Success	200	{object}	session.Validation
//	@Failure	401	{object}	session.Validation
//	@Router		/api/validate-session [post]
func (h *AuthHandler) validate(c echo.Context) error {
	if !h.Sessions.HasValidCredential() {
		return c.JSON(http.StatusUnauthorized, session.Validation{Valid: false, Reason: "Not logged in. Please log in first."})
	}
	res := h.Sessions.Validate(c.Request().Context())
	if !res.Valid {
		return c.JSON(http.StatusUnauthorized, res)
	}
	return c.JSON(http.StatusOK, res)
}
