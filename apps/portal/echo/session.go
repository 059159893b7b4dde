package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type loginRequest struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

func (s *Server) registerSessionAPI(g *echo.Group, session echo.MiddlewareFunc) {
	g.POST("/session/login", s.login)
	g.POST("/session/logout", s.logout)
	g.GET("/session", s.currentSession, session)
}

func (s *Server) login(ctx echo.Context) error {
	var data loginRequest
	if err := s.bind(ctx, &data); err != nil {
		return err
	}

	res := s.opts.Auth.Login(ctx.Request().Context(), data.Username, data.Password)
	if !res.Success {
		return ctx.JSON(http.StatusUnauthorized, res)
	}
	return ctx.JSON(http.StatusOK, res)
}

func (s *Server) logout(ctx echo.Context) error {
	s.opts.Auth.Logout()
	return ctx.NoContent(http.StatusNoContent)
}

func (s *Server) currentSession(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, contextAccount(ctx))
}
