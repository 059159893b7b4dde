package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/schoolportal/core/auth"
)

type (
	newTeacherRequest struct {
		Name     string `json:"name" validate:"required,notblank"`
		Password string `json:"password" validate:"required"`
	}

	passwordRequest struct {
		Password string `json:"password" validate:"required"`
	}
)

func (s *Server) registerTeacherAPI(g *echo.Group, session, admin echo.MiddlewareFunc) {
	teachers := g.Group("/teachers")
	teachers.GET("", s.listTeachers, admin)
	teachers.POST("", s.addTeacher, admin)
	teachers.DELETE("/:id", s.deleteTeacher, admin)
	teachers.PUT("/:id/password", s.setTeacherPassword, session)
}

func (s *Server) listTeachers(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.opts.Auth.Teachers())
}

func (s *Server) addTeacher(ctx echo.Context) error {
	var data newTeacherRequest
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	teacher, err := s.opts.Auth.AddTeacher(ctx.Request().Context(), data.Name, data.Password)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, teacher)
}

func (s *Server) deleteTeacher(ctx echo.Context) error {
	if err := s.opts.Auth.DeleteTeacher(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// setTeacherPassword is open to admins and to the teacher owning the account.
func (s *Server) setTeacherPassword(ctx echo.Context) error {
	id := ctx.Param("id")
	acc := contextAccount(ctx)
	if !acc.IsAdmin() && !(acc.Kind == auth.KindTeacher && acc.Identity().ID == id) {
		return errHttpForbidden
	}

	var data passwordRequest
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	if err := s.opts.Auth.UpdateTeacherPassword(ctx.Request().Context(), id, data.Password); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
