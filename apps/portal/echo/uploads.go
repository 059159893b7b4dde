package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/schoolportal/core/auth"
	"github.com/trezcool/schoolportal/core/portal"
)

type (
	newUploadRequest struct {
		Type string `form:"type" json:"type" validate:"required,notblank"`
	}

	markUploadRequest struct {
		Comments string `json:"comments"`
		Grade    string `json:"grade"`
	}
)

func (s *Server) registerUploadAPI(g *echo.Group, session, admin echo.MiddlewareFunc) {
	uploads := g.Group("/uploads")
	uploads.GET("", s.listUploads, session)
	uploads.POST("", s.addUpload, session)
	uploads.DELETE("", s.clearUploads, admin)
	uploads.PUT("/:id/mark", s.markUpload, admin)
}

// listUploads returns every submission to admins, and their own to teachers.
func (s *Server) listUploads(ctx echo.Context) error {
	acc := contextAccount(ctx)
	uploads := s.opts.Store.Uploads()
	if acc.IsAdmin() {
		return ctx.JSON(http.StatusOK, uploads)
	}

	own := make([]portal.Upload, 0, len(uploads))
	for _, u := range uploads {
		if u.TeacherID == acc.Identity().ID {
			own = append(own, u)
		}
	}
	return ctx.JSON(http.StatusOK, own)
}

func (s *Server) addUpload(ctx echo.Context) error {
	acc := contextAccount(ctx)
	if acc.Kind != auth.KindTeacher {
		return errHttpForbidden
	}

	var data newUploadRequest
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	file, err := readFormFile(ctx)
	if err != nil {
		return err
	}

	teacher := acc.Identity()
	upl, err := s.opts.Store.AddUpload(ctx.Request().Context(), portal.NewUpload{
		TeacherID:   teacher.ID,
		TeacherName: teacher.Name,
		Type:        data.Type,
		FileName:    file.Name,
	}, file.File)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, upl)
}

func (s *Server) markUpload(ctx echo.Context) error {
	var data markUploadRequest
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	if err := s.opts.Store.MarkUpload(ctx.Request().Context(), ctx.Param("id"), data.Comments, data.Grade); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *Server) clearUploads(ctx echo.Context) error {
	if err := s.opts.Store.ClearAllUploads(ctx.Request().Context()); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
