package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/schoolportal/core/portal"
)

type (
	newAnnouncementRequest struct {
		Title   string `json:"title" validate:"required,notblank"`
		Content string `json:"content" validate:"required,notblank"`
		Target  string `json:"target" validate:"required,oneof=internal public both"`
	}

	publicAnnouncementQuery struct {
		Unread bool `query:"unread" json:"unread"`
	}
)

func (s *Server) registerAnnouncementAPI(g *echo.Group, session, admin echo.MiddlewareFunc) {
	announcements := g.Group("/announcements")
	announcements.GET("", s.listAnnouncements, session)
	announcements.POST("", s.addAnnouncement, admin)
	announcements.GET("/public", s.publicAnnouncements)
	announcements.DELETE("/:id", s.deleteAnnouncement, admin)
	announcements.PUT("/:id/read", s.markAnnouncementRead, session)
}

func (s *Server) listAnnouncements(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.opts.Store.Announcements())
}

func (s *Server) publicAnnouncements(ctx echo.Context) error {
	var q publicAnnouncementQuery
	if err := s.bind(ctx, &q); err != nil {
		return err
	}
	if q.Unread {
		return ctx.JSON(http.StatusOK, s.opts.Store.UnreadPublicAnnouncements())
	}
	return ctx.JSON(http.StatusOK, s.opts.Store.PublicAnnouncements())
}

func (s *Server) addAnnouncement(ctx echo.Context) error {
	var data newAnnouncementRequest
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	ann, err := s.opts.Store.AddAnnouncement(ctx.Request().Context(), portal.NewAnnouncement{
		Title:   data.Title,
		Content: data.Content,
		Author:  contextAccount(ctx).Identity().Name,
		Target:  portal.Target(data.Target),
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ann)
}

func (s *Server) deleteAnnouncement(ctx echo.Context) error {
	if err := s.opts.Store.DeleteAnnouncement(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *Server) markAnnouncementRead(ctx echo.Context) error {
	if err := s.opts.Store.MarkAnnouncementRead(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
