package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/schoolportal/core/portal"
)

type (
	newSuggestionRequest struct {
		Name    string `json:"name" validate:"required,notblank"`
		Email   string `json:"email" validate:"omitempty,email"`
		Message string `json:"message" validate:"required,notblank"`
		Source  string `json:"source"`
	}

	replyRequest struct {
		Reply string `json:"reply" validate:"required,notblank"`
	}
)

func (s *Server) registerSuggestionAPI(g *echo.Group, admin echo.MiddlewareFunc) {
	suggestions := g.Group("/suggestions")
	suggestions.GET("", s.listSuggestions, admin)
	suggestions.POST("", s.addSuggestion)
	suggestions.DELETE("", s.clearSuggestions, admin)
	suggestions.PUT("/:id/read", s.markSuggestionRead, admin)
	suggestions.PUT("/:id/reply", s.replyToSuggestion, admin)
}

func (s *Server) listSuggestions(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.opts.Store.Suggestions())
}

func (s *Server) addSuggestion(ctx echo.Context) error {
	var data newSuggestionRequest
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	sug, err := s.opts.Store.AddSuggestion(ctx.Request().Context(), portal.NewSuggestion{
		Name:    data.Name,
		Email:   data.Email,
		Message: data.Message,
		Source:  data.Source,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sug)
}

// clearSuggestions deletes every suggestion, or only those sent under ?name=.
func (s *Server) clearSuggestions(ctx echo.Context) error {
	var err error
	if name := ctx.QueryParam("name"); name != "" {
		err = s.opts.Store.ClearTeacherSuggestions(ctx.Request().Context(), name)
	} else {
		err = s.opts.Store.ClearAllSuggestions(ctx.Request().Context())
	}
	if err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *Server) markSuggestionRead(ctx echo.Context) error {
	if err := s.opts.Store.MarkSuggestionRead(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (s *Server) replyToSuggestion(ctx echo.Context) error {
	var data replyRequest
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	repliedBy := contextAccount(ctx).Identity().Name
	if err := s.opts.Store.AddSuggestionReply(ctx.Request().Context(), ctx.Param("id"), data.Reply, repliedBy); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
