package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/schoolportal/core/portal"
)

type (
	resourceQuery struct {
		Category string `query:"category" json:"category" validate:"omitempty,oneof=resource timetable"`
	}

	newResourceRequest struct {
		Title    string `form:"title" json:"title" validate:"required,notblank"`
		Category string `form:"category" json:"category" validate:"required,oneof=resource timetable"`
	}

	viewedResponse struct {
		Resources  []string `json:"resources"`
		Timetables []string `json:"timetables"`
	}
)

func (s *Server) registerResourceAPI(g *echo.Group, session, admin echo.MiddlewareFunc) {
	resources := g.Group("/resources")
	resources.GET("", s.listResources, session)
	resources.POST("", s.addResource, admin)
	resources.GET("/viewed", s.viewedResources, session)
	resources.DELETE("/:id", s.deleteResource, admin)
	resources.POST("/:id/viewed", s.markResourceViewed, session)
}

func (s *Server) listResources(ctx echo.Context) error {
	var q resourceQuery
	if err := s.bind(ctx, &q); err != nil {
		return err
	}
	if q.Category == "" {
		return ctx.JSON(http.StatusOK, s.opts.Store.Resources())
	}
	return ctx.JSON(http.StatusOK, s.opts.Store.ResourcesByCategory(portal.ResourceCategory(q.Category)))
}

func (s *Server) viewedResources(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, viewedResponse{
		Resources:  s.opts.Store.ViewedResources(),
		Timetables: s.opts.Store.ViewedTimetables(),
	})
}

func (s *Server) addResource(ctx echo.Context) error {
	var data newResourceRequest
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	file, err := readFormFile(ctx)
	if err != nil {
		return err
	}

	res, err := s.opts.Store.AddResource(ctx.Request().Context(), portal.NewResource{
		Title:      data.Title,
		FileName:   file.Name,
		Type:       resourceType(file.Mime),
		UploadedBy: contextAccount(ctx).Identity().Name,
		Category:   portal.ResourceCategory(data.Category),
	}, file.File)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (s *Server) deleteResource(ctx echo.Context) error {
	if err := s.opts.Store.DeleteResource(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// markResourceViewed records the view in the set matching the resource's category.
func (s *Server) markResourceViewed(ctx echo.Context) error {
	id := ctx.Param("id")
	var (
		res   portal.Resource
		found bool
	)
	for _, r := range s.opts.Store.Resources() {
		if r.ID == id {
			res, found = r, true
			break
		}
	}
	if !found {
		return errHttpNotFound
	}

	var err error
	if res.Category == portal.CategoryTimetable {
		err = s.opts.Store.MarkTimetableViewed(ctx.Request().Context(), id)
	} else {
		err = s.opts.Store.MarkResourceViewed(ctx.Request().Context(), id)
	}
	if err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
