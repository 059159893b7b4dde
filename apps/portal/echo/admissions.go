package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/schoolportal/core/portal"
)

type (
	newAdmissionRequest struct {
		StudentName string `json:"studentName" validate:"required,notblank"`
		ParentName  string `json:"parentName" validate:"required,notblank"`
		Email       string `json:"email" validate:"omitempty,email"`
		Phone       string `json:"phone" validate:"required,notblank"`
		Grade       string `json:"grade" validate:"required,notblank"`
		Message     string `json:"message"`
	}

	admissionStatusRequest struct {
		Status string `json:"status" validate:"required,oneof=pending accepted rejected"`
	}
)

func (s *Server) registerAdmissionAPI(g *echo.Group, admin echo.MiddlewareFunc) {
	admissions := g.Group("/admissions")
	admissions.GET("", s.listAdmissions, admin)
	admissions.POST("", s.addAdmission)
	admissions.PUT("/:id/status", s.setAdmissionStatus, admin)
}

func (s *Server) listAdmissions(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.opts.Store.Admissions())
}

func (s *Server) addAdmission(ctx echo.Context) error {
	var data newAdmissionRequest
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	adm, err := s.opts.Store.AddAdmission(ctx.Request().Context(), portal.NewAdmission{
		StudentName: data.StudentName,
		ParentName:  data.ParentName,
		Email:       data.Email,
		Phone:       data.Phone,
		Grade:       data.Grade,
		Message:     data.Message,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, adm)
}

func (s *Server) setAdmissionStatus(ctx echo.Context) error {
	var data admissionStatusRequest
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	status := portal.AdmissionStatus(data.Status)
	if err := s.opts.Store.UpdateAdmissionStatus(ctx.Request().Context(), ctx.Param("id"), status); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
