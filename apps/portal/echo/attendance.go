package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/schoolportal/core/auth"
	"github.com/trezcool/schoolportal/core/portal"
)

type newAttendanceRequest struct {
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"required,notblank"`
	Status   string `json:"status" validate:"required,notblank"`
	Location string `json:"location"`
}

func (s *Server) registerAttendanceAPI(g *echo.Group, session echo.MiddlewareFunc) {
	attendance := g.Group("/attendance", session)
	attendance.GET("", s.listAttendance)
	attendance.POST("", s.addAttendance)
}

func (s *Server) listAttendance(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.opts.Store.AttendanceRecords())
}

// addAttendance clocks the logged-in teacher in.
func (s *Server) addAttendance(ctx echo.Context) error {
	acc := contextAccount(ctx)
	if acc.Kind != auth.KindTeacher {
		return errHttpForbidden
	}

	var data newAttendanceRequest
	if err := s.bind(ctx, &data); err != nil {
		return err
	}
	teacher := acc.Identity()
	rec, err := s.opts.Store.AddAttendanceRecord(ctx.Request().Context(), portal.NewAttendanceRecord{
		TeacherID:   teacher.ID,
		TeacherName: teacher.Name,
		Date:        data.Date,
		Time:        data.Time,
		Status:      data.Status,
		Location:    data.Location,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rec)
}
