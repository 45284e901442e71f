package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ayalat/maarekhet/core"
	"github.com/ayalat/maarekhet/core/schedule"
	"github.com/ayalat/maarekhet/core/student"
)

type (
	// AttendanceUpdatePayload carries one lesson occurrence's statuses for a
	// whole class.
	AttendanceUpdatePayload struct {
		Day       string                     `json:"day" validate:"required,day"`
		LessonID  string                     `json:"lesson_id" validate:"required"`
		SlotIndex *int                       `json:"slot_index" validate:"required,gte=0"`
		Updates   []student.AttendanceUpdate `json:"updates" validate:"required,dive"`
	}
)

func (p *AttendanceUpdatePayload) Validate(validate *validator.Validate) error {
	p.Day = core.CleanString(p.Day, true /* lower */)
	p.LessonID = core.CleanString(p.LessonID)
	for i := range p.Updates {
		p.Updates[i].IDNumber = core.CleanString(p.Updates[i].IDNumber)
	}
	return validate.Struct(p)
}

type studentApi struct {
	svc         student.Service
	scheduleSvc schedule.Service
	validate    *validator.Validate
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc student.Service, scheduleSvc schedule.Service, validate *validator.Validate) {
	api := studentApi{
		svc:         svc,
		scheduleSvc: scheduleSvc,
		validate:    validate,
	}

	sg := g.Group("/students", jwt)
	sg.POST("", api.create)
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.POST("/:id/toggle-active", api.toggleActive)
	sg.DELETE("/:id", api.destroy)

	cg := g.Group("/classes", jwt)
	cg.GET("", api.queryClasses)
	cg.GET("/:classNumber/students", api.queryByClass)
	cg.GET("/:classNumber/attendance", api.attendanceForSlot)
	cg.PUT("/:classNumber/attendance", api.updateAttendance)

	rg := g.Group("/reports", jwt)
	rg.POST("/weekly", api.sendWeeklyReports, principalMiddleware())
	rg.POST("/attendance-reset", api.resetAttendance, principalMiddleware())
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *studentApi) query(ctx echo.Context) error {
	students, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	st, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) update(ctx echo.Context) error {
	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	st, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) toggleActive(ctx echo.Context) error {
	st, err := api.svc.ToggleActive(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// queryClasses lists the known class numbers, lazily creating a blank weekly
// schedule for any class that does not have one yet.
func (api *studentApi) queryClasses(ctx echo.Context) error {
	classes, err := api.svc.ListClasses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing classes")
	}
	if err = api.scheduleSvc.EnsureForClasses(ctx.Request().Context(), classes...); err != nil {
		return errors.Wrap(err, "ensuring class schedules")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"classes": classes})
}

func (api *studentApi) queryByClass(ctx echo.Context) error {
	classNumber, err := bindClassNumber(ctx)
	if err != nil {
		return err
	}

	students, err := api.svc.GetByClass(ctx.Request().Context(), classNumber)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, students)
}

// attendanceForSlot reports the whole class for one lesson occurrence;
// students without a recorded entry come back Absent.
func (api *studentApi) attendanceForSlot(ctx echo.Context) error {
	classNumber, err := bindClassNumber(ctx)
	if err != nil {
		return err
	}

	day := core.Day(core.CleanString(ctx.QueryParam("day"), true /* lower */))
	if !day.IsValid() {
		return core.NewValidationError(nil, core.FieldError{Field: "day", Error: "must be one of sunday, monday, tuesday, wednesday, thursday"})
	}
	lessonID := core.CleanString(ctx.QueryParam("lesson_id"))
	if lessonID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "lesson_id", Error: "this field is required"})
	}
	slotIndex, err := strconv.Atoi(ctx.QueryParam("slot_index"))
	if err != nil || slotIndex < 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "slot_index", Error: "must be a non-negative number"})
	}

	statuses, err := api.svc.AttendanceForSlot(ctx.Request().Context(), classNumber, day, lessonID, slotIndex)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, statuses)
}

func (api *studentApi) updateAttendance(ctx echo.Context) error {
	classNumber, err := bindClassNumber(ctx)
	if err != nil {
		return err
	}

	var data AttendanceUpdatePayload
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AttendanceUpdatePayload")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	err = api.svc.UpdateAttendance(
		ctx.Request().Context(), classNumber, core.Day(data.Day), data.LessonID, *data.SlotIndex, data.Updates)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Attendance updated."})
}

func (api *studentApi) sendWeeklyReports(ctx echo.Context) error {
	var data student.ReportOptions
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReportOptions")
	}

	if err := api.svc.SendWeeklyReports(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "sending weekly reports")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Weekly reports are being sent."})
}

func (api *studentApi) resetAttendance(ctx echo.Context) error {
	if err := api.svc.ResetWeeklyAttendance(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "resetting weekly attendance")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Weekly attendance has been reset."})
}
