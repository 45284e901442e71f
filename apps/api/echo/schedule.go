package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ayalat/maarekhet/core"
	"github.com/ayalat/maarekhet/core/schedule"
)

type (
	NewSchedulePayload struct {
		ClassNumber int `json:"class_number" validate:"required,gt=0"`
	}

	// SetSlotPayload assigns a lesson to one slot position.
	SetSlotPayload struct {
		LessonID string `json:"lesson_id" validate:"required"`
	}
)

func (p *SetSlotPayload) Validate(validate *validator.Validate) error {
	p.LessonID = core.CleanString(p.LessonID)
	return validate.Struct(p)
}

type scheduleApi struct {
	svc      schedule.Service
	validate *validator.Validate
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc schedule.Service, validate *validator.Validate) {
	api := scheduleApi{
		svc:      svc,
		validate: validate,
	}

	sg := g.Group("/schedules", jwt)
	sg.POST("", api.create)

	dg := sg.Group("/:classNumber")
	dg.GET("", api.retrieve)
	dg.PUT("", api.replaceWeek)
	dg.DELETE("", api.destroy)
	dg.PUT("/days/:day", api.replaceDay)
	dg.PUT("/days/:day/slots/:slotIndex", api.setSlot)
}

func bindClassNumber(ctx echo.Context) (int, error) {
	classNumber, err := strconv.Atoi(ctx.Param("classNumber"))
	if err != nil || classNumber <= 0 {
		return 0, core.NewValidationError(nil, core.FieldError{Field: "class_number", Error: "must be a positive number"})
	}
	return classNumber, nil
}

func bindDay(ctx echo.Context) (core.Day, error) {
	day := core.Day(core.CleanString(ctx.Param("day"), true /* lower */))
	if !day.IsValid() {
		return "", core.NewValidationError(nil, core.FieldError{Field: "day", Error: "must be one of sunday, monday, tuesday, wednesday, thursday"})
	}
	return day, nil
}

func (api *scheduleApi) create(ctx echo.Context) error {
	var data NewSchedulePayload
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchedulePayload")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	sched, err := api.svc.Create(ctx.Request().Context(), data.ClassNumber)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sched)
}

// retrieve returns the schedule with slot lesson references resolved.
func (api *scheduleApi) retrieve(ctx echo.Context) error {
	classNumber, err := bindClassNumber(ctx)
	if err != nil {
		return err
	}

	detail, err := api.svc.GetDetailByClass(ctx.Request().Context(), classNumber)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *scheduleApi) replaceWeek(ctx echo.Context) error {
	classNumber, err := bindClassNumber(ctx)
	if err != nil {
		return err
	}

	var data map[string]schedule.DaySlots
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding week slots")
	}

	days := make(map[core.Day]schedule.DaySlots, len(data))
	for key, slots := range data {
		days[core.Day(core.CleanString(key, true /* lower */))] = slots
	}

	if err = api.svc.ReplaceWeek(ctx.Request().Context(), classNumber, days); err != nil {
		return err
	}
	return api.respondWithDetail(ctx, classNumber)
}

func (api *scheduleApi) replaceDay(ctx echo.Context) error {
	classNumber, err := bindClassNumber(ctx)
	if err != nil {
		return err
	}
	day, err := bindDay(ctx)
	if err != nil {
		return err
	}

	var slots schedule.DaySlots
	if err = ctx.Bind(&slots); err != nil {
		return errors.Wrap(err, "binding day slots")
	}

	if err = api.svc.ReplaceDay(ctx.Request().Context(), classNumber, day, slots); err != nil {
		return err
	}
	return api.respondWithDetail(ctx, classNumber)
}

// setSlot writes a single slot; slots must be filled in order, so assigning
// slot K with slot K-1 empty is rejected.
func (api *scheduleApi) setSlot(ctx echo.Context) error {
	classNumber, err := bindClassNumber(ctx)
	if err != nil {
		return err
	}
	day, err := bindDay(ctx)
	if err != nil {
		return err
	}
	slotIndex, err := strconv.Atoi(ctx.Param("slotIndex"))
	if err != nil || slotIndex < 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "slot_index", Error: "must be a non-negative number"})
	}

	var data SetSlotPayload
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetSlotPayload")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if err = api.svc.SetSlot(ctx.Request().Context(), classNumber, day, slotIndex, data.LessonID); err != nil {
		return err
	}
	return api.respondWithDetail(ctx, classNumber)
}

func (api *scheduleApi) destroy(ctx echo.Context) error {
	classNumber, err := bindClassNumber(ctx)
	if err != nil {
		return err
	}

	if err = api.svc.Delete(ctx.Request().Context(), classNumber); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scheduleApi) respondWithDetail(ctx echo.Context, classNumber int) error {
	detail, err := api.svc.GetDetailByClass(ctx.Request().Context(), classNumber)
	if err != nil {
		return errors.Wrap(err, "loading schedule detail")
	}
	return ctx.JSON(http.StatusOK, detail)
}
