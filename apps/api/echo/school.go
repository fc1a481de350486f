package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/school"
)

type schoolApi struct {
	svc      *school.Service
	validate *validator.Validate
}

func registerSchoolAPI(g *echo.Group, authed echo.MiddlewareFunc, deps ServerDeps) {
	api := schoolApi{
		svc:      deps.SchoolSvc,
		validate: deps.Validate,
	}

	g.POST("/classes", api.createClass, authed, gate(access.CreateClass))
	g.GET("/classes", api.queryClasses, authed, gate(access.ListClasses))

	g.POST("/attendance", api.createAttendance, authed, gate(access.CreateAttendance))
	g.GET("/attendance/student/:studentId", api.queryAttendance, authed, gate(access.ReadAttendance))

	g.POST("/marks", api.createMark, authed, gate(access.CreateMarks))
	g.GET("/marks/student/:studentId", api.queryMarks, authed, gate(access.ReadMarks))
}

// Handlers

func (api *schoolApi) createClass(ctx echo.Context) error {
	var data school.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	class, err := api.svc.CreateClass(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, class)
}

func (api *schoolApi) queryClasses(ctx echo.Context) error {
	classes, err := api.svc.QueryClasses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *schoolApi) createAttendance(ctx echo.Context) error {
	var data school.NewAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	att, err := api.svc.CreateAttendance(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating attendance")
	}
	return ctx.JSON(http.StatusCreated, att)
}

func (api *schoolApi) queryAttendance(ctx echo.Context) error {
	records, err := api.svc.QueryStudentAttendance(ctx.Request().Context(), ctx.Param("studentId"))
	if err != nil {
		return errors.Wrap(err, "querying student attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *schoolApi) createMark(ctx echo.Context) error {
	var data school.NewMark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMark")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mark, err := api.svc.CreateMark(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating mark")
	}
	return ctx.JSON(http.StatusCreated, mark)
}

func (api *schoolApi) queryMarks(ctx echo.Context) error {
	marks, err := api.svc.QueryStudentMarks(ctx.Request().Context(), ctx.Param("studentId"))
	if err != nil {
		return errors.Wrap(err, "querying student marks")
	}
	return ctx.JSON(http.StatusOK, marks)
}
