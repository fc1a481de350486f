package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/user"
)

type userApi struct {
	svc      user.Service
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, authed echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{
		svc:      deps.UserSvc,
		validate: deps.Validate,
	}

	ag := g.Group("/auth")
	ag.GET("/students", api.queryStudents, authed, gate(access.ListStudents))
	ag.GET("/users", api.query, authed, gate(access.ListUsers))
	ag.PUT("/users/:id", api.update, authed, gate(access.UpdateUser))
	ag.DELETE("/users/:id", api.destroy, authed, gate(access.DeleteUser))
}

// Handlers

func (api *userApi) queryStudents(ctx echo.Context) error {
	users, err := api.svc.Query(ctx.Request().Context(), user.QueryFilter{Role: user.RoleStudent})
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) query(ctx echo.Context) error {
	var filter user.QueryFilter
	if role := ctx.QueryParam("role"); role != "" {
		r, err := user.ParseRoleFold(role)
		if err != nil {
			return ctx.JSON(http.StatusOK, []user.User{})
		}
		filter.Role = r
	}

	users, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	return ctx.JSON(http.StatusOK, users)
}

func (api *userApi) update(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	usr, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}

	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err = data.Validate(reqCtx, usr, api.validate, api.svc); err != nil {
		return err
	}

	usr, err = api.svc.Update(reqCtx, usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	// an admin cannot delete themselves
	if ctx.Param("id") == claims.SubjectID() {
		return errSelfDelete
	}

	if err = api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "user deleted"})
}

type MessageResponse struct {
	Message string `json:"message"`
}
