package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/user"
)

type classroomApi struct {
	userSvc user.Service
	svc     classroom.Service
}

func registerClassroomAPI(g *echo.Group, jwt echo.MiddlewareFunc, userSvc user.Service, svc classroom.Service) {
	api := classroomApi{userSvc: userSvc, svc: svc}

	cg := g.Group("/classrooms", jwt, staffMiddleware())
	cg.GET("", api.query)
	cg.POST("", api.create, adminMiddleware())
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update, adminMiddleware())
	cg.DELETE("/:id", api.destroy, adminMiddleware())
	cg.PUT("/:id/students", api.assignStudents, adminMiddleware())
	cg.PUT("/:id/supervisors", api.assignSupervisors, adminMiddleware())
}

func (api *classroomApi) query(ctx echo.Context) error {
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := new(classroom.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []classroom.Classroom{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	classrooms, err := api.svc.Filter(ctx.Request().Context(), viewer, *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying classrooms")
	}
	if classrooms == nil {
		classrooms = []classroom.Classroom{}
	}
	return ctx.JSON(http.StatusOK, classrooms)
}

func (api *classroomApi) create(ctx echo.Context) error {
	var data classroom.NewClassroom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassroom")
	}
	if err := data.Validate(ctx.Request().Context(), api.svc); err != nil {
		return err
	}

	cls, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating classroom")
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classroomApi) retrieve(ctx echo.Context) error {
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	// supervisors can only read their own classrooms
	if viewer.IsSupervisor() {
		ok, err := api.svc.Supervises(ctx.Request().Context(), viewer.ID, ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "checking supervision")
		}
		if !ok {
			return errHttpNotFound
		}
	}

	cls, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundIf(errors.Wrap(err, "finding classroom"), classroom.ErrNotFound)
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classroomApi) update(ctx echo.Context) error {
	cls, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundIf(errors.Wrap(err, "finding classroom"), classroom.ErrNotFound)
	}

	var data classroom.UpdateClassroom
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClassroom")
	}
	if err = data.Validate(ctx.Request().Context(), api.svc, cls); err != nil {
		return err
	}

	cls, err = api.svc.Update(ctx.Request().Context(), cls.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating classroom")
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classroomApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting classroom")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classroomApi) assignStudents(ctx echo.Context) error {
	return api.assign(ctx, api.svc.AssignStudents)
}

func (api *classroomApi) assignSupervisors(ctx echo.Context) error {
	return api.assign(ctx, api.svc.AssignSupervisors)
}

func (api *classroomApi) assign(
	ctx echo.Context,
	set func(c context.Context, classroomID string, m classroom.Membership) (classroom.Classroom, error),
) error {
	var data classroom.Membership
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Membership")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	cls, err := set(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return notFoundIf(errors.Wrap(err, "assigning members"), classroom.ErrNotFound)
	}
	return ctx.JSON(http.StatusOK, cls)
}
