package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/announcement"
	"github.com/trezcool/darasa/core/user"
)

type announcementApi struct {
	userSvc user.Service
	svc     announcement.Service
}

func registerAnnouncementAPI(g *echo.Group, jwt echo.MiddlewareFunc, userSvc user.Service, svc announcement.Service) {
	api := announcementApi{userSvc: userSvc, svc: svc}

	ag := g.Group("/announcements", jwt)
	ag.GET("", api.query)
	ag.POST("", api.create, staffMiddleware())
	ag.GET("/unread-count", api.unreadCount)
	ag.POST("/:id/read", api.markRead)
	ag.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *announcementApi) query(ctx echo.Context) error {
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	anns, err := api.svc.For(ctx.Request().Context(), viewer)
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	if anns == nil {
		anns = []announcement.Announcement{}
	}
	return ctx.JSON(http.StatusOK, anns)
}

func (api *announcementApi) create(ctx echo.Context) error {
	author, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data announcement.NewAnnouncement
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	ann, err := api.svc.Create(ctx.Request().Context(), author, data)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, ann)
}

func (api *announcementApi) markRead(ctx echo.Context) error {
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err = api.svc.MarkRead(ctx.Request().Context(), ctx.Param("id"), viewer); err != nil {
		return notFoundIf(errors.Wrap(err, "marking announcement read"), announcement.ErrNotFound)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *announcementApi) unreadCount(ctx echo.Context) error {
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	count, err := api.svc.UnreadCount(ctx.Request().Context(), viewer)
	if err != nil {
		return errors.Wrap(err, "counting unread announcements")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"unread": count})
}

func (api *announcementApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	return ctx.NoContent(http.StatusNoContent)
}
