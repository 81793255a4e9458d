package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/playback"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/core/video"
)

type videoApi struct {
	userSvc     user.Service
	svc         video.Service
	progressSvc progress.Service
}

func registerVideoAPI(g *echo.Group, jwt echo.MiddlewareFunc, userSvc user.Service, svc video.Service, progressSvc progress.Service) {
	api := videoApi{userSvc: userSvc, svc: svc, progressSvc: progressSvc}

	cg := g.Group("/categories", jwt)
	cg.GET("", api.queryCategories)
	cg.POST("", api.createCategory, adminMiddleware())
	cg.PUT("/:id", api.updateCategory, adminMiddleware())
	cg.DELETE("/:id", api.destroyCategories, adminMiddleware())
	cg.GET("/:id/access", api.retrieveAccess, adminMiddleware())
	cg.PUT("/:id/access", api.grantAccess, adminMiddleware())

	vg := g.Group("/videos", jwt)
	vg.GET("", api.query)
	vg.POST("", api.create, adminMiddleware())
	vg.GET("/:id", api.retrieve)
	vg.PUT("/:id", api.update, adminMiddleware())
	vg.DELETE("/:id", api.destroy, adminMiddleware())
	vg.POST("/:id/thumbnail", api.uploadThumbnail, adminMiddleware())
	vg.GET("/:id/watch", api.watch)
}

// Category handlers

func (api *videoApi) queryCategories(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	cats, err := api.svc.Categories(ctx.Request().Context(), ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying categories")
	}
	if cats == nil {
		cats = []video.Category{}
	}
	return ctx.JSON(http.StatusOK, cats)
}

func (api *videoApi) createCategory(ctx echo.Context) error {
	var data video.NewCategory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCategory")
	}
	if err := data.Validate(ctx.Request().Context(), api.svc); err != nil {
		return err
	}

	cat, err := api.svc.CreateCategory(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating category")
	}
	return ctx.JSON(http.StatusCreated, cat)
}

func (api *videoApi) updateCategory(ctx echo.Context) error {
	cat, err := api.svc.GetCategory(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundIf(errors.Wrap(err, "finding category"), video.ErrCategoryNotFound)
	}

	var data video.UpdateCategory
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCategory")
	}
	if err = data.Validate(ctx.Request().Context(), api.svc, cat); err != nil {
		return err
	}

	cat, err = api.svc.UpdateCategory(ctx.Request().Context(), cat.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating category")
	}
	return ctx.JSON(http.StatusOK, cat)
}

func (api *videoApi) destroyCategories(ctx echo.Context) error {
	if err := api.svc.DeleteCategories(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting category")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *videoApi) retrieveAccess(ctx echo.Context) error {
	grant, err := api.svc.CategoryAccess(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundIf(errors.Wrap(err, "finding category access"), video.ErrCategoryNotFound)
	}
	if grant.ClassroomIDs == nil {
		grant.ClassroomIDs = []string{}
	}
	return ctx.JSON(http.StatusOK, grant)
}

func (api *videoApi) grantAccess(ctx echo.Context) error {
	var data video.AccessGrant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AccessGrant")
	}
	data.CategoryID = ctx.Param("id")

	if err := api.svc.GrantCategoryAccess(ctx.Request().Context(), data); err != nil {
		return notFoundIf(errors.Wrap(err, "granting category access"), video.ErrCategoryNotFound)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Video handlers

func (api *videoApi) query(ctx echo.Context) error {
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := new(video.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []video.Video{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	vids, err := api.svc.Filter(ctx.Request().Context(), viewer, *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying videos")
	}
	if vids == nil {
		vids = []video.Video{}
	}
	return ctx.JSON(http.StatusOK, vids)
}

func (api *videoApi) create(ctx echo.Context) error {
	var data video.NewVideo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVideo")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	vid, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return notFoundIf(errors.Wrap(err, "creating video"), video.ErrCategoryNotFound)
	}
	return ctx.JSON(http.StatusCreated, vid)
}

func (api *videoApi) retrieve(ctx echo.Context) error {
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	vid, err := api.svc.GetForWatch(ctx.Request().Context(), viewer, ctx.Param("id"))
	if err != nil {
		return notFoundIf(errors.Wrap(err, "finding video"), video.ErrVideoNotFound)
	}
	return ctx.JSON(http.StatusOK, vid)
}

func (api *videoApi) update(ctx echo.Context) error {
	var data video.UpdateVideo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateVideo")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	vid, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return notFoundIf(errors.Wrap(err, "updating video"), video.ErrVideoNotFound, video.ErrCategoryNotFound)
	}
	return ctx.JSON(http.StatusOK, vid)
}

func (api *videoApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting video")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *videoApi) uploadThumbnail(ctx echo.Context) error {
	fileHdr, err := ctx.FormFile("thumbnail")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "thumbnail file is required")
	}
	file, err := fileHdr.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded thumbnail")
	}
	defer file.Close()

	vid, err := api.svc.UploadThumbnail(
		ctx.Request().Context(), ctx.Param("id"),
		fileHdr.Filename, fileHdr.Header.Get(echo.HeaderContentType), file,
	)
	if err != nil {
		return notFoundIf(errors.Wrap(err, "uploading thumbnail"), video.ErrVideoNotFound)
	}
	return ctx.JSON(http.StatusOK, vid)
}

// WatchResponse bundles everything the player page needs to start a session.
type WatchResponse struct {
	Video    video.Video     `json:"video"`
	SourceID string          `json:"source_id"` // empty when the URL is not playable
	Progress progress.Record `json:"progress"`
}

func (api *videoApi) watch(ctx echo.Context) error {
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	vid, err := api.svc.GetForWatch(ctx.Request().Context(), viewer, ctx.Param("id"))
	if err != nil {
		return notFoundIf(errors.Wrap(err, "finding video"), video.ErrVideoNotFound)
	}

	resp := WatchResponse{Video: vid}
	if id, ok := playback.ExtractSourceID(vid.URL); ok {
		resp.SourceID = id
	}

	rec, err := api.progressSvc.Get(ctx.Request().Context(), viewer.ID, vid.ID)
	switch errors.Cause(err) {
	case nil:
		resp.Progress = rec
	case progress.ErrNotFound:
		resp.Progress = progress.Record{StudentID: viewer.ID, VideoID: vid.ID}
	default:
		return errors.Wrap(err, "finding progress")
	}
	return ctx.JSON(http.StatusOK, resp)
}
