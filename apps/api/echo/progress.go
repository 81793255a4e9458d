package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/core/video"
)

type progressApi struct {
	userSvc  user.Service
	videoSvc video.Service
	svc      progress.Service
}

func registerProgressAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	userSvc user.Service,
	videoSvc video.Service,
	svc progress.Service,
) {
	api := progressApi{userSvc: userSvc, videoSvc: videoSvc, svc: svc}

	pg := g.Group("/progress", jwt)
	pg.PUT("", api.save, studentMiddleware())
	pg.GET("", api.mine, studentMiddleware())
	pg.GET("/admin", api.queryAdmin, staffMiddleware())
	pg.GET("/export", api.exportCSV, staffMiddleware())
}

type (
	// SaveProgressRequest reports a student's watched position. Completion is
	// recomputed server-side from the video duration; clients cannot force it.
	SaveProgressRequest struct {
		VideoID         string `json:"video_id" validate:"required,uuid4"`
		WatchedDuration int    `json:"watched_duration" validate:"min=0"` // seconds
		// Ended marks a terminal player event; it completes videos whose
		// duration is unknown.
		Ended bool `json:"ended"`
	}

	ProgressResponse struct {
		Records []progress.Record `json:"records"`
		Stats   progress.Stats    `json:"stats"`
	}
)

func (sp SaveProgressRequest) Validate() error { return core.Validate.Struct(sp) }

func (api *progressApi) save(ctx echo.Context) error {
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data SaveProgressRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveProgressRequest")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	// also enforces publication and classroom access
	vid, err := api.videoSvc.GetForWatch(ctx.Request().Context(), viewer, data.VideoID)
	if err != nil {
		return notFoundIf(errors.Wrap(err, "finding video"), video.ErrVideoNotFound)
	}

	completed := progress.IsCompleted(data.WatchedDuration, vid.Duration)
	if data.Ended && vid.Duration <= 0 {
		completed = true
	}

	if err = api.svc.SaveProgress(ctx.Request().Context(), viewer.ID, vid.ID, data.WatchedDuration, completed); err != nil {
		return errors.Wrap(err, "saving progress")
	}
	return ctx.JSON(http.StatusOK, progress.Record{
		StudentID:       viewer.ID,
		VideoID:         vid.ID,
		WatchedDuration: data.WatchedDuration,
		Completed:       completed,
		LastWatchedAt:   time.Now().UTC(),
	})
}

func (api *progressApi) mine(ctx echo.Context) error {
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	recs, err := api.svc.ForStudent(ctx.Request().Context(), viewer.ID)
	if err != nil {
		return errors.Wrap(err, "querying progress")
	}
	if recs == nil {
		recs = []progress.Record{}
	}

	stats, err := api.svc.StatsForStudent(ctx.Request().Context(), viewer.ID)
	if err != nil {
		return errors.Wrap(err, "querying stats")
	}
	return ctx.JSON(http.StatusOK, ProgressResponse{Records: recs, Stats: stats})
}

func (api *progressApi) adminFilter(ctx echo.Context) (progress.AdminFilter, error) {
	viewer, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return progress.AdminFilter{}, errors.Wrap(err, "getting context user")
	}

	filter := new(progress.AdminFilter)
	if err = ctx.Bind(filter); err != nil {
		return progress.AdminFilter{}, errors.Wrap(err, "binding to AdminFilter")
	}
	filter.Search = core.CleanString(filter.Search)

	// supervisors only see students of classrooms they oversee
	if viewer.IsSupervisor() {
		filter.SupervisorID = viewer.ID
	}
	return *filter, nil
}

func (api *progressApi) queryAdmin(ctx echo.Context) error {
	filter, err := api.adminFilter(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	rows, err := api.svc.FilterAdmin(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying admin progress")
	}
	if rows == nil {
		rows = []progress.AdminRow{}
	}
	return ctx.JSON(http.StatusOK, rows)
}

func (api *progressApi) exportCSV(ctx echo.Context) error {
	filter, err := api.adminFilter(ctx)
	if err != nil {
		return err
	}

	resp := ctx.Response()
	resp.Header().Set(echo.HeaderContentType, "text/csv")
	resp.Header().Set(echo.HeaderContentDisposition, `attachment; filename="progress.csv"`)
	resp.WriteHeader(http.StatusOK)

	return errors.Wrap(api.svc.ExportCSV(ctx.Request().Context(), resp, filter), "exporting progress")
}
