package progress

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var ErrNotFound = errors.New("progress record not found")

var csvHeader = []string{
	"student_name", "student_email", "classrooms", "video_title", "category_name",
	"watched_duration", "video_duration", "percent_viewed", "completed", "last_watched_at",
}

type (
	Repository interface {
		// UpsertProgress inserts or overwrites the record for the
		// (StudentID, VideoID) pair. Repeated identical writes are safe;
		// the last write wins.
		UpsertProgress(ctx context.Context, rec Record) (Record, error)
		GetProgress(ctx context.Context, studentID, videoID string) (Record, error)
		QueryStudentProgress(ctx context.Context, studentID string) ([]Record, error)
		FilterAdminProgress(ctx context.Context, filter AdminFilter, ordering ...core.DBOrdering) ([]AdminRow, error)
		StudentStats(ctx context.Context, studentID string) (Stats, error)
	}

	// Cache is an optional read-through cache for computed stats.
	Cache interface {
		GetJSON(ctx context.Context, key string, dst interface{}) (bool, error)
		SetJSON(ctx context.Context, key string, val interface{}, ttl time.Duration) error
	}

	Service interface {
		// SaveProgress upserts a student's watched position. It is the
		// persistence endpoint of playback sessions and of the REST API; both
		// may write the same key concurrently, which is safe.
		SaveProgress(ctx context.Context, studentID, videoID string, watchedSeconds int, completed bool) error
		Get(ctx context.Context, studentID, videoID string) (Record, error)
		ForStudent(ctx context.Context, studentID string) ([]Record, error)
		StatsForStudent(ctx context.Context, studentID string) (Stats, error)
		FilterAdmin(ctx context.Context, filter AdminFilter, ordering ...core.DBOrdering) ([]AdminRow, error)
		ExportCSV(ctx context.Context, w io.Writer, filter AdminFilter) error
	}

	service struct {
		repo     Repository
		cache    Cache
		statsTTL time.Duration
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, cache Cache, conf *core.Config) Service {
	return &service{
		repo:     repo,
		cache:    cache,
		statsTTL: conf.Redis.StatsTTL,
	}
}

func (svc *service) SaveProgress(ctx context.Context, studentID, videoID string, watchedSeconds int, completed bool) error {
	if watchedSeconds < 0 {
		watchedSeconds = 0
	}
	rec := Record{
		StudentID:       studentID,
		VideoID:         videoID,
		WatchedDuration: watchedSeconds,
		Completed:       completed,
		LastWatchedAt:   time.Now().UTC(),
	}
	_, err := svc.repo.UpsertProgress(ctx, rec)
	return err
}

func (svc *service) Get(ctx context.Context, studentID, videoID string) (Record, error) {
	return svc.repo.GetProgress(ctx, studentID, videoID)
}

func (svc *service) ForStudent(ctx context.Context, studentID string) ([]Record, error) {
	return svc.repo.QueryStudentProgress(ctx, studentID)
}

func (svc *service) StatsForStudent(ctx context.Context, studentID string) (Stats, error) {
	key := "progress:stats:" + studentID

	var stats Stats
	if svc.cache != nil {
		if ok, err := svc.cache.GetJSON(ctx, key, &stats); err == nil && ok {
			return stats, nil
		}
	}

	stats, err := svc.repo.StudentStats(ctx, studentID)
	if err != nil {
		return Stats{}, err
	}
	if stats.TotalVideos > 0 {
		stats.PercentComplete = stats.CompletedVideos * 100 / stats.TotalVideos
	}

	if svc.cache != nil {
		_ = svc.cache.SetJSON(ctx, key, stats, svc.statsTTL) // best effort
	}
	return stats, nil
}

func (svc *service) FilterAdmin(ctx context.Context, filter AdminFilter, ordering ...core.DBOrdering) ([]AdminRow, error) {
	filter.Search = core.CleanString(filter.Search)
	return svc.repo.FilterAdminProgress(ctx, filter, ordering...)
}

func (svc *service) ExportCSV(ctx context.Context, w io.Writer, filter AdminFilter) error {
	rows, err := svc.FilterAdmin(ctx, filter)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err = cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	for _, row := range rows {
		var lastWatched string
		if !row.LastWatchedAt.IsZero() {
			lastWatched = row.LastWatchedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			row.StudentName,
			row.StudentEmail,
			row.Classrooms,
			row.VideoTitle,
			row.CategoryName,
			strconv.Itoa(row.WatchedDuration),
			strconv.Itoa(row.VideoDuration),
			strconv.Itoa(row.PercentViewed),
			strconv.FormatBool(row.Completed),
			lastWatched,
		}
		if err = cw.Write(record); err != nil {
			return errors.Wrap(err, "writing csv row")
		}
	}
	cw.Flush()
	return cw.Error()
}
