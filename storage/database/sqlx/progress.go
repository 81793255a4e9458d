package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/strmangle"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/progress"
)

type progressRepository struct {
	db *sqlx.DB
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *sqlx.DB) *progressRepository {
	return &progressRepository{db: db}
}

const selectProgress = `SELECT student_id, video_id, watched_duration, completed, last_watched_at FROM student_progress`

func (repo progressRepository) UpsertProgress(ctx context.Context, rec progress.Record) (progress.Record, error) {
	const q = `
		INSERT INTO student_progress (student_id, video_id, watched_duration, completed, last_watched_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (student_id, video_id) DO UPDATE
			SET watched_duration = EXCLUDED.watched_duration,
			    completed        = EXCLUDED.completed,
			    last_watched_at  = EXCLUDED.last_watched_at`
	_, err := repo.db.ExecContext(ctx, q,
		rec.StudentID, rec.VideoID, rec.WatchedDuration, rec.Completed, rec.LastWatchedAt.UTC())
	if err != nil {
		return progress.Record{}, errors.Wrap(err, "upserting progress")
	}
	return rec, nil
}

func (repo progressRepository) GetProgress(ctx context.Context, studentID, videoID string) (progress.Record, error) {
	var rec progress.Record
	err := repo.db.GetContext(ctx, &rec, selectProgress+" WHERE student_id = $1 AND video_id = $2", studentID, videoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return progress.Record{}, progress.ErrNotFound
		}
		return progress.Record{}, errors.Wrap(err, "finding progress")
	}
	return rec, nil
}

func (repo progressRepository) QueryStudentProgress(ctx context.Context, studentID string) ([]progress.Record, error) {
	var recs []progress.Record
	err := repo.db.SelectContext(ctx, &recs, selectProgress+" WHERE student_id = $1 ORDER BY last_watched_at DESC", studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying student progress")
	}
	return recs, nil
}

func (repo progressRepository) FilterAdminProgress(ctx context.Context, filter progress.AdminFilter, ordering ...core.DBOrdering) ([]progress.AdminRow, error) {
	q := `
		SELECT sp.student_id,
			u.name  AS student_name,
			u.email AS student_email,
			COALESCE((
				SELECT string_agg(c.name, ', ' ORDER BY c.name)
				FROM classroom_student cs JOIN classroom c ON c.id = cs.classroom_id
				WHERE cs.student_id = u.id), '') AS classrooms,
			v.title AS video_title,
			cat.name AS category_name,
			sp.watched_duration,
			v.duration AS video_duration,
			CASE WHEN v.duration > 0 THEN LEAST(sp.watched_duration * 100 / v.duration, 100) ELSE 0 END AS percent_viewed,
			sp.completed,
			sp.last_watched_at
		FROM student_progress sp
		JOIN "user" u ON u.id = sp.student_id
		JOIN video v ON v.id = sp.video_id
		JOIN category cat ON cat.id = v.category_id`

	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return strmangle.Placeholders(true, 1, len(args), 1)
	}

	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		conds = append(conds, "(u.name ILIKE "+arg(val)+" OR u.email ILIKE "+arg(val)+" OR v.title ILIKE "+arg(val)+")")
	}
	if filter.CategoryID != "" {
		conds = append(conds, "v.category_id = "+arg(filter.CategoryID))
	}
	if filter.ClassroomID != "" {
		conds = append(conds, "sp.student_id IN (SELECT student_id FROM classroom_student WHERE classroom_id = "+arg(filter.ClassroomID)+")")
	}
	if filter.Completed != nil {
		conds = append(conds, "sp.completed = "+arg(*filter.Completed))
	}
	if filter.SupervisorID != "" {
		conds = append(conds, `sp.student_id IN (
			SELECT cs.student_id FROM classroom_student cs
			JOIN classroom_supervisor sup ON sup.classroom_id = cs.classroom_id
			WHERE sup.supervisor_id = `+arg(filter.SupervisorID)+")")
	}

	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering, "sp.last_watched_at DESC")

	var rows []progress.AdminRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying admin progress")
	}
	return rows, nil
}

func (repo progressRepository) StudentStats(ctx context.Context, studentID string) (progress.Stats, error) {
	// totals run over the videos the student can currently access
	const q = `
		SELECT
			(SELECT COUNT(*) FROM video v
				WHERE v.published AND v.category_id IN (
					SELECT ca.category_id FROM category_access ca
					JOIN classroom_student cs ON cs.classroom_id = ca.classroom_id
					WHERE cs.student_id = $1)) AS total_videos,
			(SELECT COUNT(*) FROM student_progress sp WHERE sp.student_id = $1 AND sp.completed) AS completed_videos,
			COALESCE((SELECT SUM(sp.watched_duration) FROM student_progress sp WHERE sp.student_id = $1), 0) AS watched_seconds`

	var stats struct {
		TotalVideos     int `db:"total_videos"`
		CompletedVideos int `db:"completed_videos"`
		WatchedSeconds  int `db:"watched_seconds"`
	}
	if err := repo.db.GetContext(ctx, &stats, q, studentID); err != nil {
		return progress.Stats{}, errors.Wrap(err, "querying student stats")
	}
	return progress.Stats{
		TotalVideos:     stats.TotalVideos,
		CompletedVideos: stats.CompletedVideos,
		WatchedSeconds:  stats.WatchedSeconds,
	}, nil
}
