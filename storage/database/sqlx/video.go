package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/strmangle"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/video"
)

type videoRepository struct {
	db *sqlx.DB
}

var _ video.Repository = (*videoRepository)(nil) // interface compliance check

func NewVideoRepository(db *sqlx.DB) *videoRepository {
	return &videoRepository{db: db}
}

type categoryRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r categoryRow) toCategory() video.Category {
	return video.Category(r)
}

type videoRow struct {
	ID           string    `db:"id"`
	CategoryID   string    `db:"category_id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	URL          string    `db:"url"`
	Duration     int       `db:"duration"`
	ThumbnailURL string    `db:"thumbnail_url"`
	Published    bool      `db:"published"`
	Position     int       `db:"position"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r videoRow) toVideo() video.Video {
	return video.Video(r)
}

const (
	selectCategory = `SELECT id, name, description, created_at, updated_at FROM category`
	selectVideo    = `SELECT id, category_id, title, description, url, duration, thumbnail_url, published, position, created_at, updated_at FROM video`
)

func (repo videoRepository) CheckCategoryNameUniqueness(ctx context.Context, name string, excluded ...video.Category) error {
	q := `SELECT EXISTS (SELECT 1 FROM category WHERE lower(name) = lower($1)`
	args := []interface{}{name}
	if len(excluded) > 0 {
		ids := make([]interface{}, 0, len(excluded))
		for _, cat := range excluded {
			ids = append(ids, cat.ID)
		}
		q += " AND id NOT IN (" + strmangle.Placeholders(true, len(ids), 2, 1) + ")"
		args = append(args, ids...)
	}
	q += ")"

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking category uniqueness")
	}
	if exists {
		return video.ErrCategoryExists
	}
	return nil
}

func (repo videoRepository) CreateCategory(ctx context.Context, cat video.Category) (video.Category, error) {
	cat.ID = uuid.New().String()
	const q = `INSERT INTO category (id, name, description, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := repo.db.ExecContext(ctx, q, cat.ID, cat.Name, cat.Description, cat.CreatedAt.UTC(), cat.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return video.Category{}, video.ErrCategoryExists
		}
		return video.Category{}, errors.Wrap(err, "inserting category")
	}
	return cat, nil
}

func (repo videoRepository) QueryCategories(ctx context.Context, ordering ...core.DBOrdering) ([]video.Category, error) {
	var rows []categoryRow
	if err := repo.db.SelectContext(ctx, &rows, selectCategory+orderBy(ordering, "name ASC")); err != nil {
		return nil, errors.Wrap(err, "querying categories")
	}
	cats := make([]video.Category, 0, len(rows))
	for _, r := range rows {
		cats = append(cats, r.toCategory())
	}
	return cats, nil
}

func (repo videoRepository) GetCategoryByID(ctx context.Context, id string) (video.Category, error) {
	if _, err := uuid.Parse(id); err != nil {
		return video.Category{}, video.ErrCategoryNotFound
	}
	var row categoryRow
	if err := repo.db.GetContext(ctx, &row, selectCategory+" WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return video.Category{}, video.ErrCategoryNotFound
		}
		return video.Category{}, errors.Wrap(err, "finding category")
	}
	return row.toCategory(), nil
}

func (repo videoRepository) UpdateCategory(ctx context.Context, cat video.Category) (video.Category, error) {
	const q = `UPDATE category SET name = $2, description = $3, updated_at = $4 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, cat.ID, cat.Name, cat.Description, cat.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return video.Category{}, video.ErrCategoryExists
		}
		return video.Category{}, errors.Wrap(err, "updating category")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return video.Category{}, video.ErrCategoryNotFound
	}
	return repo.GetCategoryByID(ctx, cat.ID)
}

func (repo videoRepository) DeleteCategoriesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	q := `DELETE FROM category WHERE id IN (` + strmangle.Placeholders(true, len(ids), 1, 1) + ")"
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting categories")
	}
	return nil
}

func (repo videoRepository) GetCategoryAccess(ctx context.Context, categoryID string) ([]string, error) {
	var ids []string
	const q = `SELECT classroom_id FROM category_access WHERE category_id = $1 ORDER BY classroom_id`
	if err := repo.db.SelectContext(ctx, &ids, q, categoryID); err != nil {
		return nil, errors.Wrap(err, "querying category access")
	}
	return ids, nil
}

func (repo videoRepository) SetCategoryAccess(ctx context.Context, categoryID string, classroomIDs []string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `DELETE FROM category_access WHERE category_id = $1`, categoryID); err != nil {
		return errors.Wrap(err, "clearing category access")
	}
	for _, clsID := range classroomIDs {
		const q = `INSERT INTO category_access (category_id, classroom_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		if _, err = tx.ExecContext(ctx, q, categoryID, clsID); err != nil {
			return errors.Wrap(err, "granting category access")
		}
	}
	return errors.Wrap(tx.Commit(), "committing category access")
}

func (repo videoRepository) CreateVideo(ctx context.Context, vid video.Video) (video.Video, error) {
	vid.ID = uuid.New().String()
	const q = `
		INSERT INTO video (id, category_id, title, description, url, duration, thumbnail_url, published, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := repo.db.ExecContext(ctx, q,
		vid.ID, vid.CategoryID, vid.Title, vid.Description, vid.URL, vid.Duration,
		vid.ThumbnailURL, vid.Published, vid.Position, vid.CreatedAt.UTC(), vid.UpdatedAt.UTC())
	if err != nil {
		return video.Video{}, errors.Wrap(err, "inserting video")
	}
	return vid, nil
}

func videoConds(filter video.QueryFilter, args *[]interface{}) []string {
	var conds []string
	arg := func(v interface{}) string {
		*args = append(*args, v)
		return strmangle.Placeholders(true, 1, len(*args), 1)
	}

	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		conds = append(conds, "(title ILIKE "+arg(val)+" OR description ILIKE "+arg(val)+")")
	}
	if filter.CategoryID != "" {
		conds = append(conds, "category_id = "+arg(filter.CategoryID))
	}
	if filter.Published != nil {
		conds = append(conds, "published = "+arg(*filter.Published))
	}
	return conds
}

func (repo videoRepository) FilterVideos(ctx context.Context, filter video.QueryFilter, ordering ...core.DBOrdering) ([]video.Video, error) {
	q := selectVideo
	var args []interface{}
	if conds := videoConds(filter, &args); len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering, "position ASC, created_at ASC")

	var rows []videoRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying videos")
	}
	return toVideos(rows), nil
}

func (repo videoRepository) FilterVideosForStudent(ctx context.Context, studentID string, filter video.QueryFilter, ordering ...core.DBOrdering) ([]video.Video, error) {
	args := []interface{}{studentID}
	conds := append([]string{`category_id IN (
		SELECT ca.category_id FROM category_access ca
		JOIN classroom_student cs ON cs.classroom_id = ca.classroom_id
		WHERE cs.student_id = $1)`},
		videoConds(filter, &args)...)

	q := selectVideo + " WHERE " + strings.Join(conds, " AND ") + orderBy(ordering, "position ASC, created_at ASC")

	var rows []videoRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying student videos")
	}
	return toVideos(rows), nil
}

func toVideos(rows []videoRow) []video.Video {
	vids := make([]video.Video, 0, len(rows))
	for _, r := range rows {
		vids = append(vids, r.toVideo())
	}
	return vids
}

func (repo videoRepository) GetVideoByID(ctx context.Context, id string) (video.Video, error) {
	if _, err := uuid.Parse(id); err != nil {
		return video.Video{}, video.ErrVideoNotFound
	}
	var row videoRow
	if err := repo.db.GetContext(ctx, &row, selectVideo+" WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return video.Video{}, video.ErrVideoNotFound
		}
		return video.Video{}, errors.Wrap(err, "finding video")
	}
	return row.toVideo(), nil
}

func (repo videoRepository) UpdateVideo(ctx context.Context, vid video.Video) (video.Video, error) {
	const q = `
		UPDATE video SET category_id = $2, title = $3, description = $4, url = $5,
			duration = $6, published = $7, position = $8, updated_at = $9
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		vid.ID, vid.CategoryID, vid.Title, vid.Description, vid.URL,
		vid.Duration, vid.Published, vid.Position, vid.UpdatedAt.UTC())
	if err != nil {
		return video.Video{}, errors.Wrap(err, "updating video")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return video.Video{}, video.ErrVideoNotFound
	}
	return repo.GetVideoByID(ctx, vid.ID)
}

func (repo videoRepository) SetVideoThumbnail(ctx context.Context, id, thumbnailURL string) (video.Video, error) {
	const q = `UPDATE video SET thumbnail_url = $2, updated_at = $3 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, id, thumbnailURL, time.Now().UTC())
	if err != nil {
		return video.Video{}, errors.Wrap(err, "setting thumbnail")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return video.Video{}, video.ErrVideoNotFound
	}
	return repo.GetVideoByID(ctx, id)
}

func (repo videoRepository) DeleteVideosByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	q := `DELETE FROM video WHERE id IN (` + strmangle.Placeholders(true, len(ids), 1, 1) + ")"
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting videos")
	}
	return nil
}

func (repo videoRepository) StudentHasAccess(ctx context.Context, studentID, videoID string) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM video v
			JOIN category_access ca ON ca.category_id = v.category_id
			JOIN classroom_student cs ON cs.classroom_id = ca.classroom_id
			WHERE v.id = $1 AND cs.student_id = $2)`
	var ok bool
	if err := repo.db.GetContext(ctx, &ok, q, videoID, studentID); err != nil {
		return false, errors.Wrap(err, "checking video access")
	}
	return ok, nil
}
