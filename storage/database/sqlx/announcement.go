package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/lib/pq"

	"github.com/trezcool/darasa/core/announcement"
	"github.com/trezcool/darasa/core/user"
)

type announcementRepository struct {
	db *sqlx.DB
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *sqlx.DB) *announcementRepository {
	return &announcementRepository{db: db}
}

type announcementRow struct {
	ID           string         `db:"id"`
	AuthorID     string         `db:"author_id"`
	AuthorName   string         `db:"author_name"`
	Title        string         `db:"title"`
	Body         string         `db:"body"`
	ClassroomIDs pq.StringArray `db:"classroom_ids"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	Read         bool           `db:"read"`
}

func (r announcementRow) toAnnouncement() announcement.Announcement {
	return announcement.Announcement{
		ID:           r.ID,
		AuthorID:     r.AuthorID,
		AuthorName:   r.AuthorName,
		Title:        r.Title,
		Body:         r.Body,
		ClassroomIDs: r.ClassroomIDs,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		Read:         r.Read,
	}
}

// visibleAnnouncements filters to global announcements plus those targeting
// any classroom the user belongs to (as student or supervisor). Staff see all.
const visibleAnnouncements = `
	(NOT EXISTS (SELECT 1 FROM announcement_classroom ac WHERE ac.announcement_id = a.id)
	 OR $2
	 OR EXISTS (
		SELECT 1 FROM announcement_classroom ac
		WHERE ac.announcement_id = a.id
		  AND (ac.classroom_id IN (SELECT classroom_id FROM classroom_student WHERE student_id = $1)
		   OR  ac.classroom_id IN (SELECT classroom_id FROM classroom_supervisor WHERE supervisor_id = $1))))`

func (repo announcementRepository) CreateAnnouncement(ctx context.Context, ann announcement.Announcement) (announcement.Announcement, error) {
	ann.ID = uuid.New().String()

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	const q = `INSERT INTO announcement (id, author_id, title, body, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err = tx.ExecContext(ctx, q, ann.ID, ann.AuthorID, ann.Title, ann.Body, ann.CreatedAt.UTC(), ann.UpdatedAt.UTC()); err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	for _, clsID := range ann.ClassroomIDs {
		const aq = `INSERT INTO announcement_classroom (announcement_id, classroom_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		if _, err = tx.ExecContext(ctx, aq, ann.ID, clsID); err != nil {
			return announcement.Announcement{}, errors.Wrap(err, "targeting announcement")
		}
	}
	if err = tx.Commit(); err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "committing announcement")
	}
	return ann, nil
}

func (repo announcementRepository) QueryAnnouncementsFor(ctx context.Context, viewer user.User) ([]announcement.Announcement, error) {
	q := `
		SELECT a.id, a.author_id, u.name AS author_name, a.title, a.body,
			COALESCE((SELECT array_agg(ac.classroom_id) FROM announcement_classroom ac WHERE ac.announcement_id = a.id), '{}') AS classroom_ids,
			a.created_at, a.updated_at,
			EXISTS (SELECT 1 FROM announcement_read ar WHERE ar.announcement_id = a.id AND ar.user_id = $1) AS read
		FROM announcement a
		JOIN "user" u ON u.id = a.author_id
		WHERE ` + visibleAnnouncements + `
		ORDER BY a.created_at DESC`

	var rows []announcementRow
	if err := repo.db.SelectContext(ctx, &rows, q, viewer.ID, viewer.Role.IsAdmin()); err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}
	anns := make([]announcement.Announcement, 0, len(rows))
	for _, r := range rows {
		anns = append(anns, r.toAnnouncement())
	}
	return anns, nil
}

func (repo announcementRepository) GetAnnouncementByID(ctx context.Context, id string) (announcement.Announcement, error) {
	if _, err := uuid.Parse(id); err != nil {
		return announcement.Announcement{}, announcement.ErrNotFound
	}
	const q = `
		SELECT a.id, a.author_id, u.name AS author_name, a.title, a.body,
			COALESCE((SELECT array_agg(ac.classroom_id) FROM announcement_classroom ac WHERE ac.announcement_id = a.id), '{}') AS classroom_ids,
			a.created_at, a.updated_at, FALSE AS read
		FROM announcement a
		JOIN "user" u ON u.id = a.author_id
		WHERE a.id = $1`

	var row announcementRow
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return announcement.Announcement{}, announcement.ErrNotFound
		}
		return announcement.Announcement{}, errors.Wrap(err, "finding announcement")
	}
	return row.toAnnouncement(), nil
}

func (repo announcementRepository) DeleteAnnouncementsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	const q = `DELETE FROM announcement WHERE id = ANY($1)`
	if _, err := repo.db.ExecContext(ctx, q, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting announcements")
	}
	return nil
}

func (repo announcementRepository) MarkRead(ctx context.Context, announcementID, userID string) error {
	const q = `INSERT INTO announcement_read (announcement_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, q, announcementID, userID); err != nil {
		return errors.Wrap(err, "marking announcement read")
	}
	return nil
}

func (repo announcementRepository) CountUnreadFor(ctx context.Context, viewer user.User) (int, error) {
	q := `
		SELECT COUNT(*)
		FROM announcement a
		WHERE NOT EXISTS (SELECT 1 FROM announcement_read ar WHERE ar.announcement_id = a.id AND ar.user_id = $1)
		  AND ` + visibleAnnouncements

	var count int
	if err := repo.db.GetContext(ctx, &count, q, viewer.ID, viewer.Role.IsAdmin()); err != nil {
		return 0, errors.Wrap(err, "counting unread announcements")
	}
	return count, nil
}
