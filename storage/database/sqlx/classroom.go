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
	"github.com/trezcool/darasa/core/classroom"
)

type classroomRepository struct {
	db *sqlx.DB
}

var _ classroom.Repository = (*classroomRepository)(nil) // interface compliance check

func NewClassroomRepository(db *sqlx.DB) *classroomRepository {
	return &classroomRepository{db: db}
}

type classroomRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r classroomRow) toClassroom() classroom.Classroom {
	return classroom.Classroom{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

const selectClassroom = `SELECT id, name, description, created_at, updated_at FROM classroom`

func (repo classroomRepository) CheckNameUniqueness(ctx context.Context, name string, excluded ...classroom.Classroom) error {
	q := `SELECT EXISTS (SELECT 1 FROM classroom WHERE lower(name) = lower($1)`
	args := []interface{}{name}
	if len(excluded) > 0 {
		ids := make([]interface{}, 0, len(excluded))
		for _, cls := range excluded {
			ids = append(ids, cls.ID)
		}
		q += " AND id NOT IN (" + strmangle.Placeholders(true, len(ids), 2, 1) + ")"
		args = append(args, ids...)
	}
	q += ")"

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking classroom uniqueness")
	}
	if exists {
		return classroom.ErrNameExists
	}
	return nil
}

func (repo classroomRepository) CreateClassroom(ctx context.Context, cls classroom.Classroom) (classroom.Classroom, error) {
	cls.ID = uuid.New().String()
	const q = `INSERT INTO classroom (id, name, description, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := repo.db.ExecContext(ctx, q, cls.ID, cls.Name, cls.Description, cls.CreatedAt.UTC(), cls.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return classroom.Classroom{}, classroom.ErrNameExists
		}
		return classroom.Classroom{}, errors.Wrap(err, "inserting classroom")
	}
	return cls, nil
}

func (repo classroomRepository) FilterClassrooms(ctx context.Context, filter classroom.QueryFilter, ordering ...core.DBOrdering) ([]classroom.Classroom, error) {
	q := selectClassroom
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return strmangle.Placeholders(true, 1, len(args), 1)
	}

	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		conds = append(conds, "(name ILIKE "+arg(val)+" OR description ILIKE "+arg(val)+")")
	}
	if filter.SupervisorID != "" {
		conds = append(conds, "id IN (SELECT classroom_id FROM classroom_supervisor WHERE supervisor_id = "+arg(filter.SupervisorID)+")")
	}

	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering, "name ASC")

	var rows []classroomRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying classrooms")
	}
	classrooms := make([]classroom.Classroom, 0, len(rows))
	for _, r := range rows {
		classrooms = append(classrooms, r.toClassroom())
	}
	return classrooms, nil
}

func (repo classroomRepository) GetClassroomByID(ctx context.Context, id string) (classroom.Classroom, error) {
	if _, err := uuid.Parse(id); err != nil {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	var row classroomRow
	if err := repo.db.GetContext(ctx, &row, selectClassroom+" WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return classroom.Classroom{}, classroom.ErrNotFound
		}
		return classroom.Classroom{}, errors.Wrap(err, "finding classroom")
	}
	cls := row.toClassroom()

	var err error
	if cls.StudentIDs, err = repo.memberIDs(ctx, "classroom_student", "student_id", id); err != nil {
		return classroom.Classroom{}, err
	}
	if cls.SupervisorIDs, err = repo.memberIDs(ctx, "classroom_supervisor", "supervisor_id", id); err != nil {
		return classroom.Classroom{}, err
	}
	return cls, nil
}

func (repo classroomRepository) memberIDs(ctx context.Context, table, col, classroomID string) ([]string, error) {
	var ids []string
	q := "SELECT " + col + " FROM " + table + " WHERE classroom_id = $1 ORDER BY " + col
	if err := repo.db.SelectContext(ctx, &ids, q, classroomID); err != nil {
		return nil, errors.Wrap(err, "querying classroom members")
	}
	return ids, nil
}

func (repo classroomRepository) UpdateClassroom(ctx context.Context, cls classroom.Classroom) (classroom.Classroom, error) {
	const q = `UPDATE classroom SET name = $2, description = $3, updated_at = $4 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, cls.ID, cls.Name, cls.Description, cls.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return classroom.Classroom{}, classroom.ErrNameExists
		}
		return classroom.Classroom{}, errors.Wrap(err, "updating classroom")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	return repo.GetClassroomByID(ctx, cls.ID)
}

func (repo classroomRepository) DeleteClassroomsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	q := `DELETE FROM classroom WHERE id IN (` + strmangle.Placeholders(true, len(ids), 1, 1) + ")"
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting classrooms")
	}
	return nil
}

func (repo classroomRepository) SetStudents(ctx context.Context, classroomID string, studentIDs []string) error {
	return repo.setMembers(ctx, "classroom_student", "student_id", classroomID, studentIDs)
}

func (repo classroomRepository) SetSupervisors(ctx context.Context, classroomID string, supervisorIDs []string) error {
	return repo.setMembers(ctx, "classroom_supervisor", "supervisor_id", classroomID, supervisorIDs)
}

func (repo classroomRepository) setMembers(ctx context.Context, table, col, classroomID string, ids []string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE classroom_id = $1", classroomID); err != nil {
		return errors.Wrap(err, "clearing classroom members")
	}
	for _, id := range ids {
		q := "INSERT INTO " + table + " (classroom_id, " + col + ") VALUES ($1, $2) ON CONFLICT DO NOTHING"
		if _, err = tx.ExecContext(ctx, q, classroomID, id); err != nil {
			return errors.Wrap(err, "adding classroom member")
		}
	}
	return errors.Wrap(tx.Commit(), "committing classroom members")
}

func (repo classroomRepository) Supervises(ctx context.Context, supervisorID, classroomID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM classroom_supervisor WHERE supervisor_id = $1 AND classroom_id = $2)`
	var ok bool
	if err := repo.db.GetContext(ctx, &ok, q, supervisorID, classroomID); err != nil {
		return false, errors.Wrap(err, "checking supervision")
	}
	return ok, nil
}
