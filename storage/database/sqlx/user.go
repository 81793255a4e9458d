package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/strmangle"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

type userRow struct {
	ID           string     `db:"id"`
	Name         string     `db:"name"`
	Email        string     `db:"email"`
	Role         string     `db:"role"`
	IsActive     bool       `db:"is_active"`
	PasswordHash null.Bytes `db:"password_hash"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	LastLogin    null.Time  `db:"last_login"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		Role:         user.Role(r.Role),
		IsActive:     r.IsActive,
		PasswordHash: r.PasswordHash.Bytes,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

func toUsers(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

const selectUser = `SELECT id, name, email, role, is_active, password_hash, created_at, updated_at, last_login FROM "user"`

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	q := `SELECT EXISTS (SELECT 1 FROM "user" WHERE email = $1`
	args := []interface{}{email}
	if len(excludedUsers) > 0 {
		ids := make([]interface{}, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		q += " AND id NOT IN (" + strmangle.Placeholders(true, len(ids), 2, 1) + ")"
		args = append(args, ids...)
	}
	q += ")"

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	const q = `
		INSERT INTO "user" (id, name, email, role, is_active, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, q,
		usr.ID, usr.Name, usr.Email, string(usr.Role), usr.IsActive,
		null.BytesFrom(usr.PasswordHash), usr.CreatedAt.UTC(), usr.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	q := selectUser
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return strmangle.Placeholders(true, 1, len(args), 1)
	}

	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		conds = append(conds, "(name ILIKE "+arg(val)+" OR email ILIKE "+arg(val)+")")
	}
	if len(filter.Roles) > 0 {
		start := len(args) + 1
		for _, role := range filter.Roles {
			args = append(args, string(role))
		}
		conds = append(conds, "role IN ("+strmangle.Placeholders(true, len(filter.Roles), start, 1)+")")
	}
	if filter.IsActive != nil {
		conds = append(conds, "is_active = "+arg(*filter.IsActive))
	}
	if !filter.CreatedFrom.IsZero() {
		conds = append(conds, "created_at >= "+arg(filter.CreatedFrom.UTC()))
	}
	if !filter.CreatedTo.IsZero() {
		conds = append(conds, "created_at <= "+arg(filter.CreatedTo.UTC()))
	}

	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering, "created_at DESC")

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return toUsers(rows), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}
	var row userRow
	if err := repo.db.GetContext(ctx, &row, selectUser+" WHERE id = $1", id); err != nil {
		return user.User{}, trapNoRowsErr(err, "finding user by ID")
	}
	return row.toUser(), nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var row userRow
	if err := repo.db.GetContext(ctx, &row, selectUser+" WHERE email = $1", email); err != nil {
		return user.User{}, trapNoRowsErr(err, "finding user by email")
	}
	return row.toUser(), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	sets := []string{"updated_at = $2"}
	args := []interface{}{usr.ID, usr.UpdatedAt.UTC()}
	set := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, col+" = "+strmangle.Placeholders(true, 1, len(args), 1))
	}

	if usr.Name != "" {
		set("name", usr.Name)
	}
	if usr.Email != "" {
		set("email", usr.Email)
	}
	if usr.Role != "" {
		set("role", string(usr.Role))
	}
	if len(usr.PasswordHash) > 0 {
		set("password_hash", null.BytesFrom(usr.PasswordHash))
	}
	if isActive != nil {
		set("is_active", *isActive)
	}

	q := `UPDATE "user" SET ` + strings.Join(sets, ", ") + " WHERE id = $1"
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo userRepository) SetLastLogin(ctx context.Context, usr user.User) (user.User, error) {
	usr.LastLogin = time.Now().UTC()
	const q = `UPDATE "user" SET last_login = $2 WHERE id = $1`
	if _, err := repo.db.ExecContext(ctx, q, usr.ID, usr.LastLogin); err != nil {
		return user.User{}, errors.Wrap(err, "setting last login")
	}
	return usr, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	q := `DELETE FROM "user" WHERE id IN (` + strmangle.Placeholders(true, len(ids), 1, 1) + ")"
	if _, err := repo.db.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}
