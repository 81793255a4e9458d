package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedUsers ...user.User) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[string]bool, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = true
	}
	for _, usr := range repo.db.users {
		if usr.Email == email && !excluded[usr.ID] {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if err := repo.CheckEmailUniqueness(ctx, usr.Email); err != nil {
		return user.User{}, err
	}

	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr.ID = uuid.New().String()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) FilterUsers(_ context.Context, filter user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	roles := make(map[user.Role]bool, len(filter.Roles))
	for _, r := range filter.Roles {
		roles[r] = true
	}

	var users []user.User
	for _, usr := range repo.db.users {
		if !matches(filter.Search, usr.Name, usr.Email) {
			continue
		}
		if len(roles) > 0 && !roles[usr.Role] {
			continue
		}
		if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
			continue
		}
		if !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom) {
			continue
		}
		if !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo) {
			continue
		}
		users = append(users, *usr)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, isActive *bool) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	existing, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.Name != "" {
		existing.Name = usr.Name
	}
	if usr.Email != "" {
		existing.Email = usr.Email
	}
	if usr.Role != "" {
		existing.Role = usr.Role
	}
	if len(usr.PasswordHash) > 0 {
		existing.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		existing.IsActive = *isActive
	}
	existing.UpdatedAt = usr.UpdatedAt
	return *existing, nil
}

func (repo *userRepository) SetLastLogin(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	existing, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	existing.LastLogin = time.Now().UTC()
	return *existing, nil
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.users, id)
	}
	return nil
}
