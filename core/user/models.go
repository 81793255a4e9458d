package user

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/darasa/core"
)

// Role is the closed set of account roles. Adding a role is a compile-time
// decision: every switch over Role must be revisited.
type Role string

const (
	RoleOwner         Role = "owner"
	RoleAdministrator Role = "administrator"
	RoleSupervisor    Role = "supervisor"
	RoleStudent       Role = "student"
)

var (
	AllRoles = []Role{RoleOwner, RoleAdministrator, RoleSupervisor, RoleStudent}

	rolePriorities = map[Role]int{
		RoleOwner:         40,
		RoleAdministrator: 30,
		RoleSupervisor:    20,
		RoleStudent:       10,
	}

	// RoleChoices is the role list exposed to admin UIs.
	RoleChoices = []RoleChoice{
		{Name: "Student", Value: RoleStudent},
		{Name: "Supervisor", Value: RoleSupervisor},
		{Name: "Administrator", Value: RoleAdministrator},
		{Name: "Owner", Value: RoleOwner},
	}
)

type RoleChoice struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

func (r Role) Valid() bool {
	_, ok := rolePriorities[r]
	return ok
}

func (r Role) Priority() int { return rolePriorities[r] }

// IsAdmin reports whether the role grants the admin portal.
func (r Role) IsAdmin() bool {
	switch r {
	case RoleOwner, RoleAdministrator:
		return true
	case RoleSupervisor, RoleStudent:
		return false
	}
	return false
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsOwner() bool      { return u.Role == RoleOwner }
func (u *User) IsAdmin() bool      { return u.Role.IsAdmin() }
func (u *User) IsSupervisor() bool { return u.Role == RoleSupervisor }
func (u *User) IsStudent() bool    { return u.Role == RoleStudent }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required,notblank"`
	Email           string `json:"email" validate:"required,email"`
	Role            Role   `json:"role" validate:"required,role"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nu *NewUser) Validate(ctx context.Context, svc Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name            string `json:"name"`
	Email           string `json:"email" validate:"omitempty,email"`
	Role            Role   `json:"role" validate:"omitempty,role"`
	IsActive        *bool  `json:"is_active"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, svc Service) error {
	name := core.CleanString(uu.Name)
	if name != "" {
		uu.Name = name
	} else {
		uu.Name = origUsr.Name
	}

	email := core.CleanString(uu.Email, true /* lower */)
	if email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if uu.Role == "" {
		uu.Role = origUsr.Role
	}

	if err := core.Validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate() error { return core.Validate.Struct(rp) }

// QueryFilter applies an AND operation on its non-zero fields.
// Search does a case-insensitive match on one of Name or Email.
type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []Role    `query:"role"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}
