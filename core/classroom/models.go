package classroom

import (
	"context"
	"time"

	"github.com/trezcool/darasa/core"
)

// Classroom is a named group of students, overseen by zero or more
// supervisors. Category access is granted classroom-wide.
type Classroom struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC

	// populated on detail reads
	StudentIDs    []string `json:"student_ids,omitempty"`
	SupervisorIDs []string `json:"supervisor_ids,omitempty"`
}

type NewClassroom struct {
	Name        string `json:"name" validate:"required,notblank,max=255"`
	Description string `json:"description"`
}

func (nc *NewClassroom) Validate(ctx context.Context, svc Service) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	if err := core.Validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nc.Name)
}

type UpdateClassroom struct {
	Name        string `json:"name" validate:"required,notblank,max=255"`
	Description string `json:"description"`
}

func (uc *UpdateClassroom) Validate(ctx context.Context, svc Service, excluded Classroom) error {
	uc.Name = core.CleanString(uc.Name)
	uc.Description = core.CleanString(uc.Description)
	if err := core.Validate.Struct(uc); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, uc.Name, excluded)
}

// Membership replaces a classroom's member list wholesale.
type Membership struct {
	UserIDs []string `json:"user_ids" validate:"dive,uuid4"`
}

func (m Membership) Validate() error { return core.Validate.Struct(m) }

// QueryFilter applies an AND operation on available fields.
// Search does a case-insensitive match on name/description.
type QueryFilter struct {
	Search string `query:"q"`
	// SupervisorID restricts to classrooms overseen by the given supervisor.
	SupervisorID string `query:"-"`
}
