package classroom

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrNotFound   = errors.New("classroom not found")
	ErrNameExists = errors.New("a classroom with this name already exists")
	ErrBadMember  = errors.New("user cannot be a member of this classroom")
)

type (
	Repository interface {
		CheckNameUniqueness(ctx context.Context, name string, excluded ...Classroom) error
		CreateClassroom(ctx context.Context, cls Classroom) (Classroom, error)
		// FilterClassrooms applies an AND operation on available QueryFilter fields.
		FilterClassrooms(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Classroom, error)
		// GetClassroomByID populates StudentIDs and SupervisorIDs.
		GetClassroomByID(ctx context.Context, id string) (Classroom, error)
		UpdateClassroom(ctx context.Context, cls Classroom) (Classroom, error)
		DeleteClassroomsByID(ctx context.Context, ids ...string) error

		// SetStudents and SetSupervisors replace the member list wholesale.
		SetStudents(ctx context.Context, classroomID string, studentIDs []string) error
		SetSupervisors(ctx context.Context, classroomID string, supervisorIDs []string) error
		// Supervises reports whether the supervisor oversees the classroom.
		Supervises(ctx context.Context, supervisorID, classroomID string) (bool, error)
	}

	Service interface {
		CheckUniqueness(ctx context.Context, name string, excluded ...Classroom) error
		Create(ctx context.Context, nc NewClassroom) (Classroom, error)
		// Filter returns the classrooms visible to the viewer; supervisors only
		// see classrooms they oversee.
		Filter(ctx context.Context, viewer user.User, filter QueryFilter, ordering ...core.DBOrdering) ([]Classroom, error)
		GetByID(ctx context.Context, id string) (Classroom, error)
		Update(ctx context.Context, id string, uc UpdateClassroom) (Classroom, error)
		Delete(ctx context.Context, ids ...string) error
		AssignStudents(ctx context.Context, classroomID string, m Membership) (Classroom, error)
		AssignSupervisors(ctx context.Context, classroomID string, m Membership) (Classroom, error)
		Supervises(ctx context.Context, supervisorID, classroomID string) (bool, error)
	}

	service struct {
		repo    Repository
		userSvc user.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, userSvc user.Service) Service {
	return &service{
		repo:    repo,
		userSvc: userSvc,
	}
}

func (svc *service) CheckUniqueness(ctx context.Context, name string, excluded ...Classroom) error {
	if err := svc.repo.CheckNameUniqueness(ctx, name, excluded...); err != nil {
		if errors.Is(err, ErrNameExists) {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, nc NewClassroom) (Classroom, error) {
	now := time.Now().UTC()
	cls := Classroom{
		Name:        nc.Name,
		Description: nc.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateClassroom(ctx, cls)
}

func (svc *service) Filter(ctx context.Context, viewer user.User, filter QueryFilter, ordering ...core.DBOrdering) ([]Classroom, error) {
	filter.Search = core.CleanString(filter.Search)
	if viewer.Role == user.RoleSupervisor {
		filter.SupervisorID = viewer.ID
	}
	return svc.repo.FilterClassrooms(ctx, filter, ordering...)
}

func (svc *service) GetByID(ctx context.Context, id string) (Classroom, error) {
	return svc.repo.GetClassroomByID(ctx, id)
}

func (svc *service) Update(ctx context.Context, id string, uc UpdateClassroom) (Classroom, error) {
	cls := Classroom{
		ID:          id,
		Name:        uc.Name,
		Description: uc.Description,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateClassroom(ctx, cls)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteClassroomsByID(ctx, ids...)
}

func (svc *service) AssignStudents(ctx context.Context, classroomID string, m Membership) (Classroom, error) {
	m.UserIDs = lo.Uniq(m.UserIDs)
	if err := svc.checkMembers(ctx, m.UserIDs, user.RoleStudent); err != nil {
		return Classroom{}, err
	}
	if err := svc.repo.SetStudents(ctx, classroomID, m.UserIDs); err != nil {
		return Classroom{}, err
	}
	return svc.repo.GetClassroomByID(ctx, classroomID)
}

func (svc *service) AssignSupervisors(ctx context.Context, classroomID string, m Membership) (Classroom, error) {
	m.UserIDs = lo.Uniq(m.UserIDs)
	if err := svc.checkMembers(ctx, m.UserIDs, user.RoleSupervisor); err != nil {
		return Classroom{}, err
	}
	if err := svc.repo.SetSupervisors(ctx, classroomID, m.UserIDs); err != nil {
		return Classroom{}, err
	}
	return svc.repo.GetClassroomByID(ctx, classroomID)
}

func (svc *service) Supervises(ctx context.Context, supervisorID, classroomID string) (bool, error) {
	return svc.repo.Supervises(ctx, supervisorID, classroomID)
}

// checkMembers requires each member to exist and carry the expected role.
func (svc *service) checkMembers(ctx context.Context, ids []string, role user.Role) error {
	for _, id := range ids {
		usr, err := svc.userSvc.GetByID(ctx, id)
		if err != nil {
			return core.NewValidationError(ErrBadMember, core.FieldError{Field: "user_ids", Error: err.Error()})
		}
		if usr.Role != role {
			return core.NewValidationError(ErrBadMember, core.FieldError{
				Field: "user_ids",
				Error: ErrBadMember.Error(),
			})
		}
	}
	return nil
}
