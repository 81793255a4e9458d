package announcement

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var ErrNotFound = errors.New("announcement not found")

type (
	Repository interface {
		CreateAnnouncement(ctx context.Context, ann Announcement) (Announcement, error)
		// QueryAnnouncementsFor returns the announcements visible to the
		// viewer (global ones plus those targeting the viewer's classrooms),
		// newest first, with the viewer-relative Read flag populated.
		QueryAnnouncementsFor(ctx context.Context, viewer user.User) ([]Announcement, error)
		GetAnnouncementByID(ctx context.Context, id string) (Announcement, error)
		DeleteAnnouncementsByID(ctx context.Context, ids ...string) error

		// MarkRead is idempotent on the (announcement, user) pair.
		MarkRead(ctx context.Context, announcementID, userID string) error
		CountUnreadFor(ctx context.Context, viewer user.User) (int, error)
	}

	// SupervisorChecker reports whether a supervisor oversees a classroom;
	// classroom.Service satisfies it.
	SupervisorChecker interface {
		Supervises(ctx context.Context, supervisorID, classroomID string) (bool, error)
	}

	Service interface {
		// Create posts an announcement. Admin authors may target any
		// classrooms or none (global); supervisor authors must target at
		// least one classroom they oversee.
		Create(ctx context.Context, author user.User, na NewAnnouncement) (Announcement, error)
		// For returns the announcements visible to the viewer, newest first.
		For(ctx context.Context, viewer user.User) ([]Announcement, error)
		GetByID(ctx context.Context, id string) (Announcement, error)
		Delete(ctx context.Context, ids ...string) error
		MarkRead(ctx context.Context, announcementID string, viewer user.User) error
		UnreadCount(ctx context.Context, viewer user.User) (int, error)
	}

	service struct {
		repo        Repository
		supervisors SupervisorChecker
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, supervisors SupervisorChecker) Service {
	return &service{repo: repo, supervisors: supervisors}
}

func (svc *service) Create(ctx context.Context, author user.User, na NewAnnouncement) (Announcement, error) {
	if author.Role == user.RoleSupervisor {
		if err := svc.checkSupervisorTargets(ctx, author, na.ClassroomIDs); err != nil {
			return Announcement{}, err
		}
	}

	now := time.Now().UTC()
	ann := Announcement{
		AuthorID:     author.ID,
		Title:        na.Title,
		Body:         na.Body,
		ClassroomIDs: na.ClassroomIDs,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateAnnouncement(ctx, ann)
}

func (svc *service) For(ctx context.Context, viewer user.User) ([]Announcement, error) {
	return svc.repo.QueryAnnouncementsFor(ctx, viewer)
}

func (svc *service) GetByID(ctx context.Context, id string) (Announcement, error) {
	return svc.repo.GetAnnouncementByID(ctx, id)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAnnouncementsByID(ctx, ids...)
}

func (svc *service) MarkRead(ctx context.Context, announcementID string, viewer user.User) error {
	if _, err := svc.repo.GetAnnouncementByID(ctx, announcementID); err != nil {
		return err
	}
	return svc.repo.MarkRead(ctx, announcementID, viewer.ID)
}

func (svc *service) UnreadCount(ctx context.Context, viewer user.User) (int, error) {
	return svc.repo.CountUnreadFor(ctx, viewer)
}

// checkSupervisorTargets restricts supervisor authors to the classrooms they
// oversee; a global announcement is an admin privilege.
func (svc *service) checkSupervisorTargets(ctx context.Context, author user.User, classroomIDs []string) error {
	if len(classroomIDs) == 0 {
		return core.NewValidationError(nil, core.FieldError{
			Field: "classroom_ids",
			Error: "supervisors must target at least one of their classrooms",
		})
	}
	for _, clsID := range classroomIDs {
		ok, err := svc.supervisors.Supervises(ctx, author.ID, clsID)
		if err != nil {
			return err
		}
		if !ok {
			return core.NewValidationError(nil, core.FieldError{
				Field: "classroom_ids",
				Error: "classroom is not overseen by you",
			})
		}
	}
	return nil
}
