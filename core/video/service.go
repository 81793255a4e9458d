package video

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrVideoNotFound    = errors.New("video not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("a category with this name already exists")
)

type (
	Repository interface {
		CheckCategoryNameUniqueness(ctx context.Context, name string, excluded ...Category) error
		CreateCategory(ctx context.Context, cat Category) (Category, error)
		QueryCategories(ctx context.Context, ordering ...core.DBOrdering) ([]Category, error)
		GetCategoryByID(ctx context.Context, id string) (Category, error)
		UpdateCategory(ctx context.Context, cat Category) (Category, error)
		DeleteCategoriesByID(ctx context.Context, ids ...string) error

		// GetCategoryAccess returns the classrooms granted access to the category.
		GetCategoryAccess(ctx context.Context, categoryID string) ([]string, error)
		// SetCategoryAccess replaces the category's grant list wholesale.
		SetCategoryAccess(ctx context.Context, categoryID string, classroomIDs []string) error

		CreateVideo(ctx context.Context, vid Video) (Video, error)
		// FilterVideos applies an AND operation on available QueryFilter fields.
		FilterVideos(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Video, error)
		// FilterVideosForStudent returns published videos in categories the
		// student's classrooms have been granted access to.
		FilterVideosForStudent(ctx context.Context, studentID string, filter QueryFilter, ordering ...core.DBOrdering) ([]Video, error)
		GetVideoByID(ctx context.Context, id string) (Video, error)
		UpdateVideo(ctx context.Context, vid Video) (Video, error)
		SetVideoThumbnail(ctx context.Context, id, thumbnailURL string) (Video, error)
		DeleteVideosByID(ctx context.Context, ids ...string) error

		// StudentHasAccess reports whether any of the student's classrooms is
		// granted the video's category.
		StudentHasAccess(ctx context.Context, studentID, videoID string) (bool, error)
	}

	// ObjectUploader stores binary blobs and returns their public URL.
	// services/storage provides the S3 implementation.
	ObjectUploader interface {
		Upload(ctx context.Context, key string, contentType string, body io.Reader) (url string, err error)
	}

	Service interface {
		CheckCategoryUniqueness(ctx context.Context, name string, excluded ...Category) error
		CreateCategory(ctx context.Context, nc NewCategory) (Category, error)
		Categories(ctx context.Context, ordering ...core.DBOrdering) ([]Category, error)
		GetCategory(ctx context.Context, id string) (Category, error)
		UpdateCategory(ctx context.Context, id string, uc UpdateCategory) (Category, error)
		DeleteCategories(ctx context.Context, ids ...string) error
		CategoryAccess(ctx context.Context, categoryID string) (AccessGrant, error)
		GrantCategoryAccess(ctx context.Context, grant AccessGrant) error

		Create(ctx context.Context, nv NewVideo) (Video, error)
		// Filter returns the videos visible to the viewer: staff see all
		// matches, students only published videos their classrooms can access.
		Filter(ctx context.Context, viewer user.User, filter QueryFilter, ordering ...core.DBOrdering) ([]Video, error)
		GetByID(ctx context.Context, id string) (Video, error)
		// GetForWatch resolves the video for playback, enforcing access for
		// student viewers.
		GetForWatch(ctx context.Context, viewer user.User, id string) (Video, error)
		Update(ctx context.Context, id string, uv UpdateVideo) (Video, error)
		UploadThumbnail(ctx context.Context, id, filename, contentType string, body io.Reader) (Video, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo     Repository
		uploader ObjectUploader
		log      core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, uploader ObjectUploader, log core.Logger) Service {
	return &service{
		repo:     repo,
		uploader: uploader,
		log:      log,
	}
}

func (svc *service) CheckCategoryUniqueness(ctx context.Context, name string, excluded ...Category) error {
	if err := svc.repo.CheckCategoryNameUniqueness(ctx, name, excluded...); err != nil {
		if errors.Cause(err) == ErrCategoryExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) CreateCategory(ctx context.Context, nc NewCategory) (Category, error) {
	now := time.Now().UTC()
	cat := Category{
		Name:        nc.Name,
		Description: nc.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateCategory(ctx, cat)
}

func (svc *service) Categories(ctx context.Context, ordering ...core.DBOrdering) ([]Category, error) {
	return svc.repo.QueryCategories(ctx, ordering...)
}

func (svc *service) GetCategory(ctx context.Context, id string) (Category, error) {
	return svc.repo.GetCategoryByID(ctx, id)
}

func (svc *service) UpdateCategory(ctx context.Context, id string, uc UpdateCategory) (Category, error) {
	cat := Category{
		ID:          id,
		Name:        uc.Name,
		Description: uc.Description,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateCategory(ctx, cat)
}

func (svc *service) DeleteCategories(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCategoriesByID(ctx, ids...)
}

func (svc *service) CategoryAccess(ctx context.Context, categoryID string) (AccessGrant, error) {
	if _, err := svc.repo.GetCategoryByID(ctx, categoryID); err != nil {
		return AccessGrant{}, err
	}
	ids, err := svc.repo.GetCategoryAccess(ctx, categoryID)
	if err != nil {
		return AccessGrant{}, err
	}
	return AccessGrant{CategoryID: categoryID, ClassroomIDs: ids}, nil
}

func (svc *service) GrantCategoryAccess(ctx context.Context, grant AccessGrant) error {
	if _, err := svc.repo.GetCategoryByID(ctx, grant.CategoryID); err != nil {
		return err
	}
	return svc.repo.SetCategoryAccess(ctx, grant.CategoryID, grant.ClassroomIDs)
}

func (svc *service) Create(ctx context.Context, nv NewVideo) (Video, error) {
	if _, err := svc.repo.GetCategoryByID(ctx, nv.CategoryID); err != nil {
		return Video{}, err
	}
	now := time.Now().UTC()
	vid := Video{
		CategoryID:  nv.CategoryID,
		Title:       nv.Title,
		Description: nv.Description,
		URL:         nv.URL,
		Duration:    nv.Duration,
		Published:   nv.Published,
		Position:    nv.Position,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateVideo(ctx, vid)
}

func (svc *service) Filter(ctx context.Context, viewer user.User, filter QueryFilter, ordering ...core.DBOrdering) ([]Video, error) {
	filter.Search = core.CleanString(filter.Search)
	if viewer.Role == user.RoleStudent {
		published := true
		filter.Published = &published
		return svc.repo.FilterVideosForStudent(ctx, viewer.ID, filter, ordering...)
	}
	return svc.repo.FilterVideos(ctx, filter, ordering...)
}

func (svc *service) GetByID(ctx context.Context, id string) (Video, error) {
	return svc.repo.GetVideoByID(ctx, id)
}

func (svc *service) GetForWatch(ctx context.Context, viewer user.User, id string) (Video, error) {
	vid, err := svc.repo.GetVideoByID(ctx, id)
	if err != nil {
		return Video{}, err
	}
	if viewer.Role != user.RoleStudent {
		return vid, nil
	}
	// students only reach published videos through granted categories
	if !vid.Published {
		return Video{}, ErrVideoNotFound
	}
	ok, err := svc.repo.StudentHasAccess(ctx, viewer.ID, id)
	if err != nil {
		return Video{}, err
	}
	if !ok {
		return Video{}, ErrVideoNotFound
	}
	return vid, nil
}

func (svc *service) Update(ctx context.Context, id string, uv UpdateVideo) (Video, error) {
	if _, err := svc.repo.GetCategoryByID(ctx, uv.CategoryID); err != nil {
		return Video{}, err
	}
	vid := Video{
		ID:          id,
		CategoryID:  uv.CategoryID,
		Title:       uv.Title,
		Description: uv.Description,
		URL:         uv.URL,
		Duration:    uv.Duration,
		Published:   uv.Published,
		Position:    uv.Position,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateVideo(ctx, vid)
}

func (svc *service) UploadThumbnail(ctx context.Context, id, filename, contentType string, body io.Reader) (Video, error) {
	if _, err := svc.repo.GetVideoByID(ctx, id); err != nil {
		return Video{}, err
	}
	key := fmt.Sprintf("thumbnails/%s/%s%s", id, uuid.New().String(), path.Ext(filename))
	url, err := svc.uploader.Upload(ctx, key, contentType, body)
	if err != nil {
		return Video{}, errors.Wrap(err, "uploading thumbnail")
	}
	return svc.repo.SetVideoThumbnail(ctx, id, url)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteVideosByID(ctx, ids...)
}
