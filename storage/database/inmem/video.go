package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/video"
)

type videoRepository struct {
	db *DB
}

var _ video.Repository = (*videoRepository)(nil)

func NewVideoRepository(db *DB) *videoRepository {
	return &videoRepository{db: db}
}

func (repo *videoRepository) CheckCategoryNameUniqueness(_ context.Context, name string, excluded ...video.Category) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excl := make(map[string]bool, len(excluded))
	for _, cat := range excluded {
		excl[cat.ID] = true
	}
	for _, cat := range repo.db.categories {
		if strings.EqualFold(cat.Name, name) && !excl[cat.ID] {
			return video.ErrCategoryExists
		}
	}
	return nil
}

func (repo *videoRepository) CreateCategory(_ context.Context, cat video.Category) (video.Category, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cat.ID = uuid.New().String()
	repo.db.categories[cat.ID] = &cat
	return cat, nil
}

func (repo *videoRepository) QueryCategories(_ context.Context, _ ...core.DBOrdering) ([]video.Category, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	cats := make([]video.Category, 0, len(repo.db.categories))
	for _, cat := range repo.db.categories {
		cats = append(cats, *cat)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

func (repo *videoRepository) GetCategoryByID(_ context.Context, id string) (video.Category, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if cat, ok := repo.db.categories[id]; ok {
		return *cat, nil
	}
	return video.Category{}, video.ErrCategoryNotFound
}

func (repo *videoRepository) UpdateCategory(_ context.Context, cat video.Category) (video.Category, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	existing, ok := repo.db.categories[cat.ID]
	if !ok {
		return video.Category{}, video.ErrCategoryNotFound
	}
	existing.Name = cat.Name
	existing.Description = cat.Description
	existing.UpdatedAt = cat.UpdatedAt
	return *existing, nil
}

func (repo *videoRepository) DeleteCategoriesByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.categories, id)
		delete(repo.db.categoryAccess, id)
		for vidID, vid := range repo.db.videos {
			if vid.CategoryID == id {
				delete(repo.db.videos, vidID)
			}
		}
	}
	return nil
}

func (repo *videoRepository) GetCategoryAccess(_ context.Context, categoryID string) ([]string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ids := keys(repo.db.categoryAccess[categoryID])
	sort.Strings(ids)
	return ids, nil
}

func (repo *videoRepository) SetCategoryAccess(_ context.Context, categoryID string, classroomIDs []string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	set := make(map[string]bool, len(classroomIDs))
	for _, id := range classroomIDs {
		set[id] = true
	}
	repo.db.categoryAccess[categoryID] = set
	return nil
}

func (repo *videoRepository) CreateVideo(_ context.Context, vid video.Video) (video.Video, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	vid.ID = uuid.New().String()
	repo.db.videos[vid.ID] = &vid
	return vid, nil
}

func (repo *videoRepository) filter(filter video.QueryFilter) []video.Video {
	var vids []video.Video
	for _, vid := range repo.db.videos {
		if !matches(filter.Search, vid.Title, vid.Description) {
			continue
		}
		if filter.CategoryID != "" && vid.CategoryID != filter.CategoryID {
			continue
		}
		if filter.Published != nil && vid.Published != *filter.Published {
			continue
		}
		vids = append(vids, *vid)
	}
	sort.Slice(vids, func(i, j int) bool {
		if vids[i].Position != vids[j].Position {
			return vids[i].Position < vids[j].Position
		}
		return vids[i].CreatedAt.Before(vids[j].CreatedAt)
	})
	return vids
}

func (repo *videoRepository) FilterVideos(_ context.Context, filter video.QueryFilter, _ ...core.DBOrdering) ([]video.Video, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.filter(filter), nil
}

// accessibleCategories returns the category IDs granted to any classroom the
// student belongs to. Callers must hold the read lock.
func (repo *videoRepository) accessibleCategories(studentID string) map[string]bool {
	cats := make(map[string]bool)
	for catID, classrooms := range repo.db.categoryAccess {
		for clsID := range classrooms {
			if repo.db.classroomStudents[clsID][studentID] {
				cats[catID] = true
				break
			}
		}
	}
	return cats
}

func (repo *videoRepository) FilterVideosForStudent(_ context.Context, studentID string, filter video.QueryFilter, _ ...core.DBOrdering) ([]video.Video, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	cats := repo.accessibleCategories(studentID)
	var vids []video.Video
	for _, vid := range repo.filter(filter) {
		if cats[vid.CategoryID] {
			vids = append(vids, vid)
		}
	}
	return vids, nil
}

func (repo *videoRepository) GetVideoByID(_ context.Context, id string) (video.Video, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if vid, ok := repo.db.videos[id]; ok {
		return *vid, nil
	}
	return video.Video{}, video.ErrVideoNotFound
}

func (repo *videoRepository) UpdateVideo(_ context.Context, vid video.Video) (video.Video, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	existing, ok := repo.db.videos[vid.ID]
	if !ok {
		return video.Video{}, video.ErrVideoNotFound
	}
	existing.CategoryID = vid.CategoryID
	existing.Title = vid.Title
	existing.Description = vid.Description
	existing.URL = vid.URL
	existing.Duration = vid.Duration
	existing.Published = vid.Published
	existing.Position = vid.Position
	existing.UpdatedAt = vid.UpdatedAt
	return *existing, nil
}

func (repo *videoRepository) SetVideoThumbnail(_ context.Context, id, thumbnailURL string) (video.Video, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	existing, ok := repo.db.videos[id]
	if !ok {
		return video.Video{}, video.ErrVideoNotFound
	}
	existing.ThumbnailURL = thumbnailURL
	existing.UpdatedAt = time.Now().UTC()
	return *existing, nil
}

func (repo *videoRepository) DeleteVideosByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.videos, id)
	}
	return nil
}

func (repo *videoRepository) StudentHasAccess(_ context.Context, studentID, videoID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	vid, ok := repo.db.videos[videoID]
	if !ok {
		return false, nil
	}
	return repo.accessibleCategories(studentID)[vid.CategoryID], nil
}
