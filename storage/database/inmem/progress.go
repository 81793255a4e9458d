package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/progress"
)

type progressRepository struct {
	db *DB
}

var _ progress.Repository = (*progressRepository)(nil)

func NewProgressRepository(db *DB) *progressRepository {
	return &progressRepository{db: db}
}

func progressKey(studentID, videoID string) string {
	return studentID + "|" + videoID
}

func (repo *progressRepository) UpsertProgress(_ context.Context, rec progress.Record) (progress.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.progress[progressKey(rec.StudentID, rec.VideoID)] = &rec
	return rec, nil
}

func (repo *progressRepository) GetProgress(_ context.Context, studentID, videoID string) (progress.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rec, ok := repo.db.progress[progressKey(studentID, videoID)]; ok {
		return *rec, nil
	}
	return progress.Record{}, progress.ErrNotFound
}

func (repo *progressRepository) QueryStudentProgress(_ context.Context, studentID string) ([]progress.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var recs []progress.Record
	for _, rec := range repo.db.progress {
		if rec.StudentID == studentID {
			recs = append(recs, *rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].LastWatchedAt.After(recs[j].LastWatchedAt) })
	return recs, nil
}

func (repo *progressRepository) FilterAdminProgress(_ context.Context, filter progress.AdminFilter, _ ...core.DBOrdering) ([]progress.AdminRow, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var rows []progress.AdminRow
	for _, rec := range repo.db.progress {
		usr, ok := repo.db.users[rec.StudentID]
		if !ok {
			continue
		}
		vid, ok := repo.db.videos[rec.VideoID]
		if !ok {
			continue
		}
		if !matches(filter.Search, usr.Name, usr.Email, vid.Title) {
			continue
		}
		if filter.CategoryID != "" && vid.CategoryID != filter.CategoryID {
			continue
		}
		if filter.ClassroomID != "" && !repo.db.classroomStudents[filter.ClassroomID][rec.StudentID] {
			continue
		}
		if filter.Completed != nil && rec.Completed != *filter.Completed {
			continue
		}
		if filter.SupervisorID != "" {
			supervised := false
			for clsID, supervisors := range repo.db.classroomSupervisors {
				if supervisors[filter.SupervisorID] && repo.db.classroomStudents[clsID][rec.StudentID] {
					supervised = true
					break
				}
			}
			if !supervised {
				continue
			}
		}

		var categoryName string
		if cat, ok := repo.db.categories[vid.CategoryID]; ok {
			categoryName = cat.Name
		}
		var classroomNames []string
		for clsID, students := range repo.db.classroomStudents {
			if students[rec.StudentID] {
				if cls, ok := repo.db.classrooms[clsID]; ok {
					classroomNames = append(classroomNames, cls.Name)
				}
			}
		}
		sort.Strings(classroomNames)

		var percent int
		if vid.Duration > 0 {
			percent = rec.WatchedDuration * 100 / vid.Duration
			if percent > 100 {
				percent = 100
			}
		}
		rows = append(rows, progress.AdminRow{
			StudentID:       rec.StudentID,
			StudentName:     usr.Name,
			StudentEmail:    usr.Email,
			Classrooms:      strings.Join(classroomNames, ", "),
			VideoTitle:      vid.Title,
			CategoryName:    categoryName,
			WatchedDuration: rec.WatchedDuration,
			VideoDuration:   vid.Duration,
			PercentViewed:   percent,
			Completed:       rec.Completed,
			LastWatchedAt:   rec.LastWatchedAt,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].LastWatchedAt.After(rows[j].LastWatchedAt) })
	return rows, nil
}

func (repo *progressRepository) StudentStats(_ context.Context, studentID string) (progress.Stats, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var stats progress.Stats

	// total runs over the published videos the student can currently access
	cats := make(map[string]bool)
	for catID, classrooms := range repo.db.categoryAccess {
		for clsID := range classrooms {
			if repo.db.classroomStudents[clsID][studentID] {
				cats[catID] = true
				break
			}
		}
	}
	for _, vid := range repo.db.videos {
		if vid.Published && cats[vid.CategoryID] {
			stats.TotalVideos++
		}
	}

	for _, rec := range repo.db.progress {
		if rec.StudentID != studentID {
			continue
		}
		stats.WatchedSeconds += rec.WatchedDuration
		if rec.Completed {
			stats.CompletedVideos++
		}
	}
	return stats, nil
}
