package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/classroom"
)

type classroomRepository struct {
	db *DB
}

var _ classroom.Repository = (*classroomRepository)(nil)

func NewClassroomRepository(db *DB) *classroomRepository {
	return &classroomRepository{db: db}
}

func (repo *classroomRepository) CheckNameUniqueness(_ context.Context, name string, excluded ...classroom.Classroom) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excl := make(map[string]bool, len(excluded))
	for _, cls := range excluded {
		excl[cls.ID] = true
	}
	for _, cls := range repo.db.classrooms {
		if strings.EqualFold(cls.Name, name) && !excl[cls.ID] {
			return classroom.ErrNameExists
		}
	}
	return nil
}

func (repo *classroomRepository) CreateClassroom(_ context.Context, cls classroom.Classroom) (classroom.Classroom, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	cls.ID = uuid.New().String()
	repo.db.classrooms[cls.ID] = &cls
	return cls, nil
}

func (repo *classroomRepository) FilterClassrooms(_ context.Context, filter classroom.QueryFilter, _ ...core.DBOrdering) ([]classroom.Classroom, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var classrooms []classroom.Classroom
	for _, cls := range repo.db.classrooms {
		if !matches(filter.Search, cls.Name, cls.Description) {
			continue
		}
		if filter.SupervisorID != "" && !repo.db.classroomSupervisors[cls.ID][filter.SupervisorID] {
			continue
		}
		classrooms = append(classrooms, *cls)
	}
	sort.Slice(classrooms, func(i, j int) bool { return classrooms[i].Name < classrooms[j].Name })
	return classrooms, nil
}

func (repo *classroomRepository) GetClassroomByID(_ context.Context, id string) (classroom.Classroom, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	cls, ok := repo.db.classrooms[id]
	if !ok {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	out := *cls
	out.StudentIDs = keys(repo.db.classroomStudents[id])
	out.SupervisorIDs = keys(repo.db.classroomSupervisors[id])
	sort.Strings(out.StudentIDs)
	sort.Strings(out.SupervisorIDs)
	return out, nil
}

func (repo *classroomRepository) UpdateClassroom(_ context.Context, cls classroom.Classroom) (classroom.Classroom, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	existing, ok := repo.db.classrooms[cls.ID]
	if !ok {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	existing.Name = cls.Name
	existing.Description = cls.Description
	existing.UpdatedAt = cls.UpdatedAt
	return *existing, nil
}

func (repo *classroomRepository) DeleteClassroomsByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.classrooms, id)
		delete(repo.db.classroomStudents, id)
		delete(repo.db.classroomSupervisors, id)
		for catID := range repo.db.categoryAccess {
			delete(repo.db.categoryAccess[catID], id)
		}
	}
	return nil
}

func (repo *classroomRepository) SetStudents(_ context.Context, classroomID string, studentIDs []string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	set := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		set[id] = true
	}
	repo.db.classroomStudents[classroomID] = set
	return nil
}

func (repo *classroomRepository) SetSupervisors(_ context.Context, classroomID string, supervisorIDs []string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	set := make(map[string]bool, len(supervisorIDs))
	for _, id := range supervisorIDs {
		set[id] = true
	}
	repo.db.classroomSupervisors[classroomID] = set
	return nil
}

func (repo *classroomRepository) Supervises(_ context.Context, supervisorID, classroomID string) (bool, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.classroomSupervisors[classroomID][supervisorID], nil
}
