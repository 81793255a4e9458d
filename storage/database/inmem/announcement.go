package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/announcement"
	"github.com/trezcool/darasa/core/user"
)

type announcementRepository struct {
	db *DB
}

var _ announcement.Repository = (*announcementRepository)(nil)

func NewAnnouncementRepository(db *DB) *announcementRepository {
	return &announcementRepository{db: db}
}

func (repo *announcementRepository) CreateAnnouncement(_ context.Context, ann announcement.Announcement) (announcement.Announcement, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ann.ID = uuid.New().String()
	if author, ok := repo.db.users[ann.AuthorID]; ok {
		ann.AuthorName = author.Name
	}
	repo.db.announcements[ann.ID] = &ann
	return ann, nil
}

// visibleTo must be called with the read lock held.
func (repo *announcementRepository) visibleTo(ann *announcement.Announcement, viewer user.User) bool {
	if len(ann.ClassroomIDs) == 0 || viewer.Role.IsAdmin() {
		return true
	}
	for _, clsID := range ann.ClassroomIDs {
		if repo.db.classroomStudents[clsID][viewer.ID] || repo.db.classroomSupervisors[clsID][viewer.ID] {
			return true
		}
	}
	return false
}

func (repo *announcementRepository) QueryAnnouncementsFor(_ context.Context, viewer user.User) ([]announcement.Announcement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var anns []announcement.Announcement
	for _, ann := range repo.db.announcements {
		if !repo.visibleTo(ann, viewer) {
			continue
		}
		out := *ann
		out.Read = repo.db.announcementReads[ann.ID][viewer.ID]
		anns = append(anns, out)
	}
	sort.Slice(anns, func(i, j int) bool { return anns[i].CreatedAt.After(anns[j].CreatedAt) })
	return anns, nil
}

func (repo *announcementRepository) GetAnnouncementByID(_ context.Context, id string) (announcement.Announcement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ann, ok := repo.db.announcements[id]; ok {
		return *ann, nil
	}
	return announcement.Announcement{}, announcement.ErrNotFound
}

func (repo *announcementRepository) DeleteAnnouncementsByID(_ context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.announcements, id)
		delete(repo.db.announcementReads, id)
	}
	return nil
}

func (repo *announcementRepository) MarkRead(_ context.Context, announcementID, userID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.db.announcementReads[announcementID] == nil {
		repo.db.announcementReads[announcementID] = make(map[string]bool)
	}
	repo.db.announcementReads[announcementID][userID] = true
	return nil
}

func (repo *announcementRepository) CountUnreadFor(_ context.Context, viewer user.User) (int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var count int
	for _, ann := range repo.db.announcements {
		if repo.visibleTo(ann, viewer) && !repo.db.announcementReads[ann.ID][viewer.ID] {
			count++
		}
	}
	return count, nil
}
