// Package inmemdb provides map-backed repositories for tests and local
// development; no external database is required.
package inmemdb

import (
	"strings"
	"sync"

	"github.com/trezcool/darasa/core/announcement"
	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/core/video"
)

type DB struct {
	mutex sync.RWMutex

	users      map[string]*user.User
	categories map[string]*video.Category
	videos     map[string]*video.Video
	classrooms map[string]*classroom.Classroom

	// categoryAccess maps categoryID -> set of classroomIDs
	categoryAccess map[string]map[string]bool
	// classroomStudents / classroomSupervisors map classroomID -> set of userIDs
	classroomStudents    map[string]map[string]bool
	classroomSupervisors map[string]map[string]bool

	announcements map[string]*announcement.Announcement
	// announcementReads maps announcementID -> set of userIDs
	announcementReads map[string]map[string]bool

	// progress maps studentID|videoID -> record
	progress map[string]*progress.Record
}

func NewDB() *DB {
	return &DB{
		users:                make(map[string]*user.User),
		categories:           make(map[string]*video.Category),
		videos:               make(map[string]*video.Video),
		classrooms:           make(map[string]*classroom.Classroom),
		categoryAccess:       make(map[string]map[string]bool),
		classroomStudents:    make(map[string]map[string]bool),
		classroomSupervisors: make(map[string]map[string]bool),
		announcements:        make(map[string]*announcement.Announcement),
		announcementReads:    make(map[string]map[string]bool),
		progress:             make(map[string]*progress.Record),
	}
}

func matches(search string, fields ...string) bool {
	if search == "" {
		return true
	}
	search = strings.ToLower(search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
