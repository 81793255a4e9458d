package progress_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/core/video"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

func TestThreshold(t *testing.T) {
	tests := []struct {
		duration int
		want     int
	}{
		{duration: 600, want: 540},
		{duration: 100, want: 90},
		{duration: 10, want: 10},   // floor kicks in
		{duration: 5, want: 10},    // short videos still need 10s
		{duration: 11, want: 10},   // floor(9.9) < 10
		{duration: 0, want: 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, progress.Threshold(tt.duration), "Threshold(%d)", tt.duration)
	}
}

func TestIsCompleted(t *testing.T) {
	tests := []struct {
		name     string
		position int
		duration int
		want     bool
	}{
		{name: "at 90%", position: 540, duration: 600, want: true},
		{name: "just under 90%", position: 539, duration: 600, want: false},
		{name: "short video at floor", position: 10, duration: 12, want: false},
		{name: "short video full", position: 12, duration: 12, want: true},
		{name: "unknown duration never completes by position", position: 10000, duration: 0, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, progress.IsCompleted(tt.position, tt.duration))
		})
	}
}

func newTestService(db *inmemdb.DB, cache progress.Cache) progress.Service {
	return progress.NewService(inmemdb.NewProgressRepository(db), cache, &core.Config{
		Redis: core.RedisConfig{StatsTTL: time.Minute},
	})
}

func TestService_SaveProgress_lastWriteWins(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(inmemdb.NewDB(), nil)

	assert.NoError(t, svc.SaveProgress(ctx, "stud1", "vid1", 120, false))
	assert.NoError(t, svc.SaveProgress(ctx, "stud1", "vid1", 90, false)) // rewinds are kept as-is

	rec, err := svc.Get(ctx, "stud1", "vid1")
	assert.NoError(t, err)
	assert.Equal(t, 90, rec.WatchedDuration)
	assert.False(t, rec.Completed)

	// negative positions are clamped
	assert.NoError(t, svc.SaveProgress(ctx, "stud1", "vid1", -5, false))
	rec, err = svc.Get(ctx, "stud1", "vid1")
	assert.NoError(t, err)
	assert.Equal(t, 0, rec.WatchedDuration)
}

func TestService_Get_notFound(t *testing.T) {
	svc := newTestService(inmemdb.NewDB(), nil)
	_, err := svc.Get(context.Background(), "stud1", "vid1")
	assert.ErrorIs(t, err, progress.ErrNotFound)
}

// fakeCache records reads/writes; a hit short-circuits the repository.
type fakeCache struct {
	data map[string][]byte
	gets int
	sets int
}

func (c *fakeCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	c.gets++
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *fakeCache) SetJSON(_ context.Context, key string, val interface{}, _ time.Duration) error {
	c.sets++
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func TestService_StatsForStudent_cached(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.NewDB()
	cache := &fakeCache{data: make(map[string][]byte)}
	svc := newTestService(db, cache)

	assert.NoError(t, svc.SaveProgress(ctx, "stud1", "vid1", 540, true))

	stats1, err := svc.StatsForStudent(ctx, "stud1")
	assert.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	stats2, err := svc.StatsForStudent(ctx, "stud1")
	assert.NoError(t, err)
	assert.Equal(t, stats1, stats2)
	assert.Equal(t, 1, cache.sets, "second read must come from the cache")
	assert.Equal(t, 2, cache.gets)
}

func TestService_ExportCSV(t *testing.T) {
	ctx := context.Background()
	db := inmemdb.NewDB()
	svc := newTestService(db, nil)
	stud, vid := seedAdminRow(t, db)

	assert.NoError(t, svc.SaveProgress(ctx, stud, vid, 300, false))

	var buf bytes.Buffer
	assert.NoError(t, svc.ExportCSV(ctx, &buf, progress.AdminFilter{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t,
		"student_name,student_email,classrooms,video_title,category_name,watched_duration,video_duration,percent_viewed,completed,last_watched_at",
		lines[0])
	assert.Contains(t, lines[1], "imara@test.cd")
	assert.Contains(t, lines[1], ",300,600,50,false,")
}

// seedAdminRow creates a student enrolled in a classroom with one 600s video.
func seedAdminRow(t *testing.T, db *inmemdb.DB) (studentID, videoID string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	usr, err := inmemdb.NewUserRepository(db).CreateUser(ctx, user.User{
		Name: "Imara", Email: "imara@test.cd", Role: user.RoleStudent, IsActive: true,
		CreatedAt: now, UpdatedAt: now,
	})
	assert.NoError(t, err)

	videoRepo := inmemdb.NewVideoRepository(db)
	cat, err := videoRepo.CreateCategory(ctx, video.Category{Name: "Maths", CreatedAt: now, UpdatedAt: now})
	assert.NoError(t, err)
	vid, err := videoRepo.CreateVideo(ctx, video.Video{
		CategoryID: cat.ID, Title: "Algebra", URL: "https://youtu.be/alg123", Duration: 600, Published: true,
		CreatedAt: now, UpdatedAt: now,
	})
	assert.NoError(t, err)

	classroomRepo := inmemdb.NewClassroomRepository(db)
	cls, err := classroomRepo.CreateClassroom(ctx, classroom.Classroom{Name: "Form 1", CreatedAt: now, UpdatedAt: now})
	assert.NoError(t, err)
	assert.NoError(t, classroomRepo.SetStudents(ctx, cls.ID, []string{usr.ID}))
	assert.NoError(t, videoRepo.SetCategoryAccess(ctx, cat.ID, []string{cls.ID}))

	return usr.ID, vid.ID
}
