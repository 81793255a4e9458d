package echoapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/trezcool/darasa/core/classroom"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/user"
)

// seedWatchable returns a student enrolled in a classroom with access to a
// published video.
func seedWatchable(t *testing.T, ts *testServer, duration int) (user.User, string) {
	t.Helper()
	student := ts.createUser(t, "Imara", "imara@test.cd", user.RoleStudent, true)
	cat := ts.createCategory(t, "Maths")
	vid := ts.createVideo(t, cat.ID, "Algebra", "https://youtu.be/alg123", duration, true)
	cls := ts.createClassroom(t, "Form 1", []string{student.ID}, nil)
	ts.grantAccess(t, cat.ID, cls.ID)
	return student, vid.ID
}

func Test_progressApi_save(t *testing.T) {
	ts := setup(t)
	student, videoID := seedWatchable(t, ts, 600)
	admin := ts.createUser(t, "Admin", "admin@test.cd", user.RoleAdministrator, true)

	studentToken := getToken(t, student)

	save := func(t *testing.T, body string) progress.Record {
		t.Helper()
		rec := ts.do(t, httpTest{method: http.MethodPut, path: "/v1/progress", token: studentToken, body: []byte(body)})
		if rec.Code != http.StatusOK {
			t.Fatalf("save progress: code = %v; body %s", rec.Code, rec.Body.String())
		}
		var saved progress.Record
		if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
			t.Fatalf("unmarshalling record: %v", err)
		}
		return saved
	}

	// below the completion threshold
	saved := save(t, `{"video_id": "`+videoID+`", "watched_duration": 120}`)
	if saved.Completed {
		t.Errorf("120s/600s should not be completed")
	}

	// clients cannot force completion; the server recomputes it
	saved = save(t, `{"video_id": "`+videoID+`", "watched_duration": 130, "completed": true}`)
	if saved.Completed {
		t.Errorf("completed must be recomputed server-side")
	}

	// 90% of 600s
	saved = save(t, `{"video_id": "`+videoID+`", "watched_duration": 540}`)
	if !saved.Completed {
		t.Errorf("540s/600s should be completed")
	}

	// last write wins
	got, err := ts.progressSvc.Get(context.Background(), student.ID, videoID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.WatchedDuration != 540 {
		t.Errorf("WatchedDuration = %v; want 540", got.WatchedDuration)
	}

	ts.run(t, []httpTest{
		{
			name: "staff cannot save", method: http.MethodPut, path: "/v1/progress",
			token: getToken(t, admin), body: []byte(`{"video_id": "` + videoID + `", "watched_duration": 10}`),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		},
		{
			name: "unknown video", method: http.MethodPut, path: "/v1/progress",
			token: studentToken, body: []byte(`{"video_id": "4e8bb617-39e5-44a2-a1be-e6d34bf2db28", "watched_duration": 10}`),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
		},
		{
			name: "negative duration rejected", method: http.MethodPut, path: "/v1/progress",
			token: studentToken, body: []byte(`{"video_id": "` + videoID + `", "watched_duration": -1}`),
			wantCode: http.StatusBadRequest,
		},
	})
}

func Test_progressApi_save_endedUnknownDuration(t *testing.T) {
	ts := setup(t)
	student, videoID := seedWatchable(t, ts, 0)

	rec := ts.do(t, httpTest{
		method: http.MethodPut, path: "/v1/progress", token: getToken(t, student),
		body: []byte(`{"video_id": "` + videoID + `", "watched_duration": 37, "ended": true}`),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save progress: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var saved progress.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatalf("unmarshalling record: %v", err)
	}
	if !saved.Completed {
		t.Errorf("ended with unknown duration should complete")
	}
}

func Test_progressApi_mine(t *testing.T) {
	ts := setup(t)
	student, videoID := seedWatchable(t, ts, 600)

	if err := ts.progressSvc.SaveProgress(context.Background(), student.ID, videoID, 540, true); err != nil {
		t.Fatalf("SaveProgress() failed: %v", err)
	}

	rec := ts.do(t, httpTest{path: "/v1/progress", token: getToken(t, student)})
	if rec.Code != http.StatusOK {
		t.Fatalf("mine: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Records []progress.Record `json:"records"`
		Stats   progress.Stats    `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshalling response: %v", err)
	}
	if len(resp.Records) != 1 {
		t.Fatalf("len(records) = %v; want 1", len(resp.Records))
	}
	if resp.Stats.TotalVideos != 1 || resp.Stats.CompletedVideos != 1 || resp.Stats.PercentComplete != 100 {
		t.Errorf("stats = %+v; want 1/1/100%%", resp.Stats)
	}
}

func Test_progressApi_admin(t *testing.T) {
	ts := setup(t)
	student, videoID := seedWatchable(t, ts, 600)
	admin := ts.createUser(t, "Admin", "admin@test.cd", user.RoleAdministrator, true)
	supervisor := ts.createUser(t, "Neema", "neema@test.cd", user.RoleSupervisor, true)
	outsider := ts.createUser(t, "Tatu", "tatu@test.cd", user.RoleSupervisor, true)

	// Neema oversees the student's classroom; Tatu oversees nothing
	rec := ts.do(t, httpTest{path: "/v1/classrooms?q=Form+1", token: getToken(t, admin)})
	var classrooms []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &classrooms); err != nil || len(classrooms) != 1 {
		t.Fatalf("finding classroom: %v (%s)", err, rec.Body.String())
	}
	if _, err := ts.classroomSvc.AssignSupervisors(context.Background(), classrooms[0].ID,
		classroom.Membership{UserIDs: []string{supervisor.ID}}); err != nil {
		t.Fatalf("assigning supervisor: %v", err)
	}

	if err := ts.progressSvc.SaveProgress(context.Background(), student.ID, videoID, 300, false); err != nil {
		t.Fatalf("SaveProgress() failed: %v", err)
	}

	rows := func(t *testing.T, token string) []progress.AdminRow {
		t.Helper()
		rec := ts.do(t, httpTest{path: "/v1/progress/admin", token: token})
		if rec.Code != http.StatusOK {
			t.Fatalf("admin view: code = %v; body %s", rec.Code, rec.Body.String())
		}
		var rows []progress.AdminRow
		if err := json.Unmarshal(rec.Body.Bytes(), &rows); err != nil {
			t.Fatalf("unmarshalling rows: %v", err)
		}
		return rows
	}

	if got := rows(t, getToken(t, admin)); len(got) != 1 {
		t.Errorf("admin rows = %v; want 1", len(got))
	} else if got[0].PercentViewed != 50 {
		t.Errorf("percent_viewed = %v; want 50", got[0].PercentViewed)
	}
	if got := rows(t, getToken(t, supervisor)); len(got) != 1 {
		t.Errorf("supervising rows = %v; want 1", len(got))
	}
	if got := rows(t, getToken(t, outsider)); len(got) != 0 {
		t.Errorf("outsider rows = %v; want 0", len(got))
	}

	ts.run(t, []httpTest{
		{
			name: "students forbidden", path: "/v1/progress/admin", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		},
	})
}

func Test_progressApi_export(t *testing.T) {
	ts := setup(t)
	student, videoID := seedWatchable(t, ts, 600)
	admin := ts.createUser(t, "Admin", "admin@test.cd", user.RoleAdministrator, true)

	if err := ts.progressSvc.SaveProgress(context.Background(), student.ID, videoID, 540, true); err != nil {
		t.Fatalf("SaveProgress() failed: %v", err)
	}

	rec := ts.do(t, httpTest{path: "/v1/progress/export", token: getToken(t, admin)})
	if rec.Code != http.StatusOK {
		t.Fatalf("export: code = %v; body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q; want text/csv", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv lines = %v; want header + 1 row:\n%s", len(lines), rec.Body.String())
	}
	if !strings.HasPrefix(lines[0], "student_name,student_email") {
		t.Errorf("unexpected csv header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "imara@test.cd") || !strings.Contains(lines[1], "Algebra") {
		t.Errorf("unexpected csv row: %s", lines[1])
	}
}
