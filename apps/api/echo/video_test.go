package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/core/video"
)

func Test_videoApi_categories(t *testing.T) {
	ts := setup(t)
	admin := ts.createUser(t, "Admin", "admin@test.cd", user.RoleAdministrator, true)
	student := ts.createUser(t, "Imara", "imara@test.cd", user.RoleStudent, true)

	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "auth required", path: "/v1/categories", wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken)},
		{name: "list OK for any role", path: "/v1/categories", token: getToken(t, student),
			wantData: marshallList(t)},
		{
			name: "create requires admin", method: http.MethodPost, path: "/v1/categories",
			token: getToken(t, student), body: []byte(`{"name": "Maths"}`),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		},
		{
			name: "create OK", method: http.MethodPost, path: "/v1/categories",
			token: adminToken, body: []byte(`{"name": "Maths"}`),
			wantCode: http.StatusCreated,
		},
		{
			name: "duplicate name", method: http.MethodPost, path: "/v1/categories",
			token: adminToken, body: []byte(`{"name": "maths"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"name": "a category with this name already exists"}),
		},
		{
			name: "blank name", method: http.MethodPost, path: "/v1/categories",
			token: adminToken, body: []byte(`{"name": "  "}`),
			wantCode: http.StatusBadRequest,
		},
	}
	ts.run(t, tests)
}

func Test_videoApi_categoryAccess(t *testing.T) {
	ts := setup(t)
	admin := ts.createUser(t, "Admin", "admin@test.cd", user.RoleAdministrator, true)
	cat := ts.createCategory(t, "Maths")
	cls := ts.createClassroom(t, "Form 1", nil, nil)

	adminToken := getToken(t, admin)

	tests := []httpTest{
		{
			name: "empty grant list", path: "/v1/categories/" + cat.ID + "/access", token: adminToken,
			wantData: marshallObj(t, video.AccessGrant{CategoryID: cat.ID, ClassroomIDs: []string{}}),
		},
		{
			name: "grant", method: http.MethodPut, path: "/v1/categories/" + cat.ID + "/access",
			token: adminToken, body: marshallObj(t, map[string]interface{}{"classroom_ids": []string{cls.ID}}),
			wantCode: http.StatusNoContent,
		},
		{
			name: "grant visible", path: "/v1/categories/" + cat.ID + "/access", token: adminToken,
			wantData: marshallObj(t, video.AccessGrant{CategoryID: cat.ID, ClassroomIDs: []string{cls.ID}}),
		},
		{
			name: "unknown category", path: "/v1/categories/4e8bb617-39e5-44a2-a1be-e6d34bf2db28/access",
			token: adminToken, wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
		},
	}
	ts.run(t, tests)
}

func Test_videoApi_query_roleFiltered(t *testing.T) {
	ts := setup(t)
	admin := ts.createUser(t, "Admin", "admin@test.cd", user.RoleAdministrator, true)
	imara := ts.createUser(t, "Imara", "imara@test.cd", user.RoleStudent, true)
	baraka := ts.createUser(t, "Baraka", "baraka@test.cd", user.RoleStudent, true)

	cat := ts.createCategory(t, "Maths")
	hidden := ts.createCategory(t, "Staff room")
	published := ts.createVideo(t, cat.ID, "Algebra", "https://youtu.be/alg123", 600, true)
	ts.createVideo(t, cat.ID, "Draft", "https://youtu.be/drf456", 300, false)
	ts.createVideo(t, hidden.ID, "Secret", "https://youtu.be/sec789", 120, true)

	cls := ts.createClassroom(t, "Form 1", []string{imara.ID}, nil)
	ts.grantAccess(t, cat.ID, cls.ID)

	tests := []httpTest{
		{name: "staff see everything", path: "/v1/videos?ordering=title", token: getToken(t, admin)},
		{
			name: "student sees published+granted only", path: "/v1/videos", token: getToken(t, imara),
			wantData: marshallList(t, published),
		},
		{
			name: "unenrolled student sees nothing", path: "/v1/videos", token: getToken(t, baraka),
			wantData: marshallList(t),
		},
	}
	ts.run(t, tests)
}

func Test_videoApi_watch(t *testing.T) {
	ts := setup(t)
	imara := ts.createUser(t, "Imara", "imara@test.cd", user.RoleStudent, true)
	baraka := ts.createUser(t, "Baraka", "baraka@test.cd", user.RoleStudent, true)

	cat := ts.createCategory(t, "Maths")
	vid := ts.createVideo(t, cat.ID, "Algebra", "https://youtu.be/alg123", 600, true)
	cls := ts.createClassroom(t, "Form 1", []string{imara.ID}, nil)
	ts.grantAccess(t, cat.ID, cls.ID)

	rec := ts.do(t, httpTest{path: "/v1/videos/" + vid.ID + "/watch", token: getToken(t, imara)})
	if rec.Code != http.StatusOK {
		t.Fatalf("watch() code = %v; body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Video    video.Video `json:"video"`
		SourceID string      `json:"source_id"`
		Progress struct {
			WatchedDuration int  `json:"watched_duration"`
			Completed       bool `json:"completed"`
		} `json:"progress"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshalling watch response: %v", err)
	}
	if resp.Video.ID != vid.ID {
		t.Errorf("video.ID = %v; want %v", resp.Video.ID, vid.ID)
	}
	if resp.SourceID != "alg123" {
		t.Errorf("source_id = %q; want %q", resp.SourceID, "alg123")
	}
	if resp.Progress.WatchedDuration != 0 || resp.Progress.Completed {
		t.Errorf("expected zero progress, got %+v", resp.Progress)
	}

	// no access -> hidden
	ts.run(t, []httpTest{
		{
			name: "no classroom access", path: "/v1/videos/" + vid.ID + "/watch", token: getToken(t, baraka),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
		},
	})
}

func Test_videoApi_crud(t *testing.T) {
	ts := setup(t)
	admin := ts.createUser(t, "Admin", "admin@test.cd", user.RoleAdministrator, true)
	student := ts.createUser(t, "Imara", "imara@test.cd", user.RoleStudent, true)
	cat := ts.createCategory(t, "Maths")
	vid := ts.createVideo(t, cat.ID, "Algebra", "https://youtu.be/alg123", 600, false)

	adminToken := getToken(t, admin)

	tests := []httpTest{
		{
			name: "create requires admin", method: http.MethodPost, path: "/v1/videos",
			token:    getToken(t, student),
			body:     []byte(`{"category_id": "` + cat.ID + `", "title": "T", "url": "https://youtu.be/x1"}`),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		},
		{
			name: "create with unknown category", method: http.MethodPost, path: "/v1/videos",
			token:    adminToken,
			body:     []byte(`{"category_id": "4e8bb617-39e5-44a2-a1be-e6d34bf2db28", "title": "T", "url": "https://youtu.be/x1"}`),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
		},
		{
			name: "create OK", method: http.MethodPost, path: "/v1/videos",
			token:    adminToken,
			body:     []byte(`{"category_id": "` + cat.ID + `", "title": "Geometry", "url": "https://youtu.be/geo1", "duration": 480}`),
			wantCode: http.StatusCreated,
		},
		{
			name: "update OK", method: http.MethodPut, path: "/v1/videos/" + vid.ID,
			token: adminToken,
			body:  []byte(`{"category_id": "` + cat.ID + `", "title": "Algebra II", "url": "https://youtu.be/alg123", "published": true}`),
		},
		{
			name: "invalid url", method: http.MethodPut, path: "/v1/videos/" + vid.ID,
			token:    adminToken,
			body:     []byte(`{"category_id": "` + cat.ID + `", "title": "Algebra II", "url": "not-a-url"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "delete OK", method: http.MethodDelete, path: "/v1/videos/" + vid.ID,
			token: adminToken, wantCode: http.StatusNoContent,
		},
	}
	ts.run(t, tests)
}
