package echoapi_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/trezcool/darasa/core/user"
)

func Test_classroomApi_query(t *testing.T) {
	ts := setup(t)
	admin := ts.createUser(t, "Admin", "admin@test.cd", user.RoleAdministrator, true)
	supervisor := ts.createUser(t, "Neema", "neema@test.cd", user.RoleSupervisor, true)
	student := ts.createUser(t, "Imara", "imara@test.cd", user.RoleStudent, true)

	form1 := ts.createClassroom(t, "Form 1", nil, []string{supervisor.ID})
	form2 := ts.createClassroom(t, "Form 2", nil, nil)

	tests := []httpTest{
		{name: "auth required", path: "/v1/classrooms", wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken)},
		{name: "students forbidden", path: "/v1/classrooms", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)},
		{name: "admin sees all", path: "/v1/classrooms?ordering=name", token: getToken(t, admin)},
		{name: "supervisor sees theirs only", path: "/v1/classrooms", token: getToken(t, supervisor)},
	}
	ts.run(t, tests)

	// supervisor list is scoped to supervised classrooms
	rec := ts.do(t, httpTest{path: "/v1/classrooms", token: getToken(t, supervisor)})
	body := rec.Body.String()
	if want := form1.ID; !strings.Contains(body, want) {
		t.Errorf("supervisor list missing %v: %s", want, body)
	}
	if notWant := form2.ID; strings.Contains(body, notWant) {
		t.Errorf("supervisor list leaked %v: %s", notWant, body)
	}
}

func Test_classroomApi_detail(t *testing.T) {
	ts := setup(t)
	admin := ts.createUser(t, "Admin", "admin@test.cd", user.RoleAdministrator, true)
	supervisor := ts.createUser(t, "Neema", "neema@test.cd", user.RoleSupervisor, true)

	form1 := ts.createClassroom(t, "Form 1", nil, []string{supervisor.ID})
	form2 := ts.createClassroom(t, "Form 2", nil, nil)

	tests := []httpTest{
		{name: "supervisor reads own classroom", path: "/v1/classrooms/" + form1.ID, token: getToken(t, supervisor)},
		{
			name: "supervisor cannot read others", path: "/v1/classrooms/" + form2.ID, token: getToken(t, supervisor),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
		},
		{name: "admin reads any", path: "/v1/classrooms/" + form2.ID, token: getToken(t, admin)},
		{
			name: "unknown ID", path: "/v1/classrooms/4e8bb617-39e5-44a2-a1be-e6d34bf2db28", token: getToken(t, admin),
			wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound),
		},
	}
	ts.run(t, tests)
}

func Test_classroomApi_membership(t *testing.T) {
	ts := setup(t)
	admin := ts.createUser(t, "Admin", "admin@test.cd", user.RoleAdministrator, true)
	supervisor := ts.createUser(t, "Neema", "neema@test.cd", user.RoleSupervisor, true)
	student := ts.createUser(t, "Imara", "imara@test.cd", user.RoleStudent, true)

	cls := ts.createClassroom(t, "Form 1", nil, nil)
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{
			name: "assign students OK", method: http.MethodPut, path: "/v1/classrooms/" + cls.ID + "/students",
			token: adminToken, body: marshallObj(t, map[string]interface{}{"user_ids": []string{student.ID}}),
		},
		{
			name: "supervisor in student list rejected", method: http.MethodPut, path: "/v1/classrooms/" + cls.ID + "/students",
			token: adminToken, body: marshallObj(t, map[string]interface{}{"user_ids": []string{supervisor.ID}}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "assign supervisors OK", method: http.MethodPut, path: "/v1/classrooms/" + cls.ID + "/supervisors",
			token: adminToken, body: marshallObj(t, map[string]interface{}{"user_ids": []string{supervisor.ID}}),
		},
		{
			name: "assignment requires admin", method: http.MethodPut, path: "/v1/classrooms/" + cls.ID + "/students",
			token: getToken(t, supervisor), body: marshallObj(t, map[string]interface{}{"user_ids": []string{student.ID}}),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		},
	}
	ts.run(t, tests)
}

func Test_classroomApi_crud(t *testing.T) {
	ts := setup(t)
	admin := ts.createUser(t, "Admin", "admin@test.cd", user.RoleAdministrator, true)
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{
			name: "create OK", method: http.MethodPost, path: "/v1/classrooms",
			token: adminToken, body: []byte(`{"name": "Form 3"}`), wantCode: http.StatusCreated,
		},
		{
			name: "duplicate name", method: http.MethodPost, path: "/v1/classrooms",
			token: adminToken, body: []byte(`{"name": "form 3"}`), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"name": "a classroom with this name already exists"}),
		},
	}
	ts.run(t, tests)
}
