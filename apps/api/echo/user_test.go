package echoapi_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/trezcool/darasa/core/user"
)

func Test_userApi_login(t *testing.T) {
	ts := setup(t)
	ts.createUser(t, "Amani", "amani@test.cd", user.RoleStudent, true)
	ts.createUser(t, "Zuri", "zuri@test.cd", user.RoleStudent, false)

	tests := []httpTest{
		{
			name: "OK", method: http.MethodPost, path: "/v1/users/login",
			body: []byte(`{"email": "amani@test.cd", "password": "Password1!"}`),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/users/login",
			body:     []byte(`{"email": "amani@test.cd", "password": "nope"}`),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/users/login",
			body:     []byte(`{"email": "ghost@test.cd", "password": "Password1!"}`),
			wantCode: http.StatusBadRequest, wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", method: http.MethodPost, path: "/v1/users/login",
			body:     []byte(`{"email": "zuri@test.cd", "password": "Password1!"}`),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "missing fields", method: http.MethodPost, path: "/v1/users/login",
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
		},
	}
	ts.run(t, tests)
}

func Test_userApi_register(t *testing.T) {
	ts := setup(t)
	owner := ts.createUser(t, "Owner", "owner@test.cd", user.RoleOwner, true)
	admin := ts.createUser(t, "Admin", "admin@test.cd", user.RoleAdministrator, true)
	student := ts.createUser(t, "Student", "student@test.cd", user.RoleStudent, true)

	body := []byte(`{
		"name": "New Admin", "email": "new@test.cd", "role": "administrator",
		"password": "Password1!", "password_confirm": "Password1!"
	}`)

	tests := []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/v1/users/register", body: body,
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "owner required (student)", method: http.MethodPost, path: "/v1/users/register", body: body,
			token: getToken(t, student), wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)},
		{name: "owner required (admin)", method: http.MethodPost, path: "/v1/users/register", body: body,
			token: getToken(t, admin), wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)},
		{name: "OK", method: http.MethodPost, path: "/v1/users/register", body: body,
			token: getToken(t, owner), wantCode: http.StatusCreated},
		{name: "duplicate email", method: http.MethodPost, path: "/v1/users/register", body: body,
			token: getToken(t, owner), wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"email": "a user with this email already exists"})},
	}
	ts.run(t, tests)
}

func Test_userApi_query(t *testing.T) {
	ts := setup(t)
	admin := ts.createUser(t, "Admin", "admin@test.cd", user.RoleAdministrator, true)
	student := ts.createUser(t, "Hodari", "hodari@test.cd", user.RoleStudent, true)
	ts.createUser(t, "Neema", "neema@test.cd", user.RoleSupervisor, true)

	adminToken := getToken(t, admin)

	path := func(params url.Values) string { return "/v1/users?" + params.Encode() }

	tests := []httpTest{
		{name: "auth required", path: "/v1/users", wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken)},
		{name: "admin required", path: "/v1/users", token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)},
		{name: "get all", path: "/v1/users", token: adminToken},
		{name: "search (unknown)", path: path(url.Values{"search": {"zzz"}}), token: adminToken,
			wantData: marshallList(t)},
		{name: "search by name", path: path(url.Values{"search": {"hoda"}}), token: adminToken,
			wantData: marshallList(t, ts.mustGetUser(t, student.ID))},
		{name: "filter by role", path: path(url.Values{"role": {"supervisor"}, "ordering": {"name"}}), token: adminToken},
	}
	ts.run(t, tests)
}

func Test_userApi_detail(t *testing.T) {
	ts := setup(t)
	admin := ts.createUser(t, "Admin", "admin@test.cd", user.RoleAdministrator, true)
	student := ts.createUser(t, "Imara", "imara@test.cd", user.RoleStudent, true)
	other := ts.createUser(t, "Baraka", "baraka@test.cd", user.RoleStudent, true)

	adminToken := getToken(t, admin)
	studentToken := getToken(t, student)

	tests := []httpTest{
		{name: "self OK", path: "/v1/users/" + student.ID, token: studentToken},
		{name: "admin OK", path: "/v1/users/" + student.ID, token: adminToken},
		{name: "other's account hidden", path: "/v1/users/" + other.ID, token: studentToken,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound)},
		{name: "unknown ID", path: "/v1/users/4e8bb617-39e5-44a2-a1be-e6d34bf2db28", token: adminToken,
			wantCode: http.StatusNotFound, wantData: marshallObj(t, errNotFound)},
		{
			name: "self update name OK", method: http.MethodPut, path: "/v1/users/" + student.ID,
			token: studentToken, body: []byte(`{"name": "Imara M."}`),
		},
		{
			name: "self cannot change role", method: http.MethodPut, path: "/v1/users/" + student.ID,
			token: studentToken, body: []byte(`{"role": "owner"}`),
			wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		},
		{
			name: "admin cannot grant a role above their own", method: http.MethodPut, path: "/v1/users/" + student.ID,
			token: adminToken, body: []byte(`{"role": "owner"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"role": "not enough rights to set this role"}),
		},
		{
			name: "delete requires admin", method: http.MethodDelete, path: "/v1/users/" + student.ID,
			token: studentToken, wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		},
		{
			name: "suicide forbidden", method: http.MethodDelete, path: "/v1/users/" + admin.ID,
			token: adminToken, wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden),
		},
		{
			name: "admin delete OK", method: http.MethodDelete, path: "/v1/users/" + other.ID,
			token: adminToken, wantCode: http.StatusNoContent,
		},
	}
	ts.run(t, tests)
}

func Test_userApi_tokenRefresh(t *testing.T) {
	ts := setup(t)
	student := ts.createUser(t, "Imara", "imara@test.cd", user.RoleStudent, true)

	tests := []httpTest{
		{name: "auth required", method: http.MethodPost, path: "/v1/users/token-refresh",
			wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)},
		{name: "OK", method: http.MethodPost, path: "/v1/users/token-refresh", token: getToken(t, student)},
	}
	ts.run(t, tests)
}

func Test_userApi_passwordReset(t *testing.T) {
	ts := setup(t)
	ts.createUser(t, "Imara", "imara@test.cd", user.RoleStudent, true)

	// the response never leaks whether the account exists
	for _, email := range []string{"imara@test.cd", "ghost@test.cd"} {
		rec := ts.do(t, httpTest{
			method: http.MethodPost, path: "/v1/users/password-reset",
			body: []byte(`{"email": "` + email + `"}`),
		})
		if rec.Code != http.StatusOK {
			t.Errorf("password-reset(%s) code = %v; want %v", email, rec.Code, http.StatusOK)
		}
	}
}
