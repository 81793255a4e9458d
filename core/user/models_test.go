package user

import "testing"

func TestRoleValid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleOwner, true},
		{RoleAdministrator, true},
		{RoleSupervisor, true},
		{RoleStudent, true},
		{Role("principal"), false},
		{Role(""), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRolePriority(t *testing.T) {
	if RoleOwner.Priority() <= RoleAdministrator.Priority() {
		t.Error("owner must outrank administrator")
	}
	if RoleAdministrator.Priority() <= RoleSupervisor.Priority() {
		t.Error("administrator must outrank supervisor")
	}
	if RoleSupervisor.Priority() <= RoleStudent.Priority() {
		t.Error("supervisor must outrank student")
	}
}

func TestRoleIsAdmin(t *testing.T) {
	for _, role := range AllRoles {
		want := role == RoleOwner || role == RoleAdministrator
		if got := role.IsAdmin(); got != want {
			t.Errorf("%s.IsAdmin() = %v, want %v", role, got, want)
		}
	}
}
