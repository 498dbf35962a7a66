package auth

import "testing"

func TestRolePermissionsSubset(t *testing.T) {
	allowed := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		allowed[perm] = struct{}{}
	}

	for role, perms := range RolePermissions {
		if !role.Valid() {
			t.Fatalf("role %s is not a known role", role)
		}
		if len(perms) == 0 {
			t.Fatalf("role %s has no permissions", role)
		}
		for _, perm := range perms {
			if _, ok := allowed[perm]; !ok {
				t.Fatalf("role %s has unknown permission %s", role, perm)
			}
		}
	}
}

func TestEmployeeCannotManage(t *testing.T) {
	for _, perm := range []string{PermLedgerWrite, PermAccountsManage, PermLeaveReview, PermPayrollManage, PermAttendanceManage, PermAuditRead} {
		if HasPermission(RoleEmployee, perm) {
			t.Fatalf("employee unexpectedly holds %s", perm)
		}
		if !HasPermission(RoleAdmin, perm) {
			t.Fatalf("admin missing %s", perm)
		}
	}
	if !HasPermission(RoleEmployee, PermLeaveSelf) {
		t.Fatal("employee should submit leave")
	}
}
