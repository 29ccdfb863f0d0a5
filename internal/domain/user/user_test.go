package user

import "testing"

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Chef@Example.COM "); got != "chef@example.com" {
		t.Fatalf("NormalizeEmail() = %q", got)
	}
}

func TestRoleAndStatus(t *testing.T) {
	u := User{Role: RoleAdmin, Status: StatusBlocked}
	if !u.IsAdmin() {
		t.Fatalf("expected admin")
	}
	if u.IsActive() {
		t.Fatalf("blocked user must not be active")
	}
}
