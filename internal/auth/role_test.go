package auth

import "testing"

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
	}{
		{"admin", RoleAdmin},
		{"user", RoleUser},
		{"", RoleUser},
		{"superuser", RoleUser},
	}
	for _, tc := range cases {
		if got := ParseRole(tc.in); got != tc.want {
			t.Fatalf("ParseRole(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRoleAuthenticated(t *testing.T) {
	if RoleGuest.Authenticated() {
		t.Fatal("guest role reported authenticated")
	}
	if !RoleUser.Authenticated() || !RoleAdmin.Authenticated() {
		t.Fatal("user and admin roles must be authenticated")
	}
}
