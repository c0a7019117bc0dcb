package auth

import "testing"

func TestRoleSatisfies_Hierarchy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		held     string
		required string
		want     bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleEditor, true},
		{RoleAdmin, RoleAuthor, true},
		{RoleEditor, RoleAdmin, false},
		{RoleEditor, RoleEditor, true},
		{RoleEditor, RoleAuthor, true},
		{RoleAuthor, RoleEditor, false},
		{RoleAuthor, RoleAuthor, true},
		{"", RoleAuthor, false},
		{RoleAdmin, "superuser", false},
	}

	for _, tc := range cases {
		if got := RoleSatisfies(tc.held, tc.required); got != tc.want {
			t.Fatalf("RoleSatisfies(%q, %q) = %v, want %v", tc.held, tc.required, got, tc.want)
		}
	}
}

func TestNormalizeRole(t *testing.T) {
	t.Parallel()

	if got := NormalizeRole(" Editor "); got != RoleEditor {
		t.Fatalf("unexpected normalized role: %q", got)
	}
	if got := NormalizeRole("root"); got != "" {
		t.Fatalf("expected unknown role to normalize to empty, got %q", got)
	}
}
