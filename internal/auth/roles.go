package auth

import "strings"

// Role names stored on cms.users.role.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleAuthor = "author"
)

// roleRank orders roles so that a higher rank satisfies every lower one.
var roleRank = map[string]int{
	RoleAuthor: 1,
	RoleEditor: 2,
	RoleAdmin:  3,
}

// NormalizeRole lowercases a role string and returns "" for unknown roles.
func NormalizeRole(raw string) string {
	role := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := roleRank[role]; !ok {
		return ""
	}
	return role
}

// RoleSatisfies reports whether the held role grants at least the required role.
// Unknown roles never satisfy anything.
func RoleSatisfies(held, required string) bool {
	heldRank, ok := roleRank[NormalizeRole(held)]
	if !ok {
		return false
	}
	requiredRank, ok := roleRank[NormalizeRole(required)]
	if !ok {
		return false
	}
	return heldRank >= requiredRank
}
