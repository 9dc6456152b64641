package domain

// Role identifies the editorial capacity a caller acts in. Roles carry no
// implied hierarchy; every grant is listed explicitly in the permission matrix.
type Role string

const (
	RoleUser             Role = "user"
	RoleEditor           Role = "editor"
	RoleChiefEditor      Role = "chief_editor"
	RolePublishingEditor Role = "publishing_editor"
	RoleModerator        Role = "moderator"
	RoleAdmin            Role = "admin"
)

var allRoles = []Role{
	RoleUser,
	RoleEditor,
	RoleChiefEditor,
	RolePublishingEditor,
	RoleModerator,
	RoleAdmin,
}

// Roles returns every known role.
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// ParseRole coerces the input into a known role.
func ParseRole(input string) (Role, bool) {
	key := normalizeKey(input)
	for _, role := range allRoles {
		if string(role) == key {
			return role, true
		}
	}
	return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok && normalizeKey(string(r)) == string(r)
}

func (r Role) String() string { return string(r) }
