package roles

import (
	"slices"
	"sort"

	"cordis/internal/models"
)

// Colors that count as "no color set" on a role. The everyone-style fallback
// roles ship with one of these, and they must never win color resolution.
var defaultColors = map[string]bool{
	"#94a3b8": true,
	"#99aab5": true,
}

// UserRoleColor resolves the display color for a user on a server: among the
// roles the user holds, the one with the lowest position (highest authority)
// that has a non-default color wins. The second return value is false when
// there is no server context, the user holds no roles, or every held role
// uses a default color. Callers fall back to the theme color in that case.
func UserRoleColor(user models.User, server *models.Server) (string, bool) {
	if server == nil || len(user.RoleIDs) == 0 {
		return "", false
	}

	held := make([]models.Role, 0, len(user.RoleIDs))
	for _, role := range server.Roles {
		if slices.Contains(user.RoleIDs, role.ID) {
			held = append(held, role)
		}
	}

	sort.SliceStable(held, func(i, j int) bool {
		return held[i].Position < held[j].Position
	})

	for _, role := range held {
		if role.Color != "" && !defaultColors[role.Color] {
			return role.Color, true
		}
	}
	return "", false
}

// HasPermission reports whether the user holds perm through any of their
// roles on the server. ADMINISTRATOR implies every permission.
func HasPermission(user models.User, server *models.Server, perm models.Permission) bool {
	if server == nil {
		return false
	}
	for _, role := range server.Roles {
		if !slices.Contains(user.RoleIDs, role.ID) {
			continue
		}
		if slices.Contains(role.Permissions, models.PermAdministrator) {
			return true
		}
		if slices.Contains(role.Permissions, perm) {
			return true
		}
	}
	return false
}

// DefaultRoles returns the role set every freshly created server starts with.
func DefaultRoles() []models.Role {
	return []models.Role{
		{
			ID:          "r-admin",
			Name:        "Admin",
			Color:       "#ef4444",
			Permissions: []models.Permission{models.PermAdministrator},
			Position:    0,
		},
		{
			ID:          "r-mod",
			Name:        "Moderator",
			Color:       "#6366f1",
			Permissions: []models.Permission{models.PermManageChannels, models.PermSendMessages},
			Position:    1,
		},
		{
			ID:          "r-everyone",
			Name:        "everyone",
			Color:       "#94a3b8",
			Permissions: []models.Permission{models.PermSendMessages, models.PermConnect, models.PermSpeak},
			Position:    2,
		},
	}
}
