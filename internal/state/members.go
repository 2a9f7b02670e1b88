package state

import (
	"slices"

	"cordis/internal/models"

	"github.com/google/uuid"
)

// Role and member management for the server-settings surface. All of these
// follow the immutable-update + full-upsert contract in servers.go.

// CreateRole adds a role with the default permission set at the lowest
// precedence position.
func (s *Store) CreateRole(serverID string, name string, color string) string {
	roleID := "r-" + uuid.NewString()
	s.mutateServer(serverID, func(server *models.Server) bool {
		position := 0
		for _, role := range server.Roles {
			if role.Position >= position {
				position = role.Position + 1
			}
		}
		server.Roles = append(server.Roles, models.Role{
			ID:          roleID,
			Name:        name,
			Color:       color,
			Permissions: []models.Permission{models.PermSendMessages},
			Position:    position,
		})
		return true
	})
	return roleID
}

// DeleteRole removes the role and cascades it out of every member's role
// list so no dangling references remain.
func (s *Store) DeleteRole(serverID string, roleID string) {
	s.mutateServer(serverID, func(server *models.Server) bool {
		before := len(server.Roles)
		server.Roles = slices.DeleteFunc(server.Roles, func(role models.Role) bool { return role.ID == roleID })
		if len(server.Roles) == before {
			return false
		}
		for mi := range server.Members {
			server.Members[mi].RoleIDs = slices.DeleteFunc(server.Members[mi].RoleIDs, func(id string) bool { return id == roleID })
		}
		return true
	})
}

// ToggleRolePermission flips a permission's membership in a role's set.
func (s *Store) ToggleRolePermission(serverID string, roleID string, perm models.Permission) {
	s.mutateServer(serverID, func(server *models.Server) bool {
		for i := range server.Roles {
			if server.Roles[i].ID != roleID {
				continue
			}
			perms := server.Roles[i].Permissions
			if slices.Contains(perms, perm) {
				server.Roles[i].Permissions = slices.DeleteFunc(perms, func(p models.Permission) bool { return p == perm })
			} else {
				server.Roles[i].Permissions = append(perms, perm)
			}
			return true
		}
		return false
	})
}

// ToggleMemberRole assigns the role to the member, or removes it when they
// already hold it.
func (s *Store) ToggleMemberRole(serverID string, userID string, roleID string) {
	s.mutateServer(serverID, func(server *models.Server) bool {
		if !slices.ContainsFunc(server.Roles, func(role models.Role) bool { return role.ID == roleID }) {
			return false
		}
		for mi := range server.Members {
			if server.Members[mi].ID != userID {
				continue
			}
			ids := server.Members[mi].RoleIDs
			if slices.Contains(ids, roleID) {
				server.Members[mi].RoleIDs = slices.DeleteFunc(ids, func(id string) bool { return id == roleID })
			} else {
				server.Members[mi].RoleIDs = append(ids, roleID)
			}
			return true
		}
		return false
	})
}
