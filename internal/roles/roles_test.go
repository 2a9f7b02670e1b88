package roles_test

import (
	"testing"

	"cordis/internal/models"
	"cordis/internal/roles"
)

func testServer() *models.Server {
	return &models.Server{
		ID:      "s1",
		OwnerID: "u1",
		Roles: []models.Role{
			{ID: "r-admin", Name: "Admin", Color: "#ef4444", Position: 0, Permissions: []models.Permission{models.PermAdministrator}},
			{ID: "r-mod", Name: "Moderator", Color: "#6366f1", Position: 1, Permissions: []models.Permission{models.PermManageChannels, models.PermSendMessages}},
			{ID: "r-everyone", Name: "everyone", Color: "#94a3b8", Position: 2, Permissions: []models.Permission{models.PermSendMessages}},
		},
	}
}

func TestUserRoleColor(t *testing.T) {
	server := testServer()

	tests := []struct {
		name      string
		user      models.User
		server    *models.Server
		wantColor string
		wantOk    bool
	}{
		{
			name:      "no server context",
			user:      models.User{ID: "u1", RoleIDs: []string{"r-admin"}},
			server:    nil,
			wantColor: "",
			wantOk:    false,
		},
		{
			name:      "no roles held",
			user:      models.User{ID: "u1"},
			server:    server,
			wantColor: "",
			wantOk:    false,
		},
		{
			name:      "single colored role",
			user:      models.User{ID: "u1", RoleIDs: []string{"r-mod"}},
			server:    server,
			wantColor: "#6366f1",
			wantOk:    true,
		},
		{
			name:      "lowest position wins",
			user:      models.User{ID: "u1", RoleIDs: []string{"r-mod", "r-admin"}},
			server:    server,
			wantColor: "#ef4444",
			wantOk:    true,
		},
		{
			name:      "default colors are skipped",
			user:      models.User{ID: "u1", RoleIDs: []string{"r-everyone"}},
			server:    server,
			wantColor: "",
			wantOk:    false,
		},
		{
			name:      "default color skipped in favor of lower role",
			user:      models.User{ID: "u1", RoleIDs: []string{"r-everyone", "r-mod"}},
			server:    server,
			wantColor: "#6366f1",
			wantOk:    true,
		},
		{
			name:      "unknown role ids are ignored",
			user:      models.User{ID: "u1", RoleIDs: []string{"r-missing"}},
			server:    server,
			wantColor: "",
			wantOk:    false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			color, ok := roles.UserRoleColor(tc.user, tc.server)
			if color != tc.wantColor || ok != tc.wantOk {
				t.Errorf("UserRoleColor() = (%q, %v), want (%q, %v)", color, ok, tc.wantColor, tc.wantOk)
			}
		})
	}
}

func TestHasPermission(t *testing.T) {
	server := testServer()

	tests := []struct {
		name string
		user models.User
		perm models.Permission
		want bool
	}{
		{
			name: "direct permission",
			user: models.User{ID: "u1", RoleIDs: []string{"r-mod"}},
			perm: models.PermManageChannels,
			want: true,
		},
		{
			name: "administrator implies everything",
			user: models.User{ID: "u1", RoleIDs: []string{"r-admin"}},
			perm: models.PermBanMembers,
			want: true,
		},
		{
			name: "missing permission",
			user: models.User{ID: "u1", RoleIDs: []string{"r-everyone"}},
			perm: models.PermManageServer,
			want: false,
		},
		{
			name: "no roles",
			user: models.User{ID: "u1"},
			perm: models.PermSendMessages,
			want: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := roles.HasPermission(tc.user, server, tc.perm)
			if got != tc.want {
				t.Errorf("HasPermission(%v) = %v, want %v", tc.perm, got, tc.want)
			}
		})
	}
}

func TestHasPermissionNoServer(t *testing.T) {
	user := models.User{ID: "u1", RoleIDs: []string{"r-admin"}}
	if roles.HasPermission(user, nil, models.PermSendMessages) {
		t.Error("HasPermission with nil server should be false")
	}
}
