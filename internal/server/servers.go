package server

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"cordis/internal/hub"
	"cordis/internal/models"

	"github.com/go-chi/chi/v5"
)

// serverUpsert is the wire shape clients POST: role and category structure
// travel as JSON-encoded strings, mirroring the text columns they land in.
type serverUpsert struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	OwnerID    string `json:"ownerId"`
	Roles      string `json:"roles"`
	Categories string `json:"categories"`
}

func GetServers(w http.ResponseWriter, r *http.Request) {
	rows, err := db.Query("SELECT id, owner_id, name, icon, description, roles, categories, members FROM servers")
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	servers := []models.Server{}
	for rows.Next() {
		var server models.Server
		var icon, description sql.NullString
		var rolesJSON, categoriesJSON, membersJSON string

		err := rows.Scan(&server.ID, &server.OwnerID, &server.Name, &icon, &description, &rolesJSON, &categoriesJSON, &membersJSON)
		if err != nil {
			sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
			return
		}
		server.Icon = icon.String
		server.Description = description.String

		if err := json.Unmarshal([]byte(rolesJSON), &server.Roles); err != nil {
			sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
			return
		}
		if err := json.Unmarshal([]byte(categoriesJSON), &server.Categories); err != nil {
			sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
			return
		}
		if err := json.Unmarshal([]byte(membersJSON), &server.Members); err != nil {
			sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
			return
		}

		servers = append(servers, server)
	}
	if err := rows.Err(); err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(servers); err != nil {
		sugar.Error(err)
	}
}

// UpsertServer writes the full server resource: update first, insert when the
// row doesn't exist yet. The member list is server-side state and is seeded
// from the owner's profile on insert, updates leave it alone.
func UpsertServer(w http.ResponseWriter, r *http.Request) {
	var upsert serverUpsert
	if err := json.NewDecoder(r.Body).Decode(&upsert); err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}
	if upsert.ID == "" || upsert.OwnerID == "" {
		http.Error(w, "Server ID and owner ID are required", http.StatusBadRequest)
		return
	}

	// reject structure that wouldn't decode on the way back out
	var roles []models.Role
	if err := json.Unmarshal([]byte(upsert.Roles), &roles); err != nil {
		http.Error(w, "Roles are not valid JSON", http.StatusBadRequest)
		return
	}
	var categories []models.ServerCategory
	if err := json.Unmarshal([]byte(upsert.Categories), &categories); err != nil {
		http.Error(w, "Categories are not valid JSON", http.StatusBadRequest)
		return
	}

	result, err := db.Exec("UPDATE servers SET name = ?, icon = ?, roles = ?, categories = ? WHERE id = ?",
		upsert.Name, upsert.Icon, upsert.Roles, upsert.Categories, upsert.ID)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	affected, err := result.RowsAffected()
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	if affected == 0 {
		members := "[]"
		row := db.QueryRow("SELECT id, username, discriminator, avatar, status, settings FROM users WHERE id = ?", upsert.OwnerID)
		if owner, err := scanUser(row); err == nil {
			if membersJSON, err := json.Marshal([]models.User{*owner}); err == nil {
				members = string(membersJSON)
			}
		}

		_, err = db.Exec("INSERT INTO servers (id, owner_id, name, icon, description, roles, categories, members) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			upsert.ID, upsert.OwnerID, upsert.Name, upsert.Icon, "", upsert.Roles, upsert.Categories, members)
		if err != nil {
			sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
			return
		}
	}

	if err := events.Emit(hub.ServerModified, hub.ChannelTypeServer, upsert.ID, upsert); err != nil {
		sugar.Error(err)
	}

	respondSuccess(w)
}

func DeleteServer(w http.ResponseWriter, r *http.Request) {
	serverID := chi.URLParam(r, "serverID")

	result, err := db.Exec("DELETE FROM servers WHERE id = ?", serverID)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	affected, err := result.RowsAffected()
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	if affected == 0 {
		http.Error(w, "", http.StatusNotFound)
		return
	}

	if err := events.Emit(hub.ServerDeleted, hub.ChannelTypeServerList, "", serverID); err != nil {
		sugar.Error(err)
	}

	respondSuccess(w)
}
