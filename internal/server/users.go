package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"cordis/internal/hub"
	"cordis/internal/models"

	"github.com/go-chi/chi/v5"
)

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var avatar sql.NullString
	var settingsJSON string

	err := row.Scan(&user.ID, &user.Username, &user.Discriminator, &avatar, &user.Status, &settingsJSON)
	if err != nil {
		return nil, err
	}

	user.Avatar = avatar.String
	if err := json.Unmarshal([]byte(settingsJSON), &user.Settings); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser answers the profile row, with the cached presence overriding the
// stored status when present. A missing user is a JSON null, not a 404.
func GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	row := db.QueryRow("SELECT id, username, discriminator, avatar, status, settings FROM users WHERE id = ?", userID)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("null"))
		return
	} else if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	if cached, err := presence.Get(r.Context(), "presence:"+userID); err == nil && cached != "" {
		user.Status = models.UserStatus(cached)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(user); err != nil {
		sugar.Error(err)
	}
}

// UpdateUser applies a partial field map. Absent keys stay untouched, which
// is why this takes a map and not a struct. All writes land in one
// transaction so a rejected field leaves the profile as it was.
func UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	tx, err := db.Begin()
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	columns := map[string]string{
		"username":      "username",
		"discriminator": "discriminator",
		"avatar":        "avatar",
		"status":        "status",
	}

	for field, column := range columns {
		raw, ok := fields[field]
		if !ok {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			http.Error(w, "", http.StatusBadRequest)
			return
		}
		if _, err := tx.Exec("UPDATE users SET "+column+" = ? WHERE id = ?", value, userID); err != nil {
			sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
			return
		}
	}

	if raw, ok := fields["settings"]; ok {
		// round-trip through the struct so junk keys don't land in the column
		var settings models.UserSettings
		if err := json.Unmarshal(raw, &settings); err != nil {
			http.Error(w, "", http.StatusBadRequest)
			return
		}
		settingsJSON, err := json.Marshal(settings)
		if err != nil {
			sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
			return
		}
		if _, err := tx.Exec("UPDATE users SET settings = ? WHERE id = ?", string(settingsJSON), userID); err != nil {
			sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(); err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	respondSuccess(w)
}

// UpdateStatus writes presence to the cache and the users row, then fans the
// change out to everyone watching the server list.
func UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var body struct {
		Status models.UserStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	if err := presence.Set(r.Context(), "presence:"+userID, string(body.Status), presenceTTL); err != nil {
		sugar.Error(err)
	}

	if _, err := db.Exec("UPDATE users SET status = ? WHERE id = ?", body.Status, userID); err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	payload := map[string]any{"userId": userID, "status": body.Status}
	if err := events.Emit(hub.UserStatusChanged, hub.ChannelTypeServerList, "", payload); err != nil {
		sugar.Error(err)
	}

	respondSuccess(w)
}

func GetFriends(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	rows, err := db.Query(`
		SELECT u.id, u.username, u.discriminator, u.avatar, u.status, u.settings
		FROM users u
		JOIN friends f ON u.id = f.friend_id
		WHERE f.user_id = ?`, userID)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	friends := []models.User{}
	for rows.Next() {
		var user models.User
		var avatar sql.NullString
		var settingsJSON string

		err := rows.Scan(&user.ID, &user.Username, &user.Discriminator, &avatar, &user.Status, &settingsJSON)
		if err != nil {
			sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
			return
		}
		user.Avatar = avatar.String
		if err := json.Unmarshal([]byte(settingsJSON), &user.Settings); err != nil {
			sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
			return
		}
		friends = append(friends, user)
	}
	if err := rows.Err(); err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(friends); err != nil {
		sugar.Error(err)
	}
}
