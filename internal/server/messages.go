package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"cordis/internal/hub"

	"github.com/go-chi/chi/v5"
)

// messageRow is the snake_case shape messages travel in, matching the table
// layout rather than the client's camelCase model.
type messageRow struct {
	ID         string    `json:"id"`
	ChannelID  string    `json:"channel_id"`
	SenderID   string    `json:"sender_id"`
	Content    string    `json:"content"`
	ReplyToID  string    `json:"reply_to_id,omitempty"`
	Attachment string    `json:"attachment,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func GetMessages(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	rows, err := db.Query(`
		SELECT id, channel_id, sender_id, content, reply_to_id, attachment, timestamp
		FROM messages
		WHERE channel_id = ?
		ORDER BY timestamp`, channelID)
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	messages := []messageRow{}
	for rows.Next() {
		var msg messageRow
		var replyToID, attachment sql.NullString
		var timestamp string

		err := rows.Scan(&msg.ID, &msg.ChannelID, &msg.SenderID, &msg.Content, &replyToID, &attachment, &timestamp)
		if err != nil {
			sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
			return
		}
		msg.ReplyToID = replyToID.String
		msg.Attachment = attachment.String

		msg.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
			return
		}

		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(messages); err != nil {
		sugar.Error(err)
	}
}

// CreateMessage persists a message. Clients send their own IDs so the
// optimistic copy and the stored row stay the same message; rows created on
// behalf of integrations get a snowflake.
func CreateMessage(w http.ResponseWriter, r *http.Request) {
	var msg messageRow
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusBadRequest)
		return
	}
	if msg.ChannelID == "" || msg.SenderID == "" {
		http.Error(w, "Channel ID and sender ID are required", http.StatusBadRequest)
		return
	}

	if msg.ID == "" {
		id, err := ids.GenerateString()
		if err != nil {
			sugar.Error(err)
			http.Error(w, "", http.StatusInternalServerError)
			return
		}
		msg.ID = id
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	_, err := db.Exec("INSERT INTO messages (id, channel_id, sender_id, content, reply_to_id, attachment, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)",
		msg.ID, msg.ChannelID, msg.SenderID, msg.Content, msg.ReplyToID, msg.Attachment, msg.Timestamp.Format(time.RFC3339Nano))
	if err != nil {
		sugar.Error(err)
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	if err := events.Emit(hub.MessageCreated, hub.ChannelTypeChannel, msg.ChannelID, msg); err != nil {
		sugar.Error(err)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		sugar.Error(err)
	}
}

// NotifyTyping fans a transient typing signal out to everyone watching the
// channel. Nothing is stored; the hub frame is the whole effect.
func NotifyTyping(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	var body struct {
		UserID   string `json:"userId"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	payload := map[string]any{"channelId": channelID, "userId": body.UserID, "username": body.Username}
	if err := events.Emit(hub.Typing, hub.ChannelTypeChannel, channelID, payload); err != nil {
		sugar.Error(err)
	}

	respondSuccess(w)
}
