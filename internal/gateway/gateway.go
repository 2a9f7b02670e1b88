// Package gateway is the REST client for the backend. The backend is the
// durable owner of users, servers and messages, but callers treat every
// failure here as non-fatal: local state stays authoritative for the session.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"cordis/internal/models"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method string, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s answered %d", method, path, resp.StatusCode)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

// GetUser fetches a profile. A null body means the user doesn't exist and is
// returned as (nil, nil).
func (c *Client) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user *models.User
	err := c.do(ctx, http.MethodGet, "/api/users/"+userID, nil, &user)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser pushes partial profile fields. The fields map goes out as-is so
// the backend can distinguish absent from zero-valued fields.
func (c *Client) UpdateUser(ctx context.Context, userID string, fields map[string]any) error {
	return c.do(ctx, http.MethodPut, "/api/users/"+userID, fields, nil)
}

func (c *Client) UpdateStatus(ctx context.Context, userID string, status models.UserStatus) error {
	body := map[string]models.UserStatus{"status": status}
	return c.do(ctx, http.MethodPut, "/api/users/"+userID+"/status", body, nil)
}

func (c *Client) GetFriends(ctx context.Context, userID string) ([]models.User, error) {
	var friends []models.User
	err := c.do(ctx, http.MethodGet, "/api/friends/"+userID, nil, &friends)
	if err != nil {
		return nil, err
	}
	return friends, nil
}

func (c *Client) GetServers(ctx context.Context) ([]models.Server, error) {
	var servers []models.Server
	err := c.do(ctx, http.MethodGet, "/api/servers", nil, &servers)
	if err != nil {
		return nil, err
	}
	return servers, nil
}

// serverUpsert is the wire shape of POST /api/servers: roles and categories
// travel as JSON-encoded strings, matching the backend's text columns.
type serverUpsert struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	OwnerID    string `json:"ownerId"`
	Roles      string `json:"roles"`
	Categories string `json:"categories"`
}

// UpsertServer writes the full server resource. Category and channel edits
// always go through here, there is no partial patch for nested structures.
func (c *Client) UpsertServer(ctx context.Context, server models.Server) error {
	rolesJSON, err := json.Marshal(server.Roles)
	if err != nil {
		return err
	}
	categoriesJSON, err := json.Marshal(server.Categories)
	if err != nil {
		return err
	}

	body := serverUpsert{
		ID:         server.ID,
		Name:       server.Name,
		Icon:       server.Icon,
		OwnerID:    server.OwnerID,
		Roles:      string(rolesJSON),
		Categories: string(categoriesJSON),
	}
	return c.do(ctx, http.MethodPost, "/api/servers", body, nil)
}

func (c *Client) DeleteServer(ctx context.Context, serverID string) error {
	return c.do(ctx, http.MethodDelete, "/api/servers/"+serverID, nil, nil)
}

// messageRow is the snake_case row shape the backend speaks for messages.
type messageRow struct {
	ID         string    `json:"id"`
	ChannelID  string    `json:"channel_id"`
	SenderID   string    `json:"sender_id"`
	Content    string    `json:"content"`
	ReplyToID  string    `json:"reply_to_id,omitempty"`
	Attachment string    `json:"attachment,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func toMessage(row messageRow) (models.Message, error) {
	msg := models.Message{
		ID:        row.ID,
		Content:   row.Content,
		SenderID:  row.SenderID,
		Timestamp: row.Timestamp,
		ReplyToID: row.ReplyToID,
	}
	if row.Attachment != "" && row.Attachment != "null" {
		var attachment models.Attachment
		err := json.Unmarshal([]byte(row.Attachment), &attachment)
		if err != nil {
			return msg, err
		}
		msg.Attachment = &attachment
	}
	return msg, nil
}

func (c *Client) GetMessages(ctx context.Context, channelID string) ([]models.Message, error) {
	var rows []messageRow
	err := c.do(ctx, http.MethodGet, "/api/messages/"+channelID, nil, &rows)
	if err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, len(rows))
	for _, row := range rows {
		msg, err := toMessage(row)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (c *Client) CreateMessage(ctx context.Context, channelID string, msg models.Message) error {
	row := messageRow{
		ID:        msg.ID,
		ChannelID: channelID,
		SenderID:  msg.SenderID,
		Content:   msg.Content,
		ReplyToID: msg.ReplyToID,
		Timestamp: msg.Timestamp,
	}
	if msg.Attachment != nil {
		attachmentJSON, err := json.Marshal(msg.Attachment)
		if err != nil {
			return err
		}
		row.Attachment = string(attachmentJSON)
	}
	return c.do(ctx, http.MethodPost, "/api/messages", row, nil)
}
