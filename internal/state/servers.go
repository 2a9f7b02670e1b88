package state

import (
	"context"
	"slices"

	"cordis/internal/models"
	"cordis/internal/roles"

	"github.com/google/uuid"
)

// Server, category and channel mutations all follow the same shape: build a
// new Server value from a clone, replace it in the collection, then mirror
// the full resource to the backend (category/channel structure has no
// partial patch on the wire).

// CreateServer creates a server owned by the current user with the default
// role set and a starter category/channel, makes it active, and selects its
// first channel.
func (s *Store) CreateServer(name string) string {
	s.mutex.Lock()

	serverID := "s-" + uuid.NewString()
	categoryID := "c-" + uuid.NewString()
	channelID := "ch-" + uuid.NewString()

	server := models.Server{
		ID:      serverID,
		Name:    name,
		OwnerID: s.currentUser.ID,
		Members: []models.User{s.currentUser},
		Roles:   roles.DefaultRoles(),
		Categories: []models.ServerCategory{
			{
				ID:   categoryID,
				Name: "General",
				Channels: []models.Channel{
					{
						ID:               channelID,
						Name:             "ogolny",
						Type:             models.ChannelTypeText,
						ConnectedUserIDs: []string{},
						CategoryID:       categoryID,
					},
				},
			},
		},
	}

	s.servers = append(s.servers, server)
	s.activeServerID = serverID
	s.activeChannelID = channelID
	s.mutex.Unlock()

	s.enqueueServerUpsert(server)
	return serverID
}

// DeleteServer removes the server locally and remotely. The active context
// falls back to the DM sentinel with its fixed AI thread.
func (s *Store) DeleteServer(serverID string) {
	s.mutex.Lock()

	s.servers = slices.DeleteFunc(s.servers, func(server models.Server) bool { return server.ID == serverID })
	if s.activeServerID == serverID {
		s.activeServerID = DMServerID
		s.activeChannelID = DMGeminiChannelID
	}
	if active := s.activeVoiceID; active != "" && !s.channelExistsLocked(active) {
		s.mutex.Unlock()
		s.voice.LeaveCall()
	} else {
		s.mutex.Unlock()
	}

	s.queue.Enqueue("delete server", func(ctx context.Context) error {
		return s.gw.DeleteServer(ctx, serverID)
	})
}

// UpdateServerInfo edits the simple top-level fields (name, icon,
// description) of a server.
func (s *Store) UpdateServerInfo(serverID string, name string, icon string, description string) {
	s.mutateServer(serverID, func(server *models.Server) bool {
		if name != "" {
			server.Name = name
		}
		if icon != "" {
			server.Icon = icon
		}
		server.Description = description
		return true
	})
}

func (s *Store) CreateCategory(name string) string {
	categoryID := "cat-" + uuid.NewString()
	s.mutateActiveServer(func(server *models.Server) bool {
		server.Categories = append(server.Categories, models.ServerCategory{
			ID:       categoryID,
			Name:     name,
			Channels: []models.Channel{},
		})
		return true
	})
	return categoryID
}

func (s *Store) EditCategory(categoryID string, name string) {
	s.mutateActiveServer(func(server *models.Server) bool {
		for i := range server.Categories {
			if server.Categories[i].ID == categoryID {
				server.Categories[i].Name = name
				return true
			}
		}
		return false
	})
}

// DeleteCategory removes a category and all its channels. If the active
// channel lived there, the selection is reset to avoid dangling.
func (s *Store) DeleteCategory(categoryID string) {
	var removed []string
	s.mutateActiveServer(func(server *models.Server) bool {
		idx := slices.IndexFunc(server.Categories, func(cat models.ServerCategory) bool { return cat.ID == categoryID })
		if idx == -1 {
			return false
		}
		for _, ch := range server.Categories[idx].Channels {
			removed = append(removed, ch.ID)
		}
		server.Categories = slices.Delete(server.Categories, idx, idx+1)
		return true
	})

	s.dropSelections(removed)
}

// CreateChannel adds a channel to a category of the active server. New TEXT
// channels become the active selection, mirroring the original flow.
func (s *Store) CreateChannel(categoryID string, name string, channelType models.ChannelType) string {
	channelID := "ch-" + uuid.NewString()
	created := false

	s.mutateActiveServer(func(server *models.Server) bool {
		for i := range server.Categories {
			if server.Categories[i].ID != categoryID {
				continue
			}
			server.Categories[i].Channels = append(server.Categories[i].Channels, models.Channel{
				ID:               channelID,
				Name:             name,
				Type:             channelType,
				ConnectedUserIDs: []string{},
				CategoryID:       categoryID,
			})
			created = true
			return true
		}
		return false
	})

	if !created {
		return ""
	}

	if channelType == models.ChannelTypeText {
		s.mutex.Lock()
		s.activeChannelID = channelID
		s.mutex.Unlock()
	}
	return channelID
}

func (s *Store) EditChannel(channelID string, name string, topic string, isPrivate bool, allowedRoleIDs []string) {
	s.mutateActiveServer(func(server *models.Server) bool {
		ch := server.FindChannel(channelID)
		if ch == nil {
			return false
		}
		if name != "" {
			ch.Name = name
		}
		ch.Topic = topic
		ch.IsPrivate = isPrivate
		ch.AllowedRoleIDs = append([]string(nil), allowedRoleIDs...)
		return true
	})
}

func (s *Store) DeleteChannel(channelID string) {
	s.mutateActiveServer(func(server *models.Server) bool {
		for ci := range server.Categories {
			channels := server.Categories[ci].Channels
			idx := slices.IndexFunc(channels, func(ch models.Channel) bool { return ch.ID == channelID })
			if idx != -1 {
				server.Categories[ci].Channels = slices.Delete(channels, idx, idx+1)
				return true
			}
		}
		return false
	})

	s.dropSelections([]string{channelID})
}

// dropSelections resets any selection pointing at a removed channel and
// hangs up if the active call's channel was among them.
func (s *Store) dropSelections(removedChannelIDs []string) {
	if len(removedChannelIDs) == 0 {
		return
	}

	s.mutex.Lock()
	if slices.Contains(removedChannelIDs, s.activeChannelID) {
		s.activeChannelID = ""
	}
	hangUp := s.activeVoiceID != "" && slices.Contains(removedChannelIDs, s.activeVoiceID)
	s.mutex.Unlock()

	if hangUp {
		s.voice.LeaveCall()
	}
}

// mutateActiveServer applies mutate to a clone of the active server; when it
// reports a change the clone replaces the original and a full upsert is
// queued. Mutations that can't find their target are no-ops, not errors.
func (s *Store) mutateActiveServer(mutate func(server *models.Server) bool) {
	s.mutex.Lock()
	serverID := s.activeServerID
	s.mutex.Unlock()

	if serverID == DMServerID {
		return
	}
	s.mutateServer(serverID, mutate)
}

func (s *Store) mutateServer(serverID string, mutate func(server *models.Server) bool) {
	s.mutex.Lock()

	current := s.findServerLocked(serverID)
	if current == nil {
		s.mutex.Unlock()
		return
	}

	next := current.Clone()
	if !mutate(&next) {
		s.mutex.Unlock()
		return
	}

	s.replaceServerLocked(next)
	s.mutex.Unlock()

	s.enqueueServerUpsert(next)
}

func (s *Store) enqueueServerUpsert(server models.Server) {
	s.queue.Enqueue("upsert server", func(ctx context.Context) error {
		return s.gw.UpsertServer(ctx, server)
	})
}
