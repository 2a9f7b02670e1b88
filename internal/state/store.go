// Package state is the single authority for what is on screen: active
// server/channel selection, per-channel message lists, typing indicators and
// the modal stack. Mutations apply locally first and are mirrored to the
// backend through a best-effort sync queue.
package state

import (
	"context"
	"slices"
	"sync"
	"time"

	"cordis/internal/models"
	"cordis/internal/voice"

	"go.uber.org/zap"
)

// DMServerID is the sentinel for the "no server" direct-message context.
const DMServerID = "DM"

// Fixed DM threads. The Gemini thread is the designated AI-bot conversation.
const (
	DMGeminiChannelID  = "dm-gemini"
	DMSupportChannelID = "dm-support"
)

const (
	BotUserID   = "gemini"
	BotUsername = "Gemini AI"
	botTrigger  = "gemini"
)

const defaultReplyDelay = 1500 * time.Millisecond

// Gateway is the slice of the backend REST client the store needs.
type Gateway interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpdateUser(ctx context.Context, userID string, fields map[string]any) error
	UpdateStatus(ctx context.Context, userID string, status models.UserStatus) error
	GetFriends(ctx context.Context, userID string) ([]models.User, error)
	GetServers(ctx context.Context) ([]models.Server, error)
	UpsertServer(ctx context.Context, server models.Server) error
	DeleteServer(ctx context.Context, serverID string) error
	GetMessages(ctx context.Context, channelID string) ([]models.Message, error)
	CreateMessage(ctx context.Context, channelID string, msg models.Message) error
}

// Completer is the external AI text collaborator. It never fails; any
// internal error comes back as an apologetic string.
type Completer interface {
	GenerateResponse(ctx context.Context, prompt string) string
}

type Store struct {
	sugar *zap.SugaredLogger
	gw    Gateway
	bot   Completer
	voice *voice.Session
	queue *syncQueue

	mutex           sync.Mutex
	servers         []models.Server
	currentUser     models.User
	messages        map[string][]models.Message
	reactionByUser  map[string]map[string]string // message ID -> user ID -> emoji
	activeServerID  string
	activeChannelID string
	activeVoiceID   string
	manualStatus    models.UserStatus
	modal           Modal
	typingUsers     []string

	replyDelay     time.Duration
	pendingReplies map[*botReplyTask]struct{}
}

func New(currentUser models.User, gw Gateway, bot Completer, session *voice.Session, sugar *zap.SugaredLogger) *Store {
	s := &Store{
		sugar:          sugar,
		gw:             gw,
		bot:            bot,
		voice:          session,
		queue:          newSyncQueue(sugar),
		currentUser:    currentUser,
		messages:       make(map[string][]models.Message),
		reactionByUser: make(map[string]map[string]string),
		activeServerID: DMServerID,
		manualStatus:   currentUser.Status,
		replyDelay:     defaultReplyDelay,
		pendingReplies: make(map[*botReplyTask]struct{}),
	}
	if s.manualStatus == "" || s.manualStatus == models.StatusInCall {
		s.manualStatus = models.StatusOnline
	}

	if session != nil {
		session.SetActiveChangeFunc(s.handleVoiceChange)
		session.SetSoundsEnabledFunc(func() bool {
			s.mutex.Lock()
			defer s.mutex.Unlock()
			return s.currentUser.Settings.NotificationSounds
		})
	}
	return s
}

// Close stops the sync worker and drops any pending bot replies.
func (s *Store) Close() {
	s.mutex.Lock()
	for task := range s.pendingReplies {
		task.cancel()
	}
	s.pendingReplies = make(map[*botReplyTask]struct{})
	s.mutex.Unlock()

	s.queue.Close()
}

// Load pulls the session's starting data from the backend. A failing backend
// leaves the store empty but usable; local state is authoritative either way.
func (s *Store) Load(ctx context.Context) {
	servers, err := s.gw.GetServers(ctx)
	if err != nil {
		s.sugar.Error(err)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.servers = servers
	if len(servers) > 0 {
		s.activeServerID = servers[0].ID
	} else {
		s.activeServerID = DMServerID
	}
	s.activeChannelID = ""
}

// SelectServer switches the active server ('DM' sentinel allowed) and clears
// the channel selection; the next ActiveChannelID read picks the default.
func (s *Store) SelectServer(serverID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.activeServerID = serverID
	s.activeChannelID = ""
}

// SelectChannel makes a TEXT channel active. Selecting a VOICE channel is an
// alias for attempting to join the call instead.
func (s *Store) SelectChannel(ctx context.Context, channelID string) {
	s.mutex.Lock()

	if s.activeServerID != DMServerID {
		if server := s.findServerLocked(s.activeServerID); server != nil {
			if ch := server.FindChannel(channelID); ch != nil && ch.Type == models.ChannelTypeVoice {
				s.mutex.Unlock()
				s.voice.JoinCall(ctx, channelID, false)
				return
			}
		}
	}

	s.activeChannelID = channelID
	alreadyLoaded := len(s.messages[channelID]) > 0
	s.mutex.Unlock()

	if !alreadyLoaded {
		s.loadHistory(ctx, channelID)
	}
}

// loadHistory fetches persisted messages for a channel, keeping any
// optimistic local messages that raced ahead of it.
func (s *Store) loadHistory(ctx context.Context, channelID string) {
	history, err := s.gw.GetMessages(ctx, channelID)
	if err != nil {
		s.sugar.Error(err)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	local := s.messages[channelID]
	merged := make([]models.Message, 0, len(history)+len(local))
	merged = append(merged, history...)
	for _, msg := range local {
		exists := slices.ContainsFunc(merged, func(m models.Message) bool { return m.ID == msg.ID })
		if !exists {
			merged = append(merged, msg)
		}
	}
	s.messages[channelID] = merged
}

// ActiveChannelID resolves the pending default selection: the first channel
// of the first category on a server, or the fixed AI thread in DM context.
func (s *Store) ActiveChannelID() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.activeChannelID != "" {
		return s.activeChannelID
	}

	if s.activeServerID == DMServerID {
		s.activeChannelID = DMGeminiChannelID
		return s.activeChannelID
	}

	if server := s.findServerLocked(s.activeServerID); server != nil {
		s.activeChannelID = server.FirstChannelID()
	}
	return s.activeChannelID
}

func (s *Store) ActiveServerID() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.activeServerID
}

// ActiveServer returns a copy of the active server, or nil in DM context.
func (s *Store) ActiveServer() *models.Server {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	server := s.findServerLocked(s.activeServerID)
	if server == nil {
		return nil
	}
	clone := server.Clone()
	return &clone
}

func (s *Store) Servers() []models.Server {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]models.Server, len(s.servers))
	for i := range s.servers {
		out[i] = s.servers[i].Clone()
	}
	return out
}

func (s *Store) CurrentUser() models.User {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	user := s.currentUser
	user.Status = s.effectiveStatusLocked()
	return user
}

func (s *Store) TypingUsers() []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]string(nil), s.typingUsers...)
}

// SetStatus records the user's manual status choice. The displayed status
// stays IN_CALL for as long as a voice channel is active.
func (s *Store) SetStatus(status models.UserStatus) {
	s.mutex.Lock()
	s.manualStatus = status
	effective := s.effectiveStatusLocked()
	userID := s.currentUser.ID
	s.mutex.Unlock()

	s.queue.Enqueue("update status", func(ctx context.Context) error {
		return s.gw.UpdateStatus(ctx, userID, effective)
	})
}

// EffectiveStatus is the single presence rule: IN_CALL while a voice channel
// is active, otherwise the last manually chosen status.
func (s *Store) EffectiveStatus() models.UserStatus {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.effectiveStatusLocked()
}

func (s *Store) effectiveStatusLocked() models.UserStatus {
	if s.activeVoiceID != "" {
		return models.StatusInCall
	}
	return s.manualStatus
}

func (s *Store) ActiveVoiceChannelID() string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.activeVoiceID
}

// handleVoiceChange reacts to the voice session joining or leaving a call:
// presence flips between IN_CALL and the manual status, and the voice
// channel connected-user sets are reconciled. All servers are walked, since
// the call's channel may no longer belong to the active server by the time
// the user hangs up.
func (s *Store) handleVoiceChange(channelID string) {
	s.mutex.Lock()

	s.activeVoiceID = channelID
	effective := s.effectiveStatusLocked()
	userID := s.currentUser.ID

	for si := range s.servers {
		next := s.servers[si].Clone()
		changed := false
		for ci := range next.Categories {
			for chi := range next.Categories[ci].Channels {
				ch := &next.Categories[ci].Channels[chi]
				if ch.Type != models.ChannelTypeVoice {
					continue
				}
				switch ch.ID {
				case channelID:
					if !slices.Contains(ch.ConnectedUserIDs, userID) {
						ch.ConnectedUserIDs = append(ch.ConnectedUserIDs, userID)
						changed = true
					}
				default:
					if slices.Contains(ch.ConnectedUserIDs, userID) {
						ch.ConnectedUserIDs = slices.DeleteFunc(ch.ConnectedUserIDs, func(id string) bool { return id == userID })
						changed = true
					}
				}
			}
		}
		if changed {
			s.servers[si] = next
		}
	}
	s.mutex.Unlock()

	s.queue.Enqueue("sync presence", func(ctx context.Context) error {
		return s.gw.UpdateStatus(ctx, userID, effective)
	})
}

// UpdateCurrentUser applies profile/settings edits locally, mirrors them into
// every server's member list, and pushes the partial update to the backend.
func (s *Store) UpdateCurrentUser(username string, avatar string, settings models.UserSettings) {
	s.mutex.Lock()

	if username != "" {
		s.currentUser.Username = username
	}
	if avatar != "" {
		s.currentUser.Avatar = avatar
	}
	s.currentUser.Settings = settings

	updated := s.currentUser
	for si := range s.servers {
		for mi := range s.servers[si].Members {
			if s.servers[si].Members[mi].ID == updated.ID {
				s.servers[si].Members[mi] = updated
			}
		}
	}
	userID := updated.ID
	fields := map[string]any{
		"username": updated.Username,
		"avatar":   updated.Avatar,
		"settings": updated.Settings,
	}
	s.mutex.Unlock()

	s.queue.Enqueue("update profile", func(ctx context.Context) error {
		return s.gw.UpdateUser(ctx, userID, fields)
	})
}

func (s *Store) findServerLocked(serverID string) *models.Server {
	for i := range s.servers {
		if s.servers[i].ID == serverID {
			return &s.servers[i]
		}
	}
	return nil
}

func (s *Store) replaceServerLocked(server models.Server) {
	for i := range s.servers {
		if s.servers[i].ID == server.ID {
			s.servers[i] = server
			return
		}
	}
}

func (s *Store) channelExistsLocked(channelID string) bool {
	if channelID == DMGeminiChannelID || channelID == DMSupportChannelID {
		return true
	}
	for i := range s.servers {
		if s.servers[i].FindChannel(channelID) != nil {
			return true
		}
	}
	return false
}
