package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"cordis/internal/models"
	"cordis/internal/voice"

	"go.uber.org/zap"
)

type fakeGateway struct {
	mutex sync.Mutex

	failAll bool

	servers        []models.Server
	messagesByChan map[string][]models.Message

	createdMessages []models.Message
	upserts         []models.Server
	deletedServers  []string
	statusUpdates   []models.UserStatus
	userUpdates     []map[string]any

	calls chan string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		messagesByChan: make(map[string][]models.Message),
		calls:          make(chan string, 64),
	}
}

func (g *fakeGateway) record(call string) error {
	select {
	case g.calls <- call:
	default:
	}
	if g.failAll {
		return errors.New("backend unavailable")
	}
	return nil
}

func (g *fakeGateway) GetUser(_ context.Context, userID string) (*models.User, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return nil, g.record("GetUser")
}

func (g *fakeGateway) UpdateUser(_ context.Context, _ string, fields map[string]any) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.userUpdates = append(g.userUpdates, fields)
	return g.record("UpdateUser")
}

func (g *fakeGateway) UpdateStatus(_ context.Context, _ string, status models.UserStatus) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.statusUpdates = append(g.statusUpdates, status)
	return g.record("UpdateStatus")
}

func (g *fakeGateway) GetFriends(_ context.Context, _ string) ([]models.User, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return nil, g.record("GetFriends")
}

func (g *fakeGateway) GetServers(_ context.Context) ([]models.Server, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if err := g.record("GetServers"); err != nil {
		return nil, err
	}
	return g.servers, nil
}

func (g *fakeGateway) UpsertServer(_ context.Context, server models.Server) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.upserts = append(g.upserts, server)
	return g.record("UpsertServer")
}

func (g *fakeGateway) DeleteServer(_ context.Context, serverID string) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.deletedServers = append(g.deletedServers, serverID)
	return g.record("DeleteServer")
}

func (g *fakeGateway) GetMessages(_ context.Context, channelID string) ([]models.Message, error) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	if err := g.record("GetMessages"); err != nil {
		return nil, err
	}
	return g.messagesByChan[channelID], nil
}

func (g *fakeGateway) CreateMessage(_ context.Context, channelID string, msg models.Message) error {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.createdMessages = append(g.createdMessages, msg)
	return g.record("CreateMessage")
}

func (g *fakeGateway) waitForCall(name string, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		select {
		case call := <-g.calls:
			if call == name {
				return true
			}
		case <-deadline:
			return false
		}
	}
}

type fakeCompleter struct {
	mutex   sync.Mutex
	reply   string
	prompts []string
}

func (c *fakeCompleter) GenerateResponse(_ context.Context, prompt string) string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.prompts = append(c.prompts, prompt)
	if c.reply == "" {
		return "beep boop"
	}
	return c.reply
}

func (c *fakeCompleter) lastPrompt() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if len(c.prompts) == 0 {
		return ""
	}
	return c.prompts[len(c.prompts)-1]
}

// Minimal media platform so state tests can drive a real voice.Session.

type stubTrack struct {
	mutex   sync.Mutex
	kind    voice.TrackKind
	live    bool
	enabled bool
}

func (t *stubTrack) Kind() voice.TrackKind { return t.kind }
func (t *stubTrack) Stop() {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.live = false
}
func (t *stubTrack) SetEnabled(enabled bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.enabled = enabled
}
func (t *stubTrack) Enabled() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.enabled
}
func (t *stubTrack) Live() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.live
}
func (t *stubTrack) OnEnded(func()) {}

type stubStream struct{ tracks []voice.Track }

func (s *stubStream) Tracks() []voice.Track { return s.tracks }

type stubProvider struct{}

func (stubProvider) GetUserMedia(_ context.Context, _ bool, video bool) (voice.Stream, error) {
	tracks := []voice.Track{&stubTrack{kind: voice.TrackAudio, live: true, enabled: true}}
	if video {
		tracks = append(tracks, &stubTrack{kind: voice.TrackVideo, live: true, enabled: true})
	}
	return &stubStream{tracks: tracks}, nil
}

func (stubProvider) GetDisplayMedia(_ context.Context) (voice.Stream, error) {
	return &stubStream{tracks: []voice.Track{&stubTrack{kind: voice.TrackVideo, live: true, enabled: true}}}, nil
}

func (stubProvider) NewAnalyser(_ voice.Stream) (voice.Analyser, error) {
	return stubAnalyser{}, nil
}

type stubAnalyser struct{}

func (stubAnalyser) Level() int { return 0 }
func (stubAnalyser) Close()     {}

type stubNotifier struct{}

func (stubNotifier) Play(voice.Sound) {}
func (stubNotifier) Alert(string)     {}

func testUser() models.User {
	return models.User{
		ID:            "u1",
		Username:      "Developer",
		Discriminator: "0001",
		Status:        models.StatusOnline,
		RoleIDs:       []string{"r-admin"},
		Settings:      models.UserSettings{NotificationSounds: true},
	}
}

func testServers() []models.Server {
	return []models.Server{
		{
			ID:      "s1",
			Name:    "React Developers",
			OwnerID: "u1",
			Members: []models.User{
				testUser(),
				{ID: BotUserID, Username: BotUsername, IsBot: true, RoleIDs: []string{"r-mod"}},
			},
			Roles: []models.Role{
				{ID: "r-admin", Name: "Admin", Color: "#ef4444", Position: 0, Permissions: []models.Permission{models.PermAdministrator}},
				{ID: "r-mod", Name: "Moderator", Color: "#6366f1", Position: 1, Permissions: []models.Permission{models.PermSendMessages}},
			},
			Categories: []models.ServerCategory{
				{
					ID:   "c1",
					Name: "Information",
					Channels: []models.Channel{
						{ID: "ch1", Name: "welcome", Type: models.ChannelTypeText, CategoryID: "c1", ConnectedUserIDs: []string{}},
						{ID: "ch2", Name: "announcements", Type: models.ChannelTypeText, CategoryID: "c1", ConnectedUserIDs: []string{}},
					},
				},
				{
					ID:   "c2",
					Name: "General",
					Channels: []models.Channel{
						{ID: "ch3", Name: "general", Type: models.ChannelTypeText, CategoryID: "c2", ConnectedUserIDs: []string{}},
						{ID: "ch5", Name: "Lounge", Type: models.ChannelTypeVoice, CategoryID: "c2", ConnectedUserIDs: []string{}, UserLimit: 10},
					},
				},
			},
		},
	}
}

func newTestStore(gw *fakeGateway, bot *fakeCompleter) (*Store, *voice.Session) {
	sugar := zap.NewNop().Sugar()
	session := voice.NewSession(stubProvider{}, stubNotifier{}, sugar)
	store := New(testUser(), gw, bot, session, sugar)
	store.replyDelay = 10 * time.Millisecond
	store.servers = testServers()
	store.activeServerID = "s1"
	return store, session
}
