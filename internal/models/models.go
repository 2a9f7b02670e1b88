package models

import "time"

type ChannelType string

const (
	ChannelTypeText  ChannelType = "TEXT"
	ChannelTypeVoice ChannelType = "VOICE"
)

type UserStatus string

const (
	StatusOnline  UserStatus = "ONLINE"
	StatusIdle    UserStatus = "IDLE"
	StatusDND     UserStatus = "DND"
	StatusOffline UserStatus = "OFFLINE"
	StatusInCall  UserStatus = "IN_CALL"
)

type Language string

const (
	LanguagePL Language = "pl"
	LanguageEN Language = "en"
)

type Theme string

const (
	ThemeDark   Theme = "dark"
	ThemeLight  Theme = "light"
	ThemeAmoled Theme = "amoled"
)

type Permission string

const (
	PermAdministrator      Permission = "ADMINISTRATOR"
	PermManageServer       Permission = "MANAGE_SERVER"
	PermManageRoles        Permission = "MANAGE_ROLES"
	PermManageChannels     Permission = "MANAGE_CHANNELS"
	PermKickMembers        Permission = "KICK_MEMBERS"
	PermBanMembers         Permission = "BAN_MEMBERS"
	PermCreateInvite       Permission = "CREATE_INVITE"
	PermChangeNickname     Permission = "CHANGE_NICKNAME"
	PermManageNicknames    Permission = "MANAGE_NICKNAMES"
	PermSendMessages       Permission = "SEND_MESSAGES"
	PermEmbedLinks         Permission = "EMBED_LINKS"
	PermAttachFiles        Permission = "ATTACH_FILES"
	PermAddReactions       Permission = "ADD_REACTIONS"
	PermUseExternalEmojis  Permission = "USE_EXTERNAL_EMOJIS"
	PermMentionEveryone    Permission = "MENTION_EVERYONE"
	PermManageMessages     Permission = "MANAGE_MESSAGES"
	PermReadMessageHistory Permission = "READ_MESSAGE_HISTORY"
	PermSendTTSMessages    Permission = "SEND_TTS_MESSAGES"
	PermConnect            Permission = "CONNECT"
	PermSpeak              Permission = "SPEAK"
	PermStream             Permission = "STREAM"
	PermMuteMembers        Permission = "MUTE_MEMBERS"
	PermDeafenMembers      Permission = "DEAFEN_MEMBERS"
	PermMoveMembers        Permission = "MOVE_MEMBERS"
	PermUseVAD             Permission = "USE_VAD"
)

type AttachmentType string

const (
	AttachmentImage AttachmentType = "IMAGE"
	AttachmentGIF   AttachmentType = "GIF"
	AttachmentAudio AttachmentType = "AUDIO"
)

type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Color       string       `json:"color"`
	Permissions []Permission `json:"permissions"`
	Position    int          `json:"position"`
}

type UserSettings struct {
	Language              Language `json:"language"`
	Theme                 Theme    `json:"theme"`
	Notifications         bool     `json:"notifications"`
	NotificationSounds    bool     `json:"notificationSounds"`
	DisplayDensity        string   `json:"displayDensity"` // COZY or COMPACT
	VoiceSensitivity      int      `json:"voiceSensitivity"`
	PrivacyShowActivity   bool     `json:"privacyShowActivity"`
	PrivacyDirectMessages bool     `json:"privacyDirectMessages"`
	Email                 string   `json:"email,omitempty"`
	Phone                 string   `json:"phone,omitempty"`
	InputDeviceID         string   `json:"inputDeviceId,omitempty"`
	OutputDeviceID        string   `json:"outputDeviceId,omitempty"`
	VideoDeviceID         string   `json:"videoDeviceId,omitempty"`
}

type User struct {
	ID            string       `json:"id"`
	Username      string       `json:"username"`
	Discriminator string       `json:"discriminator"`
	Avatar        string       `json:"avatar,omitempty"`
	Status        UserStatus   `json:"status"`
	CustomStatus  string       `json:"customStatus,omitempty"`
	AboutMe       string       `json:"aboutMe,omitempty"`
	BannerColor   string       `json:"bannerColor,omitempty"`
	IsBot         bool         `json:"isBot,omitempty"`
	RoleIDs       []string     `json:"roleIds,omitempty"`
	Settings      UserSettings `json:"settings"`
	Friends       []string     `json:"friends,omitempty"`
	JoinedAt      string       `json:"joinedAt,omitempty"`
}

type Attachment struct {
	Type     AttachmentType `json:"type"`
	URL      string         `json:"url"`
	Duration int            `json:"duration,omitempty"`
}

type Message struct {
	ID         string              `json:"id"`
	Content    string              `json:"content"`
	SenderID   string              `json:"senderId"`
	Timestamp  time.Time           `json:"timestamp"`
	ReplyToID  string              `json:"replyToId,omitempty"`
	IsDeleted  bool                `json:"isDeleted,omitempty"`
	IsEdited   bool                `json:"isEdited,omitempty"`
	Attachment *Attachment         `json:"attachment,omitempty"`
	Reactions  map[string][]string `json:"reactions,omitempty"` // emoji -> user IDs
}

type Channel struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Type             ChannelType `json:"type"`
	ConnectedUserIDs []string    `json:"connectedUserIds"`
	UserLimit        int         `json:"userLimit,omitempty"`
	CategoryID       string      `json:"categoryId"`
	Topic            string      `json:"topic,omitempty"`
	IsPrivate        bool        `json:"isPrivate,omitempty"`
	AllowedRoleIDs   []string    `json:"allowedRoleIds,omitempty"`
}

type ServerCategory struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Channels []Channel `json:"channels"`
}

type Server struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Icon        string           `json:"icon,omitempty"`
	Banner      string           `json:"banner,omitempty"`
	Description string           `json:"description,omitempty"`
	Categories  []ServerCategory `json:"categories"`
	Members     []User           `json:"members"`
	OwnerID     string           `json:"ownerId"`
	Roles       []Role           `json:"roles"`
}

// FindChannel walks the server's categories and returns the channel with the
// given ID, or nil if it isn't part of this server.
func (s *Server) FindChannel(channelID string) *Channel {
	for ci := range s.Categories {
		for chi := range s.Categories[ci].Channels {
			if s.Categories[ci].Channels[chi].ID == channelID {
				return &s.Categories[ci].Channels[chi]
			}
		}
	}
	return nil
}

// FirstChannelID returns the ID of the first channel of the first category
// that has one. Used for default channel selection after switching servers.
func (s *Server) FirstChannelID() string {
	for _, cat := range s.Categories {
		if len(cat.Channels) > 0 {
			return cat.Channels[0].ID
		}
	}
	return ""
}

// Clone returns a deep copy so state transitions can build a new Server value
// without aliasing the slices of the old one.
func (s Server) Clone() Server {
	out := s
	out.Categories = make([]ServerCategory, len(s.Categories))
	for i, cat := range s.Categories {
		cc := cat
		cc.Channels = make([]Channel, len(cat.Channels))
		for j, ch := range cat.Channels {
			nc := ch
			nc.ConnectedUserIDs = append([]string(nil), ch.ConnectedUserIDs...)
			nc.AllowedRoleIDs = append([]string(nil), ch.AllowedRoleIDs...)
			cc.Channels[j] = nc
		}
		out.Categories[i] = cc
	}
	out.Members = make([]User, len(s.Members))
	for i, m := range s.Members {
		nm := m
		nm.RoleIDs = append([]string(nil), m.RoleIDs...)
		nm.Friends = append([]string(nil), m.Friends...)
		out.Members[i] = nm
	}
	out.Roles = make([]Role, len(s.Roles))
	for i, r := range s.Roles {
		nr := r
		nr.Permissions = append([]Permission(nil), r.Permissions...)
		out.Roles[i] = nr
	}
	return out
}
