package hub

// Event names prefixed onto every published frame.
const (
	MessageCreated  = "MessageCreated"
	MessageDeleted  = "MessageDeleted"
	MessageModified = "MessageModified"

	ServerModified = "ServerModified"
	ServerDeleted  = "ServerDeleted"

	UserStatusChanged = "UserStatusChanged"
	Typing            = "Typing"
)

// Channel key namespaces. A key is "<type>:<id>", except the server list
// which is a single shared key.
const (
	ChannelTypeChannel    = "channel"
	ChannelTypeServer     = "server"
	ChannelTypeServerList = "server_list"
)
