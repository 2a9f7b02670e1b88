// Package hub fans backend events out to connected websocket clients.
// Delivery goes through redis pub/sub, or an in-process map when running
// self-contained. Frames are text: the event name, a newline, then JSON.
package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Client struct {
	UserID           string
	Conn             *websocket.Conn
	CurrentServerID  string
	CurrentChannelID string
	WsChannel        chan string
	PubSub           *redis.PubSub
	MsgCh            <-chan *redis.Message
	Ctx              context.Context
	mutex            sync.Mutex
}

type Hub struct {
	sugar         *zap.SugaredLogger
	redisClient   *redis.Client
	selfContained bool
	local         *localPubSub

	clientsMutex sync.Mutex
	clients      map[string]*Client
}

func New(sugar *zap.SugaredLogger, redisClient *redis.Client, selfContained bool) *Hub {
	return &Hub{
		sugar:         sugar,
		redisClient:   redisClient,
		selfContained: selfContained,
		local:         newLocalPubSub(),
		clients:       make(map[string]*Client),
	}
}

// subscribeRequest is the only frame clients send: switch which channel or
// server they listen to.
type subscribeRequest struct {
	ChannelType string `json:"channelType"`
	ID          string `json:"id"`
}

func (h *Hub) HandleClient(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userID")
	if userID == "" {
		http.Error(w, "No user ID was provided", http.StatusBadRequest)
		return
	}

	h.sugar.Debugf("Connecting user ID [%s] to WebSocket", userID)

	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.sugar.Error(err)
		return
	}
	defer conn.Close()

	clientCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &Client{
		UserID:    userID,
		Conn:      conn,
		WsChannel: make(chan string, 64),
		Ctx:       clientCtx,
	}

	if !h.selfContained {
		pubsub := h.redisClient.Subscribe(clientCtx)
		defer pubsub.Close()
		client.PubSub = pubsub
		client.MsgCh = pubsub.Channel()
	}

	h.setClient(userID, client)
	defer func() {
		h.deleteClient(userID)
		if h.selfContained {
			h.local.UnsubscribeFromAll(userID)
		}
	}()

	// pump published frames out to the client
	go func() {
		for {
			select {
			case <-client.Ctx.Done():
				return
			case frame := <-client.WsChannel:
				if err := client.Conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
					h.sugar.Error(err)
					return
				}
			case msg, ok := <-client.MsgCh:
				if !ok {
					return
				}
				if err := client.Conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
					h.sugar.Error(err)
					return
				}
			}
		}
	}()

	// incoming frames are subscription switches only
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var req subscribeRequest
		if err := json.Unmarshal(frame, &req); err != nil {
			h.sugar.Debugf("User ID [%s] sent an unreadable frame: %v", userID, err)
			continue
		}
		if err := h.Subscribe(req.ChannelType, req.ID, userID); err != nil {
			h.sugar.Error(err)
		}
	}
}

func (h *Hub) setClient(userID string, client *Client) {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()

	h.clients[userID] = client
}

func (h *Hub) deleteClient(userID string) {
	h.sugar.Debugf("Removing user ID [%s] from clients", userID)
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()

	delete(h.clients, userID)
}

func (h *Hub) GetClient(userID string) (*Client, bool) {
	h.clientsMutex.Lock()
	defer h.clientsMutex.Unlock()

	client, exists := h.clients[userID]
	return client, exists
}

// Subscribe points a connected user at a channel key. Channel and server
// subscriptions are exclusive: the previous one of the same type is dropped
// first. The server list is additive since every server stays in view.
func (h *Hub) Subscribe(channelType string, id string, userID string) error {
	client, exists := h.GetClient(userID)
	if !exists {
		return fmt.Errorf("user ID [%s] tried to subscribe to [%s:%s] but isn't connected to hub", userID, channelType, id)
	}

	client.mutex.Lock()
	defer client.mutex.Unlock()

	unsub := func(oldKey string) error {
		if h.selfContained {
			h.local.Unsubscribe(oldKey, userID)
			return nil
		}
		return client.PubSub.Unsubscribe(client.Ctx, oldKey)
	}

	switch channelType {
	case ChannelTypeChannel:
		if err := unsub(key(ChannelTypeChannel, client.CurrentChannelID)); err != nil {
			return err
		}
		client.CurrentChannelID = id
	case ChannelTypeServer:
		if err := unsub(key(ChannelTypeServer, client.CurrentServerID)); err != nil {
			return err
		}
		client.CurrentServerID = id
	case ChannelTypeServerList:
		// no need to unsubscribe anything as it's a list of multiple servers constantly in view
	default:
		return fmt.Errorf("unknown channel type [%s]", channelType)
	}

	newKey := key(channelType, id)
	if h.selfContained {
		h.local.Subscribe(newKey, userID)
	} else {
		if err := client.PubSub.Subscribe(client.Ctx, newKey); err != nil {
			return err
		}
	}

	h.sugar.Debugf("User ID [%s] subscribed to [%s]", userID, newKey)
	return nil
}

// Emit publishes an event frame to everyone subscribed to the channel key.
func (h *Hub) Emit(event string, channelType string, id string, payload any) error {
	jsonBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.Grow(len(event) + 1 + len(jsonBytes))
	buf.WriteString(event)
	buf.WriteByte('\n')
	buf.Write(jsonBytes)

	channel := key(channelType, id)

	if h.selfContained {
		for _, userID := range h.local.Subscribers(channel) {
			client, exists := h.GetClient(userID)
			if !exists {
				h.sugar.Warnf("User ID [%s] is supposed to be available", userID)
				continue
			}
			select {
			case client.WsChannel <- buf.String():
			default:
				h.sugar.Warnf("Dropping frame for slow client [%s]", userID)
			}
		}
		return nil
	}

	return h.redisClient.Publish(context.Background(), channel, buf.String()).Err()
}

func key(channelType string, id string) string {
	if channelType == ChannelTypeServerList {
		return ChannelTypeServerList
	}
	return fmt.Sprintf("%s:%s", channelType, id)
}
