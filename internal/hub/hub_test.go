package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func TestLocalPubSubSubscribeUnsubscribe(t *testing.T) {
	ps := newLocalPubSub()

	ps.Subscribe("channel:ch1", "u1")
	ps.Subscribe("channel:ch1", "u2")
	ps.Subscribe("channel:ch1", "u1") // duplicate is a no-op

	if got := ps.Subscribers("channel:ch1"); len(got) != 2 {
		t.Fatalf("subscribers = %v", got)
	}

	ps.Unsubscribe("channel:ch1", "u1")
	got := ps.Subscribers("channel:ch1")
	if len(got) != 1 || got[0] != "u2" {
		t.Errorf("subscribers = %v", got)
	}

	ps.Unsubscribe("channel:ch1", "u2")
	if got := ps.Subscribers("channel:ch1"); len(got) != 0 {
		t.Errorf("subscribers = %v, want empty", got)
	}
	if len(ps.hashMap) != 0 {
		t.Error("empty key not pruned")
	}
}

func TestLocalPubSubUnsubscribeFromAll(t *testing.T) {
	ps := newLocalPubSub()
	ps.Subscribe("channel:ch1", "u1")
	ps.Subscribe("server:s1", "u1")
	ps.Subscribe("server_list", "u1")

	ps.UnsubscribeFromAll("u1")

	if len(ps.hashMap) != 0 {
		t.Errorf("hashMap = %v, want empty", ps.hashMap)
	}
}

func TestKey(t *testing.T) {
	if got := key(ChannelTypeChannel, "ch1"); got != "channel:ch1" {
		t.Errorf("key = %q", got)
	}
	if got := key(ChannelTypeServerList, "anything"); got != ChannelTypeServerList {
		t.Errorf("server list key = %q", got)
	}
}

func dialTestClient(t *testing.T, url string, userID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http") + "?userID=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestEmitReachesSubscriber(t *testing.T) {
	h := New(zap.NewNop().Sugar(), nil, true)
	srv := httptest.NewServer(http.HandlerFunc(h.HandleClient))
	defer srv.Close()

	conn := dialTestClient(t, srv.URL, "u1")

	// wait for registration, then subscribe over the socket
	waitForClient(t, h, "u1")
	err := conn.WriteJSON(subscribeRequest{ChannelType: ChannelTypeChannel, ID: "ch1"})
	if err != nil {
		t.Fatal(err)
	}
	waitForSubscriber(t, h, "channel:ch1")

	payload := map[string]string{"id": "m1", "content": "hi"}
	if err := h.Emit(MessageCreated, ChannelTypeChannel, "ch1", payload); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}

	event, body, found := strings.Cut(string(frame), "\n")
	if !found || event != MessageCreated {
		t.Fatalf("frame = %q", frame)
	}
	if !strings.Contains(body, `"content":"hi"`) {
		t.Errorf("body = %q", body)
	}
}

func TestEmitSkipsOtherChannels(t *testing.T) {
	h := New(zap.NewNop().Sugar(), nil, true)
	srv := httptest.NewServer(http.HandlerFunc(h.HandleClient))
	defer srv.Close()

	conn := dialTestClient(t, srv.URL, "u1")
	waitForClient(t, h, "u1")
	if err := conn.WriteJSON(subscribeRequest{ChannelType: ChannelTypeChannel, ID: "ch1"}); err != nil {
		t.Fatal(err)
	}
	waitForSubscriber(t, h, "channel:ch1")

	if err := h.Emit(MessageCreated, ChannelTypeChannel, "ch2", "unrelated"); err != nil {
		t.Fatal(err)
	}
	if err := h.Emit(Typing, ChannelTypeChannel, "ch1", "for you"); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(frame), Typing+"\n") {
		t.Errorf("got someone else's frame: %q", frame)
	}
}

func TestSubscribeSwitchesChannel(t *testing.T) {
	h := New(zap.NewNop().Sugar(), nil, true)
	srv := httptest.NewServer(http.HandlerFunc(h.HandleClient))
	defer srv.Close()

	conn := dialTestClient(t, srv.URL, "u1")
	waitForClient(t, h, "u1")

	if err := conn.WriteJSON(subscribeRequest{ChannelType: ChannelTypeChannel, ID: "ch1"}); err != nil {
		t.Fatal(err)
	}
	waitForSubscriber(t, h, "channel:ch1")
	if err := conn.WriteJSON(subscribeRequest{ChannelType: ChannelTypeChannel, ID: "ch2"}); err != nil {
		t.Fatal(err)
	}
	waitForSubscriber(t, h, "channel:ch2")

	// the old channel subscription is gone
	if got := h.local.Subscribers("channel:ch1"); len(got) != 0 {
		t.Errorf("still subscribed to ch1: %v", got)
	}
}

func TestSubscribeUnknownUser(t *testing.T) {
	h := New(zap.NewNop().Sugar(), nil, true)
	if err := h.Subscribe(ChannelTypeChannel, "ch1", "ghost"); err == nil {
		t.Error("expected an error for a user not connected to hub")
	}
}

func waitForClient(t *testing.T, h *Hub, userID string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		if _, ok := h.GetClient(userID); ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("user %s never registered", userID)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func waitForSubscriber(t *testing.T, h *Hub, key string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for {
		if len(h.local.Subscribers(key)) > 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("no subscriber ever appeared on %s", key)
		}
		time.Sleep(2 * time.Millisecond)
	}
}
