package hub

import (
	"sync"
)

// localPubSub stands in for redis pub/sub in self-contained mode: channel
// key to subscribed user IDs.
type localPubSub struct {
	mutex   sync.RWMutex
	hashMap map[string][]string
}

func newLocalPubSub() *localPubSub {
	return &localPubSub{hashMap: make(map[string][]string)}
}

func (ps *localPubSub) Subscribe(key string, userID string) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	for _, id := range ps.hashMap[key] {
		if id == userID {
			return
		}
	}
	ps.hashMap[key] = append(ps.hashMap[key], userID)
}

func (ps *localPubSub) Unsubscribe(key string, userID string) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	ps.unsubscribeLocked(key, userID)
}

func (ps *localPubSub) unsubscribeLocked(key string, userID string) {
	userIDs := ps.hashMap[key]

	// won't run in case the key doesn't exist since length will be 0
	for i := range userIDs {
		if userIDs[i] == userID {
			userIDs[i] = userIDs[len(userIDs)-1]
			ps.hashMap[key] = userIDs[:len(userIDs)-1]
			break
		}
	}

	// delete key from map if no user is subscribed to it
	if len(ps.hashMap[key]) == 0 {
		delete(ps.hashMap, key)
	}
}

func (ps *localPubSub) UnsubscribeFromAll(userID string) {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()

	for key := range ps.hashMap {
		ps.unsubscribeLocked(key, userID)
	}
}

func (ps *localPubSub) Subscribers(key string) []string {
	ps.mutex.RLock()
	defer ps.mutex.RUnlock()

	return append([]string(nil), ps.hashMap[key]...)
}
