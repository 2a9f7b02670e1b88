package state

import (
	"slices"

	"cordis/internal/models"
)

// ToggleReaction flips the current user's reaction on a message in the
// active channel. At most one emoji per user per message: reacting with a
// different emoji withdraws the previous one first, re-selecting the same
// emoji removes it. Emoji keys with no users left are pruned entirely.
//
// reactionByUser is the reverse index (message -> user -> emoji) that makes
// the one-reaction invariant a map lookup instead of a scan over all keys.
func (s *Store) ToggleReaction(messageID string, emoji string) {
	channelID := s.ActiveChannelID()
	if channelID == "" {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	userID := s.currentUser.ID

	list := s.messages[channelID]
	idx := slices.IndexFunc(list, func(m models.Message) bool { return m.ID == messageID })
	if idx == -1 {
		return
	}

	byUser := s.reactionByUser[messageID]
	if byUser == nil {
		byUser = make(map[string]string)
		s.reactionByUser[messageID] = byUser
	}

	previous, had := byUser[userID]
	if had {
		removeReaction(&list[idx], previous, userID)
		delete(byUser, userID)
	}

	// same emoji again is a pure toggle-off
	if had && previous == emoji {
		if len(byUser) == 0 {
			delete(s.reactionByUser, messageID)
		}
		return
	}

	if list[idx].Reactions == nil {
		list[idx].Reactions = make(map[string][]string)
	}
	list[idx].Reactions[emoji] = append(list[idx].Reactions[emoji], userID)
	byUser[userID] = emoji
}

func removeReaction(msg *models.Message, emoji string, userID string) {
	if msg.Reactions == nil {
		return
	}
	users := slices.DeleteFunc(msg.Reactions[emoji], func(id string) bool { return id == userID })
	if len(users) == 0 {
		delete(msg.Reactions, emoji)
		if len(msg.Reactions) == 0 {
			msg.Reactions = nil
		}
	} else {
		msg.Reactions[emoji] = users
	}
}
