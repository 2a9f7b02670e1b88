package state

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cordis/internal/models"

	"github.com/google/uuid"
)

// deletedPlaceholder replaces the content of soft-deleted messages.
const deletedPlaceholder = "Ta wiadomość została usunięta."

// SendMessage appends a message to the active channel immediately and mirrors
// it to the backend without waiting for the ack. No-op when no channel is
// selected. Sending in the AI thread, or mentioning the bot's trigger word
// anywhere, schedules a deferred bot reply.
func (s *Store) SendMessage(content string, replyToID string, attachment *models.Attachment) string {
	channelID := s.ActiveChannelID()
	if channelID == "" {
		return ""
	}

	msg := models.Message{
		ID:        uuid.NewString(),
		Content:   content,
		SenderID:  s.CurrentUser().ID,
		Timestamp: time.Now(),
		ReplyToID: replyToID,
	}
	if attachment != nil {
		a := *attachment
		msg.Attachment = &a
	}

	s.mutex.Lock()
	s.messages[channelID] = append(s.messages[channelID], msg)
	s.mutex.Unlock()

	s.queue.Enqueue("persist message", func(ctx context.Context) error {
		return s.gw.CreateMessage(ctx, channelID, msg)
	})

	if channelID == DMGeminiChannelID || strings.Contains(strings.ToLower(content), botTrigger) {
		s.scheduleBotReply(channelID, msg)
	}

	return msg.ID
}

// UpdateMessage replaces the content of a message in the active channel
// in place. Unknown message IDs are a no-op.
func (s *Store) UpdateMessage(messageID string, newContent string) {
	channelID := s.ActiveChannelID()
	if channelID == "" {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	list := s.messages[channelID]
	for i := range list {
		if list[i].ID == messageID {
			list[i].Content = newContent
			list[i].IsEdited = true
			return
		}
	}
}

// DeleteMessage soft-deletes: the message keeps its ID and position so
// replies stay resolvable, but content becomes the fixed placeholder and the
// attachment and reactions are cleared.
func (s *Store) DeleteMessage(messageID string) {
	channelID := s.ActiveChannelID()
	if channelID == "" {
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	list := s.messages[channelID]
	for i := range list {
		if list[i].ID == messageID {
			list[i].IsDeleted = true
			list[i].Content = deletedPlaceholder
			list[i].Attachment = nil
			list[i].Reactions = nil
			delete(s.reactionByUser, messageID)
			return
		}
	}
}

// Messages returns a copy of a channel's message list.
func (s *Store) Messages(channelID string) []models.Message {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	list := s.messages[channelID]
	out := make([]models.Message, len(list))
	copy(out, list)
	return out
}

// botPrompt is what goes to the completion call: the text itself, or a
// description when the message is a non-text attachment.
func botPrompt(msg models.Message) string {
	if msg.Content != "" {
		return msg.Content
	}
	if msg.Attachment != nil {
		return fmt.Sprintf("The user sent a %s attachment.", strings.ToLower(string(msg.Attachment.Type)))
	}
	return "The user sent an empty message."
}
