package state

import (
	"context"
	"sync"
	"time"

	"cordis/internal/models"

	"github.com/google/uuid"
)

// botReplyTask is the deferred bot reply: completion first, then a fixed
// human-latency delay before the message lands. The handle can be cancelled,
// and a reply whose channel disappeared before the timer fired is dropped
// instead of being appended to an unreachable list.
type botReplyTask struct {
	cancelOnce sync.Once
	cancelled  chan struct{}
}

func (t *botReplyTask) cancel() {
	t.cancelOnce.Do(func() { close(t.cancelled) })
}

func (s *Store) scheduleBotReply(channelID string, trigger models.Message) {
	task := &botReplyTask{cancelled: make(chan struct{})}

	s.mutex.Lock()
	// single global typing list: the bot is the only typing indicator
	s.typingUsers = []string{BotUsername}
	s.pendingReplies[task] = struct{}{}
	s.mutex.Unlock()

	go s.runBotReply(task, channelID, trigger)
}

func (s *Store) runBotReply(task *botReplyTask, channelID string, trigger models.Message) {
	// the collaborator is infallible by contract; failures come back as text
	response := s.bot.GenerateResponse(context.Background(), botPrompt(trigger))

	select {
	case <-task.cancelled:
		s.finishBotReply(task, channelID, "", trigger, false)
		return
	case <-time.After(s.replyDelay):
	}

	s.finishBotReply(task, channelID, response, trigger, true)
}

func (s *Store) finishBotReply(task *botReplyTask, channelID string, response string, trigger models.Message, deliver bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.pendingReplies, task)
	s.typingUsers = nil

	// navigating away doesn't drop the reply, but a deleted channel does
	if !deliver || !s.channelExistsLocked(channelID) {
		return
	}

	reply := models.Message{
		ID:        uuid.NewString(),
		Content:   response,
		SenderID:  BotUserID,
		Timestamp: time.Now(),
		ReplyToID: trigger.ID,
	}
	s.messages[channelID] = append(s.messages[channelID], reply)
}
