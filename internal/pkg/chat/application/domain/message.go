package chat

import (
	"strings"
	"time"
)

// Message is an immutable log entry in a conversation. The id is assigned by
// the database from a sequence, so ids grow strictly in creation order; the
// only mutation a message ever sees is the read flag flipping to true.
type Message struct {
	ID             int64
	ConversationID string
	SenderID       string
	Content        string
	CreatedAt      time.Time
	IsRead         bool
}

// NewMessage validates and normalizes an outgoing message. Content is trimmed;
// whitespace-only content is rejected with ErrEmptyContent. CreatedAt is left
// zero here: the store assigns it at persist time.
func NewMessage(conversationID, senderID, content string) (*Message, error) {
	if conversationID == "" || senderID == "" {
		return nil, ErrInvalidConversation
	}
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrEmptyContent
	}
	return &Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        trimmed,
	}, nil
}
