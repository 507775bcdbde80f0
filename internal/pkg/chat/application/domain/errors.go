package chat

import "errors"

// Domain-level errors for chat behaviors
var (
	ErrInvalidConversation  = errors.New("chat: conversation/message mismatch")
	ErrConversationNotFound = errors.New("chat: conversation not found")
	ErrNotParticipant       = errors.New("chat: user is not a participant in the conversation")
	ErrSelfConversation     = errors.New("chat: cannot start a conversation with yourself")
	ErrEmptyContent         = errors.New("chat: message content is empty")
)
