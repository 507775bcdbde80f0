package repository

import (
	"context"
	"time"

	chat "github.com/yasirimran733/campus-connect/internal/pkg/chat/application/domain"
)

// ChatRepository defines persistence operations for the chat domain.
// Conversations own their messages (cascade on delete); participants are a
// shared many-to-many relation referenced by user id.
type ChatRepository interface {
	// FindOrCreateDirect resolves the item-less conversation whose participant
	// set is exactly {userA, userB}, creating it if absent. The created return
	// reports whether this call inserted the row.
	FindOrCreateDirect(ctx context.Context, userA, userB string) (conv *chat.Conversation, created bool, err error)

	// FindOrCreateForItem is FindOrCreateDirect scoped to an item reference.
	// A direct conversation between the same pair never matches here.
	FindOrCreateForItem(ctx context.Context, itemID, userA, userB string) (conv *chat.Conversation, created bool, err error)

	// GetConversation loads a conversation with its participant set hydrated.
	// Returns chat.ErrConversationNotFound when absent.
	GetConversation(ctx context.Context, id string) (*chat.Conversation, error)

	// ListConversations returns the user's conversations ordered by last
	// activity, most recent first.
	ListConversations(ctx context.Context, userID string) ([]chat.Conversation, error)

	IsParticipant(ctx context.Context, conversationID, userID string) (bool, error)
	ListParticipantIDs(ctx context.Context, conversationID string) ([]string, error)

	// SaveMessage persists m in a single statement, letting the database
	// assign the id and creation timestamp, and writes both back into m.
	SaveMessage(ctx context.Context, m *chat.Message) error

	// GetMessagesByConversation returns messages in ascending creation order,
	// ties broken by id.
	GetMessagesByConversation(ctx context.Context, conversationID string, limit, offset int) ([]chat.Message, error)

	// MarkMessagesRead flips the read flag on unread messages addressed to
	// readerID and reports how many rows changed.
	MarkMessagesRead(ctx context.Context, conversationID, readerID string) (int64, error)

	// Touch advances last_message_at and updated_at. Last write wins; only the
	// timestamp value matters.
	Touch(ctx context.Context, conversationID string, at time.Time) error

	// MergeDuplicateConversations collapses conversations sharing the same
	// (participant pair, item) key into the oldest row, moving messages over.
	// Returns the number of duplicate rows removed.
	MergeDuplicateConversations(ctx context.Context) (int64, error)
}
