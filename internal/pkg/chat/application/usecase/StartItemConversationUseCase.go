package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "github.com/yasirimran733/campus-connect/internal/pkg/chat/application/domain"
	"github.com/yasirimran733/campus-connect/internal/pkg/chat/application/task"
	repository "github.com/yasirimran733/campus-connect/internal/pkg/chat/persistence/repository/port"

	qport "github.com/yasirimran733/campus-connect/internal/infrastructure/queue/port"
	directory "github.com/yasirimran733/campus-connect/internal/repository/port"
)

// StartItemConversationInput identifies the caller and the item whose owner
// they want to reach.
type StartItemConversationInput struct {
	UserID string
	ItemID string
}

// StartItemConversationUseCase resolves or creates the conversation between
// the caller and an item's owner, scoped to that item. The same pair can hold
// a separate direct conversation; the item scope keeps them distinct.
type StartItemConversationUseCase struct {
	Repo  repository.ChatRepository
	Items directory.ItemDirectory
	Queue qport.Client // optional; nil disables the dedupe repair enqueue
}

func NewStartItemConversationUseCase(repo repository.ChatRepository, items directory.ItemDirectory, queue qport.Client) *StartItemConversationUseCase {
	return &StartItemConversationUseCase{Repo: repo, Items: items, Queue: queue}
}

func (uc *StartItemConversationUseCase) Execute(ctx context.Context, in StartItemConversationInput) (*chat.Conversation, error) {
	if in.UserID == "" || in.ItemID == "" {
		return nil, fmt.Errorf("user_id and item_id are required")
	}

	ownerID, err := uc.Items.GetItemOwner(ctx, in.ItemID)
	if err != nil {
		if errors.Is(err, directory.ErrItemNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if ownerID == in.UserID {
		// chatting about your own item is chatting with yourself
		return nil, chat.ErrSelfConversation
	}

	conv, created, err := uc.Repo.FindOrCreateForItem(ctx, in.ItemID, in.UserID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if created {
		task.EnqueueDedupeRepair(ctx, uc.Queue)
	}
	return conv, nil
}
