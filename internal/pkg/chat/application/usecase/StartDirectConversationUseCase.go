package usecase

import (
	"context"
	"fmt"

	chat "github.com/yasirimran733/campus-connect/internal/pkg/chat/application/domain"
	"github.com/yasirimran733/campus-connect/internal/pkg/chat/application/task"
	repository "github.com/yasirimran733/campus-connect/internal/pkg/chat/persistence/repository/port"

	qport "github.com/yasirimran733/campus-connect/internal/infrastructure/queue/port"
)

// StartDirectConversationInput identifies the two sides of an item-less chat.
type StartDirectConversationInput struct {
	UserID      string
	OtherUserID string
}

// StartDirectConversationUseCase resolves or creates the single direct
// conversation between a pair of users. A user cannot converse with themself.
type StartDirectConversationUseCase struct {
	Repo  repository.ChatRepository
	Queue qport.Client // optional; nil disables the dedupe repair enqueue
}

func NewStartDirectConversationUseCase(repo repository.ChatRepository, queue qport.Client) *StartDirectConversationUseCase {
	return &StartDirectConversationUseCase{Repo: repo, Queue: queue}
}

func (uc *StartDirectConversationUseCase) Execute(ctx context.Context, in StartDirectConversationInput) (*chat.Conversation, error) {
	if in.UserID == "" || in.OtherUserID == "" {
		return nil, fmt.Errorf("user_id and other_user_id are required")
	}
	if in.UserID == in.OtherUserID {
		return nil, chat.ErrSelfConversation
	}

	conv, created, err := uc.Repo.FindOrCreateDirect(ctx, in.UserID, in.OtherUserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if created {
		task.EnqueueDedupeRepair(ctx, uc.Queue)
	}
	return conv, nil
}
