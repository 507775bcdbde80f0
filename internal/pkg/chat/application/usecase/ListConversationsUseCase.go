package usecase

import (
	"context"
	"fmt"

	chat "github.com/yasirimran733/campus-connect/internal/pkg/chat/application/domain"
	repository "github.com/yasirimran733/campus-connect/internal/pkg/chat/persistence/repository/port"
)

// ListConversationsInput wraps the caller's identity for the inbox view.
type ListConversationsInput struct {
	UserID string
}

// ListConversationsUseCase returns the user's conversations ordered by most
// recent activity.
type ListConversationsUseCase struct {
	Repo repository.ChatRepository
}

func NewListConversationsUseCase(repo repository.ChatRepository) *ListConversationsUseCase {
	return &ListConversationsUseCase{Repo: repo}
}

func (uc *ListConversationsUseCase) Execute(ctx context.Context, in ListConversationsInput) ([]chat.Conversation, error) {
	if in.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	convs, err := uc.Repo.ListConversations(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return convs, nil
}
