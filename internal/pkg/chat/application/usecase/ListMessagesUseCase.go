package usecase

import (
	"context"
	"fmt"

	chat "github.com/yasirimran733/campus-connect/internal/pkg/chat/application/domain"
	repository "github.com/yasirimran733/campus-connect/internal/pkg/chat/persistence/repository/port"
)

// ListMessagesInput carries parameters to fetch a conversation's history.
// RequesterID is the identity asking; non-participants are refused.
type ListMessagesInput struct {
	ConversationID string
	RequesterID    string
	Limit          int
	Offset         int
}

// ListMessagesUseCase returns messages in ascending creation order after
// verifying the requester belongs to the conversation.
type ListMessagesUseCase struct {
	Repo repository.ChatRepository
}

func NewListMessagesUseCase(repo repository.ChatRepository) *ListMessagesUseCase {
	return &ListMessagesUseCase{Repo: repo}
}

func (uc *ListMessagesUseCase) Execute(ctx context.Context, in ListMessagesInput) ([]chat.Message, error) {
	if in.ConversationID == "" || in.RequesterID == "" {
		return nil, fmt.Errorf("conversation_id and requester_id are required")
	}

	isParticipant, err := uc.Repo.IsParticipant(ctx, in.ConversationID, in.RequesterID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !isParticipant {
		return nil, chat.ErrNotParticipant
	}

	msgs, err := uc.Repo.GetMessagesByConversation(ctx, in.ConversationID, in.Limit, in.Offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}
