package usecase

import (
	"context"
	"fmt"

	chat "github.com/yasirimran733/campus-connect/internal/pkg/chat/application/domain"
	repository "github.com/yasirimran733/campus-connect/internal/pkg/chat/persistence/repository/port"
)

// SendMessageInput carries the data needed to persist a new message.
type SendMessageInput struct {
	ConversationID string
	SenderID       string
	Content        string
}

// SendMessageUseCase validates, persists, and touches: the sender must be a
// current participant, content must survive trimming, and the conversation's
// activity timestamps advance only after the message row exists. The caller
// may broadcast the returned message; nothing here is published.
type SendMessageUseCase struct {
	Repo repository.ChatRepository
}

func NewSendMessageUseCase(repo repository.ChatRepository) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo}
}

func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	msg, err := chat.NewMessage(in.ConversationID, in.SenderID, in.Content)
	if err != nil {
		return nil, err
	}

	isParticipant, err := uc.Repo.IsParticipant(ctx, in.ConversationID, in.SenderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !isParticipant {
		return nil, chat.ErrNotParticipant
	}

	if err := uc.Repo.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// Touch strictly after the save; the message's own timestamp becomes the
	// conversation's last activity.
	if err := uc.Repo.Touch(ctx, in.ConversationID, msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return msg, nil
}
