package usecase

import (
	"context"
	"fmt"

	chat "github.com/yasirimran733/campus-connect/internal/pkg/chat/application/domain"
	repository "github.com/yasirimran733/campus-connect/internal/pkg/chat/persistence/repository/port"
)

// MarkReadInput identifies the reader and the conversation being caught up.
type MarkReadInput struct {
	ConversationID string
	ReaderID       string
}

// MarkReadUseCase flips the read flag on messages addressed to the reader.
// This is the only mutation messages ever receive.
type MarkReadUseCase struct {
	Repo repository.ChatRepository
}

func NewMarkReadUseCase(repo repository.ChatRepository) *MarkReadUseCase {
	return &MarkReadUseCase{Repo: repo}
}

func (uc *MarkReadUseCase) Execute(ctx context.Context, in MarkReadInput) (int64, error) {
	if in.ConversationID == "" || in.ReaderID == "" {
		return 0, fmt.Errorf("conversation_id and reader_id are required")
	}

	isParticipant, err := uc.Repo.IsParticipant(ctx, in.ConversationID, in.ReaderID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if !isParticipant {
		return 0, chat.ErrNotParticipant
	}

	updated, err := uc.Repo.MarkMessagesRead(ctx, in.ConversationID, in.ReaderID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return updated, nil
}
