package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	qport "github.com/yasirimran733/campus-connect/internal/infrastructure/queue/port"
	"github.com/yasirimran733/campus-connect/internal/middleware"
	chat "github.com/yasirimran733/campus-connect/internal/pkg/chat/application/domain"
	"github.com/yasirimran733/campus-connect/internal/pkg/chat/application/usecase"
	"github.com/yasirimran733/campus-connect/internal/pkg/chat/persistence/repository/adapter"
)

// StartDirectChatController resolves or creates the caller's direct
// conversation with another user and returns its id, which the client then
// opens a websocket against.
type StartDirectChatController struct {
	UC *usecase.StartDirectConversationUseCase
}

func NewStartDirectChatController(pool *pgxpool.Pool, queue qport.Client) *StartDirectChatController {
	repo := adapter.NewPgChatRepository(pool)
	return &StartDirectChatController{UC: usecase.NewStartDirectConversationUseCase(repo, queue)}
}

func (h *StartDirectChatController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.IdentityFromContext(c)
		otherID := c.Param("userId")
		if otherID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		conv, err := h.UC.Execute(ctx, usecase.StartDirectConversationInput{
			UserID:      userID,
			OtherUserID: otherID,
		})
		if err != nil {
			writeConversationError(c, err)
			return
		}

		c.JSON(http.StatusOK, conversationResponse(conv))
	}
}

// writeConversationError maps directory errors onto HTTP statuses shared by
// the start endpoints.
func writeConversationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chat.ErrSelfConversation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot start a conversation with yourself"})
	case errors.Is(err, usecase.ErrPersistence):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected persistence error"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func conversationResponse(conv *chat.Conversation) gin.H {
	return gin.H{
		"id":              conv.ID,
		"item_id":         conv.ItemID,
		"participant_ids": conv.ParticipantIDs,
		"created_at":      conv.CreatedAt,
		"updated_at":      conv.UpdatedAt,
		"last_message_at": conv.LastMessageAt,
	}
}
