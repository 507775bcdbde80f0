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
	"github.com/yasirimran733/campus-connect/internal/pkg/chat/application/usecase"
	"github.com/yasirimran733/campus-connect/internal/pkg/chat/persistence/repository/adapter"
	directory "github.com/yasirimran733/campus-connect/internal/repository/port"
)

// StartItemChatController starts (or resumes) a conversation with the owner
// of a listed item, scoped to that item.
type StartItemChatController struct {
	UC *usecase.StartItemConversationUseCase
}

func NewStartItemChatController(pool *pgxpool.Pool, items directory.ItemDirectory, queue qport.Client) *StartItemChatController {
	repo := adapter.NewPgChatRepository(pool)
	return &StartItemChatController{UC: usecase.NewStartItemConversationUseCase(repo, items, queue)}
}

func (h *StartItemChatController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.IdentityFromContext(c)
		itemID := c.Param("itemId")
		if itemID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "itemId is required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		conv, err := h.UC.Execute(ctx, usecase.StartItemConversationInput{
			UserID: userID,
			ItemID: itemID,
		})
		if err != nil {
			if errors.Is(err, directory.ErrItemNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
				return
			}
			writeConversationError(c, err)
			return
		}

		c.JSON(http.StatusOK, conversationResponse(conv))
	}
}
