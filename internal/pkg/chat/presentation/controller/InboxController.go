package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yasirimran733/campus-connect/internal/middleware"
	"github.com/yasirimran733/campus-connect/internal/pkg/chat/application/usecase"
	"github.com/yasirimran733/campus-connect/internal/pkg/chat/persistence/repository/adapter"
)

// InboxController lists the caller's conversations, most recently active first.
type InboxController struct {
	UC *usecase.ListConversationsUseCase
}

func NewInboxController(pool *pgxpool.Pool) *InboxController {
	repo := adapter.NewPgChatRepository(pool)
	return &InboxController{UC: usecase.NewListConversationsUseCase(repo)}
}

func (h *InboxController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _ := middleware.IdentityFromContext(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		convs, err := h.UC.Execute(ctx, usecase.ListConversationsInput{UserID: userID})
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, usecase.ErrPersistence) {
				status = http.StatusInternalServerError
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		out := make([]gin.H, 0, len(convs))
		for i := range convs {
			out = append(out, conversationResponse(&convs[i]))
		}
		c.JSON(http.StatusOK, gin.H{"conversations": out, "count": len(out)})
	}
}
