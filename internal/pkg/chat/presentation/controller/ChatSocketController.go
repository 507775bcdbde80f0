package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	bport "github.com/yasirimran733/campus-connect/internal/infrastructure/broadcast/port"
	"github.com/yasirimran733/campus-connect/internal/infrastructure/realtime"
	"github.com/yasirimran733/campus-connect/internal/middleware"
	chat "github.com/yasirimran733/campus-connect/internal/pkg/chat/application/domain"
	"github.com/yasirimran733/campus-connect/internal/pkg/chat/application/usecase"
	repoAdapter "github.com/yasirimran733/campus-connect/internal/pkg/chat/persistence/repository/adapter"
	directory "github.com/yasirimran733/campus-connect/internal/repository/port"
)

// ChatSocketController owns the websocket endpoint for one conversation's
// realtime traffic. Each accepted connection becomes a session that joins the
// conversation's broadcast group, processes inbound frames strictly in
// arrival order, and leaves the group as part of teardown.
type ChatSocketController struct {
	broadcaster     bport.Broadcaster
	users           directory.UserDirectory
	joinUC          *usecase.JoinConversationUseCase
	sendMessageUC   *usecase.SendMessageUseCase
	log             *logrus.Logger
	inflightTimeout time.Duration
}

func NewChatSocketController(pool *pgxpool.Pool, broadcaster bport.Broadcaster, users directory.UserDirectory, log *logrus.Logger) *ChatSocketController {
	repo := repoAdapter.NewPgChatRepository(pool)
	return &ChatSocketController{
		broadcaster:     broadcaster,
		users:           users,
		joinUC:          usecase.NewJoinConversationUseCase(repo),
		sendMessageUC:   usecase.NewSendMessageUseCase(repo),
		log:             log,
		inflightTimeout: 5 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Same-origin enforcement happens at the reverse proxy.
		return true
	},
}

// inboundFrame is the only frame clients send. Unknown fields are ignored.
type inboundFrame struct {
	Message string `json:"message"`
}

// outboundFrame is what every group member receives for a persisted message.
type outboundFrame struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Sender    string `json:"sender"`
	SenderID  string `json:"sender_id"`
	CreatedAt string `json:"created_at"`
	ID        int64  `json:"id"`
}

const defaultReadTimeout = 60 * time.Second

// Handle upgrades HTTP connections to websocket and processes frames until
// the client disconnects. The conversation id comes from the route and the
// identity from the authenticated context; neither is negotiable by payload.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID := c.Param("conversationId")
		if _, err := uuid.Parse(conversationID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
			return
		}

		userID, username := middleware.IdentityFromContext(c)
		if userID == "" {
			// Reject before accepting the upgrade: no anonymous chat.
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
		err := ctl.joinUC.Execute(ctx, usecase.JoinConversationInput{
			ConversationID: conversationID,
			UserID:         userID,
		})
		cancel()
		if err != nil {
			if errors.Is(err, chat.ErrNotParticipant) {
				// Existence is not leaked to outsiders.
				c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unexpected persistence error"})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			return
		}

		conn := realtime.NewConnection(userID, username, ws)
		conn.Start()
		ctl.broadcaster.Join(chat.GroupName(conversationID), conn)
		defer func() {
			// Mandatory teardown: every membership goes before the session does.
			ctl.broadcaster.LeaveAll(conn)
			conn.Close(websocket.CloseNormalClosure, "session closed")
		}()

		ws.SetReadLimit(1 << 20) // 1MB payload cap
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		sess := &session{
			conversationID: conversationID,
			userID:         userID,
			username:       username,
			broadcaster:    ctl.broadcaster,
			users:          ctl.users,
			sendMessageUC:  ctl.sendMessageUC,
			log:            ctl.log,
		}

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}

			// One frame at a time: the persist-then-broadcast sequence for
			// this frame completes before the next read.
			ctx, cancel := context.WithTimeout(context.Background(), ctl.inflightTimeout)
			err = sess.handleFrame(ctx, data)
			cancel()
			if err != nil {
				ctl.log.WithError(err).WithFields(logrus.Fields{
					"conversation_id": conversationID,
					"user_id":         userID,
				}).Warn("chat: closing session")
				return
			}
		}
	}
}

// session is one live connection's protocol state. Frame handling is kept off
// the websocket types so the ordering and gating behavior is testable with
// fakes.
type session struct {
	conversationID string
	userID         string
	username       string
	broadcaster    bport.Broadcaster
	users          directory.UserDirectory
	sendMessageUC  *usecase.SendMessageUseCase
	log            *logrus.Logger
}

// handleFrame processes one inbound frame. Malformed and empty frames are
// dropped silently; a non-nil return means the session must close.
func (s *session) handleFrame(ctx context.Context, data []byte) error {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		// Malformed frames are not fatal, just ignored.
		return nil
	}

	content := strings.TrimSpace(frame.Message)
	if content == "" {
		return nil
	}

	msg, err := s.sendMessageUC.Execute(ctx, usecase.SendMessageInput{
		ConversationID: s.conversationID,
		SenderID:       s.userID,
		Content:        content,
	})
	switch {
	case err == nil:
	case errors.Is(err, chat.ErrEmptyContent):
		return nil
	default:
		// Lost membership or store failure: the client reconnects and
		// re-fetches history to reconcile.
		return err
	}

	out := outboundFrame{
		Type:      "chat.message",
		Message:   msg.Content,
		Sender:    s.displayName(ctx),
		SenderID:  s.userID,
		CreatedAt: msg.CreatedAt.UTC().Format(time.RFC3339Nano),
		ID:        msg.ID,
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return err
	}

	// The message is durable at this point; now every member, the sender's
	// own session included, gets the frame.
	s.broadcaster.Publish(ctx, chat.GroupName(s.conversationID), payload)
	return nil
}

// displayName resolves the sender's current display name, falling back to the
// name carried by the token if the directory is unavailable.
func (s *session) displayName(ctx context.Context) string {
	u, err := s.users.FindByID(ctx, s.userID)
	if err != nil {
		if s.username != "" {
			return s.username
		}
		return s.userID
	}
	return u.Username
}
