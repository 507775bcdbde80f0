package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	bport "github.com/yasirimran733/campus-connect/internal/infrastructure/broadcast/port"
	qport "github.com/yasirimran733/campus-connect/internal/infrastructure/queue/port"
	"github.com/yasirimran733/campus-connect/internal/pkg/chat/presentation/controller"
	directory "github.com/yasirimran733/campus-connect/internal/repository/port"
)

// Deps bundles the infrastructure the chat endpoints need.
type Deps struct {
	Pool        *pgxpool.Pool
	Broadcaster bport.Broadcaster
	Queue       qport.Client
	Users       directory.UserDirectory
	Items       directory.ItemDirectory
	Log         *logrus.Logger
}

// RegisterRoutes registers chat endpoints under the given (authenticated)
// router group. Per-endpoint controllers are constructed here and bound
// directly to routes.
func RegisterRoutes(g *gin.RouterGroup, deps Deps) {
	inboxCtl := controller.NewInboxController(deps.Pool)
	startDirectCtl := controller.NewStartDirectChatController(deps.Pool, deps.Queue)
	startItemCtl := controller.NewStartItemChatController(deps.Pool, deps.Items, deps.Queue)
	getMsgCtl := controller.NewGetMessageController(deps.Pool)
	markReadCtl := controller.NewMarkReadController(deps.Pool)
	socketCtl := controller.NewChatSocketController(deps.Pool, deps.Broadcaster, deps.Users, deps.Log)

	// GET /api/v1/chat -> the caller's inbox
	g.GET("/chat", inboxCtl.Handle())

	// POST /api/v1/chat/start/user/:userId -> direct conversation
	g.POST("/chat/start/user/:userId", startDirectCtl.Handle())

	// POST /api/v1/chat/start/item/:itemId -> conversation with the item owner
	g.POST("/chat/start/item/:itemId", startItemCtl.Handle())

	// GET /api/v1/chat/:conversationId/messages -> history
	g.GET("/chat/:conversationId/messages", getMsgCtl.Handle())

	// POST /api/v1/chat/:conversationId/read -> flip read flags
	g.POST("/chat/:conversationId/read", markReadCtl.Handle())

	// GET /api/v1/chat/:conversationId/ws -> realtime session
	g.GET("/chat/:conversationId/ws", socketCtl.Handle())
}
