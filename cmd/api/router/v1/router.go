package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/yasirimran733/campus-connect/internal/middleware"
	chatHTTP "github.com/yasirimran733/campus-connect/internal/pkg/chat/presentation/http"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1. Everything in
// the chat context requires an authenticated identity.
func RegisterRoutes(r *gin.Engine, auth *middleware.AuthMiddleware, deps chatHTTP.Deps) {
	v1 := r.Group("/api/v1")
	v1.Use(auth.RequireAuth())
	chatHTTP.RegisterRoutes(v1, deps)
}
