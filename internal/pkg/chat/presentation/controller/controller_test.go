package controller

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// Malformed conversation ids must be rejected before any query runs. The
// controllers here are built with a nil pool: if the id ever reached the
// repository these requests would come back 500, not 400.
func TestMalformedConversationIDRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/chat/:conversationId/messages", NewGetMessageController(nil).Handle())
	r.POST("/chat/:conversationId/read", NewMarkReadController(nil).Handle())

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{"history with garbage id", http.MethodGet, "/chat/not-a-uuid/messages"},
		{"history with injection shape", http.MethodGet, "/chat/1%20OR%201=1/messages"},
		{"mark read with garbage id", http.MethodPost, "/chat/not-a-uuid/read"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
			}
		})
	}
}
