package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/yasirimran733/campus-connect/internal/config"
)

const testSecret = "test-secret"

func testAuth() *AuthMiddleware {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewAuthMiddleware(config.JWTConfig{Secret: testSecret, Issuer: "campus-connect"}, log)
}

func signToken(t *testing.T, secret, issuer string, expires time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      "u1",
		"username": "ayesha",
		"iss":      issuer,
		"exp":      expires.Unix(),
		"iat":      time.Now().Unix(),
	})
	raw, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return raw
}

func authedRouter(auth *AuthMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", auth.RequireAuth(), func(c *gin.Context) {
		userID, username := IdentityFromContext(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID, "username": username})
	})
	return r
}

func TestRequireAuthAcceptsBearerHeader(t *testing.T) {
	r := authedRouter(testAuth())
	raw := signToken(t, testSecret, "campus-connect", time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestRequireAuthAcceptsQueryToken(t *testing.T) {
	r := authedRouter(testAuth())
	raw := signToken(t, testSecret, "campus-connect", time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/protected?token="+raw, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestRequireAuthRejections(t *testing.T) {
	tests := []struct {
		name    string
		request func(t *testing.T) *http.Request
	}{
		{
			name: "no token",
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodGet, "/protected", nil)
			},
		},
		{
			name: "malformed header",
			request: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodGet, "/protected", nil)
				req.Header.Set("Authorization", "Token abc")
				return req
			},
		},
		{
			name: "wrong secret",
			request: func(t *testing.T) *http.Request {
				raw := signToken(t, "other-secret", "campus-connect", time.Now().Add(time.Hour))
				req := httptest.NewRequest(http.MethodGet, "/protected", nil)
				req.Header.Set("Authorization", "Bearer "+raw)
				return req
			},
		},
		{
			name: "expired token",
			request: func(t *testing.T) *http.Request {
				raw := signToken(t, testSecret, "campus-connect", time.Now().Add(-time.Minute))
				req := httptest.NewRequest(http.MethodGet, "/protected", nil)
				req.Header.Set("Authorization", "Bearer "+raw)
				return req
			},
		},
		{
			name: "wrong issuer",
			request: func(t *testing.T) *http.Request {
				raw := signToken(t, testSecret, "someone-else", time.Now().Add(time.Hour))
				req := httptest.NewRequest(http.MethodGet, "/protected", nil)
				req.Header.Set("Authorization", "Bearer "+raw)
				return req
			},
		},
	}

	r := authedRouter(testAuth())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, tt.request(t))
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", w.Code)
			}
		})
	}
}
