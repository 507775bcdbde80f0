package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/yasirimran733/campus-connect/internal/config"
)

// Context keys populated by RequireAuth.
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
)

// AuthMiddleware verifies the access token minted by the account service and
// places the caller's identity into the request context. The chat service
// never mints tokens itself.
type AuthMiddleware struct {
	cfg config.JWTConfig
	log *logrus.Logger
}

func NewAuthMiddleware(cfg config.JWTConfig, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{cfg: cfg, log: log}
}

// RequireAuth rejects requests without a valid token. The token is taken from
// the Authorization header, or from the "token" query parameter as a fallback
// for websocket upgrades, where browsers cannot set headers.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			raw = c.Query("token")
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		userID, username, err := m.verify(raw)
		if err != nil {
			m.log.WithError(err).Debug("auth: token rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextUsername, username)
		c.Next()
	}
}

func (m *AuthMiddleware) verify(raw string) (userID, username string, err error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(m.cfg.Secret), nil
	}, jwt.WithIssuer(m.cfg.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("unexpected claims type")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", "", fmt.Errorf("token has no subject")
	}
	name, _ := claims["username"].(string)
	return sub, name, nil
}

// IdentityFromContext reads the identity RequireAuth stored. An empty user id
// means the request never passed authentication.
func IdentityFromContext(c *gin.Context) (userID, username string) {
	return c.GetString(ContextUserID), c.GetString(ContextUsername)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
