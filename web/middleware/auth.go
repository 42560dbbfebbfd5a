// Package middleware provides the gin middleware of the modelhub API.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/modelhub/modelhub/logger"
	"github.com/modelhub/modelhub/util/common"
	"github.com/modelhub/modelhub/web/entity"
	"github.com/modelhub/modelhub/web/service"
	"github.com/modelhub/modelhub/web/token"

	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key under which the authenticated
// identity is stored.
const IdentityKey = "identity"

// GetIdentity returns the authenticated identity attached by
// SessionAuth, or nil for anonymous requests.
func GetIdentity(c *gin.Context) *entity.Identity {
	value, exists := c.Get(IdentityKey)
	if !exists {
		return nil
	}
	identity, ok := value.(*entity.Identity)
	if !ok {
		return nil
	}
	return identity
}

// SessionAuth validates the bearer token and the live session row
// behind it. In required mode, any absent or invalid credential aborts
// with 401. In optional mode the request proceeds anonymously instead,
// but a failing session store still aborts with 500: a down datastore
// must never be indistinguishable from "not logged in".
func SessionAuth(tokens *token.Manager, sessions *service.SessionService, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			deny(c, required, "missing bearer token")
			return
		}

		claims, err := tokens.Validate(raw)
		if err != nil {
			// Expiry and bad signatures are logged apart but answered alike.
			if errors.Is(err, token.ErrTokenExpired) {
				logger.Debug("rejected expired token")
			} else {
				logger.Debug("rejected invalid token:", err)
			}
			deny(c, required, "invalid or expired token")
			return
		}

		session, err := sessions.Validate(claims.UserId, claims.SessionId, raw)
		if err != nil {
			if common.KindOf(err) == common.KindInternal {
				logger.Error("session lookup failed:", err)
				c.JSON(http.StatusInternalServerError, entity.Msg{Msg: "internal error"})
				c.Abort()
				return
			}
			deny(c, required, "session expired or revoked")
			return
		}

		c.Set(IdentityKey, &entity.Identity{UserId: session.UserId, SessionId: session.Id})
		c.Next()
	}
}

func deny(c *gin.Context, required bool, msg string) {
	if !required {
		c.Next()
		return
	}
	c.JSON(http.StatusUnauthorized, entity.Msg{Msg: msg})
	c.Abort()
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
	return strings.TrimSpace(parts[1])
}
