// Package controller provides the HTTP handlers of the modelhub API.
package controller

import (
	"net"
	"net/http"
	"strings"

	"github.com/modelhub/modelhub/logger"
	"github.com/modelhub/modelhub/util/common"
	"github.com/modelhub/modelhub/web/entity"
	"github.com/modelhub/modelhub/web/service"

	"github.com/gin-gonic/gin"
)

// statusOf is the single mapping from error kind to transport status.
func statusOf(kind common.ErrKind) int {
	switch kind {
	case common.KindValidation, common.KindConflict:
		return http.StatusBadRequest
	case common.KindAuthentication:
		return http.StatusUnauthorized
	case common.KindAuthorization:
		return http.StatusForbidden
	case common.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// jsonError renders a service error. Internal causes are logged but
// never sent to the client.
func jsonError(c *gin.Context, err error) {
	appErr := common.AsAppError(err)
	if appErr.Kind == common.KindInternal {
		logger.Error("request failed:", appErr)
	}
	c.JSON(statusOf(appErr.Kind), entity.Msg{Msg: appErr.Msg})
}

// jsonBadRequest renders a request binding failure.
func jsonBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, entity.Msg{Msg: "malformed request: " + err.Error()})
}

// jsonOK renders obj with a 200.
func jsonOK(c *gin.Context, obj any) {
	c.JSON(http.StatusOK, obj)
}

// jsonMsg renders a plain success notice.
func jsonMsg(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, entity.Msg{Success: true, Msg: msg})
}

// getRemoteIp extracts the real client address from proxy headers or
// the remote address.
func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Real-IP")
	if value != "" {
		return value
	}
	value = c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return strings.TrimSpace(ips[0])
	}
	addr := c.Request.RemoteAddr
	ip, _, _ := net.SplitHostPort(addr)
	return ip
}

func clientInfo(c *gin.Context) service.ClientInfo {
	return service.ClientInfo{
		UserAgent:  c.Request.UserAgent(),
		RemoteAddr: getRemoteIp(c),
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	value := c.Query(key)
	if value == "" {
		return fallback
	}
	n := 0
	for _, r := range value {
		if r < '0' || r > '9' {
			return fallback
		}
		n = n*10 + int(r-'0')
		if n > 1<<30 {
			return fallback
		}
	}
	return n
}
