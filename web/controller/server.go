package controller

import (
	"net/http"

	"github.com/modelhub/modelhub/web/service"

	"github.com/gin-gonic/gin"
)

// ServerController exposes the health and status endpoints.
type ServerController struct {
	analytics *service.AnalyticsService
}

func NewServerController(g *gin.RouterGroup, authOptional gin.HandlerFunc,
	analytics *service.AnalyticsService) *ServerController {

	a := &ServerController{analytics: analytics}
	a.initRouter(g, authOptional)
	return a
}

func (a *ServerController) initRouter(g *gin.RouterGroup, authOptional gin.HandlerFunc) {
	g.GET("/ping", a.ping)
	g.GET("/server/status", authOptional, a.status)
}

func (a *ServerController) ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

func (a *ServerController) status(c *gin.Context) {
	jsonOK(c, a.analytics.Status())
}
