package controller

import (
	"net/http"

	"github.com/modelhub/modelhub/web/entity"
	"github.com/modelhub/modelhub/web/middleware"
	"github.com/modelhub/modelhub/web/service"

	"github.com/gin-gonic/gin"
)

// AuthController handles registration, login and session lifecycle.
type AuthController struct {
	users    *service.UserService
	sessions *service.SessionService
}

// NewAuthController creates the controller and sets up its routes.
// authRequired is the mandatory-mode session middleware.
func NewAuthController(g *gin.RouterGroup, authRequired gin.HandlerFunc,
	users *service.UserService, sessions *service.SessionService) *AuthController {

	a := &AuthController{users: users, sessions: sessions}
	a.initRouter(g, authRequired)
	return a
}

func (a *AuthController) initRouter(g *gin.RouterGroup, authRequired gin.HandlerFunc) {
	g.POST("/register", a.register)
	g.POST("/login", a.login)

	g.POST("/logout", authRequired, a.logout)
	g.POST("/logout-all", authRequired, a.logoutAll)
	g.GET("/me", authRequired, a.me)
}

func (a *AuthController) register(c *gin.Context) {
	var req entity.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}
	resp, err := a.users.Register(req, clientInfo(c))
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (a *AuthController) login(c *gin.Context) {
	var req entity.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}
	resp, err := a.users.Login(req, clientInfo(c))
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonOK(c, resp)
}

func (a *AuthController) logout(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if err := a.sessions.Revoke(identity.SessionId); err != nil {
		jsonError(c, err)
		return
	}
	jsonMsg(c, "logged out")
}

func (a *AuthController) logoutAll(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	if err := a.sessions.RevokeAll(identity.UserId); err != nil {
		jsonError(c, err)
		return
	}
	jsonMsg(c, "logged out everywhere")
}

func (a *AuthController) me(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	user, groups, err := a.users.GetCurrentUser(identity.UserId)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonOK(c, gin.H{"user": user, "groups": groups})
}
