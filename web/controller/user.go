package controller

import (
	"strconv"

	"github.com/modelhub/modelhub/database/model"
	"github.com/modelhub/modelhub/util/common"
	"github.com/modelhub/modelhub/web/entity"
	"github.com/modelhub/modelhub/web/middleware"
	"github.com/modelhub/modelhub/web/service"

	"github.com/gin-gonic/gin"
)

// UserController handles profiles, the user listing and the admin-only
// group membership operations.
type UserController struct {
	users  *service.UserService
	groups *service.GroupService
	rights *service.RightsService
}

func NewUserController(g *gin.RouterGroup, authRequired, authOptional gin.HandlerFunc,
	users *service.UserService, groups *service.GroupService, rights *service.RightsService) *UserController {

	a := &UserController{users: users, groups: groups, rights: rights}
	a.initRouter(g, authRequired, authOptional)
	return a
}

func (a *UserController) initRouter(g *gin.RouterGroup, authRequired, authOptional gin.HandlerFunc) {
	g.GET("", authOptional, a.listUsers)
	g.GET("/groups/list", a.listGroups)
	g.GET("/:id", authOptional, a.getProfile)

	g.PATCH("/me", authRequired, a.updateProfile)
	g.POST("/me/change-password", authRequired, a.changePassword)
	g.PATCH("/:id/groups", authRequired, a.updateUserGroups)
}

func (a *UserController) listUsers(c *gin.Context) {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "pageSize", 20)
	users, pagination, err := a.users.ListUsers(page, pageSize)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonOK(c, entity.UserList{Users: users, Pagination: pagination})
}

func (a *UserController) listGroups(c *gin.Context) {
	groups, err := a.groups.ListGroups()
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonOK(c, gin.H{"groups": groups})
}

func (a *UserController) getProfile(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		jsonError(c, common.NotFound("user not found"))
		return
	}
	profile, err := a.users.GetProfile(id, middleware.GetIdentity(c))
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonOK(c, profile)
}

func (a *UserController) updateProfile(c *gin.Context) {
	var req entity.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}
	identity := middleware.GetIdentity(c)
	user, err := a.users.UpdateProfile(identity.UserId, req)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonOK(c, gin.H{"user": user})
}

func (a *UserController) changePassword(c *gin.Context) {
	var req entity.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}
	identity := middleware.GetIdentity(c)
	err := a.users.ChangePassword(identity.UserId, identity.SessionId,
		req.CurrentPassword, req.NewPassword)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonMsg(c, "password changed")
}

// updateUserGroups is admin only: the acting user must hold
// manage_users or the wildcard.
func (a *UserController) updateUserGroups(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	allowed, err := a.rights.HasRight(identity.UserId, model.RightManageUsers)
	if err != nil {
		jsonError(c, err)
		return
	}
	if !allowed {
		jsonError(c, common.Forbidden("missing right to manage users"))
		return
	}

	targetId, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		jsonError(c, common.NotFound("user not found"))
		return
	}
	var req entity.UpdateGroupsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonBadRequest(c, err)
		return
	}

	groups, err := a.groups.UpdateUserGroups(targetId, req.Groups, identity.UserId)
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonOK(c, gin.H{"groups": groups})
}
