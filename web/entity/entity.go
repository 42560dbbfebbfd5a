// Package entity defines the request and response shapes of the web layer.
package entity

import (
	"github.com/modelhub/modelhub/database/model"
)

// Msg is the standard error/notice envelope.
type Msg struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Obj     any    `json:"obj,omitempty"`
}

// Identity is the authenticated caller attached to the request context
// by the auth middleware.
type Identity struct {
	UserId    int
	SessionId string
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

type RegisterRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
}

type LoginRequest struct {
	Login      string `json:"login" binding:"required"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"rememberMe"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token  string      `json:"token"`
	User   *model.User `json:"user"`
	Groups []string    `json:"groups,omitempty"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName"`
	Avatar      *string `json:"avatar"`
	Bio         *string `json:"bio"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

type UpdateGroupsRequest struct {
	Groups []string `json:"groups"`
}

// Profile is the public view of a user.
type Profile struct {
	User    *model.User `json:"user"`
	Groups  []string    `json:"groups"`
	IsOwner bool        `json:"isOwner"`
}

type UserList struct {
	Users      []model.User `json:"users"`
	Pagination Pagination   `json:"pagination"`
}

type CreateArticleRequest struct {
	Title       string   `json:"title" binding:"required"`
	Slug        string   `json:"slug"`
	HeaderImage string   `json:"headerImage"`
	Excerpt     string   `json:"excerpt"`
	Content     string   `json:"content"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
}

// UpdateArticleRequest uses pointers so that absent fields are left
// untouched.
type UpdateArticleRequest struct {
	Title       *string   `json:"title"`
	Slug        *string   `json:"slug"`
	HeaderImage *string   `json:"headerImage"`
	Excerpt     *string   `json:"excerpt"`
	Content     *string   `json:"content"`
	Tags        *[]string `json:"tags"`
}

type ArticleStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ArticleList struct {
	Articles   []model.Article `json:"articles"`
	Pagination Pagination      `json:"pagination"`
}

// ServerStatus is the payload of the status endpoint.
type ServerStatus struct {
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	Requests      int64  `json:"requests"`
	ArticleViews  int64  `json:"articleViews"`
}
