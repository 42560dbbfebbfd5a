package model

import (
	"time"
)

// ArticleStatus is the publication state of an article.
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "draft"
	StatusPublished ArticleStatus = "published"
	StatusPrivate   ArticleStatus = "private"
)

// ValidStatus reports whether s is one of the known article states.
func ValidStatus(s ArticleStatus) bool {
	switch s {
	case StatusDraft, StatusPublished, StatusPrivate:
		return true
	}
	return false
}

// WildcardRight grants every capability, including ones added later.
const WildcardRight = "*"

// Default group names seeded on first boot. The group set itself is
// data driven; these three are just the seed.
const (
	GroupAdministrator = "administrator"
	GroupCreator       = "creator"
	GroupUser          = "user"
)

// Capability rights seeded on first boot.
const (
	RightCreateContent = "create_content"
	RightManageUsers   = "manage_users"
)

type User struct {
	Id           int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	DisplayName  string    `json:"displayName"`
	Avatar       string    `json:"avatar"`
	Bio          string    `json:"bio"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is the server-side record of an issued login. Only a one-way
// hash of the bearer token is stored; the row is the source of truth
// for revocation.
type Session struct {
	Id         string    `json:"id" gorm:"primaryKey"`
	UserId     int       `json:"userId" gorm:"index;not null"`
	TokenHash  string    `json:"-" gorm:"column:token_hash;not null"`
	ExpiresAt  time.Time `json:"expiresAt" gorm:"index;not null"`
	CreatedAt  time.Time `json:"createdAt"`
	UserAgent  string    `json:"userAgent"`
	RemoteAddr string    `json:"remoteAddr"`
}

type Group struct {
	Id          int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string `json:"name" gorm:"uniqueIndex;not null"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

func (Group) TableName() string { return "user_groups" }

type Right struct {
	Id   int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`
}

func (Right) TableName() string { return "user_rights" }

// GroupRight links a group to a capability it confers.
type GroupRight struct {
	Id      int `json:"id" gorm:"primaryKey;autoIncrement"`
	GroupId int `json:"groupId" gorm:"index:idx_group_right,unique;not null"`
	RightId int `json:"rightId" gorm:"index:idx_group_right,unique;not null"`
}

func (GroupRight) TableName() string { return "user_group_rights" }

// Membership assigns a user to a group. The table allows many rows per
// user; the one-group-at-a-time rule is enforced by the service layer,
// which always replaces rather than appends.
type Membership struct {
	Id         int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserId     int       `json:"userId" gorm:"index;not null"`
	GroupId    int       `json:"groupId" gorm:"index;not null"`
	AssignedBy int       `json:"assignedBy"`
	AssignedAt time.Time `json:"assignedAt"`
}

func (Membership) TableName() string { return "user_group_membership" }

type Article struct {
	Id          int           `json:"id" gorm:"primaryKey;autoIncrement"`
	AuthorId    int           `json:"authorId" gorm:"index;not null"`
	Title       string        `json:"title" gorm:"not null"`
	Slug        string        `json:"slug" gorm:"uniqueIndex;not null"`
	HeaderImage string        `json:"headerImage"`
	Excerpt     string        `json:"excerpt"`
	Content     string        `json:"content"`
	Status      ArticleStatus `json:"status" gorm:"default:draft;index"`
	Views       int64         `json:"views" gorm:"default:0"`
	Tags        []ArticleTag  `json:"tags" gorm:"foreignKey:ArticleId;references:Id"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
	PublishedAt *time.Time    `json:"publishedAt"`
}

type ArticleTag struct {
	Id        int    `json:"-" gorm:"primaryKey;autoIncrement"`
	ArticleId int    `json:"-" gorm:"index:idx_article_tag,unique;not null"`
	Tag       string `json:"tag" gorm:"index:idx_article_tag,unique;index;not null"`
}
