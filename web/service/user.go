package service

import (
	"net/mail"
	"regexp"
	"time"

	"github.com/modelhub/modelhub/database"
	"github.com/modelhub/modelhub/database/model"
	"github.com/modelhub/modelhub/logger"
	"github.com/modelhub/modelhub/util/common"
	"github.com/modelhub/modelhub/util/crypto"
	"github.com/modelhub/modelhub/web/entity"

	"gorm.io/gorm"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,50}$`)

const minPasswordLength = 8

// UserService handles registration, login and account operations.
type UserService struct {
	db       *gorm.DB
	sessions *SessionService
	rights   *RightsService
}

func NewUserService(db *gorm.DB, sessions *SessionService, rights *RightsService) *UserService {
	return &UserService{db: db, sessions: sessions, rights: rights}
}

// Register creates a user, assigns the initial group and opens a
// session. The very first user ever registered lands in the
// administrator group; everyone after that starts as a plain user.
func (s *UserService) Register(req entity.RegisterRequest, client ClientInfo) (*entity.AuthResponse, error) {
	if !usernameRe.MatchString(req.Username) {
		return nil, common.Validation("username must be 3-50 characters of letters, digits or underscore")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, common.Validation("invalid email address")
	}
	if len(req.Password) < minPasswordLength {
		return nil, common.Validation("password must be at least %d characters", minPasswordLength)
	}

	// Courtesy fast-fail; the unique indexes are the authority. One OR
	// query so the response never reveals which value collided.
	var existing int64
	err := s.db.Model(&model.User{}).
		Where("username = ? OR email = ?", req.Username, req.Email).
		Count(&existing).Error
	if err != nil {
		return nil, common.Internal(err)
	}
	if existing > 0 {
		return nil, common.Conflict("username or email already taken")
	}

	hash, err := crypto.HashPasswordAsBcrypt(req.Password)
	if err != nil {
		return nil, common.Internal(err)
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
		CreatedAt:    time.Now(),
	}

	// The count-then-assign bootstrap is serialized by the transaction
	// (and sqlite's single writer); two simultaneous first registrations
	// cannot both observe an empty table.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var total int64
		if err := tx.Model(&model.User{}).Count(&total).Error; err != nil {
			return err
		}

		groupName := model.GroupUser
		if total == 0 {
			groupName = model.GroupAdministrator
		}

		group := &model.Group{}
		if err := tx.Where("name = ?", groupName).First(group).Error; err != nil {
			return err
		}
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		membership := &model.Membership{
			UserId:     user.Id,
			GroupId:    group.Id,
			AssignedAt: time.Now(),
		}
		return tx.Create(membership).Error
	})
	if database.IsUniqueViolation(err) {
		return nil, common.Conflict("username or email already taken")
	} else if err != nil {
		return nil, common.Internal(err)
	}

	logger.Infof("registered user %s (id=%d)", user.Username, user.Id)

	signed, _, err := s.sessions.Issue(user.Id, false, client)
	if err != nil {
		return nil, err
	}
	groups, err := s.rights.GroupsOf(user.Id)
	if err != nil {
		return nil, err
	}
	return &entity.AuthResponse{Token: signed, User: user, Groups: groups}, nil
}

// Login authenticates by username or email. Failures are deliberately
// generic so that account existence is never revealed.
func (s *UserService) Login(req entity.LoginRequest, client ClientInfo) (*entity.AuthResponse, error) {
	user := &model.User{}
	err := s.db.Where("username = ? OR email = ?", req.Login, req.Login).
		First(user).Error
	if database.IsNotFound(err) {
		return nil, common.Unauthenticated("invalid login or password")
	} else if err != nil {
		return nil, common.Internal(err)
	}

	if !crypto.CheckPasswordHash(user.PasswordHash, req.Password) {
		return nil, common.Unauthenticated("invalid login or password")
	}

	signed, _, err := s.sessions.Issue(user.Id, req.RememberMe, client)
	if err != nil {
		return nil, err
	}
	groups, err := s.rights.GroupsOf(user.Id)
	if err != nil {
		return nil, err
	}
	return &entity.AuthResponse{Token: signed, User: user, Groups: groups}, nil
}

// GetCurrentUser returns the account behind an authenticated identity.
func (s *UserService) GetCurrentUser(userId int) (*model.User, []string, error) {
	user, err := s.getUser(userId)
	if err != nil {
		return nil, nil, err
	}
	groups, err := s.rights.GroupsOf(userId)
	if err != nil {
		return nil, nil, err
	}
	return user, groups, nil
}

// GetProfile returns the public profile for any user id.
func (s *UserService) GetProfile(targetId int, viewer *entity.Identity) (*entity.Profile, error) {
	user, err := s.getUser(targetId)
	if err != nil {
		return nil, err
	}
	groups, err := s.rights.GroupsOf(targetId)
	if err != nil {
		return nil, err
	}
	return &entity.Profile{
		User:    user,
		Groups:  groups,
		IsOwner: viewer != nil && viewer.UserId == targetId,
	}, nil
}

// UpdateProfile applies the present fields to the caller's own record.
func (s *UserService) UpdateProfile(userId int, req entity.UpdateProfileRequest) (*model.User, error) {
	user, err := s.getUser(userId)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if req.DisplayName != nil {
		updates["display_name"] = *req.DisplayName
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if len(updates) == 0 {
		return user, nil
	}

	err = s.db.Model(user).Updates(updates).Error
	if err != nil {
		return nil, common.Internal(err)
	}
	return user, nil
}

// ChangePassword verifies the current password, stores the new hash and
// revokes every other session of the user. The session that issued the
// change stays alive.
func (s *UserService) ChangePassword(userId int, sessionId, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return common.Validation("password must be at least %d characters", minPasswordLength)
	}

	user, err := s.getUser(userId)
	if err != nil {
		return err
	}
	if !crypto.CheckPasswordHash(user.PasswordHash, currentPassword) {
		return common.Validation("current password is incorrect")
	}

	hash, err := crypto.HashPasswordAsBcrypt(newPassword)
	if err != nil {
		return common.Internal(err)
	}
	err = s.db.Model(user).Update("password_hash", hash).Error
	if err != nil {
		return common.Internal(err)
	}

	return s.sessions.RevokeAllExcept(userId, sessionId)
}

// ListUsers returns one page of users ordered by id.
func (s *UserService) ListUsers(page, pageSize int) ([]model.User, entity.Pagination, error) {
	page, pageSize = clampPage(page, pageSize)

	var total int64
	if err := s.db.Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, entity.Pagination{}, common.Internal(err)
	}

	var users []model.User
	err := s.db.Order("id").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&users).Error
	if err != nil {
		return nil, entity.Pagination{}, common.Internal(err)
	}

	return users, entity.Pagination{Page: page, PageSize: pageSize, Total: total}, nil
}

func (s *UserService) getUser(userId int) (*model.User, error) {
	user := &model.User{}
	err := s.db.Where("id = ?", userId).First(user).Error
	if database.IsNotFound(err) {
		return nil, common.NotFound("user not found")
	} else if err != nil {
		return nil, common.Internal(err)
	}
	return user, nil
}

func clampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
