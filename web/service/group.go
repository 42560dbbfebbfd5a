package service

import (
	"time"

	"github.com/modelhub/modelhub/database"
	"github.com/modelhub/modelhub/database/model"
	"github.com/modelhub/modelhub/logger"
	"github.com/modelhub/modelhub/util/common"

	"gorm.io/gorm"
)

// GroupService lists groups and administers user memberships.
type GroupService struct {
	db     *gorm.DB
	rights *RightsService
}

func NewGroupService(db *gorm.DB, rights *RightsService) *GroupService {
	return &GroupService{db: db, rights: rights}
}

// ListGroups returns the full group catalog.
func (s *GroupService) ListGroups() ([]model.Group, error) {
	var groups []model.Group
	if err := s.db.Order("id").Find(&groups).Error; err != nil {
		return nil, common.Internal(err)
	}
	return groups, nil
}

// UpdateUserGroups replaces the target user's membership with exactly
// one group. The manage_users precondition on the acting admin is
// enforced by the caller; this method enforces the structural rules:
// at least one group, at most one group, and no self-modification.
func (s *GroupService) UpdateUserGroups(targetUserId int, groups []string, actingAdminId int) ([]string, error) {
	if len(groups) == 0 {
		return nil, common.Validation("user must belong to at least one group")
	}

	groupName := groups[0]
	for _, g := range groups[1:] {
		if g != groupName {
			return nil, common.Validation("a user may belong to exactly one group")
		}
	}

	if targetUserId == actingAdminId {
		return nil, common.Forbidden("administrators may not change their own group")
	}

	var targetCount int64
	err := s.db.Model(&model.User{}).Where("id = ?", targetUserId).Count(&targetCount).Error
	if err != nil {
		return nil, common.Internal(err)
	}
	if targetCount == 0 {
		return nil, common.NotFound("user not found")
	}

	group := &model.Group{}
	err = s.db.Where("name = ?", groupName).First(group).Error
	if database.IsNotFound(err) {
		return nil, common.Validation("unknown group %q", groupName)
	} else if err != nil {
		return nil, common.Internal(err)
	}

	// Full replace, never an incremental add.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", targetUserId).Delete(&model.Membership{}).Error
		if err != nil {
			return err
		}
		return tx.Create(&model.Membership{
			UserId:     targetUserId,
			GroupId:    group.Id,
			AssignedBy: actingAdminId,
			AssignedAt: time.Now(),
		}).Error
	})
	if err != nil {
		return nil, common.Internal(err)
	}

	logger.Infof("user %d moved to group %s by admin %d", targetUserId, groupName, actingAdminId)
	return s.rights.GroupsOf(targetUserId)
}
