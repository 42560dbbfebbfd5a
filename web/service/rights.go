// Package service implements the business logic of the modelhub
// platform: authentication, sessions, rights resolution, group
// administration and articles.
package service

import (
	"github.com/modelhub/modelhub/database/model"
	"github.com/modelhub/modelhub/util/common"

	"gorm.io/gorm"
)

// PermissionSet is the effective set of capability rights a user holds.
// The wildcard is special-cased here, once, instead of at every call
// site.
type PermissionSet map[string]struct{}

// Satisfies reports whether the set confers the required right, either
// literally or through the wildcard.
func (p PermissionSet) Satisfies(right string) bool {
	if _, ok := p[model.WildcardRight]; ok {
		return true
	}
	_, ok := p[right]
	return ok
}

// HasWildcard reports whether the set confers every right.
func (p PermissionSet) HasWildcard() bool {
	_, ok := p[model.WildcardRight]
	return ok
}

// RightsService derives effective permissions from group memberships.
// Every check re-queries current membership; there is no cache, so a
// membership change is visible from the next request.
type RightsService struct {
	db *gorm.DB
}

func NewRightsService(db *gorm.DB) *RightsService {
	return &RightsService{db: db}
}

// EffectiveRights returns the union of right names reachable through
// the user's memberships.
func (s *RightsService) EffectiveRights(userId int) (PermissionSet, error) {
	var names []string
	err := s.db.Table("user_rights").
		Joins("JOIN user_group_rights ON user_group_rights.right_id = user_rights.id").
		Joins("JOIN user_group_membership ON user_group_membership.group_id = user_group_rights.group_id").
		Where("user_group_membership.user_id = ?", userId).
		Distinct().
		Pluck("user_rights.name", &names).Error
	if err != nil {
		return nil, common.Internal(err)
	}

	set := make(PermissionSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set, nil
}

// HasRight reports whether the user holds the named right or the
// wildcard.
func (s *RightsService) HasRight(userId int, right string) (bool, error) {
	set, err := s.EffectiveRights(userId)
	if err != nil {
		return false, err
	}
	return set.Satisfies(right), nil
}

// IsAdministrator is capability based: it means holding the wildcard
// right, not membership in a group that happens to be named
// "administrator".
func (s *RightsService) IsAdministrator(userId int) (bool, error) {
	set, err := s.EffectiveRights(userId)
	if err != nil {
		return false, err
	}
	return set.HasWildcard(), nil
}

// GroupsOf returns the group names the user currently belongs to.
func (s *RightsService) GroupsOf(userId int) ([]string, error) {
	var names []string
	err := s.db.Table("user_groups").
		Joins("JOIN user_group_membership ON user_group_membership.group_id = user_groups.id").
		Where("user_group_membership.user_id = ?", userId).
		Pluck("user_groups.name", &names).Error
	if err != nil {
		return nil, common.Internal(err)
	}
	return names, nil
}
