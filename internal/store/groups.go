package store

import (
	"context"

	"harambee/internal/models"
	"harambee/internal/pagination"
)

func (s *gormStore) CreateGroup(ctx context.Context, g *models.Group) error {
	return translate(s.conn(ctx).Create(g).Error)
}

func (s *gormStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	var g models.Group
	if err := s.first(ctx, &g, "id = ?", id); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *gormStore) ListGroups(ctx context.Context, f GroupFilter, page pagination.PageRequest) ([]models.Group, int64, error) {
	q := s.conn(ctx).Model(&models.Group{})
	if f.Search != "" {
		q = q.Where("name LIKE ?", "%"+f.Search+"%")
	}
	if f.GoalID != nil {
		q = q.Where("goal_id = ?", *f.GoalID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var groups []models.Group
	if err := q.Order("name ASC").Scopes(pagination.Paginate(page)).Find(&groups).Error; err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

func (s *gormStore) UpdateGroup(ctx context.Context, g *models.Group) error {
	return translate(s.conn(ctx).Save(g).Error)
}

// DeleteGroup removes the group, its memberships and every target keyed on it.
func (s *gormStore) DeleteGroup(ctx context.Context, id string) error {
	return s.WithTx(ctx, func(tx LedgerStore) error {
		t := tx.(*gormStore)
		for _, model := range []any{&models.GroupMember{}, &models.GoalGroupTarget{}, &models.GoalGroupMemberTarget{}} {
			if err := t.conn(ctx).Where("group_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		return t.deleteWhere(ctx, &models.Group{}, "id = ?", id)
	})
}

func (s *gormStore) GroupReferenced(ctx context.Context, id string) (bool, error) {
	return s.referenced(ctx, "group_id", id)
}

func (s *gormStore) AddGroupMember(ctx context.Context, gm *models.GroupMember) error {
	return translate(s.conn(ctx).Create(gm).Error)
}

func (s *gormStore) RemoveGroupMember(ctx context.Context, groupID, memberID string) error {
	return s.deleteWhere(ctx, &models.GroupMember{}, "group_id = ? AND member_id = ?", groupID, memberID)
}

func (s *gormStore) IsGroupMember(ctx context.Context, groupID, memberID string) (bool, error) {
	return s.exists(ctx, &models.GroupMember{}, "group_id = ? AND member_id = ?", groupID, memberID)
}

func (s *gormStore) ListGroupMembers(ctx context.Context, groupID string, page pagination.PageRequest) ([]models.Member, int64, error) {
	q := s.conn(ctx).Model(&models.Member{}).
		Joins("JOIN group_members ON group_members.member_id = members.id").
		Where("group_members.group_id = ?", groupID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var members []models.Member
	if err := q.Order("members.full_name ASC").Scopes(pagination.Paginate(page)).Find(&members).Error; err != nil {
		return nil, 0, err
	}
	return members, total, nil
}
