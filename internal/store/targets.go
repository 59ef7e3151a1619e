package store

import (
	"context"

	"harambee/internal/models"
)

func (s *gormStore) CreateGroupTarget(ctx context.Context, t *models.GoalGroupTarget) error {
	return translate(s.conn(ctx).Create(t).Error)
}

func (s *gormStore) GetGroupTarget(ctx context.Context, goalID, groupID string) (*models.GoalGroupTarget, error) {
	var t models.GoalGroupTarget
	if err := s.first(ctx, &t, "goal_id = ? AND group_id = ?", goalID, groupID); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *gormStore) UpdateGroupTarget(ctx context.Context, t *models.GoalGroupTarget) error {
	return translate(s.conn(ctx).Save(t).Error)
}

func (s *gormStore) DeleteGroupTarget(ctx context.Context, goalID, groupID string) error {
	return s.deleteWhere(ctx, &models.GoalGroupTarget{}, "goal_id = ? AND group_id = ?", goalID, groupID)
}

func (s *gormStore) ListGroupTargets(ctx context.Context, goalID string) ([]models.GoalGroupTarget, error) {
	var targets []models.GoalGroupTarget
	err := s.conn(ctx).Where("goal_id = ?", goalID).Order("created_at ASC").Find(&targets).Error
	return targets, err
}

func (s *gormStore) CreateGoalMemberTarget(ctx context.Context, t *models.GoalMemberTarget) error {
	return translate(s.conn(ctx).Create(t).Error)
}

func (s *gormStore) GetGoalMemberTarget(ctx context.Context, goalID, memberID string) (*models.GoalMemberTarget, error) {
	var t models.GoalMemberTarget
	if err := s.first(ctx, &t, "goal_id = ? AND member_id = ?", goalID, memberID); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *gormStore) UpdateGoalMemberTarget(ctx context.Context, t *models.GoalMemberTarget) error {
	return translate(s.conn(ctx).Save(t).Error)
}

func (s *gormStore) DeleteGoalMemberTarget(ctx context.Context, goalID, memberID string) error {
	return s.deleteWhere(ctx, &models.GoalMemberTarget{}, "goal_id = ? AND member_id = ?", goalID, memberID)
}

func (s *gormStore) ListGoalMemberTargets(ctx context.Context, goalID string) ([]models.GoalMemberTarget, error) {
	var targets []models.GoalMemberTarget
	err := s.conn(ctx).Where("goal_id = ?", goalID).Order("created_at ASC").Find(&targets).Error
	return targets, err
}

func (s *gormStore) CreateMemberTarget(ctx context.Context, t *models.GoalGroupMemberTarget) error {
	return translate(s.conn(ctx).Create(t).Error)
}

func (s *gormStore) GetMemberTarget(ctx context.Context, goalID, groupID, memberID string) (*models.GoalGroupMemberTarget, error) {
	var t models.GoalGroupMemberTarget
	if err := s.first(ctx, &t, "goal_id = ? AND group_id = ? AND member_id = ?", goalID, groupID, memberID); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *gormStore) UpdateMemberTarget(ctx context.Context, t *models.GoalGroupMemberTarget) error {
	return translate(s.conn(ctx).Save(t).Error)
}

func (s *gormStore) DeleteMemberTarget(ctx context.Context, goalID, groupID, memberID string) error {
	return s.deleteWhere(ctx, &models.GoalGroupMemberTarget{},
		"goal_id = ? AND group_id = ? AND member_id = ?", goalID, groupID, memberID)
}

func (s *gormStore) ListMemberTargets(ctx context.Context, goalID, groupID string) ([]models.GoalGroupMemberTarget, error) {
	var targets []models.GoalGroupMemberTarget
	err := s.conn(ctx).Where("goal_id = ? AND group_id = ?", goalID, groupID).Order("created_at ASC").Find(&targets).Error
	return targets, err
}
