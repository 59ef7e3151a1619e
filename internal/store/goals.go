package store

import (
	"context"

	"harambee/internal/models"
	"harambee/internal/pagination"
)

func (s *gormStore) CreateGoal(ctx context.Context, g *models.Goal) error {
	return translate(s.conn(ctx).Create(g).Error)
}

func (s *gormStore) GetGoal(ctx context.Context, id string) (*models.Goal, error) {
	var g models.Goal
	if err := s.first(ctx, &g, "id = ?", id); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *gormStore) ListGoals(ctx context.Context, f GoalFilter, page pagination.PageRequest) ([]models.Goal, int64, error) {
	q := s.conn(ctx).Model(&models.Goal{})
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var goals []models.Goal
	if err := q.Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&goals).Error; err != nil {
		return nil, 0, err
	}
	return goals, total, nil
}

func (s *gormStore) UpdateGoal(ctx context.Context, g *models.Goal) error {
	return translate(s.conn(ctx).Save(g).Error)
}

// DeleteGoal removes the goal with its target rows and snapshots. Groups scoped to
// the goal are detached rather than deleted.
func (s *gormStore) DeleteGoal(ctx context.Context, id string) error {
	return s.WithTx(ctx, func(tx LedgerStore) error {
		t := tx.(*gormStore)
		for _, model := range []any{&models.GoalGroupTarget{}, &models.GoalMemberTarget{}, &models.GoalGroupMemberTarget{}, &models.GoalProgressSnapshot{}} {
			if err := t.conn(ctx).Where("goal_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := t.conn(ctx).Model(&models.Group{}).Where("goal_id = ?", id).Update("goal_id", nil).Error; err != nil {
			return err
		}
		return t.deleteWhere(ctx, &models.Goal{}, "id = ?", id)
	})
}

func (s *gormStore) GoalReferenced(ctx context.Context, id string) (bool, error) {
	return s.referenced(ctx, "goal_id", id)
}
