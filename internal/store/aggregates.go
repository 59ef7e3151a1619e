package store

import (
	"context"

	"harambee/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func (s *gormStore) SumContributions(ctx context.Context, sc Scope) (Totals, error) {
	q := s.conn(ctx).Model(&models.Contribution{}).
		Where("status = ? AND contribution_date IS NOT NULL", models.ContributionStatusCompleted)
	q = whereIDs(q, sc.MemberID, sc.GroupID, sc.GoalID)
	q = dateRange(q, "contribution_date", sc.From, sc.To)
	return sumRow(q)
}

func (s *gormStore) SumPendingPledges(ctx context.Context, sc Scope) (Totals, error) {
	q := s.conn(ctx).Model(&models.Pledge{}).Where("status = ?", models.PledgeStatusPending)
	q = whereIDs(q, sc.MemberID, sc.GroupID, sc.GoalID)
	q = dateRange(q, "pledge_date", sc.From, sc.To)
	return sumRow(q)
}

func (s *gormStore) SumGroupTargets(ctx context.Context, goalID string) (decimal.Decimal, error) {
	return sumTargets(s.conn(ctx).Model(&models.GoalGroupTarget{}).Where("goal_id = ?", goalID))
}

func (s *gormStore) SumMemberTargets(ctx context.Context, goalID, groupID string) (decimal.Decimal, error) {
	return sumTargets(s.conn(ctx).Model(&models.GoalGroupMemberTarget{}).
		Where("goal_id = ? AND group_id = ?", goalID, groupID))
}

// ContributingGroupIDs lists every group that either has a target under the
// goal or has realized contributions toward it.
func (s *gormStore) ContributingGroupIDs(ctx context.Context, goalID string) ([]string, error) {
	var targeted, contributing []string
	if err := s.conn(ctx).Model(&models.GoalGroupTarget{}).
		Where("goal_id = ?", goalID).Order("created_at ASC").
		Pluck("group_id", &targeted).Error; err != nil {
		return nil, err
	}
	if err := s.conn(ctx).Model(&models.Contribution{}).
		Where("goal_id = ? AND group_id IS NOT NULL AND status = ?", goalID, models.ContributionStatusCompleted).
		Distinct("group_id").Order("group_id ASC").
		Pluck("group_id", &contributing).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(targeted)+len(contributing))
	ids := make([]string, 0, len(targeted)+len(contributing))
	for _, id := range append(targeted, contributing...) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func sumTargets(q *gorm.DB) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := q.Select("COALESCE(SUM(target_amount), 0)").Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total.Round(2), nil
}
