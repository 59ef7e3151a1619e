package store

import (
	"context"
	"time"

	"harambee/internal/models"
	"harambee/internal/pagination"

	"gorm.io/gorm"
)

func (s *gormStore) CreateContribution(ctx context.Context, c *models.Contribution) error {
	return translate(s.conn(ctx).Create(c).Error)
}

func (s *gormStore) GetContribution(ctx context.Context, id string) (*models.Contribution, error) {
	var c models.Contribution
	if err := s.first(ctx, &c, "id = ?", id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *gormStore) ListContributions(ctx context.Context, f ContributionFilter, page pagination.PageRequest) ([]models.Contribution, int64, error) {
	q := s.conn(ctx).Model(&models.Contribution{})
	q = whereIDs(q, f.MemberID, f.GroupID, f.GoalID)
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	q = dateRange(q, "contribution_date", f.From, f.To)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var contributions []models.Contribution
	err := q.Order("contribution_date DESC").Order("created_at DESC").
		Scopes(pagination.Paginate(page)).Find(&contributions).Error
	if err != nil {
		return nil, 0, err
	}
	return contributions, total, nil
}

func (s *gormStore) UpdateContribution(ctx context.Context, c *models.Contribution) error {
	return translate(s.conn(ctx).Save(c).Error)
}

func (s *gormStore) DeleteContribution(ctx context.Context, id string) error {
	return s.deleteWhere(ctx, &models.Contribution{}, "id = ?", id)
}

func (s *gormStore) TransitionContribution(ctx context.Context, id string, from, to models.ContributionStatus, contributionDate *time.Time) error {
	updates := map[string]any{"status": to}
	if contributionDate != nil {
		updates["contribution_date"] = *contributionDate
	}
	return compareAndSet(s.conn(ctx).Model(&models.Contribution{}).Where("id = ? AND status = ?", id, from), updates)
}

func (s *gormStore) CreatePledge(ctx context.Context, p *models.Pledge) error {
	return translate(s.conn(ctx).Create(p).Error)
}

func (s *gormStore) GetPledge(ctx context.Context, id string) (*models.Pledge, error) {
	var p models.Pledge
	if err := s.first(ctx, &p, "id = ?", id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *gormStore) ListPledges(ctx context.Context, f PledgeFilter, page pagination.PageRequest) ([]models.Pledge, int64, error) {
	q := s.conn(ctx).Model(&models.Pledge{})
	q = whereIDs(q, f.MemberID, f.GroupID, f.GoalID)
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	q = dateRange(q, "pledge_date", f.From, f.To)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var pledges []models.Pledge
	if err := q.Order("pledge_date DESC").Order("created_at DESC").Scopes(pagination.Paginate(page)).Find(&pledges).Error; err != nil {
		return nil, 0, err
	}
	return pledges, total, nil
}

func (s *gormStore) UpdatePledge(ctx context.Context, p *models.Pledge) error {
	return translate(s.conn(ctx).Save(p).Error)
}

// DeletePledge removes the pledge. A contribution recorded by fulfilling it
// is kept with its pledge_id cleared.
func (s *gormStore) DeletePledge(ctx context.Context, id string) error {
	return s.WithTx(ctx, func(tx LedgerStore) error {
		t := tx.(*gormStore)
		if err := t.conn(ctx).Model(&models.Contribution{}).Where("pledge_id = ?", id).Update("pledge_id", nil).Error; err != nil {
			return translate(err)
		}
		return t.deleteWhere(ctx, &models.Pledge{}, "id = ?", id)
	})
}

func (s *gormStore) TransitionPledge(ctx context.Context, id string, from, to models.PledgeStatus, at time.Time) error {
	updates := map[string]any{"status": to}
	switch to {
	case models.PledgeStatusPaid:
		updates["paid_at"] = at
	case models.PledgeStatusCancelled:
		updates["cancelled_at"] = at
	}
	return compareAndSet(s.conn(ctx).Model(&models.Pledge{}).Where("id = ? AND status = ?", id, from), updates)
}

// notReminded matches pledges whose current due date has no reminder yet.
const notReminded = "(reminded_for IS NULL OR reminded_for <> due_date)"

func (s *gormStore) ListPledgesDue(ctx context.Context, from, to time.Time) ([]models.Pledge, error) {
	var pledges []models.Pledge
	q := s.conn(ctx).Where("status = ?", models.PledgeStatusPending).Where(notReminded)
	q = dateRange(q, "due_date", &from, &to)
	err := q.Order("due_date ASC").Find(&pledges).Error
	return pledges, err
}

func (s *gormStore) MarkPledgeReminded(ctx context.Context, id string) error {
	q := s.conn(ctx).Model(&models.Pledge{}).
		Where("id = ? AND status = ?", id, models.PledgeStatusPending).
		Where(notReminded)
	return compareAndSet(q, map[string]any{"reminded_for": gorm.Expr("due_date")})
}

func whereIDs(q *gorm.DB, memberID, groupID, goalID *string) *gorm.DB {
	if memberID != nil {
		q = q.Where("member_id = ?", *memberID)
	}
	if groupID != nil {
		q = q.Where("group_id = ?", *groupID)
	}
	if goalID != nil {
		q = q.Where("goal_id = ?", *goalID)
	}
	return q
}

// compareAndSet applies updates to the rows q selects and fails with
// ErrNotFound unless exactly one row changed.
func compareAndSet(q *gorm.DB, updates map[string]any) error {
	res := q.Updates(updates)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected != 1 {
		return ErrNotFound
	}
	return nil
}
