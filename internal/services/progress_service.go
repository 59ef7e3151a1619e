package services

import (
	"context"
	"errors"
	"time"

	apperrors "harambee/internal/errors"
	"harambee/internal/models"
	"harambee/internal/pagination"
	"harambee/internal/store"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// progressService answers progress queries straight from the store's
// aggregates. Nothing is cached.
type progressService struct {
	store store.LedgerStore
}

// NewProgressService creates a new ProgressServicer.
func NewProgressService(st store.LedgerStore) ProgressServicer {
	return &progressService{store: st}
}

func (r DateRange) validate() error {
	if r.From != nil && r.To != nil && models.TruncateDate(*r.To).Before(models.TruncateDate(*r.From)) {
		return apperrors.WithMessage(apperrors.ErrInvalidDateRange, "Range end must not be before its start")
	}
	return nil
}

// percentage returns contributed/target*100 rounded to two places, or 0 for
// a zero target.
func percentage(contributed, target decimal.Decimal) float64 {
	if !target.IsPositive() {
		return 0
	}
	return contributed.Div(target).Mul(hundred).Round(2).InexactFloat64()
}

// measure fills in the aggregate fields of p for scope.
func (s *progressService) measure(ctx context.Context, p *Progress, scope store.Scope) error {
	contributed, err := s.store.SumContributions(ctx, scope)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	pledged, err := s.store.SumPendingPledges(ctx, scope)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	p.ContributedAmount = contributed.Amount
	p.ContributionCount = contributed.Count
	p.PledgedAmount = pledged.Amount
	p.PledgeCount = pledged.Count
	p.RemainingAmount = p.TargetAmount.Sub(contributed.Amount)
	p.ProgressPercentage = percentage(contributed.Amount, p.TargetAmount)
	return nil
}

// targetOrZero returns amount from a target lookup, treating a missing row
// as a zero target.
func targetOrZero(amount decimal.Decimal, err error) (decimal.Decimal, error) {
	if errors.Is(err, store.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return amount, nil
}

// GoalProgress reports progress against the goal's own target.
func (s *progressService) GoalProgress(ctx context.Context, goalID string, r DateRange) (*Progress, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	goal, err := loadGoal(ctx, s.store, goalID)
	if err != nil {
		return nil, err
	}
	return s.goalProgress(ctx, goal, r)
}

func (s *progressService) goalProgress(ctx context.Context, goal *models.Goal, r DateRange) (*Progress, error) {
	p := &Progress{GoalID: goal.ID, TargetAmount: goal.TargetAmount}
	if err := s.measure(ctx, p, store.Scope{GoalID: &goal.ID, From: r.From, To: r.To}); err != nil {
		return nil, err
	}
	return p, nil
}

// GroupProgress reports a group's progress toward its target under a goal.
func (s *progressService) GroupProgress(ctx context.Context, goalID, groupID string, r DateRange) (*Progress, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if _, _, err := checkGroupForGoal(ctx, s.store, goalID, groupID); err != nil {
		return nil, err
	}
	return s.groupProgress(ctx, goalID, groupID, r)
}

func (s *progressService) groupProgress(ctx context.Context, goalID, groupID string, r DateRange) (*Progress, error) {
	var amount decimal.Decimal
	t, err := s.store.GetGroupTarget(ctx, goalID, groupID)
	if err == nil {
		amount = t.TargetAmount
	}
	target, err := targetOrZero(amount, err)
	if err != nil {
		return nil, err
	}

	p := &Progress{GoalID: goalID, GroupID: &groupID, TargetAmount: target}
	if err := s.measure(ctx, p, store.Scope{GoalID: &goalID, GroupID: &groupID, From: r.From, To: r.To}); err != nil {
		return nil, err
	}
	return p, nil
}

// MemberProgress reports a member's goal-wide progress regardless of group.
func (s *progressService) MemberProgress(ctx context.Context, goalID, memberID string, r DateRange) (*Progress, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if _, err := loadGoal(ctx, s.store, goalID); err != nil {
		return nil, err
	}
	if _, err := loadMember(ctx, s.store, memberID); err != nil {
		return nil, err
	}

	var amount decimal.Decimal
	t, err := s.store.GetGoalMemberTarget(ctx, goalID, memberID)
	if err == nil {
		amount = t.TargetAmount
	}
	target, err := targetOrZero(amount, err)
	if err != nil {
		return nil, err
	}

	p := &Progress{GoalID: goalID, MemberID: &memberID, TargetAmount: target}
	if err := s.measure(ctx, p, store.Scope{GoalID: &goalID, MemberID: &memberID, From: r.From, To: r.To}); err != nil {
		return nil, err
	}
	return p, nil
}

// GroupMemberProgress reports a member's progress within one group.
func (s *progressService) GroupMemberProgress(ctx context.Context, goalID, groupID, memberID string, r DateRange) (*Progress, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if _, _, err := checkGroupForGoal(ctx, s.store, goalID, groupID); err != nil {
		return nil, err
	}
	if _, err := loadMember(ctx, s.store, memberID); err != nil {
		return nil, err
	}

	var amount decimal.Decimal
	t, err := s.store.GetMemberTarget(ctx, goalID, groupID, memberID)
	if err == nil {
		amount = t.TargetAmount
	}
	target, err := targetOrZero(amount, err)
	if err != nil {
		return nil, err
	}

	p := &Progress{GoalID: goalID, GroupID: &groupID, MemberID: &memberID, TargetAmount: target}
	scope := store.Scope{GoalID: &goalID, GroupID: &groupID, MemberID: &memberID, From: r.From, To: r.To}
	if err := s.measure(ctx, p, scope); err != nil {
		return nil, err
	}
	return p, nil
}

// GoalBreakdown reports the goal together with every group that has a
// target under it or has contributed toward it.
func (s *progressService) GoalBreakdown(ctx context.Context, goalID string, r DateRange) (*Breakdown, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	goal, err := loadGoal(ctx, s.store, goalID)
	if err != nil {
		return nil, err
	}
	return s.breakdown(ctx, goal, r)
}

func (s *progressService) breakdown(ctx context.Context, goal *models.Goal, r DateRange) (*Breakdown, error) {
	overall, err := s.goalProgress(ctx, goal, r)
	if err != nil {
		return nil, err
	}
	groupIDs, err := s.store.ContributingGroupIDs(ctx, goal.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	b := &Breakdown{Goal: *overall, Groups: make([]Progress, 0, len(groupIDs)), From: r.From, To: r.To}
	for _, groupID := range groupIDs {
		gp, err := s.groupProgress(ctx, goal.ID, groupID, r)
		if err != nil {
			return nil, err
		}
		b.Groups = append(b.Groups, *gp)
	}
	return b, nil
}

// GoalReport is GoalBreakdown bounded by the goal's own window unless r
// overrides either end.
func (s *progressService) GoalReport(ctx context.Context, goalID string, r DateRange) (*Breakdown, error) {
	goal, err := loadGoal(ctx, s.store, goalID)
	if err != nil {
		return nil, err
	}
	if r.From == nil {
		r.From = goal.StartDate
	}
	if r.To == nil {
		r.To = goal.EndDate
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return s.breakdown(ctx, goal, r)
}

// Summarize totals contributions and pending pledges over any combination
// of goal, group, member and date range.
func (s *progressService) Summarize(ctx context.Context, f SummaryFilter) (*Summary, error) {
	if err := f.DateRange.validate(); err != nil {
		return nil, err
	}
	scope := store.Scope{GoalID: f.GoalID, GroupID: f.GroupID, MemberID: f.MemberID, From: f.From, To: f.To}

	contributed, err := s.store.SumContributions(ctx, scope)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	pledged, err := s.store.SumPendingPledges(ctx, scope)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &Summary{
		ContributedAmount: contributed.Amount,
		ContributionCount: contributed.Count,
		PledgedAmount:     pledged.Amount,
		PledgeCount:       pledged.Count,
	}, nil
}

// RecordSnapshot captures the goal's current unbounded progress.
func (s *progressService) RecordSnapshot(ctx context.Context, goalID string) (*models.GoalProgressSnapshot, error) {
	goal, err := loadGoal(ctx, s.store, goalID)
	if err != nil {
		return nil, err
	}
	p, err := s.goalProgress(ctx, goal, DateRange{})
	if err != nil {
		return nil, err
	}

	snap := &models.GoalProgressSnapshot{
		GoalID:             goal.ID,
		CurrentAmount:      p.ContributedAmount,
		PledgedAmount:      p.PledgedAmount,
		TargetAmount:       p.TargetAmount,
		ProgressPercentage: p.ProgressPercentage,
		CapturedAt:         time.Now().UTC(),
	}
	if err := s.store.CreateSnapshot(ctx, snap); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return snap, nil
}

// ListSnapshots returns a goal's snapshots, newest first.
func (s *progressService) ListSnapshots(ctx context.Context, goalID string, page pagination.PageRequest) (*pagination.PageResponse[models.GoalProgressSnapshot], error) {
	if _, err := loadGoal(ctx, s.store, goalID); err != nil {
		return nil, err
	}
	page.Defaults()
	snaps, total, err := s.store.ListSnapshots(ctx, goalID, page)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	result := pagination.NewPageResponse(snaps, page.Page, page.PageSize, total)
	return &result, nil
}
