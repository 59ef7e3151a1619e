package services

import (
	"context"
	"errors"

	apperrors "harambee/internal/errors"
	"harambee/internal/models"
	"harambee/internal/store"

	"github.com/shopspring/decimal"
)

// validateAmount enforces a strictly positive amount with at most two
// decimal places.
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return apperrors.ErrInvalidAmount
	}
	return nil
}

// validateGoalTarget is validateAmount but allows zero.
func validateGoalTarget(amount decimal.Decimal) error {
	if amount.IsNegative() || !amount.Equal(amount.Round(2)) {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, "Target amount must not be negative and may have at most two decimal places")
	}
	return nil
}

// storeErr maps store sentinels to AppErrors. notFound is returned for
// store.ErrNotFound and conflict for store.ErrDuplicate; either may be nil to
// fall through to an internal error.
func storeErr(err error, notFound, conflict *apperrors.AppError) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound) && notFound != nil:
		return notFound
	case errors.Is(err, store.ErrDuplicate) && conflict != nil:
		return conflict
	case errors.Is(err, store.ErrInUse):
		return apperrors.WithMessage(apperrors.ErrInvalidState, "record is still referenced")
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

func loadMember(ctx context.Context, st store.LedgerStore, id string) (*models.Member, error) {
	m, err := st.GetMember(ctx, id)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrMemberNotFound, nil)
	}
	return m, nil
}

func loadGroup(ctx context.Context, st store.LedgerStore, id string) (*models.Group, error) {
	g, err := st.GetGroup(ctx, id)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrGroupNotFound, nil)
	}
	return g, nil
}

func loadGoal(ctx context.Context, st store.LedgerStore, id string) (*models.Goal, error) {
	g, err := st.GetGoal(ctx, id)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrGoalNotFound, nil)
	}
	return g, nil
}

// requireMembership loads the group and verifies that memberID belongs to it
// and that the group is not scoped to a different goal.
func requireMembership(ctx context.Context, st store.LedgerStore, goalID, groupID, memberID string) (*models.Group, error) {
	group, err := loadGroup(ctx, st, groupID)
	if err != nil {
		return nil, err
	}
	if group.GoalID != nil && *group.GoalID != goalID {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidGroupMembership, "Group is scoped to a different fundraising goal")
	}
	ok, err := st.IsGroupMember(ctx, groupID, memberID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !ok {
		return nil, apperrors.ErrInvalidGroupMembership
	}
	return group, nil
}

// notifyParams builds the template parameters shared by ledger notifications.
func notifyParams(member *models.Member, goal *models.Goal, amount decimal.Decimal) map[string]string {
	return map[string]string{
		"member_name": member.FullName,
		"member_code": member.MemberCode,
		"goal_name":   goal.Name,
		"amount":      amount.StringFixed(2),
	}
}
