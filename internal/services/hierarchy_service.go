package services

import (
	"context"

	apperrors "harambee/internal/errors"
	"harambee/internal/logger"
	"harambee/internal/models"
	"harambee/internal/store"

	"github.com/shopspring/decimal"
)

// hierarchyService maintains group, goal-member and group-member targets.
// Over-allocation is permitted and logged.
type hierarchyService struct {
	store store.LedgerStore
}

// NewGoalHierarchyService creates a new GoalHierarchyServicer.
func NewGoalHierarchyService(st store.LedgerStore) GoalHierarchyServicer {
	return &hierarchyService{store: st}
}

// checkGroupForGoal loads the goal and group and rejects a group scoped to
// another goal.
func checkGroupForGoal(ctx context.Context, st store.LedgerStore, goalID, groupID string) (*models.Goal, *models.Group, error) {
	goal, err := loadGoal(ctx, st, goalID)
	if err != nil {
		return nil, nil, err
	}
	group, err := loadGroup(ctx, st, groupID)
	if err != nil {
		return nil, nil, err
	}
	if group.GoalID != nil && *group.GoalID != goalID {
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidGroupMembership, "Group is scoped to a different fundraising goal")
	}
	return goal, group, nil
}

// SetGroupTarget creates the (goal, group) target. A second call for the
// same pair fails with DUPLICATE_TARGET.
func (s *hierarchyService) SetGroupTarget(ctx context.Context, actorID, goalID, groupID string, amount decimal.Decimal) (*models.GoalGroupTarget, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	var target *models.GoalGroupTarget
	err := s.store.WithTx(ctx, func(tx store.LedgerStore) error {
		if _, _, err := checkGroupForGoal(ctx, tx, goalID, groupID); err != nil {
			return err
		}
		target = &models.GoalGroupTarget{GoalID: goalID, GroupID: groupID, TargetAmount: amount, CreatedByID: actorID}
		return storeErr(tx.CreateGroupTarget(ctx, target), nil, apperrors.ErrDuplicateTarget)
	})
	if err != nil {
		return nil, err
	}

	s.warnGoalOverAllocation(ctx, goalID)
	return target, nil
}

// UpdateGroupTarget changes the amount of an existing (goal, group) target.
func (s *hierarchyService) UpdateGroupTarget(ctx context.Context, goalID, groupID string, amount decimal.Decimal) (*models.GoalGroupTarget, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	target, err := s.GetGroupTarget(ctx, goalID, groupID)
	if err != nil {
		return nil, err
	}
	target.TargetAmount = amount
	if err := s.store.UpdateGroupTarget(ctx, target); err != nil {
		return nil, storeErr(err, apperrors.ErrTargetNotFound, nil)
	}

	s.warnGoalOverAllocation(ctx, goalID)
	return target, nil
}

// GetGroupTarget returns the (goal, group) target.
func (s *hierarchyService) GetGroupTarget(ctx context.Context, goalID, groupID string) (*models.GoalGroupTarget, error) {
	target, err := s.store.GetGroupTarget(ctx, goalID, groupID)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrTargetNotFound, nil)
	}
	return target, nil
}

// DeleteGroupTarget removes the (goal, group) target.
func (s *hierarchyService) DeleteGroupTarget(ctx context.Context, goalID, groupID string) error {
	return storeErr(s.store.DeleteGroupTarget(ctx, goalID, groupID), apperrors.ErrTargetNotFound, nil)
}

// ListGroupTargets returns every group target under a goal.
func (s *hierarchyService) ListGroupTargets(ctx context.Context, goalID string) ([]models.GoalGroupTarget, error) {
	if _, err := loadGoal(ctx, s.store, goalID); err != nil {
		return nil, err
	}
	targets, err := s.store.ListGroupTargets(ctx, goalID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return targets, nil
}

// SetGoalMemberTarget creates a goal-wide member target independent of groups.
func (s *hierarchyService) SetGoalMemberTarget(ctx context.Context, actorID, goalID, memberID string, amount decimal.Decimal) (*models.GoalMemberTarget, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	var target *models.GoalMemberTarget
	err := s.store.WithTx(ctx, func(tx store.LedgerStore) error {
		if _, err := loadGoal(ctx, tx, goalID); err != nil {
			return err
		}
		if _, err := loadMember(ctx, tx, memberID); err != nil {
			return err
		}
		target = &models.GoalMemberTarget{GoalID: goalID, MemberID: memberID, TargetAmount: amount, CreatedByID: actorID}
		return storeErr(tx.CreateGoalMemberTarget(ctx, target), nil, apperrors.ErrDuplicateTarget)
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

// UpdateGoalMemberTarget changes the amount of an existing goal-member target.
func (s *hierarchyService) UpdateGoalMemberTarget(ctx context.Context, goalID, memberID string, amount decimal.Decimal) (*models.GoalMemberTarget, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	target, err := s.GetGoalMemberTarget(ctx, goalID, memberID)
	if err != nil {
		return nil, err
	}
	target.TargetAmount = amount
	if err := s.store.UpdateGoalMemberTarget(ctx, target); err != nil {
		return nil, storeErr(err, apperrors.ErrTargetNotFound, nil)
	}
	return target, nil
}

func (s *hierarchyService) GetGoalMemberTarget(ctx context.Context, goalID, memberID string) (*models.GoalMemberTarget, error) {
	target, err := s.store.GetGoalMemberTarget(ctx, goalID, memberID)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrTargetNotFound, nil)
	}
	return target, nil
}

func (s *hierarchyService) DeleteGoalMemberTarget(ctx context.Context, goalID, memberID string) error {
	return storeErr(s.store.DeleteGoalMemberTarget(ctx, goalID, memberID), apperrors.ErrTargetNotFound, nil)
}

func (s *hierarchyService) ListGoalMemberTargets(ctx context.Context, goalID string) ([]models.GoalMemberTarget, error) {
	if _, err := loadGoal(ctx, s.store, goalID); err != nil {
		return nil, err
	}
	targets, err := s.store.ListGoalMemberTargets(ctx, goalID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return targets, nil
}

// SetMemberTarget creates the (goal, group, member) target. The member must
// belong to the group.
func (s *hierarchyService) SetMemberTarget(ctx context.Context, actorID, goalID, groupID, memberID string, amount decimal.Decimal) (*models.GoalGroupMemberTarget, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}

	var target *models.GoalGroupMemberTarget
	err := s.store.WithTx(ctx, func(tx store.LedgerStore) error {
		if _, _, err := checkGroupForGoal(ctx, tx, goalID, groupID); err != nil {
			return err
		}
		if _, err := loadMember(ctx, tx, memberID); err != nil {
			return err
		}
		ok, err := tx.IsGroupMember(ctx, groupID, memberID)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if !ok {
			return apperrors.ErrInvalidGroupMembership
		}
		target = &models.GoalGroupMemberTarget{
			GoalID:       goalID,
			GroupID:      groupID,
			MemberID:     memberID,
			TargetAmount: amount,
			CreatedByID:  actorID,
		}
		return storeErr(tx.CreateMemberTarget(ctx, target), nil, apperrors.ErrDuplicateTarget)
	})
	if err != nil {
		return nil, err
	}

	s.warnGroupOverAllocation(ctx, goalID, groupID)
	return target, nil
}

func (s *hierarchyService) UpdateMemberTarget(ctx context.Context, goalID, groupID, memberID string, amount decimal.Decimal) (*models.GoalGroupMemberTarget, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	target, err := s.GetMemberTarget(ctx, goalID, groupID, memberID)
	if err != nil {
		return nil, err
	}
	target.TargetAmount = amount
	if err := s.store.UpdateMemberTarget(ctx, target); err != nil {
		return nil, storeErr(err, apperrors.ErrTargetNotFound, nil)
	}

	s.warnGroupOverAllocation(ctx, goalID, groupID)
	return target, nil
}

func (s *hierarchyService) GetMemberTarget(ctx context.Context, goalID, groupID, memberID string) (*models.GoalGroupMemberTarget, error) {
	target, err := s.store.GetMemberTarget(ctx, goalID, groupID, memberID)
	if err != nil {
		return nil, storeErr(err, apperrors.ErrTargetNotFound, nil)
	}
	return target, nil
}

func (s *hierarchyService) DeleteMemberTarget(ctx context.Context, goalID, groupID, memberID string) error {
	return storeErr(s.store.DeleteMemberTarget(ctx, goalID, groupID, memberID), apperrors.ErrTargetNotFound, nil)
}

func (s *hierarchyService) ListMemberTargets(ctx context.Context, goalID, groupID string) ([]models.GoalGroupMemberTarget, error) {
	if _, _, err := checkGroupForGoal(ctx, s.store, goalID, groupID); err != nil {
		return nil, err
	}
	targets, err := s.store.ListMemberTargets(ctx, goalID, groupID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return targets, nil
}

// GetAllocation compares the goal target with its group targets, and each
// group target with its member targets.
func (s *hierarchyService) GetAllocation(ctx context.Context, goalID string) (*Allocation, error) {
	goal, err := loadGoal(ctx, s.store, goalID)
	if err != nil {
		return nil, err
	}
	groupTargets, err := s.store.ListGroupTargets(ctx, goalID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	alloc := &Allocation{
		GoalID:            goalID,
		TargetAmount:      goal.TargetAmount,
		AllocatedToGroups: decimal.Zero,
		Groups:            make([]GroupAllocation, 0, len(groupTargets)),
	}
	for _, gt := range groupTargets {
		alloc.AllocatedToGroups = alloc.AllocatedToGroups.Add(gt.TargetAmount)

		members, err := s.store.SumMemberTargets(ctx, goalID, gt.GroupID)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		unallocated := gt.TargetAmount.Sub(members)
		alloc.Groups = append(alloc.Groups, GroupAllocation{
			GroupID:            gt.GroupID,
			TargetAmount:       gt.TargetAmount,
			AllocatedToMembers: members,
			Unallocated:        unallocated,
			OverAllocated:      unallocated.IsNegative(),
		})
	}
	alloc.Unallocated = goal.TargetAmount.Sub(alloc.AllocatedToGroups)
	alloc.OverAllocated = alloc.Unallocated.IsNegative()
	return alloc, nil
}

func (s *hierarchyService) warnGoalOverAllocation(ctx context.Context, goalID string) {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return
	}
	allocated, err := s.store.SumGroupTargets(ctx, goalID)
	if err != nil {
		logger.Get().Errorw("failed to sum group targets", "error", err, "goal_id", goalID)
		return
	}
	if allocated.GreaterThan(goal.TargetAmount) {
		logger.Get().Warnw("group targets exceed goal target",
			"goal_id", goalID,
			"goal_target", goal.TargetAmount.StringFixed(2),
			"allocated", allocated.StringFixed(2),
		)
	}
}

func (s *hierarchyService) warnGroupOverAllocation(ctx context.Context, goalID, groupID string) {
	groupTarget, err := s.store.GetGroupTarget(ctx, goalID, groupID)
	if err != nil {
		// No group target means nothing to exceed.
		return
	}
	allocated, err := s.store.SumMemberTargets(ctx, goalID, groupID)
	if err != nil {
		logger.Get().Errorw("failed to sum member targets", "error", err, "goal_id", goalID, "group_id", groupID)
		return
	}
	if allocated.GreaterThan(groupTarget.TargetAmount) {
		logger.Get().Warnw("member targets exceed group target",
			"goal_id", goalID,
			"group_id", groupID,
			"group_target", groupTarget.TargetAmount.StringFixed(2),
			"allocated", allocated.StringFixed(2),
		)
	}
}
