package services

import (
	"context"
	"strings"
	"time"

	apperrors "harambee/internal/errors"
	"harambee/internal/models"
	"harambee/internal/pagination"
	"harambee/internal/store"
)

// goalService handles fundraising goals.
type goalService struct {
	store store.LedgerStore
}

// NewGoalService creates a new GoalServicer.
func NewGoalService(st store.LedgerStore) GoalServicer {
	return &goalService{store: st}
}

func validateGoalWindow(start, end *time.Time) error {
	if start != nil && end != nil && models.TruncateDate(*end).Before(models.TruncateDate(*start)) {
		return apperrors.WithMessage(apperrors.ErrInvalidDateRange, "End date must not be before the start date")
	}
	return nil
}

func truncatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := models.TruncateDate(*t)
	return &d
}

// CreateGoal creates an active goal. A zero target is allowed.
func (s *goalService) CreateGoal(ctx context.Context, actorID string, in CreateGoalInput) (*models.Goal, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name is required")
	}
	if err := validateGoalTarget(in.TargetAmount); err != nil {
		return nil, err
	}
	if err := validateGoalWindow(in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	goal := &models.Goal{
		Name:         name,
		Description:  in.Description,
		TargetAmount: in.TargetAmount,
		StartDate:    truncatePtr(in.StartDate),
		EndDate:      truncatePtr(in.EndDate),
		Status:       models.GoalStatusActive,
		IsActive:     true,
		CreatedByID:  actorID,
	}
	if err := s.store.CreateGoal(ctx, goal); err != nil {
		return nil, storeErr(err, nil, apperrors.ErrDuplicateName)
	}
	return goal, nil
}

// GetGoal returns a goal by ID.
func (s *goalService) GetGoal(ctx context.Context, id string) (*models.Goal, error) {
	return loadGoal(ctx, s.store, id)
}

// ListGoals returns a page of goals.
func (s *goalService) ListGoals(ctx context.Context, filter store.GoalFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Goal], error) {
	page.Defaults()
	goals, total, err := s.store.ListGoals(ctx, filter, page)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	result := pagination.NewPageResponse(goals, page.Page, page.PageSize, total)
	return &result, nil
}

// UpdateGoal applies the supplied fields only.
func (s *goalService) UpdateGoal(ctx context.Context, id string, in UpdateGoalInput) (*models.Goal, error) {
	goal, err := loadGoal(ctx, s.store, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name cannot be empty")
		}
		goal.Name = name
	}
	if in.Description != nil {
		goal.Description = *in.Description
	}
	if in.TargetAmount != nil {
		if err := validateGoalTarget(*in.TargetAmount); err != nil {
			return nil, err
		}
		goal.TargetAmount = *in.TargetAmount
	}
	if in.StartDate != nil {
		goal.StartDate = truncatePtr(in.StartDate)
	}
	if in.EndDate != nil {
		goal.EndDate = truncatePtr(in.EndDate)
	}
	if err := validateGoalWindow(goal.StartDate, goal.EndDate); err != nil {
		return nil, err
	}
	if in.IsActive != nil {
		goal.IsActive = *in.IsActive
	}

	if err := s.store.UpdateGoal(ctx, goal); err != nil {
		return nil, storeErr(err, apperrors.ErrGoalNotFound, apperrors.ErrDuplicateName)
	}
	return goal, nil
}

// DeleteGoal removes a goal no contribution or pledge references, along
// with its targets and snapshots.
func (s *goalService) DeleteGoal(ctx context.Context, id string) error {
	if _, err := loadGoal(ctx, s.store, id); err != nil {
		return err
	}
	inUse, err := s.store.GoalReferenced(ctx, id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inUse {
		return apperrors.ErrGoalInUse
	}
	return storeErr(s.store.DeleteGoal(ctx, id), apperrors.ErrGoalNotFound, nil)
}

// CompleteGoal marks an active goal completed.
func (s *goalService) CompleteGoal(ctx context.Context, id string) (*models.Goal, error) {
	goal, err := loadGoal(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if goal.Status == models.GoalStatusCompleted {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidState, "Fundraising goal is already completed")
	}
	goal.Status = models.GoalStatusCompleted
	if err := s.store.UpdateGoal(ctx, goal); err != nil {
		return nil, storeErr(err, apperrors.ErrGoalNotFound, nil)
	}
	return goal, nil
}
