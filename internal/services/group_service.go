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

// groupService handles groups and the membership join table.
type groupService struct {
	store store.LedgerStore
}

// NewGroupService creates a new GroupServicer.
func NewGroupService(st store.LedgerStore) GroupServicer {
	return &groupService{store: st}
}

// CreateGroup creates a group, optionally scoped to a goal.
func (s *groupService) CreateGroup(ctx context.Context, actorID, name, description string, goalID *string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "group name is required")
	}
	if goalID != nil {
		if _, err := loadGoal(ctx, s.store, *goalID); err != nil {
			return nil, err
		}
	}

	group := &models.Group{
		Name:        name,
		Description: description,
		GoalID:      goalID,
		CreatedByID: actorID,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, storeErr(err, nil, apperrors.ErrDuplicateName)
	}
	return group, nil
}

// GetGroup returns a group by ID.
func (s *groupService) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	return loadGroup(ctx, s.store, id)
}

// ListGroups returns a page of groups.
func (s *groupService) ListGroups(ctx context.Context, filter store.GroupFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Group], error) {
	page.Defaults()
	groups, total, err := s.store.ListGroups(ctx, filter, page)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	result := pagination.NewPageResponse(groups, page.Page, page.PageSize, total)
	return &result, nil
}

// UpdateGroup applies the supplied fields. An empty goalID clears the scope.
func (s *groupService) UpdateGroup(ctx context.Context, id string, name, description, goalID *string) (*models.Group, error) {
	group, err := loadGroup(ctx, s.store, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "group name cannot be empty")
		}
		group.Name = trimmed
	}
	if description != nil {
		group.Description = *description
	}
	if goalID != nil {
		if *goalID == "" {
			group.GoalID = nil
		} else {
			if _, err := loadGoal(ctx, s.store, *goalID); err != nil {
				return nil, err
			}
			group.GoalID = goalID
		}
	}

	if err := s.store.UpdateGroup(ctx, group); err != nil {
		return nil, storeErr(err, apperrors.ErrGroupNotFound, apperrors.ErrDuplicateName)
	}
	return group, nil
}

// DeleteGroup removes a group no contribution or pledge references. Its
// memberships and targets are removed with it.
func (s *groupService) DeleteGroup(ctx context.Context, id string) error {
	if _, err := loadGroup(ctx, s.store, id); err != nil {
		return err
	}
	inUse, err := s.store.GroupReferenced(ctx, id)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inUse {
		return apperrors.ErrGroupInUse
	}
	return storeErr(s.store.DeleteGroup(ctx, id), apperrors.ErrGroupNotFound, nil)
}

// AddMember puts a member into a group.
func (s *groupService) AddMember(ctx context.Context, groupID, memberID string) error {
	if _, err := loadGroup(ctx, s.store, groupID); err != nil {
		return err
	}
	if _, err := loadMember(ctx, s.store, memberID); err != nil {
		return err
	}

	gm := &models.GroupMember{GroupID: groupID, MemberID: memberID, JoinedAt: time.Now().UTC()}
	return storeErr(s.store.AddGroupMember(ctx, gm), nil, apperrors.ErrAlreadyGroupMember)
}

// RemoveMember takes a member out of a group. Existing contributions keep
// their group_id.
func (s *groupService) RemoveMember(ctx context.Context, groupID, memberID string) error {
	if _, err := loadGroup(ctx, s.store, groupID); err != nil {
		return err
	}
	return storeErr(s.store.RemoveGroupMember(ctx, groupID, memberID), apperrors.ErrInvalidGroupMembership, nil)
}

// ListMembers returns a page of the group's members.
func (s *groupService) ListMembers(ctx context.Context, groupID string, page pagination.PageRequest) (*pagination.PageResponse[models.Member], error) {
	page.Defaults()
	if _, err := loadGroup(ctx, s.store, groupID); err != nil {
		return nil, err
	}
	members, total, err := s.store.ListGroupMembers(ctx, groupID, page)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	result := pagination.NewPageResponse(members, page.Page, page.PageSize, total)
	return &result, nil
}
