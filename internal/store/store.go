// Package store persists the fundraising ledger: members, groups, goals,
// the three target tiers, contributions, pledges and progress snapshots.
// Callers work against LedgerStore; the GORM implementation backs both
// PostgreSQL and the in-memory SQLite used by tests.
package store

import (
	"context"
	"errors"
	"time"

	"harambee/internal/models"
	"harambee/internal/pagination"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a lookup or conditional write matches no row.
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("store: duplicate record")
	// ErrInUse is returned when a delete would orphan rows that reference it.
	ErrInUse = errors.New("store: record is referenced")
)

// MemberFilter narrows member listings.
type MemberFilter struct {
	Search     string
	MemberCode string
	IsActive   *bool
}

// GroupFilter narrows group listings.
type GroupFilter struct {
	Search string
	GoalID *string
}

// GoalFilter narrows goal listings.
type GoalFilter struct {
	Status   *models.GoalStatus
	IsActive *bool
}

// ContributionFilter narrows contribution listings. From and To are inclusive
// calendar dates applied to contribution_date.
type ContributionFilter struct {
	MemberID *string
	GroupID  *string
	GoalID   *string
	Status   *models.ContributionStatus
	From     *time.Time
	To       *time.Time
}

// PledgeFilter narrows pledge listings. From and To are inclusive calendar
// dates applied to pledge_date.
type PledgeFilter struct {
	MemberID *string
	GroupID  *string
	GoalID   *string
	Status   *models.PledgeStatus
	From     *time.Time
	To       *time.Time
}

// Scope selects the rows an aggregate runs over. Nil fields are unconstrained.
type Scope struct {
	GoalID   *string
	GroupID  *string
	MemberID *string
	From     *time.Time
	To       *time.Time
}

// Totals is the result of a SUM/COUNT aggregate.
type Totals struct {
	Amount decimal.Decimal
	Count  int64
}

// MemberStore persists members and answers reference checks about them.
type MemberStore interface {
	CreateMember(ctx context.Context, m *models.Member) error
	GetMember(ctx context.Context, id string) (*models.Member, error)
	GetMemberByPhone(ctx context.Context, phone string) (*models.Member, error)
	MemberCodeExists(ctx context.Context, code string) (bool, error)
	ListMembers(ctx context.Context, f MemberFilter, page pagination.PageRequest) ([]models.Member, int64, error)
	UpdateMember(ctx context.Context, m *models.Member) error
	DeleteMember(ctx context.Context, id string) error
	MemberReferenced(ctx context.Context, id string) (bool, error)
}

// GroupStore persists groups and their membership join table.
type GroupStore interface {
	CreateGroup(ctx context.Context, g *models.Group) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	ListGroups(ctx context.Context, f GroupFilter, page pagination.PageRequest) ([]models.Group, int64, error)
	UpdateGroup(ctx context.Context, g *models.Group) error
	DeleteGroup(ctx context.Context, id string) error
	GroupReferenced(ctx context.Context, id string) (bool, error)

	AddGroupMember(ctx context.Context, gm *models.GroupMember) error
	RemoveGroupMember(ctx context.Context, groupID, memberID string) error
	IsGroupMember(ctx context.Context, groupID, memberID string) (bool, error)
	ListGroupMembers(ctx context.Context, groupID string, page pagination.PageRequest) ([]models.Member, int64, error)
}

// GoalStore persists fundraising goals.
type GoalStore interface {
	CreateGoal(ctx context.Context, g *models.Goal) error
	GetGoal(ctx context.Context, id string) (*models.Goal, error)
	ListGoals(ctx context.Context, f GoalFilter, page pagination.PageRequest) ([]models.Goal, int64, error)
	UpdateGoal(ctx context.Context, g *models.Goal) error
	DeleteGoal(ctx context.Context, id string) error
	GoalReferenced(ctx context.Context, id string) (bool, error)
}

// TargetStore persists the three target tiers keyed by their natural keys.
type TargetStore interface {
	CreateGroupTarget(ctx context.Context, t *models.GoalGroupTarget) error
	GetGroupTarget(ctx context.Context, goalID, groupID string) (*models.GoalGroupTarget, error)
	UpdateGroupTarget(ctx context.Context, t *models.GoalGroupTarget) error
	DeleteGroupTarget(ctx context.Context, goalID, groupID string) error
	ListGroupTargets(ctx context.Context, goalID string) ([]models.GoalGroupTarget, error)

	CreateGoalMemberTarget(ctx context.Context, t *models.GoalMemberTarget) error
	GetGoalMemberTarget(ctx context.Context, goalID, memberID string) (*models.GoalMemberTarget, error)
	UpdateGoalMemberTarget(ctx context.Context, t *models.GoalMemberTarget) error
	DeleteGoalMemberTarget(ctx context.Context, goalID, memberID string) error
	ListGoalMemberTargets(ctx context.Context, goalID string) ([]models.GoalMemberTarget, error)

	CreateMemberTarget(ctx context.Context, t *models.GoalGroupMemberTarget) error
	GetMemberTarget(ctx context.Context, goalID, groupID, memberID string) (*models.GoalGroupMemberTarget, error)
	UpdateMemberTarget(ctx context.Context, t *models.GoalGroupMemberTarget) error
	DeleteMemberTarget(ctx context.Context, goalID, groupID, memberID string) error
	ListMemberTargets(ctx context.Context, goalID, groupID string) ([]models.GoalGroupMemberTarget, error)
}

// EntryStore persists contributions and pledges.
type EntryStore interface {
	CreateContribution(ctx context.Context, c *models.Contribution) error
	GetContribution(ctx context.Context, id string) (*models.Contribution, error)
	ListContributions(ctx context.Context, f ContributionFilter, page pagination.PageRequest) ([]models.Contribution, int64, error)
	UpdateContribution(ctx context.Context, c *models.Contribution) error
	DeleteContribution(ctx context.Context, id string) error
	// TransitionContribution moves a contribution from one status to another
	// only if it is still in from. It returns ErrNotFound when no row matched.
	TransitionContribution(ctx context.Context, id string, from, to models.ContributionStatus, contributionDate *time.Time) error

	CreatePledge(ctx context.Context, p *models.Pledge) error
	GetPledge(ctx context.Context, id string) (*models.Pledge, error)
	ListPledges(ctx context.Context, f PledgeFilter, page pagination.PageRequest) ([]models.Pledge, int64, error)
	UpdatePledge(ctx context.Context, p *models.Pledge) error
	DeletePledge(ctx context.Context, id string) error
	// TransitionPledge is the compare-and-set counterpart for pledges. The
	// timestamp lands in paid_at or cancelled_at depending on to.
	TransitionPledge(ctx context.Context, id string, from, to models.PledgeStatus, at time.Time) error
	// ListPledgesDue returns PENDING pledges due in [from, to] that have not
	// been reminded for their current due date.
	ListPledgesDue(ctx context.Context, from, to time.Time) ([]models.Pledge, error)
	// MarkPledgeReminded claims the reminder for the pledge's current due date.
	// ErrNotFound means the pledge left PENDING or was already claimed.
	MarkPledgeReminded(ctx context.Context, id string) error
}

// AggregateStore answers the read-only SUM/COUNT queries behind progress.
type AggregateStore interface {
	// SumContributions totals realized contributions in scope. Date bounds
	// apply to contribution_date.
	SumContributions(ctx context.Context, s Scope) (Totals, error)
	// SumPendingPledges totals PENDING pledges in scope. Date bounds apply
	// to pledge_date.
	SumPendingPledges(ctx context.Context, s Scope) (Totals, error)
	SumGroupTargets(ctx context.Context, goalID string) (decimal.Decimal, error)
	SumMemberTargets(ctx context.Context, goalID, groupID string) (decimal.Decimal, error)
	ContributingGroupIDs(ctx context.Context, goalID string) ([]string, error)
}

// SnapshotStore persists progress snapshots and delivered notifications.
type SnapshotStore interface {
	CreateSnapshot(ctx context.Context, s *models.GoalProgressSnapshot) error
	ListSnapshots(ctx context.Context, goalID string, page pagination.PageRequest) ([]models.GoalProgressSnapshot, int64, error)
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, memberID string, page pagination.PageRequest) ([]models.Notification, int64, error)
}

// LedgerStore is the full persistence contract.
type LedgerStore interface {
	MemberStore
	GroupStore
	GoalStore
	TargetStore
	EntryStore
	AggregateStore
	SnapshotStore

	// WithTx runs fn inside a single transaction. fn must only use the
	// store it is given; returning an error rolls back.
	WithTx(ctx context.Context, fn func(tx LedgerStore) error) error
}
