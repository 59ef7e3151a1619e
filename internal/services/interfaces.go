package services

import (
	"context"
	"time"

	"harambee/internal/models"
	"harambee/internal/pagination"
	"harambee/internal/store"

	"github.com/shopspring/decimal"
)

// UserServicer defines the contract for staff user accounts.
type UserServicer interface {
	CreateUser(ctx context.Context, email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(ctx context.Context, email, password string) (*models.User, error)
}

// AuditServicer records ledger mutations. Failures are logged, never returned.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}

// CreateMemberInput carries the fields for a new member.
type CreateMemberInput struct {
	FullName string
	Phone    string
	Email    *string
	Aliases  []string
}

// UpdateMemberInput carries optional member changes; nil fields are left alone.
type UpdateMemberInput struct {
	FullName *string
	Phone    *string
	Email    *string
	Aliases  []string
	IsActive *bool
}

// MemberServicer defines the contract for member management.
type MemberServicer interface {
	CreateMember(ctx context.Context, actorID string, in CreateMemberInput) (*models.Member, error)
	GetMember(ctx context.Context, id string) (*models.Member, error)
	ListMembers(ctx context.Context, filter store.MemberFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Member], error)
	UpdateMember(ctx context.Context, id string, in UpdateMemberInput) (*models.Member, error)
	DeleteMember(ctx context.Context, id string) error
	ListNotifications(ctx context.Context, memberID string, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error)
}

// GroupServicer defines the contract for groups and their membership.
type GroupServicer interface {
	CreateGroup(ctx context.Context, actorID, name, description string, goalID *string) (*models.Group, error)
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	ListGroups(ctx context.Context, filter store.GroupFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Group], error)
	UpdateGroup(ctx context.Context, id string, name, description, goalID *string) (*models.Group, error)
	DeleteGroup(ctx context.Context, id string) error
	AddMember(ctx context.Context, groupID, memberID string) error
	RemoveMember(ctx context.Context, groupID, memberID string) error
	ListMembers(ctx context.Context, groupID string, page pagination.PageRequest) (*pagination.PageResponse[models.Member], error)
}

// CreateGoalInput carries the fields for a new goal.
type CreateGoalInput struct {
	Name         string
	Description  string
	TargetAmount decimal.Decimal
	StartDate    *time.Time
	EndDate      *time.Time
}

// UpdateGoalInput carries optional goal changes.
type UpdateGoalInput struct {
	Name         *string
	Description  *string
	TargetAmount *decimal.Decimal
	StartDate    *time.Time
	EndDate      *time.Time
	IsActive     *bool
}

// GoalServicer defines the contract for fundraising goals.
type GoalServicer interface {
	CreateGoal(ctx context.Context, actorID string, in CreateGoalInput) (*models.Goal, error)
	GetGoal(ctx context.Context, id string) (*models.Goal, error)
	ListGoals(ctx context.Context, filter store.GoalFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Goal], error)
	UpdateGoal(ctx context.Context, id string, in UpdateGoalInput) (*models.Goal, error)
	DeleteGoal(ctx context.Context, id string) error
	CompleteGoal(ctx context.Context, id string) (*models.Goal, error)
}

// GroupAllocation compares one group's target with its member targets.
type GroupAllocation struct {
	GroupID            string          `json:"group_id"`
	TargetAmount       decimal.Decimal `json:"target_amount"`
	AllocatedToMembers decimal.Decimal `json:"allocated_to_members"`
	Unallocated        decimal.Decimal `json:"unallocated"`
	OverAllocated      bool            `json:"over_allocated"`
}

// Allocation compares a goal's target with the targets set beneath it.
// Unallocated is signed; negative means over-allocated.
type Allocation struct {
	GoalID            string            `json:"goal_id"`
	TargetAmount      decimal.Decimal   `json:"target_amount"`
	AllocatedToGroups decimal.Decimal   `json:"allocated_to_groups"`
	Unallocated       decimal.Decimal   `json:"unallocated"`
	OverAllocated     bool              `json:"over_allocated"`
	Groups            []GroupAllocation `json:"groups"`
}

// GoalHierarchyServicer manages the three target tiers beneath a goal.
type GoalHierarchyServicer interface {
	SetGroupTarget(ctx context.Context, actorID, goalID, groupID string, amount decimal.Decimal) (*models.GoalGroupTarget, error)
	UpdateGroupTarget(ctx context.Context, goalID, groupID string, amount decimal.Decimal) (*models.GoalGroupTarget, error)
	GetGroupTarget(ctx context.Context, goalID, groupID string) (*models.GoalGroupTarget, error)
	DeleteGroupTarget(ctx context.Context, goalID, groupID string) error
	ListGroupTargets(ctx context.Context, goalID string) ([]models.GoalGroupTarget, error)

	SetGoalMemberTarget(ctx context.Context, actorID, goalID, memberID string, amount decimal.Decimal) (*models.GoalMemberTarget, error)
	UpdateGoalMemberTarget(ctx context.Context, goalID, memberID string, amount decimal.Decimal) (*models.GoalMemberTarget, error)
	GetGoalMemberTarget(ctx context.Context, goalID, memberID string) (*models.GoalMemberTarget, error)
	DeleteGoalMemberTarget(ctx context.Context, goalID, memberID string) error
	ListGoalMemberTargets(ctx context.Context, goalID string) ([]models.GoalMemberTarget, error)

	SetMemberTarget(ctx context.Context, actorID, goalID, groupID, memberID string, amount decimal.Decimal) (*models.GoalGroupMemberTarget, error)
	UpdateMemberTarget(ctx context.Context, goalID, groupID, memberID string, amount decimal.Decimal) (*models.GoalGroupMemberTarget, error)
	GetMemberTarget(ctx context.Context, goalID, groupID, memberID string) (*models.GoalGroupMemberTarget, error)
	DeleteMemberTarget(ctx context.Context, goalID, groupID, memberID string) error
	ListMemberTargets(ctx context.Context, goalID, groupID string) ([]models.GoalGroupMemberTarget, error)

	GetAllocation(ctx context.Context, goalID string) (*Allocation, error)
}

// CreateContributionInput carries the fields for a new contribution. Status
// defaults to completed; only pending and completed are accepted at creation.
type CreateContributionInput struct {
	MemberID         string
	GoalID           string
	GroupID          *string
	Amount           decimal.Decimal
	Status           models.ContributionStatus
	PledgeDate       *time.Time
	ContributionDate *time.Time
	PaymentMethod    string
	Reference        string
	Description      string
}

// UpdateContributionInput carries optional contribution changes.
type UpdateContributionInput struct {
	GroupID          *string
	Amount           *decimal.Decimal
	ContributionDate *time.Time
	PaymentMethod    *string
	Reference        *string
	Description      *string
}

// CreatePledgeInput carries the fields for a new pledge. PledgeDate defaults
// to today.
type CreatePledgeInput struct {
	MemberID    string
	GoalID      string
	GroupID     *string
	Amount      decimal.Decimal
	PledgeDate  *time.Time
	DueDate     time.Time
	Description string
}

// UpdatePledgeInput carries optional pledge changes. Only PENDING pledges
// can be updated.
type UpdatePledgeInput struct {
	GroupID     *string
	Amount      *decimal.Decimal
	PledgeDate  *time.Time
	DueDate     *time.Time
	Description *string
}

// FulfillPledgeInput describes how a pledge was paid.
type FulfillPledgeInput struct {
	PaidOn        *time.Time
	PaymentMethod string
	Reference     string
}

// LedgerServicer records contributions and pledges.
type LedgerServicer interface {
	CreateContribution(ctx context.Context, actorID string, in CreateContributionInput) (*models.Contribution, error)
	GetContribution(ctx context.Context, id string) (*models.Contribution, error)
	ListContributions(ctx context.Context, filter store.ContributionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Contribution], error)
	UpdateContribution(ctx context.Context, id string, in UpdateContributionInput) (*models.Contribution, error)
	DeleteContribution(ctx context.Context, id string) error
	CompleteContribution(ctx context.Context, id string, on *time.Time) (*models.Contribution, error)
	FailContribution(ctx context.Context, id string) (*models.Contribution, error)
	RefundContribution(ctx context.Context, id string) (*models.Contribution, error)

	CreatePledge(ctx context.Context, actorID string, in CreatePledgeInput) (*models.Pledge, error)
	GetPledge(ctx context.Context, id string) (*models.Pledge, error)
	ListPledges(ctx context.Context, filter store.PledgeFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Pledge], error)
	UpdatePledge(ctx context.Context, id string, in UpdatePledgeInput) (*models.Pledge, error)
	DeletePledge(ctx context.Context, id string) error
	FulfillPledge(ctx context.Context, actorID, id string, in FulfillPledgeInput) (*models.Pledge, *models.Contribution, error)
	CancelPledge(ctx context.Context, id string) (*models.Pledge, error)
}

// DateRange is an inclusive calendar-day window. Nil ends are unbounded.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Progress is the aggregate view of one scope. RemainingAmount is signed;
// negative means the target was exceeded.
type Progress struct {
	GoalID             string          `json:"goal_id"`
	GroupID            *string         `json:"group_id,omitempty"`
	MemberID           *string         `json:"member_id,omitempty"`
	TargetAmount       decimal.Decimal `json:"target_amount"`
	ContributedAmount  decimal.Decimal `json:"contributed_amount"`
	PledgedAmount      decimal.Decimal `json:"pledged_amount"`
	RemainingAmount    decimal.Decimal `json:"remaining_amount"`
	ProgressPercentage float64         `json:"progress_percentage"`
	ContributionCount  int64           `json:"contribution_count"`
	PledgeCount        int64           `json:"pledge_count"`
}

// Breakdown is a goal's progress together with each participating group.
type Breakdown struct {
	Goal   Progress   `json:"goal"`
	Groups []Progress `json:"groups"`
	From   *time.Time `json:"from,omitempty"`
	To     *time.Time `json:"to,omitempty"`
}

// SummaryFilter scopes Summarize. Every field is optional.
type SummaryFilter struct {
	GoalID   *string
	GroupID  *string
	MemberID *string
	DateRange
}

// Summary totals contributions and pending pledges over arbitrary filters.
type Summary struct {
	ContributedAmount decimal.Decimal `json:"contributed_amount"`
	ContributionCount int64           `json:"contribution_count"`
	PledgedAmount     decimal.Decimal `json:"pledged_amount"`
	PledgeCount       int64           `json:"pledge_count"`
}

// ProgressServicer answers read-only progress queries.
type ProgressServicer interface {
	GoalProgress(ctx context.Context, goalID string, r DateRange) (*Progress, error)
	GroupProgress(ctx context.Context, goalID, groupID string, r DateRange) (*Progress, error)
	MemberProgress(ctx context.Context, goalID, memberID string, r DateRange) (*Progress, error)
	GroupMemberProgress(ctx context.Context, goalID, groupID, memberID string, r DateRange) (*Progress, error)
	GoalBreakdown(ctx context.Context, goalID string, r DateRange) (*Breakdown, error)
	GoalReport(ctx context.Context, goalID string, r DateRange) (*Breakdown, error)
	Summarize(ctx context.Context, f SummaryFilter) (*Summary, error)
	RecordSnapshot(ctx context.Context, goalID string) (*models.GoalProgressSnapshot, error)
	ListSnapshots(ctx context.Context, goalID string, page pagination.PageRequest) (*pagination.PageResponse[models.GoalProgressSnapshot], error)
}

// ReminderServicer emits reminders for pledges falling due.
type ReminderServicer interface {
	SendDueReminders(ctx context.Context, now time.Time) (int, error)
}
