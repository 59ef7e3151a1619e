package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"harambee/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Amount parses a decimal literal and fails the test on error.
func Amount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("invalid decimal %q: %v", s, err)
	}
	return d
}

// AssertAmount fails the test unless got equals the decimal literal want.
func AssertAmount(t *testing.T, label string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(Amount(t, want)) {
		t.Errorf("expected %s %s, got %s", label, want, got.String())
	}
}

// Date returns midnight UTC for the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Role:     models.UserRoleStaff,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestMember creates an active member with a unique phone and code.
func CreateTestMember(t *testing.T, db *gorm.DB) *models.Member {
	t.Helper()

	n := nextID()
	member := &models.Member{
		FullName:   fmt.Sprintf("Test Member %d", n),
		Phone:      fmt.Sprintf("+2547%08d", n),
		MemberCode: fmt.Sprintf("%06d", n%1000000),
		IsActive:   true,
	}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to create test member: %v", err)
	}
	return member
}

// CreateTestGroup creates a group with a unique name.
func CreateTestGroup(t *testing.T, db *gorm.DB) *models.Group {
	t.Helper()

	group := &models.Group{Name: fmt.Sprintf("Test Group %d", nextID())}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed to create test group: %v", err)
	}
	return group
}

// AddTestGroupMember adds member to group.
func AddTestGroupMember(t *testing.T, db *gorm.DB, groupID, memberID string) {
	t.Helper()

	gm := &models.GroupMember{GroupID: groupID, MemberID: memberID, JoinedAt: time.Now().UTC()}
	if err := db.Create(gm).Error; err != nil {
		t.Fatalf("failed to add test group member: %v", err)
	}
}

// CreateTestGoal creates an active goal with the given target.
func CreateTestGoal(t *testing.T, db *gorm.DB, target string) *models.Goal {
	t.Helper()

	goal := &models.Goal{
		Name:         fmt.Sprintf("Test Goal %d", nextID()),
		TargetAmount: Amount(t, target),
		Status:       models.GoalStatusActive,
		IsActive:     true,
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}

// CreateTestContribution inserts a completed contribution dated on the given day.
func CreateTestContribution(t *testing.T, db *gorm.DB, memberID, goalID string, groupID *string, amount string, date time.Time) *models.Contribution {
	t.Helper()

	day := models.TruncateDate(date)
	c := &models.Contribution{
		MemberID:         memberID,
		GoalID:           goalID,
		GroupID:          groupID,
		Amount:           Amount(t, amount),
		Status:           models.ContributionStatusCompleted,
		ContributionDate: &day,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("failed to create test contribution: %v", err)
	}
	return c
}

// CreateTestPledge inserts a PENDING pledge due thirty days after pledgeDate.
func CreateTestPledge(t *testing.T, db *gorm.DB, memberID, goalID string, groupID *string, amount string, pledgeDate time.Time) *models.Pledge {
	t.Helper()

	day := models.TruncateDate(pledgeDate)
	p := &models.Pledge{
		MemberID:   memberID,
		GoalID:     goalID,
		GroupID:    groupID,
		Amount:     Amount(t, amount),
		PledgeDate: day,
		DueDate:    day.AddDate(0, 0, 30),
		Status:     models.PledgeStatusPending,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to create test pledge: %v", err)
	}
	return p
}
