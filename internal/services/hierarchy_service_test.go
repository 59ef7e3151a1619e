package services

import (
	"context"
	"testing"

	"harambee/internal/logger"
	"harambee/internal/store"
	"harambee/internal/testutil"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetGroupTarget(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalHierarchyService(store.New(db))
		goal := testutil.CreateTestGoal(t, db, "1000")
		group := testutil.CreateTestGroup(t, db)

		target, err := svc.SetGroupTarget(ctx, "actor", goal.ID, group.ID, testutil.Amount(t, "400"))
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, "target", target.TargetAmount, "400")

		got, err := svc.GetGroupTarget(ctx, goal.ID, group.ID)
		testutil.AssertNoError(t, err)
		if got.ID != target.ID {
			t.Errorf("expected target %s, got %s", target.ID, got.ID)
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalHierarchyService(store.New(db))
		goal := testutil.CreateTestGoal(t, db, "1000")
		group := testutil.CreateTestGroup(t, db)

		_, err := svc.SetGroupTarget(ctx, "", goal.ID, group.ID, testutil.Amount(t, "400"))
		testutil.AssertNoError(t, err)
		_, err = svc.SetGroupTarget(ctx, "", goal.ID, group.ID, testutil.Amount(t, "500"))
		testutil.AssertAppError(t, err, "DUPLICATE_TARGET")
	})

	t.Run("invalid_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalHierarchyService(store.New(db))
		goal := testutil.CreateTestGoal(t, db, "1000")
		group := testutil.CreateTestGroup(t, db)

		for _, amount := range []string{"0", "-5", "1.001"} {
			_, err := svc.SetGroupTarget(ctx, "", goal.ID, group.ID, testutil.Amount(t, amount))
			testutil.AssertAppError(t, err, "INVALID_AMOUNT")
		}
	})

	t.Run("missing_refs", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalHierarchyService(store.New(db))
		goal := testutil.CreateTestGoal(t, db, "1000")
		group := testutil.CreateTestGroup(t, db)

		_, err := svc.SetGroupTarget(ctx, "", "missing", group.ID, testutil.Amount(t, "1"))
		testutil.AssertAppError(t, err, "GOAL_NOT_FOUND")
		_, err = svc.SetGroupTarget(ctx, "", goal.ID, "missing", testutil.Amount(t, "1"))
		testutil.AssertAppError(t, err, "GROUP_NOT_FOUND")
	})

	t.Run("group_scoped_elsewhere", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalHierarchyService(store.New(db))
		goal := testutil.CreateTestGoal(t, db, "1000")
		other := testutil.CreateTestGoal(t, db, "1000")
		group := testutil.CreateTestGroup(t, db)
		testutil.AssertNoError(t, db.Model(group).Update("goal_id", other.ID).Error)

		_, err := svc.SetGroupTarget(ctx, "", goal.ID, group.ID, testutil.Amount(t, "1"))
		testutil.AssertAppError(t, err, "INVALID_GROUP_MEMBERSHIP")
	})

	t.Run("over_allocation_warns", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalHierarchyService(store.New(db))
		goal := testutil.CreateTestGoal(t, db, "1000")
		a := testutil.CreateTestGroup(t, db)
		b := testutil.CreateTestGroup(t, db)

		core, logs := observer.New(zapcore.WarnLevel)
		restore := logger.Replace(zap.New(core).Sugar())
		defer restore()

		_, err := svc.SetGroupTarget(ctx, "", goal.ID, a.ID, testutil.Amount(t, "600"))
		testutil.AssertNoError(t, err)
		if logs.Len() != 0 {
			t.Fatalf("expected no warning yet, got %d", logs.Len())
		}

		_, err = svc.SetGroupTarget(ctx, "", goal.ID, b.ID, testutil.Amount(t, "600"))
		testutil.AssertNoError(t, err)
		if logs.FilterMessage("group targets exceed goal target").Len() != 1 {
			t.Errorf("expected one over-allocation warning, got %v", logs.All())
		}
	})
}

func TestUpdateAndDeleteGroupTarget(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewGoalHierarchyService(store.New(db))
	goal := testutil.CreateTestGoal(t, db, "1000")
	group := testutil.CreateTestGroup(t, db)

	_, err := svc.UpdateGroupTarget(ctx, goal.ID, group.ID, testutil.Amount(t, "10"))
	testutil.AssertAppError(t, err, "TARGET_NOT_FOUND")

	_, err = svc.SetGroupTarget(ctx, "", goal.ID, group.ID, testutil.Amount(t, "300"))
	testutil.AssertNoError(t, err)

	updated, err := svc.UpdateGroupTarget(ctx, goal.ID, group.ID, testutil.Amount(t, "350.50"))
	testutil.AssertNoError(t, err)
	testutil.AssertAmount(t, "target", updated.TargetAmount, "350.50")

	targets, err := svc.ListGroupTargets(ctx, goal.ID)
	testutil.AssertNoError(t, err)
	if len(targets) != 1 {
		t.Fatalf("expected 1 target, got %d", len(targets))
	}

	testutil.AssertNoError(t, svc.DeleteGroupTarget(ctx, goal.ID, group.ID))
	testutil.AssertAppError(t, svc.DeleteGroupTarget(ctx, goal.ID, group.ID), "TARGET_NOT_FOUND")
	_, err = svc.GetGroupTarget(ctx, goal.ID, group.ID)
	testutil.AssertAppError(t, err, "TARGET_NOT_FOUND")
}

func TestGoalMemberTarget(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewGoalHierarchyService(store.New(db))
	goal := testutil.CreateTestGoal(t, db, "1000")
	member := testutil.CreateTestMember(t, db)

	_, err := svc.SetGoalMemberTarget(ctx, "", goal.ID, "missing", testutil.Amount(t, "50"))
	testutil.AssertAppError(t, err, "MEMBER_NOT_FOUND")

	_, err = svc.SetGoalMemberTarget(ctx, "", goal.ID, member.ID, testutil.Amount(t, "50"))
	testutil.AssertNoError(t, err)
	_, err = svc.SetGoalMemberTarget(ctx, "", goal.ID, member.ID, testutil.Amount(t, "60"))
	testutil.AssertAppError(t, err, "DUPLICATE_TARGET")

	updated, err := svc.UpdateGoalMemberTarget(ctx, goal.ID, member.ID, testutil.Amount(t, "75"))
	testutil.AssertNoError(t, err)
	testutil.AssertAmount(t, "target", updated.TargetAmount, "75")

	targets, err := svc.ListGoalMemberTargets(ctx, goal.ID)
	testutil.AssertNoError(t, err)
	if len(targets) != 1 {
		t.Errorf("expected 1 target, got %d", len(targets))
	}

	testutil.AssertNoError(t, svc.DeleteGoalMemberTarget(ctx, goal.ID, member.ID))
	_, err = svc.GetGoalMemberTarget(ctx, goal.ID, member.ID)
	testutil.AssertAppError(t, err, "TARGET_NOT_FOUND")
}

func TestSetMemberTarget(t *testing.T) {
	ctx := context.Background()

	t.Run("requires_membership", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalHierarchyService(store.New(db))
		goal := testutil.CreateTestGoal(t, db, "1000")
		group := testutil.CreateTestGroup(t, db)
		member := testutil.CreateTestMember(t, db)

		_, err := svc.SetMemberTarget(ctx, "", goal.ID, group.ID, member.ID, testutil.Amount(t, "100"))
		testutil.AssertAppError(t, err, "INVALID_GROUP_MEMBERSHIP")
	})

	t.Run("valid_and_duplicate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalHierarchyService(store.New(db))
		goal := testutil.CreateTestGoal(t, db, "1000")
		group := testutil.CreateTestGroup(t, db)
		member := testutil.CreateTestMember(t, db)
		testutil.AddTestGroupMember(t, db, group.ID, member.ID)

		_, err := svc.SetMemberTarget(ctx, "", goal.ID, group.ID, member.ID, testutil.Amount(t, "100"))
		testutil.AssertNoError(t, err)
		_, err = svc.SetMemberTarget(ctx, "", goal.ID, group.ID, member.ID, testutil.Amount(t, "100"))
		testutil.AssertAppError(t, err, "DUPLICATE_TARGET")

		targets, err := svc.ListMemberTargets(ctx, goal.ID, group.ID)
		testutil.AssertNoError(t, err)
		if len(targets) != 1 || targets[0].MemberID != member.ID {
			t.Errorf("expected one target for %s, got %+v", member.ID, targets)
		}

		_, err = svc.UpdateMemberTarget(ctx, goal.ID, group.ID, member.ID, testutil.Amount(t, "120"))
		testutil.AssertNoError(t, err)
		got, err := svc.GetMemberTarget(ctx, goal.ID, group.ID, member.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, "target", got.TargetAmount, "120")

		testutil.AssertNoError(t, svc.DeleteMemberTarget(ctx, goal.ID, group.ID, member.ID))
		testutil.AssertAppError(t, svc.DeleteMemberTarget(ctx, goal.ID, group.ID, member.ID), "TARGET_NOT_FOUND")
	})
}

func TestGetAllocation(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewGoalHierarchyService(store.New(db))
	goal := testutil.CreateTestGoal(t, db, "1000")
	a := testutil.CreateTestGroup(t, db)
	b := testutil.CreateTestGroup(t, db)
	m1 := testutil.CreateTestMember(t, db)
	m2 := testutil.CreateTestMember(t, db)
	testutil.AddTestGroupMember(t, db, a.ID, m1.ID)
	testutil.AddTestGroupMember(t, db, a.ID, m2.ID)

	_, err := svc.SetGroupTarget(ctx, "", goal.ID, a.ID, testutil.Amount(t, "400"))
	testutil.AssertNoError(t, err)
	_, err = svc.SetGroupTarget(ctx, "", goal.ID, b.ID, testutil.Amount(t, "700"))
	testutil.AssertNoError(t, err)
	_, err = svc.SetMemberTarget(ctx, "", goal.ID, a.ID, m1.ID, testutil.Amount(t, "150"))
	testutil.AssertNoError(t, err)
	_, err = svc.SetMemberTarget(ctx, "", goal.ID, a.ID, m2.ID, testutil.Amount(t, "100"))
	testutil.AssertNoError(t, err)

	alloc, err := svc.GetAllocation(ctx, goal.ID)
	testutil.AssertNoError(t, err)

	testutil.AssertAmount(t, "allocated", alloc.AllocatedToGroups, "1100")
	testutil.AssertAmount(t, "unallocated", alloc.Unallocated, "-100")
	if !alloc.OverAllocated {
		t.Error("expected goal to be over-allocated")
	}
	if len(alloc.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(alloc.Groups))
	}
	for _, g := range alloc.Groups {
		if g.GroupID != a.ID {
			continue
		}
		testutil.AssertAmount(t, "members", g.AllocatedToMembers, "250")
		testutil.AssertAmount(t, "group unallocated", g.Unallocated, "150")
		if g.OverAllocated {
			t.Error("expected group a within its target")
		}
	}
}
