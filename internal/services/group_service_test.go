package services

import (
	"context"
	"testing"

	"harambee/internal/models"
	"harambee/internal/pagination"
	"harambee/internal/store"
	"harambee/internal/testutil"
)

func TestCreateGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(store.New(db))
		goal := testutil.CreateTestGoal(t, db, "5000")

		group, err := svc.CreateGroup(ctx, "", "Youth", "Youth fellowship", &goal.ID)
		testutil.AssertNoError(t, err)
		if group.GoalID == nil || *group.GoalID != goal.ID {
			t.Errorf("expected group scoped to %s", goal.ID)
		}
	})

	t.Run("duplicate_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(store.New(db))

		_, err := svc.CreateGroup(ctx, "", "Choir", "", nil)
		testutil.AssertNoError(t, err)
		_, err = svc.CreateGroup(ctx, "", "Choir", "", nil)
		testutil.AssertAppError(t, err, "DUPLICATE_NAME")
	})

	t.Run("unknown_goal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(store.New(db))

		missing := "missing"
		_, err := svc.CreateGroup(ctx, "", "Orphan", "", &missing)
		testutil.AssertAppError(t, err, "GOAL_NOT_FOUND")
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(store.New(db))

		_, err := svc.CreateGroup(ctx, "", "  ", "", nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestUpdateGroup(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewGroupService(store.New(db))
	goal := testutil.CreateTestGoal(t, db, "100")
	group := testutil.CreateTestGroup(t, db)

	updated, err := svc.UpdateGroup(ctx, group.ID, nil, nil, &goal.ID)
	testutil.AssertNoError(t, err)
	if updated.GoalID == nil || *updated.GoalID != goal.ID {
		t.Fatal("expected scope to be set")
	}

	none := ""
	updated, err = svc.UpdateGroup(ctx, group.ID, nil, nil, &none)
	testutil.AssertNoError(t, err)
	if updated.GoalID != nil {
		t.Error("expected scope to be cleared")
	}
}

func TestGroupMembership(t *testing.T) {
	ctx := context.Background()

	t.Run("add_list_remove", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(store.New(db))
		group := testutil.CreateTestGroup(t, db)
		a := testutil.CreateTestMember(t, db)
		b := testutil.CreateTestMember(t, db)

		testutil.AssertNoError(t, svc.AddMember(ctx, group.ID, a.ID))
		testutil.AssertNoError(t, svc.AddMember(ctx, group.ID, b.ID))

		result, err := svc.ListMembers(ctx, group.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 {
			t.Fatalf("expected 2 members, got %d", result.TotalItems)
		}

		testutil.AssertNoError(t, svc.RemoveMember(ctx, group.ID, a.ID))
		result, err = svc.ListMembers(ctx, group.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 1 || result.Data[0].ID != b.ID {
			t.Errorf("expected only %s to remain, got %+v", b.ID, result.Data)
		}
	})

	t.Run("already_member", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(store.New(db))
		group := testutil.CreateTestGroup(t, db)
		member := testutil.CreateTestMember(t, db)
		testutil.AddTestGroupMember(t, db, group.ID, member.ID)

		testutil.AssertAppError(t, svc.AddMember(ctx, group.ID, member.ID), "ALREADY_GROUP_MEMBER")
	})

	t.Run("remove_non_member", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(store.New(db))
		group := testutil.CreateTestGroup(t, db)
		member := testutil.CreateTestMember(t, db)

		testutil.AssertAppError(t, svc.RemoveMember(ctx, group.ID, member.ID), "INVALID_GROUP_MEMBERSHIP")
	})

	t.Run("unknown_member", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(store.New(db))
		group := testutil.CreateTestGroup(t, db)

		testutil.AssertAppError(t, svc.AddMember(ctx, group.ID, "missing"), "MEMBER_NOT_FOUND")
	})
}

func TestDeleteGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("cascades_memberships_and_targets", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		st := store.New(db)
		svc := NewGroupService(st)
		hierarchy := NewGoalHierarchyService(st)
		goal := testutil.CreateTestGoal(t, db, "1000")
		group := testutil.CreateTestGroup(t, db)
		member := testutil.CreateTestMember(t, db)
		testutil.AddTestGroupMember(t, db, group.ID, member.ID)

		_, err := hierarchy.SetGroupTarget(ctx, "", goal.ID, group.ID, testutil.Amount(t, "500"))
		testutil.AssertNoError(t, err)
		_, err = hierarchy.SetMemberTarget(ctx, "", goal.ID, group.ID, member.ID, testutil.Amount(t, "100"))
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, svc.DeleteGroup(ctx, group.ID))

		for _, model := range []any{&models.GroupMember{}, &models.GoalGroupTarget{}, &models.GoalGroupMemberTarget{}} {
			var count int64
			db.Model(model).Where("group_id = ?", group.ID).Count(&count)
			if count != 0 {
				t.Errorf("expected %T rows removed, found %d", model, count)
			}
		}
	})

	// A group referenced by a contribution cannot be deleted.
	t.Run("referenced", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGroupService(store.New(db))
		goal := testutil.CreateTestGoal(t, db, "1000")
		group := testutil.CreateTestGroup(t, db)
		member := testutil.CreateTestMember(t, db)
		testutil.AddTestGroupMember(t, db, group.ID, member.ID)
		testutil.CreateTestContribution(t, db, member.ID, goal.ID, &group.ID, "100", testutil.Date(2026, 1, 10))

		testutil.AssertAppError(t, svc.DeleteGroup(ctx, group.ID), "GROUP_IN_USE")

		_, err := svc.GetGroup(ctx, group.ID)
		testutil.AssertNoError(t, err)
	})
}
