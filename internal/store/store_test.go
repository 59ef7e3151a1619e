package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"harambee/internal/models"
	"harambee/internal/pagination"
	"harambee/internal/store"
	"harambee/internal/testutil"
)

func TestGetNotFound(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	st := store.New(db)

	if _, err := st.GetMember(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := st.GetGroupTarget(ctx, "a", "b"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := st.DeletePledge(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on delete, got %v", err)
	}
}

func TestUniqueViolations(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	st := store.New(db)
	existing := testutil.CreateTestMember(t, db)

	err := st.CreateMember(ctx, &models.Member{FullName: "Dup", Phone: existing.Phone, MemberCode: "999999"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate for phone, got %v", err)
	}

	goal := testutil.CreateTestGoal(t, db, "100")
	group := testutil.CreateTestGroup(t, db)
	target := func() *models.GoalGroupTarget {
		return &models.GoalGroupTarget{GoalID: goal.ID, GroupID: group.ID, TargetAmount: testutil.Amount(t, "10")}
	}
	testutil.AssertNoError(t, st.CreateGroupTarget(ctx, target()))
	if err := st.CreateGroupTarget(ctx, target()); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate for target, got %v", err)
	}
}

func TestMemberCodeExists(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	st := store.New(db)
	m := testutil.CreateTestMember(t, db)

	found, err := st.MemberCodeExists(ctx, m.MemberCode)
	testutil.AssertNoError(t, err)
	if !found {
		t.Error("expected code to exist")
	}
	found, err = st.MemberCodeExists(ctx, "ABCDEF")
	testutil.AssertNoError(t, err)
	if found {
		t.Error("expected code to be free")
	}
}

func TestTransitionPledge(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	st := store.New(db)
	member := testutil.CreateTestMember(t, db)
	goal := testutil.CreateTestGoal(t, db, "100")
	p := testutil.CreateTestPledge(t, db, member.ID, goal.ID, nil, "10", testutil.Date(2026, 1, 1))

	at := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	testutil.AssertNoError(t, st.TransitionPledge(ctx, p.ID, models.PledgeStatusPending, models.PledgeStatusPaid, at))

	// The row is no longer PENDING so the second compare-and-set misses.
	err := st.TransitionPledge(ctx, p.ID, models.PledgeStatusPending, models.PledgeStatusCancelled, at)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	got, err := st.GetPledge(ctx, p.ID)
	testutil.AssertNoError(t, err)
	if got.Status != models.PledgeStatusPaid || got.PaidAt == nil || got.CancelledAt != nil {
		t.Fatalf("unexpected pledge state %+v", got)
	}
	if !got.PaidAt.Equal(at) {
		t.Errorf("expected paid_at %v with its time of day, got %v", at, got.PaidAt)
	}
}

func TestTransitionContribution(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	st := store.New(db)
	member := testutil.CreateTestMember(t, db)
	goal := testutil.CreateTestGoal(t, db, "100")
	c := testutil.CreateTestContribution(t, db, member.ID, goal.ID, nil, "10", testutil.Date(2026, 1, 1))

	testutil.AssertNoError(t, st.TransitionContribution(ctx, c.ID, models.ContributionStatusCompleted, models.ContributionStatusRefunded, nil))
	err := st.TransitionContribution(ctx, c.ID, models.ContributionStatusCompleted, models.ContributionStatusRefunded, nil)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	got, err := st.GetContribution(ctx, c.ID)
	testutil.AssertNoError(t, err)
	if got.ContributionDate == nil {
		t.Error("expected contribution date preserved")
	}
}

func TestAggregates(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	st := store.New(db)
	member := testutil.CreateTestMember(t, db)
	goal := testutil.CreateTestGoal(t, db, "1000")
	group := testutil.CreateTestGroup(t, db)

	testutil.CreateTestContribution(t, db, member.ID, goal.ID, &group.ID, "10.25", testutil.Date(2026, 1, 1))
	testutil.CreateTestContribution(t, db, member.ID, goal.ID, nil, "20.50", testutil.Date(2026, 1, 31))
	pending := &models.Contribution{
		MemberID: member.ID,
		GoalID:   goal.ID,
		Amount:   testutil.Amount(t, "99"),
		Status:   models.ContributionStatusPending,
	}
	testutil.AssertNoError(t, st.CreateContribution(ctx, pending))
	testutil.CreateTestPledge(t, db, member.ID, goal.ID, &group.ID, "300", testutil.Date(2026, 1, 10))

	t.Run("contributions", func(t *testing.T) {
		totals, err := st.SumContributions(ctx, store.Scope{GoalID: &goal.ID})
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, "sum", totals.Amount, "30.75")
		if totals.Count != 2 {
			t.Errorf("expected 2, got %d", totals.Count)
		}
	})

	t.Run("inclusive_to", func(t *testing.T) {
		to := testutil.Date(2026, 1, 31)
		from := testutil.Date(2026, 1, 2)
		totals, err := st.SumContributions(ctx, store.Scope{GoalID: &goal.ID, From: &from, To: &to})
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, "sum", totals.Amount, "20.50")
	})

	t.Run("group_scope", func(t *testing.T) {
		totals, err := st.SumContributions(ctx, store.Scope{GoalID: &goal.ID, GroupID: &group.ID})
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, "sum", totals.Amount, "10.25")
	})

	t.Run("pending_pledges", func(t *testing.T) {
		totals, err := st.SumPendingPledges(ctx, store.Scope{MemberID: &member.ID})
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, "sum", totals.Amount, "300")
	})

	t.Run("empty_scope_is_zero", func(t *testing.T) {
		other := "nobody"
		totals, err := st.SumContributions(ctx, store.Scope{MemberID: &other})
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, "sum", totals.Amount, "0")
	})

	t.Run("contributing_groups", func(t *testing.T) {
		ids, err := st.ContributingGroupIDs(ctx, goal.ID)
		testutil.AssertNoError(t, err)
		if len(ids) != 1 || ids[0] != group.ID {
			t.Errorf("expected [%s], got %v", group.ID, ids)
		}
	})
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	st := store.New(db)

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(tx store.LedgerStore) error {
		if err := tx.CreateGroup(ctx, &models.Group{Name: "Ephemeral"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	groups, total, err := st.ListGroups(ctx, store.GroupFilter{}, pagination.PageRequest{Page: 1, PageSize: 10})
	testutil.AssertNoError(t, err)
	if total != 0 || len(groups) != 0 {
		t.Errorf("expected rollback, found %d groups", total)
	}
}

func TestListGroupMembersAndReferences(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	st := store.New(db)
	group := testutil.CreateTestGroup(t, db)
	goal := testutil.CreateTestGoal(t, db, "100")
	a := testutil.CreateTestMember(t, db)
	b := testutil.CreateTestMember(t, db)
	testutil.AddTestGroupMember(t, db, group.ID, a.ID)

	members, total, err := st.ListGroupMembers(ctx, group.ID, pagination.PageRequest{Page: 1, PageSize: 10})
	testutil.AssertNoError(t, err)
	if total != 1 || members[0].ID != a.ID {
		t.Errorf("expected only %s, got %v", a.ID, members)
	}

	ok, err := st.IsGroupMember(ctx, group.ID, b.ID)
	testutil.AssertNoError(t, err)
	if ok {
		t.Error("expected b outside the group")
	}

	testutil.CreateTestPledge(t, db, b.ID, goal.ID, nil, "5", testutil.Date(2026, 1, 1))
	for name, check := range map[string]func() (bool, error){
		"member_b": func() (bool, error) { return st.MemberReferenced(ctx, b.ID) },
		"goal":     func() (bool, error) { return st.GoalReferenced(ctx, goal.ID) },
	} {
		referenced, err := check()
		testutil.AssertNoError(t, err)
		if !referenced {
			t.Errorf("%s: expected referenced", name)
		}
	}
	referenced, err := st.MemberReferenced(ctx, a.ID)
	testutil.AssertNoError(t, err)
	if referenced {
		t.Error("expected member a unreferenced")
	}
}

func TestListPledgesDue(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	st := store.New(db)
	member := testutil.CreateTestMember(t, db)
	goal := testutil.CreateTestGoal(t, db, "100")
	// Due 2026-01-31.
	p := testutil.CreateTestPledge(t, db, member.ID, goal.ID, nil, "5", testutil.Date(2026, 1, 1))

	due, err := st.ListPledgesDue(ctx, testutil.Date(2026, 1, 31), testutil.Date(2026, 1, 31))
	testutil.AssertNoError(t, err)
	if len(due) != 1 || due[0].ID != p.ID {
		t.Errorf("expected pledge due on the boundary day, got %v", due)
	}

	due, err = st.ListPledgesDue(ctx, testutil.Date(2026, 2, 1), testutil.Date(2026, 2, 5))
	testutil.AssertNoError(t, err)
	if len(due) != 0 {
		t.Errorf("expected none, got %d", len(due))
	}
}

func TestNotifications(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	st := store.New(db)
	member := testutil.CreateTestMember(t, db)

	n := &models.Notification{
		MemberID: member.ID,
		Kind:     "pledge_reminder",
		Phone:    member.Phone,
		Message:  "hello",
		Params:   map[string]any{"amount": "5.00"},
		Status:   models.NotificationStatusSent,
		Attempts: 1,
	}
	testutil.AssertNoError(t, st.CreateNotification(ctx, n))

	list, total, err := st.ListNotifications(ctx, member.ID, pagination.PageRequest{Page: 1, PageSize: 10})
	testutil.AssertNoError(t, err)
	if total != 1 || list[0].Params["amount"] != "5.00" {
		t.Errorf("unexpected notifications %+v", list)
	}
}

func TestMarkPledgeReminded(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	st := store.New(db)
	member := testutil.CreateTestMember(t, db)
	goal := testutil.CreateTestGoal(t, db, "100")
	// Due 2026-01-31.
	p := testutil.CreateTestPledge(t, db, member.ID, goal.ID, nil, "5", testutil.Date(2026, 1, 1))
	window := func() []models.Pledge {
		due, err := st.ListPledgesDue(ctx, testutil.Date(2026, 1, 25), testutil.Date(2026, 2, 10))
		testutil.AssertNoError(t, err)
		return due
	}

	testutil.AssertNoError(t, st.MarkPledgeReminded(ctx, p.ID))
	if err := st.MarkPledgeReminded(ctx, p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected second claim to miss, got %v", err)
	}
	if due := window(); len(due) != 0 {
		t.Errorf("expected reminded pledge excluded, got %d", len(due))
	}

	// Moving the due date opens a new reminder.
	testutil.AssertNoError(t, db.Model(p).Update("due_date", testutil.Date(2026, 2, 7)).Error)
	if due := window(); len(due) != 1 {
		t.Fatalf("expected rescheduled pledge listed, got %d", len(due))
	}
	testutil.AssertNoError(t, st.MarkPledgeReminded(ctx, p.ID))

	got, err := st.GetPledge(ctx, p.ID)
	testutil.AssertNoError(t, err)
	if got.RemindedFor == nil || !got.RemindedFor.Equal(testutil.Date(2026, 2, 7)) {
		t.Errorf("expected reminded_for 2026-02-07, got %v", got.RemindedFor)
	}
}

func TestDeletePledgeKeepsLinkedContribution(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	st := store.New(db)
	member := testutil.CreateTestMember(t, db)
	goal := testutil.CreateTestGoal(t, db, "100")
	p := testutil.CreateTestPledge(t, db, member.ID, goal.ID, nil, "10", testutil.Date(2026, 1, 1))
	c := testutil.CreateTestContribution(t, db, member.ID, goal.ID, nil, "10", testutil.Date(2026, 1, 5))
	testutil.AssertNoError(t, db.Model(c).Update("pledge_id", p.ID).Error)

	testutil.AssertNoError(t, st.DeletePledge(ctx, p.ID))

	got, err := st.GetContribution(ctx, c.ID)
	testutil.AssertNoError(t, err)
	if got.PledgeID != nil {
		t.Errorf("expected pledge link cleared, got %v", *got.PledgeID)
	}
}

func TestForeignKeys(t *testing.T) {
	ctx := context.Background()

	t.Run("referenced member cannot be deleted", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		st := store.New(db)
		member := testutil.CreateTestMember(t, db)
		goal := testutil.CreateTestGoal(t, db, "100")
		testutil.CreateTestContribution(t, db, member.ID, goal.ID, nil, "10", testutil.Date(2026, 1, 5))

		if err := st.DeleteMember(ctx, member.ID); !errors.Is(err, store.ErrInUse) {
			t.Errorf("expected ErrInUse, got %v", err)
		}
	})

	t.Run("group rows cascade", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		member := testutil.CreateTestMember(t, db)
		group := testutil.CreateTestGroup(t, db)
		goal := testutil.CreateTestGoal(t, db, "100")
		testutil.AddTestGroupMember(t, db, group.ID, member.ID)
		testutil.AssertNoError(t, db.Create(&models.GoalGroupTarget{GoalID: goal.ID, GroupID: group.ID, TargetAmount: testutil.Amount(t, "50")}).Error)

		// Bypass the store so only the schema's ON DELETE actions run.
		testutil.AssertNoError(t, db.Delete(&models.Group{}, "id = ?", group.ID).Error)

		var memberships, targets int64
		db.Model(&models.GroupMember{}).Where("group_id = ?", group.ID).Count(&memberships)
		db.Model(&models.GoalGroupTarget{}).Where("group_id = ?", group.ID).Count(&targets)
		if memberships != 0 || targets != 0 {
			t.Errorf("expected cascade, found %d memberships and %d targets", memberships, targets)
		}
	})

	t.Run("dangling reference is rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		goal := testutil.CreateTestGoal(t, db, "100")

		err := db.Create(&models.Pledge{
			MemberID:   "missing",
			GoalID:     goal.ID,
			Amount:     testutil.Amount(t, "5"),
			PledgeDate: testutil.Date(2026, 1, 1),
			DueDate:    testutil.Date(2026, 1, 2),
			Status:     models.PledgeStatusPending,
		}).Error
		if err == nil {
			t.Error("expected foreign key violation")
		}
	})
}
