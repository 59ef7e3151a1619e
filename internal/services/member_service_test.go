package services

import (
	"context"
	"testing"

	"harambee/internal/models"
	"harambee/internal/pagination"
	"harambee/internal/store"
	"harambee/internal/testutil"
)

func TestCreateMember(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMemberService(store.New(db))
		user := testutil.CreateTestUser(t, db)

		member, err := svc.CreateMember(ctx, user.ID, CreateMemberInput{
			FullName: "  Achieng Otieno ",
			Phone:    "+254700000001",
			Aliases:  []string{"Mama Achi"},
		})
		testutil.AssertNoError(t, err)

		if member.ID == "" {
			t.Fatal("expected member ID")
		}
		if member.FullName != "Achieng Otieno" {
			t.Errorf("expected trimmed name, got %q", member.FullName)
		}
		if len(member.MemberCode) != models.MemberCodeLength {
			t.Errorf("expected %d digit code, got %q", models.MemberCodeLength, member.MemberCode)
		}
		if member.CreatedByID != user.ID {
			t.Errorf("expected creator %s, got %s", user.ID, member.CreatedByID)
		}
		if !member.IsActive {
			t.Error("expected member to be active")
		}
	})

	t.Run("missing_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMemberService(store.New(db))

		_, err := svc.CreateMember(ctx, "", CreateMemberInput{FullName: "No Phone"})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("duplicate_phone", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMemberService(store.New(db))
		existing := testutil.CreateTestMember(t, db)

		_, err := svc.CreateMember(ctx, "", CreateMemberInput{FullName: "Copycat", Phone: existing.Phone})
		testutil.AssertAppError(t, err, "DUPLICATE_PHONE")
	})

	t.Run("code_collision_regenerates", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		existing := testutil.CreateTestMember(t, db)

		codes := []string{existing.MemberCode, "424242"}
		svc := &memberService{store: store.New(db), newCode: func() (string, error) {
			code := codes[0]
			codes = codes[1:]
			return code, nil
		}}

		member, err := svc.CreateMember(ctx, "", CreateMemberInput{FullName: "Second", Phone: "+254700000002"})
		testutil.AssertNoError(t, err)
		if member.MemberCode != "424242" {
			t.Errorf("expected regenerated code 424242, got %s", member.MemberCode)
		}
	})

	t.Run("code_attempts_exhausted", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		existing := testutil.CreateTestMember(t, db)

		calls := 0
		svc := &memberService{store: store.New(db), newCode: func() (string, error) {
			calls++
			return existing.MemberCode, nil
		}}

		_, err := svc.CreateMember(ctx, "", CreateMemberInput{FullName: "Unlucky", Phone: "+254700000003"})
		testutil.AssertAppError(t, err, "MEMBER_CODE_CONFLICT")
		if calls != maxMemberCodeAttempts {
			t.Errorf("expected %d attempts, got %d", maxMemberCodeAttempts, calls)
		}
	})
}

func TestRandomMemberCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := randomMemberCode()
		testutil.AssertNoError(t, err)
		if len(code) != models.MemberCodeLength {
			t.Fatalf("expected %d digits, got %q", models.MemberCodeLength, code)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("expected digits only, got %q", code)
			}
		}
	}
}

func TestListMembers(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewMemberService(store.New(db))

	_, err := svc.CreateMember(ctx, "", CreateMemberInput{FullName: "Wanjiru Kamau", Phone: "+254711000001"})
	testutil.AssertNoError(t, err)
	otieno, err := svc.CreateMember(ctx, "", CreateMemberInput{FullName: "Otieno Odhiambo", Phone: "+254711000002"})
	testutil.AssertNoError(t, err)

	t.Run("all", func(t *testing.T) {
		result, err := svc.ListMembers(ctx, store.MemberFilter{}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 {
			t.Errorf("expected 2 members, got %d", result.TotalItems)
		}
		if result.PageSize != 20 {
			t.Errorf("expected default page size 20, got %d", result.PageSize)
		}
	})

	t.Run("search", func(t *testing.T) {
		result, err := svc.ListMembers(ctx, store.MemberFilter{Search: "Wanjiru"}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 1 || result.Data[0].FullName != "Wanjiru Kamau" {
			t.Errorf("expected only Wanjiru Kamau, got %+v", result.Data)
		}
	})

	t.Run("member_code", func(t *testing.T) {
		result, err := svc.ListMembers(ctx, store.MemberFilter{MemberCode: otieno.MemberCode}, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 1 || result.Data[0].ID != otieno.ID {
			t.Errorf("expected only Otieno Odhiambo, got %+v", result.Data)
		}
	})
}

func TestUpdateMember(t *testing.T) {
	ctx := context.Background()

	t.Run("partial", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMemberService(store.New(db))
		member := testutil.CreateTestMember(t, db)

		name := "Renamed"
		inactive := false
		updated, err := svc.UpdateMember(ctx, member.ID, UpdateMemberInput{FullName: &name, IsActive: &inactive})
		testutil.AssertNoError(t, err)

		if updated.FullName != "Renamed" {
			t.Errorf("expected name Renamed, got %s", updated.FullName)
		}
		if updated.Phone != member.Phone {
			t.Errorf("expected phone unchanged, got %s", updated.Phone)
		}
		if updated.IsActive {
			t.Error("expected member to be inactive")
		}
	})

	t.Run("phone_taken", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMemberService(store.New(db))
		a := testutil.CreateTestMember(t, db)
		b := testutil.CreateTestMember(t, db)

		_, err := svc.UpdateMember(ctx, a.ID, UpdateMemberInput{Phone: &b.Phone})
		testutil.AssertAppError(t, err, "DUPLICATE_PHONE")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMemberService(store.New(db))

		_, err := svc.UpdateMember(ctx, "missing", UpdateMemberInput{})
		testutil.AssertAppError(t, err, "MEMBER_NOT_FOUND")
	})
}

func TestDeleteMember(t *testing.T) {
	ctx := context.Background()

	t.Run("cascades_memberships", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMemberService(store.New(db))
		member := testutil.CreateTestMember(t, db)
		group := testutil.CreateTestGroup(t, db)
		testutil.AddTestGroupMember(t, db, group.ID, member.ID)

		testutil.AssertNoError(t, svc.DeleteMember(ctx, member.ID))

		var count int64
		db.Model(&models.GroupMember{}).Where("member_id = ?", member.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected memberships removed, found %d", count)
		}
		_, err := svc.GetMember(ctx, member.ID)
		testutil.AssertAppError(t, err, "MEMBER_NOT_FOUND")
	})

	t.Run("referenced", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMemberService(store.New(db))
		member := testutil.CreateTestMember(t, db)
		goal := testutil.CreateTestGoal(t, db, "1000")
		testutil.CreateTestPledge(t, db, member.ID, goal.ID, nil, "100", testutil.Date(2026, 3, 1))

		err := svc.DeleteMember(ctx, member.ID)
		testutil.AssertAppError(t, err, "MEMBER_IN_USE")
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMemberService(store.New(db))

		testutil.AssertAppError(t, svc.DeleteMember(ctx, "missing"), "MEMBER_NOT_FOUND")
	})
}

func TestListMemberNotifications(t *testing.T) {
	ctx := context.Background()

	t.Run("returns_member_history", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		st := store.New(db)
		svc := NewMemberService(st)
		member := testutil.CreateTestMember(t, db)
		other := testutil.CreateTestMember(t, db)
		for _, id := range []string{member.ID, member.ID, other.ID} {
			testutil.AssertNoError(t, st.CreateNotification(ctx, &models.Notification{
				MemberID: id,
				Kind:     "pledge_reminder",
				Status:   models.NotificationStatusSent,
				Attempts: 1,
			}))
		}

		result, err := svc.ListNotifications(ctx, member.ID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)
		if result.TotalItems != 2 || len(result.Data) != 2 {
			t.Errorf("expected 2 notifications, got %+v", result)
		}
		for _, n := range result.Data {
			if n.MemberID != member.ID {
				t.Errorf("notification for %s leaked into %s history", n.MemberID, member.ID)
			}
		}
	})

	t.Run("unknown_member", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewMemberService(store.New(db))

		_, err := svc.ListNotifications(ctx, "missing", pagination.PageRequest{})
		testutil.AssertAppError(t, err, "MEMBER_NOT_FOUND")
	})
}
