package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "harambee/internal/errors"
	"harambee/internal/models"
	"harambee/internal/pagination"
	"harambee/internal/services"
	"harambee/internal/store"
)

type mockMemberService struct {
	createMemberFn func(ctx context.Context, actorID string, in services.CreateMemberInput) (*models.Member, error)
	getMemberFn    func(ctx context.Context, id string) (*models.Member, error)
	listMembersFn  func(ctx context.Context, f store.MemberFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Member], error)
	updateMemberFn func(ctx context.Context, id string, in services.UpdateMemberInput) (*models.Member, error)
	deleteMemberFn func(ctx context.Context, id string) error
	listNotifFn    func(ctx context.Context, memberID string, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error)
}

func (m *mockMemberService) CreateMember(ctx context.Context, actorID string, in services.CreateMemberInput) (*models.Member, error) {
	if m.createMemberFn != nil {
		return m.createMemberFn(ctx, actorID, in)
	}
	return &models.Member{Base: models.Base{ID: testMemberID}}, nil
}

func (m *mockMemberService) GetMember(ctx context.Context, id string) (*models.Member, error) {
	if m.getMemberFn != nil {
		return m.getMemberFn(ctx, id)
	}
	return &models.Member{Base: models.Base{ID: id}}, nil
}

func (m *mockMemberService) ListMembers(ctx context.Context, f store.MemberFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Member], error) {
	if m.listMembersFn != nil {
		return m.listMembersFn(ctx, f, page)
	}
	resp := pagination.NewPageResponse[models.Member](nil, 1, 20, 0)
	return &resp, nil
}

func (m *mockMemberService) UpdateMember(ctx context.Context, id string, in services.UpdateMemberInput) (*models.Member, error) {
	if m.updateMemberFn != nil {
		return m.updateMemberFn(ctx, id, in)
	}
	return &models.Member{Base: models.Base{ID: id}}, nil
}

func (m *mockMemberService) DeleteMember(ctx context.Context, id string) error {
	if m.deleteMemberFn != nil {
		return m.deleteMemberFn(ctx, id)
	}
	return nil
}

func (m *mockMemberService) ListNotifications(ctx context.Context, memberID string, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error) {
	if m.listNotifFn != nil {
		return m.listNotifFn(ctx, memberID, page)
	}
	resp := pagination.NewPageResponse[models.Notification](nil, 1, 20, 0)
	return &resp, nil
}

func setupMemberRouter(svc *mockMemberService, audit *mockAuditService) *gin.Engine {
	handler := NewMemberHandler(svc, audit)
	r := gin.New()
	g := r.Group("/members", injectUserID(testUserID))
	g.POST("", handler.CreateMember)
	g.GET("", handler.ListMembers)
	g.GET("/:id", handler.GetMember)
	g.PUT("/:id", handler.UpdateMember)
	g.DELETE("/:id", handler.DeleteMember)
	g.GET("/:id/notifications", handler.ListNotifications)
	return r
}

func TestMemberHandler_CreateMember(t *testing.T) {
	t.Run("returns 201 with generated member code", func(t *testing.T) {
		var gotActor string
		var gotInput services.CreateMemberInput
		svc := &mockMemberService{
			createMemberFn: func(_ context.Context, actorID string, in services.CreateMemberInput) (*models.Member, error) {
				gotActor, gotInput = actorID, in
				return &models.Member{
					Base:       models.Base{ID: testMemberID},
					FullName:   in.FullName,
					Phone:      in.Phone,
					MemberCode: "123456",
					IsActive:   true,
				}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupMemberRouter(svc, audit)

		rec := doRequest(r, "POST", "/members",
			`{"full_name":"Achieng Otieno","phone":"+254712345678","aliases":["Acha"]}`)

		assertStatus(t, rec, http.StatusCreated)
		member := parseJSON(t, rec)["member"].(map[string]any)
		if member["member_code"] != "123456" {
			t.Errorf("expected member_code 123456, got %v", member["member_code"])
		}
		if gotActor != testUserID {
			t.Errorf("expected actor %s, got %s", testUserID, gotActor)
		}
		if len(gotInput.Aliases) != 1 || gotInput.Aliases[0] != "Acha" {
			t.Errorf("expected aliases to be passed through, got %v", gotInput.Aliases)
		}
		if got := audit.actions(); len(got) != 1 || got[0] != "CREATE_MEMBER" {
			t.Errorf("expected CREATE_MEMBER audit entry, got %v", got)
		}
	})

	t.Run("returns 400 on invalid phone", func(t *testing.T) {
		r := setupMemberRouter(&mockMemberService{}, &mockAuditService{})

		rec := doRequest(r, "POST", "/members", `{"full_name":"Achieng","phone":"07-12"}`)

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on missing name", func(t *testing.T) {
		r := setupMemberRouter(&mockMemberService{}, &mockAuditService{})

		rec := doRequest(r, "POST", "/members", `{"phone":"+254712345678"}`)

		assertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("returns 409 on duplicate phone", func(t *testing.T) {
		svc := &mockMemberService{
			createMemberFn: func(_ context.Context, _ string, _ services.CreateMemberInput) (*models.Member, error) {
				return nil, apperrors.ErrDuplicatePhone
			},
		}
		r := setupMemberRouter(svc, &mockAuditService{})

		rec := doRequest(r, "POST", "/members", `{"full_name":"Achieng","phone":"+254712345678"}`)

		assertStatus(t, rec, http.StatusConflict)
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_PHONE")
	})

	t.Run("returns 401 without user", func(t *testing.T) {
		handler := NewMemberHandler(&mockMemberService{}, &mockAuditService{})
		r := gin.New()
		r.POST("/members", handler.CreateMember)

		rec := doRequest(r, "POST", "/members", `{"full_name":"Achieng","phone":"+254712345678"}`)

		assertStatus(t, rec, http.StatusUnauthorized)
	})
}

func TestMemberHandler_GetMember(t *testing.T) {
	t.Run("returns 200 with member", func(t *testing.T) {
		r := setupMemberRouter(&mockMemberService{}, &mockAuditService{})

		rec := doRequest(r, "GET", "/members/"+testMemberID, "")

		assertStatus(t, rec, http.StatusOK)
		member := parseJSON(t, rec)["member"].(map[string]any)
		if member["id"] != testMemberID {
			t.Errorf("expected id %s, got %v", testMemberID, member["id"])
		}
	})

	t.Run("returns 400 on malformed id", func(t *testing.T) {
		r := setupMemberRouter(&mockMemberService{}, &mockAuditService{})

		rec := doRequest(r, "GET", "/members/42", "")

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 404 when missing", func(t *testing.T) {
		svc := &mockMemberService{
			getMemberFn: func(_ context.Context, _ string) (*models.Member, error) {
				return nil, apperrors.ErrMemberNotFound
			},
		}
		r := setupMemberRouter(svc, &mockAuditService{})

		rec := doRequest(r, "GET", "/members/"+testMemberID, "")

		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "MEMBER_NOT_FOUND")
	})
}

func TestMemberHandler_ListMembers(t *testing.T) {
	t.Run("passes filters and paging through", func(t *testing.T) {
		var gotFilter store.MemberFilter
		var gotPage pagination.PageRequest
		svc := &mockMemberService{
			listMembersFn: func(_ context.Context, f store.MemberFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Member], error) {
				gotFilter, gotPage = f, page
				resp := pagination.NewPageResponse([]models.Member{{FullName: "Achieng"}}, 2, 5, 6)
				return &resp, nil
			},
		}
		r := setupMemberRouter(svc, &mockAuditService{})

		rec := doRequest(r, "GET", "/members?search=ach&is_active=true&page=2&page_size=5", "")

		assertStatus(t, rec, http.StatusOK)
		if gotFilter.Search != "ach" {
			t.Errorf("expected search ach, got %q", gotFilter.Search)
		}
		if gotFilter.IsActive == nil || !*gotFilter.IsActive {
			t.Errorf("expected is_active=true filter, got %v", gotFilter.IsActive)
		}
		if gotPage.Page != 2 || gotPage.PageSize != 5 {
			t.Errorf("expected page 2 size 5, got %+v", gotPage)
		}
		result := parseJSON(t, rec)
		if result["total_pages"] != float64(2) {
			t.Errorf("expected 2 total pages, got %v", result["total_pages"])
		}
	})

	t.Run("returns 400 on oversized page", func(t *testing.T) {
		r := setupMemberRouter(&mockMemberService{}, &mockAuditService{})

		rec := doRequest(r, "GET", "/members?page_size=500", "")

		assertStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("filters by exact member code", func(t *testing.T) {
		var gotFilter store.MemberFilter
		svc := &mockMemberService{
			listMembersFn: func(_ context.Context, f store.MemberFilter, _ pagination.PageRequest) (*pagination.PageResponse[models.Member], error) {
				gotFilter = f
				resp := pagination.NewPageResponse[models.Member](nil, 1, 20, 0)
				return &resp, nil
			},
		}
		r := setupMemberRouter(svc, &mockAuditService{})

		rec := doRequest(r, "GET", "/members?member_code=004217", "")

		assertStatus(t, rec, http.StatusOK)
		if gotFilter.MemberCode != "004217" {
			t.Errorf("expected member code 004217, got %q", gotFilter.MemberCode)
		}
	})

	t.Run("returns 400 on malformed member code", func(t *testing.T) {
		r := setupMemberRouter(&mockMemberService{}, &mockAuditService{})

		rec := doRequest(r, "GET", "/members?member_code=42a", "")

		assertStatus(t, rec, http.StatusBadRequest)
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})
}

func TestMemberHandler_UpdateMember(t *testing.T) {
	t.Run("applies partial update", func(t *testing.T) {
		var gotInput services.UpdateMemberInput
		svc := &mockMemberService{
			updateMemberFn: func(_ context.Context, id string, in services.UpdateMemberInput) (*models.Member, error) {
				gotInput = in
				return &models.Member{Base: models.Base{ID: id}, FullName: *in.FullName}, nil
			},
		}
		audit := &mockAuditService{}
		r := setupMemberRouter(svc, audit)

		rec := doRequest(r, "PUT", "/members/"+testMemberID, `{"full_name":"Achieng O.","is_active":false}`)

		assertStatus(t, rec, http.StatusOK)
		if gotInput.Phone != nil {
			t.Errorf("expected phone to be left alone, got %v", *gotInput.Phone)
		}
		if gotInput.IsActive == nil || *gotInput.IsActive {
			t.Errorf("expected is_active=false, got %v", gotInput.IsActive)
		}
		if got := audit.actions(); len(got) != 1 || got[0] != "UPDATE_MEMBER" {
			t.Errorf("expected UPDATE_MEMBER audit entry, got %v", got)
		}
	})

	t.Run("returns 400 on invalid email", func(t *testing.T) {
		r := setupMemberRouter(&mockMemberService{}, &mockAuditService{})

		rec := doRequest(r, "PUT", "/members/"+testMemberID, `{"email":"nope"}`)

		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestMemberHandler_DeleteMember(t *testing.T) {
	t.Run("returns 204 on success", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupMemberRouter(&mockMemberService{}, audit)

		rec := doRequest(r, "DELETE", "/members/"+testMemberID, "")

		assertStatus(t, rec, http.StatusNoContent)
		if got := audit.actions(); len(got) != 1 || got[0] != "DELETE_MEMBER" {
			t.Errorf("expected DELETE_MEMBER audit entry, got %v", got)
		}
	})

	t.Run("returns 409 when member has ledger entries", func(t *testing.T) {
		svc := &mockMemberService{
			deleteMemberFn: func(_ context.Context, _ string) error {
				return apperrors.ErrMemberInUse
			},
		}
		audit := &mockAuditService{}
		r := setupMemberRouter(svc, audit)

		rec := doRequest(r, "DELETE", "/members/"+testMemberID, "")

		assertStatus(t, rec, http.StatusConflict)
		assertErrorCode(t, parseJSON(t, rec), "MEMBER_IN_USE")
		if got := audit.actions(); len(got) != 0 {
			t.Errorf("expected no audit entries, got %v", got)
		}
	})
}

func TestMemberHandler_ListNotifications(t *testing.T) {
	t.Run("passes member and page", func(t *testing.T) {
		var gotID string
		var gotPage pagination.PageRequest
		svc := &mockMemberService{
			listNotifFn: func(_ context.Context, memberID string, page pagination.PageRequest) (*pagination.PageResponse[models.Notification], error) {
				gotID, gotPage = memberID, page
				resp := pagination.NewPageResponse([]models.Notification{{MemberID: memberID, Kind: "pledge_reminder"}}, 2, 5, 6)
				return &resp, nil
			},
		}
		r := setupMemberRouter(svc, &mockAuditService{})

		rec := doRequest(r, "GET", "/members/"+testMemberID+"/notifications?page=2&page_size=5", "")

		assertStatus(t, rec, http.StatusOK)
		if gotID != testMemberID || gotPage.Page != 2 || gotPage.PageSize != 5 {
			t.Errorf("unexpected call member=%s page=%+v", gotID, gotPage)
		}
		if got := parseJSON(t, rec)["total_items"]; got != float64(6) {
			t.Errorf("expected 6 total items, got %v", got)
		}
	})

	t.Run("returns 404 for unknown member", func(t *testing.T) {
		svc := &mockMemberService{
			listNotifFn: func(_ context.Context, _ string, _ pagination.PageRequest) (*pagination.PageResponse[models.Notification], error) {
				return nil, apperrors.ErrMemberNotFound
			},
		}
		r := setupMemberRouter(svc, &mockAuditService{})

		rec := doRequest(r, "GET", "/members/"+testMemberID+"/notifications", "")

		assertStatus(t, rec, http.StatusNotFound)
		assertErrorCode(t, parseJSON(t, rec), "MEMBER_NOT_FOUND")
	})
}
