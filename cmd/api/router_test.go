package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"harambee/internal/config"
	"harambee/internal/models"
	"harambee/internal/notify"
	"harambee/internal/services"
	"harambee/internal/store"
	"harambee/internal/testutil"
	"harambee/internal/validator"
)

const testServiceKey = "ops-secret"

// testApp holds the full application stack for end-to-end router tests.
type testApp struct {
	router     *gin.Engine
	dispatcher *testutil.RecordingDispatcher
}

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

// setupApp wires real services over an isolated in-memory SQLite database.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	t.Setenv("JWT_SECRET", "router-test-secret")
	t.Setenv("JWT_EXPIRES_IN", "1h")
	if _, err := config.Load(); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	st := store.New(db)
	dispatcher := &testutil.RecordingDispatcher{}

	router := newRouter(app{
		users:     services.NewUserService(db),
		audit:     services.NewAuditService(db),
		members:   services.NewMemberService(st),
		groups:    services.NewGroupService(st),
		goals:     services.NewGoalService(st),
		hierarchy: services.NewGoalHierarchyService(st),
		ledger:    services.NewLedgerService(st, dispatcher),
		progress:  services.NewProgressService(st),
		reminders: services.NewReminderService(st, dispatcher, 72*time.Hour),
	}, routerConfig{corsOrigins: []string{"*"}, serviceAPIKey: testServiceKey})

	return &testApp{router: router, dispatcher: dispatcher}
}

// request makes an HTTP request to the test router and returns the recorder.
func (a *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// mustCreate posts body and returns the id of the object under key.
func (a *testApp) mustCreate(t *testing.T, path, body, token, key string) string {
	t.Helper()
	rec := a.request("POST", path, body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST %s failed: %d %s", path, rec.Code, rec.Body.String())
	}
	obj := parseJSON(t, rec)[key].(map[string]any)
	return obj["id"].(string)
}

// amountIs compares a JSON decimal against want numerically.
func amountIs(v any, want string) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	got, err := decimal.NewFromString(s)
	return err == nil && got.Equal(decimal.RequireFromString(want))
}

// registerUser registers a staff user and returns the bearer token.
func (a *testApp) registerUser(t *testing.T, email string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"password123","first_name":"Test","last_name":"User"}`, email)
	rec := a.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["token"].(string)
}

func TestHealthAndAuth(t *testing.T) {
	a := setupApp(t)

	rec := a.request("GET", "/api/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	rec = a.request("GET", "/api/v1/members", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	token := a.registerUser(t, "staff@harambee.test")

	rec = a.request("POST", "/api/v1/auth/login", `{"email":"staff@harambee.test","password":"password123"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = a.request("GET", "/api/v1/profile", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile failed: %d %s", rec.Code, rec.Body.String())
	}
	user := parseJSON(t, rec)["user"].(map[string]any)
	if user["email"] != "staff@harambee.test" {
		t.Errorf("expected staff@harambee.test, got %v", user["email"])
	}

	rec = a.request("POST", "/api/v1/auth/login", `{"email":"staff@harambee.test","password":"wrong-password"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 on bad password, got %d", rec.Code)
	}
}

func TestFundraisingFlow(t *testing.T) {
	a := setupApp(t)
	token := a.registerUser(t, "treasurer@harambee.test")

	memberID := a.mustCreate(t, "/api/v1/members",
		`{"full_name":"Achieng Otieno","phone":"+254712345678"}`, token, "member")
	goalID := a.mustCreate(t, "/api/v1/goals",
		`{"name":"Church roof","target_amount":"1000.00"}`, token, "goal")
	groupID := a.mustCreate(t, "/api/v1/groups",
		fmt.Sprintf(`{"name":"Choir","goal_id":%q}`, goalID), token, "group")

	rec := a.request("POST", "/api/v1/groups/"+groupID+"/members", fmt.Sprintf(`{"member_id":%q}`, memberID), token)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("add member failed: %d %s", rec.Code, rec.Body.String())
	}

	// Targets
	rec = a.request("POST", "/api/v1/goals/"+goalID+"/group-targets",
		fmt.Sprintf(`{"group_id":%q,"amount":"600.00"}`, groupID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("group target failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = a.request("POST", "/api/v1/goals/"+goalID+"/groups/"+groupID+"/member-targets",
		fmt.Sprintf(`{"member_id":%q,"amount":"300.00"}`, memberID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("member target failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = a.request("GET", "/api/v1/goals/"+goalID+"/allocation", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("allocation failed: %d %s", rec.Code, rec.Body.String())
	}
	alloc := parseJSON(t, rec)["allocation"].(map[string]any)
	if !amountIs(alloc["unallocated"], "400") {
		t.Errorf("expected 400 unallocated, got %v", alloc["unallocated"])
	}

	// A direct contribution and a fulfilled pledge.
	a.mustCreate(t, "/api/v1/contributions",
		fmt.Sprintf(`{"member_id":%q,"goal_id":%q,"group_id":%q,"amount":"250.00"}`, memberID, goalID, groupID),
		token, "contribution")

	due := models.Today().AddDate(0, 0, 30).Format(models.DateLayout)
	pledgeID := a.mustCreate(t, "/api/v1/pledges",
		fmt.Sprintf(`{"member_id":%q,"goal_id":%q,"group_id":%q,"amount":"100.00","due_date":%q}`, memberID, goalID, groupID, due),
		token, "pledge")

	rec = a.request("GET", "/api/v1/goals/"+goalID+"/progress", "", token)
	progress := parseJSON(t, rec)["progress"].(map[string]any)
	if !amountIs(progress["contributed_amount"], "250") || !amountIs(progress["pledged_amount"], "100") {
		t.Errorf("unexpected progress before fulfilment: %v", progress)
	}

	rec = a.request("POST", "/api/v1/pledges/"+pledgeID+"/fulfill", `{"payment_method":"mpesa"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("fulfil failed: %d %s", rec.Code, rec.Body.String())
	}
	fulfilled := parseJSON(t, rec)
	if fulfilled["pledge"].(map[string]any)["status"] != "PAID" {
		t.Errorf("expected PAID pledge, got %v", fulfilled["pledge"])
	}

	rec = a.request("POST", "/api/v1/pledges/"+pledgeID+"/fulfill", "", token)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 fulfilling twice, got %d", rec.Code)
	}

	rec = a.request("GET", "/api/v1/goals/"+goalID+"/progress", "", token)
	progress = parseJSON(t, rec)["progress"].(map[string]any)
	if !amountIs(progress["contributed_amount"], "350") {
		t.Errorf("expected 350 contributed, got %v", progress["contributed_amount"])
	}
	if !amountIs(progress["pledged_amount"], "0") {
		t.Errorf("expected no pending pledges, got %v", progress["pledged_amount"])
	}
	if progress["progress_percentage"] != float64(35) {
		t.Errorf("expected 35%%, got %v", progress["progress_percentage"])
	}

	rec = a.request("GET", "/api/v1/goals/"+goalID+"/groups/"+groupID+"/members/"+memberID+"/progress", "", token)
	memberProgress := parseJSON(t, rec)["progress"].(map[string]any)
	if !amountIs(memberProgress["target_amount"], "300") {
		t.Errorf("expected member target 300, got %v", memberProgress["target_amount"])
	}

	// Referenced rows cannot be deleted.
	rec = a.request("DELETE", "/api/v1/members/"+memberID, "", token)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 deleting a member with entries, got %d", rec.Code)
	}

	var kinds []string
	for _, k := range a.dispatcher.Kinds() {
		kinds = append(kinds, string(k))
	}
	want := []notify.Kind{notify.KindContributionConfirmed, notify.KindPledgeConfirmation, notify.KindContributionConfirmed}
	if len(kinds) != len(want) {
		t.Fatalf("expected intents %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != string(want[i]) {
			t.Errorf("intent %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}
}

func TestOpsRoutes(t *testing.T) {
	a := setupApp(t)
	token := a.registerUser(t, "ops@harambee.test")

	memberID := a.mustCreate(t, "/api/v1/members",
		`{"full_name":"Baraka Mwangi","phone":"+254700000001"}`, token, "member")
	goalID := a.mustCreate(t, "/api/v1/goals",
		`{"name":"School fees","target_amount":"500"}`, token, "goal")
	due := models.Today().AddDate(0, 0, 1).Format(models.DateLayout)
	a.mustCreate(t, "/api/v1/pledges",
		fmt.Sprintf(`{"member_id":%q,"goal_id":%q,"amount":"50","due_date":%q}`, memberID, goalID, due),
		token, "pledge")

	t.Run("rejects missing service key", func(t *testing.T) {
		rec := a.request("POST", "/api/v1/ops/reminders", "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("rejects a user token in place of the key", func(t *testing.T) {
		rec := a.request("POST", "/api/v1/ops/reminders", "", token)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	opsRequest := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", path, nil)
		req.Header.Set("X-API-Key", testServiceKey)
		rec := httptest.NewRecorder()
		a.router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("sends due reminders", func(t *testing.T) {
		a.dispatcher.Reset()
		rec := opsRequest("/api/v1/ops/reminders")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got := parseJSON(t, rec)["reminders"]; got != float64(1) {
			t.Errorf("expected 1 reminder, got %v", got)
		}
		kinds := a.dispatcher.Kinds()
		if len(kinds) != 1 || kinds[0] != notify.KindPledgeReminder {
			t.Errorf("expected one reminder intent, got %v", kinds)
		}
	})

	t.Run("snapshots active goals", func(t *testing.T) {
		rec := opsRequest("/api/v1/ops/snapshots")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got := parseJSON(t, rec)["snapshots"]; got != float64(1) {
			t.Errorf("expected 1 snapshot, got %v", got)
		}

		rec = a.request("GET", "/api/v1/goals/"+goalID+"/snapshots", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := parseJSON(t, rec)["total_items"]; got != float64(1) {
			t.Errorf("expected 1 stored snapshot, got %v", got)
		}
	})
}

func TestCORSConfig(t *testing.T) {
	if c := corsConfig(nil); !c.AllowAllOrigins {
		t.Error("expected all origins when none configured")
	}
	if c := corsConfig([]string{"https://a.example", "*"}); !c.AllowAllOrigins {
		t.Error("expected wildcard to allow all origins")
	}
	c := corsConfig([]string{"https://a.example"})
	if c.AllowAllOrigins || len(c.AllowOrigins) != 1 {
		t.Errorf("expected explicit origin list, got %+v", c)
	}
}
