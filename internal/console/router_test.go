package console

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"schoolpay/internal/account"
	"schoolpay/internal/apiclient"
	"schoolpay/internal/audit"
	"schoolpay/internal/auth"
	"schoolpay/internal/config"
	"schoolpay/internal/guard"
	"schoolpay/internal/mockapi"
	"schoolpay/internal/session"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	router  *gin.Engine
	session *session.Manager
	events  *audit.MemoryRepo
	clock   *clock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	clk := &clock{t: time.Now()}
	am, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("auth manager: %v", err)
	}
	accounts := mockapi.NewAccounts(bcrypt.MinCost)
	if err := mockapi.SeedAccounts(accounts, mockapi.DefaultDemoPassword); err != nil {
		t.Fatalf("seed: %v", err)
	}
	backend := httptest.NewServer(mockapi.NewRouter(&mockapi.Handlers{
		Auth:      am,
		Accounts:  accounts,
		Directory: mockapi.SeedDirectory(),
		Now:       clk.Now,
	}, discard))
	t.Cleanup(backend.Close)

	mgr := session.NewManager(session.WithLogger(discard))
	events := audit.NewMemoryRepo(0)
	auditSvc := audit.NewService(events)

	client, err := apiclient.New(apiclient.Config{BaseURL: backend.URL}, mgr,
		apiclient.WithLogger(discard),
		apiclient.WithSessionEndedHook(auditSvc.LogSessionEnded),
	)
	if err != nil {
		t.Fatalf("api client: %v", err)
	}

	h := &Handlers{
		Session:  mgr,
		Guard:    guard.New(mgr, guard.DefaultPaths()),
		Accounts: account.NewService(client, mgr, auditSvc),
		API:      client,
		Activity: events,
	}
	return &harness{router: NewRouter(h, discard), session: mgr, events: events, clock: clk}
}

func (hs *harness) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	hs.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func (hs *harness) postJSON(t *testing.T, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	hs.router.ServeHTTP(w, req)
	return w
}

func (hs *harness) login(t *testing.T, email string) *httptest.ResponseRecorder {
	t.Helper()
	w := hs.postJSON(t, "/login", gin.H{"email": email, "password": mockapi.DefaultDemoPassword})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("login %s: expected 303, got %d: %s", email, w.Code, w.Body.String())
	}
	return w
}

func expectRedirect(t *testing.T, w *httptest.ResponseRecorder, code int, location string) {
	t.Helper()
	if w.Code != code {
		t.Fatalf("expected %d, got %d: %s", code, w.Code, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != location {
		t.Fatalf("expected Location %q, got %q", location, got)
	}
}

type listBody struct {
	Page string `json:"page"`
	Data struct {
		Total int `json:"total"`
		Data  []struct {
			ID int64 `json:"id"`
		} `json:"data"`
	} `json:"data"`
	Navigation []NavItem `json:"navigation"`
}

func TestConsole_HomeAndUnauthenticatedRedirects(t *testing.T) {
	hs := newHarness(t)

	expectRedirect(t, hs.get(t, "/"), http.StatusFound, "/login")
	expectRedirect(t, hs.get(t, "/schools?page=2"), http.StatusFound,
		"/login?"+url.Values{guard.FromParam: {"/schools?page=2"}}.Encode())
	expectRedirect(t, hs.get(t, "/change-password"), http.StatusFound,
		"/login?"+url.Values{guard.FromParam: {"/change-password"}}.Encode())

	if w := hs.get(t, "/login"); w.Code != http.StatusOK {
		t.Fatalf("login page: expected 200, got %d", w.Code)
	}
	if w := hs.get(t, "/healthz"); w.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", w.Code)
	}
}

func TestConsole_LoginReturnsToRequestedPage(t *testing.T) {
	hs := newHarness(t)

	w := hs.postJSON(t, "/login?from="+url.QueryEscape("/schools?status=ACTIVE"), gin.H{
		"email":    "admin@schoolpay.test",
		"password": mockapi.DefaultDemoPassword,
	})
	expectRedirect(t, w, http.StatusSeeOther, "/schools?status=ACTIVE")

	w = hs.get(t, "/schools?status=ACTIVE")
	if w.Code != http.StatusOK {
		t.Fatalf("schools: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body listBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Page != "All Schools" || body.Data.Total != 2 {
		t.Fatalf("unexpected list page %+v", body)
	}

	expectRedirect(t, hs.get(t, "/"), http.StatusFound, "/dashboard")
	expectRedirect(t, hs.get(t, "/login"), http.StatusFound, "/dashboard")
}

func TestConsole_LoginFormRejectsOpenRedirect(t *testing.T) {
	hs := newHarness(t)

	form := url.Values{
		"email":    {"admin@schoolpay.test"},
		"password": {mockapi.DefaultDemoPassword},
		"from":     {"//evil.example/phish"},
	}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	hs.router.ServeHTTP(w, req)

	expectRedirect(t, w, http.StatusSeeOther, "/dashboard")
}

func TestConsole_LoginFailures(t *testing.T) {
	hs := newHarness(t)

	w := hs.postJSON(t, "/login", gin.H{"email": "nope", "password": "123"})
	if w.Code != http.StatusUnprocessableEntity || !strings.Contains(w.Body.String(), `"email"`) {
		t.Fatalf("expected field errors, got %d: %s", w.Code, w.Body.String())
	}
	if w := hs.postJSON(t, "/login", gin.H{"email": "admin@schoolpay.test", "password": "wrong-password"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", w.Code)
	}
	if w := hs.postJSON(t, "/login", gin.H{"email": "former@riverside.test", "password": mockapi.DefaultDemoPassword}); w.Code != http.StatusForbidden {
		t.Fatalf("disabled: expected 403, got %d", w.Code)
	}
	if hs.session.IsAuthenticated() {
		t.Fatalf("failed logins must leave the session signed out")
	}
}

func TestConsole_FirstTimeLoginForcesPasswordChange(t *testing.T) {
	hs := newHarness(t)

	expectRedirect(t, hs.login(t, "housemaster@riverside.test"), http.StatusSeeOther, "/change-password")
	expectRedirect(t, hs.get(t, "/dashboard"), http.StatusFound, "/change-password")
	expectRedirect(t, hs.get(t, "/"), http.StatusFound, "/change-password")

	if w := hs.get(t, "/change-password"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"required":true`) {
		t.Fatalf("change password page: got %d: %s", w.Code, w.Body.String())
	}

	w := hs.postJSON(t, "/change-password", gin.H{
		"currentPassword": mockapi.DefaultDemoPassword,
		"newPassword":     "fresh-secret",
		"confirmPassword": "fresh-secret",
	})
	expectRedirect(t, w, http.StatusSeeOther, "/dashboard")

	if hs.session.MustChangePassword() {
		t.Fatalf("flag must be lifted")
	}
	if w := hs.get(t, "/dashboard"); w.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d", w.Code)
	}
}

func TestConsole_PermissionDenied(t *testing.T) {
	hs := newHarness(t)
	hs.login(t, "teacher@greenwood.test")

	expectRedirect(t, hs.get(t, "/schools"), http.StatusFound, "/unauthorized")
	expectRedirect(t, hs.get(t, "/students"), http.StatusFound, "/unauthorized")
	expectRedirect(t, hs.get(t, "/schools/1"), http.StatusFound, "/unauthorized")
	for _, open := range []string{"/analytics", "/assign-students"} {
		if w := hs.get(t, open); w.Code != http.StatusOK {
			t.Fatalf("%s is open to every operator, got %d", open, w.Code)
		}
	}

	w := hs.get(t, "/dashboard")
	var body listBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gt := titles(body.Navigation); len(gt) != 4 {
		t.Fatalf("unexpected navigation %v", gt)
	}
}

func TestConsole_ServerSideForbiddenIsPassedThrough(t *testing.T) {
	hs := newHarness(t)
	hs.login(t, "head@greenwood.test")

	// The school admin may open the detail page but the API pins them to their own school.
	if w := hs.get(t, "/schools/1"); w.Code != http.StatusOK {
		t.Fatalf("own school: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := hs.get(t, "/schools/2"); w.Code != http.StatusForbidden {
		t.Fatalf("other school: expected 403, got %d", w.Code)
	}
	if !hs.session.IsAuthenticated() {
		t.Fatalf("a 403 must not end the session")
	}
}

func TestConsole_ExpiredAccessIsRenewedTransparently(t *testing.T) {
	hs := newHarness(t)
	hs.login(t, "admin@schoolpay.test")
	before := hs.session.AccessToken()

	hs.clock.Advance(20 * time.Minute)

	w := hs.get(t, "/vendors")
	if w.Code != http.StatusOK {
		t.Fatalf("vendors: expected 200 after renewal, got %d: %s", w.Code, w.Body.String())
	}
	if after := hs.session.AccessToken(); after == "" || after == before {
		t.Fatalf("expected a renewed access credential")
	}
}

func TestConsole_FailedRenewalEndsSession(t *testing.T) {
	hs := newHarness(t)
	hs.login(t, "admin@schoolpay.test")

	hs.clock.Advance(25 * time.Hour)

	expectRedirect(t, hs.get(t, "/parents?page=1"), http.StatusFound,
		"/login?"+url.Values{guard.FromParam: {"/parents?page=1"}}.Encode())

	st := hs.session.State()
	if st.IsAuthenticated() || st.User != nil || st.RefreshToken != "" {
		t.Fatalf("session must be cleared, got %+v", st)
	}

	evs, _ := hs.events.Recent(context.Background(), 1)
	if len(evs) != 1 || evs[0].Type != audit.EventTypeSessionEnded {
		t.Fatalf("expected a session_ended event, got %+v", evs)
	}
}

func TestConsole_Logout(t *testing.T) {
	hs := newHarness(t)
	hs.login(t, "admin@schoolpay.test")

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	w := httptest.NewRecorder()
	hs.router.ServeHTTP(w, req)
	expectRedirect(t, w, http.StatusSeeOther, "/login")

	if hs.session.IsAuthenticated() {
		t.Fatalf("expected signed out")
	}
	expectRedirect(t, hs.get(t, "/dashboard"), http.StatusFound,
		"/login?"+url.Values{guard.FromParam: {"/dashboard"}}.Encode())

	evs, _ := hs.events.Recent(context.Background(), 0)
	if len(evs) != 2 || evs[0].Type != audit.EventTypeLogout || evs[1].Type != audit.EventTypeLogin {
		t.Fatalf("unexpected events %+v", evs)
	}
}
