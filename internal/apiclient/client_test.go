package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"schoolpay/internal/rbac"
	"schoolpay/internal/session"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// fakeAPI accepts exactly one access credential at a time and rotates on refresh.
type fakeAPI struct {
	mu            sync.Mutex
	validAccess   string
	validRefresh  string
	nextAccess    string
	nextRefresh   string
	refreshStatus int
	refreshDelay  time.Duration
	alwaysExpire  bool

	refreshCalls atomic.Int32
	schoolCalls  atomic.Int32
	authHeaders  []string
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		if f.refreshDelay > 0 {
			time.Sleep(f.refreshDelay)
		}
		if r.Header.Get("Authorization") != "" {
			http.Error(w, "refresh must not carry bearer", http.StatusBadRequest)
			return
		}
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		defer f.mu.Unlock()
		if f.refreshStatus != 0 {
			w.WriteHeader(f.refreshStatus)
			_, _ = w.Write([]byte(`{"message":"refresh rejected"}`))
			return
		}
		if body.RefreshToken != f.validRefresh {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"stale refresh token"}`))
			return
		}
		f.validAccess, f.validRefresh = f.nextAccess, f.nextRefresh
		_ = json.NewEncoder(w).Encode(TokenPair{AccessToken: f.nextAccess, RefreshToken: f.nextRefresh})
	})
	mux.HandleFunc("/v1/schools", func(w http.ResponseWriter, r *http.Request) {
		f.schoolCalls.Add(1)
		got := r.Header.Get("Authorization")

		f.mu.Lock()
		f.authHeaders = append(f.authHeaders, got)
		ok := !f.alwaysExpire && got == "Bearer "+f.validAccess
		f.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"token expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":1,"name":"Accra Academy"}],"total":1,"page":` + r.URL.Query().Get("page") + `}`))
	})
	mux.HandleFunc("/v1/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"database down"}`))
	})
	mux.HandleFunc("/v1/forbidden", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"forbidden"}`))
	})
	return mux
}

type listResponse struct {
	Data []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page"`
}

type endedRecorder struct {
	mu     sync.Mutex
	causes []error
}

func (r *endedRecorder) hook(ctx context.Context, cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.causes = append(r.causes, cause)
}

func (r *endedRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.causes)
}

func setup(t *testing.T, api *fakeAPI, access, refresh string) (*Client, *session.Manager, *endedRecorder) {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	m := session.NewManager()
	m.Establish(session.User{ID: 1, Email: "t@school.test", UserType: rbac.Teacher, Permissions: []rbac.Permission{rbac.SchoolsView}}, access, refresh, false)

	rec := &endedRecorder{}
	c, err := New(Config{BaseURL: srv.URL + "/v1"}, m,
		WithSessionEndedHook(rec.hook),
		WithRefresher(NewHTTPRefresher(srv.URL+"/auth/refresh", srv.Client())),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c, m, rec
}

func TestDo_AttachesBearerAndDecodes(t *testing.T) {
	api := &fakeAPI{validAccess: "tok", validRefresh: "rtok"}
	c, _, _ := setup(t, api, "tok", "rtok")

	var out listResponse
	if err := c.Get(context.Background(), "/schools", url.Values{"page": {"2"}}, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Total != 1 || out.Page != 2 || out.Data[0].Name != "Accra Academy" {
		t.Fatalf("unexpected response %+v", out)
	}
	if api.refreshCalls.Load() != 0 {
		t.Fatalf("unexpected refresh")
	}
}

func TestDo_RefreshesOnceAndRetries(t *testing.T) {
	api := &fakeAPI{validAccess: "expired-never-matches", validRefresh: "rtok", nextAccess: "tok2", nextRefresh: "rtok2"}
	c, m, rec := setup(t, api, "tok", "rtok")
	before := testutil.ToFloat64(refreshTotal.WithLabelValues(outcomeSuccess))

	var out listResponse
	if err := c.Get(context.Background(), "/schools", url.Values{"page": {"1"}}, &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.Total != 1 {
		t.Fatalf("caller must receive the retried result, got %+v", out)
	}
	if api.refreshCalls.Load() != 1 || api.schoolCalls.Load() != 2 {
		t.Fatalf("expected 1 refresh and 2 calls, got %d and %d", api.refreshCalls.Load(), api.schoolCalls.Load())
	}
	if api.authHeaders[1] != "Bearer tok2" {
		t.Fatalf("retry must use the new credential, got %q", api.authHeaders[1])
	}
	if access, refresh := m.Credentials(); access != "tok2" || refresh != "rtok2" {
		t.Fatalf("session must hold the new pair, got %q %q", access, refresh)
	}
	if !m.IsAuthenticated() || rec.count() != 0 {
		t.Fatalf("session must stay signed in")
	}
	if got := testutil.ToFloat64(refreshTotal.WithLabelValues(outcomeSuccess)) - before; got != 1 {
		t.Fatalf("expected one successful refresh counted, got %v", got)
	}
}

func TestDo_RefreshFailureEndsSession(t *testing.T) {
	api := &fakeAPI{validAccess: "other", validRefresh: "rtok", refreshStatus: http.StatusInternalServerError}
	c, m, rec := setup(t, api, "tok", "rtok")

	err := c.Get(context.Background(), "/schools", nil, nil)
	if !errors.Is(err, ErrSessionEnded) {
		t.Fatalf("expected ErrSessionEnded, got %v", err)
	}
	code, ok := StatusCode(err)
	if !ok || code != http.StatusInternalServerError {
		t.Fatalf("caller must receive the refresh error, got %v", err)
	}
	var se *StatusError
	if errors.As(err, &se) && se.Message != "refresh rejected" {
		t.Fatalf("unexpected message %q", se.Message)
	}

	st := m.State()
	if st.IsAuthenticated() || st.AccessToken != "" || st.RefreshToken != "" || st.User != nil {
		t.Fatalf("session must be cleared, got %+v", st)
	}
	if rec.count() != 1 {
		t.Fatalf("expected one login redirect, got %d", rec.count())
	}
	if api.schoolCalls.Load() != 1 {
		t.Fatalf("original call must not be retried after a failed refresh")
	}
}

func TestDo_NoRefreshCredentialEndsSession(t *testing.T) {
	api := &fakeAPI{validAccess: "other"}
	c, m, rec := setup(t, api, "tok", "")

	err := c.Get(context.Background(), "/schools", nil, nil)
	if !errors.Is(err, ErrSessionEnded) {
		t.Fatalf("expected ErrSessionEnded, got %v", err)
	}
	if code, _ := StatusCode(err); code != http.StatusUnauthorized {
		t.Fatalf("expected the original 401, got %v", err)
	}
	if m.IsAuthenticated() || rec.count() != 1 {
		t.Fatalf("expected cleared session and one redirect")
	}
	if api.refreshCalls.Load() != 0 {
		t.Fatalf("refresh must not be attempted without a refresh credential")
	}
}

func TestDo_SecondExpiryIsNotRefreshedAgain(t *testing.T) {
	api := &fakeAPI{validRefresh: "rtok", nextAccess: "tok2", nextRefresh: "rtok2", alwaysExpire: true}
	c, m, rec := setup(t, api, "tok", "rtok")

	err := c.Get(context.Background(), "/schools", nil, nil)
	if code, _ := StatusCode(err); code != http.StatusUnauthorized {
		t.Fatalf("expected the retried 401, got %v", err)
	}
	if errors.Is(err, ErrSessionEnded) {
		t.Fatalf("a failed retry is passed through, not a session end")
	}
	if api.refreshCalls.Load() != 1 || api.schoolCalls.Load() != 2 {
		t.Fatalf("expected 1 refresh and 2 calls, got %d and %d", api.refreshCalls.Load(), api.schoolCalls.Load())
	}
	if rec.count() != 0 || m.RefreshToken() != "rtok2" {
		t.Fatalf("session must keep the rotated pair")
	}
}

func TestDo_OtherErrorsPassThrough(t *testing.T) {
	api := &fakeAPI{validAccess: "tok", validRefresh: "rtok"}
	c, m, rec := setup(t, api, "tok", "rtok")

	for path, want := range map[string]int{"/broken": 500, "/forbidden": 403} {
		err := c.Do(context.Background(), http.MethodGet, path, nil, nil)
		if code, _ := StatusCode(err); code != want {
			t.Fatalf("%s: expected %d, got %v", path, want, err)
		}
	}
	if api.refreshCalls.Load() != 0 || rec.count() != 0 || !m.IsAuthenticated() {
		t.Fatalf("non-expiry errors must not touch the session")
	}
}

func TestDo_ConcurrentExpiriesShareOneRefresh(t *testing.T) {
	api := &fakeAPI{validAccess: "old", validRefresh: "rtok", nextAccess: "tok2", nextRefresh: "rtok2", refreshDelay: 50 * time.Millisecond}
	c, m, rec := setup(t, api, "tok", "rtok")

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.Get(context.Background(), "/schools", nil, nil)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := api.refreshCalls.Load(); got != 1 {
		t.Fatalf("expected a single refresh, got %d", got)
	}
	if access, _ := m.Credentials(); access != "tok2" || rec.count() != 0 {
		t.Fatalf("unexpected session after concurrent refresh")
	}
}

func TestDo_RefreshSurvivesCallerCancellation(t *testing.T) {
	api := &fakeAPI{validAccess: "old", validRefresh: "rtok", nextAccess: "tok2", nextRefresh: "rtok2", refreshDelay: 30 * time.Millisecond}
	c, m, _ := setup(t, api, "tok", "rtok")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Get(ctx, "/schools", nil, nil) }()

	// Cancel while the refresh is in flight.
	deadline := time.Now().Add(time.Second)
	for api.refreshCalls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done

	if access, refresh := m.Credentials(); access != "tok2" || refresh != "rtok2" {
		t.Fatalf("refresh must complete despite cancellation, got %q %q", access, refresh)
	}
}

// startExpiredCall issues a call with an expired credential and waits until its refresh is in flight.
func startExpiredCall(t *testing.T, c *Client, api *fakeAPI) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- c.Get(context.Background(), "/schools", nil, nil) }()

	deadline := time.Now().Add(time.Second)
	for api.refreshCalls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if api.refreshCalls.Load() == 0 {
		t.Fatalf("refresh never started")
	}
	return done
}

func TestDo_LogoutDuringRefreshDiscardsRenewedPair(t *testing.T) {
	api := &fakeAPI{validAccess: "old", validRefresh: "rtok", nextAccess: "tok2", nextRefresh: "rtok2", refreshDelay: 100 * time.Millisecond}
	c, m, rec := setup(t, api, "tok", "rtok")
	before := testutil.ToFloat64(refreshTotal.WithLabelValues(outcomeDiscarded))

	done := startExpiredCall(t, c, api)
	m.Logout()
	err := <-done

	if !errors.Is(err, ErrSessionEnded) || !errors.Is(err, ErrSessionChanged) {
		t.Fatalf("expected session ended by a session change, got %v", err)
	}
	st := m.State()
	if st.User != nil || st.AccessToken != "" || st.RefreshToken != "" {
		t.Fatalf("signed-out session must stay empty, got %+v", st)
	}
	if api.schoolCalls.Load() != 1 {
		t.Fatalf("call must not be retried, got %d calls", api.schoolCalls.Load())
	}
	if rec.count() != 0 {
		t.Fatalf("a user sign-out is not a forced session end")
	}
	if got := testutil.ToFloat64(refreshTotal.WithLabelValues(outcomeDiscarded)) - before; got != 1 {
		t.Fatalf("expected one discarded renewal, got %v", got)
	}
}

func TestDo_NewLoginDuringRefreshIsKept(t *testing.T) {
	api := &fakeAPI{validAccess: "old", validRefresh: "rtok", nextAccess: "tok2", nextRefresh: "rtok2", refreshDelay: 100 * time.Millisecond}
	c, m, _ := setup(t, api, "tok", "rtok")

	done := startExpiredCall(t, c, api)
	m.Establish(session.User{ID: 2, Email: "h@school.test", UserType: rbac.SchoolAdmin}, "fresh", "rfresh", false)
	err := <-done

	if !errors.Is(err, ErrSessionChanged) {
		t.Fatalf("expected ErrSessionChanged, got %v", err)
	}
	if access, refresh := m.Credentials(); access != "fresh" || refresh != "rfresh" {
		t.Fatalf("new login must not be overwritten, got %q %q", access, refresh)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{BaseURL: "http://x"}, nil); err == nil {
		t.Fatalf("expected error for nil session")
	}
	if _, err := New(Config{BaseURL: "/relative"}, session.NewManager()); err == nil {
		t.Fatalf("expected error for relative base url")
	}
}

func TestResolve(t *testing.T) {
	c, err := New(Config{BaseURL: "https://api.example.com/v1/"}, session.NewManager())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if got := c.resolve("/schools?page=2").String(); got != "https://api.example.com/v1/schools?page=2" {
		t.Fatalf("unexpected url %s", got)
	}
	if got := c.resolve("students").String(); got != "https://api.example.com/v1/students" {
		t.Fatalf("unexpected url %s", got)
	}
}

func TestDoPublic_NeverRenews(t *testing.T) {
	api := &fakeAPI{validAccess: "tok", validRefresh: "rtok"}
	c, m, rec := setup(t, api, "tok", "rtok")

	err := c.DoPublic(context.Background(), http.MethodGet, "/schools", nil, nil)
	if code, _ := StatusCode(err); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if api.authHeaders[0] != "" {
		t.Fatalf("public calls must not carry credentials, got %q", api.authHeaders[0])
	}
	if api.refreshCalls.Load() != 0 || rec.count() != 0 || !m.IsAuthenticated() {
		t.Fatalf("public 401 must not touch the session")
	}
}
