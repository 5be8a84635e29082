package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"

	"github.com/arcvent/hvac-portal/internal/core/domain"
	"github.com/arcvent/hvac-portal/internal/infra/security"
	redisrepo "github.com/arcvent/hvac-portal/internal/repository/redis"
	"github.com/arcvent/hvac-portal/internal/transport/http/middleware"
	"github.com/arcvent/hvac-portal/internal/usecase"
)

type authFixture struct {
	router    *gin.Engine
	employees *fakeEmployeeRepo
	sessions  *fakeSessionRepo
	events    *fakeEventRepo
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := security.HashPassword("Gr8-furnace-Filters!")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	employees := newFakeEmployeeRepo(domain.Employee{
		ID:           "emp-1",
		Email:        "dispatch@arcvent.example",
		Name:         "Dana Ortiz",
		Role:         domain.RoleManager,
		IsActive:     true,
		PasswordHash: hash,
	})
	sessionRepo := newFakeSessionRepo()
	events := &fakeEventRepo{}

	logger := zaptest.NewLogger(t)
	authService := usecase.NewAuthService(employees)
	sessionService := usecase.NewSessionService(sessionRepo, employees, time.Hour, logger)
	auditService := usecase.NewAuditService(events, nil, logger)

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := redisrepo.NewRateLimitRepository(client, redisrepo.SlidingWindowConfig{
		KeyPrefix: "test:rate-limit",
		TTL:       15 * time.Minute,
	})
	limiter := middleware.NewRateLimiter(store, logger)
	loginRule := middleware.RateLimitRule{
		Name:       "login_ip",
		Limit:      5,
		Window:     15 * time.Minute,
		Identifier: middleware.ClientIPIdentifier(),
		OnLimited: func(c *gin.Context, identifier string) {
			reqCtx := middleware.GetRequestContext(c)
			auditService.Record(c.Request.Context(), domain.EventRateLimitExceeded, nil, usecase.EventContext{
				IP:        reqCtx.IP,
				UserAgent: reqCtx.UserAgent,
			})
		},
	}

	guard := middleware.NewSessionGuard(sessionService, "portal_session", "/login", "/dashboard", logger)
	handler := NewAuthHandler(authService, sessionService, auditService, "portal_session", false, logger)

	router := gin.New()
	router.Use(middleware.EnrichContext())
	handler.RegisterRoutes(router.Group("/api/v1/auth"), guard, limiter.RateLimit(loginRule))

	return &authFixture{
		router:    router,
		employees: employees,
		sessions:  sessionRepo,
		events:    events,
	}
}

func (f *authFixture) postLogin(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(LoginRequest{Email: email, Password: password})
	if err != nil {
		t.Fatalf("marshal login request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.1:51234"
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func TestLoginSuccess(t *testing.T) {
	f := newAuthFixture(t)

	rr := f.postLogin(t, "dispatch@arcvent.example", "Gr8-furnace-Filters!")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp LoginResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a session token")
	}
	if resp.Employee.ID != "emp-1" {
		t.Fatalf("unexpected employee %q", resp.Employee.ID)
	}

	cookie := findCookie(rr, "portal_session")
	if cookie == nil {
		t.Fatal("expected a session cookie")
	}
	if cookie.Value != resp.Token {
		t.Fatal("cookie must carry the issued token")
	}
	if !cookie.HttpOnly {
		t.Fatal("session cookie must be http-only")
	}

	if got := f.events.eventsOfType(domain.EventSuccessfulLogin); len(got) != 1 {
		t.Fatalf("expected 1 successful_login event, got %d", len(got))
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newAuthFixture(t)

	rr := f.postLogin(t, "dispatch@arcvent.example", "wrong-password")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "invalid email or password" {
		t.Fatalf("unexpected error message %q", resp.Error)
	}

	failed := f.events.eventsOfType(domain.EventFailedLoginAttempt)
	if len(failed) != 1 {
		t.Fatalf("expected 1 failed_login_attempt event, got %d", len(failed))
	}
	masked, _ := failed[0].Metadata["attempted_email"].(string)
	if strings.Contains(masked, "dispatch@") {
		t.Fatalf("attempted email must be masked, got %q", masked)
	}
}

func TestLoginUnknownAccountSameMessage(t *testing.T) {
	f := newAuthFixture(t)

	rr := f.postLogin(t, "nobody@arcvent.example", "whatever-password")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "invalid email or password" {
		t.Fatalf("unknown account must get the same message, got %q", resp.Error)
	}
}

func TestLoginMalformedPayload(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestLoginRateLimitedAfterFiveAttempts(t *testing.T) {
	f := newAuthFixture(t)

	for i := 0; i < 5; i++ {
		rr := f.postLogin(t, "dispatch@arcvent.example", "wrong-password")
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rr.Code)
		}
	}

	lookupsBefore := f.employees.lookupCount()

	rr := f.postLogin(t, "dispatch@arcvent.example", "Gr8-furnace-Filters!")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on the sixth attempt, got %d", rr.Code)
	}

	if f.employees.lookupCount() != lookupsBefore {
		t.Fatal("credential check must not run for a rate-limited request")
	}

	if got := rr.Header().Get("Retry-After"); got == "" {
		t.Fatal("expected a Retry-After header")
	}

	var problem middleware.ProblemDetails
	if err := json.Unmarshal(rr.Body.Bytes(), &problem); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if problem.Status != http.StatusTooManyRequests {
		t.Fatalf("unexpected problem status %d", problem.Status)
	}

	if got := f.events.eventsOfType(domain.EventRateLimitExceeded); len(got) != 1 {
		t.Fatalf("expected 1 rate_limit_exceeded event, got %d", len(got))
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newAuthFixture(t)

	login := f.postLogin(t, "dispatch@arcvent.example", "Gr8-furnace-Filters!")
	if login.Code != http.StatusOK {
		t.Fatalf("login failed: %d", login.Code)
	}
	cookie := findCookie(login, "portal_session")
	if cookie == nil {
		t.Fatal("expected a session cookie")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "portal_session", Value: cookie.Value})
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	cleared := findCookie(rr, "portal_session")
	if cleared == nil || cleared.Value != "" {
		t.Fatal("expected the session cookie to be cleared")
	}

	if got := f.events.eventsOfType(domain.EventUserLogout); len(got) != 1 {
		t.Fatalf("expected 1 user_logout event, got %d", len(got))
	}

	// The revoked token no longer authenticates.
	meReq := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	meReq.AddCookie(&http.Cookie{Name: "portal_session", Value: cookie.Value})
	meRR := httptest.NewRecorder()
	f.router.ServeHTTP(meRR, meReq)
	if meRR.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", meRR.Code)
	}

	// Logging out again stays a 200.
	again := httptest.NewRecorder()
	repeat := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	repeat.AddCookie(&http.Cookie{Name: "portal_session", Value: cookie.Value})
	f.router.ServeHTTP(again, repeat)
	if again.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeat logout, got %d", again.Code)
	}
}

func TestLogoutSucceedsWhenRevokeStoreFails(t *testing.T) {
	f := newAuthFixture(t)

	login := f.postLogin(t, "dispatch@arcvent.example", "Gr8-furnace-Filters!")
	if login.Code != http.StatusOK {
		t.Fatalf("login failed: %d", login.Code)
	}
	cookie := findCookie(login, "portal_session")
	if cookie == nil {
		t.Fatal("expected a session cookie")
	}

	f.sessions.setRevokeErr(errors.New("connection refused"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "portal_session", Value: cookie.Value})
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 even when revoke fails, got %d", rr.Code)
	}

	cleared := findCookie(rr, "portal_session")
	if cleared == nil || cleared.Value != "" {
		t.Fatal("expected the session cookie to be cleared")
	}
}

func TestLogoutWithoutSession(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestMeReturnsCurrentEmployee(t *testing.T) {
	f := newAuthFixture(t)

	login := f.postLogin(t, "dispatch@arcvent.example", "Gr8-furnace-Filters!")
	cookie := findCookie(login, "portal_session")
	if cookie == nil {
		t.Fatal("expected a session cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "portal_session", Value: cookie.Value})
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp EmployeeSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != "emp-1" || resp.Role != domain.RoleManager {
		t.Fatalf("unexpected employee payload: %+v", resp)
	}
}

func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	res := rr.Result()
	defer res.Body.Close()
	for _, cookie := range res.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}
