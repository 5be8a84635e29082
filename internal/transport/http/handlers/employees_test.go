package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/arcvent/hvac-portal/internal/core/domain"
	"github.com/arcvent/hvac-portal/internal/infra/security"
	"github.com/arcvent/hvac-portal/internal/transport/http/middleware"
	"github.com/arcvent/hvac-portal/internal/usecase"
)

type employeeFixture struct {
	router    *gin.Engine
	employees *fakeEmployeeRepo
	sessions  *usecase.SessionService
	events    *fakeEventRepo
}

func newEmployeeFixture(t *testing.T) *employeeFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := security.HashPassword("Gr8-furnace-Filters!")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	employees := newFakeEmployeeRepo(
		domain.Employee{ID: "admin-1", Email: "admin@arcvent.example", Name: "Avery Kim", Role: domain.RoleAdmin, IsActive: true, PasswordHash: hash},
		domain.Employee{ID: "tech-1", Email: "tech@arcvent.example", Name: "Sam Reyes", Role: domain.RoleTechnician, IsActive: true, PasswordHash: hash},
	)
	sessionRepo := newFakeSessionRepo()
	events := &fakeEventRepo{}

	logger := zaptest.NewLogger(t)
	sessionService := usecase.NewSessionService(sessionRepo, employees, time.Hour, logger)
	employeeService := usecase.NewEmployeeService(employees, sessionService, nil, logger)
	auditService := usecase.NewAuditService(events, nil, logger)

	guard := middleware.NewSessionGuard(sessionService, "portal_session", "/login", "/dashboard", logger)
	handler := NewEmployeeHandler(employeeService, auditService)

	router := gin.New()
	router.Use(middleware.EnrichContext())
	handler.RegisterRoutes(router.Group("/api/v1/employees"), guard)

	return &employeeFixture{
		router:    router,
		employees: employees,
		sessions:  sessionService,
		events:    events,
	}
}

func (f *employeeFixture) tokenFor(t *testing.T, employeeID string) string {
	t.Helper()
	token, _, err := f.sessions.Create(context.Background(), domain.Employee{ID: employeeID}, nil, nil)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return token
}

func (f *employeeFixture) do(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "portal_session", Value: token})
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func TestEmployeeListRequiresManagerOrAdmin(t *testing.T) {
	f := newEmployeeFixture(t)

	if rr := f.do(t, http.MethodGet, "/api/v1/employees", "", nil); rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", rr.Code)
	}

	techToken := f.tokenFor(t, "tech-1")
	if rr := f.do(t, http.MethodGet, "/api/v1/employees", techToken, nil); rr.Code != http.StatusForbidden {
		t.Fatalf("technician: expected 403, got %d", rr.Code)
	}

	adminToken := f.tokenFor(t, "admin-1")
	rr := f.do(t, http.MethodGet, "/api/v1/employees", adminToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", rr.Code)
	}

	var resp EmployeeListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("expected 2 employees, got %d", resp.Total)
	}
}

func TestEmployeeCreate(t *testing.T) {
	f := newEmployeeFixture(t)
	adminToken := f.tokenFor(t, "admin-1")

	rr := f.do(t, http.MethodPost, "/api/v1/employees", adminToken, EmployeeCreateRequest{
		Email:    "new.sales@arcvent.example",
		Name:     "Riley Chen",
		Role:     "sales_rep",
		Password: "warm&windy-Attic-99",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp EmployeeSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Email != "new.sales@arcvent.example" || resp.Role != domain.RoleSalesRep {
		t.Fatalf("unexpected employee payload: %+v", resp)
	}

	if got := f.events.eventsOfType(domain.EventEmployeeCreated); len(got) != 1 {
		t.Fatalf("expected 1 employee_created event, got %d", len(got))
	}
}

func TestEmployeeCreateRejectsWeakPassword(t *testing.T) {
	f := newEmployeeFixture(t)
	adminToken := f.tokenFor(t, "admin-1")

	rr := f.do(t, http.MethodPost, "/api/v1/employees", adminToken, EmployeeCreateRequest{
		Email:    "weak@arcvent.example",
		Name:     "Weak Password",
		Role:     "technician",
		Password: "password1",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestEmployeeMutationsAreAdminOnly(t *testing.T) {
	f := newEmployeeFixture(t)
	techToken := f.tokenFor(t, "tech-1")

	rr := f.do(t, http.MethodPost, "/api/v1/employees", techToken, EmployeeCreateRequest{
		Email:    "x@arcvent.example",
		Name:     "X",
		Role:     "technician",
		Password: "warm&windy-Attic-99",
	})
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestEmployeeDeactivateKillsLiveSessions(t *testing.T) {
	f := newEmployeeFixture(t)
	adminToken := f.tokenFor(t, "admin-1")
	techToken := f.tokenFor(t, "tech-1")

	rr := f.do(t, http.MethodPost, "/api/v1/employees/tech-1/deactivate", adminToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	if got := f.events.eventsOfType(domain.EventEmployeeDeactivated); len(got) != 1 {
		t.Fatalf("expected 1 employee_deactivated event, got %d", len(got))
	}

	// The technician's unexpired session no longer authenticates.
	if _, _, err := f.sessions.Validate(context.Background(), techToken); err == nil {
		t.Fatal("expected the deactivated employee's session to be rejected")
	}
}

func TestEmployeeUpdateInvalidRole(t *testing.T) {
	f := newEmployeeFixture(t)
	adminToken := f.tokenFor(t, "admin-1")

	role := "janitor"
	rr := f.do(t, http.MethodPatch, "/api/v1/employees/tech-1", adminToken, EmployeeUpdateRequest{Role: &role})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error != "unknown role" {
		t.Fatalf("unexpected error message %q", resp.Error)
	}
}

func TestEmployeeUpdateUnknownID(t *testing.T) {
	f := newEmployeeFixture(t)
	adminToken := f.tokenFor(t, "admin-1")

	name := "Nobody"
	rr := f.do(t, http.MethodPatch, "/api/v1/employees/missing", adminToken, EmployeeUpdateRequest{Name: &name})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}
