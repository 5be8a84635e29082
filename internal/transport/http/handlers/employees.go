package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arcvent/hvac-portal/internal/core/domain"
	"github.com/arcvent/hvac-portal/internal/transport/http/middleware"
	"github.com/arcvent/hvac-portal/internal/usecase"
)

// EmployeeHandler exposes the admin employee management endpoints.
type EmployeeHandler struct {
	employees *usecase.EmployeeService
	audit     *usecase.AuditService
}

var employeeErrorCases = []ErrorCase{
	{Err: usecase.ErrEmployeeNotFound, Status: http.StatusNotFound, Message: "employee not found"},
	{Err: usecase.ErrInvalidRole, Status: http.StatusBadRequest, Message: "unknown role"},
	{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "password does not meet requirements"},
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// NewEmployeeHandler constructs EmployeeHandler.
func NewEmployeeHandler(employees *usecase.EmployeeService, audit *usecase.AuditService) *EmployeeHandler {
	return &EmployeeHandler{
		employees: employees,
		audit:     audit,
	}
}

// RegisterRoutes binds employee management routes. Listing and reading are
// open to managers; mutations are admin only.
func (h *EmployeeHandler) RegisterRoutes(r *gin.RouterGroup, guard *middleware.SessionGuard) {
	r.Use(guard.RequireSession(middleware.GuardModeAPI))

	read := guard.RequireRole(middleware.GuardModeAPI, domain.RoleAdmin, domain.RoleManager)
	write := guard.RequireRole(middleware.GuardModeAPI, domain.RoleAdmin)

	r.GET("", read, h.list)
	r.GET("/:id", read, h.get)
	r.POST("", write, h.create)
	r.PATCH("/:id", write, h.update)
	r.POST("/:id/deactivate", write, h.deactivate)
	r.POST("/:id/reactivate", write, h.reactivate)
}

func (h *EmployeeHandler) list(c *gin.Context) {
	employees, err := h.employees.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list employees"))
		return
	}

	summaries := make([]EmployeeSummary, 0, len(employees))
	for _, employee := range employees {
		summaries = append(summaries, newEmployeeSummary(employee))
	}

	c.JSON(http.StatusOK, EmployeeListResponse{
		Employees: summaries,
		Total:     len(summaries),
	})
}

func (h *EmployeeHandler) get(c *gin.Context) {
	employee, err := h.employees.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, employeeErrorCases, http.StatusInternalServerError, "failed to fetch employee")
		return
	}

	c.JSON(http.StatusOK, newEmployeeSummary(*employee))
}

func (h *EmployeeHandler) create(c *gin.Context) {
	var req EmployeeCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid employee payload"))
		return
	}

	employee, err := h.employees.Create(c.Request.Context(), usecase.CreateEmployeeInput{
		Email:      req.Email,
		Name:       req.Name,
		Role:       domain.Role(req.Role),
		Department: req.Department,
		Phone:      req.Phone,
		Password:   req.Password,
	})
	if err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, NewErrorResponse(c, "email already registered"))
			return
		}
		RespondWithMappedError(c, err, employeeErrorCases, http.StatusInternalServerError, "failed to create employee")
		return
	}

	h.recordEvent(c, domain.EventEmployeeCreated, employee.ID)
	c.JSON(http.StatusCreated, newEmployeeSummary(*employee))
}

func (h *EmployeeHandler) update(c *gin.Context) {
	var req EmployeeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid employee payload"))
		return
	}

	input := usecase.UpdateEmployeeInput{
		Email:      req.Email,
		Name:       req.Name,
		Department: req.Department,
		Phone:      req.Phone,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		input.Role = &role
	}

	employee, err := h.employees.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, NewErrorResponse(c, "email already registered"))
			return
		}
		RespondWithMappedError(c, err, employeeErrorCases, http.StatusInternalServerError, "failed to update employee")
		return
	}

	h.recordEvent(c, domain.EventEmployeeUpdated, employee.ID)
	c.JSON(http.StatusOK, newEmployeeSummary(*employee))
}

func (h *EmployeeHandler) deactivate(c *gin.Context) {
	id := c.Param("id")
	if err := h.employees.Deactivate(c.Request.Context(), id); err != nil {
		RespondWithMappedError(c, err, employeeErrorCases, http.StatusInternalServerError, "failed to deactivate employee")
		return
	}

	h.recordEvent(c, domain.EventEmployeeDeactivated, id)
	c.JSON(http.StatusOK, MessageResponse{Message: "employee deactivated"})
}

func (h *EmployeeHandler) reactivate(c *gin.Context) {
	id := c.Param("id")
	if err := h.employees.Reactivate(c.Request.Context(), id); err != nil {
		RespondWithMappedError(c, err, employeeErrorCases, http.StatusInternalServerError, "failed to reactivate employee")
		return
	}

	h.recordEvent(c, domain.EventEmployeeUpdated, id)
	c.JSON(http.StatusOK, MessageResponse{Message: "employee reactivated"})
}

func (h *EmployeeHandler) recordEvent(c *gin.Context, eventType domain.SecurityEventType, employeeID string) {
	reqCtx := middleware.GetRequestContext(c)
	eventCtx := usecase.EventContext{
		IP:        reqCtx.IP,
		UserAgent: reqCtx.UserAgent,
	}
	h.audit.Record(c.Request.Context(), eventType, &employeeID, eventCtx)
}
