package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arcvent/hvac-portal/internal/core/domain"
	"github.com/arcvent/hvac-portal/internal/usecase"
)

const (
	employeeKey = "authenticated_employee"
	sessionKey  = "authenticated_session"
)

// GuardMode selects how the session guard reports failures. Browser routes
// are redirected to the login page; API routes receive JSON errors.
type GuardMode int

const (
	GuardModeAPI GuardMode = iota
	GuardModeBrowser
)

// ErrorResponse matches the handlers.ErrorResponse structure.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// newErrorResponse creates an error response with trace ID.
func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// SessionGuard authenticates requests against the session store and enforces
// role requirements. Validation errors from the store deny the request.
type SessionGuard struct {
	sessions      *usecase.SessionService
	cookieName    string
	loginPath     string
	dashboardPath string
	logger        *zap.Logger
}

// NewSessionGuard constructs the guard used on every protected route.
func NewSessionGuard(sessions *usecase.SessionService, cookieName, loginPath, dashboardPath string, logger *zap.Logger) *SessionGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cookieName == "" {
		cookieName = "portal_session"
	}
	if loginPath == "" {
		loginPath = "/login"
	}
	if dashboardPath == "" {
		dashboardPath = "/dashboard"
	}
	return &SessionGuard{
		sessions:      sessions,
		cookieName:    cookieName,
		loginPath:     loginPath,
		dashboardPath: dashboardPath,
		logger:        logger,
	}
}

// TokenFromRequest extracts the raw session token from the session cookie or,
// failing that, a Bearer Authorization header.
func (g *SessionGuard) TokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(g.cookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireSession validates the session token and resolves the owning
// employee. The employee record is re-read by the session service on every
// request, so deactivation and role changes bind immediately.
func (g *SessionGuard) RequireSession(mode GuardMode) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := g.TokenFromRequest(c)
		if token == "" {
			g.denyMissing(c, mode)
			return
		}

		session, employee, err := g.sessions.Validate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrSessionNotFound),
				errors.Is(err, usecase.ErrSessionExpired),
				errors.Is(err, usecase.ErrSessionRevoked):
				g.denyInvalid(c, mode)
			default:
				// Store outage: deny the same way as an invalid session
				// rather than let the request through.
				g.logger.Error("session validation failed", zap.Error(err))
				g.denyInvalid(c, mode)
			}
			return
		}

		c.Set(employeeKey, employee)
		c.Set(sessionKey, session)

		c.Next()
	}
}

// RequireSessionExcept behaves like RequireSession but lets allowlisted
// paths through untouched. Entries ending in "/*" match by prefix, anything
// else matches exactly. The allowlist is consulted before the token is even
// read, so public pages never trigger a redirect loop.
func (g *SessionGuard) RequireSessionExcept(mode GuardMode, public ...string) gin.HandlerFunc {
	exact := make(map[string]struct{}, len(public))
	var prefixes []string
	for _, entry := range public {
		if strings.HasSuffix(entry, "/*") {
			prefixes = append(prefixes, strings.TrimSuffix(entry, "*"))
			continue
		}
		exact[entry] = struct{}{}
	}

	guarded := g.RequireSession(mode)

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := exact[path]; ok {
			c.Next()
			return
		}
		for _, prefix := range prefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}
		guarded(c)
	}
}

// RequireRole allows the request only when the authenticated employee holds
// one of the listed roles. Must run after RequireSession.
func (g *SessionGuard) RequireRole(mode GuardMode, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		employee, ok := GetAuthenticatedEmployee(c)
		if !ok {
			g.denyMissing(c, mode)
			return
		}

		for _, role := range roles {
			if employee.Role == role {
				c.Next()
				return
			}
		}

		if mode == GuardModeBrowser {
			c.Redirect(http.StatusFound, g.dashboardPath+"?error=unauthorized")
			c.Abort()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden,
			newErrorResponse(c, "insufficient permissions"))
	}
}

func (g *SessionGuard) denyMissing(c *gin.Context, mode GuardMode) {
	if mode == GuardModeBrowser {
		c.Redirect(http.StatusFound, g.loginPath+"?redirect="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		newErrorResponse(c, "authentication required"))
}

func (g *SessionGuard) denyInvalid(c *gin.Context, mode GuardMode) {
	if mode == GuardModeBrowser {
		c.Redirect(http.StatusFound, g.loginPath+"?error=session_expired&redirect="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		newErrorResponse(c, "invalid or expired session"))
}

// GetAuthenticatedEmployee retrieves the employee resolved by RequireSession.
func GetAuthenticatedEmployee(c *gin.Context) (*domain.Employee, bool) {
	value, exists := c.Get(employeeKey)
	if !exists {
		return nil, false
	}
	employee, ok := value.(*domain.Employee)
	return employee, ok
}

// GetAuthenticatedSession retrieves the session resolved by RequireSession.
func GetAuthenticatedSession(c *gin.Context) (*domain.Session, bool) {
	value, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	session, ok := value.(*domain.Session)
	return session, ok
}
