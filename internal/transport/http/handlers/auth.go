package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arcvent/hvac-portal/internal/core/domain"
	"github.com/arcvent/hvac-portal/internal/transport/http/middleware"
	"github.com/arcvent/hvac-portal/internal/usecase"
)

// AuthHandler exposes login, logout, and current-identity endpoints.
type AuthHandler struct {
	auth         *usecase.AuthService
	sessions     *usecase.SessionService
	audit        *usecase.AuditService
	cookieName   string
	secureCookie bool
	logger       *zap.Logger
}

// NewAuthHandler constructs AuthHandler. secureCookie should be true in
// production so the session cookie is never sent over plain HTTP.
func NewAuthHandler(auth *usecase.AuthService, sessions *usecase.SessionService, audit *usecase.AuditService, cookieName string, secureCookie bool, logger *zap.Logger) *AuthHandler {
	if cookieName == "" {
		cookieName = "portal_session"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		auth:         auth,
		sessions:     sessions,
		audit:        audit,
		cookieName:   cookieName,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// RegisterRoutes binds authentication routes. loginMiddlewares run ahead of
// the login handler, which is where the rate limiter slots in. guarded routes
// require an authenticated session.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, guard *middleware.SessionGuard, loginMiddlewares ...gin.HandlerFunc) {
	chain := append([]gin.HandlerFunc{}, loginMiddlewares...)
	chain = append(chain, h.login)
	r.POST("/login", chain...)

	r.POST("/logout", h.logout)
	r.GET("/me", guard.RequireSession(middleware.GuardModeAPI), h.me)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email and password are required"))
		return
	}

	reqCtx := middleware.GetRequestContext(c)
	eventCtx := usecase.EventContext{
		IP:        reqCtx.IP,
		UserAgent: reqCtx.UserAgent,
	}

	employee, err := h.auth.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		// Inactive accounts get the same response as bad credentials so the
		// endpoint cannot be used to probe account state.
		if errors.Is(err, usecase.ErrInvalidCredentials) || errors.Is(err, usecase.ErrInactiveAccount) {
			eventCtx.AttemptedEmail = req.Email
			h.audit.Record(c.Request.Context(), domain.EventFailedLoginAttempt, nil, eventCtx)
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid email or password"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "login failed"))
		return
	}

	var ip, userAgent *string
	if reqCtx.IP != "" {
		ipCopy := reqCtx.IP
		ip = &ipCopy
	}
	if reqCtx.UserAgent != "" {
		uaCopy := reqCtx.UserAgent
		userAgent = &uaCopy
	}

	token, session, err := h.sessions.Create(c.Request.Context(), *employee, ip, userAgent)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "login failed"))
		return
	}

	h.setSessionCookie(c, token, int(h.sessions.TTL().Seconds()))
	h.audit.Record(c.Request.Context(), domain.EventSuccessfulLogin, &employee.ID, eventCtx)

	c.JSON(http.StatusOK, LoginResponse{
		Token:    token,
		Employee: newEmployeeSummary(*employee),
		Session:  newSessionSummary(*session),
	})
}

// logout revokes the presented session. It always answers 200: a missing,
// expired, or already revoked token leaves the caller logged out either way,
// and a revoke-store failure only delays the revocation since session
// validation fails closed while the store is unreachable.
func (h *AuthHandler) logout(c *gin.Context) {
	token := h.tokenFromRequest(c)
	if token != "" {
		if _, employee, err := h.sessions.Validate(c.Request.Context(), token); err == nil {
			reqCtx := middleware.GetRequestContext(c)
			h.audit.Record(c.Request.Context(), domain.EventUserLogout, &employee.ID, usecase.EventContext{
				IP:        reqCtx.IP,
				UserAgent: reqCtx.UserAgent,
			})
		}
		if err := h.sessions.Revoke(c.Request.Context(), token); err != nil {
			h.logger.Error("failed to revoke session on logout", zap.Error(err))
		}
	}

	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) me(c *gin.Context) {
	employee, ok := middleware.GetAuthenticatedEmployee(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	c.JSON(http.StatusOK, newEmployeeSummary(*employee))
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookieName, token, maxAge, "/", "", h.secureCookie, true)
}

func (h *AuthHandler) tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(h.cookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
