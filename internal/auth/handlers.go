package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/config"
	domainerrors "github.com/mrlokans/librarian/internal/errors"
	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/http/response"
)

// Auditor records authentication attempts.
type Auditor interface {
	LogAuth(librarianID uint, action string, ipAddr, userAgent string, success bool)
}

// LoginRequest is accepted as JSON or as a form post.
// Username carries the librarian's email.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (r LoginRequest) identity() string {
	if r.Username != "" {
		return strings.TrimSpace(r.Username)
	}
	return strings.TrimSpace(r.Email)
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ChangePasswordRequest is the body of PATCH /api/auth/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthController handles authentication-related HTTP endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	rateLimiter    *RateLimiter
	auditor        Auditor
}

// NewAuthController creates a new authentication controller.
// sessionManager and auditor may be nil.
func NewAuthController(service *Service, sessionManager *SessionManager, auditor Auditor, cfg config.Auth) *AuthController {
	rateLimiter := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     cfg.MaxLoginAttempts,
		WindowDuration:  cfg.RateLimitWindow,
		LockoutDuration: cfg.LockoutDuration,
	})

	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
		auditor:        auditor,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRouter) {
	limited := ac.rateLimiter.RateLimitMiddleware()

	group := router.Group("/api/auth")
	group.POST("/login", limited, ac.Login)
	group.POST("/session", limited, ac.CreateSession)
	group.DELETE("/session", ac.DestroySession)
	group.GET("/me", ac.Me)
	group.PATCH("/change-password", ac.ChangePassword)
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

// Login handles POST /api/auth/login and issues a bearer token.
func (ac *AuthController) Login(c *gin.Context) {
	req, ok := bindLogin(c)
	if !ok {
		return
	}

	librarian, token, expiresAt, err := ac.service.Login(c.Request.Context(), req.identity(), req.Password)
	if err != nil {
		ac.loginFailed(c, "login", req.identity(), err)
		return
	}
	ac.loginSucceeded(c, "login", req.identity(), librarian)

	response.OK(c, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	})
}

// CreateSession handles POST /api/auth/session and logs in with a cookie.
func (ac *AuthController) CreateSession(c *gin.Context) {
	if ac.sessionManager == nil {
		response.Error(c, domainerrors.Validation("session login is not enabled"))
		return
	}

	req, ok := bindLogin(c)
	if !ok {
		return
	}

	librarian, err := ac.service.Authenticate(c.Request.Context(), req.identity(), req.Password)
	if err != nil {
		ac.loginFailed(c, "session_login", req.identity(), err)
		return
	}

	if err := ac.sessionManager.CreateSession(c.Request, librarian); err != nil {
		response.InternalError(c, err)
		return
	}
	ac.loginSucceeded(c, "session_login", req.identity(), librarian)

	response.OK(c, librarian)
}

// DestroySession handles DELETE /api/auth/session.
func (ac *AuthController) DestroySession(c *gin.Context) {
	if ac.sessionManager != nil {
		librarianID := ac.sessionManager.GetLibrarianID(c.Request)
		if err := ac.sessionManager.DestroySession(c.Request); err != nil {
			response.InternalError(c, err)
			return
		}
		if librarianID != 0 && ac.auditor != nil {
			ac.auditor.LogAuth(librarianID, "logout", c.ClientIP(), c.Request.UserAgent(), true)
		}
	}
	response.NoContent(c)
}

// Me handles GET /api/auth/me.
func (ac *AuthController) Me(c *gin.Context) {
	librarianID := GetLibrarianID(c)
	if librarianID == 0 {
		response.Error(c, ErrAuthRequired)
		return
	}

	librarian, err := ac.service.GetLibrarian(c.Request.Context(), librarianID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, librarian)
}

// ChangePassword handles PATCH /api/auth/change-password.
func (ac *AuthController) ChangePassword(c *gin.Context) {
	librarianID := GetLibrarianID(c)
	if librarianID == 0 {
		response.Error(c, ErrAuthRequired)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		response.Error(c, domainerrors.ValidationWithDetails("validation failed", missingFields(map[string]string{
			"current_password": req.CurrentPassword,
			"new_password":     req.NewPassword,
		})))
		return
	}

	err := ac.service.ChangePassword(c.Request.Context(), librarianID, req.CurrentPassword, req.NewPassword)
	if ac.auditor != nil {
		ac.auditor.LogAuth(librarianID, "password_change", c.ClientIP(), c.Request.UserAgent(), err == nil)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func bindLogin(c *gin.Context) (LoginRequest, bool) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return req, false
	}
	if req.identity() == "" || req.Password == "" {
		response.Error(c, domainerrors.ValidationWithDetails("validation failed", missingFields(map[string]string{
			"username": req.identity(),
			"password": req.Password,
		})))
		return req, false
	}
	return req, true
}

func missingFields(fields map[string]string) map[string]string {
	details := make(map[string]string)
	for name, value := range fields {
		if value == "" {
			details[name] = "is required"
		}
	}
	return details
}

func (ac *AuthController) loginFailed(c *gin.Context, action, identity string, err error) {
	if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrAccountLocked) {
		if ac.rateLimiter != nil {
			ac.rateLimiter.RecordFailure(c.ClientIP(), identity)
		}
		if ac.auditor != nil {
			ac.auditor.LogAuth(0, action, c.ClientIP(), c.Request.UserAgent(), false)
		}
	}
	response.Error(c, err)
}

func (ac *AuthController) loginSucceeded(c *gin.Context, action, identity string, librarian *entities.Librarian) {
	if ac.rateLimiter != nil {
		ac.rateLimiter.RecordSuccess(c.ClientIP(), identity)
	}
	if ac.auditor != nil {
		ac.auditor.LogAuth(librarian.ID, action, c.ClientIP(), c.Request.UserAgent(), true)
	}
}
