package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarian/internal/entities"
	"github.com/mrlokans/librarian/internal/http/response"
)

// Context keys for librarian data
const (
	ContextKeyLibrarianID = "auth_librarian_id"
	ContextKeyEmail       = "auth_email"
	ContextKeyAuthType    = "auth_type" // "session", "bearer", or "none"
)

// AuthType indicates how the librarian was authenticated
type AuthType string

const (
	AuthTypeNone    AuthType = "none"
	AuthTypeSession AuthType = "session"
	AuthTypeBearer  AuthType = "bearer"
)

// Middleware handles authentication for HTTP requests.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	publicPaths    map[string]bool
	publicRoutes   map[string]bool
}

// NewMiddleware creates a new authentication middleware.
// sessionManager may be nil, in which case only bearer tokens are accepted.
func NewMiddleware(service *Service, sessionManager *SessionManager) *Middleware {
	publicPaths := map[string]bool{
		"/health":           true,
		"/ping":             true,
		"/api/auth/login":   true,
		"/api/auth/session": true,
	}

	// Method-specific public routes
	publicRoutes := map[string]bool{
		http.MethodPost + " /api/librarians": true,
	}

	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		publicPaths:    publicPaths,
		publicRoutes:   publicRoutes,
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
// A request carrying an Authorization header is judged by that header alone.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.isPublic(c.Request) {
			c.Set(ContextKeyAuthType, AuthTypeNone)
			c.Next()
			return
		}

		if token, ok := bearerToken(c); ok {
			librarian, err := m.service.ResolveToken(c.Request.Context(), token)
			if err != nil {
				abortUnauthorized(c, ErrInvalidToken.Message)
				return
			}
			setLibrarianContext(c, librarian, AuthTypeBearer)
			c.Next()
			return
		}

		if librarian := m.trySessionAuth(c); librarian != nil {
			setLibrarianContext(c, librarian, AuthTypeSession)
			c.Next()
			return
		}

		abortUnauthorized(c, ErrAuthRequired.Message)
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{
		Error: msg,
		Code:  string(ErrAuthRequired.Code),
	})
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", true
	}
	return strings.TrimSpace(parts[1]), true
}

// trySessionAuth resolves the librarian of the session cookie, if any.
func (m *Middleware) trySessionAuth(c *gin.Context) *entities.Librarian {
	if m.sessionManager == nil {
		return nil
	}

	session, ok := m.sessionManager.Current(c.Request)
	if !ok {
		return nil
	}

	librarian, err := m.service.ResolveSession(c.Request.Context(), session)
	if err != nil {
		return nil
	}
	return librarian
}

// setLibrarianContext stores librarian information in the Gin context.
func setLibrarianContext(c *gin.Context, librarian *entities.Librarian, authType AuthType) {
	c.Set(ContextKeyLibrarianID, librarian.ID)
	c.Set(ContextKeyEmail, librarian.Email())
	c.Set(ContextKeyAuthType, authType)
}

// isPublic checks if a request should be served without authentication.
func (m *Middleware) isPublic(r *http.Request) bool {
	path := strings.TrimSuffix(r.URL.Path, "/")
	if path == "" {
		path = "/"
	}
	return m.publicPaths[path] || m.publicRoutes[r.Method+" "+path]
}

// Helper functions to extract auth data from Gin context

// GetLibrarianID retrieves the authenticated librarian's ID from the context.
// Returns 0 if not authenticated.
func GetLibrarianID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyLibrarianID); exists {
		if librarianID, ok := id.(uint); ok {
			return librarianID
		}
	}
	return 0
}

// GetEmail retrieves the authenticated librarian's email from the context.
func GetEmail(c *gin.Context) string {
	if v, exists := c.Get(ContextKeyEmail); exists {
		if email, ok := v.(string); ok {
			return email
		}
	}
	return ""
}

// GetAuthType retrieves the authentication method used.
func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeNone
}

// IsAuthenticated returns true if a librarian is attached to the request.
func IsAuthenticated(c *gin.Context) bool {
	return GetLibrarianID(c) != 0
}
