package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupMiddlewareRouter(t *testing.T) (*gin.Engine, *testEnv) {
	t.Helper()

	env := setupTestEnv(t)
	middleware := NewMiddleware(env.service, nil)

	router := gin.New()
	router.Use(middleware.Handler())
	router.GET("/api/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"librarian_id": GetLibrarianID(c),
			"email":        GetEmail(c),
			"auth_type":    GetAuthType(c),
		})
	})
	return router, env
}

func TestMiddleware_PublicPaths(t *testing.T) {
	env := setupTestEnv(t)
	middleware := NewMiddleware(env.service, nil)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/health"},
		{http.MethodGet, "/ping"},
		{http.MethodPost, "/api/auth/login"},
		{http.MethodPost, "/api/auth/session"},
		{http.MethodPost, "/api/librarians"},
		{http.MethodPost, "/api/librarians/"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			router := gin.New()
			router.Use(middleware.Handler())
			router.Handle(route.method, route.path, func(c *gin.Context) {
				if IsAuthenticated(c) {
					t.Error("public route should not carry a librarian")
				}
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(route.method, route.path, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("Expected status 200 for public route, got %d", rr.Code)
			}
		})
	}
}

func TestMiddleware_LibrarianListIsProtected(t *testing.T) {
	env := setupTestEnv(t)
	router := gin.New()
	router.Use(NewMiddleware(env.service, nil).Handler())
	router.GET("/api/librarians", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/librarians", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for GET /api/librarians, got %d", rr.Code)
	}
}

func TestMiddleware_MissingCredentials(t *testing.T) {
	router, _ := setupMiddlewareRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/whoami", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rr.Code)
	}
	if rr.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Errorf("Expected WWW-Authenticate: Bearer, got %q", rr.Header().Get("WWW-Authenticate"))
	}

	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["code"] != "UNAUTHORIZED" {
		t.Errorf("Expected code UNAUTHORIZED, got %q", body["code"])
	}
}

func TestMiddleware_BearerAuth_ValidToken(t *testing.T) {
	router, env := setupMiddlewareRouter(t)
	librarian := env.createLibrarian(t, "bearer@library.test")

	token, _, err := env.tokens.Issue(librarian)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body struct {
		LibrarianID uint   `json:"librarian_id"`
		Email       string `json:"email"`
		AuthType    string `json:"auth_type"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.LibrarianID != librarian.ID {
		t.Errorf("librarian_id = %d, want %d", body.LibrarianID, librarian.ID)
	}
	if body.Email != "bearer@library.test" {
		t.Errorf("email = %q", body.Email)
	}
	if body.AuthType != string(AuthTypeBearer) {
		t.Errorf("auth_type = %q, want bearer", body.AuthType)
	}
}

func TestMiddleware_BearerAuth_Rejected(t *testing.T) {
	router, _ := setupMiddlewareRouter(t)

	testCases := []struct {
		name   string
		header string
	}{
		{"invalid token", "Bearer invalidtoken123"},
		{"empty bearer", "Bearer "},
		{"missing bearer prefix", "Token abc123"},
		{"basic auth", "Basic abc123"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
			req.Header.Set("Authorization", tc.header)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("Expected 401 for %q, got %d", tc.header, rr.Code)
			}
		})
	}
}

func TestGetLibrarianID_NotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if id := GetLibrarianID(c); id != 0 {
		t.Errorf("GetLibrarianID() = %d, want 0", id)
	}
	if GetAuthType(c) != AuthTypeNone {
		t.Errorf("GetAuthType() = %q, want none", GetAuthType(c))
	}
	if IsAuthenticated(c) {
		t.Error("IsAuthenticated() should be false")
	}
}
