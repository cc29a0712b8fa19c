// Package auth identifies the librarian behind every API request.
//
// Librarians log in with their email and password. Two credential carriers
// are supported:
//   - Bearer tokens: PASETO v4.local access tokens whose subject is the
//     librarian's email, returned by POST /api/auth/login
//   - Session cookies: scs sessions for browser clients, created by
//     POST /api/auth/session and protected by gorilla/csrf
//
// A request with an Authorization header is judged by that header alone.
// Repeated failed logins lock the account and are rate limited per IP and
// username.
//
// # Configuration
//
//	AUTH_TOKEN_KEY=<64 hex chars>    # Generated (ephemeral) if empty
//	AUTH_TOKEN_EXPIRY=30m            # Access token lifetime
//	AUTH_SESSION_SECRET=<base64>     # Generated if empty
//	AUTH_SESSION_LIFETIME=12h        # Session duration
//	AUTH_BCRYPT_COST=12              # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true         # HTTPS-only cookies
//	AUTH_MAX_LOGIN_ATTEMPTS=5
//
// # Usage
//
//	tokens, _ := auth.NewTokenService(cfg.Auth.TokenKey, cfg.Auth.TokenExpiry)
//	authService := auth.NewService(librarianRepo, tokens, cfg.Auth)
//	router.Use(auth.NewMiddleware(authService, sessionManager).Handler())
//
// Extract the librarian in handlers:
//
//	librarianID := auth.GetLibrarianID(c)
package auth
